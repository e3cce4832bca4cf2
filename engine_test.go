// Copyright 2024 Harald Albrecht.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not
// use this file except in compliance with the License. You may obtain a copy
// of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
// WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
// License for the specific language governing permissions and limitations
// under the License.

package cpulimiter

import (
	"github.com/onsi/ginkgo/v2"
	"github.com/thediveo/cpulimiter/topology"

	. "github.com/onsi/ginkgo/v2/dsl/core"
	. "github.com/onsi/gomega"
)

var _ = Describe("engine lifecycle", func() {

	It("rejects invalid activations", func() {
		e := New()
		Expect(e.Activate(nil, vset16)).To(MatchError(ErrInvalidParameter))
		Expect(e.Activate(newFakeProvider(), VirtualSet{})).To(MatchError(ErrInvalidParameter))
		Expect(e.Active()).To(BeFalse())
		Expect(e.VirtualSet()).To(BeZero())
	})

	It("activates only once", func() {
		e, raw := newActiveEngine()
		Expect(e.Active()).To(BeTrue())
		Expect(e.VirtualSet()).To(Equal(vset16))
		Expect(e.Activate(raw, vset16)).To(MatchError(ErrAlreadyActive))

		Expect(e.Deactivate()).To(Succeed())
		Expect(e.Active()).To(BeFalse())
		Expect(e.VirtualSet()).To(Equal(vset16))
		Expect(e.Deactivate()).To(MatchError(ErrNotActive))
		Expect(e.Activate(raw, vset16)).To(MatchError(ErrAlreadyActive))
	})

	It("cannot deactivate an engine never activated", func() {
		Expect(New().Deactivate()).To(MatchError(ErrNotActive))
	})

	It("releases the topology caches when deactivating", func() {
		e, _ := newActiveEngine()
		Expect(fixedQuery(e)).Error().NotTo(HaveOccurred())
		Expect(extendedQuery(e, topology.RelationAll)).Error().NotTo(HaveOccurred())
		Expect(e.fixed.Load()).NotTo(BeNil())
		Expect(e.ext.valid).To(BeTrue())

		Expect(e.Deactivate()).To(Succeed())
		Expect(e.fixed.Load()).To(BeNil())
		Expect(e.ext.valid).To(BeFalse())
		Expect(e.ext.bytes).To(BeNil())
	})

	It("refuses service when not active", func() {
		e := New(WithLogger(ginkgo.GinkgoLogr))
		check := func() {
			var length uint32
			Expect(e.LogicalProcessorInformation(nil, &length)).To(MatchError(ErrNotReady))
			Expect(e.LogicalProcessorInformationEx(topology.RelationAll, nil, &length)).To(MatchError(ErrNotReady))
			Expect(length).To(BeZero())
			var p, s uint64
			Expect(e.ProcessAffinityMask(1, &p, &s)).To(MatchError(ErrNotReady))
			Expect(e.SetProcessAffinityMask(1, 1)).To(MatchError(ErrNotReady))
			Expect(e.SetThreadAffinityMask(1, 1)).Error().To(MatchError(ErrNotReady))
			ideal, err := e.SetThreadIdealProcessor(1, 0)
			Expect(err).To(MatchError(ErrNotReady))
			Expect(ideal).To(Equal(InvalidIdealProcessor))
			var count uint16
			Expect(e.ProcessGroupAffinity(1, &count, nil)).To(MatchError(ErrNotReady))
			var affinity GroupAffinity
			Expect(e.ThreadGroupAffinity(1, &affinity)).To(MatchError(ErrNotReady))
			Expect(e.SetThreadGroupAffinity(1, &affinity, nil)).To(MatchError(ErrNotReady))
			Expect(e.SetThreadIdealProcessorEx(1, &ProcessorNumber{}, nil)).To(MatchError(ErrNotReady))
		}
		check()

		raw := newFakeProvider()
		Expect(e.Activate(raw, vset16)).To(Succeed())
		Expect(e.Deactivate()).To(Succeed())
		check()
		Expect(raw.calls).To(BeEmpty())
	})

})
