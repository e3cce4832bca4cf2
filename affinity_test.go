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
	"syscall"

	. "github.com/onsi/ginkgo/v2/dsl/core"
	. "github.com/onsi/ginkgo/v2/dsl/table"
	. "github.com/onsi/gomega"
)

var _ = Describe("affinities", func() {

	DescribeTable("clamping affinity query results",
		func(mask uint64) {
			p, s := vset16.ClampAffinity(mask, mask)
			Expect(p).To(Equal(mask & 0xffff))
			Expect(s).To(Equal(mask & 0xffff))
		},
		Entry(nil, uint64(0)),
		Entry(nil, uint64(0x1)),
		Entry(nil, uint64(0xffffffff)),
		Entry(nil, uint64(0xffff0000)),
		Entry(nil, ^uint64(0)),
	)

	It("clamps process and system affinities", func() {
		e, raw := newActiveEngine()
		raw.processMask, raw.systemMask = 0xffffffff, 0xffffffff
		var p, s uint64
		Expect(e.ProcessAffinityMask(1, &p, &s)).To(Succeed())
		Expect(p).To(Equal(uint64(0xffff)))
		Expect(s).To(Equal(uint64(0xffff)))

		raw.processMask = 0xff0
		Expect(e.ProcessAffinityMask(1, &p, nil)).To(Succeed())
		Expect(p).To(Equal(uint64(0xff0)))
	})

	It("passes on failing affinity queries untouched", func() {
		e, raw := newActiveEngine()
		raw.affinityErr = syscall.Errno(6)
		p, s := ^uint64(0), ^uint64(0)
		Expect(e.ProcessAffinityMask(1, &p, &s)).To(MatchError(syscall.Errno(6)))
		Expect(p).To(Equal(^uint64(0)))
		Expect(s).To(Equal(^uint64(0)))
	})

	It("sets clamped process affinities", func() {
		e, raw := newActiveEngine()
		Expect(e.SetProcessAffinityMask(1, 0xf000f)).To(Succeed())
		Expect(raw.setProcessMask).To(Equal(uint64(0xf)))

		raw.affinityErr = syscall.Errno(5)
		Expect(e.SetProcessAffinityMask(1, 0xf0000)).To(MatchError(syscall.Errno(5)))
		Expect(raw.setProcessMask).To(BeZero())
	})

	It("sets clamped thread affinities, clamping the previous affinity", func() {
		e, raw := newActiveEngine()
		raw.previousThreadMask = 0xffffffff
		Expect(e.SetThreadAffinityMask(2, 0xff00ff00)).To(Equal(uint64(0xffff)))
		Expect(raw.setThreadMask).To(Equal(uint64(0xff00)))

		raw.affinityErr = syscall.Errno(87)
		Expect(e.SetThreadAffinityMask(2, 0x1)).Error().To(MatchError(syscall.Errno(87)))
	})

	When("setting ideal processors", func() {

		It("rejects ideal processors outside the virtual CPU set", func() {
			e, raw := newActiveEngine()
			previous, err := e.SetThreadIdealProcessor(2, 16)
			Expect(err).To(MatchError(ErrInvalidParameter))
			Expect(previous).To(Equal(InvalidIdealProcessor))
			previous, err = e.SetThreadIdealProcessor(2, 63)
			Expect(err).To(MatchError(ErrInvalidParameter))
			Expect(previous).To(Equal(InvalidIdealProcessor))
			Expect(raw.count("setidealprocessor")).To(BeZero())
		})

		It("passes on ideal processors inside the virtual CPU set", func() {
			e, raw := newActiveEngine()
			raw.previousIdeal = 21
			Expect(e.SetThreadIdealProcessor(2, 15)).To(Equal(uint32(5)))
			Expect(e.SetThreadIdealProcessor(2, 0)).To(Equal(uint32(5)))
			Expect(raw.ideals).To(Equal([]uint32{15, 0}))
		})

		It("passes on the maximum processors sentinel", func() {
			e, raw := newActiveEngine()
			raw.previousIdeal = 3
			Expect(e.SetThreadIdealProcessor(2, MaximumProcessors)).To(Equal(uint32(3)))
			Expect(raw.ideals).To(Equal([]uint32{MaximumProcessors}))
		})

		It("passes on failures unchanged", func() {
			e, raw := newActiveEngine()
			raw.idealErr = syscall.Errno(6)
			previous, err := e.SetThreadIdealProcessor(2, 1)
			Expect(err).To(MatchError(syscall.Errno(6)))
			Expect(previous).To(Equal(InvalidIdealProcessor))
		})

	})

})
