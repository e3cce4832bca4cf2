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
	. "github.com/onsi/ginkgo/v2/dsl/core"
	. "github.com/onsi/ginkgo/v2/dsl/table"
	. "github.com/onsi/gomega"
	. "github.com/thediveo/success"
)

var _ = Describe("virtual CPU sets", func() {

	It("rejects invalid CPU counts", func() {
		Expect(NewVirtualSet(0)).Error().To(MatchError(ErrInvalidVirtualSet))
		Expect(NewVirtualSet(65)).Error().To(MatchError(ErrInvalidVirtualSet))
		Expect(VirtualSet{}.String()).To(BeEmpty())
	})

	DescribeTable("masks and lists",
		func(count uint, mask uint64, list string) {
			vset := Successful(NewVirtualSet(count))
			Expect(vset.Count()).To(Equal(count))
			Expect(vset.Mask()).To(Equal(mask))
			Expect(vset.String()).To(Equal(list))
			Expect(vset.IsSet(count - 1)).To(BeTrue())
			Expect(vset.IsSet(count)).To(BeFalse())
		},
		Entry(nil, uint(1), uint64(0x1), "0"),
		Entry(nil, uint(16), uint64(0xffff), "0-15"),
		Entry(nil, uint(63), ^uint64(0)>>1, "0-62"),
		Entry(nil, uint(64), ^uint64(0), "0-63"),
	)

	It("clamps masks and counts", func() {
		Expect(vset16.Clamp(0xffffffff)).To(Equal(uint64(0xffff)))
		Expect(vset16.Clamp(0xffff0000)).To(BeZero())
		Expect(vset16.ClampCount(32)).To(Equal(uint32(16)))
		Expect(vset16.ClampCount(4)).To(Equal(uint32(4)))
	})

	It("handles ideal processors", func() {
		Expect(vset16.AcceptsIdealProcessor(0)).To(BeTrue())
		Expect(vset16.AcceptsIdealProcessor(15)).To(BeTrue())
		Expect(vset16.AcceptsIdealProcessor(16)).To(BeFalse())
		Expect(vset16.AcceptsIdealProcessor(MaximumProcessors)).To(BeTrue())
		Expect(vset16.ReduceIdealProcessor(21)).To(Equal(uint32(5)))
		Expect(vset16.ReduceIdealProcessor(7)).To(Equal(uint32(7)))
	})

})
