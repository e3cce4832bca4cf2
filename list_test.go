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

var _ = Describe("cpu lists", func() {

	DescribeTable("generating textual representations",
		func(list List, expected string) {
			Expect(list.String()).To(Equal(expected))
		},
		Entry(nil, List{}, ""),
		Entry(nil, List{{1, 1}, {2, 42}, {63, 63}}, "1,2-42,63"),
		Entry(nil, List{{0, 15}}, "0-15"),
		Entry(nil, List{{2, 42}, {60, 61}}, "2-42,60-61"),
	)

	When("parsing lists from text", func() {

		It("returns nothing from nothing", func() {
			Expect(NewList([]byte(""))).To(Equal(List{}))
		})

		It("returns a single cpu", func() {
			Expect(NewList([]byte("42"))).To(Equal(List{{42, 42}}))
		})

		It("returns a single range", func() {
			Expect(NewList([]byte("0-15"))).To(Equal(List{{0, 15}}))
		})

		It("returns multiple individual CPUs and ranges", func() {
			Expect(NewList([]byte("1-4,7,10-11"))).To(
				Equal(List{{1, 4}, {7, 7}, {10, 11}}))
		})

		DescribeTable("parsing errors",
			func(s string, msg string) {
				Expect(NewList([]byte(s))).Error().To(MatchError(msg))
			},
			Entry(nil, "abc", "expected unsigned integer number"),
			Entry(nil, "0abc", "expected '-' or ','"),
			Entry(nil, "1-z", "expected unsigned integer number"),
			Entry(nil, "0-0abc", "expected ','"),
			Entry(nil, "15-0", "invalid range 15-0"),
		)

	})

	DescribeTable("converting masks into lists",
		func(mask uint64, expected string) {
			Expect(MaskList(mask).String()).To(Equal(expected))
		},
		Entry(nil, uint64(0), ""),
		Entry(nil, uint64(0x1), "0"),
		Entry(nil, uint64(0xffff), "0-15"),
		Entry(nil, uint64(0xf0f1), "0,4-7,12-15"),
		Entry(nil, uint64(1)<<63, "63"),
		Entry(nil, ^uint64(0), "0-63"),
	)

	DescribeTable("converting lists into masks",
		func(list string, expected uint64) {
			Expect(Successful(NewList([]byte(list))).Mask()).To(Equal(expected))
		},
		Entry(nil, "", uint64(0)),
		Entry(nil, "0-15", uint64(0xffff)),
		Entry(nil, "0,4-7,12-15", uint64(0xf0f1)),
		Entry(nil, "63", uint64(1)<<63),
		Entry(nil, "0-63", ^uint64(0)),
	)

	It("rejects lists beyond what masks can hold", func() {
		Expect(List{{60, 64}}.Mask()).Error().To(HaveOccurred())
		Expect(List{{5, 1}}.Mask()).Error().To(HaveOccurred())
	})

})
