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

package topology

import (
	. "github.com/onsi/ginkgo/v2/dsl/core"
	. "github.com/onsi/ginkgo/v2/dsl/table"
	. "github.com/onsi/gomega"
	. "github.com/thediveo/success"
)

var _ = Describe("describing topology records", func() {

	DescribeTable("fixed-format records",
		func(rec FixedRecord, expected string) {
			Expect(rec.String()).To(Equal(expected))
		},
		Entry(nil, CoreRecord(0x3, 1), "RelationProcessorCore mask=0x3 flags=1"),
		Entry(nil, NumaNodeRecord(0xffff, 2), "RelationNumaNode mask=0xffff node=2"),
		Entry(nil, PackageRecord(0xff), "RelationProcessorPackage mask=0xff"),
		Entry(nil, CacheRecord(0x1, CacheDescriptor{Level: 1, Associativity: 8, LineSize: 64, Size: 32768, Type: CacheInstruction}),
			"RelationCache mask=0x1 level=1 associativity=8 linesize=64 size=32768 type=1"),
	)

	It("describes extended-format records", func() {
		buf := AppendProcessor(nil, RelationProcessorCore, ProcessorRelationship{
			Flags:      1,
			GroupMasks: []GroupAffinity{{Mask: 0x3}},
		})
		buf = AppendGroup(buf, GroupRelationship{
			MaximumGroupCount: 1,
			Groups:            []ProcessorGroupInfo{{MaximumProcessorCount: 16, ActiveProcessorCount: 16, ActiveProcessorMask: 0xffff}},
		})
		buf = AppendOpaque(buf, 42, nil)
		recs := Successful(DecodeExtended(buf))
		Expect(recs).To(HaveLen(3))
		Expect(recs[0].String()).To(Equal(
			"RelationProcessorCore size=48 flags=0x1 efficiencyclass=0 groupcount=1 [group=0 mask=0x3]"))
		Expect(recs[1].String()).To(Equal(
			"RelationGroup size=80 maxgroups=1 activegroups=1 [0: max=16 active=16 mask=0xffff]"))
		Expect(recs[2].String()).To(Equal("Relationship(42) size=8 (unknown)"))
	})

	DescribeTable("relationship names",
		func(name string, rel Relationship) {
			Expect(ParseRelationship(name)).To(Equal(rel))
			Expect(ParseRelationship(rel.String())).To(Equal(rel))
		},
		Entry(nil, "ProcessorCore", RelationProcessorCore),
		Entry(nil, "RelationCache", RelationCache),
		Entry(nil, "numanode", RelationNumaNode),
		Entry(nil, "group", RelationGroup),
		Entry(nil, "all", RelationAll),
	)

	It("rejects unknown relationship names", func() {
		Expect(ParseRelationship("foo")).Error().To(HaveOccurred())
		Expect(Relationship(42).String()).To(Equal("Relationship(42)"))
	})

})
