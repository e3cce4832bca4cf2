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
	"fmt"
	"strings"
)

// String returns a textual description of this fixed-format record.
func (r FixedRecord) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s mask=%#x", r.Relationship, r.ProcessorMask)
	switch r.Relationship {
	case RelationProcessorCore:
		fmt.Fprintf(&b, " flags=%d", r.Flags())
	case RelationNumaNode:
		fmt.Fprintf(&b, " node=%d", r.NodeNumber())
	case RelationCache:
		b.WriteString(" ")
		b.WriteString(r.Cache().String())
	case RelationProcessorPackage:
	default:
		fmt.Fprintf(&b, " reserved=%x", r.Payload[:])
	}
	return b.String()
}

// String returns a textual description of this cache.
func (c CacheDescriptor) String() string {
	return fmt.Sprintf("level=%d associativity=%d linesize=%d size=%d type=%d",
		c.Level, c.Associativity, c.LineSize, c.Size, c.Type)
}

// String returns a textual description of this extended-format record.
func (r ExtendedRecord) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s size=%d", r.Relationship, r.Size)
	switch {
	case r.Processor != nil:
		fmt.Fprintf(&b, " flags=%#x efficiencyclass=%d groupcount=%d",
			r.Processor.Flags, r.Processor.EfficiencyClass, r.GroupCount)
		writeGroupMasks(&b, r.Processor.GroupMasks)
	case r.NumaNode != nil:
		fmt.Fprintf(&b, " node=%d groupcount=%d", r.NumaNode.NodeNumber, r.GroupCount)
		writeGroupMasks(&b, r.NumaNode.GroupMasks)
	case r.Cache != nil:
		fmt.Fprintf(&b, " %s groupcount=%d", r.Cache.CacheDescriptor, r.GroupCount)
		writeGroupMasks(&b, r.Cache.GroupMasks)
	case r.Group != nil:
		fmt.Fprintf(&b, " maxgroups=%d activegroups=%d", r.Group.MaximumGroupCount, len(r.Group.Groups))
		for idx, g := range r.Group.Groups {
			fmt.Fprintf(&b, " [%d: max=%d active=%d mask=%#x]",
				idx, g.MaximumProcessorCount, g.ActiveProcessorCount, g.ActiveProcessorMask)
		}
	default:
		b.WriteString(" (unknown)")
	}
	return b.String()
}

func writeGroupMasks(b *strings.Builder, masks []GroupAffinity) {
	for _, m := range masks {
		fmt.Fprintf(b, " [group=%d mask=%#x]", m.Group, m.Mask)
	}
}
