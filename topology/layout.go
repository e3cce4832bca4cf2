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

// Relationship is the LOGICAL_PROCESSOR_RELATIONSHIP tag of a topology
// record; it is also used to select which records an extended topology query
// should return.
type Relationship uint32

// Relationship tags as defined by the Windows SDK.
const (
	RelationProcessorCore    Relationship = 0
	RelationNumaNode         Relationship = 1
	RelationCache            Relationship = 2
	RelationProcessorPackage Relationship = 3
	RelationGroup            Relationship = 4
	RelationProcessorDie     Relationship = 5
	RelationNumaNodeEx       Relationship = 6
	RelationProcessorModule  Relationship = 7
	RelationAll              Relationship = 0xffff
)

var relationshipNames = [...]string{
	"RelationProcessorCore",
	"RelationNumaNode",
	"RelationCache",
	"RelationProcessorPackage",
	"RelationGroup",
	"RelationProcessorDie",
	"RelationNumaNodeEx",
	"RelationProcessorModule",
}

// String returns the SDK name of this relationship.
func (r Relationship) String() string {
	if int(r) < len(relationshipNames) {
		return relationshipNames[r]
	}
	if r == RelationAll {
		return "RelationAll"
	}
	return fmt.Sprintf("Relationship(%d)", uint32(r))
}

// ParseRelationship returns the Relationship for the passed name, either the
// SDK name or without its "Relation" prefix, ignoring case. As a special
// case, "all" is accepted for [RelationAll].
func ParseRelationship(name string) (Relationship, error) {
	for idx, relname := range relationshipNames {
		if strings.EqualFold(name, relname) || strings.EqualFold(name, relname[len("Relation"):]) {
			return Relationship(idx), nil
		}
	}
	if strings.EqualFold(name, "all") || strings.EqualFold(name, "RelationAll") {
		return RelationAll, nil
	}
	return 0, fmt.Errorf("unknown processor relationship %q", name)
}

// Fixed format: SYSTEM_LOGICAL_PROCESSOR_INFORMATION.
const (
	FixedRecordSize = 32 // size of a single record in bytes

	fixedProcessorMaskOff = 0
	fixedRelationshipOff  = 8
	fixedPayloadOff       = 16 // union of ProcessorCore, NumaNode, Cache, Reserved

	fixedCoreFlagsOff       = fixedPayloadOff
	fixedNumaNodeNumberOff  = fixedPayloadOff
	fixedCacheLevelOff      = fixedPayloadOff
	fixedCacheAssocOff      = fixedPayloadOff + 1
	fixedCacheLineSizeOff   = fixedPayloadOff + 2
	fixedCacheSizeOff       = fixedPayloadOff + 4
	fixedCacheTypeOff       = fixedPayloadOff + 8
	fixedCacheDescriptorEnd = fixedPayloadOff + 12
)

// GROUP_AFFINITY, as embedded in extended records.
const (
	GroupAffinitySize = 16

	groupAffinityMaskOff  = 0
	groupAffinityGroupOff = 8
)

// Extended format: SYSTEM_LOGICAL_PROCESSOR_INFORMATION_EX header, followed
// by a relationship-specific payload.
const (
	ExHeaderSize = 8

	exRelationshipOff = 0
	exSizeOff         = 4
	exPayloadOff      = ExHeaderSize
)

// PROCESSOR_RELATIONSHIP (cores, dies, modules, packages).
const (
	procFlagsOff           = exPayloadOff + 0
	procEfficiencyClassOff = exPayloadOff + 1
	procGroupCountOff      = exPayloadOff + 22
	procGroupMaskOff       = exPayloadOff + 24

	// ProcessorRecordSize is the size of a processor relationship record
	// with exactly one group mask.
	ProcessorRecordSize = procGroupMaskOff + GroupAffinitySize
)

// NUMA_NODE_RELATIONSHIP.
const (
	numaNodeNumberOff = exPayloadOff + 0
	numaGroupCountOff = exPayloadOff + 22
	numaGroupMaskOff  = exPayloadOff + 24

	// NumaNodeRecordSize is the size of a NUMA node relationship record with
	// exactly one group mask.
	NumaNodeRecordSize = numaGroupMaskOff + GroupAffinitySize
)

// CACHE_RELATIONSHIP.
const (
	cacheLevelOff      = exPayloadOff + 0
	cacheAssocOff      = exPayloadOff + 1
	cacheLineSizeOff   = exPayloadOff + 2
	cacheSizeOff       = exPayloadOff + 4
	cacheTypeOff       = exPayloadOff + 8
	cacheGroupCountOff = exPayloadOff + 30
	cacheGroupMaskOff  = exPayloadOff + 32

	// CacheRecordSize is the size of a cache relationship record with
	// exactly one group mask.
	CacheRecordSize = cacheGroupMaskOff + GroupAffinitySize
)

// GROUP_RELATIONSHIP and its PROCESSOR_GROUP_INFO array.
const (
	groupMaxGroupCountOff    = exPayloadOff + 0
	groupActiveGroupCountOff = exPayloadOff + 2
	groupInfoOff             = exPayloadOff + 24

	ProcessorGroupInfoSize = 48

	groupInfoMaxProcsOff    = 0
	groupInfoActiveProcsOff = 1
	groupInfoActiveMaskOff  = 40

	// GroupRecordSize is the size of a group relationship record describing
	// exactly one processor group.
	GroupRecordSize = groupInfoOff + ProcessorGroupInfoSize
)
