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

import "fmt"

// GroupAffinity is a processor group number together with a mask of logical
// CPUs within that group.
type GroupAffinity struct {
	Mask  uint64
	Group uint16
}

// CacheType is the PROCESSOR_CACHE_TYPE of a cache.
type CacheType uint32

// Cache types.
const (
	CacheUnified CacheType = iota
	CacheInstruction
	CacheData
	CacheTrace
)

// CacheDescriptor describes a cache as part of fixed-format records.
type CacheDescriptor struct {
	Level         uint8
	Associativity uint8
	LineSize      uint16
	Size          uint32
	Type          CacheType
}

// FixedRecord is a decoded SYSTEM_LOGICAL_PROCESSOR_INFORMATION record.
type FixedRecord struct {
	ProcessorMask uint64
	Relationship  Relationship
	Payload       [16]byte // kind-specific, see the accessor methods
}

// Flags returns the ProcessorCore flags.
func (r FixedRecord) Flags() uint8 { return r.Payload[0] }

// NodeNumber returns the NumaNode node number.
func (r FixedRecord) NodeNumber() uint32 { return le.Uint32(r.Payload[:]) }

// Cache returns the cache descriptor.
func (r FixedRecord) Cache() CacheDescriptor {
	p := r.Payload[:]
	return CacheDescriptor{
		Level:         p[fixedCacheLevelOff-fixedPayloadOff],
		Associativity: p[fixedCacheAssocOff-fixedPayloadOff],
		LineSize:      le.Uint16(p[fixedCacheLineSizeOff-fixedPayloadOff:]),
		Size:          le.Uint32(p[fixedCacheSizeOff-fixedPayloadOff:]),
		Type:          CacheType(le.Uint32(p[fixedCacheTypeOff-fixedPayloadOff:])),
	}
}

// CoreRecord returns a fixed-format ProcessorCore record.
func CoreRecord(mask uint64, flags uint8) FixedRecord {
	r := FixedRecord{ProcessorMask: mask, Relationship: RelationProcessorCore}
	r.Payload[fixedCoreFlagsOff-fixedPayloadOff] = flags
	return r
}

// NumaNodeRecord returns a fixed-format NumaNode record.
func NumaNodeRecord(mask uint64, node uint32) FixedRecord {
	r := FixedRecord{ProcessorMask: mask, Relationship: RelationNumaNode}
	le.PutUint32(r.Payload[fixedNumaNodeNumberOff-fixedPayloadOff:], node)
	return r
}

// CacheRecord returns a fixed-format Cache record.
func CacheRecord(mask uint64, cache CacheDescriptor) FixedRecord {
	r := FixedRecord{ProcessorMask: mask, Relationship: RelationCache}
	p := r.Payload[:]
	p[fixedCacheLevelOff-fixedPayloadOff] = cache.Level
	p[fixedCacheAssocOff-fixedPayloadOff] = cache.Associativity
	le.PutUint16(p[fixedCacheLineSizeOff-fixedPayloadOff:], cache.LineSize)
	le.PutUint32(p[fixedCacheSizeOff-fixedPayloadOff:], cache.Size)
	le.PutUint32(p[fixedCacheTypeOff-fixedPayloadOff:], uint32(cache.Type))
	return r
}

// PackageRecord returns a fixed-format ProcessorPackage record.
func PackageRecord(mask uint64) FixedRecord {
	return FixedRecord{ProcessorMask: mask, Relationship: RelationProcessorPackage}
}

// AppendFixed appends the binary representation of the passed records to buf
// and returns the extended buffer.
func AppendFixed(buf []byte, recs ...FixedRecord) []byte {
	for _, r := range recs {
		var b [FixedRecordSize]byte
		le.PutUint64(b[fixedProcessorMaskOff:], r.ProcessorMask)
		le.PutUint32(b[fixedRelationshipOff:], uint32(r.Relationship))
		copy(b[fixedPayloadOff:], r.Payload[:])
		buf = append(buf, b[:]...)
	}
	return buf
}

// DecodeFixed decodes a fixed-format topology buffer. It returns an error if
// the buffer doesn't consist of complete records.
func DecodeFixed(buf []byte) ([]FixedRecord, error) {
	if len(buf)%FixedRecordSize != 0 {
		return nil, fmt.Errorf("fixed topology of %d bytes is not a multiple of %d",
			len(buf), FixedRecordSize)
	}
	recs := make([]FixedRecord, 0, len(buf)/FixedRecordSize)
	for off := 0; off < len(buf); off += FixedRecordSize {
		r := FixedRecord{
			ProcessorMask: le.Uint64(buf[off+fixedProcessorMaskOff:]),
			Relationship:  Relationship(le.Uint32(buf[off+fixedRelationshipOff:])),
		}
		copy(r.Payload[:], buf[off+fixedPayloadOff:off+FixedRecordSize])
		recs = append(recs, r)
	}
	return recs, nil
}

// ProcessorRelationship describes a core, die, module or package.
type ProcessorRelationship struct {
	Flags           uint8
	EfficiencyClass uint8
	GroupMasks      []GroupAffinity
}

// NumaNodeRelationship describes a NUMA node.
type NumaNodeRelationship struct {
	NodeNumber uint32
	GroupMasks []GroupAffinity
}

// CacheRelationship describes a cache.
type CacheRelationship struct {
	CacheDescriptor
	GroupMasks []GroupAffinity
}

// ProcessorGroupInfo describes a single processor group.
type ProcessorGroupInfo struct {
	MaximumProcessorCount uint8
	ActiveProcessorCount  uint8
	ActiveProcessorMask   uint64
}

// GroupRelationship describes the processor groups; the number of active
// groups is the length of Groups.
type GroupRelationship struct {
	MaximumGroupCount uint16
	Groups            []ProcessorGroupInfo
}

// ExtendedRecord is a decoded SYSTEM_LOGICAL_PROCESSOR_INFORMATION_EX
// record; depending on the relationship exactly one of the relationship
// pointers is set, or none for unknown relationships.
type ExtendedRecord struct {
	Relationship Relationship
	Size         uint32
	GroupCount   uint16 // as declared by the record
	Processor    *ProcessorRelationship
	NumaNode     *NumaNodeRelationship
	Cache        *CacheRelationship
	Group        *GroupRelationship
}

func appendRecord(buf []byte, rel Relationship, size int) ([]byte, Record) {
	start := len(buf)
	buf = append(buf, make([]byte, size)...)
	rec := Record(buf[start:])
	rec.PutUint32(exRelationshipOff, uint32(rel))
	rec.PutUint32(exSizeOff, uint32(size))
	return buf, rec
}

func putGroupMasks(rec Record, off int, masks []GroupAffinity) {
	for idx, m := range masks {
		rec.PutUint64(off+idx*GroupAffinitySize+groupAffinityMaskOff, m.Mask)
		rec.PutUint16(off+idx*GroupAffinitySize+groupAffinityGroupOff, m.Group)
	}
}

func getGroupMasks(rec Record, off int, count int) []GroupAffinity {
	masks := make([]GroupAffinity, 0, count)
	for idx := range count {
		goff := off + idx*GroupAffinitySize
		if !rec.fits(goff, GroupAffinitySize) {
			break
		}
		masks = append(masks, GroupAffinity{
			Mask:  rec.Uint64(goff + groupAffinityMaskOff),
			Group: rec.Uint16(goff + groupAffinityGroupOff),
		})
	}
	return masks
}

// maskSlots returns the number of GROUP_AFFINITY slots to encode; NUMA node
// and cache relationships always carry at least one.
func maskSlots(masks []GroupAffinity) int {
	return max(1, len(masks))
}

// AppendProcessor appends an extended processor relationship record of the
// specified kind (core, die, module, or package) to buf.
func AppendProcessor(buf []byte, rel Relationship, p ProcessorRelationship) []byte {
	buf, rec := appendRecord(buf, rel, procGroupMaskOff+maskSlots(p.GroupMasks)*GroupAffinitySize)
	rec.PutUint8(procFlagsOff, p.Flags)
	rec.PutUint8(procEfficiencyClassOff, p.EfficiencyClass)
	rec.PutUint16(procGroupCountOff, uint16(len(p.GroupMasks)))
	putGroupMasks(rec, procGroupMaskOff, p.GroupMasks)
	return buf
}

// AppendNumaNode appends an extended NUMA node relationship record of the
// specified kind (RelationNumaNode or RelationNumaNodeEx) to buf.
func AppendNumaNode(buf []byte, rel Relationship, n NumaNodeRelationship) []byte {
	buf, rec := appendRecord(buf, rel, numaGroupMaskOff+maskSlots(n.GroupMasks)*GroupAffinitySize)
	rec.PutUint32(numaNodeNumberOff, n.NodeNumber)
	rec.PutUint16(numaGroupCountOff, uint16(len(n.GroupMasks)))
	putGroupMasks(rec, numaGroupMaskOff, n.GroupMasks)
	return buf
}

// AppendCache appends an extended cache relationship record to buf.
func AppendCache(buf []byte, c CacheRelationship) []byte {
	buf, rec := appendRecord(buf, RelationCache, cacheGroupMaskOff+maskSlots(c.GroupMasks)*GroupAffinitySize)
	rec.PutUint8(cacheLevelOff, c.Level)
	rec.PutUint8(cacheAssocOff, c.Associativity)
	rec.PutUint16(cacheLineSizeOff, c.LineSize)
	rec.PutUint32(cacheSizeOff, c.Size)
	rec.PutUint32(cacheTypeOff, uint32(c.Type))
	rec.PutUint16(cacheGroupCountOff, uint16(len(c.GroupMasks)))
	putGroupMasks(rec, cacheGroupMaskOff, c.GroupMasks)
	return buf
}

// AppendGroup appends an extended group relationship record to buf.
func AppendGroup(buf []byte, g GroupRelationship) []byte {
	buf, rec := appendRecord(buf, RelationGroup, groupInfoOff+max(1, len(g.Groups))*ProcessorGroupInfoSize)
	rec.PutUint16(groupMaxGroupCountOff, g.MaximumGroupCount)
	rec.PutUint16(groupActiveGroupCountOff, uint16(len(g.Groups)))
	for idx, info := range g.Groups {
		off := groupInfoOff + idx*ProcessorGroupInfoSize
		rec.PutUint8(off+groupInfoMaxProcsOff, info.MaximumProcessorCount)
		rec.PutUint8(off+groupInfoActiveProcsOff, info.ActiveProcessorCount)
		rec.PutUint64(off+groupInfoActiveMaskOff, info.ActiveProcessorMask)
	}
	return buf
}

// AppendOpaque appends an extended record with the specified relationship
// and an opaque payload to buf. This is mainly useful for synthesizing
// records of relationships unknown to this package.
func AppendOpaque(buf []byte, rel Relationship, payload []byte) []byte {
	buf, rec := appendRecord(buf, rel, ExHeaderSize+len(payload))
	copy(rec[exPayloadOff:], payload)
	return buf
}

// DecodeExtended decodes an extended-format topology buffer. It returns an
// error if the record chain is damaged or leaves trailing bytes.
func DecodeExtended(buf []byte) ([]ExtendedRecord, error) {
	var recs []ExtendedRecord
	c := NewCursor(buf)
	for ; c.Valid(); c.Next() {
		recs = append(recs, decodeRecord(c.Record()))
	}
	if c.Remaining() != 0 {
		return recs, fmt.Errorf("damaged topology record at offset %d", c.Offset())
	}
	return recs, nil
}

func decodeRecord(rec Record) ExtendedRecord {
	r := ExtendedRecord{
		Relationship: rec.Relationship(),
		Size:         rec.Size(),
	}
	switch r.Relationship {
	case RelationProcessorCore, RelationProcessorDie,
		RelationProcessorModule, RelationProcessorPackage:
		r.GroupCount = rec.Uint16(procGroupCountOff)
		r.Processor = &ProcessorRelationship{
			Flags:           rec.Uint8(procFlagsOff),
			EfficiencyClass: rec.Uint8(procEfficiencyClassOff),
			GroupMasks:      getGroupMasks(rec, procGroupMaskOff, int(r.GroupCount)),
		}
	case RelationNumaNode, RelationNumaNodeEx:
		r.GroupCount = rec.Uint16(numaGroupCountOff)
		r.NumaNode = &NumaNodeRelationship{
			NodeNumber: rec.Uint32(numaNodeNumberOff),
			// older systems report a zero group count, yet a valid first group
			// mask.
			GroupMasks: getGroupMasks(rec, numaGroupMaskOff, max(1, int(r.GroupCount))),
		}
	case RelationCache:
		r.GroupCount = rec.Uint16(cacheGroupCountOff)
		r.Cache = &CacheRelationship{
			CacheDescriptor: CacheDescriptor{
				Level:         rec.Uint8(cacheLevelOff),
				Associativity: rec.Uint8(cacheAssocOff),
				LineSize:      rec.Uint16(cacheLineSizeOff),
				Size:          rec.Uint32(cacheSizeOff),
				Type:          CacheType(rec.Uint32(cacheTypeOff)),
			},
			GroupMasks: getGroupMasks(rec, cacheGroupMaskOff, max(1, int(r.GroupCount))),
		}
	case RelationGroup:
		active := int(rec.Uint16(groupActiveGroupCountOff))
		g := &GroupRelationship{
			MaximumGroupCount: rec.Uint16(groupMaxGroupCountOff),
			Groups:            make([]ProcessorGroupInfo, 0, active),
		}
		for idx := range active {
			off := groupInfoOff + idx*ProcessorGroupInfoSize
			if !rec.fits(off, ProcessorGroupInfoSize) {
				break
			}
			g.Groups = append(g.Groups, ProcessorGroupInfo{
				MaximumProcessorCount: rec.Uint8(off + groupInfoMaxProcsOff),
				ActiveProcessorCount:  rec.Uint8(off + groupInfoActiveProcsOff),
				ActiveProcessorMask:   rec.Uint64(off + groupInfoActiveMaskOff),
			})
		}
		r.GroupCount = uint16(active)
		r.Group = g
	}
	return r
}
