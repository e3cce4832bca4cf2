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
	"bytes"
	"math/bits"
	"slices"
)

// FilterFixed filters a fixed-format topology buffer so that it only
// describes the CPUs in mask. Records not sharing any CPU with mask are
// dropped, the remaining records get their processor mask reduced to the
// intersection with mask. The kept records keep their original relative
// order. Any trailing partial record in raw is ignored.
//
// FilterFixed compacts the kept records in place inside raw and then returns
// them as a new, exactly sized, buffer.
func FilterFixed(raw []byte, mask uint64) []byte {
	count := len(raw) / FixedRecordSize
	write := 0
	for read := 0; read < count; read++ {
		rec := raw[read*FixedRecordSize : (read+1)*FixedRecordSize]
		procmask := le.Uint64(rec[fixedProcessorMaskOff:])
		if procmask&mask == 0 {
			continue
		}
		le.PutUint64(rec[fixedProcessorMaskOff:], procmask&mask)
		if read != write {
			copy(raw[write*FixedRecordSize:], rec)
		}
		write++
	}
	return bytes.Clone(raw[:write*FixedRecordSize])
}

// FilterExtended filters an extended-format topology buffer so that it only
// describes the CPUs in mask, which must be a contiguous range of low-order
// CPUs starting at CPU #0 and thus always fits into processor group #0.
//
// For each record in the chain, only the first group mask is kept and reduced
// to its intersection with mask; the record's declared size is then shrunk
// to the size of the single-group layout. Records without any CPUs in mask
// are dropped, as are records of unknown relationship kinds as well as
// records too short to hold even the single-group layout of their kind. The
// walk stops at the first record with a damaged size.
//
// Records are reduced in place inside raw; the kept records are returned in
// their original order in a new buffer.
func FilterExtended(raw []byte, mask uint64) []byte {
	cpus := uint(bits.OnesCount64(mask))
	out := make([]byte, 0, len(raw))
	for rec := range Records(raw) {
		size, keep := reduce(rec, mask, cpus)
		if !keep {
			continue
		}
		start := len(out)
		out = append(out, rec[:size]...)
		Record(out[start:]).PutUint32(exSizeOff, uint32(size))
	}
	return slices.Clip(out)
}

// reduce reduces a single extended record in place to the virtual CPU set,
// returning the size of the reduced record and whether the record is to be
// kept at all. mask must be the contiguous range of the cpus low-order CPUs
// #0 to #cpus-1, as group records get their processor counts capped to cpus
// while their active processor mask gets reduced to mask.
func reduce(rec Record, mask uint64, cpus uint) (size int, keep bool) {
	switch rec.Relationship() {
	case RelationProcessorCore, RelationProcessorDie,
		RelationProcessorModule, RelationProcessorPackage:
		if len(rec) < ProcessorRecordSize || rec.Uint16(procGroupCountOff) == 0 {
			return 0, false
		}
		rec.PutUint16(procGroupCountOff, 1)
		return ProcessorRecordSize, reduceGroupMask(rec, procGroupMaskOff, mask)

	case RelationNumaNode, RelationNumaNodeEx:
		if len(rec) < NumaNodeRecordSize {
			return 0, false
		}
		capGroupCount(rec, numaGroupCountOff)
		return NumaNodeRecordSize, reduceGroupMask(rec, numaGroupMaskOff, mask)

	case RelationCache:
		if len(rec) < CacheRecordSize {
			return 0, false
		}
		capGroupCount(rec, cacheGroupCountOff)
		return CacheRecordSize, reduceGroupMask(rec, cacheGroupMaskOff, mask)

	case RelationGroup:
		if len(rec) < GroupRecordSize || rec.Uint16(groupActiveGroupCountOff) == 0 {
			return 0, false
		}
		capGroupCount(rec, groupMaxGroupCountOff)
		capGroupCount(rec, groupActiveGroupCountOff)
		// there's only a single byte for the processor counts, and there are
		// never more than 64 CPUs in our set.
		for _, off := range []int{
			groupInfoOff + groupInfoActiveProcsOff,
			groupInfoOff + groupInfoMaxProcsOff,
		} {
			if uint(rec.Uint8(off)) > cpus {
				rec.PutUint8(off, uint8(cpus))
			}
		}
		off := groupInfoOff + groupInfoActiveMaskOff
		rec.PutUint64(off, rec.Uint64(off)&mask)
		return GroupRecordSize, true
	}
	return 0, false
}

// capGroupCount limits the group count field at off to at most one group,
// leaving a zero group count alone.
func capGroupCount(rec Record, off int) {
	if rec.Uint16(off) > 1 {
		rec.PutUint16(off, 1)
	}
}

// reduceGroupMask intersects the GROUP_AFFINITY mask at off with mask,
// reporting false if there is no intersection at all.
func reduceGroupMask(rec Record, off int, mask uint64) bool {
	m := rec.Uint64(off+groupAffinityMaskOff) & mask
	if m == 0 {
		return false
	}
	rec.PutUint64(off+groupAffinityMaskOff, m)
	return true
}
