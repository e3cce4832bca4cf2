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
	"errors"
	"fmt"
)

// MaxCPUs is the maximum number of CPUs in a VirtualSet: the virtual CPU set
// always fits into processor group #0.
const MaxCPUs = 64

// VirtualSet is the fixed set of low-order logical CPUs #0 to #count-1 a host
// process gets to see. The zero value is an empty, unusable set.
type VirtualSet struct {
	count uint
}

// ErrInvalidVirtualSet is returned when trying to create a VirtualSet with a
// CPU count outside [1..MaxCPUs].
var ErrInvalidVirtualSet = errors.New("virtual CPU count must be within 1-64")

// NewVirtualSet returns the VirtualSet for the specified number of CPUs.
func NewVirtualSet(count uint) (VirtualSet, error) {
	if count < 1 || count > MaxCPUs {
		return VirtualSet{}, fmt.Errorf("%w, got %d", ErrInvalidVirtualSet, count)
	}
	return VirtualSet{count: count}, nil
}

// Count returns the number of CPUs in this set.
func (v VirtualSet) Count() uint {
	return v.count
}

// Mask returns the CPU bit mask of this set, with exactly Count contiguous
// low bits set.
func (v VirtualSet) Mask() uint64 {
	if v.count >= MaxCPUs {
		return ^uint64(0)
	}
	return uint64(1)<<v.count - 1
}

// IsSet reports whether cpu is in this set.
func (v VirtualSet) IsSet(cpu uint) bool {
	return cpu < v.count
}

// Clamp returns the passed CPU mask restricted to this set.
func (v VirtualSet) Clamp(mask uint64) uint64 {
	return mask & v.Mask()
}

// ClampAffinity returns the passed process and system affinity masks
// restricted to this set.
func (v VirtualSet) ClampAffinity(process, system uint64) (uint64, uint64) {
	return v.Clamp(process), v.Clamp(system)
}

// ClampCount returns the passed number of processors, capped to the number of
// CPUs in this set.
func (v VirtualSet) ClampCount(n uint32) uint32 {
	return min(n, uint32(v.count))
}

// AcceptsIdealProcessor reports whether the passed ideal processor index is
// either inside this set or the [MaximumProcessors] sentinel.
func (v VirtualSet) AcceptsIdealProcessor(ideal uint32) bool {
	return uint(ideal) < v.count || ideal == MaximumProcessors
}

// ReduceIdealProcessor maps an ideal processor index reported by the system
// into this set. Please note that distinct real indices might thus end up as
// the same virtual index.
func (v VirtualSet) ReduceIdealProcessor(ideal uint32) uint32 {
	return ideal % uint32(v.count)
}

// List returns the CPU List of this set.
func (v VirtualSet) List() List {
	if v.count == 0 {
		return List{}
	}
	return List{{0, v.count - 1}}
}

// String returns the CPUs in this set in textual list format, such as “0-15”.
func (v VirtualSet) String() string {
	return v.List().String()
}
