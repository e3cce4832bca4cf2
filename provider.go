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

import "github.com/thediveo/cpulimiter/topology"

// Handle is a process or thread handle, passed unchanged to the RawProvider.
type Handle uintptr

// MaximumProcessors is the ideal processor sentinel value that doesn't ask
// for a particular CPU; in this case SetThreadIdealProcessor only returns the
// current ideal processor.
const MaximumProcessors uint32 = 64

// InvalidIdealProcessor is the previous ideal processor value returned from a
// failed SetThreadIdealProcessor, that is, (DWORD)-1.
const InvalidIdealProcessor = ^uint32(0)

// SystemInfo has the memory layout of the 64 bit SYSTEM_INFO structure.
type SystemInfo struct {
	ProcessorArchitecture     uint16
	Reserved                  uint16
	PageSize                  uint32
	MinimumApplicationAddress uintptr
	MaximumApplicationAddress uintptr
	ActiveProcessorMask       uintptr
	NumberOfProcessors        uint32
	ProcessorType             uint32
	AllocationGranularity     uint32
	ProcessorLevel            uint16
	ProcessorRevision         uint16
}

// GroupAffinity has the memory layout of the GROUP_AFFINITY structure.
type GroupAffinity struct {
	Mask     uint64
	Group    uint16
	Reserved [3]uint16
}

// ProcessorNumber has the memory layout of the PROCESSOR_NUMBER structure.
type ProcessorNumber struct {
	Group    uint16
	Number   uint8
	Reserved uint8
}

// RawProvider gives access to the real, unmodified system queries the
// Engine stands in for. The topology queries follow the two-phase protocol: a
// nil buf (or a too small length) fails with [ErrInsufficientBuffer] and
// reports the required size in length. A nil length is passed on as is.
//
// Failures are reported as errors, ideally as [syscall.Errno] values.
type RawProvider interface {
	LogicalProcessorInformation(buf []byte, length *uint32) error
	LogicalProcessorInformationEx(rel topology.Relationship, buf []byte, length *uint32) error
	ProcessAffinityMask(process Handle, processMask, systemMask *uint64) error
	SetProcessAffinityMask(process Handle, mask uint64) error
	// SetThreadAffinityMask returns the previous affinity mask of the thread.
	SetThreadAffinityMask(thread Handle, mask uint64) (uint64, error)
	// SetThreadIdealProcessor returns the previous ideal processor.
	SetThreadIdealProcessor(thread Handle, ideal uint32) (uint32, error)
	SystemInfo(info *SystemInfo)
	NativeSystemInfo(info *SystemInfo)
	ProcessGroupAffinity(process Handle, groupCount *uint16, groups []uint16) error
	ThreadGroupAffinity(thread Handle, affinity *GroupAffinity) error
	SetThreadGroupAffinity(thread Handle, affinity, previous *GroupAffinity) error
	SetThreadIdealProcessorEx(thread Handle, ideal, previous *ProcessorNumber) error
}
