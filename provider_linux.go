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

//go:build linux

package cpulimiter

import (
	"bytes"
	"math/bits"
	"os"
	"runtime"
	"sync/atomic"
	"syscall"
	"unsafe"

	"github.com/thediveo/cpulimiter/topology"
	"golang.org/x/sys/unix"
)

// setsize reflects the dynamically determined size of CPU sets on this
// system (size in uint64 words). This is usually smaller than the fixed-sized
// [unix.CPUSet] that Go's [unix.SchedGetaffinity] uses.
var setsize atomic.Uint64

const wordbytesize = uint64(unsafe.Sizeof(uint64(0)))

func init() {
	setsize.Store(1)
}

// osProvider is the RawProvider on Linux, which only covers the affinity and
// system information queries. Handles are PIDs or TIDs, with zero denoting
// the calling task. Linux doesn't know about processor groups, ideal
// processors, or a topology in the Windows sense.
type osProvider struct{}

// NewOSProvider returns the RawProvider of the operating system.
func NewOSProvider() (RawProvider, error) {
	return osProvider{}, nil
}

// CurrentProcess returns the handle denoting the calling task, which is
// always zero on Linux.
func CurrentProcess() Handle { return 0 }

// CurrentThread returns the handle denoting the calling task, see
// [CurrentProcess].
func CurrentThread() Handle { return 0 }

// affinity returns the affinity CPU set of the task with the passed TID (or
// PID), dynamically figuring out the size needed and caching the size
// internally.
func affinity(tid int) ([]uint64, error) {
	setlenStart := setsize.Load()
	setlen := setlenStart
	for {
		set := make([]uint64, setlen)
		// RawSyscall is fine, as SYS_SCHED_GETAFFINITY does not block.
		_, _, e := unix.RawSyscall(unix.SYS_SCHED_GETAFFINITY,
			uintptr(tid), uintptr(setlen*wordbytesize), uintptr(unsafe.Pointer(&set[0])))
		if e != 0 {
			if e == unix.EINVAL {
				setlen *= 2
				continue
			}
			return nil, e
		}
		// Set the new size; if this fails because another go routine already
		// upped the set size, retry until we either notice that we're smaller
		// than what was set as the new set size, or we succeed in setting the
		// size.
		for !setsize.CompareAndSwap(setlenStart, setlen) {
			setlenStart = setsize.Load()
			if setlenStart > setlen {
				break
			}
		}
		return set, nil
	}
}

// setAffinity sets the CPU affinities of the task with the passed TID (or
// PID). It is an error trying to set no affinities.
func setAffinity(tid int, mask uint64) error {
	if mask == 0 {
		return syscall.EINVAL
	}
	_, _, e := unix.RawSyscall(unix.SYS_SCHED_SETAFFINITY,
		uintptr(tid), uintptr(wordbytesize), uintptr(unsafe.Pointer(&mask)))
	if e != 0 {
		return e
	}
	return nil
}

func (osProvider) LogicalProcessorInformation(buf []byte, length *uint32) error {
	return ErrCallNotImplemented
}

func (osProvider) LogicalProcessorInformationEx(rel topology.Relationship, buf []byte, length *uint32) error {
	return ErrCallNotImplemented
}

// onlineMask returns the (low 64 of the) CPUs currently online. If the
// online CPUs cannot be determined, it falls back to the number of CPUs
// usable by this process.
func onlineMask() uint64 {
	if b, err := os.ReadFile("/sys/devices/system/cpu/online"); err == nil {
		if l, err := NewList(bytes.TrimSpace(b)); err == nil {
			var mask uint64
			for _, cpurange := range l {
				if cpurange[0] >= MaxCPUs {
					break
				}
				m, _ := List{{cpurange[0], min(cpurange[1], MaxCPUs-1)}}.Mask()
				mask |= m
			}
			if mask != 0 {
				return mask
			}
		}
	}
	n := runtime.NumCPU()
	if n >= MaxCPUs {
		return ^uint64(0)
	}
	return uint64(1)<<n - 1
}

// ProcessAffinityMask reports the (low 64 CPUs of the) affinity of the
// specified task; as there is no separate system affinity on Linux, it is
// reported as the set of all CPUs online.
func (osProvider) ProcessAffinityMask(process Handle, processMask, systemMask *uint64) error {
	set, err := affinity(int(process))
	if err != nil {
		return err
	}
	if processMask != nil {
		*processMask = set[0]
	}
	if systemMask != nil {
		*systemMask = onlineMask()
	}
	return nil
}

// SetProcessAffinityMask sets the affinity of the specified task only, as
// Linux affinities are per task.
func (osProvider) SetProcessAffinityMask(process Handle, mask uint64) error {
	return setAffinity(int(process), mask)
}

func (osProvider) SetThreadAffinityMask(thread Handle, mask uint64) (uint64, error) {
	previous, err := affinity(int(thread))
	if err != nil {
		return 0, err
	}
	if err := setAffinity(int(thread), mask); err != nil {
		return 0, err
	}
	return previous[0], nil
}

func (osProvider) SetThreadIdealProcessor(thread Handle, ideal uint32) (uint32, error) {
	return InvalidIdealProcessor, ErrCallNotImplemented
}

func (osProvider) SystemInfo(info *SystemInfo) {
	*info = SystemInfo{
		PageSize:              uint32(unix.Getpagesize()),
		AllocationGranularity: uint32(unix.Getpagesize()),
		NumberOfProcessors:    uint32(bits.OnesCount64(onlineMask())),
	}
	if set, err := affinity(0); err == nil {
		info.ActiveProcessorMask = uintptr(set[0])
	}
}

func (p osProvider) NativeSystemInfo(info *SystemInfo) {
	p.SystemInfo(info)
}

func (osProvider) ProcessGroupAffinity(process Handle, groupCount *uint16, groups []uint16) error {
	return ErrCallNotImplemented
}

func (osProvider) ThreadGroupAffinity(thread Handle, affinity *GroupAffinity) error {
	return ErrCallNotImplemented
}

func (osProvider) SetThreadGroupAffinity(thread Handle, affinity, previous *GroupAffinity) error {
	return ErrCallNotImplemented
}

func (osProvider) SetThreadIdealProcessorEx(thread Handle, ideal, previous *ProcessorNumber) error {
	return ErrCallNotImplemented
}
