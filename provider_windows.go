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

//go:build windows && (amd64 || arm64)

package cpulimiter

import (
	"syscall"
	"unsafe"

	"github.com/thediveo/cpulimiter/topology"
	"golang.org/x/sys/windows"
)

var (
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procGetLogicalProcessorInformation   = kernel32.NewProc("GetLogicalProcessorInformation")
	procGetLogicalProcessorInformationEx = kernel32.NewProc("GetLogicalProcessorInformationEx")
	procGetProcessAffinityMask           = kernel32.NewProc("GetProcessAffinityMask")
	procSetProcessAffinityMask           = kernel32.NewProc("SetProcessAffinityMask")
	procSetThreadAffinityMask            = kernel32.NewProc("SetThreadAffinityMask")
	procSetThreadIdealProcessor          = kernel32.NewProc("SetThreadIdealProcessor")
	procGetSystemInfo                    = kernel32.NewProc("GetSystemInfo")
	procGetNativeSystemInfo              = kernel32.NewProc("GetNativeSystemInfo")
	procGetProcessGroupAffinity          = kernel32.NewProc("GetProcessGroupAffinity")
	procGetThreadGroupAffinity           = kernel32.NewProc("GetThreadGroupAffinity")
	procSetThreadGroupAffinity           = kernel32.NewProc("SetThreadGroupAffinity")
	procSetThreadIdealProcessorEx        = kernel32.NewProc("SetThreadIdealProcessorEx")
)

// osProvider is the RawProvider calling the kernel32 functions directly.
// When the kernel32 functions are intercepted, the interception layer
// instead needs to supply a RawProvider calling the unhooked functions.
type osProvider struct{}

// NewOSProvider returns the RawProvider of the operating system, after
// resolving all kernel32 functions it wraps.
func NewOSProvider() (RawProvider, error) {
	for _, proc := range []*windows.LazyProc{
		procGetLogicalProcessorInformation,
		procGetLogicalProcessorInformationEx,
		procGetProcessAffinityMask,
		procSetProcessAffinityMask,
		procSetThreadAffinityMask,
		procSetThreadIdealProcessor,
		procGetSystemInfo,
		procGetNativeSystemInfo,
		procGetProcessGroupAffinity,
		procGetThreadGroupAffinity,
		procSetThreadGroupAffinity,
		procSetThreadIdealProcessorEx,
	} {
		if err := proc.Find(); err != nil {
			return nil, err
		}
	}
	return osProvider{}, nil
}

// CurrentProcess returns the pseudo handle of the calling process.
func CurrentProcess() Handle { return Handle(windows.CurrentProcess()) }

// CurrentThread returns the pseudo handle of the calling thread.
func CurrentThread() Handle { return Handle(windows.CurrentThread()) }

// lastError returns the error of a failed call, never returning a nil error
// even if the call failed without setting a last error.
func lastError(err error) error {
	if errno, ok := err.(syscall.Errno); ok && errno == 0 {
		return ErrGenFailure
	}
	return err
}

func bufPtr(buf []byte) uintptr {
	if len(buf) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&buf[0]))
}

func (osProvider) LogicalProcessorInformation(buf []byte, length *uint32) error {
	r1, _, err := procGetLogicalProcessorInformation.Call(
		bufPtr(buf), uintptr(unsafe.Pointer(length)))
	if r1 == 0 {
		return lastError(err)
	}
	return nil
}

func (osProvider) LogicalProcessorInformationEx(rel topology.Relationship, buf []byte, length *uint32) error {
	r1, _, err := procGetLogicalProcessorInformationEx.Call(
		uintptr(rel), bufPtr(buf), uintptr(unsafe.Pointer(length)))
	if r1 == 0 {
		return lastError(err)
	}
	return nil
}

func (osProvider) ProcessAffinityMask(process Handle, processMask, systemMask *uint64) error {
	r1, _, err := procGetProcessAffinityMask.Call(
		uintptr(process), uintptr(unsafe.Pointer(processMask)), uintptr(unsafe.Pointer(systemMask)))
	if r1 == 0 {
		return lastError(err)
	}
	return nil
}

func (osProvider) SetProcessAffinityMask(process Handle, mask uint64) error {
	r1, _, err := procSetProcessAffinityMask.Call(uintptr(process), uintptr(mask))
	if r1 == 0 {
		return lastError(err)
	}
	return nil
}

func (osProvider) SetThreadAffinityMask(thread Handle, mask uint64) (uint64, error) {
	r1, _, err := procSetThreadAffinityMask.Call(uintptr(thread), uintptr(mask))
	if r1 == 0 {
		return 0, lastError(err)
	}
	return uint64(r1), nil
}

func (osProvider) SetThreadIdealProcessor(thread Handle, ideal uint32) (uint32, error) {
	r1, _, err := procSetThreadIdealProcessor.Call(uintptr(thread), uintptr(ideal))
	if uint32(r1) == InvalidIdealProcessor {
		return InvalidIdealProcessor, lastError(err)
	}
	return uint32(r1), nil
}

func (osProvider) SystemInfo(info *SystemInfo) {
	_, _, _ = procGetSystemInfo.Call(uintptr(unsafe.Pointer(info)))
}

func (osProvider) NativeSystemInfo(info *SystemInfo) {
	_, _, _ = procGetNativeSystemInfo.Call(uintptr(unsafe.Pointer(info)))
}

func (osProvider) ProcessGroupAffinity(process Handle, groupCount *uint16, groups []uint16) error {
	var groupsPtr uintptr
	if len(groups) > 0 {
		groupsPtr = uintptr(unsafe.Pointer(&groups[0]))
	}
	r1, _, err := procGetProcessGroupAffinity.Call(
		uintptr(process), uintptr(unsafe.Pointer(groupCount)), groupsPtr)
	if r1 == 0 {
		return lastError(err)
	}
	return nil
}

func (osProvider) ThreadGroupAffinity(thread Handle, affinity *GroupAffinity) error {
	r1, _, err := procGetThreadGroupAffinity.Call(uintptr(thread), uintptr(unsafe.Pointer(affinity)))
	if r1 == 0 {
		return lastError(err)
	}
	return nil
}

func (osProvider) SetThreadGroupAffinity(thread Handle, affinity, previous *GroupAffinity) error {
	r1, _, err := procSetThreadGroupAffinity.Call(
		uintptr(thread), uintptr(unsafe.Pointer(affinity)), uintptr(unsafe.Pointer(previous)))
	if r1 == 0 {
		return lastError(err)
	}
	return nil
}

func (osProvider) SetThreadIdealProcessorEx(thread Handle, ideal, previous *ProcessorNumber) error {
	r1, _, err := procSetThreadIdealProcessorEx.Call(
		uintptr(thread), uintptr(unsafe.Pointer(ideal)), uintptr(unsafe.Pointer(previous)))
	if r1 == 0 {
		return lastError(err)
	}
	return nil
}
