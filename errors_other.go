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

//go:build !windows

package cpulimiter

import "fmt"

// Errno is a Windows error code, as reported by the engine on platforms other
// than Windows, where the host's errno table doesn't know the Windows codes.
type Errno uint32

const (
	// ErrInsufficientBuffer signals that the caller's buffer is either absent
	// or too small; the required size has been reported.
	ErrInsufficientBuffer = Errno(122)
	// ErrInvalidParameter signals a parameter outside the virtual CPU set.
	ErrInvalidParameter = Errno(87)
	// ErrNotEnoughMemory signals that no topology cache could be allocated.
	ErrNotEnoughMemory = Errno(8)
	// ErrGenFailure signals that the raw provider broke the two-phase
	// protocol, without reporting an error of its own.
	ErrGenFailure = Errno(31)
	// ErrNotReady signals an entry point being called on an engine that
	// isn't active.
	ErrNotReady = Errno(21)
	// ErrCallNotImplemented signals a raw query not available on this
	// platform.
	ErrCallNotImplemented = Errno(120)
)

var errnoNames = map[Errno]string{
	ErrInsufficientBuffer: "ERROR_INSUFFICIENT_BUFFER",
	ErrInvalidParameter:   "ERROR_INVALID_PARAMETER",
	ErrNotEnoughMemory:    "ERROR_NOT_ENOUGH_MEMORY",
	ErrGenFailure:         "ERROR_GEN_FAILURE",
	ErrNotReady:           "ERROR_NOT_READY",
	ErrCallNotImplemented: "ERROR_CALL_NOT_IMPLEMENTED",
}

// Error returns the Windows name of this error code.
func (e Errno) Error() string {
	if name, ok := errnoNames[e]; ok {
		return name
	}
	return fmt.Sprintf("Windows error %d", uint32(e))
}
