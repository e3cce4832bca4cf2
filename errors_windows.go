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

import "golang.org/x/sys/windows"

const (
	// ErrInsufficientBuffer signals that the caller's buffer is either absent
	// or too small; the required size has been reported.
	ErrInsufficientBuffer = windows.ERROR_INSUFFICIENT_BUFFER
	// ErrInvalidParameter signals a parameter outside the virtual CPU set.
	ErrInvalidParameter = windows.ERROR_INVALID_PARAMETER
	// ErrNotEnoughMemory signals that no topology cache could be allocated.
	ErrNotEnoughMemory = windows.ERROR_NOT_ENOUGH_MEMORY
	// ErrGenFailure signals that the raw provider broke the two-phase
	// protocol, without reporting an error of its own.
	ErrGenFailure = windows.ERROR_GEN_FAILURE
	// ErrNotReady signals an entry point being called on an engine that
	// isn't active.
	ErrNotReady = windows.ERROR_NOT_READY
	// ErrCallNotImplemented signals a raw query not available on this
	// platform.
	ErrCallNotImplemented = windows.ERROR_CALL_NOT_IMPLEMENTED
)
