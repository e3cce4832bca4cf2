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

import "errors"

// The errors reported by the engine's entry points carry the Windows error
// codes: ErrInsufficientBuffer, ErrInvalidParameter, ErrNotEnoughMemory,
// ErrGenFailure, ErrNotReady, and ErrCallNotImplemented. On Windows they are
// the very errors returned by the kernel32 functions (as returned by
// golang.org/x/sys/windows), elsewhere they are of type [Errno].

// Lifecycle errors.
var (
	ErrAlreadyActive = errors.New("cpulimiter engine already activated")
	ErrNotActive     = errors.New("cpulimiter engine not active")
)
