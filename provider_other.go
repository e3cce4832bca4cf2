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

//go:build !linux && !(windows && (amd64 || arm64))

package cpulimiter

// NewOSProvider isn't supported on this platform.
func NewOSProvider() (RawProvider, error) {
	return nil, ErrCallNotImplemented
}

func CurrentProcess() Handle { return 0 }

func CurrentThread() Handle { return 0 }
