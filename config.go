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
	"bytes"
	"fmt"
	"os"

	"github.com/thediveo/faf"
)

// DefaultCPUs is the virtual CPU configuration used in absence of the
// [EnvCPUs] environment variable. It can be changed at build time, for
// instance:
//
//	-ldflags "-X github.com/thediveo/cpulimiter.DefaultCPUs=8"
var DefaultCPUs = "16"

// EnvCPUs names the environment variable configuring the virtual CPU set.
const EnvCPUs = "CPULIMITER_CPUS"

// ConfigFromEnv returns the VirtualSet as configured by the [EnvCPUs]
// environment variable, falling back to [DefaultCPUs] if unset or empty. See
// [ParseVirtualSet] for the accepted formats.
func ConfigFromEnv() (VirtualSet, error) {
	config := os.Getenv(EnvCPUs)
	if config == "" {
		config = DefaultCPUs
	}
	vset, err := ParseVirtualSet([]byte(config))
	if err != nil {
		return VirtualSet{}, fmt.Errorf("invalid %s configuration %q: %w", EnvCPUs, config, err)
	}
	return vset, nil
}

// ParseVirtualSet returns the VirtualSet for either a CPU count, such as
// “16”, or a CPU list, such as “0-15”. A CPU list must be a single range
// starting with CPU #0.
func ParseVirtualSet(b []byte) (VirtualSet, error) {
	b = bytes.TrimSpace(b)
	bs := faf.NewBytestring(b)
	if count, ok := bs.Uint64(); ok && bs.EOL() {
		if count > MaxCPUs {
			return VirtualSet{}, fmt.Errorf("%w, got %d", ErrInvalidVirtualSet, count)
		}
		return NewVirtualSet(uint(count))
	}
	l, err := NewList(b)
	if err != nil {
		return VirtualSet{}, err
	}
	if len(l) != 1 || l[0][0] != 0 {
		return VirtualSet{}, fmt.Errorf("CPU list %q must be a single range starting at CPU 0", l.String())
	}
	return NewVirtualSet(l[0][1] + 1)
}
