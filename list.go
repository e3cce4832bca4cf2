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
	"math/bits"
	"strings"

	"github.com/thediveo/faf"
)

// List is a list of CPU [from...to] ranges. CPU numbers are starting from zero.
type List [][2]uint

// String returns the CPU list in textual format, with the individual ranges
// “x-y” separated by “,” and single CPU ranges collapsed into “x” (instead of
// “x-x”).
func (l List) String() string {
	var b strings.Builder
	for idx, cpurange := range l {
		if idx > 0 {
			b.WriteString(",")
		}
		if cpurange[0] == cpurange[1] {
			fmt.Fprintf(&b, "%d", cpurange[0])
			continue
		}
		fmt.Fprintf(&b, "%d-%d", cpurange[0], cpurange[1])
	}
	return b.String()
}

// NewList returns a new CPU List for the given textual list format. If the text
// is malformed then an error is returned instead.
func NewList(b []byte) (List, error) {
	bs := faf.NewBytestring(b)
	l := List{}
	for {
		if bs.EOL() {
			return l, nil
		}
		from, ok := bs.Uint64()
		if !ok {
			return nil, errors.New("expected unsigned integer number")
		}
		if bs.EOL() {
			return append(l, [2]uint{uint(from), uint(from)}), nil
		}
		switch ch, _ := bs.Next(); ch {
		case '-':
			to, ok := bs.Uint64()
			if !ok {
				return nil, errors.New("expected unsigned integer number")
			}
			if to < from {
				return nil, fmt.Errorf("invalid range %d-%d", from, to)
			}
			l = append(l, [2]uint{uint(from), uint(to)})
			if bs.EOL() {
				return l, nil
			}
			// another CPU number (or range) is expected to follow, separated by
			// ",".
			if ch, _ = bs.Next(); ch != ',' {
				return nil, errors.New("expected ','")
			}
		case ',':
			l = append(l, [2]uint{uint(from), uint(from)})
		default:
			return nil, errors.New("expected '-' or ','")
		}
	}
}

// MaskList returns the CPU List corresponding with the passed 64 bit CPU
// mask.
func MaskList(mask uint64) List {
	l := List{}
	for mask != 0 {
		from := uint(bits.TrailingZeros64(mask))
		// length of the run of 1s starting at “from”.
		run := uint(bits.TrailingZeros64(^(mask >> from)))
		l = append(l, [2]uint{from, from + run - 1})
		if from+run >= 64 {
			break
		}
		mask &^= (uint64(1)<<run - 1) << from
	}
	return l
}

// Mask returns the 64 bit CPU mask corresponding with this List, or an error
// if the List contains CPUs beyond #63.
func (l List) Mask() (uint64, error) {
	var mask uint64
	for _, cpurange := range l {
		if cpurange[0] > cpurange[1] || cpurange[1] >= MaxCPUs {
			return 0, fmt.Errorf("CPU range %d-%d out of mask range", cpurange[0], cpurange[1])
		}
		run := cpurange[1] - cpurange[0] + 1
		if run == MaxCPUs {
			return ^uint64(0), nil
		}
		mask |= (uint64(1)<<run - 1) << cpurange[0]
	}
	return mask, nil
}
