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
	"iter"
	"math/bits"
	"os"
	"runtime"
	"slices"
	"syscall"

	"github.com/thediveo/cpulimiter/topology"

	. "github.com/onsi/ginkgo/v2/dsl/core"
	. "github.com/onsi/gomega"
	. "github.com/thediveo/success"
)

func Lines(b []byte) iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		for len(b) > 0 {
			var line []byte
			if nlIdx := bytes.IndexByte(b, '\n'); nlIdx >= 0 {
				line, b = b[:nlIdx+1], b[nlIdx+1:]
			} else {
				line, b = b, nil
			}
			if !yield(line[:len(line):len(line)]) {
				return
			}
		}
	}
}

// allowedCPUs returns the Cpus_allowed_list from /proc/self/status.
func allowedCPUs() List {
	var prefix = []byte("Cpus_allowed_list:\t")
	for line := range Lines(Successful(os.ReadFile("/proc/self/status"))) {
		if !bytes.HasPrefix(line, prefix) {
			continue
		}
		return Successful(NewList(bytes.TrimSpace(line[len(prefix):])))
	}
	return nil
}

var _ = Describe("Linux provider", func() {

	It("gets this process's CPU affinity, consistent with /proc/self/status data", func() {
		Expect(wordbytesize).To(Equal(uint64(64 /* bits in uint64 */ / 8 /* bits/byte*/)))
		allowed := allowedCPUs()
		Expect(allowed).NotTo(BeEmpty())
		if allowed[len(allowed)-1][1] >= MaxCPUs {
			Skip("needs a process affinity within CPUs #0-63")
		}

		raw := Successful(NewOSProvider())
		var p, s uint64
		Expect(raw.ProcessAffinityMask(Handle(os.Getpid()), &p, &s)).To(Succeed())
		Expect(MaskList(p)).To(Equal(allowed))
		Expect(p &^ s).To(BeZero())
		Expect(setsize.Load()).NotTo(BeZero())
	})

	It("changes this thread's CPU affinity", func() {
		runtime.LockOSThread() // don't unlock, throw away the tainted task

		// the affinity can only be restored if it lies completely within the
		// low 64 CPUs.
		set := Successful(affinity(0))
		if set[0] == 0 || slices.ContainsFunc(set[1:], func(word uint64) bool { return word != 0 }) {
			Skip("needs a thread affinity within CPUs #0-63")
		}

		raw := Successful(NewOSProvider())
		var mask uint64
		Expect(raw.ProcessAffinityMask(CurrentProcess(), &mask, nil)).To(Succeed())
		Expect(mask).To(Equal(set[0]))
		oneonly := uint64(1) << bits.TrailingZeros64(mask)

		Expect(raw.SetThreadAffinityMask(CurrentThread(), oneonly)).To(Equal(mask))
		Expect(MaskList(Successful(affinity(0))[0])).To(Equal(MaskList(oneonly)))
		Expect(raw.SetThreadAffinityMask(CurrentThread(), mask)).To(Equal(oneonly))
	})

	It("cannot set empty affinities", func() {
		raw := Successful(NewOSProvider())
		Expect(raw.SetProcessAffinityMask(0, 0)).To(MatchError(syscall.EINVAL))
		Expect(raw.SetThreadAffinityMask(CurrentThread(), 0)).Error().To(MatchError(syscall.EINVAL))
	})

	It("reports system information", func() {
		raw := Successful(NewOSProvider())
		var info SystemInfo
		raw.NativeSystemInfo(&info)
		Expect(info.NumberOfProcessors).To(Equal(uint32(bits.OnesCount64(onlineMask()))))
		Expect(info.NumberOfProcessors).NotTo(BeZero())
		Expect(info.PageSize).NotTo(BeZero())
	})

	It("doesn't know about Windows topologies", func() {
		raw := Successful(NewOSProvider())
		var length uint32
		Expect(raw.LogicalProcessorInformation(nil, &length)).To(MatchError(ErrCallNotImplemented))
		Expect(raw.LogicalProcessorInformationEx(topology.RelationAll, nil, &length)).To(
			MatchError(ErrCallNotImplemented))
		ideal, err := raw.SetThreadIdealProcessor(0, 0)
		Expect(err).To(MatchError(ErrCallNotImplemented))
		Expect(ideal).To(Equal(InvalidIdealProcessor))
	})

	It("serves a limited view of the system", func() {
		raw := Successful(NewOSProvider())
		e := New()
		Expect(e.Activate(raw, Successful(NewVirtualSet(1)))).To(Succeed())
		defer func() { _ = e.Deactivate() }()

		var p uint64
		Expect(e.ProcessAffinityMask(0, &p, nil)).To(Succeed())
		Expect(p &^ 1).To(BeZero())
		var info SystemInfo
		e.SystemInfo(&info)
		Expect(info.NumberOfProcessors).To(Equal(uint32(1)))
	})

})
