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
	"sync"
	"sync/atomic"

	"github.com/go-logr/logr"
)

// DefaultTopologyLimit is the default upper limit in bytes of topology
// information an Engine is willing to allocate scratch and cache memory for.
const DefaultTopologyLimit = 4 << 20

type engineState int32

const (
	uninitialized engineState = iota
	active
	inactive
)

func (s engineState) String() string {
	switch s {
	case uninitialized:
		return "uninitialized"
	case active:
		return "active"
	default:
		return "inactive"
	}
}

// Engine rewrites the results of topology, affinity, and system information
// queries to match its VirtualSet. An Engine starts out uninitialized, gets
// activated exactly once using [Engine.Activate], and finally is deactivated
// using [Engine.Deactivate]. Its entry points can be called concurrently from
// any number of goroutines (host threads).
type Engine struct {
	log   logr.Logger
	limit uint32

	state atomic.Int32 // engineState
	raw   RawProvider  // borrowed; set on activation, before becoming active
	vset  VirtualSet   // set on activation, before becoming active

	// mu serializes building the fixed topology cache, guards the extended
	// topology cache, and lifecycle transitions.
	mu    sync.Mutex
	fixed atomic.Pointer[[]byte]
	ext   extendedCache

	called [numEntryPoints]atomic.Bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger of an Engine; by default, an Engine discards all
// logging.
func WithLogger(log logr.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// WithTopologyLimit sets the maximum number of bytes of topology information
// an Engine accepts from its RawProvider; larger topologies fail with
// [ErrNotEnoughMemory].
func WithTopologyLimit(limit uint32) Option {
	return func(e *Engine) {
		e.limit = limit
	}
}

// New returns a new, not yet activated Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		log:   logr.Discard(),
		limit: DefaultTopologyLimit,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Activate the engine, capturing the passed raw provider and virtual CPU set,
// both of which then stay fixed for the lifetime of the engine. Activation
// fails if the engine has already been activated before, even when since
// deactivated.
func (e *Engine) Activate(raw RawProvider, vset VirtualSet) error {
	if raw == nil || vset.Count() == 0 {
		return ErrInvalidParameter
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if state := engineState(e.state.Load()); state != uninitialized {
		e.log.Info("rejecting repeated activation", "state", state.String())
		return ErrAlreadyActive
	}
	e.raw = raw
	e.vset = vset
	e.fixed.Store(nil)
	e.ext = extendedCache{}
	e.state.Store(int32(active))
	e.log.Info("activated", "cpus", vset.String(), "mask", vset.Mask())
	return nil
}

// Deactivate the engine, releasing both topology caches. Deactivation waits
// for any in-flight cache (re)build and extended topology query to finish.
func (e *Engine) Deactivate() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if engineState(e.state.Load()) != active {
		return ErrNotActive
	}
	e.state.Store(int32(inactive))
	e.fixed.Store(nil)
	e.ext = extendedCache{}
	e.log.Info("deactivated")
	return nil
}

// Active reports whether the engine is currently active.
func (e *Engine) Active() bool {
	return engineState(e.state.Load()) == active
}

// VirtualSet returns the virtual CPU set of an activated engine; it returns
// the zero VirtualSet for an engine never activated.
func (e *Engine) VirtualSet() VirtualSet {
	if engineState(e.state.Load()) == uninitialized {
		return VirtualSet{}
	}
	return e.vset
}

// provider returns the raw provider and virtual CPU set, or false if the
// engine isn't active.
func (e *Engine) provider() (RawProvider, VirtualSet, bool) {
	if engineState(e.state.Load()) != active {
		return nil, VirtualSet{}, false
	}
	return e.raw, e.vset, true
}

// scratch returns a scratch buffer of the requested size, unless the size
// exceeds the topology limit.
func (e *Engine) scratch(size uint32) ([]byte, error) {
	if size > e.limit {
		e.log.Info("refusing oversized topology", "size", size, "limit", e.limit)
		return nil, ErrNotEnoughMemory
	}
	return make([]byte, size), nil
}

// deliver copies the cached topology into the caller's buffer according to
// the two-phase protocol.
func deliver(cached, buf []byte, length *uint32) error {
	size := uint32(len(cached))
	if buf == nil || *length < size || uint32(len(buf)) < size {
		*length = size
		return ErrInsufficientBuffer
	}
	copy(buf, cached)
	*length = size
	return nil
}

type entryPoint int

const (
	epSystemInfo entryPoint = iota
	epNativeSystemInfo
	epProcessAffinityMask
	epSetProcessAffinityMask
	epSetThreadAffinityMask
	epSetThreadIdealProcessor
	epLogicalProcessorInformation
	epLogicalProcessorInformationEx
	epProcessGroupAffinity
	epThreadGroupAffinity
	epSetThreadGroupAffinity
	epSetThreadIdealProcessorEx
	numEntryPoints
)

var entryPointNames = [numEntryPoints]string{
	"GetSystemInfo",
	"GetNativeSystemInfo",
	"GetProcessAffinityMask",
	"SetProcessAffinityMask",
	"SetThreadAffinityMask",
	"SetThreadIdealProcessor",
	"GetLogicalProcessorInformation",
	"GetLogicalProcessorInformationEx",
	"GetProcessGroupAffinity",
	"GetThreadGroupAffinity",
	"SetThreadGroupAffinity",
	"SetThreadIdealProcessorEx",
}

// calledOnce logs the first call of the specified entry point.
func (e *Engine) calledOnce(ep entryPoint, keysAndValues ...any) {
	if e.called[ep].Load() || e.called[ep].Swap(true) {
		return
	}
	e.log.V(1).Info(entryPointNames[ep]+" called at least once", keysAndValues...)
}
