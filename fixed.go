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

	"github.com/thediveo/cpulimiter/topology"
)

// LogicalProcessorInformation stands in for GetLogicalProcessorInformation,
// returning only those fixed-format topology records that refer to CPUs in
// the virtual CPU set, with their processor masks restricted accordingly.
//
// If length is nil, the call is passed on to the raw provider in order to
// fail the same way. Otherwise, if buf is nil or *length is smaller than the
// filtered topology, *length is set to the required size and
// [ErrInsufficientBuffer] returned. On success, *length is set to the number
// of bytes copied into buf.
func (e *Engine) LogicalProcessorInformation(buf []byte, length *uint32) error {
	raw, _, ok := e.provider()
	if !ok {
		return ErrNotReady
	}
	e.calledOnce(epLogicalProcessorInformation, "buffer", buf != nil, "length", length != nil)
	if length == nil {
		return raw.LogicalProcessorInformation(nil, nil)
	}
	cached, err := e.fixedTopology()
	if err != nil {
		return err
	}
	return deliver(cached, buf, length)
}

// fixedTopology returns the filtered fixed-format topology, building it on
// first use. Once built, the fixed topology never changes until
// deactivation, so it is returned without locking.
func (e *Engine) fixedTopology() ([]byte, error) {
	if cached := e.fixed.Load(); cached != nil {
		return *cached, nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if cached := e.fixed.Load(); cached != nil {
		return *cached, nil
	}
	if engineState(e.state.Load()) != active {
		return nil, ErrNotReady
	}

	var length uint32
	err := e.raw.LogicalProcessorInformation(nil, &length)
	if !errors.Is(err, ErrInsufficientBuffer) {
		if err == nil {
			err = ErrGenFailure
		}
		e.log.Info("cannot determine fixed topology size", "error", err)
		return nil, err
	}
	scratch, err := e.scratch(length)
	if err != nil {
		return nil, err
	}
	if err := e.raw.LogicalProcessorInformation(scratch, &length); err != nil {
		e.log.Info("cannot query fixed topology", "error", err)
		return nil, err
	}
	scratch = scratch[:min(int(length), len(scratch))]
	dumpFixed(e.log, "before filtering", scratch)

	filtered := topology.FilterFixed(scratch, e.vset.Mask())
	dumpFixed(e.log, "after filtering", filtered)
	e.fixed.Store(&filtered)
	e.log.V(1).Info("cached fixed topology",
		"records", len(filtered)/topology.FixedRecordSize,
		"rawrecords", len(scratch)/topology.FixedRecordSize)
	return filtered, nil
}
