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

// extendedCache caches the filtered extended-format topology for the most
// recently queried relationship only.
type extendedCache struct {
	valid bool
	rel   topology.Relationship
	bytes []byte
}

// LogicalProcessorInformationEx stands in for
// GetLogicalProcessorInformationEx, returning only information about the CPUs
// in the virtual CPU set. Records are reduced to a single processor group
// (#0), records not referring to any CPU in the virtual set are dropped, as
// are records of unknown relationships.
//
// If length is nil, the call is passed on to the raw provider as is.
// Otherwise, the filtered topology for the requested relationship is
// delivered following the same two-phase protocol as
// [Engine.LogicalProcessorInformation].
//
// Checking the cache, rebuilding it for a different relationship, and
// copying its contents into buf happen atomically with respect to other
// extended queries.
func (e *Engine) LogicalProcessorInformationEx(rel topology.Relationship, buf []byte, length *uint32) error {
	raw, _, ok := e.provider()
	if !ok {
		return ErrNotReady
	}
	e.calledOnce(epLogicalProcessorInformationEx,
		"relationship", rel.String(), "buffer", buf != nil, "length", length != nil)
	if length == nil {
		return raw.LogicalProcessorInformationEx(rel, buf, length)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if engineState(e.state.Load()) != active {
		return ErrNotReady
	}
	if !e.ext.valid || e.ext.rel != rel {
		if err := e.rebuildExtendedLocked(rel); err != nil {
			return err
		}
	}
	return deliver(e.ext.bytes, buf, length)
}

// rebuildExtendedLocked discards the extended topology cache and then
// rebuilds it for the specified relationship. Only on success the cache
// becomes valid for the requested relationship. The caller must hold e.mu.
func (e *Engine) rebuildExtendedLocked(rel topology.Relationship) error {
	log := e.log.WithValues("relationship", rel.String())
	e.ext = extendedCache{}

	var length uint32
	err := e.raw.LogicalProcessorInformationEx(rel, nil, &length)
	if !errors.Is(err, ErrInsufficientBuffer) {
		if err == nil {
			err = ErrGenFailure
		}
		log.Info("cannot determine extended topology size", "error", err)
		return err
	}
	scratch, err := e.scratch(length)
	if err != nil {
		return err
	}
	if err := e.raw.LogicalProcessorInformationEx(rel, scratch, &length); err != nil {
		log.Info("cannot query extended topology", "error", err)
		return err
	}
	scratch = scratch[:min(int(length), len(scratch))]
	rawsize := len(scratch)
	dumpExtended(log, "before filtering", scratch)

	filtered := topology.FilterExtended(scratch, e.vset.Mask())
	dumpExtended(log, "after filtering", filtered)
	e.ext = extendedCache{
		valid: true,
		rel:   rel,
		bytes: filtered,
	}
	log.V(1).Info("cached extended topology", "size", len(filtered), "rawsize", rawsize)
	return nil
}
