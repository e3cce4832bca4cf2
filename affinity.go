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

// ProcessAffinityMask stands in for GetProcessAffinityMask, restricting the
// process and system affinity masks to the virtual CPU set. Either mask
// pointer might be nil, as far as the raw provider accepts this. When the
// raw query fails, its error is returned and the masks are left as they are.
func (e *Engine) ProcessAffinityMask(process Handle, processMask, systemMask *uint64) error {
	raw, vset, ok := e.provider()
	if !ok {
		return ErrNotReady
	}
	err := raw.ProcessAffinityMask(process, processMask, systemMask)
	e.calledOnce(epProcessAffinityMask, "process", process, "error", err)
	if err != nil {
		return err
	}
	if processMask != nil {
		*processMask = vset.Clamp(*processMask)
	}
	if systemMask != nil {
		*systemMask = vset.Clamp(*systemMask)
	}
	return nil
}

// SetProcessAffinityMask stands in for SetProcessAffinityMask, passing on
// only the CPUs of the requested mask that are in the virtual CPU set. The
// raw result is returned as is.
func (e *Engine) SetProcessAffinityMask(process Handle, mask uint64) error {
	raw, vset, ok := e.provider()
	if !ok {
		return ErrNotReady
	}
	err := raw.SetProcessAffinityMask(process, vset.Clamp(mask))
	e.calledOnce(epSetProcessAffinityMask, "process", process, "mask", mask, "error", err)
	return err
}

// SetThreadAffinityMask stands in for SetThreadAffinityMask, passing on only
// the CPUs of the requested mask that are in the virtual CPU set. The
// previous affinity mask is restricted to the virtual CPU set too, as it
// otherwise would leak CPUs outside it.
func (e *Engine) SetThreadAffinityMask(thread Handle, mask uint64) (uint64, error) {
	raw, vset, ok := e.provider()
	if !ok {
		return 0, ErrNotReady
	}
	previous, err := raw.SetThreadAffinityMask(thread, vset.Clamp(mask))
	e.calledOnce(epSetThreadAffinityMask, "thread", thread, "mask", mask, "previous", previous, "error", err)
	return vset.Clamp(previous), err
}

// SetThreadIdealProcessor stands in for SetThreadIdealProcessor. Ideal
// processor indices outside the virtual CPU set, except for the
// [MaximumProcessors] sentinel, fail with [ErrInvalidParameter] without
// consulting the raw provider. The previous ideal processor gets mapped into
// the virtual CPU set.
func (e *Engine) SetThreadIdealProcessor(thread Handle, ideal uint32) (uint32, error) {
	raw, vset, ok := e.provider()
	if !ok {
		return InvalidIdealProcessor, ErrNotReady
	}
	if !vset.AcceptsIdealProcessor(ideal) {
		return InvalidIdealProcessor, ErrInvalidParameter
	}
	previous, err := raw.SetThreadIdealProcessor(thread, ideal)
	e.calledOnce(epSetThreadIdealProcessor, "thread", thread, "ideal", ideal, "previous", previous, "error", err)
	if err != nil {
		return previous, err
	}
	return vset.ReduceIdealProcessor(previous), nil
}
