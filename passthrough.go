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

// The processor group related queries are passed on unchanged, as the
// virtual CPU set always lies inside processor group #0; calls only get
// logged.

// ProcessGroupAffinity stands in for GetProcessGroupAffinity.
func (e *Engine) ProcessGroupAffinity(process Handle, groupCount *uint16, groups []uint16) error {
	raw, _, ok := e.provider()
	if !ok {
		return ErrNotReady
	}
	err := raw.ProcessGroupAffinity(process, groupCount, groups)
	e.calledOnce(epProcessGroupAffinity, "process", process)
	if v := e.log.V(1); v.Enabled() {
		var count uint16
		if groupCount != nil {
			count = *groupCount
		}
		v.Info("GetProcessGroupAffinity", "process", process, "groupcount", count, "error", err)
	}
	return err
}

// ThreadGroupAffinity stands in for GetThreadGroupAffinity.
func (e *Engine) ThreadGroupAffinity(thread Handle, affinity *GroupAffinity) error {
	raw, _, ok := e.provider()
	if !ok {
		return ErrNotReady
	}
	err := raw.ThreadGroupAffinity(thread, affinity)
	e.calledOnce(epThreadGroupAffinity, "thread", thread)
	e.log.V(1).Info("GetThreadGroupAffinity", "thread", thread, "error", err)
	return err
}

// SetThreadGroupAffinity stands in for SetThreadGroupAffinity.
func (e *Engine) SetThreadGroupAffinity(thread Handle, affinity, previous *GroupAffinity) error {
	raw, _, ok := e.provider()
	if !ok {
		return ErrNotReady
	}
	err := raw.SetThreadGroupAffinity(thread, affinity, previous)
	e.calledOnce(epSetThreadGroupAffinity, "thread", thread)
	e.log.V(1).Info("SetThreadGroupAffinity", "thread", thread, "error", err)
	return err
}

// SetThreadIdealProcessorEx stands in for SetThreadIdealProcessorEx.
func (e *Engine) SetThreadIdealProcessorEx(thread Handle, ideal, previous *ProcessorNumber) error {
	raw, _, ok := e.provider()
	if !ok {
		return ErrNotReady
	}
	err := raw.SetThreadIdealProcessorEx(thread, ideal, previous)
	e.calledOnce(epSetThreadIdealProcessorEx, "thread", thread)
	e.log.V(1).Info("SetThreadIdealProcessorEx", "thread", thread, "error", err)
	return err
}
