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

// SystemInfo stands in for GetSystemInfo, capping the number of processors
// to the virtual CPU count and restricting the active processor mask to the
// virtual CPU set. It leaves info untouched if the engine isn't active.
func (e *Engine) SystemInfo(info *SystemInfo) {
	raw, vset, ok := e.provider()
	if !ok {
		return
	}
	raw.SystemInfo(info)
	e.calledOnce(epSystemInfo, "processors", info.NumberOfProcessors)
	clampSystemInfo(info, vset)
}

// NativeSystemInfo stands in for GetNativeSystemInfo, see
// [Engine.SystemInfo].
func (e *Engine) NativeSystemInfo(info *SystemInfo) {
	raw, vset, ok := e.provider()
	if !ok {
		return
	}
	raw.NativeSystemInfo(info)
	e.calledOnce(epNativeSystemInfo, "processors", info.NumberOfProcessors)
	clampSystemInfo(info, vset)
}

func clampSystemInfo(info *SystemInfo, vset VirtualSet) {
	info.NumberOfProcessors = vset.ClampCount(info.NumberOfProcessors)
	info.ActiveProcessorMask = uintptr(vset.Clamp(uint64(info.ActiveProcessorMask)))
}
