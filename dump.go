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
	"github.com/go-logr/logr"
	"github.com/thediveo/cpulimiter/topology"
)

// dumpFixed logs the individual records of a fixed-format topology buffer,
// for verbosity level 2 and higher only.
func dumpFixed(log logr.Logger, stage string, buf []byte) {
	v := log.V(2)
	if !v.Enabled() {
		return
	}
	recs, err := topology.DecodeFixed(buf)
	v.Info("fixed topology", "stage", stage, "records", len(recs), "error", err)
	for idx, rec := range recs {
		v.Info("fixed topology record", "stage", stage, "index", idx,
			"cpus", MaskList(rec.ProcessorMask).String(), "record", rec.String())
	}
}

// dumpExtended logs the individual records of an extended-format topology
// buffer, for verbosity level 2 and higher only.
func dumpExtended(log logr.Logger, stage string, buf []byte) {
	v := log.V(2)
	if !v.Enabled() {
		return
	}
	recs, err := topology.DecodeExtended(buf)
	v.Info("extended topology", "stage", stage, "bytes", len(buf), "records", len(recs), "error", err)
	for idx, rec := range recs {
		v.Info("extended topology record", "stage", stage, "index", idx, "record", rec.String())
	}
}
