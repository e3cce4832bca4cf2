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

// vcpuinfo shows the CPU topology and affinities of this system as seen
// through a limited virtual CPU set.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/go-logr/logr"
	"github.com/joho/godotenv"
	"github.com/thediveo/cpulimiter"
	"github.com/thediveo/cpulimiter/topology"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "vcpuinfo: %s\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	// an optional .env file might configure the virtual CPUs.
	_ = godotenv.Load()

	fs := flag.NewFlagSet("vcpuinfo", flag.ContinueOnError)
	verbosity := fs.Int("v", 0, "log verbosity, 2 and higher dump raw topology records")
	cpus := fs.String("cpus", "", "virtual CPU count or list, overriding $"+cpulimiter.EnvCPUs)
	relname := fs.String("relationship", "all", "relationship of the extended topology to show")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rel, err := topology.ParseRelationship(*relname)
	if err != nil {
		return err
	}

	log := logr.FromSlogHandler(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(-*verbosity),
	}))

	var vset cpulimiter.VirtualSet
	if *cpus != "" {
		vset, err = cpulimiter.ParseVirtualSet([]byte(*cpus))
	} else {
		vset, err = cpulimiter.ConfigFromEnv()
	}
	if err != nil {
		return err
	}

	raw, err := cpulimiter.NewOSProvider()
	if err != nil {
		return err
	}
	e := cpulimiter.New(cpulimiter.WithLogger(log))
	if err := e.Activate(raw, vset); err != nil {
		return err
	}
	defer func() { _ = e.Deactivate() }()

	fmt.Fprintf(out, "virtual CPUs: %s\n", vset)

	var info cpulimiter.SystemInfo
	e.SystemInfo(&info)
	fmt.Fprintf(out, "processors: %d, active: %s\n",
		info.NumberOfProcessors, cpulimiter.MaskList(uint64(info.ActiveProcessorMask)))

	var processMask, systemMask uint64
	if err := e.ProcessAffinityMask(cpulimiter.CurrentProcess(), &processMask, &systemMask); err != nil {
		return fmt.Errorf("cannot query affinity: %w", err)
	}
	fmt.Fprintf(out, "process affinity: %s, system affinity: %s\n",
		cpulimiter.MaskList(processMask), cpulimiter.MaskList(systemMask))

	fixed, err := query(e.LogicalProcessorInformation)
	switch {
	case errors.Is(err, cpulimiter.ErrCallNotImplemented):
		fmt.Fprintln(out, "fixed topology: not available")
	case err != nil:
		return fmt.Errorf("cannot query fixed topology: %w", err)
	default:
		recs, err := topology.DecodeFixed(fixed)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "fixed topology: %d records\n", len(recs))
		for _, rec := range recs {
			fmt.Fprintf(out, "  %s\n", rec)
		}
	}

	extended, err := query(func(buf []byte, length *uint32) error {
		return e.LogicalProcessorInformationEx(rel, buf, length)
	})
	switch {
	case errors.Is(err, cpulimiter.ErrCallNotImplemented):
		fmt.Fprintf(out, "extended topology (%s): not available\n", rel)
	case err != nil:
		return fmt.Errorf("cannot query extended topology: %w", err)
	default:
		recs, err := topology.DecodeExtended(extended)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "extended topology (%s): %d records\n", rel, len(recs))
		for _, rec := range recs {
			fmt.Fprintf(out, "  %s\n", rec)
		}
	}
	return nil
}

// query runs the two-phase topology query protocol: first asking for the
// required buffer size, then for the data itself.
func query(fn func(buf []byte, length *uint32) error) ([]byte, error) {
	var length uint32
	err := fn(nil, &length)
	if !errors.Is(err, cpulimiter.ErrInsufficientBuffer) {
		if err == nil {
			return nil, nil
		}
		return nil, err
	}
	buf := make([]byte, length)
	if err := fn(buf, &length); err != nil {
		return nil, err
	}
	return buf[:length], nil
}
