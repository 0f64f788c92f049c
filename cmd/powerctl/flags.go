// SPDX-FileCopyrightText: 2025 The powerctl authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/tebuk/powerctl/internal/power"
)

// localConfigFile holds additional arguments, one per line, merged in front
// of the command line. Environment variables are expanded.
const localConfigFile = ".powerctl-args"

// Supported machine backends.
const (
	backendSim  = "sim"
	backendHost = "host"
)

var errFlagInvalid = errors.New("invalid flag value")

type flags struct {
	state      power.SState
	sleepTypeA uint
	sleepTypeB uint
	backend    string
	simCPUs    uint
	wakeAfter  time.Duration
	debug      bool
}

func parseArgs(name string, args []string, output io.Writer) (*flags, error) {
	f := &flags{
		state:     power.S3,
		backend:   backendSim,
		simCPUs:   1,
		wakeAfter: 2 * time.Second,
	}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)

	fs.Var(
		&f.state,
		"state",
		"target S-state, like 3 or S3 (S5 is shutdown)",
	)

	fs.UintVar(
		&f.sleepTypeA,
		"sleep-type-a",
		f.sleepTypeA,
		"firmware defined sleep type A byte",
	)

	fs.UintVar(
		&f.sleepTypeB,
		"sleep-type-b",
		f.sleepTypeB,
		"firmware defined sleep type B byte",
	)

	fs.StringVar(
		&f.backend,
		"backend",
		f.backend,
		"machine backend: sim, host",
	)

	fs.UintVar(
		&f.simCPUs,
		"sim-cpus",
		f.simCPUs,
		"number of online CPUs of the simulated machine",
	)

	fs.DurationVar(
		&f.wakeAfter,
		"wake-after",
		f.wakeAfter,
		"delay until the simulated wake event fires",
	)

	fs.BoolVar(
		&f.debug,
		"debug",
		f.debug,
		"enable debug output",
	)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if f.sleepTypeA > 0xff || f.sleepTypeB > 0xff {
		return nil, fmt.Errorf("%w: sleep type bytes must fit one byte",
			errFlagInvalid)
	}

	if f.backend != backendSim && f.backend != backendHost {
		return nil, fmt.Errorf("%w: backend %q", errFlagInvalid, f.backend)
	}

	return f, nil
}

// localConfigArgs returns arguments from the local config file, one argument
// per line.
func localConfigArgs(fsys fs.FS, file string) ([]string, error) {
	conf, err := fs.ReadFile(fsys, file)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("read config file: %w", err)
	}

	var args []string

	for _, line := range strings.Split(os.ExpandEnv(string(conf)), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			args = append(args, line)
		}
	}

	return args, nil
}
