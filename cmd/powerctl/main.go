// SPDX-FileCopyrightText: 2025 The powerctl authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Command powerctl issues a single ACPI S-state transition request, either
// against a simulated machine or against the Linux host.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tebuk/powerctl/internal/power"
	"github.com/tebuk/powerctl/internal/sim"
)

func setupLogging(writer io.Writer, debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(
		writer,
		&slog.HandlerOptions{
			Level: level,
		},
	)))
}

func newController(f *flags) (*power.Controller, error) {
	if f.backend == backendHost {
		return newHostController()
	}

	cpus := make([]int, f.simCPUs)
	for i := range cpus {
		cpus[i] = i
	}

	machine := sim.NewMachine(sim.Config{
		OnlineCPUs: cpus,
		WakeDelay:  f.wakeAfter,
	})

	return machine.Controller(), nil
}

func run(args []string, stderr io.Writer) error {
	confArgs, err := localConfigArgs(os.DirFS("."), localConfigFile)
	if err != nil {
		return err
	}

	flags, err := parseArgs(args[0], append(confArgs, args[1:]...), stderr)
	if err != nil {
		return err
	}

	setupLogging(stderr, flags.debug)

	controller, err := newController(flags)
	if err != nil {
		return err
	}

	req := power.Request{
		State:      flags.state,
		SleepTypeA: byte(flags.sleepTypeA),
		SleepTypeB: byte(flags.sleepTypeB),
	}

	// Signals only end the progress reporting. The transition itself has no
	// cancellation: once issued, firmware either rejects it immediately or
	// the machine comes back through a wake event.
	ctx, cancel := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer cancel()

	done := make(chan struct{})

	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		defer close(done)
		return controller.PowerControl(power.CommandTransitionSState, req)
	})

	eg.Go(func() error {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				slog.Info("transition in flight", "state", req.State.String())
			}
		}
	})

	if err := eg.Wait(); err != nil {
		return err
	}

	slog.Info("transition complete", "state", req.State.String())

	return nil
}

func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, power.ErrInvalidArgs),
		errors.Is(err, power.ErrNotSupported),
		errors.Is(err, errFlagInvalid):
		return 2
	case errors.Is(err, power.ErrBadState):
		return 3
	case errors.Is(err, power.ErrNoResources):
		return 4
	case errors.Is(err, power.ErrInternal):
		return 5
	default:
		return 1
	}
}

func main() {
	if err := run(os.Args, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}

		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCodeFor(err))
	}
}
