// SPDX-FileCopyrightText: 2025 The powerctl authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package power

import (
	"fmt"
	"log/slog"

	"github.com/tebuk/powerctl/internal/hostcpu"
)

// Controller is the entry point for power control requests. It validates a
// request, checks the quiescence precondition and dispatches to the
// orchestrator: resumable states run on a dedicated maximum-priority thread,
// S5 runs inline on the calling context.
type Controller struct {
	Bootstrap BootstrapAllocator
	Firmware  Firmware
	Arch      Arch
	Platform  Platform
	Topology  Topology

	// ResumeEntry is the fixed long-mode resume entry the bootstrap
	// trampoline is bound to.
	ResumeEntry uint64

	// BootCPU is the processing unit that must be the sole online unit for
	// a resumable transition. The zero value is [hostcpu.BootCPU].
	BootCPU int

	// Threads runs the transition attempt for resumable states. Uses
	// [RunMaxPriorityThread] if nil.
	Threads ThreadRunner

	// Log is used for transition progress. Uses [slog.Default] if nil.
	Log *slog.Logger
}

// PowerControl handles one system power control request.
//
// Error taxonomy: [ErrNotSupported] for an unrecognized command,
// [ErrInvalidArgs] for an out-of-range S-state, [ErrBadState] if more than
// the boot CPU is online for a resumable state or the firmware wake table is
// unusable, [ErrNoResources] if the transition thread cannot be created and
// [ErrInternal] if firmware rejected the transition.
func (c *Controller) PowerControl(cmd Command, req Request) error {
	if cmd != CommandTransitionSState {
		return fmt.Errorf("%w: command %d", ErrNotSupported, cmd)
	}

	if !req.State.Valid() {
		return fmt.Errorf("%w: S-state %d", ErrInvalidArgs, req.State)
	}

	orchestrator := &Orchestrator{
		Bootstrap:   c.Bootstrap,
		Firmware:    c.Firmware,
		Arch:        c.Arch,
		Platform:    c.Platform,
		ResumeEntry: c.ResumeEntry,
		Log:         c.Log,
	}

	if !req.State.Resumable() {
		return orchestrator.Shutdown(req)
	}

	// A resumable transition relies on the caller having quiesced the
	// machine already: only the unit issuing the request may still be
	// online. That precondition is the lock substitute that keeps two
	// attempts from ever holding the waking vector concurrently.
	online, err := c.Topology.OnlineMask()
	if err != nil {
		return fmt.Errorf("%w: online CPUs: %v", ErrBadState, err)
	}

	if online != hostcpu.MaskOf(c.BootCPU) {
		return fmt.Errorf("%w: %d CPUs online for %s",
			ErrBadState, online.Count(), req.State.String())
	}

	threads := c.Threads
	if threads == nil {
		threads = RunMaxPriorityThread
	}

	return threads("suspend-thread", func() error {
		return orchestrator.Suspend(req)
	})
}
