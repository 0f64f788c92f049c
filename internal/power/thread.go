// SPDX-FileCopyrightText: 2025 The powerctl authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package power

import (
	"log/slog"
	"runtime"

	"github.com/tebuk/powerctl/internal/hostcpu"
)

// ThreadRunner runs fn on a dedicated execution context and blocks without
// timeout until it finishes, returning fn's result. The join is unbounded on
// purpose: a firmware sleep call legitimately takes an indeterminate time to
// either fail fast or return after a future wake event. A runner that cannot
// create the execution context returns [ErrNoResources] instead of running
// fn.
type ThreadRunner func(name string, fn func() error) error

// RunMaxPriorityThread is the default [ThreadRunner]. It pins a fresh
// goroutine to its own OS thread and raises it to the highest SCHED_FIFO
// priority, so ordinary work cannot preempt the transition while the machine
// is being quiesced. The thread also carries the full execution state that
// must survive the suspend/resume round trip.
func RunMaxPriorityThread(name string, fn func() error) error {
	result := make(chan error)

	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		if err := hostcpu.SetFIFOPriority(hostcpu.MaxFIFOPriority); err != nil {
			// Not fatal: without CAP_SYS_NICE the attempt still runs, just
			// without realtime protection.
			slog.Warn("transition thread priority not raised",
				"thread", name, "error", err)
		}

		result <- fn()
	}()

	return <-result
}
