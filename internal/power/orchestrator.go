// SPDX-FileCopyrightText: 2025 The powerctl authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package power

import (
	"fmt"
	"log/slog"
	"unsafe"
)

// unwind is the shared teardown of one transition attempt. Release steps are
// pushed right after their acquisition succeeds and run in reverse order on
// every exit of the attempt, so resource release never depends on which step
// failed.
type unwind struct {
	fns []func()
}

func (u *unwind) push(fn func()) {
	u.fns = append(u.fns, fn)
}

func (u *unwind) run() {
	for i := len(u.fns) - 1; i >= 0; i-- {
		u.fns[i]()
	}
}

// Orchestrator performs single power transition attempts against a set of
// hardware collaborators. It is single-threaded per attempt; the quiescence
// precondition checked by [Controller] is what keeps attempts from racing.
type Orchestrator struct {
	Bootstrap BootstrapAllocator
	Firmware  Firmware
	Arch      Arch
	Platform  Platform

	// ResumeEntry is the fixed long-mode entry point the bootstrap
	// trampoline hands control to after a wake.
	ResumeEntry uint64

	// Log is used for transition progress. Uses [slog.Default] if nil.
	Log *slog.Logger
}

func (o *Orchestrator) log() *slog.Logger {
	if o.Log == nil {
		return slog.Default()
	}

	return o.Log
}

// Suspend performs one resumable S-state transition attempt. On a nil return
// the machine has been through a full sleep/wake round trip and its state
// has been restored. All resources acquired for the attempt are torn down
// before Suspend returns, no matter where it failed.
func (o *Orchestrator) Suspend(req Request) error {
	var u unwind
	defer u.run()

	boot, err := o.Bootstrap.Acquire(o.ResumeEntry)
	if err != nil {
		return fmt.Errorf("acquire bootstrap: %w", err)
	}

	u.push(func() { o.Bootstrap.Release(boot) })

	facs, err := o.Firmware.WakeTable()
	if err != nil {
		return fmt.Errorf("%w: wake table: %v", ErrBadState, err)
	}

	if err := o.Firmware.SetWakingVector(facs, boot.Entry()); err != nil {
		return fmt.Errorf("%w: arm waking vector: %v", ErrBadState, err)
	}

	// Clearing the vector before the bootstrap release keeps the vector's
	// lifetime nested inside the bootstrap's: firmware must never see a live
	// vector into a page this attempt no longer owns.
	u.push(func() {
		if err := o.Firmware.SetWakingVector(facs, 0); err != nil {
			o.log().Error("clear waking vector", "error", err)
		}
	})

	var regs RegisterCapture

	// The address identifies the capture record to the resume stub. It is
	// handed through the exchange block and never dereferenced in-process.
	boot.SetRegistersAddr(uint64(uintptr(unsafe.Pointer(&regs))))

	o.Arch.DisableInterrupts()

	if err := o.Platform.Suspend(); err != nil {
		o.Arch.EnableInterrupts()
		return fmt.Errorf("%w: platform suspend: %v", ErrInternal, err)
	}

	if err := o.Arch.Suspend(); err != nil {
		o.Platform.Resume()
		o.Arch.EnableInterrupts()

		return fmt.Errorf("%w: arch suspend: %v", ErrInternal, err)
	}

	o.log().Debug("entering s-state transition", "state", req.State.String())

	err = o.Firmware.TransitionSState(&regs, req.State, req.SleepTypeA, req.SleepTypeB)
	if err != nil {
		// Firmware rejected the request; the machine never slept.
		o.Arch.EnableInterrupts()
		return fmt.Errorf("%w: transition rejected: %v", ErrInternal, err)
	}

	o.log().Debug("left s-state transition", "state", req.State.String())

	// Control came back through the resume path. The resume stub must never
	// re-enable interrupts itself.
	if !o.Arch.InterruptsDisabled() {
		return fmt.Errorf("%w: interrupts enabled on resume path", ErrInternal)
	}

	// Restore runs before the unwind releases the waking vector and the
	// bootstrap page, because it may still depend on state they back.
	o.Arch.Resume()
	o.Platform.Resume()
	o.Platform.ThawTimers()

	o.Arch.EnableInterrupts()

	return nil
}

// Shutdown performs a non-resumable S5 transition on the calling context.
// There is no resume path, so no bootstrap page or waking vector is
// involved. A true shutdown never returns control; if the primitive comes
// back with an error, the firmware call failed and interrupts have been
// re-enabled.
func (o *Orchestrator) Shutdown(req Request) error {
	o.Arch.DisableInterrupts()

	err := o.Firmware.TransitionSState(nil, req.State, req.SleepTypeA, req.SleepTypeB)

	o.Arch.EnableInterrupts()

	if err != nil {
		return fmt.Errorf("%w: shutdown rejected: %v", ErrInternal, err)
	}

	return nil
}
