// SPDX-FileCopyrightText: 2025 The powerctl authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package power

import (
	"github.com/tebuk/powerctl/internal/bootstrap16"
	"github.com/tebuk/powerctl/internal/firmware"
	"github.com/tebuk/powerctl/internal/hostcpu"
)

// Firmware is the ACPI surface of the platform firmware.
type Firmware interface {
	// WakeTable looks up the FACS. A missing table means the platform has no
	// resume path at all and resumable transitions must be refused.
	WakeTable() (*firmware.FACS, error)

	// SetWakingVector points the firmware waking vector at the given
	// physical address, or resets it to the null vector for address zero.
	SetWakingVector(facs *firmware.FACS, addr uint64) error

	// TransitionSState performs the S-state transition. It is the one call
	// with two distinct outcomes: a non-nil error means firmware rejected
	// the request and control returned immediately; a nil return for a
	// resumable state means a full sleep/wake round trip happened, regs has
	// been filled by the resume leg and interrupts are still masked. For S5
	// the call is not expected to return at all on real hardware.
	TransitionSState(regs *RegisterCapture, state SState, sleepTypeA, sleepTypeB byte) error
}

// Arch abstracts the CPU-level primitives of the transition: interrupt
// masking and saving/restoring the extension state a plain mode switch does
// not cover.
type Arch interface {
	DisableInterrupts()
	EnableInterrupts()
	InterruptsDisabled() bool

	// Suspend saves the CPU extension state. Called with interrupts masked.
	Suspend() error
	// Resume undoes Suspend after a wake. Called with interrupts masked.
	Resume()
}

// Platform abstracts the board-level suspend and resume primitives.
type Platform interface {
	// Suspend saves the platform state. Called with interrupts masked.
	Suspend() error
	// Resume undoes Suspend after a wake. Called with interrupts masked.
	Resume()
	// ThawTimers restarts the per-CPU timer hardware after a resume.
	ThawTimers()
}

// Topology reports the online processing units of the machine.
type Topology interface {
	OnlineMask() (hostcpu.CPUMask, error)
}

// BootstrapAllocator hands out the real-mode trampoline for the resume path.
type BootstrapAllocator interface {
	Acquire(resumeEntry uint64) (*bootstrap16.Bootstrap, error)
	Release(*bootstrap16.Bootstrap)
}
