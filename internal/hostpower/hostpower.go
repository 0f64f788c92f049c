// SPDX-FileCopyrightText: 2025 The powerctl authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package hostpower implements the power transition collaborators on a Linux
// host. Interrupt masking, CPU and platform state and the real-mode resume
// path are owned by the kernel there, so those collaborators keep delegation
// bookkeeping only; the suspend itself is the blocking write to
// /sys/power/state and shutdown is the reboot syscall. The orchestration and
// resource discipline above this package run unchanged.
package hostpower

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/tebuk/powerctl/internal/bootstrap16"
	"github.com/tebuk/powerctl/internal/firmware"
	"github.com/tebuk/powerctl/internal/hostcpu"
	"github.com/tebuk/powerctl/internal/power"
)

// Default sysfs paths.
const (
	DefaultStatePath = "/sys/power/state"
	DefaultFACSPath  = "/sys/firmware/acpi/tables/FACS"
)

// ErrStateNotSupported is returned if the requested S-state has no Linux
// sleep state equivalent.
var ErrStateNotSupported = errors.New("S-state not supported by host")

// stateTokens maps S-states to Linux sleep state tokens. S2 has no
// equivalent and S5 goes through the reboot syscall instead.
var stateTokens = map[power.SState]string{
	power.S1: "standby",
	power.S3: "mem",
	power.S4: "disk",
}

// Backend drives power transitions of the Linux host.
type Backend struct {
	// StatePath is the sleep state control file. Uses [DefaultStatePath] if
	// empty.
	StatePath string
	// FACSPath is the raw FACS table exported by the kernel. Uses
	// [DefaultFACSPath] if empty.
	FACSPath string
	// Log is used for transition progress. Uses [slog.Default] if nil.
	Log *slog.Logger

	// reboot performs the final shutdown syscall. Replaced in tests.
	reboot func(cmd int) error

	mu           sync.Mutex
	intsDisabled bool
}

// NewBackend returns a backend using the default sysfs paths.
func NewBackend(log *slog.Logger) *Backend {
	return &Backend{Log: log}
}

func (b *Backend) log() *slog.Logger {
	if b.Log == nil {
		return slog.Default()
	}

	return b.Log
}

// Controller returns a power controller wired to the host.
func (b *Backend) Controller() (*power.Controller, error) {
	// The trampoline page is kernel-owned on Linux; the allocator keeps the
	// core's exclusive ownership discipline intact.
	allocator, err := bootstrap16.NewAllocator(0)
	if err != nil {
		return nil, err
	}

	return &power.Controller{
		Bootstrap:   allocator,
		Firmware:    b,
		Arch:        hostArch{b},
		Platform:    hostPlatform{b},
		Topology:    hostcpu.SysfsTopology{},
		ResumeEntry: bootstrap16.DefaultBase,
		Log:         b.Log,
	}, nil
}

// WakeTable implements [power.Firmware] by reading the FACS the kernel
// exports from firmware memory.
func (b *Backend) WakeTable() (*firmware.FACS, error) {
	path := b.FACSPath
	if path == "" {
		path = DefaultFACSPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", firmware.ErrTableNotFound, err)
	}

	return firmware.ParseFACS(data)
}

// SetWakingVector implements [power.Firmware]. The kernel arms the real
// waking vector during the sysfs-initiated suspend, so the call only keeps
// the core's arm/clear pairing observable.
func (b *Backend) SetWakingVector(facs *firmware.FACS, addr uint64) error {
	if addr == 0 {
		facs.ClearWakingVector()
		b.log().Debug("waking vector cleared (kernel delegated)")

		return nil
	}

	facs.SetWakingVector(uint32(addr), 0)
	b.log().Debug("waking vector armed (kernel delegated)",
		"vector", fmt.Sprintf("%#x", addr))

	return nil
}

// TransitionSState implements [power.Firmware]. Resumable states block in
// the sleep state write until the machine resumes; S5 syncs and powers off.
func (b *Backend) TransitionSState(
	_ *power.RegisterCapture, state power.SState, _, _ byte,
) error {
	if !state.Resumable() {
		return b.powerOff()
	}

	token, supported := stateTokens[state]
	if !supported {
		return fmt.Errorf("%w: %s", ErrStateNotSupported, state.String())
	}

	path := b.StatePath
	if path == "" {
		path = DefaultStatePath
	}

	b.log().Info("suspending host", "state", state.String(), "token", token)

	// The write returns after the machine has been through the full
	// sleep/wake round trip, or immediately with an error if the kernel or
	// firmware refused the transition.
	if err := os.WriteFile(path, []byte(token), 0o200); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	b.log().Info("host resumed", "state", state.String())

	return nil
}

func (b *Backend) powerOff() error {
	unix.Sync()

	reboot := b.reboot
	if reboot == nil {
		reboot = unix.Reboot
	}

	if err := reboot(unix.LINUX_REBOOT_CMD_POWER_OFF); err != nil {
		return fmt.Errorf("reboot: %w", err)
	}

	return nil
}

// hostArch adapts the backend to [power.Arch]. The kernel masks interrupts
// and saves CPU state itself during a sysfs suspend; the view tracks the
// core's masking window so its invariants stay checkable.
type hostArch struct{ b *Backend }

var _ power.Arch = hostArch{}

func (a hostArch) DisableInterrupts() {
	a.b.mu.Lock()
	defer a.b.mu.Unlock()

	a.b.intsDisabled = true
}

func (a hostArch) EnableInterrupts() {
	a.b.mu.Lock()
	defer a.b.mu.Unlock()

	a.b.intsDisabled = false
}

func (a hostArch) InterruptsDisabled() bool {
	a.b.mu.Lock()
	defer a.b.mu.Unlock()

	return a.b.intsDisabled
}

func (a hostArch) Suspend() error { return nil }

func (a hostArch) Resume() {}

// hostPlatform adapts the backend to [power.Platform]. Device and timer
// state is kernel-owned on Linux.
type hostPlatform struct{ b *Backend }

var _ power.Platform = hostPlatform{}

func (p hostPlatform) Suspend() error { return nil }

func (p hostPlatform) Resume() {}

func (p hostPlatform) ThawTimers() {}
