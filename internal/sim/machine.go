// SPDX-FileCopyrightText: 2025 The powerctl authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package sim provides a deterministic software machine implementing every
// collaborator interface of the power transition core. It backs the CLI
// dry-run mode and the end-to-end tests: the firmware tables live in
// simulated physical memory, sleep is a wake timer and the resume leg fills
// the register capture the way the real-mode stub would.
package sim

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tebuk/powerctl/internal/bootstrap16"
	"github.com/tebuk/powerctl/internal/firmware"
	"github.com/tebuk/powerctl/internal/hostcpu"
	"github.com/tebuk/powerctl/internal/power"
)

// ResumeEntry is the long-mode entry point of the simulated kernel's wakeup
// stub.
const ResumeEntry = 0xffffffff80100000

var (
	// ErrInterruptsLive is returned if the transition primitive is invoked
	// with interrupts still enabled.
	ErrInterruptsLive = errors.New("transition with interrupts enabled")

	// ErrVectorNotArmed is returned if the waking vector does not point into
	// the bootstrap trampoline page at transition time.
	ErrVectorNotArmed = errors.New("waking vector not armed")

	// ErrNoCaptureRecord is returned if a resumable transition is attempted
	// without a register capture record.
	ErrNoCaptureRecord = errors.New("no register capture record")

	// ErrNotQuiesced is returned if a resumable transition is attempted
	// before the platform and CPU state were saved.
	ErrNotQuiesced = errors.New("system state not saved")

	// ErrPoweredOff is returned if the machine was shut down by a previous
	// transition.
	ErrPoweredOff = errors.New("machine is powered off")
)

// Config describes the simulated machine.
type Config struct {
	// OnlineCPUs are the processing units reported online. Defaults to the
	// boot CPU alone.
	OnlineCPUs []int
	// WakeDelay is how long the machine "sleeps" before the simulated wake
	// event fires.
	WakeDelay time.Duration
	// NoFACS builds a machine whose firmware publishes no FACS, so resumable
	// transitions must fail with a bad state.
	NoFACS bool
	// Log is used for machine events. Uses [slog.Default] if nil.
	Log *slog.Logger
}

// Machine is a simulated single-board machine. It implements
// [power.Firmware] and [power.Topology] itself and hands out views for
// [power.Arch] and [power.Platform].
type Machine struct {
	log       *slog.Logger
	allocator *bootstrap16.Allocator
	registry  *firmware.Registry
	facsData  []byte
	wakeDelay time.Duration

	mu            sync.Mutex
	online        hostcpu.CPUMask
	intsDisabled  bool
	platformSaved bool
	archSaved     bool
	off           bool
	resumes       int
	reject        error
}

// NewMachine builds a simulated machine from the given config.
func NewMachine(cfg Config) *Machine {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}

	online := hostcpu.MaskOf(cfg.OnlineCPUs...)
	if online == 0 {
		online = hostcpu.MaskOf(hostcpu.BootCPU)
	}

	// The default base is fine for the simulated address space.
	allocator, err := bootstrap16.NewAllocator(0)
	if err != nil {
		panic(err)
	}

	m := &Machine{
		log:       log,
		allocator: allocator,
		registry:  firmware.NewRegistry(),
		wakeDelay: cfg.WakeDelay,
		online:    online,
	}

	if !cfg.NoFACS {
		m.facsData = firmware.NewFACS(1).Encode()
		m.registry.Add(firmware.SignatureFACS, m.facsData)
	}

	return m
}

// Controller returns a power controller wired to this machine.
func (m *Machine) Controller() *power.Controller {
	return &power.Controller{
		Bootstrap:   m.allocator,
		Firmware:    m,
		Arch:        archView{m},
		Platform:    platformView{m},
		Topology:    m,
		ResumeEntry: ResumeEntry,
		Log:         m.log,
	}
}

// OnlineMask implements [power.Topology].
func (m *Machine) OnlineMask() (hostcpu.CPUMask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.online, nil
}

// SetOnline overrides the online CPU set, simulating CPUs being brought up
// or quiesced.
func (m *Machine) SetOnline(cpus ...int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.online = hostcpu.MaskOf(cpus...)
}

// RejectTransitions makes the firmware reject all following transition
// requests with the given error, as a platform with unusable sleep types
// would. A nil error re-enables transitions.
func (m *Machine) RejectTransitions(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.reject = err
}

// WakeTable implements [power.Firmware] by looking up the FACS in the
// simulated table memory.
func (m *Machine) WakeTable() (*firmware.FACS, error) {
	data, err := m.registry.Find(firmware.SignatureFACS, 1)
	if err != nil {
		return nil, err
	}

	return firmware.ParseFACS(data)
}

// SetWakingVector implements [power.Firmware]. The mutation is written
// through to the simulated table memory, like a store to firmware-visible
// physical memory.
func (m *Machine) SetWakingVector(facs *firmware.FACS, addr uint64) error {
	if addr == 0 {
		facs.ClearWakingVector()
	} else {
		facs.SetWakingVector(uint32(addr), 0)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	copy(m.facsData, facs.Encode())

	return nil
}

// TransitionSState implements [power.Firmware]. For resumable states it
// verifies the machine was quiesced correctly, sleeps until the wake timer
// fires and returns through the simulated resume leg with the capture record
// filled. For S5 it powers the machine off.
func (m *Machine) TransitionSState(
	regs *power.RegisterCapture, state power.SState, sleepTypeA, sleepTypeB byte,
) error {
	m.mu.Lock()

	if m.off {
		m.mu.Unlock()
		return ErrPoweredOff
	}

	if !m.intsDisabled {
		m.mu.Unlock()
		return ErrInterruptsLive
	}

	if m.reject != nil {
		err := m.reject
		m.mu.Unlock()

		return err
	}

	if !state.Resumable() {
		m.off = true
		m.mu.Unlock()
		m.log.Debug("machine powered off",
			"sleep_type_a", sleepTypeA, "sleep_type_b", sleepTypeB)

		return nil
	}

	if regs == nil {
		m.mu.Unlock()
		return ErrNoCaptureRecord
	}

	vector, err := m.armedVectorLocked()
	if err != nil {
		m.mu.Unlock()
		return err
	}

	if !m.platformSaved || !m.archSaved {
		m.mu.Unlock()
		return ErrNotQuiesced
	}

	wakeDelay := m.wakeDelay
	m.mu.Unlock()

	m.log.Debug("machine sleeping", "state", state.String(),
		"waking_vector", fmt.Sprintf("%#x", vector))

	// The wake event. From the software's point of view this is simply a
	// very long synchronous call.
	time.Sleep(wakeDelay)

	// Resume leg: the stub restores the capture record and leaves
	// interrupts masked.
	regs.RIP = ResumeEntry
	regs.RSP = vector + 0xf00
	regs.RFlags = 0x2

	m.mu.Lock()
	m.resumes++
	m.mu.Unlock()

	m.log.Debug("machine woke", "state", state.String())

	return nil
}

// armedVectorLocked validates that the waking vector points into the
// bootstrap trampoline page.
func (m *Machine) armedVectorLocked() (uint64, error) {
	facs, err := firmware.ParseFACS(m.facsData)
	if err != nil {
		return 0, err
	}

	vector := uint64(facs.FirmwareWakingVector)
	if vector == 0 || !m.allocator.Contains(vector) {
		return 0, fmt.Errorf("%w: vector %#x", ErrVectorNotArmed, vector)
	}

	return vector, nil
}

// Resumes returns how many sleep/wake round trips the machine completed.
func (m *Machine) Resumes() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.resumes
}

// Off reports whether the machine was shut down.
func (m *Machine) Off() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.off
}

// WakingVectorArmed reports whether the simulated table memory holds a live
// waking vector.
func (m *Machine) WakingVectorArmed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	facs, err := firmware.ParseFACS(m.facsData)
	if err != nil {
		return false
	}

	return facs.WakingVectorArmed()
}

// archView adapts the machine to [power.Arch].
type archView struct{ m *Machine }

var _ power.Arch = archView{}

func (v archView) DisableInterrupts() {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()

	v.m.intsDisabled = true
}

func (v archView) EnableInterrupts() {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()

	v.m.intsDisabled = false
}

func (v archView) InterruptsDisabled() bool {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()

	return v.m.intsDisabled
}

func (v archView) Suspend() error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()

	v.m.archSaved = true

	return nil
}

func (v archView) Resume() {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()

	v.m.archSaved = false
}

// platformView adapts the machine to [power.Platform].
type platformView struct{ m *Machine }

var _ power.Platform = platformView{}

func (v platformView) Suspend() error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()

	v.m.platformSaved = true

	return nil
}

func (v platformView) Resume() {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()

	v.m.platformSaved = false
}

func (v platformView) ThawTimers() {}
