// SPDX-FileCopyrightText: 2025 The powerctl authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package power_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/tebuk/powerctl/internal/bootstrap16"
	"github.com/tebuk/powerctl/internal/firmware"
	"github.com/tebuk/powerctl/internal/hostcpu"
	"github.com/tebuk/powerctl/internal/power"
)

// Sentinel the fake transition primitive writes into the register capture on
// the resume leg.
const resumeSentinel = 0x600df00d

var errInjected = errors.New("injected failure")

// fakeMachine records every collaborator call of an attempt in order, so
// tests can assert both pairing (acquire/release, set/clear) and sequencing
// (restore before release, clear before release).
type fakeMachine struct {
	t *testing.T

	trace []string

	alloc       *bootstrap16.Allocator
	acquires    int
	releases    int
	failAcquire bool

	facs          *firmware.FACS
	failWakeTable bool
	failSetVector bool
	vectorSets    int
	vectorClears  int

	rejectTransition   bool
	enableIntsOnResume bool
	transitions        int
	lastRegs           *power.RegisterCapture
	lastState          power.SState
	lastSleepTypeA     byte
	lastSleepTypeB     byte
	intsMaskedAtCall   bool
	armedVectorAtCall  uint64

	intsDisabled        bool
	failPlatformSuspend bool
	failArchSuspend     bool
	intsMaskedAtResume  bool

	online hostcpu.CPUMask
}

func newFakeMachine(t *testing.T) *fakeMachine {
	t.Helper()

	alloc, err := bootstrap16.NewAllocator(0)
	if err != nil {
		t.Fatal(err)
	}

	return &fakeMachine{
		t:      t,
		alloc:  alloc,
		facs:   firmware.NewFACS(1),
		online: hostcpu.MaskOf(0),
	}
}

func (m *fakeMachine) record(event string) {
	m.trace = append(m.trace, event)
}

// tracePos returns the index of the first occurrence of event, or -1.
func (m *fakeMachine) tracePos(event string) int {
	return slices.Index(m.trace, event)
}

func (m *fakeMachine) controller() *power.Controller {
	return &power.Controller{
		Bootstrap:   fakeAlloc{m},
		Firmware:    fakeFirmware{m},
		Arch:        fakeArch{m},
		Platform:    fakePlatform{m},
		Topology:    fakeTopology{m},
		ResumeEntry: 0xffffffff80001000,
		Threads: func(_ string, fn func() error) error {
			return fn()
		},
	}
}

func (m *fakeMachine) orchestrator() *power.Orchestrator {
	return &power.Orchestrator{
		Bootstrap:   fakeAlloc{m},
		Firmware:    fakeFirmware{m},
		Arch:        fakeArch{m},
		Platform:    fakePlatform{m},
		ResumeEntry: 0xffffffff80001000,
	}
}

type fakeAlloc struct{ m *fakeMachine }

var _ power.BootstrapAllocator = fakeAlloc{}

func (a fakeAlloc) Acquire(resumeEntry uint64) (*bootstrap16.Bootstrap, error) {
	a.m.record("acquire")

	if a.m.failAcquire {
		return nil, errInjected
	}

	boot, err := a.m.alloc.Acquire(resumeEntry)
	if err != nil {
		return nil, err
	}

	a.m.acquires++

	return boot, nil
}

func (a fakeAlloc) Release(boot *bootstrap16.Bootstrap) {
	a.m.record("release")
	a.m.releases++
	a.m.alloc.Release(boot)
}

type fakeFirmware struct{ m *fakeMachine }

var _ power.Firmware = fakeFirmware{}

func (f fakeFirmware) WakeTable() (*firmware.FACS, error) {
	f.m.record("wake-table")

	if f.m.failWakeTable {
		return nil, firmware.ErrTableNotFound
	}

	return f.m.facs, nil
}

func (f fakeFirmware) SetWakingVector(facs *firmware.FACS, addr uint64) error {
	if addr == 0 {
		f.m.record("clear-vector")
		f.m.vectorClears++
		facs.ClearWakingVector()

		return nil
	}

	f.m.record("set-vector")

	if f.m.failSetVector {
		return errInjected
	}

	f.m.vectorSets++
	facs.SetWakingVector(uint32(addr), 0)

	return nil
}

func (f fakeFirmware) TransitionSState(
	regs *power.RegisterCapture, state power.SState, sleepTypeA, sleepTypeB byte,
) error {
	f.m.record("transition")

	f.m.transitions++
	f.m.lastRegs = regs
	f.m.lastState = state
	f.m.lastSleepTypeA = sleepTypeA
	f.m.lastSleepTypeB = sleepTypeB
	f.m.intsMaskedAtCall = f.m.intsDisabled
	f.m.armedVectorAtCall = uint64(f.m.facs.FirmwareWakingVector)

	if f.m.rejectTransition {
		return errInjected
	}

	if state.Resumable() {
		// Simulated wake: the resume leg fills the capture record and hands
		// control back with interrupts still masked.
		regs.RAX = resumeSentinel
		regs.RIP = f.m.armedVectorAtCall

		if f.m.enableIntsOnResume {
			f.m.intsDisabled = false
		}
	}

	return nil
}

type fakeArch struct{ m *fakeMachine }

var _ power.Arch = fakeArch{}

func (a fakeArch) DisableInterrupts() {
	a.m.record("disable-ints")
	a.m.intsDisabled = true
}

func (a fakeArch) EnableInterrupts() {
	a.m.record("enable-ints")
	a.m.intsDisabled = false
}

func (a fakeArch) InterruptsDisabled() bool {
	return a.m.intsDisabled
}

func (a fakeArch) Suspend() error {
	a.m.record("arch-suspend")

	if a.m.failArchSuspend {
		return errInjected
	}

	return nil
}

func (a fakeArch) Resume() {
	a.m.record("arch-resume")
	a.m.intsMaskedAtResume = a.m.intsDisabled
}

type fakePlatform struct{ m *fakeMachine }

var _ power.Platform = fakePlatform{}

func (p fakePlatform) Suspend() error {
	p.m.record("platform-suspend")

	if p.m.failPlatformSuspend {
		return errInjected
	}

	return nil
}

func (p fakePlatform) Resume() {
	p.m.record("platform-resume")
}

func (p fakePlatform) ThawTimers() {
	p.m.record("thaw-timers")
}

type fakeTopology struct{ m *fakeMachine }

var _ power.Topology = fakeTopology{}

func (t fakeTopology) OnlineMask() (hostcpu.CPUMask, error) {
	t.m.record("online-mask")

	if t.m.online == 0 {
		return 0, errInjected
	}

	return t.m.online, nil
}
