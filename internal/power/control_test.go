// SPDX-FileCopyrightText: 2025 The powerctl authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package power_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tebuk/powerctl/internal/hostcpu"
	"github.com/tebuk/powerctl/internal/power"
)

func TestPowerControlRejectsUnknownCommand(t *testing.T) {
	machine := newFakeMachine(t)

	err := machine.controller().PowerControl(power.Command(42), power.Request{
		State: power.S3,
	})
	require.ErrorIs(t, err, power.ErrNotSupported)

	assert.Empty(t, machine.trace, "no collaborator may be touched")
}

func TestPowerControlValidatesSState(t *testing.T) {
	for _, state := range []power.SState{0, 6, 200} {
		machine := newFakeMachine(t)

		err := machine.controller().PowerControl(
			power.CommandTransitionSState,
			power.Request{State: state},
		)
		require.ErrorIs(t, err, power.ErrInvalidArgs)

		assert.Zero(t, machine.acquires,
			"no resource may be acquired for S%d", state)
		assert.Empty(t, machine.trace)
	}
}

func TestPowerControlQuiescencePrecondition(t *testing.T) {
	t.Run("multiple CPUs online refuses resumable states", func(t *testing.T) {
		machine := newFakeMachine(t)
		machine.online = hostcpu.MaskOf(0, 1)

		threadsSpawned := 0
		controller := machine.controller()
		controller.Threads = func(_ string, fn func() error) error {
			threadsSpawned++
			return fn()
		}

		err := controller.PowerControl(power.CommandTransitionSState, power.Request{
			State: power.S2,
		})
		require.ErrorIs(t, err, power.ErrBadState)

		assert.Zero(t, threadsSpawned)
		assert.Zero(t, machine.acquires)
	})

	t.Run("wrong single CPU refuses resumable states", func(t *testing.T) {
		machine := newFakeMachine(t)
		machine.online = hostcpu.MaskOf(1)

		err := machine.controller().PowerControl(
			power.CommandTransitionSState,
			power.Request{State: power.S3},
		)
		require.ErrorIs(t, err, power.ErrBadState)
	})

	t.Run("topology query failure is a bad state", func(t *testing.T) {
		machine := newFakeMachine(t)
		machine.online = 0

		err := machine.controller().PowerControl(
			power.CommandTransitionSState,
			power.Request{State: power.S1},
		)
		require.ErrorIs(t, err, power.ErrBadState)
	})

	t.Run("shutdown bypasses the CPU check", func(t *testing.T) {
		machine := newFakeMachine(t)
		machine.online = hostcpu.MaskOf(0, 1, 2, 3)

		err := machine.controller().PowerControl(
			power.CommandTransitionSState,
			power.Request{State: power.S5},
		)
		require.NoError(t, err)

		assert.Equal(t, -1, machine.tracePos("online-mask"))
		assert.Equal(t, 1, machine.transitions)
	})
}

func TestPowerControlThreadCreationFailure(t *testing.T) {
	machine := newFakeMachine(t)

	controller := machine.controller()
	controller.Threads = func(string, func() error) error {
		return power.ErrNoResources
	}

	err := controller.PowerControl(power.CommandTransitionSState, power.Request{
		State: power.S3,
	})
	require.ErrorIs(t, err, power.ErrNoResources)

	assert.Zero(t, machine.acquires, "no orchestrator work may have started")
}

func TestPowerControlRunsResumableOnTransitionThread(t *testing.T) {
	machine := newFakeMachine(t)

	var threadName string

	controller := machine.controller()
	controller.Threads = func(name string, fn func() error) error {
		threadName = name
		return fn()
	}

	err := controller.PowerControl(power.CommandTransitionSState, power.Request{
		State: power.S4,
	})
	require.NoError(t, err)

	assert.Equal(t, "suspend-thread", threadName)
}

// End-to-end scenario A: S3 with a single core online, all collaborators
// succeed and the primitive reports a synthetic resume.
func TestPowerControlSuspendRoundTrip(t *testing.T) {
	machine := newFakeMachine(t)

	err := machine.controller().PowerControl(power.CommandTransitionSState, power.Request{
		State:      power.S3,
		SleepTypeA: 1,
		SleepTypeB: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, power.S3, machine.lastState)
	assert.Equal(t, byte(1), machine.lastSleepTypeA)
	assert.Equal(t, byte(2), machine.lastSleepTypeB)
	assert.Equal(t, uint64(resumeSentinel), machine.lastRegs.RAX)
	assert.Equal(t, 1, machine.acquires)
	assert.Equal(t, 1, machine.releases)
}

// End-to-end scenario D: aborted shutdown surfaces as an internal error with
// interrupts re-enabled.
func TestPowerControlAbortedShutdown(t *testing.T) {
	machine := newFakeMachine(t)
	machine.rejectTransition = true

	err := machine.controller().PowerControl(power.CommandTransitionSState, power.Request{
		State: power.S5,
	})
	require.ErrorIs(t, err, power.ErrInternal)

	assert.False(t, machine.intsDisabled)
}
