// SPDX-FileCopyrightText: 2025 The powerctl authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package power

import "errors"

var (
	// ErrInvalidArgs is returned if the requested S-state is outside the
	// range S1 to S5. Rejected before any resource is touched.
	ErrInvalidArgs = errors.New("invalid arguments")

	// ErrNotSupported is returned for any power control command other than
	// [CommandTransitionSState].
	ErrNotSupported = errors.New("command not supported")

	// ErrBadState is returned if the system is not in a state the transition
	// can proceed from: more than the boot CPU is online for a resumable
	// state, or the firmware wake table is missing or refuses the vector.
	ErrBadState = errors.New("bad system state")

	// ErrNoResources is returned if the dedicated transition thread cannot
	// be created. No orchestrator work has started at that point.
	ErrNoResources = errors.New("transition thread unavailable")

	// ErrInternal is returned if firmware rejected the transition or a
	// save/restore primitive failed mid-attempt. Cleanup has run in full.
	ErrInternal = errors.New("internal transition error")
)
