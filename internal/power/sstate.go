// SPDX-FileCopyrightText: 2025 The powerctl authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package power

import (
	"fmt"
	"strconv"
	"strings"
)

// SState is an ACPI system power state, S1 (light sleep) through S5 (full
// shutdown).
type SState uint8

// The supported S-states.
const (
	S1 SState = iota + 1
	S2
	S3
	S4
	S5
)

// Valid reports whether the state is within the supported range S1 to S5.
func (s SState) Valid() bool {
	return s >= S1 && s <= S5
}

// Resumable reports whether the machine is expected to come back from the
// state. S5 is a shutdown and never resumes.
func (s SState) Resumable() bool {
	return s.Valid() && s != S5
}

// String implements the [flag.Value] interface.
func (s *SState) String() string {
	return fmt.Sprintf("S%d", uint8(*s))
}

// Set implements the [flag.Value] interface. It accepts plain state numbers
// as well as the "S" prefixed form, like "3" or "S3".
func (s *SState) Set(value string) error {
	trimmed := strings.TrimPrefix(strings.ToUpper(value), "S")

	num, err := strconv.ParseUint(trimmed, 10, 8)
	if err != nil {
		return fmt.Errorf("%w: S-state %q", ErrInvalidArgs, value)
	}

	state := SState(num)
	if !state.Valid() {
		return fmt.Errorf("%w: S-state %q out of range", ErrInvalidArgs, value)
	}

	*s = state

	return nil
}

// Request is one immutable power transition request. The sleep type bytes
// are firmware-defined values selected per state and are forwarded verbatim
// to the transition primitive, never interpreted here.
type Request struct {
	State      SState
	SleepTypeA byte
	SleepTypeB byte
}

// Command selects the operation of a power control request.
type Command uint32

// CommandTransitionSState is the sole recognized power control command.
const CommandTransitionSState Command = 1
