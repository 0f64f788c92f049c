// SPDX-FileCopyrightText: 2025 The powerctl authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package hostcpu

import "errors"

var (
	// ErrCPUNumberInvalid is returned if a CPU number is negative or beyond
	// the range a [CPUMask] can represent.
	ErrCPUNumberInvalid = errors.New("CPU number out of mask range")

	// ErrCPUListInvalid is returned if a CPU list string is malformed.
	ErrCPUListInvalid = errors.New("malformed CPU list")
)
