// SPDX-FileCopyrightText: 2025 The powerctl authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package power

// RegisterCapture is the register-exchange record of one transition attempt.
// Its address is published in the bootstrap exchange block before the sleep
// call so the real-mode resume stub can locate it; the transition primitive
// fills it on the resume leg and the restore path reads it afterward. It is
// owned by exactly one attempt and never outlives it.
type RegisterCapture struct {
	RDI, RSI, RBP, RBX uint64
	RDX, RCX, RAX      uint64
	R8, R9, R10, R11   uint64
	R12, R13, R14, R15 uint64
	RSP, RIP           uint64
	RFlags             uint64
}
