// SPDX-FileCopyrightText: 2025 The powerctl authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package bootstrap16 manages the real-mode bootstrap trampoline used to
// bring a CPU from the firmware resume stub back into long mode. The
// trampoline lives in a single page of real-mode addressable memory below
// 1 MiB and is owned by exactly one power transition attempt at a time.
package bootstrap16

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrBusy is returned if the trampoline page is held by another
	// transition attempt.
	ErrBusy = errors.New("bootstrap page in use")

	// ErrBaseInvalid is returned if the configured trampoline base is not a
	// page-aligned real-mode address.
	ErrBaseInvalid = errors.New("bootstrap base not real-mode addressable")
)

const (
	pageSize    = 0x1000
	realModeTop = 1 << 20

	// DefaultBase is the conventional location of the trampoline page, below
	// the EBDA and clear of the BIOS data area.
	DefaultBase = 0x8000

	// entryDataOffset is where the entry data block sits inside the
	// trampoline page, past the stub code.
	entryDataOffset = 0x800
)

// EntryData is the register-exchange block the resume stub reads while still
// in real mode. It locates the long-mode entry to jump to and the capture
// record the stub must fill with the suspended register state.
type EntryData struct {
	// ResumeEntry is the long-mode address the trampoline hands control to.
	ResumeEntry uint64
	// RegistersAddr locates the register capture record of the attempt.
	RegistersAddr uint64
}

// Bootstrap is the per-attempt ownership of the trampoline page. It is
// acquired at the start of a transition attempt and must be released exactly
// once on every exit path of that attempt.
type Bootstrap struct {
	allocator *Allocator
	entry     uint64
	data      *EntryData
	released  bool
}

// Entry returns the physical address of the trampoline entry point. This is
// the address armed as the firmware waking vector.
func (b *Bootstrap) Entry() uint64 {
	return b.entry
}

// EntryData returns the register-exchange block of this attempt.
func (b *Bootstrap) EntryData() *EntryData {
	return b.data
}

// SetRegistersAddr records the location of the attempt's register capture
// record in the exchange block.
func (b *Bootstrap) SetRegistersAddr(addr uint64) {
	b.data.RegistersAddr = addr
}

// Allocator hands out exclusive ownership of the trampoline page.
type Allocator struct {
	base uint64

	mu    sync.Mutex
	inUse bool
}

// NewAllocator returns an allocator for the trampoline page at the given
// physical base address. A zero base selects [DefaultBase].
func NewAllocator(base uint64) (*Allocator, error) {
	if base == 0 {
		base = DefaultBase
	}

	if base%pageSize != 0 || base+pageSize > realModeTop {
		return nil, fmt.Errorf("%w: %#x", ErrBaseInvalid, base)
	}

	return &Allocator{base: base}, nil
}

// Acquire takes exclusive ownership of the trampoline page and installs the
// given long-mode resume entry in the exchange block. The exchange block is
// otherwise zeroed so no state of a previous attempt leaks into this one.
func (a *Allocator) Acquire(resumeEntry uint64) (*Bootstrap, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.inUse {
		return nil, ErrBusy
	}

	a.inUse = true

	return &Bootstrap{
		allocator: a,
		entry:     a.base,
		data:      &EntryData{ResumeEntry: resumeEntry},
	}, nil
}

// Release returns the trampoline page. Releasing an already released
// bootstrap is a no-op, so the unwind path of a transition attempt may run
// unconditionally.
func (a *Allocator) Release(b *Bootstrap) {
	if b == nil || b.released {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	b.released = true
	b.data = nil
	a.inUse = false
}

// EntryDataAddr returns the physical address of the exchange block inside
// the trampoline page.
func (a *Allocator) EntryDataAddr() uint64 {
	return a.base + entryDataOffset
}

// Contains reports whether the given physical address lies within the
// trampoline page.
func (a *Allocator) Contains(addr uint64) bool {
	return addr >= a.base && addr < a.base+pageSize
}
