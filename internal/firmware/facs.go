// SPDX-FileCopyrightText: 2025 The powerctl authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package firmware

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// SignatureFACS identifies the Firmware ACPI Control Structure.
const SignatureFACS = "FACS"

// FACSLength is the size of the FACS since ACPI 2.0.
const FACSLength = 64

// FACS flag bits.
const (
	// FACSFlagS4BIOS indicates S4BIOS_REQ support.
	FACSFlagS4BIOS uint32 = 1 << 0
	// FACSFlag64BitWakeSupported indicates the platform firmware can take a
	// protected mode waking vector from the 64-bit field.
	FACSFlag64BitWakeSupported uint32 = 1 << 1
)

// FACS is the Firmware ACPI Control Structure. It lives in firmware-visible
// memory and, unlike other ACPI tables, carries no standard header and no
// checksum. The waking vector fields tell the platform firmware where to
// jump when resuming from sleep.
type FACS struct {
	Signature             [4]byte
	Length                uint32
	HardwareSignature     uint32
	FirmwareWakingVector  uint32
	GlobalLock            uint32
	Flags                 uint32
	XFirmwareWakingVector uint64
	Version               uint8
	_                     [3]byte
	OspmFlags             uint32
	_                     [24]byte
}

// NewFACS returns a FACS of the given version with both waking vectors
// cleared.
func NewFACS(version uint8) *FACS {
	facs := &FACS{
		Length:  FACSLength,
		Version: version,
	}
	copy(facs.Signature[:], SignatureFACS)

	return facs
}

// ParseFACS decodes a FACS from its raw table memory.
func ParseFACS(data []byte) (*FACS, error) {
	if len(data) < FACSLength {
		return nil, fmt.Errorf("%w: FACS too short: %d bytes",
			ErrTableInvalid, len(data))
	}

	facs := &FACS{}

	err := binary.Read(bytes.NewReader(data), binary.LittleEndian, facs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTableInvalid, err)
	}

	if string(facs.Signature[:]) != SignatureFACS {
		return nil, fmt.Errorf("%w: signature %q", ErrTableInvalid,
			facs.Signature)
	}

	return facs, nil
}

// Encode returns the raw table memory for the FACS.
func (f *FACS) Encode() []byte {
	var buf bytes.Buffer

	// Writing a fixed-size struct cannot fail.
	_ = binary.Write(&buf, binary.LittleEndian, f)

	return buf.Bytes()
}

// SetWakingVector points the firmware waking vector at the given physical
// addresses. The 32-bit vector selects the real-mode resume path; the 64-bit
// vector is only honored by firmware for FACS version 1 and later and stays
// cleared when the caller wants the real-mode path.
func (f *FACS) SetWakingVector(addr32 uint32, addr64 uint64) {
	f.FirmwareWakingVector = addr32

	if f.Version >= 1 {
		f.XFirmwareWakingVector = addr64
	}
}

// ClearWakingVector resets both waking vectors to the null vector. Safe to
// call regardless of whether a vector was ever set.
func (f *FACS) ClearWakingVector() {
	f.FirmwareWakingVector = 0

	if f.Version >= 1 {
		f.XFirmwareWakingVector = 0
	}
}

// WakingVectorArmed reports whether any waking vector is live.
func (f *FACS) WakingVectorArmed() bool {
	return f.FirmwareWakingVector != 0 || f.XFirmwareWakingVector != 0
}
