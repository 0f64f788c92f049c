// SPDX-FileCopyrightText: 2025 The powerctl authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package hostcpu

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// MaxFIFOPriority is the highest SCHED_FIFO priority Linux accepts.
const MaxFIFOPriority = 99

// SetFIFOPriority puts the calling thread into the SCHED_FIFO class with the
// given priority. The caller must be locked to its OS thread. Requires
// CAP_SYS_NICE.
func SetFIFOPriority(priority uint32) error {
	attr := unix.SchedAttr{
		Size:     unix.SizeofSchedAttr,
		Policy:   unix.SCHED_FIFO,
		Priority: priority,
	}

	// Zero PID addresses the calling thread.
	if err := unix.SchedSetAttr(0, &attr, 0); err != nil {
		return fmt.Errorf("sched_setattr: %w", err)
	}

	return nil
}
