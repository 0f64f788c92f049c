// SPDX-FileCopyrightText: 2025 The powerctl authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package hostcpu

import (
	"fmt"
	"os"
)

// DefaultOnlinePath is the sysfs file listing the online CPUs.
const DefaultOnlinePath = "/sys/devices/system/cpu/online"

// BootCPU is the processing unit that must remain the sole online unit
// before a resumable power transition is allowed.
const BootCPU = 0

// SysfsTopology reports the online CPU set of the host from sysfs.
type SysfsTopology struct {
	// Path of the online CPU list file. Uses [DefaultOnlinePath] if empty.
	Path string
}

// OnlineMask returns the mask of currently online CPUs.
func (t SysfsTopology) OnlineMask() (CPUMask, error) {
	path := t.Path
	if path == "" {
		path = DefaultOnlinePath
	}

	list, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read online CPUs: %w", err)
	}

	mask, err := ParseCPUList(string(list))
	if err != nil {
		return 0, fmt.Errorf("online CPUs: %w", err)
	}

	return mask, nil
}
