// SPDX-FileCopyrightText: 2025 The powerctl authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package hostcpu

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

// maskBits is the number of processing units a [CPUMask] can track.
const maskBits = 64

// CPUMask is a bitmask of logical processing units. Bit n is set if CPU n is
// part of the set.
type CPUMask uint64

// MaskOf returns a mask with exactly the given CPUs set.
func MaskOf(cpus ...int) CPUMask {
	var mask CPUMask
	for _, cpu := range cpus {
		mask |= 1 << cpu
	}

	return mask
}

// Contains reports whether the given CPU is part of the set.
func (m CPUMask) Contains(cpu int) bool {
	if cpu < 0 || cpu >= maskBits {
		return false
	}

	return m&(1<<cpu) != 0
}

// Count returns the number of CPUs in the set.
func (m CPUMask) Count() int {
	return bits.OnesCount64(uint64(m))
}

// String returns the set in kernel CPU list notation, like "0,2-3".
func (m CPUMask) String() string {
	var (
		parts []string
		cpu   int
	)

	for cpu < maskBits {
		if !m.Contains(cpu) {
			cpu++
			continue
		}

		first := cpu
		for cpu < maskBits && m.Contains(cpu) {
			cpu++
		}

		if last := cpu - 1; last > first {
			parts = append(parts, fmt.Sprintf("%d-%d", first, last))
		} else {
			parts = append(parts, strconv.Itoa(first))
		}
	}

	return strings.Join(parts, ",")
}

// ParseCPUList parses kernel CPU list notation as found in
// /sys/devices/system/cpu/online, like "0" or "0-3" or "0,2-3".
func ParseCPUList(list string) (CPUMask, error) {
	var mask CPUMask

	list = strings.TrimSpace(list)
	if list == "" {
		return 0, nil
	}

	for _, part := range strings.Split(list, ",") {
		first, last, found := strings.Cut(part, "-")
		if !found {
			last = first
		}

		firstNum, err := parseCPUNumber(first)
		if err != nil {
			return 0, err
		}

		lastNum, err := parseCPUNumber(last)
		if err != nil {
			return 0, err
		}

		if lastNum < firstNum {
			return 0, fmt.Errorf("%w: descending range %q",
				ErrCPUListInvalid, part)
		}

		for cpu := firstNum; cpu <= lastNum; cpu++ {
			mask |= 1 << cpu
		}
	}

	return mask, nil
}

func parseCPUNumber(s string) (int, error) {
	num, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrCPUListInvalid, err)
	}

	if num < 0 || num >= maskBits {
		return 0, fmt.Errorf("%w: %d", ErrCPUNumberInvalid, num)
	}

	return num, nil
}
