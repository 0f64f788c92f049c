// SPDX-FileCopyrightText: 2025 The powerctl authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package power orchestrates ACPI S-state transitions. It validates power
// control requests, quiesces into the firmware sleep call on a dedicated
// maximum-priority thread for resumable states, and guarantees that the
// bootstrap trampoline and the firmware waking vector are torn down exactly
// once on every exit path of an attempt.
//
// The hardware itself is reached through small collaborator interfaces
// ([Firmware], [Arch], [Platform], [Topology]) so the same orchestration
// runs against the simulated machine and the Linux host backend.
package power
