// SPDX-FileCopyrightText: 2025 The powerctl authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package hostcpu provides CPU topology queries and scheduling helpers for
// the processing units of the host machine.
package hostcpu
