// SPDX-FileCopyrightText: 2025 The powerctl authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package firmware models the ACPI tables the power transition core touches,
// most notably the FACS and its firmware waking vector.
package firmware
