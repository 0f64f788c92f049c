// SPDX-FileCopyrightText: 2025 The powerctl authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package firmware

import "errors"

var (
	// ErrTableNotFound is returned if no table with the requested signature
	// and instance is present.
	ErrTableNotFound = errors.New("firmware table not found")

	// ErrTableInvalid is returned if a table blob does not match the
	// expected layout.
	ErrTableInvalid = errors.New("firmware table invalid")
)
