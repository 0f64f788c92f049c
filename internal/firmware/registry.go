// SPDX-FileCopyrightText: 2025 The powerctl authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package firmware

import "fmt"

// Registry holds the firmware tables discovered on a platform, keyed by
// signature. Multiple tables may share a signature; they are numbered by
// instance in discovery order, starting at 1.
type Registry struct {
	tables map[string][][]byte
}

// NewRegistry returns an empty table registry.
func NewRegistry() *Registry {
	return &Registry{
		tables: map[string][][]byte{},
	}
}

// Add registers the raw memory of a table under the given signature.
func (r *Registry) Add(signature string, data []byte) {
	r.tables[signature] = append(r.tables[signature], data)
}

// Find returns the raw memory of the numbered instance of the table with
// the given signature.
func (r *Registry) Find(signature string, instance int) ([]byte, error) {
	tables := r.tables[signature]
	if instance < 1 || instance > len(tables) {
		return nil, fmt.Errorf("%w: %s instance %d",
			ErrTableNotFound, signature, instance)
	}

	return tables[instance-1], nil
}
