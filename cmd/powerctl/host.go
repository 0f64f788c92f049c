// SPDX-FileCopyrightText: 2025 The powerctl authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"log/slog"

	"github.com/tebuk/powerctl/internal/hostpower"
	"github.com/tebuk/powerctl/internal/power"
)

func newHostController() (*power.Controller, error) {
	backend := hostpower.NewBackend(slog.Default())

	return backend.Controller()
}
