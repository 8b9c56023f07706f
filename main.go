// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// Rover - RC vehicle direction controller
//
// Receives single-byte drive commands over a wireless bridge and drives the
// right and left motors of a two-motor vehicle.

package main

import (
	"os"

	"github.com/Thermoquad/rover/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
