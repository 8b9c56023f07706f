// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package rover implements the direction controller of a two-motor RC vehicle.
//
// A Controller merges a wireless command source and a serial console into a
// single current command and drives the right and left motors from it on
// every loop iteration. Radio, console and motor hardware are reached through
// the Receiver, Console and Motor interfaces.
package rover

import "time"

// Loop timing
const (
	PollInterval = 2000 * time.Millisecond // Minimum spacing between wireless receives
	LoopDelay    = 10 * time.Millisecond   // Pause after every iteration
)

// Fixed motor speeds, applied once at setup.
// The left side runs slower to compensate for the chassis pulling left.
const (
	RightMotorSpeed uint8 = 255 // 100%
	LeftMotorSpeed  uint8 = 102 // 40%
)

// Motor shield channels
const (
	RightMotorChannel uint8 = 1 // M1
	LeftMotorChannel  uint8 = 3 // M3
)

// Diagnostic messages
const (
	msgInvalidInput   = "Invalid input! Use 1-5"
	msgInvalidCommand = "Invalid command! Use 1-5"
	msgRadioInit      = "init failed"
)
