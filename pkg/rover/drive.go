// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rover

// DirectionsFor returns the right and left motor directions for a command.
// ok is false for anything that is not a valid command; both motors are then
// released.
func DirectionsFor(c Command) (right, left Direction, ok bool) {
	switch c {
	case CommandForward:
		return DirectionForward, DirectionForward, true
	case CommandBackward:
		return DirectionBackward, DirectionBackward, true
	case CommandLeft:
		return DirectionForward, DirectionBackward, true
	case CommandRight:
		return DirectionBackward, DirectionForward, true
	case CommandStop:
		return DirectionReleased, DirectionReleased, true
	default:
		return DirectionReleased, DirectionReleased, false
	}
}
