// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rover

import "fmt"

// Direction is the drive state of a single motor
type Direction uint8

// Direction values
const (
	DirectionReleased Direction = iota
	DirectionForward
	DirectionBackward
)

// String returns the direction name
func (d Direction) String() string {
	switch d {
	case DirectionReleased:
		return "Released"
	case DirectionForward:
		return "Forward"
	case DirectionBackward:
		return "Backward"
	default:
		return fmt.Sprintf("Direction(%d)", uint8(d))
	}
}

// Motor is one DC motor channel of the motor driver
type Motor interface {
	SetSpeed(speed uint8) error
	Run(dir Direction) error
}

// MotorState is the last direction and speed issued to a motor
type MotorState struct {
	Direction Direction
	Speed     uint8
}

// String formats the state as "Forward @ 255"
func (s MotorState) String() string {
	return fmt.Sprintf("%s @ %d", s.Direction, s.Speed)
}

// SimMotor is an in-memory Motor used when no motor driver is attached.
// It is not safe for concurrent use.
type SimMotor struct {
	Name  string
	state MotorState
	runs  int
}

// NewSimMotor creates a released simulated motor
func NewSimMotor(name string) *SimMotor {
	return &SimMotor{Name: name}
}

// SetSpeed records the speed
func (m *SimMotor) SetSpeed(speed uint8) error {
	m.state.Speed = speed
	return nil
}

// Run records the direction
func (m *SimMotor) Run(dir Direction) error {
	m.state.Direction = dir
	m.runs++
	return nil
}

// State returns the last issued state
func (m *SimMotor) State() MotorState {
	return m.state
}

// Runs returns how many times Run was called
func (m *SimMotor) Runs() int {
	return m.runs
}
