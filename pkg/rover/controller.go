// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rover

import (
	"context"
	"io"
	"log"
	"time"
)

// Config wires a Controller to its hardware
type Config struct {
	Radio    Receiver // nil when the radio could not be initialized
	RadioErr error    // cause of the radio init failure, reported at setup
	Console  Console  // nil disables console polling
	Right    Motor
	Left     Motor

	// Output receives diagnostic lines. Defaults to io.Discard.
	Output io.Writer

	// PollInterval and LoopDelay default to the package constants when zero
	PollInterval time.Duration
	LoopDelay    time.Duration

	// SerialControl lets a valid console character replace the current
	// command. Off by default: console input is only echoed.
	SerialControl bool

	// Now defaults to time.Now
	Now func() time.Time

	// Observer, if set, is called by Run after every iteration
	Observer func(Status)
}

// Status is a snapshot taken at the end of an iteration
type Status struct {
	Iteration  uint64
	Current    Command
	LastSerial Command
	Polled     bool // wireless receive attempted this iteration
	Right      MotorState
	Left       MotorState
}

// Controller runs the command arbitration and motor drive loop.
// All state is owned by the goroutine calling Setup, Step or Run.
type Controller struct {
	radio    Receiver
	radioErr error
	console  Console
	right    Motor
	left     Motor
	log      *log.Logger

	pollInterval  time.Duration
	loopDelay     time.Duration
	serialControl bool
	now           func() time.Time
	observer      func(Status)

	current    Command
	lastPoll   time.Time
	lastSerial Command
	iteration  uint64
	rightState MotorState
	leftState  MotorState
	motorErrs  [2]string
}

// NewController creates a controller. Setup must be called before Step.
func NewController(cfg Config) *Controller {
	out := cfg.Output
	if out == nil {
		out = io.Discard
	}
	c := &Controller{
		radio:         cfg.Radio,
		radioErr:      cfg.RadioErr,
		console:       cfg.Console,
		right:         cfg.Right,
		left:          cfg.Left,
		log:           log.New(out, "", 0),
		pollInterval:  cfg.PollInterval,
		loopDelay:     cfg.LoopDelay,
		serialControl: cfg.SerialControl,
		now:           cfg.Now,
		observer:      cfg.Observer,
		current:       CommandStop,
		lastSerial:    CommandStop,
	}
	if c.pollInterval <= 0 {
		c.pollInterval = PollInterval
	}
	if c.loopDelay <= 0 {
		c.loopDelay = LoopDelay
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.right == nil {
		c.right = NewSimMotor("right")
	}
	if c.left == nil {
		c.left = NewSimMotor("left")
	}
	return c
}

// Setup reports the radio state, prints the command legend, applies the
// fixed motor speeds and releases both motors.
func (c *Controller) Setup() {
	if c.radio == nil || c.radioErr != nil {
		if c.radioErr != nil {
			c.log.Printf("%s: %v", msgRadioInit, c.radioErr)
		} else {
			c.log.Print(msgRadioInit)
		}
	}

	for _, line := range Legend() {
		c.log.Print(line)
	}

	c.rightState.Speed = RightMotorSpeed
	c.leftState.Speed = LeftMotorSpeed
	c.checkMotor(0, "right", c.right.SetSpeed(RightMotorSpeed))
	c.checkMotor(1, "left", c.left.SetSpeed(LeftMotorSpeed))

	c.current = CommandStop
	c.lastSerial = CommandStop
	c.iteration = 0
	c.release()
	c.lastPoll = c.now()
}

// Current returns the current command
func (c *Controller) Current() Command {
	return c.current
}

// PollWireless attempts one non-blocking radio receive.
// It reports false when nothing was received. A byte outside 1-5 yields
// CommandStop.
func (c *Controller) PollWireless() (Command, bool) {
	if c.radio == nil {
		return CommandInvalid, false
	}
	b, ok := c.radio.Recv()
	if !ok {
		return CommandInvalid, false
	}
	cmd := ParseCommandByte(b)
	if !cmd.Valid() {
		c.log.Printf("Received: %d (Invalid) - stopping", b)
		return CommandStop, true
	}
	c.log.Printf("Received: %s", cmd.Label())
	return cmd, true
}

// PollSerial reads at most one console character.
// It yields CommandStop when no input is waiting or the input is invalid;
// invalid input also flushes everything buffered.
func (c *Controller) PollSerial() Command {
	cmd, _ := c.pollSerial()
	return cmd
}

// pollSerial also reports whether a valid character was consumed
func (c *Controller) pollSerial() (Command, bool) {
	if c.console == nil || c.console.Buffered() == 0 {
		return CommandStop, false
	}
	ch, err := c.console.ReadByte()
	if err != nil {
		return CommandStop, false
	}
	cmd := ParseConsoleChar(ch)
	if !cmd.Valid() {
		c.console.Discard()
		c.log.Print(msgInvalidInput)
		return CommandStop, false
	}
	c.log.Printf("Serial Command: %s", cmd.Label())
	return cmd, true
}

// Execute drives both motors from the current command
func (c *Controller) Execute() {
	right, left, ok := DirectionsFor(c.current)
	if !ok {
		c.log.Print(msgInvalidCommand)
	}
	c.drive(right, left)
}

// Step runs one loop iteration and returns the resulting status
func (c *Controller) Step() Status {
	c.iteration++

	polled := false
	if c.now().Sub(c.lastPoll) >= c.pollInterval {
		polled = true
		if cmd, ok := c.PollWireless(); ok {
			c.accept(cmd)
		}
		c.lastPoll = c.now()
	}

	serial, received := c.pollSerial()
	c.lastSerial = serial
	if c.serialControl && received {
		c.accept(serial)
	}

	c.Execute()

	return Status{
		Iteration:  c.iteration,
		Current:    c.current,
		LastSerial: c.lastSerial,
		Polled:     polled,
		Right:      c.rightState,
		Left:       c.leftState,
	}
}

// Run calls Setup and then steps until ctx is cancelled, pausing LoopDelay
// between iterations. Both motors are released on return.
func (c *Controller) Run(ctx context.Context) error {
	c.Setup()
	defer c.release()

	timer := time.NewTimer(c.loopDelay)
	defer timer.Stop()

	for {
		st := c.Step()
		if c.observer != nil {
			c.observer(st)
		}

		timer.Reset(c.loopDelay)
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}
	}
}

func (c *Controller) accept(cmd Command) {
	if cmd == c.current {
		return
	}
	c.current = cmd
	c.log.Printf("New command: %d", uint8(cmd))
}

func (c *Controller) release() {
	c.drive(DirectionReleased, DirectionReleased)
}

func (c *Controller) drive(right, left Direction) {
	c.rightState.Direction = right
	c.leftState.Direction = left
	c.checkMotor(0, "right", c.right.Run(right))
	c.checkMotor(1, "left", c.left.Run(left))
}

// checkMotor logs motor errors once per distinct failure so a dead driver
// does not flood the console at loop rate
func (c *Controller) checkMotor(idx int, name string, err error) {
	if err == nil {
		if c.motorErrs[idx] != "" {
			c.log.Printf("%s motor recovered", name)
			c.motorErrs[idx] = ""
		}
		return
	}
	if msg := err.Error(); msg != c.motorErrs[idx] {
		c.log.Printf("%s motor: %v", name, err)
		c.motorErrs[idx] = msg
	}
}
