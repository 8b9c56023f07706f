// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"io"
	"log"
	"sync/atomic"

	"github.com/Thermoquad/rover/pkg/motorlink"
	"github.com/Thermoquad/rover/pkg/rover"
)

// vehicle holds the radio and motor hardware behind a controller
type vehicle struct {
	radio     *rover.Mailbox
	radioErr  error
	radioInfo string
	radioConn Connection

	right     rover.Motor
	left      rover.Motor
	motorInfo string
	link      *motorlink.Link
	motorConn Connection

	closing atomic.Bool
}

// openVehicle opens the motor bridge and the radio bridge.
// A radio failure is recorded, not returned: the controller reports it and
// keeps running. A motor bridge failure is returned.
// The radio bridge may prompt for a password on stdin, so call this before
// the console takes stdin over.
func openVehicle() (*vehicle, error) {
	v := &vehicle{}

	if motorPort != "" {
		conn, err := OpenSerialConnection(motorPort, motorBaud)
		if err != nil {
			return nil, err
		}
		v.motorConn = conn
		v.link = motorlink.NewLink(conn)
		v.right = v.link.Motor(rover.RightMotorChannel)
		v.left = v.link.Motor(rover.LeftMotorChannel)
		v.motorInfo = conn.String()
	} else {
		v.right = rover.NewSimMotor("right")
		v.left = rover.NewSimMotor("left")
		v.motorInfo = "simulated"
	}

	conn, err := OpenRadioConnection()
	if err != nil {
		v.radioErr = err
		v.radioInfo = "unavailable"
		return v, nil
	}
	v.radioConn = conn
	v.radioInfo = conn.String()
	v.radio = rover.NewMailbox()
	return v, nil
}

// listen starts copying radio bytes into the mailbox. Link loss is
// reported on diag.
func (v *vehicle) listen(diag io.Writer) {
	if v.radio == nil {
		return
	}
	logger := log.New(diag, "", 0)
	go func() {
		err := v.radio.Pump(v.radioConn)
		if !v.closing.Load() {
			logger.Printf("radio link lost: %v", err)
		}
	}()
}

// receiver returns the radio as a rover.Receiver, nil when it failed to open
func (v *vehicle) receiver() rover.Receiver {
	if v.radio == nil {
		return nil
	}
	return v.radio
}

// radioSummary reports transmissions the controller never saw
func (v *vehicle) radioSummary() string {
	if v.radio == nil {
		return "no radio"
	}
	s := fmt.Sprintf("%d overwritten", v.radio.Dropped())
	if rs, ok := v.radioConn.(*radioSocket); ok {
		s += fmt.Sprintf(", %d truncated", rs.Truncated())
	}
	return s
}

// Close releases every motor and closes both bridges
func (v *vehicle) Close() error {
	v.closing.Store(true)

	var firstErr error
	if v.link != nil {
		if err := v.link.ReleaseAll(); err != nil {
			firstErr = err
		}
	}
	if v.motorConn != nil {
		if err := v.motorConn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if v.radioConn != nil {
		if err := v.radioConn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
