// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package motorlink

import "fmt"

// AnomalyType classifies a validation failure
type AnomalyType int

const (
	AnomalyBadChannel AnomalyType = iota
	AnomalyMissingField
	AnomalyInvalidValue
	AnomalyParseError
)

// ValidationError describes one problem found in a packet
type ValidationError struct {
	Type    AnomalyType
	Message string
}

// Error implements the error interface
func (v *ValidationError) Error() string {
	return v.Message
}

// ValidatePacket checks a decoded packet for protocol violations.
// It returns nil for a well-formed packet.
func ValidatePacket(p *Packet) []ValidationError {
	if err := p.ParseError(); err != nil {
		return []ValidationError{{Type: AnomalyParseError, Message: err.Error()}}
	}

	var errs []ValidationError
	switch p.Type() {
	case MsgSetSpeed, MsgRun:
		if p.channel < MinChannel || p.channel > MaxChannel {
			errs = append(errs, ValidationError{
				Type:    AnomalyBadChannel,
				Message: fmt.Sprintf("channel %d out of range %d-%d", p.channel, MinChannel, MaxChannel),
			})
		}
	case MsgAck, MsgError:
		if p.channel > MaxChannel {
			errs = append(errs, ValidationError{
				Type:    AnomalyBadChannel,
				Message: fmt.Sprintf("%s from channel %d", FormatMessageType(p.Type()), p.channel),
			})
		}
	case MsgReleaseAll:
		if p.channel != ChannelAll {
			errs = append(errs, ValidationError{
				Type:    AnomalyBadChannel,
				Message: fmt.Sprintf("RELEASE_ALL addressed to channel %d", p.channel),
			})
		}
	}

	switch p.Type() {
	case MsgSetSpeed:
		speed, ok := GetMapUint(p.PayloadMap(), KeySpeed)
		if !ok {
			errs = append(errs, ValidationError{Type: AnomalyMissingField, Message: "SET_SPEED missing speed"})
		} else if speed > 255 {
			errs = append(errs, ValidationError{
				Type:    AnomalyInvalidValue,
				Message: fmt.Sprintf("speed %d exceeds 255", speed),
			})
		}
	case MsgRun:
		mode, ok := GetMapUint(p.PayloadMap(), KeyDirection)
		if !ok {
			errs = append(errs, ValidationError{Type: AnomalyMissingField, Message: "RUN missing mode"})
		} else if mode < uint64(RunForward) || mode > uint64(RunRelease) {
			errs = append(errs, ValidationError{
				Type:    AnomalyInvalidValue,
				Message: fmt.Sprintf("run mode %d out of range", mode),
			})
		} else if RunMode(mode) == RunBrake {
			// the shield's H-bridge driver has no brake; BRAKE leaves the motor running
			errs = append(errs, ValidationError{
				Type:    AnomalyInvalidValue,
				Message: "BRAKE is not supported by the shield, use RELEASE",
			})
		}
	case MsgAck:
		if len(p.PayloadMap()) != 0 {
			errs = append(errs, ValidationError{
				Type:    AnomalyInvalidValue,
				Message: fmt.Sprintf("ACK carries %d unexpected fields", len(p.PayloadMap())),
			})
		}
	case MsgError:
		if _, ok := GetMapUint(p.PayloadMap(), KeyErrorCode); !ok {
			errs = append(errs, ValidationError{Type: AnomalyMissingField, Message: "ERROR missing code"})
		}
	}

	return errs
}
