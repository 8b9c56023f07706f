// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package motorlink implements the framed UART protocol spoken between the
// rover controller and its motor shield bridge.
//
// Wire format:
//
//	0x7E | stuffed(length | channel | CBOR[msg_type, payload_map] | CRC16) | 0x7F
//
// The CRC is CRC-16-CCITT over length, channel and payload, sent big-endian.
// START, END and ESC bytes inside a frame are escaped as ESC, byte^0x20.
package motorlink

// Protocol framing bytes
const (
	StartByte = 0x7E
	EndByte   = 0x7F
	EscByte   = 0x7D
	EscXor    = 0x20
)

// Frame size limits
const (
	MaxPayloadSize = 32
	MaxFrameSize   = 2 + MaxPayloadSize + 2 // length + channel + payload + CRC
)

// CRC-16-CCITT configuration
const (
	crcPolynomial = 0x1021
	crcInitial    = 0xFFFF
)

// Channel addressing
const (
	ChannelAll = 0x00 // Every motor on the shield
	MinChannel = 1
	MaxChannel = 4
)

// Message types (controller → bridge)
const (
	MsgSetSpeed   = 0x10
	MsgRun        = 0x11
	MsgReleaseAll = 0x12
)

// Message types (bridge → controller)
const (
	MsgAck   = 0x20
	MsgError = 0xE0
)

// Payload keys
const (
	KeySpeed     = 0
	KeyDirection = 0
	KeyErrorCode = 0
)

// RunMode is the motor shield drive mode carried by RUN
type RunMode uint8

// Run mode values, numbered as on the shield firmware
const (
	RunForward  RunMode = 1
	RunBackward RunMode = 2
	RunBrake    RunMode = 3
	RunRelease  RunMode = 4
)

// Decoder states (internal)
const (
	stateIdle = iota
	stateLength
	stateChannel
	statePayload
	stateCRC1
	stateCRC2
	stateEnd
)
