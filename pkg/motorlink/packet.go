// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package motorlink

import "time"

// Packet is one motor-link message
type Packet struct {
	channel     uint8
	cborPayload []byte
	crc         uint16
	timestamp   time.Time

	msgType    uint8
	payloadMap map[int]interface{}
	parsed     bool
	parseErr   error
}

// NewPacket creates a packet from message type and payload map
func NewPacket(channel uint8, msgType uint8, payload map[int]interface{}) *Packet {
	return &Packet{
		channel:    channel,
		msgType:    msgType,
		payloadMap: payload,
		parsed:     true,
		timestamp:  time.Now(),
	}
}

// NewSetSpeed creates a SET_SPEED packet
func NewSetSpeed(channel uint8, speed uint8) *Packet {
	return NewPacket(channel, MsgSetSpeed, map[int]interface{}{
		KeySpeed: uint64(speed),
	})
}

// NewRun creates a RUN packet
func NewRun(channel uint8, mode RunMode) *Packet {
	return NewPacket(channel, MsgRun, map[int]interface{}{
		KeyDirection: uint64(mode),
	})
}

// NewReleaseAll creates a RELEASE_ALL packet addressed to every channel
func NewReleaseAll() *Packet {
	return NewPacket(ChannelAll, MsgReleaseAll, nil)
}

func (p *Packet) ensureParsed() {
	if p.parsed {
		return
	}
	p.parsed = true
	if len(p.cborPayload) == 0 {
		return
	}
	p.msgType, p.payloadMap, p.parseErr = ParseCBORMessage(p.cborPayload)
}

// Channel returns the motor channel (ChannelAll for shield-wide messages)
func (p *Packet) Channel() uint8 {
	return p.channel
}

// Type returns the message type
func (p *Packet) Type() uint8 {
	p.ensureParsed()
	return p.msgType
}

// Payload returns the raw CBOR bytes of a decoded packet
func (p *Packet) Payload() []byte {
	return p.cborPayload
}

// PayloadMap returns the payload map (nil for empty payloads)
func (p *Packet) PayloadMap() map[int]interface{} {
	p.ensureParsed()
	return p.payloadMap
}

// ParseError returns any error from parsing the CBOR payload
func (p *Packet) ParseError() error {
	p.ensureParsed()
	return p.parseErr
}

// CRC returns the received CRC of a decoded packet
func (p *Packet) CRC() uint16 {
	return p.crc
}

// Timestamp returns when the packet was built or decoded
func (p *Packet) Timestamp() time.Time {
	return p.timestamp
}
