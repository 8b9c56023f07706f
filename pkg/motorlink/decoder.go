// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package motorlink

import (
	"errors"
	"fmt"
	"time"
)

// ErrCRCMismatch is wrapped by the decoder when a frame fails its checksum
var ErrCRCMismatch = errors.New("CRC mismatch")

// Decoder is the byte-at-a-time frame decoder state machine
type Decoder struct {
	state       int
	buffer      []byte
	bufferIndex int
	escapeNext  bool
	packet      *Packet
}

// NewDecoder creates a decoder waiting for a START byte
func NewDecoder() *Decoder {
	return &Decoder{
		state:  stateIdle,
		buffer: make([]byte, MaxFrameSize),
	}
}

// Reset drops any partial frame
func (d *Decoder) Reset() {
	d.state = stateIdle
	d.bufferIndex = 0
	d.escapeNext = false
	d.packet = nil
}

// DecodeByte feeds one wire byte to the decoder.
// It returns a packet when a frame completes, nil while a frame is in
// progress, and an error when a frame is rejected.
func (d *Decoder) DecodeByte(b byte) (*Packet, error) {
	// raw START and END are always framing; stuffing never emits them after ESC
	switch {
	case b == StartByte:
		d.Reset()
		d.state = stateLength
		return nil, nil
	case b == EndByte:
		return d.finish()
	case d.escapeNext:
		b ^= EscXor
		d.escapeNext = false
	case b == EscByte:
		d.escapeNext = true
		return nil, nil
	}

	switch d.state {
	case stateIdle:
		return nil, nil

	case stateLength:
		if b > MaxPayloadSize {
			d.Reset()
			return nil, fmt.Errorf("invalid length: %d (max %d)", b, MaxPayloadSize)
		}
		d.packet = &Packet{cborPayload: make([]byte, 0, b)}
		d.store(b)
		d.state = stateChannel
		return nil, nil

	case stateChannel:
		d.packet.channel = b
		d.store(b)
		if d.buffer[0] == 0 {
			d.state = stateCRC1
		} else {
			d.state = statePayload
		}
		return nil, nil

	case statePayload:
		d.packet.cborPayload = append(d.packet.cborPayload, b)
		d.store(b)
		if len(d.packet.cborPayload) >= int(d.buffer[0]) {
			d.state = stateCRC1
		}
		return nil, nil

	case stateCRC1:
		d.packet.crc = uint16(b) << 8
		d.state = stateCRC2
		return nil, nil

	case stateCRC2:
		d.packet.crc |= uint16(b)
		d.state = stateEnd
		return nil, nil

	case stateEnd:
		d.Reset()
		return nil, fmt.Errorf("missing END byte")

	default:
		d.Reset()
		return nil, fmt.Errorf("invalid state: %d", d.state)
	}
}

// finish completes the frame on an END byte
func (d *Decoder) finish() (*Packet, error) {
	if d.state != stateEnd || d.escapeNext {
		state := d.state
		d.Reset()
		return nil, fmt.Errorf("unexpected END byte in state %d", state)
	}
	packet := d.packet
	calculated := CalculateCRC(d.buffer[:d.bufferIndex])
	d.Reset()
	if packet.crc != calculated {
		return nil, fmt.Errorf("%w: expected 0x%04X, got 0x%04X", ErrCRCMismatch, calculated, packet.crc)
	}
	packet.timestamp = time.Now()
	return packet, nil
}

func (d *Decoder) store(b byte) {
	d.buffer[d.bufferIndex] = b
	d.bufferIndex++
}

// DecodeFrame decodes exactly one complete frame
func DecodeFrame(frame []byte) (*Packet, error) {
	d := NewDecoder()
	for i, b := range frame {
		p, err := d.DecodeByte(b)
		if err != nil {
			return nil, err
		}
		if p != nil {
			if i != len(frame)-1 {
				return nil, fmt.Errorf("trailing bytes after frame: %d", len(frame)-1-i)
			}
			return p, nil
		}
	}
	return nil, fmt.Errorf("incomplete frame")
}
