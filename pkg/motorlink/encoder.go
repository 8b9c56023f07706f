// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package motorlink

import (
	"errors"
	"fmt"
)

// ErrPayloadTooLarge is returned when a CBOR payload exceeds MaxPayloadSize
var ErrPayloadTooLarge = errors.New("payload too large")

// EncodeFrame builds a complete wire frame, including framing and byte
// stuffing, ready for transmission.
func EncodeFrame(channel uint8, msgType uint8, payloadMap map[int]interface{}) ([]byte, error) {
	cborPayload, err := encodeCBORPayload(msgType, payloadMap)
	if err != nil {
		return nil, fmt.Errorf("failed to encode CBOR payload: %w", err)
	}
	if len(cborPayload) > MaxPayloadSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrPayloadTooLarge, len(cborPayload), MaxPayloadSize)
	}

	data := make([]byte, 0, 2+len(cborPayload)+2)
	data = append(data, uint8(len(cborPayload)), channel)
	data = append(data, cborPayload...)

	crc := CalculateCRC(data)
	data = append(data, byte(crc>>8), byte(crc&0xFF))

	stuffed := stuffBytes(data)
	frame := make([]byte, 0, len(stuffed)+2)
	frame = append(frame, StartByte)
	frame = append(frame, stuffed...)
	frame = append(frame, EndByte)
	return frame, nil
}

// EncodePacket encodes a packet to wire format
func EncodePacket(p *Packet) ([]byte, error) {
	return EncodeFrame(p.Channel(), p.Type(), p.PayloadMap())
}

// stuffBytes escapes START, END and ESC as ESC, byte^EscXor
func stuffBytes(data []byte) []byte {
	result := make([]byte, 0, len(data)*2)
	for _, b := range data {
		if b == StartByte || b == EndByte || b == EscByte {
			result = append(result, EscByte, b^EscXor)
		} else {
			result = append(result, b)
		}
	}
	return result
}

// UnstuffBytes reverses byte stuffing
func UnstuffBytes(data []byte) ([]byte, error) {
	result := make([]byte, 0, len(data))
	escapeNext := false
	for _, b := range data {
		switch {
		case escapeNext:
			result = append(result, b^EscXor)
			escapeNext = false
		case b == EscByte:
			escapeNext = true
		default:
			result = append(result, b)
		}
	}
	if escapeNext {
		return nil, fmt.Errorf("incomplete escape sequence at end of data")
	}
	return result, nil
}
