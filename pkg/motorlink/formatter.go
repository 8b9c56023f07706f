// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package motorlink

import (
	"fmt"
	"strings"
)

// FormatPacket formats a packet as a human-readable log entry
func FormatPacket(p *Packet) string {
	timestamp := p.timestamp.Format("15:04:05.000")
	result := fmt.Sprintf("[%s] %s (0x%02X) %s\n",
		timestamp, FormatMessageType(p.Type()), p.Type(), FormatChannel(p.channel))

	if err := p.ParseError(); err != nil {
		return result + fmt.Sprintf("  Parse error: %v\n", err)
	}
	return result + formatPayload(p.Type(), p.PayloadMap())
}

// FormatMessageType returns the name of a message type
func FormatMessageType(msgType uint8) string {
	switch msgType {
	case MsgSetSpeed:
		return "SET_SPEED"
	case MsgRun:
		return "RUN"
	case MsgReleaseAll:
		return "RELEASE_ALL"
	case MsgAck:
		return "ACK"
	case MsgError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// FormatChannel returns "M1".."M4" or "ALL"
func FormatChannel(channel uint8) string {
	if channel == ChannelAll {
		return "ALL"
	}
	return fmt.Sprintf("M%d", channel)
}

// String returns the run mode name
func (m RunMode) String() string {
	switch m {
	case RunForward:
		return "FORWARD"
	case RunBackward:
		return "BACKWARD"
	case RunBrake:
		return "BRAKE"
	case RunRelease:
		return "RELEASE"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(m))
	}
}

func formatPayload(msgType uint8, payload map[int]interface{}) string {
	switch msgType {
	case MsgSetSpeed:
		if speed, ok := GetMapUint(payload, KeySpeed); ok {
			return fmt.Sprintf("  Speed: %d (%.0f%%)\n", speed, float64(speed)*100/255)
		}
	case MsgRun:
		if mode, ok := GetMapUint(payload, KeyDirection); ok {
			return fmt.Sprintf("  Mode: %s\n", RunMode(mode))
		}
	case MsgReleaseAll, MsgAck:
		if len(payload) == 0 {
			return "  (no payload)\n"
		}
	case MsgError:
		if code, ok := GetMapUint(payload, KeyErrorCode); ok {
			return fmt.Sprintf("  Error code: 0x%02X\n", code)
		}
	}

	if len(payload) == 0 {
		return "  (no payload)\n"
	}
	var b strings.Builder
	b.WriteString("  Payload:")
	for k := 0; k < 8; k++ {
		if v, ok := payload[k]; ok {
			fmt.Fprintf(&b, " %d=%v", k, v)
		}
	}
	b.WriteString("\n")
	return b.String()
}
