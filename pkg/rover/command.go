// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rover

import (
	"fmt"
	"strconv"
	"strings"
)

// Command is a motion directive. The numeric value is the wire byte.
type Command uint8

// Command values
const (
	CommandInvalid  Command = 0x00
	CommandForward  Command = 0x01
	CommandBackward Command = 0x02
	CommandLeft     Command = 0x03
	CommandRight    Command = 0x04
	CommandStop     Command = 0x05
)

// Commands lists the valid commands in wire order
var Commands = []Command{
	CommandForward,
	CommandBackward,
	CommandLeft,
	CommandRight,
	CommandStop,
}

// String returns the command name
func (c Command) String() string {
	switch c {
	case CommandForward:
		return "Forward"
	case CommandBackward:
		return "Backward"
	case CommandLeft:
		return "Left"
	case CommandRight:
		return "Right"
	case CommandStop:
		return "Stop"
	default:
		return "Invalid"
	}
}

// Valid reports whether c is one of the five motion directives
func (c Command) Valid() bool {
	return c >= CommandForward && c <= CommandStop
}

// Label formats the command as "<code> (<name>)", e.g. "3 (Left)"
func (c Command) Label() string {
	return fmt.Sprintf("%d (%s)", uint8(c), c)
}

// ParseCommandByte maps a wireless payload byte to a command.
// Bytes outside 1-5 yield CommandInvalid.
func ParseCommandByte(b byte) Command {
	c := Command(b)
	if !c.Valid() {
		return CommandInvalid
	}
	return c
}

// ParseConsoleChar maps an ASCII console character to a command.
// Only '1' through '5' are accepted; anything else yields CommandInvalid.
func ParseConsoleChar(ch byte) Command {
	if ch < '1' || ch > '5' {
		return CommandInvalid
	}
	return Command(ch - '0')
}

// ParseCommandName accepts a wire code ("1"-"5") or a case-insensitive name
func ParseCommandName(s string) (Command, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseUint(s, 10, 8); err == nil {
		if c := ParseCommandByte(byte(n)); c.Valid() {
			return c, nil
		}
		return CommandInvalid, fmt.Errorf("command code out of range: %d (use 1-5)", n)
	}
	for _, c := range Commands {
		if strings.EqualFold(s, c.String()) {
			return c, nil
		}
	}
	return CommandInvalid, fmt.Errorf("unknown command: %q", s)
}

// Legend returns the startup banner printed on the console
func Legend() []string {
	lines := []string{"Motor Control Ready", "Commands:"}
	for _, c := range Commands {
		lines = append(lines, fmt.Sprintf("%d: %s", uint8(c), c))
	}
	return lines
}
