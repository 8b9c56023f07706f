// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package motorlink

import (
	"fmt"
	"io"
	"sync"

	"github.com/Thermoquad/rover/pkg/rover"
)

// Link sends motor-link frames over a shared writer, typically a UART.
// Safe for concurrent use.
type Link struct {
	mu sync.Mutex
	w  io.Writer
}

// NewLink creates a link writing to w
func NewLink(w io.Writer) *Link {
	return &Link{w: w}
}

// Send encodes and writes one packet
func (l *Link) Send(p *Packet) error {
	frame, err := EncodePacket(p)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.w.Write(frame); err != nil {
		return fmt.Errorf("motor link write failed: %w", err)
	}
	return nil
}

// ReleaseAll stops every motor on the shield
func (l *Link) ReleaseAll() error {
	return l.Send(NewReleaseAll())
}

// Motor returns a rover.Motor bound to a shield channel
func (l *Link) Motor(channel uint8) *Motor {
	return &Motor{link: l, channel: channel}
}

// Motor drives one shield channel through a Link
type Motor struct {
	link    *Link
	channel uint8
}

var _ rover.Motor = (*Motor)(nil)

// SetSpeed implements rover.Motor
func (m *Motor) SetSpeed(speed uint8) error {
	return m.link.Send(NewSetSpeed(m.channel, speed))
}

// Run implements rover.Motor
func (m *Motor) Run(dir rover.Direction) error {
	mode, err := ModeFor(dir)
	if err != nil {
		return err
	}
	return m.link.Send(NewRun(m.channel, mode))
}

// ModeFor maps a rover direction to the shield run mode
func ModeFor(dir rover.Direction) (RunMode, error) {
	switch dir {
	case rover.DirectionForward:
		return RunForward, nil
	case rover.DirectionBackward:
		return RunBackward, nil
	case rover.DirectionReleased:
		return RunRelease, nil
	default:
		return 0, fmt.Errorf("unsupported direction: %v", dir)
	}
}
