// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rover

import (
	"errors"
	"io"
	"sync"
)

// ErrNoInput is returned by ConsoleBuffer.ReadByte when nothing is buffered
var ErrNoInput = errors.New("no console input available")

// Receiver is a non-blocking wireless command source
type Receiver interface {
	// Recv returns the pending payload byte, if any, without blocking
	Recv() (byte, bool)
}

// Console is the non-blocking input side of the serial console
type Console interface {
	// Buffered returns the number of bytes waiting to be read
	Buffered() int
	// ReadByte consumes one waiting byte
	ReadByte() (byte, error)
	// Discard drops all waiting input and returns how many bytes were dropped
	Discard() int
}

// Mailbox holds the most recently received radio byte.
// A new byte replaces one that has not been collected yet, so the loop always
// sees the latest transmission. Safe for concurrent use.
type Mailbox struct {
	mu      sync.Mutex
	pending byte
	full    bool
	dropped int
}

// NewMailbox creates an empty mailbox
func NewMailbox() *Mailbox {
	return &Mailbox{}
}

// Deliver stores each byte of data in turn, keeping only the last one
func (m *Mailbox) Deliver(data []byte) {
	if len(data) == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.full {
		m.dropped++
	}
	m.dropped += len(data) - 1
	m.pending = data[len(data)-1]
	m.full = true
}

// Recv implements Receiver
func (m *Mailbox) Recv() (byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.full {
		return 0, false
	}
	m.full = false
	return m.pending, true
}

// Dropped returns how many bytes were overwritten before being collected
func (m *Mailbox) Dropped() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dropped
}

// Pump copies bytes from r into the mailbox until r fails.
// It blocks; run it in its own goroutine.
func (m *Mailbox) Pump(r io.Reader) error {
	return pump(r, m.Deliver)
}

// ConsoleBuffer is a FIFO of console input bytes. Safe for concurrent use.
type ConsoleBuffer struct {
	mu  sync.Mutex
	buf []byte
}

// NewConsoleBuffer creates an empty console buffer
func NewConsoleBuffer() *ConsoleBuffer {
	return &ConsoleBuffer{buf: make([]byte, 0, 64)}
}

// Feed appends input bytes
func (c *ConsoleBuffer) Feed(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buf = append(c.buf, data...)
}

// Buffered implements Console
func (c *ConsoleBuffer) Buffered() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buf)
}

// ReadByte implements Console
func (c *ConsoleBuffer) ReadByte() (byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.buf) == 0 {
		return 0, ErrNoInput
	}
	b := c.buf[0]
	c.buf = c.buf[1:]
	return b, nil
}

// Discard implements Console
func (c *ConsoleBuffer) Discard() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.buf)
	c.buf = c.buf[:0]
	return n
}

// Pump copies bytes from r into the buffer until r fails.
// It blocks; run it in its own goroutine.
func (c *ConsoleBuffer) Pump(r io.Reader) error {
	return pump(r, c.Feed)
}

func pump(r io.Reader, deliver func([]byte)) error {
	buf := make([]byte, 128)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			deliver(buf[:n])
		}
		if err != nil {
			return err
		}
	}
}
