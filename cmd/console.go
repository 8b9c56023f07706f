// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/Thermoquad/rover/pkg/rover"
	"golang.org/x/term"
)

const (
	keyCtrlC = 0x03
	keyCtrlD = 0x04
	keyEsc   = 0x1B
)

// console is the serial console: input feeds a rover.ConsoleBuffer and
// diagnostics are written to out
type console struct {
	buf     *rover.ConsoleBuffer
	out     io.Writer
	info    string
	restore func()
	conn    Connection
}

// openConsole attaches the console to --console-port or to stdin.
// A terminal stdin is switched to raw mode so single key presses arrive
// without Enter; Ctrl+C and Ctrl+D then call interrupt.
func openConsole(interrupt func()) (*console, error) {
	c := &console{buf: rover.NewConsoleBuffer()}

	if consolePort != "" {
		conn, err := OpenSerialConnection(consolePort, consoleBaud)
		if err != nil {
			return nil, err
		}
		c.conn = conn
		c.out = conn
		c.info = conn.String()
		go c.buf.Pump(conn)
		return c, nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		c.out = os.Stdout
		c.info = "stdin"
		go c.buf.Pump(os.Stdin)
		return c, nil
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("failed to set terminal raw mode: %w", err)
	}
	c.restore = func() { term.Restore(fd, oldState) }
	c.out = &crlfWriter{w: os.Stdout}
	c.info = "terminal (raw)"
	go c.buf.Pump(&interruptReader{r: os.Stdin, interrupt: interrupt})
	return c, nil
}

// Close restores the terminal or closes the console port
func (c *console) Close() error {
	if c.restore != nil {
		c.restore()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// crlfWriter turns LF into CRLF for a terminal in raw mode
type crlfWriter struct {
	w io.Writer
}

func (c *crlfWriter) Write(p []byte) (int, error) {
	if _, err := c.w.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))); err != nil {
		return 0, err
	}
	return len(p), nil
}

// interruptReader strips Ctrl+C and Ctrl+D from raw terminal input and
// calls interrupt when it sees one
type interruptReader struct {
	r         io.Reader
	interrupt func()
}

func (i *interruptReader) Read(p []byte) (int, error) {
	n, err := i.r.Read(p)
	out := p[:0]
	for _, b := range p[:n] {
		if b == keyCtrlC || b == keyCtrlD {
			if i.interrupt != nil {
				i.interrupt()
			}
			continue
		}
		out = append(out, b)
	}
	return len(out), err
}
