// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bytes"
	"io"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// openDiagnostics returns the writer all diagnostic lines go to: out, plus
// a rotating --log-file when one is configured
func openDiagnostics(out io.Writer) (io.Writer, func() error) {
	if logFile == "" {
		return out, func() error { return nil }
	}

	file := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}
	return io.MultiWriter(out, &stampWriter{w: file, now: time.Now}), file.Close
}

// stampWriter prefixes every line with a timestamp
type stampWriter struct {
	w   io.Writer
	now func() time.Time
}

func (s *stampWriter) Write(p []byte) (int, error) {
	var b bytes.Buffer
	stamp := s.now().Format("01/02/06 15:04:05.000 ")
	for _, line := range bytes.SplitAfter(p, []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		b.WriteString(stamp)
		b.Write(line)
	}
	if _, err := s.w.Write(b.Bytes()); err != nil {
		return 0, err
	}
	return len(p), nil
}

// eventLog collects diagnostic lines for the monitor TUI
type eventLog struct {
	mu      sync.Mutex
	partial []byte
	lines   []string
}

func (e *eventLog) Write(p []byte) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.partial = append(e.partial, p...)
	for {
		i := bytes.IndexByte(e.partial, '\n')
		if i < 0 {
			break
		}
		e.lines = append(e.lines, string(bytes.TrimRight(e.partial[:i], "\r")))
		e.partial = e.partial[i+1:]
	}
	return len(p), nil
}

// Drain returns and clears the complete lines collected so far
func (e *eventLog) Drain() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	lines := e.lines
	e.lines = nil
	return lines
}
