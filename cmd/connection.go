// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"go.bug.st/serial"
	"golang.org/x/term"
)

// Connection is a byte stream to one of the vehicle's bridges
type Connection interface {
	io.ReadWriteCloser
	// String describes the endpoint for banners
	String() string
}

// ErrConnectionClosed is returned when reading from a closed radio socket
var ErrConnectionClosed = errors.New("websocket connection closed")

// errNoRadio is returned when neither radio transport is configured
var errNoRadio = errors.New("no radio bridge configured (use --radio-port or --url)")

// passwordSource supplies the bridge password. Replaced in tests.
var passwordSource = GetPassword

// serialConnection is a UART opened at 8N1
type serialConnection struct {
	serial.Port
	name string
	baud int
}

func (s *serialConnection) String() string {
	return fmt.Sprintf("Serial: %s @ %d baud", s.name, s.baud)
}

// OpenSerialConnection opens a serial port at 8N1
func OpenSerialConnection(portName string, baudRate int) (Connection, error) {
	port, err := serial.Open(portName, &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}
	return &serialConnection{Port: port, name: portName, baud: baudRate}, nil
}

// radioSocket carries radio transmissions over a WebSocket bridge.
// Each binary message is one transmission. The receiver buffer holds a
// single byte, so only the first byte of a longer message is kept.
type radioSocket struct {
	conn      *websocket.Conn
	url       string
	truncated atomic.Uint64
	ignored   atomic.Uint64
	closed    atomic.Bool
}

// Read returns at most one byte: the payload of the next transmission
func (r *radioSocket) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for {
		if r.closed.Load() {
			return 0, ErrConnectionClosed
		}
		kind, data, err := r.conn.ReadMessage()
		if err != nil {
			r.closed.Store(true)
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return 0, ErrConnectionClosed
			}
			return 0, fmt.Errorf("radio bridge read failed: %w", err)
		}
		// text frames are bridge chatter, empty frames carry nothing
		if kind != websocket.BinaryMessage || len(data) == 0 {
			r.ignored.Add(1)
			continue
		}
		if len(data) > 1 {
			r.truncated.Add(1)
		}
		p[0] = data[0]
		return 1, nil
	}
}

// Write sends every byte of p as its own transmission
func (r *radioSocket) Write(p []byte) (int, error) {
	for i, b := range p {
		if err := r.conn.WriteMessage(websocket.BinaryMessage, []byte{b}); err != nil {
			return i, fmt.Errorf("radio bridge write failed: %w", err)
		}
	}
	return len(p), nil
}

func (r *radioSocket) Close() error {
	r.closed.Store(true)
	return r.conn.Close()
}

func (r *radioSocket) String() string {
	return "WebSocket: " + r.url
}

// Truncated returns how many multi-byte messages were cut to their first byte
func (r *radioSocket) Truncated() uint64 {
	return r.truncated.Load()
}

// OpenWebSocketConnection dials a radio bridge, authenticating with HTTP
// Basic auth when a username and password are given
func OpenWebSocketConnection(wsURL, username, password string, skipSSLVerify bool) (Connection, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: skipSSLVerify}
	}

	headers := http.Header{}
	if username != "" && password != "" {
		token := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		headers.Set("Authorization", "Basic "+token)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %w", err)
	}
	return &radioSocket{conn: conn, url: wsURL}, nil
}

// GetPassword reads the bridge password from ROVER_PASSWORD, or prompts on
// stderr and reads it from stdin without echo
func GetPassword() (string, error) {
	if pw := os.Getenv("ROVER_PASSWORD"); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")
	defer fmt.Fprintln(os.Stderr)

	fd := int(syscall.Stdin)
	if term.IsTerminal(fd) {
		pw, err := term.ReadPassword(fd)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(pw), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// OpenRadioConnection opens the wireless bridge selected by flags.
// The WebSocket bridge wins when both are configured.
func OpenRadioConnection() (Connection, error) {
	switch {
	case wsURL != "":
		var password string
		if wsUsername != "" {
			var err error
			if password, err = passwordSource(); err != nil {
				return nil, err
			}
		}
		return OpenWebSocketConnection(wsURL, wsUsername, password, wsNoSSLVerify)
	case radioPort != "":
		return OpenSerialConnection(radioPort, radioBaud)
	default:
		return nil, errNoRadio
	}
}
