// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package rover

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// fakeReceiver hands out queued bytes and counts receive attempts
type fakeReceiver struct {
	queue []byte
	calls int
}

func (r *fakeReceiver) Recv() (byte, bool) {
	r.calls++
	if len(r.queue) == 0 {
		return 0, false
	}
	b := r.queue[0]
	r.queue = r.queue[1:]
	return b, true
}

// fakeClock is advanced manually
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{t: time.Unix(1000, 0)} }

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// failingMotor always returns the same error
type failingMotor struct {
	err  error
	runs int
}

func (m *failingMotor) SetSpeed(uint8) error { return m.err }
func (m *failingMotor) Run(Direction) error  { m.runs++; return m.err }

type harness struct {
	ctrl    *Controller
	radio   *fakeReceiver
	console *ConsoleBuffer
	right   *SimMotor
	left    *SimMotor
	clock   *fakeClock
	out     *bytes.Buffer
}

func newHarness(t *testing.T, mutate func(*Config)) *harness {
	t.Helper()
	h := &harness{
		radio:   &fakeReceiver{},
		console: NewConsoleBuffer(),
		right:   NewSimMotor("right"),
		left:    NewSimMotor("left"),
		clock:   newFakeClock(),
		out:     &bytes.Buffer{},
	}
	cfg := Config{
		Radio:   h.radio,
		Console: h.console,
		Right:   h.right,
		Left:    h.left,
		Output:  h.out,
		Now:     h.clock.Now,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	h.ctrl = NewController(cfg)
	h.ctrl.Setup()
	h.out.Reset()
	return h
}

// pollNow makes the next Step attempt a wireless receive
func (h *harness) pollNow() {
	h.clock.Advance(PollInterval)
}

func (h *harness) assertMotors(t *testing.T, right, left Direction) {
	t.Helper()
	if got := h.right.State().Direction; got != right {
		t.Errorf("right motor = %v, want %v", got, right)
	}
	if got := h.left.State().Direction; got != left {
		t.Errorf("left motor = %v, want %v", got, left)
	}
}

func TestSetup(t *testing.T) {
	var out bytes.Buffer
	right := NewSimMotor("right")
	left := NewSimMotor("left")
	ctrl := NewController(Config{
		Radio:  &fakeReceiver{},
		Right:  right,
		Left:   left,
		Output: &out,
	})
	ctrl.Setup()

	if ctrl.Current() != CommandStop {
		t.Errorf("Current() = %v, want Stop", ctrl.Current())
	}
	if got := right.State(); got != (MotorState{DirectionReleased, RightMotorSpeed}) {
		t.Errorf("right state = %v", got)
	}
	if got := left.State(); got != (MotorState{DirectionReleased, LeftMotorSpeed}) {
		t.Errorf("left state = %v", got)
	}
	if right.Runs() != 1 || left.Runs() != 1 {
		t.Errorf("setup should release each motor once, got %d/%d", right.Runs(), left.Runs())
	}

	text := out.String()
	if !strings.HasPrefix(text, "Motor Control Ready\nCommands:\n1: Forward\n") {
		t.Errorf("legend missing, got %q", text)
	}
	if strings.Contains(text, "init failed") {
		t.Errorf("unexpected init failure message: %q", text)
	}
}

func TestSetup_RadioInitFailure(t *testing.T) {
	var out bytes.Buffer
	ctrl := NewController(Config{
		RadioErr: errors.New("no such device"),
		Output:   &out,
	})
	ctrl.Setup()

	if !strings.HasPrefix(out.String(), "init failed: no such device\n") {
		t.Errorf("output = %q, want init failure first", out.String())
	}

	// The loop keeps running without a radio
	st := ctrl.Step()
	if st.Current != CommandStop {
		t.Errorf("Current = %v, want Stop", st.Current)
	}
}

func TestPollWireless(t *testing.T) {
	for b := 0; b <= 255; b++ {
		h := newHarness(t, nil)
		h.radio.queue = []byte{byte(b)}

		got, ok := h.ctrl.PollWireless()
		if !ok {
			t.Fatalf("byte %d: PollWireless reported no data", b)
		}
		want := CommandStop
		if b >= 1 && b <= 5 {
			want = Command(b)
		}
		if got != want {
			t.Errorf("byte %d: PollWireless() = %v, want %v", b, got, want)
		}
	}
}

func TestPollWireless_NoData(t *testing.T) {
	h := newHarness(t, nil)
	if _, ok := h.ctrl.PollWireless(); ok {
		t.Error("PollWireless reported data on an empty receiver")
	}
	if h.out.Len() != 0 {
		t.Errorf("unexpected output %q", h.out.String())
	}
}

func TestPollWireless_Diagnostics(t *testing.T) {
	h := newHarness(t, nil)
	h.radio.queue = []byte{2, 200}

	h.ctrl.PollWireless()
	h.ctrl.PollWireless()

	want := "Received: 2 (Backward)\nReceived: 200 (Invalid) - stopping\n"
	if h.out.String() != want {
		t.Errorf("output = %q, want %q", h.out.String(), want)
	}
}

func TestPollSerial(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		want         Command
		wantOutput   string
		wantBuffered int
	}{
		{name: "no input", input: "", want: CommandStop, wantOutput: ""},
		{name: "forward", input: "1", want: CommandForward, wantOutput: "Serial Command: 1 (Forward)\n"},
		{name: "backward", input: "2", want: CommandBackward, wantOutput: "Serial Command: 2 (Backward)\n"},
		{name: "left", input: "3", want: CommandLeft, wantOutput: "Serial Command: 3 (Left)\n"},
		{name: "right", input: "4", want: CommandRight, wantOutput: "Serial Command: 4 (Right)\n"},
		{name: "stop", input: "5", want: CommandStop, wantOutput: "Serial Command: 5 (Stop)\n"},
		{name: "valid leaves rest buffered", input: "14", want: CommandForward, wantOutput: "Serial Command: 1 (Forward)\n", wantBuffered: 1},
		{name: "invalid drains buffer", input: "x123", want: CommandStop, wantOutput: "Invalid input! Use 1-5\n"},
		{name: "newline is invalid", input: "\n", want: CommandStop, wantOutput: "Invalid input! Use 1-5\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			h.console.Feed([]byte(tt.input))

			got := h.ctrl.PollSerial()
			if got != tt.want {
				t.Errorf("PollSerial() = %v, want %v", got, tt.want)
			}
			if h.out.String() != tt.wantOutput {
				t.Errorf("output = %q, want %q", h.out.String(), tt.wantOutput)
			}
			if n := h.console.Buffered(); n != tt.wantBuffered {
				t.Errorf("Buffered() = %d, want %d", n, tt.wantBuffered)
			}
		})
	}
}

func TestExecute_Idempotent(t *testing.T) {
	h := newHarness(t, nil)
	h.radio.queue = []byte{byte(CommandLeft)}
	h.pollNow()
	h.ctrl.Step()

	for i := 0; i < 2; i++ {
		h.ctrl.Execute()
		h.assertMotors(t, DirectionForward, DirectionBackward)
	}
	// setup + step + two executes
	if h.right.Runs() != 4 || h.left.Runs() != 4 {
		t.Errorf("motor runs = %d/%d, want 4/4", h.right.Runs(), h.left.Runs())
	}
}

func TestStep_WirelessForward(t *testing.T) {
	h := newHarness(t, nil)
	h.radio.queue = []byte{1}
	h.pollNow()

	st := h.ctrl.Step()

	if !st.Polled {
		t.Error("expected a wireless poll")
	}
	if st.Current != CommandForward {
		t.Errorf("Current = %v, want Forward", st.Current)
	}
	h.assertMotors(t, DirectionForward, DirectionForward)
	if st.Right != (MotorState{DirectionForward, RightMotorSpeed}) {
		t.Errorf("status right = %v", st.Right)
	}
	if !strings.Contains(h.out.String(), "New command: 1\n") {
		t.Errorf("missing command change message in %q", h.out.String())
	}
}

func TestStep_IntervalNotElapsed(t *testing.T) {
	h := newHarness(t, nil)
	h.radio.queue = []byte{1}
	h.pollNow()
	h.ctrl.Step()
	calls := h.radio.calls

	h.radio.queue = []byte{2}
	h.clock.Advance(PollInterval - time.Millisecond)
	st := h.ctrl.Step()

	if st.Polled {
		t.Error("polled before the interval elapsed")
	}
	if h.radio.calls != calls {
		t.Errorf("receiver called %d times, want %d", h.radio.calls, calls)
	}
	if st.Current != CommandForward {
		t.Errorf("Current = %v, want Forward", st.Current)
	}
	h.assertMotors(t, DirectionForward, DirectionForward)

	// Exactly at the interval the pending byte is picked up
	h.clock.Advance(time.Millisecond)
	if st := h.ctrl.Step(); st.Current != CommandBackward {
		t.Errorf("Current = %v, want Backward", st.Current)
	}
}

func TestStep_NoByteKeepsCommand(t *testing.T) {
	h := newHarness(t, nil)
	h.radio.queue = []byte{4}
	h.pollNow()
	h.ctrl.Step()

	h.pollNow()
	st := h.ctrl.Step()

	if !st.Polled {
		t.Error("expected a wireless poll")
	}
	if st.Current != CommandRight {
		t.Errorf("Current = %v, want Right", st.Current)
	}
	h.assertMotors(t, DirectionBackward, DirectionForward)
}

func TestStep_GarbageByteStops(t *testing.T) {
	h := newHarness(t, nil)
	h.radio.queue = []byte{1}
	h.pollNow()
	h.ctrl.Step()

	h.radio.queue = []byte{9}
	h.pollNow()
	st := h.ctrl.Step()

	if st.Current != CommandStop {
		t.Errorf("Current = %v, want Stop", st.Current)
	}
	h.assertMotors(t, DirectionReleased, DirectionReleased)
	if !strings.Contains(h.out.String(), "New command: 5\n") {
		t.Errorf("missing command change message in %q", h.out.String())
	}
}

func TestStep_SameCommandNotAnnounced(t *testing.T) {
	h := newHarness(t, nil)
	h.radio.queue = []byte{5}
	h.pollNow()
	h.ctrl.Step()

	if strings.Contains(h.out.String(), "New command") {
		t.Errorf("Stop -> Stop should not be announced: %q", h.out.String())
	}
}

func TestStep_SerialDoesNotDrive(t *testing.T) {
	h := newHarness(t, nil)
	h.radio.queue = []byte{1}
	h.pollNow()
	h.ctrl.Step()
	h.out.Reset()

	h.console.Feed([]byte("3"))
	st := h.ctrl.Step()

	if h.out.String() != "Serial Command: 3 (Left)\n" {
		t.Errorf("output = %q", h.out.String())
	}
	if st.LastSerial != CommandLeft {
		t.Errorf("LastSerial = %v, want Left", st.LastSerial)
	}
	if st.Current != CommandForward {
		t.Errorf("Current = %v, want Forward", st.Current)
	}
	h.assertMotors(t, DirectionForward, DirectionForward)

	// The idle default of Stop does not stop the vehicle either
	st = h.ctrl.Step()
	if st.LastSerial != CommandStop || st.Current != CommandForward {
		t.Errorf("idle console changed state: %+v", st)
	}
}

func TestStep_SerialInvalidInput(t *testing.T) {
	h := newHarness(t, nil)
	h.radio.queue = []byte{2}
	h.pollNow()
	h.ctrl.Step()
	h.out.Reset()

	h.console.Feed([]byte("x45"))
	st := h.ctrl.Step()

	if h.out.String() != "Invalid input! Use 1-5\n" {
		t.Errorf("output = %q", h.out.String())
	}
	if h.console.Buffered() != 0 {
		t.Errorf("buffer not drained, %d bytes left", h.console.Buffered())
	}
	if st.Current != CommandBackward {
		t.Errorf("Current = %v, want Backward", st.Current)
	}
	h.assertMotors(t, DirectionBackward, DirectionBackward)
}

func TestStep_SerialControl(t *testing.T) {
	h := newHarness(t, func(cfg *Config) { cfg.SerialControl = true })

	h.console.Feed([]byte("3"))
	st := h.ctrl.Step()
	if st.Current != CommandLeft {
		t.Errorf("Current = %v, want Left", st.Current)
	}
	h.assertMotors(t, DirectionForward, DirectionBackward)

	// No input: the idle Stop default must not override
	st = h.ctrl.Step()
	if st.Current != CommandLeft {
		t.Errorf("Current = %v, want Left", st.Current)
	}

	// Invalid input does not override either
	h.console.Feed([]byte("q"))
	st = h.ctrl.Step()
	if st.Current != CommandLeft {
		t.Errorf("Current = %v, want Left", st.Current)
	}

	// Wireless still wins when it arrives
	h.radio.queue = []byte{2}
	h.pollNow()
	if st := h.ctrl.Step(); st.Current != CommandBackward {
		t.Errorf("Current = %v, want Backward", st.Current)
	}
}

func TestStep_MotorErrorsLoggedOnce(t *testing.T) {
	bad := &failingMotor{err: errors.New("write failed")}
	var out bytes.Buffer
	ctrl := NewController(Config{Radio: &fakeReceiver{}, Right: bad, Output: &out})
	ctrl.Setup()
	for i := 0; i < 5; i++ {
		ctrl.Step()
	}

	if n := strings.Count(out.String(), "right motor: write failed"); n != 1 {
		t.Errorf("error logged %d times, want 1:\n%s", n, out.String())
	}
	if bad.runs != 6 {
		t.Errorf("runs = %d, want 6", bad.runs)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	right := NewSimMotor("right")
	left := NewSimMotor("left")
	radio := &fakeReceiver{queue: []byte{1}}

	ctx, cancel := context.WithCancel(context.Background())
	clock := newFakeClock()
	var seen []Status
	ctrl := NewController(Config{
		Radio: radio,
		Right: right,
		Left:  left,
		Now: func() time.Time {
			clock.Advance(time.Second)
			return clock.Now()
		},
		PollInterval: time.Second,
		LoopDelay:    time.Millisecond,
		Observer: func(st Status) {
			seen = append(seen, st)
			if len(seen) == 3 {
				cancel()
			}
		},
	})

	done := make(chan error, 1)
	go func() { done <- ctrl.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	if len(seen) != 3 {
		t.Fatalf("observer called %d times, want 3", len(seen))
	}
	if seen[0].Current != CommandForward || seen[2].Iteration != 3 {
		t.Errorf("unexpected statuses: %+v", seen)
	}
	if right.State().Direction != DirectionReleased || left.State().Direction != DirectionReleased {
		t.Error("motors not released after Run returned")
	}
}
