// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Thermoquad/rover/pkg/rover"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

const (
	monitorRefresh = 100 * time.Millisecond
	maxEventLines  = 200
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Run the control loop with a live dashboard",
	Long: `Run the motor control loop inside an interactive terminal UI.

The dashboard shows the current command, the last console command and the
direction and speed of both motors, along with a scrolling log of the
controller's diagnostics.

Key presses are delivered to the controller as console input: 1-5 are echoed
as serial commands, anything else is rejected and flushes the input. Ctrl+C
quits.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().BoolVar(&serialControl, "serial-control", false, "Let valid console characters change the current command")
}

// statusBox hands the latest controller status to the UI
type statusBox struct {
	mu     sync.Mutex
	status rover.Status
	ok     bool
}

func (s *statusBox) Store(st rover.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = st
	s.ok = true
}

func (s *statusBox) Load() (rover.Status, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status, s.ok
}

type monitorKeyMap struct {
	Quit key.Binding
}

var monitorKeys = monitorKeyMap{
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "quit"),
	),
}

type monitorEntry struct {
	timestamp time.Time
	message   string
	isError   bool
}

// monitorModel is the Bubble Tea model for the dashboard
type monitorModel struct {
	radioInfo     string
	motorInfo     string
	serialControl bool
	radioStats    func() string

	input  *rover.ConsoleBuffer
	status *statusBox
	events *eventLog

	current  rover.Status
	hasState bool
	log      []monitorEntry
	logView  viewport.Model

	width    int
	height   int
	quitting bool
}

type monitorTickMsg time.Time

func newMonitorModel(radioInfo, motorInfo string, input *rover.ConsoleBuffer, status *statusBox, events *eventLog) monitorModel {
	return monitorModel{
		radioInfo:     radioInfo,
		motorInfo:     motorInfo,
		serialControl: serialControl,
		input:         input,
		status:        status,
		events:        events,
		log:           make([]monitorEntry, 0),
		logView:       viewport.New(76, 10),
		width:         80,
		height:        24,
	}
}

func (m monitorModel) Init() tea.Cmd {
	return monitorTickCmd()
}

func monitorTickCmd() tea.Cmd {
	return tea.Tick(monitorRefresh, func(t time.Time) tea.Msg {
		return monitorTickMsg(t)
	})
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, monitorKeys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		m.feedKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeLog()

	case monitorTickMsg:
		m.refresh(time.Time(msg))
		return m, monitorTickCmd()
	}

	return m, nil
}

// feedKey forwards a key press to the controller's console input.
// Control keys arrive as their ASCII code; keys without one (arrows,
// function keys) arrive as ESC, the lead byte of their terminal sequence.
func (m *monitorModel) feedKey(msg tea.KeyMsg) {
	switch {
	case msg.Type == tea.KeyRunes:
		m.input.Feed([]byte(string(msg.Runes)))
	case msg.Type == tea.KeySpace:
		m.input.Feed([]byte{' '})
	case msg.Type >= 0 && msg.Type <= 0x7F:
		m.input.Feed([]byte{byte(msg.Type)})
	default:
		m.input.Feed([]byte{keyEsc})
	}
}

// refresh pulls the latest status and diagnostics
func (m *monitorModel) refresh(now time.Time) {
	if st, ok := m.status.Load(); ok {
		m.current = st
		m.hasState = true
	}

	lines := m.events.Drain()
	for _, line := range lines {
		if line == "" {
			continue
		}
		m.log = append(m.log, monitorEntry{
			timestamp: now,
			message:   line,
			isError:   isErrorLine(line),
		})
	}
	if len(m.log) > maxEventLines {
		m.log = m.log[len(m.log)-maxEventLines:]
	}
	if len(lines) > 0 {
		m.logView.SetContent(m.renderLog())
		m.logView.GotoBottom()
	}
}

func isErrorLine(line string) bool {
	for _, marker := range []string{"Invalid", "failed", "lost", "motor:"} {
		if strings.Contains(line, marker) {
			return true
		}
	}
	return false
}

func (m *monitorModel) resizeLog() {
	m.logView.Width = m.width - 4
	h := m.height - 16
	if h < 5 {
		h = 5
	}
	m.logView.Height = h
	m.logView.SetContent(m.renderLog())
	m.logView.GotoBottom()
}

var (
	monitorTitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	monitorHeaderStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	monitorLabelStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	monitorValueStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	monitorStopStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("11")).
		Bold(true)

	monitorErrorStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("9"))

	monitorBoxStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)
)

func (m monitorModel) renderLog() string {
	if len(m.log) == 0 {
		return monitorHeaderStyle.Render("  (no events yet)")
	}
	var b strings.Builder
	for i, entry := range m.log {
		if i > 0 {
			b.WriteString("\n")
		}
		ts := monitorHeaderStyle.Render(entry.timestamp.Format("15:04:05.000"))
		if entry.isError {
			b.WriteString(ts + " " + monitorErrorStyle.Render("✗ "+entry.message))
		} else {
			b.WriteString(ts + " " + entry.message)
		}
	}
	return b.String()
}

func commandStyle(c rover.Command) lipgloss.Style {
	if c == rover.CommandStop || !c.Valid() {
		return monitorStopStyle
	}
	return monitorValueStyle
}

func renderMotor(name string, st rover.MotorState) string {
	return fmt.Sprintf("%s %s  %s %d (%.0f%%)",
		monitorLabelStyle.Render(name),
		directionStyle(st.Direction).Render(fmt.Sprintf("%-8s", st.Direction)),
		monitorLabelStyle.Render("Speed:"),
		st.Speed, float64(st.Speed)*100/255)
}

func directionStyle(d rover.Direction) lipgloss.Style {
	if d == rover.DirectionReleased {
		return monitorStopStyle
	}
	return monitorValueStyle
}

func (m monitorModel) View() string {
	if m.quitting {
		return "Stopping motors...\n"
	}

	var s strings.Builder
	s.WriteString(monitorTitleStyle.Render("ROVER - DIRECTION CONTROLLER"))
	s.WriteString("\n")
	s.WriteString(monitorHeaderStyle.Render(fmt.Sprintf("Radio: %s | Motors: %s | %s to quit",
		m.radioInfo, m.motorInfo, monitorKeys.Quit.Help().Key)))
	s.WriteString("\n\n")

	var state strings.Builder
	if !m.hasState {
		state.WriteString(monitorStopStyle.Render("⏳ Starting..."))
	} else {
		st := m.current
		state.WriteString(fmt.Sprintf("%s %s   %s %s\n",
			monitorLabelStyle.Render("Command:"), commandStyle(st.Current).Render(st.Current.Label()),
			monitorLabelStyle.Render("Console:"), commandStyle(st.LastSerial).Render(st.LastSerial.Label()),
		))
		state.WriteString(renderMotor("Right:", st.Right))
		state.WriteString("\n")
		state.WriteString(renderMotor("Left: ", st.Left))
		state.WriteString("\n")
		mode := "echo only"
		if m.serialControl {
			mode = "drives motors"
		}
		line := fmt.Sprintf("Iteration %d | console input: %s", st.Iteration, mode)
		if m.radioStats != nil {
			line += " | radio: " + m.radioStats()
		}
		state.WriteString(monitorHeaderStyle.Render(line))
	}
	s.WriteString(monitorBoxStyle.Render(state.String()))
	s.WriteString("\n\n")

	s.WriteString(monitorLabelStyle.Render("Commands: "))
	s.WriteString(monitorHeaderStyle.Render(strings.Join(rover.Legend()[2:], "  ")))
	s.WriteString("\n\n")

	s.WriteString(monitorLabelStyle.Render("Recent Events:"))
	s.WriteString("\n")
	s.WriteString(monitorBoxStyle.Width(m.width - 2).Render(m.logView.View()))

	return s.String()
}

func runMonitor(cmd *cobra.Command, args []string) error {
	events := &eventLog{}
	diag, closeLog := openDiagnostics(events)
	defer closeLog()

	v, err := openVehicle()
	if err != nil {
		return err
	}
	defer v.Close()
	v.listen(diag)

	input := rover.NewConsoleBuffer()
	status := &statusBox{}

	ctrl := rover.NewController(rover.Config{
		Radio:         v.receiver(),
		RadioErr:      v.radioErr,
		Console:       input,
		Right:         v.right,
		Left:          v.left,
		Output:        diag,
		SerialControl: serialControl,
		Observer:      status.Store,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ctrl.Run(ctx) }()

	m := newMonitorModel(v.radioInfo, v.motorInfo, input, status, events)
	m.radioStats = v.radioSummary
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, runErr := p.Run()

	cancel()
	if err := <-done; err != nil {
		return err
	}
	if runErr != nil {
		return fmt.Errorf("TUI error: %w", runErr)
	}
	return nil
}
