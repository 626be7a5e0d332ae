package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fakeyudi/lapse/internal/recorder"
)

// maxLogLines bounds the encoder output kept for the log pane.
const maxLogLines = 500

// eventMsg wraps one orchestrator event; closedMsg reports that the
// subscription ended.
type (
	eventMsg  recorder.Event
	closedMsg struct{}
)

// Recording is the live view of a running capture. It shows elapsed time
// from status events and streams encoder output into a scrollable pane.
type Recording struct {
	info    recorder.SessionInfo
	events  <-chan recorder.Event
	stop    func()
	spinner spinner.Model
	log     viewport.Model
	lines   []string

	status   recorder.Status
	stopping bool
	result   *recorder.StopResult
	lastErr  string
	width    int
	height   int
	ready    bool
}

// NewRecording returns the live view for the session described by info.
// stop is called when the user asks to end the recording.
func NewRecording(info recorder.SessionInfo, events <-chan recorder.Event, stop func()) Recording {
	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(recordingStyle))
	return Recording{
		info:    info,
		events:  events,
		stop:    stop,
		spinner: sp,
		status:  recorder.Status{IsCapturing: true},
	}
}

func waitForEvent(ch <-chan recorder.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return closedMsg{}
		}
		return eventMsg(ev)
	}
}

func (m Recording) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForEvent(m.events))
}

func (m Recording) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "s", "q", "ctrl+c":
			if !m.stopping {
				m.stopping = true
				if m.stop != nil {
					m.stop()
				}
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.log, cmd = m.log.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// title(1) + summary(6) + heading(3) + statusBar(1)
		h := m.height - 11
		if h < 3 {
			h = 3
		}
		if !m.ready {
			m.log = viewport.New(m.width, h)
			m.ready = true
		} else {
			m.log.Width = m.width
			m.log.Height = h
		}
		m.log.SetContent(strings.Join(m.lines, "\n"))
		m.log.GotoBottom()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case eventMsg:
		return m.handleEvent(recorder.Event(msg))

	case closedMsg:
		return m, tea.Quit
	}
	return m, nil
}

func (m Recording) handleEvent(ev recorder.Event) (tea.Model, tea.Cmd) {
	switch ev.Type {
	case recorder.EventStatus:
		m.status = ev.Status
		if ev.Status.Error != "" {
			m.lastErr = ev.Status.Error
		}
	case recorder.EventLog:
		m.appendLine(ev.Line)
	case recorder.EventError:
		if ev.Err != nil {
			m.lastErr = ev.Err.Error()
			m.appendLine(errorStyle.Render(ev.Err.Error()))
		}
	case recorder.EventSessionStopped:
		m.result = ev.Result
		return m, tea.Quit
	}
	return m, waitForEvent(m.events)
}

func (m *Recording) appendLine(line string) {
	m.lines = append(m.lines, line)
	if len(m.lines) > maxLogLines {
		m.lines = m.lines[len(m.lines)-maxLogLines:]
	}
	if m.ready {
		atBottom := m.log.AtBottom()
		m.log.SetContent(strings.Join(m.lines, "\n"))
		if atBottom {
			m.log.GotoBottom()
		}
	}
}

func (m Recording) View() string {
	if !m.ready {
		return "Starting…"
	}

	title := titleStyle.Width(m.width).Render("  lapse  " + m.info.Target.DisplayName)

	var sb strings.Builder
	row := func(label, value string) {
		sb.WriteString(labelStyle.Render(fmt.Sprintf("  %-10s", label)) + "  " + value + "\n")
	}
	sb.WriteString("\n")
	switch {
	case m.stopping:
		row("State:", dimStyle.Render("stopping…"))
	case m.status.IsCapturing:
		row("State:", m.spinner.View()+" "+recordingStyle.Render("REC"))
	default:
		row("State:", errorStyle.Render("not recording"))
	}
	row("Elapsed:", timeStyle.Render((time.Duration(m.status.Duration) * time.Second).String()))
	row("Quality:", m.info.Quality)
	row("Output:", m.info.OutputPath)
	if m.lastErr != "" {
		row("Error:", errorStyle.Render(m.lastErr))
	} else {
		row("Error:", okStyle.Render("none"))
	}

	logHeading := heading(fmt.Sprintf("Encoder output (%d lines)", len(m.lines)))
	hint := "s stop  ↑/↓ scroll"
	if m.stopping {
		hint = "waiting for the encoder to finish…"
	}
	statusBar := statusBarStyle.Width(m.width).Render(hint)

	return lipgloss.JoinVertical(lipgloss.Left, title, sb.String(), logHeading, m.log.View(), statusBar)
}

// Result returns how the session ended, or nil if the view was closed first.
func (m Recording) Result() *recorder.StopResult {
	return m.result
}

// Watch runs the live view until the session stops and returns its result.
func Watch(info recorder.SessionInfo, events <-chan recorder.Event, stop func()) (*recorder.StopResult, error) {
	final, err := tea.NewProgram(NewRecording(info, events, stop), tea.WithAltScreen()).Run()
	if err != nil {
		return nil, err
	}
	res := final.(Recording).Result()
	if res == nil {
		return nil, errors.New("event stream closed before the recording stopped")
	}
	return res, nil
}
