package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fakeyudi/lapse/internal/target"
)

// Picker lets the user choose a capture target and a quality tier.
type Picker struct {
	targets  []target.Target
	cursor   int
	quality  string
	chosen   bool
	canceled bool
	width    int
}

// NewPicker returns a picker over targets with quality preselected.
func NewPicker(targets []target.Target, quality string) Picker {
	if quality != "high" {
		quality = "low"
	}
	return Picker{targets: targets, quality: quality, width: 80}
}

func (m Picker) Init() tea.Cmd { return nil }

func (m Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.canceled = true
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.targets)-1 {
				m.cursor++
			}
		case "t":
			if m.quality == "low" {
				m.quality = "high"
			} else {
				m.quality = "low"
			}
		case "enter", " ":
			if len(m.targets) > 0 {
				m.chosen = true
				return m, tea.Quit
			}
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	}
	return m, nil
}

func (m Picker) View() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Width(m.width).Render("  lapse  choose what to record"))
	sb.WriteString("\n")
	sb.WriteString(heading(fmt.Sprintf("Targets (%d)", len(m.targets))))

	for i, t := range m.targets {
		badge := kindScreenStyle.Render(fmt.Sprintf("%-7s", t.Kind))
		if t.Kind == target.KindWindow {
			badge = kindWindowStyle.Render(fmt.Sprintf("%-7s", t.Kind))
		}
		size := dimStyle.Render(fmt.Sprintf("%dx%d", t.Geometry.Width, t.Geometry.Height))
		row := fmt.Sprintf("  %s  %s  %s", badge, t.DisplayName, size)
		if i == m.cursor {
			row = selectedRowStyle.Width(m.width - 2).Render(row)
		}
		sb.WriteString(row + "\n")
	}

	sb.WriteString("\n")
	sb.WriteString(labelStyle.Render("  Quality:") + "  " + m.quality + "\n\n")
	sb.WriteString(statusBarStyle.Width(m.width).Render("↑/↓ select  t quality  enter record  q cancel"))
	return sb.String()
}

// Selection returns the chosen target and quality. ok is false when the
// picker was cancelled.
func (m Picker) Selection() (t target.Target, quality string, ok bool) {
	if !m.chosen || m.canceled || len(m.targets) == 0 {
		return target.Target{}, m.quality, false
	}
	return m.targets[m.cursor], m.quality, true
}

// Pick runs the picker and returns the user's selection.
func Pick(targets []target.Target, quality string) (target.Target, string, bool, error) {
	final, err := tea.NewProgram(NewPicker(targets, quality)).Run()
	if err != nil {
		return target.Target{}, quality, false, err
	}
	t, q, ok := final.(Picker).Selection()
	return t, q, ok, nil
}
