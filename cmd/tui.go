package cmd

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/synthread/rtflash/flash"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	infoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	okStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#04B575"))
	errStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF5F87"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
)

// TUI model
type flashModel struct {
	op       *flash.Operation
	connInfo string
	file     string
	size     int

	bar      progress.Model
	last     flash.Event
	started  time.Time
	aborting bool
	width    int
}

// Messages
type eventMsg flash.Event
type eventsClosedMsg struct{}

func newFlashModel(op *flash.Operation, connInfo, file string, size int) flashModel {
	return flashModel{
		op:       op,
		connInfo: connInfo,
		file:     filepath.Base(file),
		size:     size,
		bar:      progress.New(progress.WithDefaultGradient()),
		last:     flash.Event{Message: "Opening port"},
		started:  time.Now(),
		width:    80,
	}
}

// waitForEvent delivers the next session event to the program
func waitForEvent(op *flash.Operation) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-op.Events()
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg(ev)
	}
}

func (m flashModel) Init() tea.Cmd {
	return waitForEvent(m.op)
}

func (m flashModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			// the session ends through its normal error path
			m.aborting = true
			m.op.Abort()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = min(msg.Width-4, 60)

	case eventMsg:
		m.last = flash.Event(msg)
		if m.last.State.Terminal() {
			return m, tea.Quit
		}
		return m, waitForEvent(m.op)

	case eventsClosedMsg:
		return m, tea.Quit
	}

	return m, nil
}

func (m flashModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("rtflash"))
	b.WriteString("\n")
	b.WriteString(infoStyle.Render(fmt.Sprintf("%s  |  %s (%d bytes)", m.connInfo, m.file, m.size)))
	b.WriteString("\n\n")

	pct := m.last.Progress
	if m.last.State == flash.StateErasing || m.last.State == flash.StateIdle {
		pct = 0
	}
	b.WriteString(m.bar.ViewAs(pct / 100))
	b.WriteString("\n\n")

	switch m.last.State {
	case flash.StateCompleted:
		b.WriteString(okStyle.Render(m.last.Message))
		b.WriteString(infoStyle.Render(fmt.Sprintf("  (%s)", time.Since(m.started).Round(time.Second))))
	case flash.StateFailed, flash.StateAborted:
		b.WriteString(errStyle.Render(m.last.Message))
		if m.last.Err != nil {
			b.WriteString("\n")
			b.WriteString(infoStyle.Render(m.last.Err.Error()))
		}
	default:
		b.WriteString(m.last.Message)
		if m.aborting {
			b.WriteString(helpStyle.Render("  aborting..."))
		}
	}
	b.WriteString("\n")

	if !m.last.State.Terminal() {
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("q: abort"))
		b.WriteString("\n")
	}

	return b.String()
}

// runTUI shows the session until it ends
func runTUI(op *flash.Operation, connInfo, file string, size int) error {
	p := tea.NewProgram(newFlashModel(op, connInfo, file, size))
	_, err := p.Run()
	return err
}
