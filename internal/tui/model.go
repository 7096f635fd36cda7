package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	feedbackModel "github.com/earlysignal/backend/internal/model/feedback"
	"github.com/earlysignal/backend/internal/service/feedback"
)

const changeBuffer = 64

type changeMsg feedback.Change

// resyncMsg reports that changes were dropped.
type resyncMsg struct{}

// Model renders one interview in the terminal.
type Model struct {
	conv        *feedback.Conversation
	score       int
	changes     *feedback.Feed[feedback.Change]
	unsubscribe func()

	snapshot   feedback.Snapshot
	input      textinput.Model
	suggestion int // -1 when none is highlighted
	width      int
	height     int
	quitting   bool
}

// NewModel subscribes to conv. score is shown once the interview completes.
func NewModel(conv *feedback.Conversation, score int) Model {
	ti := textinput.New()
	ti.Placeholder = "Type your answer..."
	ti.CharLimit = 1000
	ti.Focus()

	changes := feedback.NewFeed[feedback.Change](changeBuffer)
	unsubscribe := conv.Subscribe(func(c feedback.Change) { changes.Push(c) })

	return Model{
		conv:        conv,
		score:       score,
		changes:     changes,
		unsubscribe: unsubscribe,
		snapshot:    conv.Snapshot(),
		input:       ti,
		suggestion:  -1,
		width:       100,
		height:      30,
	}
}

func waitForChange(feed *feedback.Feed[feedback.Change]) tea.Cmd {
	return func() tea.Msg {
		select {
		case c := <-feed.Items():
			return changeMsg(c)
		case <-feed.Resync():
			return resyncMsg{}
		}
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForChange(m.changes))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(20, msg.Width-6)
		return m, nil

	case changeMsg:
		m.refresh()
		return m, waitForChange(m.changes)

	case resyncMsg:
		m.changes.Drain()
		m.refresh()
		return m, waitForChange(m.changes)

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.quitting = true
		m.unsubscribe()
		return m, tea.Quit

	case "tab":
		if n := len(m.snapshot.Suggestions); n > 0 && !m.snapshot.Pending {
			m.suggestion = (m.suggestion + 1) % n
			m.input.SetValue(m.snapshot.Suggestions[m.suggestion].Text)
			m.input.CursorEnd()
		}
		return m, nil

	case "enter":
		if m.snapshot.Pending {
			return m, nil
		}
		if m.conv.Submit(m.input.Value()).Accepted() {
			m.input.Reset()
			m.suggestion = -1
		}
		m.refresh()
		return m, nil
	}

	if m.snapshot.Pending {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) refresh() {
	m.snapshot = m.conv.Snapshot()
	if m.snapshot.Pending {
		m.input.Blur()
	} else {
		m.input.Focus()
	}
	if m.suggestion >= len(m.snapshot.Suggestions) {
		m.suggestion = -1
	}
}

// Completed reports whether the interview reached its end.
func (m Model) Completed() bool {
	return m.snapshot.Completed
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("EarlySignal · Investor interview"))
	b.WriteString("\n\n")

	wrap := lipgloss.NewStyle().Width(max(20, m.width-4))
	for _, turn := range m.snapshot.Transcript {
		role := assistantRoleStyle.Render(" Investor AI ")
		if turn.Role == feedbackModel.RoleUser {
			role = userRoleStyle.Render(" You ")
		}
		b.WriteString(fmt.Sprintf("%s %s\n", role, dimStyle.Render(turn.Clock())))
		b.WriteString(wrap.Render(turn.Content))
		b.WriteString("\n\n")
	}

	if m.snapshot.Pending {
		b.WriteString(dimStyle.Render("Investor AI is typing..."))
		b.WriteString("\n\n")
	}

	if len(m.snapshot.Suggestions) > 0 && !m.snapshot.Pending {
		b.WriteString(helpStyle.Render("Suggestions:"))
		b.WriteString("\n")
		for i, s := range m.snapshot.Suggestions {
			style := normalStyle
			if i == m.suggestion {
				style = selectedStyle
			}
			b.WriteString(style.Render(s.Label))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(m.input.View())
	b.WriteString("\n")

	status := fmt.Sprintf("question: %s", m.snapshot.State)
	if m.snapshot.Completed {
		status = scoreStyle.Render(fmt.Sprintf("Investor Ready Score: %d/100", m.score)) + "  profile submitted"
	}
	b.WriteString(statusBarStyle.Render(status))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("Enter: send  Tab: next suggestion  Esc: quit"))
	return b.String()
}
