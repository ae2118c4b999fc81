// Package tui is a terminal rendition of the chat view, driven by the same
// conversation state machine as the browser page.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/mtgstrategist/ui/internal/conversation"
	"github.com/mtgstrategist/ui/internal/model/chat"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("75")).Padding(0, 1)
	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33"))
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245"))
	helpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// chrome is the number of lines taken by the title, input and help rows.
const chrome = 4

type turnDoneMsg struct{ err error }

type resetDoneMsg struct{}

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	ctx  context.Context
	conv *conversation.Conversation

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	width int
}

// New builds the chat screen around conv. ctx bounds every proxy call.
func New(ctx context.Context, conv *conversation.Conversation) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about MTG strategies..."
	ti.CharLimit = 4096
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:      ctx,
		conv:     conv,
		viewport: viewport.New(80, 20),
		input:    ti,
		spinner:  sp,
		width:    80,
	}
	m.renderer = newRenderer(m.width)
	m.refresh()
	return m
}

func newRenderer(width int) *glamour.TermRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	return r
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-chrome, 1)
		m.input.Width = max(msg.Width-4, 10)
		m.renderer = newRenderer(max(msg.Width-4, 20))
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyCtrlR:
			return m, m.resetCmd()
		case tea.KeyEnter:
			return m.submit()
		}

	case turnDoneMsg:
		m.refresh()
		return m, m.input.Focus()

	case resetDoneMsg:
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.conv.Loading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	if !m.conv.Loading() {
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	turn, err := m.conv.Begin(m.input.Value())
	if err != nil {
		// Blank input or a turn already in flight.
		return m, nil
	}

	m.input.Reset()
	m.input.Blur()
	m.refresh()

	ctx := m.ctx
	send := func() tea.Msg {
		return turnDoneMsg{err: turn.Send(ctx)}
	}
	return m, tea.Batch(send, m.spinner.Tick)
}

func (m Model) resetCmd() tea.Cmd {
	ctx, conv := m.ctx, m.conv
	return func() tea.Msg {
		conv.Reset(ctx)
		return resetDoneMsg{}
	}
}

// refresh re-renders the transcript and scrolls to the latest message.
func (m *Model) refresh() {
	m.viewport.SetContent(m.renderMessages())
	m.viewport.GotoBottom()
}

func (m Model) renderMessages() string {
	var b strings.Builder
	for _, msg := range m.conv.Messages() {
		switch msg.Role {
		case chat.RoleUser:
			b.WriteString(userStyle.Render("You"))
			b.WriteString("\n")
			b.WriteString(msg.Content)
			b.WriteString("\n\n")
		default:
			b.WriteString(assistantStyle.Render("Strategist"))
			b.WriteString("\n")
			b.WriteString(m.renderMarkdown(msg.Content))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m Model) renderMarkdown(content string) string {
	if m.renderer == nil {
		return content + "\n"
	}
	out, err := m.renderer.Render(content)
	if err != nil {
		return content + "\n"
	}
	return strings.TrimLeft(out, "\n")
}

// View implements tea.Model.
func (m Model) View() string {
	var status string
	if m.conv.Loading() {
		status = m.spinner.View() + " thinking..."
	} else {
		status = m.input.View()
	}

	return strings.Join([]string{
		titleStyle.Render("MTG Strategist"),
		m.viewport.View(),
		status,
		helpStyle.Render("enter send • ctrl+r new conversation • esc quit"),
	}, "\n")
}
