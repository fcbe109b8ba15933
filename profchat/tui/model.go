package tui

import (
	"context"
	"strings"

	"profchat/profchat/client"
	"profchat/profchat/utils/format"
	"profchat/profchat/utils/types"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Sender is the TUI-facing subset of client.Client.
type Sender interface {
	Send(ctx context.Context, conv *client.Conversation, text string, onUpdate func()) error
}

type updateMsg struct{}

type doneMsg struct{ err error }

// Model is the Bubble Tea model for the chat window.
type Model struct {
	sender    Sender
	conv      *client.Conversation
	input     textinput.Model
	viewport  viewport.Model
	updates   chan struct{}
	streaming bool
	status    string
	ready     bool
}

// New creates a chat model over conv.
func New(sender Sender, conv *client.Conversation) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about a professor and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	return Model{
		sender:   sender,
		conv:     conv,
		input:    ti,
		viewport: viewport.New(0, 0),
		updates:  make(chan struct{}, 1),
		status:   "Ctrl+C to quit.",
	}
}

// Init starts the cursor blink and the single update listener.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForUpdate(m.updates))
}

func waitForUpdate(updates <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-updates
		return updateMsg{}
	}
}

// send runs one exchange off the event loop; updates are coalesced so a slow
// render never blocks the stream.
func (m Model) send(text string) tea.Cmd {
	sender, conv, updates := m.sender, m.conv, m.updates
	return func() tea.Msg {
		err := sender.Send(context.Background(), conv, text, func() {
			select {
			case updates <- struct{}{}:
			default:
			}
		})
		return doneMsg{err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, fh := chatBoxStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		reserved := 1 + 1 + ih + 1 // header, status, input line
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, msg.Height-reserved-fh)
		m.refresh()
		return m, nil
	case updateMsg:
		m.refresh()
		return m, waitForUpdate(m.updates)
	case doneMsg:
		m.streaming = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
		} else {
			m.status = "Ctrl+C to quit."
		}
		m.refresh()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		if msg.Type == tea.KeyEnter {
			text := m.input.Value()
			if m.streaming || strings.TrimSpace(text) == "" {
				return m, nil
			}
			m.input.SetValue("")
			m.streaming = true
			m.status = "Thinking..."
			return m, m.send(text)
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("Rate My Professor Assistant")
	chat := chatBoxStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + chat + "\n" + input + "\n" + status
}

func (m *Model) refresh() {
	m.viewport.SetContent(renderConversation(m.conv.Messages(), m.viewport.Width))
	m.viewport.GotoBottom()
}

func renderConversation(messages []types.Message, width int) string {
	body := lipgloss.NewStyle().Width(max(10, width-2))
	var b strings.Builder
	for i, msg := range messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		switch msg.Role {
		case types.RoleUser:
			b.WriteString(userLabel.Render("You"))
		default:
			b.WriteString(assistantLabel.Render("Assistant"))
		}
		b.WriteString("\n")
		b.WriteString(body.Render(format.Terminal(msg.Content)))
	}
	return b.String()
}

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	userLabel      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	assistantLabel = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	chatBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)
