// ABOUTME: Bubble Tea chat for asking questions about one ingested document
// ABOUTME: Questions run as commands so the UI stays responsive while the model answers
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harper/ragdoc/internal/models"
)

// AskFunc answers a question against the loaded document
type AskFunc func(ctx context.Context, question string) (models.Answer, error)

type exchange struct {
	question string
	answer   models.Answer
	err      error
}

type answerMsg struct {
	exchange
}

// Model is the Bubble Tea model for the chat
type Model struct {
	ask        AskFunc
	ctx        context.Context
	documentID string

	input      textinput.Model
	viewport   viewport.Model
	history    []exchange
	status     string
	busy       bool
	ready      bool
	showSource bool
}

// New creates a chat over documentID. ctx bounds every question.
func New(ctx context.Context, documentID string, ask AskFunc) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about the document and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	return Model{
		ask:        ask,
		ctx:        ctx,
		documentID: documentID,
		input:      ti,
		viewport:   viewport.New(0, 0),
		status:     "Ready. Ctrl+S toggles sources, Esc quits.",
	}
}

// Init starts the cursor blink
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles keys, window sizes, and finished answers
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, fh := transcriptStyle.GetFrameSize()
		_, ih := inputStyle.GetFrameSize()
		// header, status, and the one-line input
		vh := msg.Height - 2 - fh - ih - 1
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, vh)
		m.refresh()
		return m, nil

	case answerMsg:
		m.busy = false
		m.history = append(m.history, msg.exchange)
		m.status = statusLine(msg.exchange)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyCtrlS:
			m.showSource = !m.showSource
			m.refresh()
			return m, nil
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		case tea.KeyEnter:
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.busy {
				return m, nil
			}
			m.busy = true
			m.status = "Thinking..."
			m.input.SetValue("")
			return m, m.askCmd(q)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) askCmd(question string) tea.Cmd {
	ask, ctx := m.ask, m.ctx
	return func() tea.Msg {
		ans, err := ask(ctx, question)
		return answerMsg{exchange{question: question, answer: ans, err: err}}
	}
}

// View renders the header, transcript, input, and status line
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("ragdoc") + " " + dimStyle.Render(m.documentID)
	return header + "\n" +
		transcriptStyle.Render(m.viewport.View()) + "\n" +
		inputStyle.Render(m.input.View()) + "\n" +
		statusStyle.Render(m.status)
}

// Transcript renders the conversation so far without styling
func (m Model) Transcript() string {
	return m.renderHistory(false)
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderHistory(true))
	m.viewport.GotoBottom()
}

func (m Model) renderHistory(styled bool) string {
	if len(m.history) == 0 {
		return "No questions yet."
	}
	render := func(s lipgloss.Style, text string) string {
		if styled {
			return s.Render(text)
		}
		return text
	}

	var b strings.Builder
	for i, ex := range m.history {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(render(questionStyle, "Q: "+ex.question))
		b.WriteString("\n")
		if ex.err != nil {
			b.WriteString(render(errorStyle, "Error: "+ex.err.Error()))
			continue
		}
		b.WriteString("A: " + ex.answer.Answer)
		if m.showSource {
			for j, src := range ex.answer.Sources {
				b.WriteString("\n")
				b.WriteString(render(dimStyle, fmt.Sprintf("  [%d] %s", j+1, truncate(src, 160))))
			}
		}
	}
	return b.String()
}

func statusLine(ex exchange) string {
	if ex.err != nil {
		return "Error: " + ex.err.Error()
	}
	switch ex.answer.Status {
	case models.AnswerOK:
		return fmt.Sprintf("Answered from %d passages.", len(ex.answer.Sources))
	case models.AnswerGenerationFailed:
		return "Model unavailable; showing retrieved passages."
	default:
		return string(ex.answer.Status)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// Run opens the chat on the terminal and blocks until the user quits
func Run(ctx context.Context, documentID string, ask AskFunc) error {
	p := tea.NewProgram(New(ctx, documentID, ask), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

var (
	headerStyle     = lipgloss.NewStyle().Bold(true)
	dimStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	questionStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	transcriptStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)
