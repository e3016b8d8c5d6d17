package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"estateqa/internal/domain"
)

// QAPort is the TUI-facing subset of the pipeline: one question in, one
// answer out.
type QAPort interface {
	Answer(ctx context.Context, question string) domain.Answer
}

// Model is the Bubble Tea model for the assistant.
type Model struct {
	service     QAPort
	input       textinput.Model
	viewport    viewport.Model
	answer      domain.Answer
	answered    bool
	showSources bool
	status      string
	ready       bool
}

// New creates a new TUI model instance.
func New(service QAPort) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "e.g. What is the average price in Salamanca?"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{service: service, input: ti, viewport: vp, status: "Ask about listings, prices or neighborhoods. Tab toggles sources."}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		// account for frames around answer and query boxes
		_, ah := answerBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 1 + 1 + qh + 1 // header + status + query box + spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-ah)
		m.viewport.SetContent(m.renderAnswer())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" {
				m.answer = m.service.Answer(context.Background(), q)
				m.answered = true
				if m.answer.Status == domain.StatusOK {
					m.status = fmt.Sprintf("Answered from %d listings", len(m.answer.Sources))
				} else {
					m.status = "Failed"
				}
				m.viewport.SetContent(m.renderAnswer())
				return m, nil
			}
		case "tab":
			m.showSources = !m.showSources
			m.viewport.SetContent(m.renderAnswer())
			return m, nil
		case "up":
			m.viewport.LineUp(1)
			return m, nil
		case "down":
			m.viewport.LineDown(1)
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the TUI layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Madrid Real Estate Assistant")
	answer := answerBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle(m.answer).Render(m.status)
	return header + "\n" + answer + "\n" + input + "\n" + status
}

func (m Model) renderAnswer() string {
	if !m.answered {
		return "No answer yet. Type a question and press Enter."
	}
	var b strings.Builder
	if m.answer.Status == domain.StatusFailed {
		b.WriteString(errorStyle.Render(m.answer.Text))
	} else {
		b.WriteString(m.answer.Text)
	}
	if m.showSources && len(m.answer.Sources) > 0 {
		b.WriteString("\n\n")
		b.WriteString(sourceHeaderStyle.Render("Retrieved listings:"))
		for _, d := range m.answer.Sources {
			b.WriteString("\n")
			b.WriteString(d.Text)
		}
	}
	return b.String()
}

var (
	answerBoxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	sourceHeaderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Bold(true)
	errorStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	okStatusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errStatusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func statusStyle(a domain.Answer) lipgloss.Style {
	if a.Status == domain.StatusFailed {
		return errStatusStyle
	}
	return okStatusStyle
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
