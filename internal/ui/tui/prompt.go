package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/klauern/dirsync/internal/config"
	"github.com/klauern/dirsync/internal/validation"
)

// AbortInput typed at any step abandons the prompt.
const AbortInput = "-1"

// PromptAction represents the outcome of the setup prompt.
type PromptAction int

const (
	// PromptActionNone means the user aborted.
	PromptActionNone PromptAction = iota
	// PromptActionStart means every value was entered and validated.
	PromptActionStart
)

// PromptResult contains the values collected by the setup prompt.
type PromptResult struct {
	Action   PromptAction
	Source   string
	Replica  string
	Interval time.Duration
}

type promptStep int

const (
	promptStepSource promptStep = iota
	promptStepReplica
	promptStepInterval
)

type promptKeyMap struct {
	Submit key.Binding
	Back   key.Binding
	Quit   key.Binding
}

func defaultPromptKeyMap() promptKeyMap {
	return promptKeyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "confirm"),
		),
		Back: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("esc", "ctrl+c"),
			key.WithHelp("esc", "quit"),
		),
	}
}

var promptStyles = struct {
	Title     lipgloss.Style
	Label     lipgloss.Style
	Summary   lipgloss.Style
	Highlight lipgloss.Style
	Error     lipgloss.Style
	Help      lipgloss.Style
}{
	Title:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")).Padding(0, 1),
	Label:     lipgloss.NewStyle().Bold(true).Padding(0, 1),
	Summary:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Padding(0, 2),
	Highlight: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2")),
	Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Padding(0, 1),
	Help:      lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Padding(0, 1),
}

// PromptModel is the BubbleTea model that asks for the source directory,
// the replica directory and the synchronization frequency in turn.
type PromptModel struct {
	input    textinput.Model
	step     promptStep
	keys     promptKeyMap
	preset   PromptResult
	source   string
	replica  string
	err      string
	result   PromptResult
	width    int
	quitting bool
}

// NewPromptModel creates a prompt. Non-empty fields of preset pre-fill
// their step.
func NewPromptModel(preset PromptResult) PromptModel {
	input := textinput.New()
	input.Prompt = "> "
	input.CharLimit = 4096
	input.Focus()

	m := PromptModel{
		input:  input,
		keys:   defaultPromptKeyMap(),
		preset: preset,
	}
	m.enterStep(promptStepSource)
	return m
}

// Init implements tea.Model.
func (m PromptModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m PromptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Back):
			if m.step > promptStepSource {
				m.enterStep(m.step - 1)
			}
			return m, nil
		case key.Matches(msg, m.keys.Submit):
			return m.submit()
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *PromptModel) enterStep(step promptStep) {
	m.step = step
	m.err = ""
	switch step {
	case promptStepSource:
		m.input.Placeholder = "/path/to/source"
		m.input.SetValue(firstNonEmpty(m.source, m.preset.Source))
	case promptStepReplica:
		m.input.Placeholder = "/path/to/replica"
		m.input.SetValue(firstNonEmpty(m.replica, m.preset.Replica))
	case promptStepInterval:
		m.input.Placeholder = "60"
		if m.preset.Interval > 0 {
			m.input.SetValue(config.Duration(m.preset.Interval).String())
		} else {
			m.input.SetValue("")
		}
	}
	m.input.CursorEnd()
}

func (m PromptModel) submit() (tea.Model, tea.Cmd) {
	value := unquote(strings.TrimSpace(m.input.Value()))
	if value == AbortInput {
		m.quitting = true
		return m, tea.Quit
	}

	switch m.step {
	case promptStepSource:
		source, err := validation.ValidateDir(validation.FieldSource, value)
		if err != nil {
			m.err = describe(err)
			return m, nil
		}
		m.source = source
		m.enterStep(promptStepReplica)

	case promptStepReplica:
		_, replica, err := validation.ValidatePair(m.source, value)
		if err != nil {
			m.err = describe(err)
			return m, nil
		}
		m.replica = replica
		m.enterStep(promptStepInterval)

	case promptStepInterval:
		d, err := config.ParseDuration(value)
		if err == nil {
			err = validation.ValidateInterval(d.Std())
		}
		if err != nil {
			m.err = describe(err)
			return m, nil
		}
		m.result = PromptResult{
			Action:   PromptActionStart,
			Source:   m.source,
			Replica:  m.replica,
			Interval: d.Std(),
		}
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

// View implements tea.Model.
func (m PromptModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(promptStyles.Title.Render("dirsync - Synchronization setup"))
	b.WriteString("\n\n")

	if summary := m.summary(); summary != "" {
		b.WriteString(promptStyles.Summary.Render(summary))
		b.WriteString("\n\n")
	}

	b.WriteString(promptStyles.Label.Render(m.label()))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")

	if m.err != "" {
		b.WriteString("\n")
		b.WriteString(promptStyles.Error.Render(formatDetail("Error: ", m.err, m.width-2)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	keys := []string{"enter confirm", "shift+tab back", "esc quit", fmt.Sprintf("%q quit", AbortInput)}
	b.WriteString(promptStyles.Help.Render(strings.Join(keys, " • ")))
	return b.String()
}

// Result returns the prompt outcome after the program exits.
func (m PromptModel) Result() PromptResult {
	return m.result
}

func (m PromptModel) label() string {
	switch m.step {
	case promptStepSource:
		return "Source directory"
	case promptStepReplica:
		return "Replica directory"
	case promptStepInterval:
		return "Synchronization frequency (seconds, or a duration such as 90s)"
	default:
		return ""
	}
}

func (m PromptModel) summary() string {
	width := 60
	if m.width > 0 {
		width = m.width / 2
	}
	parts := make([]string, 0, 2)
	if m.step > promptStepSource {
		parts = append(parts, "Source: "+promptStyles.Highlight.Render(truncatePath(m.source, width)))
	}
	if m.step > promptStepReplica {
		parts = append(parts, "Replica: "+promptStyles.Highlight.Render(truncatePath(m.replica, width)))
	}
	return strings.Join(parts, "  |  ")
}

// RunPrompt runs the setup prompt and returns what the user entered.
func RunPrompt(preset PromptResult) (PromptResult, error) {
	final, err := Run(NewPromptModel(preset))
	if err != nil {
		return PromptResult{}, err
	}
	return final.(PromptModel).Result(), nil
}

// describe strips the validation prefix so only the reason is shown inline.
func describe(err error) string {
	var vErr *validation.Error
	if errors.As(err, &vErr) {
		return vErr.Message
	}
	return err.Error()
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
