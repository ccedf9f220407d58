package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/wasm-loader/engine"
	"github.com/wippyai/wasm-loader/errors"
	"github.com/wippyai/wasm-loader/loader"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	kindStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#C0C0C0"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateLoading modelState = iota
	stateSelectExport
	stateInputArgs
	stateShowResult
)

// interactiveModel explores one open session: every export is listed, and
// functions can be called with typed arguments.
type interactiveModel struct {
	err      error
	ctx      context.Context
	loader   *loader.Loader
	session  *loader.Session
	result   string
	exports  []engine.Export
	inputs   []textinput.Model
	selected int
	focusIdx int
	state    modelState
}

type loadedMsg struct {
	err     error
	session *loader.Session
}

type callResultMsg struct {
	err    error
	result string
}

func newInteractiveModel(ctx context.Context, l *loader.Loader) *interactiveModel {
	return &interactiveModel{ctx: ctx, loader: l, state: stateLoading}
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.load
}

func (m *interactiveModel) load() tea.Msg {
	sess, err := m.loader.Open(m.ctx)
	return loadedMsg{err: err, session: sess}
}

func (m *interactiveModel) close() {
	if m.session != nil {
		m.session.Close(m.ctx)
		m.session = nil
	}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.close()
			return m, tea.Quit

		case "q":
			if m.state != stateInputArgs {
				m.close()
				return m, tea.Quit
			}

		case "up", "k":
			if m.state == stateSelectExport && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectExport && m.selected < len(m.exports)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectExport:
				if len(m.exports) == 0 {
					return m, nil
				}
				fn, ok := m.exports[m.selected].(*engine.Function)
				if !ok {
					return m, m.inspect
				}
				m.prepareInputs(fn)
				if len(m.inputs) == 0 {
					return m, m.call
				}
				m.state = stateInputArgs
				return m, textinput.Blink

			case stateInputArgs:
				return m, m.call

			case stateShowResult:
				m.reset()
			}

		case "tab":
			if m.state == stateInputArgs && len(m.inputs) > 1 {
				m.inputs[m.focusIdx].Blur()
				m.focusIdx = (m.focusIdx + 1) % len(m.inputs)
				m.inputs[m.focusIdx].Focus()
			}

		case "esc":
			switch m.state {
			case stateInputArgs:
				m.state = stateSelectExport
				m.inputs = nil
			case stateShowResult:
				m.reset()
			}
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.session = msg.session
		m.exports = msg.session.Exports().All()
		m.state = stateSelectExport

	case callResultMsg:
		m.result = msg.result
		m.err = msg.err
		m.state = stateShowResult
	}

	if m.state == stateInputArgs {
		var cmds []tea.Cmd
		for i := range m.inputs {
			var cmd tea.Cmd
			m.inputs[i], cmd = m.inputs[i].Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m *interactiveModel) reset() {
	m.state = stateSelectExport
	m.inputs = nil
	m.result = ""
	m.err = nil
}

func (m *interactiveModel) prepareInputs(fn *engine.Function) {
	params := fn.Params()
	m.inputs = make([]textinput.Model, len(params))
	for i, p := range params {
		ti := textinput.New()
		ti.Placeholder = p.String()
		ti.Prompt = fmt.Sprintf("arg%d: ", i)
		ti.Width = 40
		if i == 0 {
			ti.Focus()
		}
		m.inputs[i] = ti
	}
	m.focusIdx = 0
}

// call parses the inputs against the selected function's parameter types
// and calls it on the open instance.
func (m *interactiveModel) call() tea.Msg {
	fn, ok := m.exports[m.selected].(*engine.Function)
	if !ok {
		return callResultMsg{err: fmt.Errorf("%s is not a function", m.exports[m.selected].Name())}
	}

	params := fn.Params()
	args := make([]engine.Value, len(m.inputs))
	for i, input := range m.inputs {
		text := strings.TrimSpace(input.Value())
		if text == "" {
			text = "0"
		}
		v, err := engine.ParseValue(params[i], text)
		if err != nil {
			return callResultMsg{err: fmt.Errorf("arg%d: %w", i, err)}
		}
		args[i] = v
	}

	values, err := fn.Call(m.ctx, args...)
	if err != nil {
		return callResultMsg{err: err}
	}
	return callResultMsg{result: loader.FormatValues(values)}
}

// inspect reports the current state of a non-function export.
func (m *interactiveModel) inspect() tea.Msg {
	switch x := m.exports[m.selected].(type) {
	case *engine.Memory:
		return callResultMsg{result: fmt.Sprintf("%d pages (%d bytes)", x.Pages(), x.Size())}
	case *engine.Global:
		mut := "const"
		if x.Mutable() {
			mut = "mut"
		}
		return callResultMsg{result: fmt.Sprintf("%s %s = %s", mut, x.Type(), x.Value())}
	default:
		return callResultMsg{result: string(x.Kind())}
	}
}

func (m *interactiveModel) View() string {
	if m.err != nil && m.state != stateShowResult {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\n%s\n\nPress q to quit.", m.err, errors.Trace(m.err)))
	}

	if m.state == stateLoading {
		return "Loading module..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("WASM Loader"))
	b.WriteString(" ")
	b.WriteString(m.loader.Path())
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectExport:
		if len(m.exports) == 0 {
			b.WriteString("The module has no exports.\n\n")
			b.WriteString(helpStyle.Render("q quit"))
			break
		}
		b.WriteString("Select an export:\n\n")
		for i, x := range m.exports {
			line := formatExport(x)
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter call/inspect • q quit"))

	case stateInputArgs:
		fn := m.exports[m.selected].(*engine.Function)
		b.WriteString(fmt.Sprintf("Calling %s\n\n", funcStyle.Render(fn.Name())))
		params := fn.Params()
		for i, input := range m.inputs {
			b.WriteString(input.View())
			b.WriteString(" ")
			b.WriteString(typeStyle.Render(params[i].String()))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab next field • enter call • esc back"))

	case stateShowResult:
		x := m.exports[m.selected]
		b.WriteString(fmt.Sprintf("Result of %s:\n\n", funcStyle.Render(x.Name())))
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

func formatExport(x engine.Export) string {
	name := funcStyle.Render(x.Name())
	if fn, ok := x.(*engine.Function); ok {
		return name + " " + typeStyle.Render(fn.Signature())
	}
	return name + " " + kindStyle.Render(string(x.Kind()))
}

func runInteractive(ctx context.Context, l *loader.Loader) error {
	m := newInteractiveModel(ctx, l)
	defer m.close()
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
