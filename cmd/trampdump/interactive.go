package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/wippyai/trampoline"
	"github.com/wippyai/trampoline/abi"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	mnemonicStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	hexStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateEditSignature modelState = iota
	stateShowDump
)

const (
	fieldDirection = iota
	fieldReturn
	fieldThis
	fieldParams
	fieldOptions
	fieldCount
)

type interactiveModel struct {
	err     error
	table   uintptr
	inputs  []textinput.Model
	preview *trampoline.Preview
	width   int
	focus   int
	state   modelState
}

type dumpMsg struct {
	err     error
	preview *trampoline.Preview
}

func newInteractiveModel(table uintptr) *interactiveModel {
	labels := [fieldCount]struct {
		prompt      string
		placeholder string
		initial     string
	}{
		fieldDirection: {"direction: ", "native or host", "native"},
		fieldReturn:    {"return: ", "void, int32, f64, utf8, pointer ...", "void"},
		fieldThis:      {"this: ", "empty, pointer, buffer", ""},
		fieldParams:    {"params: ", "comma-separated kinds", ""},
		fieldOptions:   {"options: ", "sret, nullable-return, nullable-this, nullable-params", ""},
	}

	m := &interactiveModel{table: table, state: stateEditSignature, width: 80}
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		m.width = w
	}
	m.inputs = make([]textinput.Model, fieldCount)
	for i, l := range labels {
		ti := textinput.New()
		ti.Prompt = l.prompt
		ti.Placeholder = l.placeholder
		ti.SetValue(l.initial)
		ti.Width = 50
		if i == 0 {
			ti.Focus()
		}
		m.inputs[i] = ti
	}
	return m
}

func (m *interactiveModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *interactiveModel) generate() tea.Msg {
	opts, err := parseOptions(m.inputs[fieldOptions].Value())
	if err != nil {
		return dumpMsg{err: err}
	}
	ret, err := parseKind(valueOr(m.inputs[fieldReturn].Value(), "void"))
	if err != nil {
		return dumpMsg{err: err}
	}
	params, err := parseKinds(strings.TrimSpace(m.inputs[fieldParams].Value()))
	if err != nil {
		return dumpMsg{err: err}
	}
	if this := strings.TrimSpace(m.inputs[fieldThis].Value()); this != "" {
		t, err := parseKind(this)
		if err != nil {
			return dumpMsg{err: err}
		}
		opts.This = t
	}

	g, err := trampoline.New(trampoline.Config{Table: abi.Table{Base: m.table}})
	if err != nil {
		return dumpMsg{err: err}
	}

	var p *trampoline.Preview
	switch dir := valueOr(m.inputs[fieldDirection].Value(), "native"); dir {
	case "native":
		p, err = g.PreviewNativeWrapper(trampoline.Direct(0x1000), ret, opts, params...)
	case "host":
		p, err = g.PreviewHostFunctionWrapper(ret, opts, params...)
	default:
		err = fmt.Errorf("unknown direction %q", dir)
	}
	if err != nil {
		return dumpMsg{err: err}
	}
	return dumpMsg{preview: p}
}

func parseOptions(s string) (trampoline.Options, error) {
	var opts trampoline.Options
	for _, word := range strings.Fields(strings.ReplaceAll(s, ",", " ")) {
		switch word {
		case "sret":
			opts.StructureReturn = true
		case "nullable-return":
			opts.NullableReturn = true
		case "nullable-this":
			opts.NullableThis = true
		case "nullable-params":
			opts.NullableParams = true
		default:
			return opts, fmt.Errorf("unknown option %q", word)
		}
	}
	return opts, nil
}

func valueOr(v, fallback string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return fallback
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if m.state == stateShowDump {
				m.state = stateEditSignature
				m.preview = nil
				m.err = nil
				return m, nil
			}
			return m, tea.Quit

		case "tab", "down":
			if m.state == stateEditSignature {
				m.inputs[m.focus].Blur()
				m.focus = (m.focus + 1) % len(m.inputs)
				m.inputs[m.focus].Focus()
				return m, nil
			}

		case "shift+tab", "up":
			if m.state == stateEditSignature {
				m.inputs[m.focus].Blur()
				m.focus = (m.focus + len(m.inputs) - 1) % len(m.inputs)
				m.inputs[m.focus].Focus()
				return m, nil
			}

		case "enter":
			switch m.state {
			case stateEditSignature:
				return m, m.generate
			case stateShowDump:
				m.state = stateEditSignature
				m.preview = nil
				m.err = nil
			}

		case "esc":
			if m.state == stateShowDump {
				m.state = stateEditSignature
				m.preview = nil
				m.err = nil
			}
		}

	case dumpMsg:
		m.err = msg.err
		m.preview = msg.preview
		m.state = stateShowDump
	}

	if m.state == stateEditSignature {
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

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Trampoline Dump"))
	b.WriteString("\n\n")

	switch m.state {
	case stateEditSignature:
		b.WriteString(labelStyle.Render("Describe a signature:"))
		b.WriteString("\n\n")
		for i, input := range m.inputs {
			if i == m.focus {
				b.WriteString(selectedStyle.Render("> "))
			} else {
				b.WriteString("  ")
			}
			b.WriteString(input.View())
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab/↑/↓ field • enter generate • q quit"))

	case stateShowDump:
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
			b.WriteString("\n\n")
			b.WriteString(helpStyle.Render("enter/esc back • ctrl+c quit"))
			break
		}
		fmt.Fprintf(&b, "%s %d bytes\n\n", labelStyle.Render("Generated:"), len(m.preview.Code))
		for _, line := range m.preview.Listing {
			if strings.HasSuffix(line, ":") {
				b.WriteString(line)
			} else {
				b.WriteString("    " + mnemonicStyle.Render(line))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(hexStyle.Render(hexDump(m.preview.Code, hexWidth(m.width))))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter/esc back • ctrl+c quit"))
	}

	return b.String()
}

// hexWidth fits "%04x:" plus 3 characters per byte into the terminal width.
func hexWidth(cols int) int {
	per := (cols - 6) / 3
	switch {
	case per >= 16:
		return 16
	case per >= 8:
		return 8
	default:
		return 4
	}
}

func runInteractive(table uintptr) error {
	p := tea.NewProgram(newInteractiveModel(table), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
