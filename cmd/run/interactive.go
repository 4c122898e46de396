package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/component-runtime/mount"
	"github.com/wippyai/component-runtime/protocol"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	tagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	attrStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// valueProps are callback props that take the text of an input.
var valueProps = map[string]bool{"onInput": true, "onChange": true}

type interactiveModel struct {
	app      *app
	tree     *protocol.Node
	input    textinput.Model
	status   string
	root     string
	bindings []mount.Binding
	selected int
	editing  bool
}

// changedMsg reports that the mounted tree changed.
type changedMsg struct{}

type dispatchedMsg struct {
	err    error
	method string
}

func newInteractiveModel(a *app, root string) *interactiveModel {
	ti := textinput.New()
	ti.Prompt = "value: "
	ti.Width = 40
	return &interactiveModel{app: a, root: root, input: ti}
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.refresh()
}

// refresh reads the tree and waits for the next change. The channel is
// taken first so a change in between is not missed.
func (m *interactiveModel) refresh() tea.Cmd {
	changed := m.app.memory.Changed()
	m.tree, _ = m.app.memory.Tree(m.root)
	m.bindings = nil
	if m.tree != nil {
		m.bindings = mount.Bindings(m.tree)
	}
	if m.selected >= len(m.bindings) {
		m.selected = max(len(m.bindings)-1, 0)
	}
	return func() tea.Msg {
		<-changed
		return changedMsg{}
	}
}

func (m *interactiveModel) dispatch(b mount.Binding, args []any) tea.Cmd {
	return func() tea.Msg {
		return dispatchedMsg{method: b.Method, err: m.app.bridge.DispatchDOMCallback(b.Method, args)}
	}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.editing {
			switch msg.String() {
			case "enter":
				m.editing = false
				m.input.Blur()
				b := m.bindings[m.selected]
				event := map[string]any{"target": map[string]any{"value": m.input.Value()}}
				return m, m.dispatch(b, []any{event})
			case "esc":
				m.editing = false
				m.input.Blur()
				return m, nil
			}
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.selected < len(m.bindings)-1 {
				m.selected++
			}

		case "enter":
			if len(m.bindings) == 0 {
				return m, nil
			}
			b := m.bindings[m.selected]
			if valueProps[b.Prop] {
				m.editing = true
				m.input.SetValue("")
				m.input.Focus()
				return m, textinput.Blink
			}
			return m, m.dispatch(b, nil)
		}

	case changedMsg:
		return m, m.refresh()

	case dispatchedMsg:
		if msg.err != nil {
			m.status = errorStyle.Render(fmt.Sprintf("Error: %v", msg.err))
		} else {
			m.status = "sent " + msg.method
		}
	}
	return m, nil
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Component Runner"))
	b.WriteString(" ")
	b.WriteString(m.root)
	b.WriteString("\n\n")

	if m.tree == nil {
		if err := m.app.memory.Err(m.root); err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", err)))
		} else {
			b.WriteString("Rendering...")
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("q quit"))
		return b.String()
	}

	writeTree(&b, m.tree, 0)
	b.WriteString("\n")

	if len(m.bindings) == 0 {
		b.WriteString("No callbacks in this tree.\n")
	} else {
		b.WriteString("Callbacks:\n\n")
		for i, bd := range m.bindings {
			line := fmt.Sprintf("<%s> %s %q", bd.Type, bd.Prop, bd.Label)
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")

	if m.editing {
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter send • esc cancel"))
	} else {
		if m.status != "" {
			b.WriteString(m.status)
			b.WriteString("\n\n")
		}
		b.WriteString(helpStyle.Render("↑/↓ select • enter fire • q quit"))
	}
	return b.String()
}

// writeTree prints n indented, one element per line.
func writeTree(b *strings.Builder, n *protocol.Node, depth int) {
	indent := strings.Repeat("  ", depth)
	b.WriteString(indent)
	b.WriteString(tagStyle.Render("<" + n.Type + ">"))
	if _, ok := protocol.PlaceholderID(n); ok {
		b.WriteString(" ")
		b.WriteString(attrStyle.Render(fmt.Sprint(n.Props["data-component-src"])))
	}
	if msg, ok := n.Props["data-error"]; ok {
		b.WriteString(" ")
		b.WriteString(errorStyle.Render(fmt.Sprint(msg)))
	}
	b.WriteString("\n")
	for _, c := range n.Children {
		if child, ok := c.(*protocol.Node); ok {
			writeTree(b, child, depth+1)
			continue
		}
		b.WriteString(indent + "  " + fmt.Sprint(c) + "\n")
	}
}

func runInteractive(a *app, root string) error {
	p := tea.NewProgram(newInteractiveModel(a, root), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
