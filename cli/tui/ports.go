package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/justapithecus/serialcat/serial"
)

// PortsModel is a Bubble Tea model browsing discovered serial ports.
type PortsModel struct {
	ports    []serial.PortInfo
	cursor   int
	width    int
	height   int
	quitting bool
}

// NewPortsModel creates a new ports model.
func NewPortsModel(ports []serial.PortInfo) PortsModel {
	return PortsModel{ports: ports}
}

// Cursor returns the index of the highlighted port.
func (m PortsModel) Cursor() int { return m.cursor }

// Init implements tea.Model.
func (m PortsModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m PortsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.ports)-1 {
				m.cursor++
			}
		}
	}

	return m, nil
}

// View implements tea.Model.
func (m PortsModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render(fmt.Sprintf("Serial Ports (%d)", len(m.ports))))
	b.WriteString("\n")

	if len(m.ports) == 0 {
		b.WriteString(ValueStyle.Render("No serial ports found"))
		b.WriteString("\n")
		b.WriteString(HelpStyle.Render("Press q or Ctrl+C to quit"))
		return b.String()
	}

	list := m.renderList()
	detail := m.renderDetail(m.ports[m.cursor])
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, list, "  ", detail))
	b.WriteString("\n")
	b.WriteString(HelpStyle.Render("↑/k up • ↓/j down • q quit"))
	return b.String()
}

func (m PortsModel) renderList() string {
	var b strings.Builder
	for i, p := range m.ports {
		marker := "  "
		name := ValueStyle.Render(p.Path)
		if i == m.cursor {
			marker = "> "
			name = SelectedStyle.Render(p.Path)
		}
		fmt.Fprintf(&b, "%s%s %s\n", marker, name, KindStyle(p.Kind).Render(string(p.Kind)))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (m PortsModel) renderDetail(p serial.PortInfo) string {
	rows := [][]string{
		{"Path", p.Path},
		{"Kind", string(p.Kind)},
	}
	if p.USB {
		rows = append(rows, []string{"USB ID", p.USBID()})
	}
	if p.Serial != "" {
		rows = append(rows, []string{"Serial", p.Serial})
	}
	if p.Product != "" {
		rows = append(rows, []string{"Product", p.Product})
	}

	var b strings.Builder
	for _, row := range rows {
		fmt.Fprintf(&b, "%s %s\n", LabelStyle.Render(row[0]+":"), ValueStyle.Render(row[1]))
	}
	return BoxStyle.Render(strings.TrimSuffix(b.String(), "\n"))
}

// keyMap defines key bindings.
type keyMap struct {
	Quit key.Binding
	Up   key.Binding
	Down key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
}

// RunPortsTUI runs the port browser.
func RunPortsTUI(ports []serial.PortInfo) error {
	p := tea.NewProgram(NewPortsModel(ports), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
