// Package application is the interactive menu layer: a thin dispatcher that
// collects input and calls into the inventory core. It holds no business
// rules; every operation ends with a status message and returns to the
// menu, whatever the outcome.
package application

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/iwin-ettumanukaran/IMS/internal/bulk"
	"github.com/iwin-ettumanukaran/IMS/internal/config"
	"github.com/iwin-ettumanukaran/IMS/internal/inventory"
	"github.com/iwin-ettumanukaran/IMS/internal/report"
)

// resultMsg carries the outcome of a finished operation back into Update.
type resultMsg struct {
	text string
	err  error
}

// Model is the bubbletea model for the whole menu session.
type Model struct {
	store   *inventory.Store
	engine  *bulk.Engine
	reports *report.Reporter
	cfg     *config.Config

	root     *Menu
	menu     *Menu
	cursor   int
	prompt   *promptSession
	status   string
	quitting bool
}

// NewModel wires the menu tree over the core services.
func NewModel(store *inventory.Store, engine *bulk.Engine, reports *report.Reporter, cfg *config.Config) *Model {
	m := &Model{
		store:   store,
		engine:  engine,
		reports: reports,
		cfg:     cfg,
	}
	m.root = buildMenuTree(m)
	m.menu = m.root
	return m
}

func (m *Model) Init() tea.Cmd { return nil }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case resultMsg:
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
		} else {
			m.status = msg.text
		}
		return m, nil

	case tea.KeyMsg:
		if m.prompt != nil {
			return m.updatePrompt(msg)
		}
		return m.updateMenu(msg)
	}
	return m, nil
}

func (m *Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.quitting = true
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.menu.Items)-1 {
			m.cursor++
		}

	case "esc":
		if m.menu.Parent != nil {
			m.menu = m.menu.Parent
			m.cursor = 0
		}

	case "enter":
		item := m.menu.Items[m.cursor]
		if item.Submenu != nil {
			m.menu = item.Submenu
			m.cursor = 0
			m.status = ""
			return m, nil
		}
		if item.Action != nil {
			return m, item.Action(m)
		}
	}
	return m, nil
}

func (m *Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := m.prompt
	switch msg.Type {
	case tea.KeyCtrlC:
		m.quitting = true
		return m, tea.Quit

	case tea.KeyEsc:
		m.prompt = nil
		m.status = "Cancelled."
		return m, nil

	case tea.KeyBackspace:
		if len(s.input) > 0 {
			s.input = s.input[:len(s.input)-1]
		}

	case tea.KeyEnter:
		done, cmd := s.commit(strings.TrimSpace(s.input))
		s.input = ""
		if done {
			m.prompt = nil
			return m, cmd
		}

	case tea.KeySpace:
		s.input += " "

	case tea.KeyRunes:
		s.input += string(msg.Runes)
	}
	return m, nil
}

func (m *Model) View() string {
	if m.quitting {
		return "Goodbye.\n"
	}
	if m.prompt != nil {
		return m.prompt.view(m.status)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", m.menu.Title)
	for i, item := range m.menu.Items {
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}
		fmt.Fprintf(&b, "%s%s\n", cursor, item.Label)
	}
	b.WriteString("\n(up/down to move, enter to select, q to quit)\n")
	if m.status != "" {
		fmt.Fprintf(&b, "\n%s\n", m.status)
	}
	return b.String()
}

// startPrompt switches the session into input mode.
func (m *Model) startPrompt(s *promptSession) tea.Cmd {
	m.prompt = s
	m.status = ""
	return nil
}

// promptSession collects line input for one operation. preLabels are asked
// once up front (e.g. the customer of a bulk sale); labels form one row.
// When multi is set, rows repeat until the first field is left blank.
type promptSession struct {
	title     string
	preLabels []string
	labels    []string
	multi     bool
	hint      string

	pre    []string
	rows   [][]string
	values []string
	input  string

	run func(pre []string, rows [][]string) (string, error)
}

// commit stores the current field value. It returns done=true with the
// command that runs the operation once the session has everything it needs.
func (s *promptSession) commit(value string) (bool, tea.Cmd) {
	if len(s.pre) < len(s.preLabels) {
		s.pre = append(s.pre, value)
		return false, nil
	}

	// A blank first field ends a multi-entry session.
	if s.multi && len(s.values) == 0 && value == "" {
		return true, s.finish()
	}

	s.values = append(s.values, value)
	if len(s.values) < len(s.labels) {
		return false, nil
	}

	s.rows = append(s.rows, s.values)
	s.values = nil
	if s.multi {
		return false, nil
	}
	return true, s.finish()
}

func (s *promptSession) finish() tea.Cmd {
	pre, rows, run := s.pre, s.rows, s.run
	return func() tea.Msg {
		text, err := run(pre, rows)
		return resultMsg{text: text, err: err}
	}
}

func (s *promptSession) currentLabel() string {
	if len(s.pre) < len(s.preLabels) {
		return s.preLabels[len(s.pre)]
	}
	return s.labels[len(s.values)]
}

func (s *promptSession) view(status string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", s.title)

	for i, v := range s.pre {
		fmt.Fprintf(&b, "  %s: %s\n", s.preLabels[i], v)
	}
	for i, v := range s.values {
		fmt.Fprintf(&b, "  %s: %s\n", s.labels[i], v)
	}
	fmt.Fprintf(&b, "  %s: %s_\n", s.currentLabel(), s.input)

	if s.multi {
		fmt.Fprintf(&b, "\n%d row(s) staged. Leave %s blank to finish.\n", len(s.rows), s.labels[0])
	}
	if s.hint != "" {
		fmt.Fprintf(&b, "\n%s\n", s.hint)
	}
	b.WriteString("\n(enter to confirm, esc to cancel)\n")
	if status != "" {
		fmt.Fprintf(&b, "\n%s\n", status)
	}
	return b.String()
}
