// Package tui provides terminal user interface components for containify
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/containify/containify/internal/registry"
)

// Action represents the action to take after picker selection
type Action int

const (
	ActionNone Action = iota
	ActionShell
	ActionDestroy
	ActionQuit
)

// PickerResult holds the result of the picker
type PickerResult struct {
	Action Action
	Record *registry.Record
}

// containerItem implements list.Item for container display
type containerItem struct {
	record registry.Record
}

func (i containerItem) Title() string {
	return i.record.Name
}

func (i containerItem) Description() string {
	statusIcon := "●"
	switch i.record.Status {
	case registry.StatusReady:
		statusIcon = "✓"
	case registry.StatusStale:
		statusIcon = "⚠"
	}

	return fmt.Sprintf("%s %s | %s | %s | %s",
		statusIcon,
		i.record.Backend,
		i.record.Resources.String(),
		i.record.Enforcement,
		truncatePath(i.record.Workspace, 30),
	)
}

func (i containerItem) FilterValue() string {
	return i.record.Name
}

func truncatePath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}
	return "..." + path[len(path)-maxLen+3:]
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			MarginBottom(1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)
)

// Model is the bubbletea model for the container picker
type Model struct {
	list     list.Model
	result   PickerResult
	quitting bool
	width    int
	height   int
}

// NewPicker creates a new container picker
func NewPicker(records []registry.Record) Model {
	items := make([]list.Item, len(records))
	for i, rec := range records {
		items[i] = containerItem{record: rec}
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = selectedStyle
	delegate.Styles.SelectedDesc = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	l := list.New(items, delegate, 80, 20)
	l.Title = "Containify - Select Container"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle

	return Model{
		list: l,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, msg.Height-4)
		return m, nil

	case tea.KeyMsg:
		// Don't handle keys if filtering
		if m.list.FilterState() == list.Filtering {
			break
		}

		switch msg.String() {
		case "enter":
			if item, ok := m.list.SelectedItem().(containerItem); ok {
				rec := item.record
				m.result = PickerResult{
					Action: ActionShell,
					Record: &rec,
				}
				m.quitting = true
				return m, tea.Quit
			}

		case "d":
			if item, ok := m.list.SelectedItem().(containerItem); ok {
				rec := item.record
				m.result = PickerResult{
					Action: ActionDestroy,
					Record: &rec,
				}
				m.quitting = true
				return m, tea.Quit
			}

		case "q", "esc":
			m.result = PickerResult{Action: ActionQuit}
			m.quitting = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	help := helpStyle.Render("[enter] Shell  [d] Destroy  [/] Filter  [q] Quit")

	return m.list.View() + "\n" + help
}

// Result returns the picker result
func (m Model) Result() PickerResult {
	return m.result
}

// RunPicker runs the interactive container picker
func RunPicker(records []registry.Record) (PickerResult, error) {
	if len(records) == 0 {
		return PickerResult{Action: ActionQuit}, nil
	}

	m := NewPicker(records)
	p := tea.NewProgram(m, tea.WithAltScreen())

	finalModel, err := p.Run()
	if err != nil {
		return PickerResult{}, err
	}

	return finalModel.(Model).Result(), nil
}

// SimplePicker is a non-interactive picker that just lists containers
func SimplePicker(records []registry.Record) string {
	var sb strings.Builder

	sb.WriteString("Containify - Containers\n")
	sb.WriteString(strings.Repeat("─", 60) + "\n\n")

	if len(records) == 0 {
		sb.WriteString("No containers found.\n")
		sb.WriteString("Create one with: containify create <name>\n")
		return sb.String()
	}

	for i, rec := range records {
		statusIcon := "●"
		switch rec.Status {
		case registry.StatusReady:
			statusIcon = "✓"
		case registry.StatusStale:
			statusIcon = "⚠"
		}

		sb.WriteString(fmt.Sprintf("%d. %s %s (%s)\n",
			i+1, statusIcon, rec.Name, rec.Backend))
		sb.WriteString(fmt.Sprintf("   Resources: %s | Workspace: %s\n\n",
			rec.Resources.String(), truncatePath(rec.Workspace, 40)))
	}

	return sb.String()
}
