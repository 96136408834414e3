package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	providerdto "sleeptrack/internal/modules/provider/dto"
	"sleeptrack/internal/ui/theme"
)

// Port is the minimal interface this view needs from the provider use-case.
type Port interface {
	Doctor(ctx context.Context) ([]providerdto.DoctorResult, error)
}

// CheckedMsg is sent when the provider health check finishes.
type CheckedMsg struct {
	Results []providerdto.DoctorResult
	Err     error
}

type providerItem struct{ result providerdto.DoctorResult }

func (i providerItem) Title() string { return i.result.Name }
func (i providerItem) Description() string {
	if i.result.Error != "" {
		return i.result.Status + ": " + i.result.Error
	}
	return i.result.Status
}
func (i providerItem) FilterValue() string { return i.result.Name }

type Model struct {
	port    Port
	list    list.Model
	spinner spinner.Model
	loading bool
	width   int
	height  int
}

func New(port Port) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Lavender).BorderForeground(theme.Lavender)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(theme.Sapphire).BorderForeground(theme.Lavender)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Providers"
	l.Styles.Title = theme.Title
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)

	return Model{port: port, list: l, spinner: sp}
}

// Check runs the provider health check. Launching providers is slow, so the
// tab only does it on demand.
func (m *Model) Check() tea.Cmd {
	m.loading = true
	port := m.port
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		if port == nil {
			return CheckedMsg{Err: fmt.Errorf("providers not configured")}
		}
		results, err := port.Doctor(context.Background())
		return CheckedMsg{Results: results, Err: err}
	})
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(m.width, m.height-2)

	case CheckedMsg:
		m.loading = false
		if msg.Err != nil {
			m.list.Title = "Providers: " + msg.Err.Error()
			return m, nil
		}
		m.list.Title = "Providers"
		items := make([]list.Item, len(msg.Results))
		for i, result := range msg.Results {
			items[i] = providerItem{result: result}
		}
		cmds = append(cmds, m.list.SetItems(items))

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	if !m.loading {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if m.loading {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Checking providers…")
	}
	var sb strings.Builder
	sb.WriteString(m.list.View())
	sb.WriteString("\n" + theme.Muted.Render("r: re-check  :sync <provider> to import"))
	return sb.String()
}

func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

// Selected returns the highlighted provider name.
func (m Model) Selected() (string, bool) {
	if item, ok := m.list.SelectedItem().(providerItem); ok {
		return item.result.Name, true
	}
	return "", false
}
