package days

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	insightdto "sleeptrack/internal/modules/insight/dto"
	"sleeptrack/internal/platform/interval"
	"sleeptrack/internal/ui/theme"
)

// DefaultWindow is the number of trailing days shown on open.
const DefaultWindow = 14

// ─── port ────────────────────────────────────────────────────────────────────

type Port interface {
	Days(ctx context.Context, input insightdto.RangeInput) ([]insightdto.DaySummaryOutput, error)
	Stats(ctx context.Context, input insightdto.RangeInput) (insightdto.PeriodStatsOutput, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

type LoadedMsg struct {
	Days  []insightdto.DaySummaryOutput
	Stats insightdto.PeriodStatsOutput
	Err   error
}

// ─── list item ───────────────────────────────────────────────────────────────

type dayItem struct {
	day insightdto.DaySummaryOutput
}

func (i dayItem) Title() string { return i.day.DateLabel }
func (i dayItem) Description() string {
	return fmt.Sprintf("%s  %d%%  %s", interval.FormatMinutes(i.day.TotalMinutes), i.day.QualityPercent, theme.Tier(i.day.QualityTier).Render(i.day.QualityTier))
}
func (i dayItem) FilterValue() string { return i.day.DateLabel }

// ─── model ───────────────────────────────────────────────────────────────────

type Model struct {
	port    Port
	window  int
	list    list.Model
	detail  viewport.Model
	spinner spinner.Model
	stats   insightdto.PeriodStatsOutput
	loading bool
	width   int
	height  int
}

func New(port Port) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Lavender).BorderForeground(theme.Lavender)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(theme.Sapphire).BorderForeground(theme.Lavender)

	l := list.New(nil, delegate, 0, 0)
	l.Styles.Title = theme.Title
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle().
		Background(theme.Mantle).
		Foreground(theme.Text).
		Padding(1)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)

	m := Model{
		port:    port,
		window:  DefaultWindow,
		list:    l,
		detail:  vp,
		spinner: sp,
		loading: true,
	}
	m.list.Title = m.title()
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.Reload(), m.spinner.Tick)
}

// SetWindow changes how many trailing days are shown and reloads.
func (m *Model) SetWindow(days int) tea.Cmd {
	if days > 0 {
		m.window = days
	}
	m.loading = true
	m.list.Title = m.title()
	return m.Reload()
}

func (m Model) Reload() tea.Cmd {
	window := m.window
	return func() tea.Msg {
		if m.port == nil {
			return LoadedMsg{Err: fmt.Errorf("insight not configured")}
		}
		input := insightdto.RangeInput{LastDays: window}
		days, err := m.port.Days(context.Background(), input)
		if err != nil {
			return LoadedMsg{Err: err}
		}
		stats, err := m.port.Stats(context.Background(), input)
		return LoadedMsg{Days: days, Stats: stats, Err: err}
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case LoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.detail.SetContent(theme.Hot.Render(msg.Err.Error()))
			return m, nil
		}
		m.stats = msg.Stats
		items := make([]list.Item, len(msg.Days))
		for i, day := range msg.Days {
			items[i] = dayItem{day: day}
		}
		cmds = append(cmds, m.list.SetItems(items))
		m.detail.SetContent(m.renderDetail())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	if !m.loading {
		prevIdx := m.list.Index()
		var lCmd tea.Cmd
		m.list, lCmd = m.list.Update(msg)
		cmds = append(cmds, lCmd)
		if m.list.Index() != prevIdx {
			m.detail.SetContent(m.renderDetail())
		}

		var vCmd tea.Cmd
		m.detail, vCmd = m.detail.Update(msg)
		cmds = append(cmds, vCmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if m.loading {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Loading days…")
	}

	listW := m.width * 4 / 10
	detailW := m.width - listW

	listPane := lipgloss.NewStyle().
		Width(listW).
		Height(m.height).
		Render(m.list.View())

	detailPane := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.Surface1).
		Background(theme.Mantle).
		Width(detailW - 2).
		Height(m.height - 2).
		Render(m.detail.View())

	return lipgloss.JoinHorizontal(lipgloss.Top, listPane, detailPane)
}

func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

// ─── private ─────────────────────────────────────────────────────────────────

func (m Model) title() string {
	return fmt.Sprintf("Last %d days", m.window)
}

func (m *Model) resize() {
	listW := m.width * 4 / 10
	detailW := m.width - listW
	m.list.SetSize(listW, m.height)
	m.detail.Width = detailW - 4
	m.detail.Height = m.height - 4
}

func (m Model) renderDetail() string {
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Period") + "\n")
	sb.WriteString(theme.Muted.Render("days:     ") + fmt.Sprintf("%d", m.stats.Days) + "\n")
	sb.WriteString(theme.Muted.Render("average:  ") + m.stats.AverageDurationLabel + "\n")
	sb.WriteString(theme.Muted.Render("quality:  ") + m.stats.AverageQualityLabel + "\n\n")

	item, ok := m.list.SelectedItem().(dayItem)
	if !ok {
		sb.WriteString(theme.Muted.Render("No sleep recorded in this window"))
		return sb.String()
	}
	d := item.day
	sb.WriteString(theme.Title.Render(d.DateLabel) + "\n")
	sb.WriteString(theme.Muted.Render("sessions: ") + fmt.Sprintf("%d", d.SessionCount) + "\n")
	sb.WriteString(theme.Muted.Render("total:    ") + interval.FormatMinutes(d.TotalMinutes) + "\n")
	sb.WriteString(theme.Muted.Render("quality:  ") + fmt.Sprintf("%d%% (%s)", d.QualityPercent, theme.Tier(d.QualityTier).Render(d.QualityTier)) + "\n")
	sb.WriteString(theme.Muted.Render("bedtime:  ") + d.BedtimeLabel + "\n")
	sb.WriteString(theme.Muted.Render("wake-up:  ") + d.WakeupLabel + "\n")
	sb.WriteString("\n" + theme.Muted.Render(":days <n> to change the window"))
	return sb.String()
}
