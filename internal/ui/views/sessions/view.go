package sessions

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	sessiondto "sleeptrack/internal/modules/session/dto"
	"sleeptrack/internal/platform/interval"
	"sleeptrack/internal/ui/theme"
)

// ─── port ────────────────────────────────────────────────────────────────────

type Port interface {
	List(ctx context.Context, from, to time.Time) ([]sessiondto.SessionOutput, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

type LoadedMsg struct {
	Sessions []sessiondto.SessionOutput
	Err      error
}

// ─── list item ───────────────────────────────────────────────────────────────

type sessionItem struct {
	session sessiondto.SessionOutput
	loc     *time.Location
}

func (i sessionItem) Title() string {
	start := localTime(i.session.Start, i.session.OffsetSeconds, i.loc)
	end := localTime(i.session.End, i.session.OffsetSeconds, i.loc)
	return start.Format("2006-01-02 15:04") + " → " + end.Format("15:04")
}

func (i sessionItem) Description() string {
	parts := []string{interval.FormatMinutes(i.session.DurationMin)}
	if i.session.Score != nil {
		parts = append(parts, fmt.Sprintf("score %d", *i.session.Score))
	}
	if i.session.Rating != nil {
		parts = append(parts, strings.Repeat("★", *i.session.Rating))
	}
	if i.session.SourceLabel != "" {
		parts = append(parts, i.session.SourceLabel)
	}
	return strings.Join(parts, "  ")
}

func (i sessionItem) FilterValue() string {
	return i.session.SourceLabel + " " + i.session.Start.Format("2006-01-02") + " " + i.session.Notes
}

// ─── model ───────────────────────────────────────────────────────────────────

type Model struct {
	port    Port
	loc     *time.Location
	list    list.Model
	detail  viewport.Model
	spinner spinner.Model
	loading bool
	width   int
	height  int
}

// New builds the view. loc renders sessions that carry no offset.
func New(port Port, loc *time.Location) Model {
	if loc == nil {
		loc = time.UTC
	}
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Lavender).BorderForeground(theme.Lavender)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(theme.Sapphire).BorderForeground(theme.Lavender)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Sessions"
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

	return Model{
		port:    port,
		loc:     loc,
		list:    l,
		detail:  vp,
		spinner: sp,
		loading: true,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.Reload(), m.spinner.Tick)
}

func (m Model) Reload() tea.Cmd {
	return func() tea.Msg {
		if m.port == nil {
			return LoadedMsg{Err: fmt.Errorf("sessions not configured")}
		}
		listed, err := m.port.List(context.Background(), time.Time{}, time.Time{})
		return LoadedMsg{Sessions: listed, Err: err}
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
			m.list.Title = "Sessions: " + msg.Err.Error()
			return m, nil
		}
		listed := append([]sessiondto.SessionOutput(nil), msg.Sessions...)
		sort.SliceStable(listed, func(i, j int) bool { return listed[i].Start.After(listed[j].Start) })
		items := make([]list.Item, len(listed))
		for i, session := range listed {
			items[i] = sessionItem{session: session, loc: m.loc}
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
			m.spinner.View()+" Loading sessions…")
	}

	listW := m.width / 2
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

// Selected returns the highlighted session.
func (m Model) Selected() (sessiondto.SessionOutput, bool) {
	if item, ok := m.list.SelectedItem().(sessionItem); ok {
		return item.session, true
	}
	return sessiondto.SessionOutput{}, false
}

// ─── private ─────────────────────────────────────────────────────────────────

func (m *Model) resize() {
	listW := m.width / 2
	detailW := m.width - listW
	m.list.SetSize(listW, m.height)
	m.detail.Width = detailW - 4
	m.detail.Height = m.height - 4
}

func (m Model) renderDetail() string {
	s, ok := m.Selected()
	if !ok {
		return theme.Muted.Render("No sessions yet. Run :sync or `sleeptrack sync`.")
	}
	var sb strings.Builder
	sb.WriteString(theme.Title.Render(sessionItem{session: s, loc: m.loc}.Title()) + "\n\n")
	sb.WriteString(theme.Muted.Render("id:       ") + s.ID + "\n")
	sb.WriteString(theme.Muted.Render("duration: ") + interval.FormatMinutes(s.DurationMin) + "\n")
	if s.SourceLabel != "" {
		sb.WriteString(theme.Muted.Render("source:   ") + s.SourceLabel + "\n")
	}
	if s.ExternalID != "" {
		sb.WriteString(theme.Muted.Render("external: ") + s.ExternalID + "\n")
	}
	score := "-"
	if s.Score != nil {
		score = fmt.Sprintf("%d", *s.Score)
	}
	if !s.HasStageDetail {
		score += theme.Muted.Render(" (no stage detail)")
	}
	sb.WriteString(theme.Muted.Render("score:    ") + score + "\n")
	if s.Rating != nil {
		sb.WriteString(theme.Muted.Render("rating:   ") + strings.Repeat("★", *s.Rating) + "\n")
	}
	if s.Notes != "" {
		sb.WriteString("\n" + s.Notes + "\n")
	}
	sb.WriteString("\n" + theme.Muted.Render(":rate <1-5>  :note <text>  :delete"))
	return sb.String()
}

func localTime(t time.Time, offset *int, fallback *time.Location) time.Time {
	if offset != nil {
		return t.In(time.FixedZone("", *offset))
	}
	return t.In(fallback)
}
