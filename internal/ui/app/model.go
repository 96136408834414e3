package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	insightdto "sleeptrack/internal/modules/insight/dto"
	providerdto "sleeptrack/internal/modules/provider/dto"
	sessiondto "sleeptrack/internal/modules/session/dto"
	"sleeptrack/internal/ui/components"
	"sleeptrack/internal/ui/theme"
	daysview "sleeptrack/internal/ui/views/days"
	providersview "sleeptrack/internal/ui/views/providers"
	sessionsview "sleeptrack/internal/ui/views/sessions"
)

// ─── ports ───────────────────────────────────────────────────────────────────

type sessionPort interface {
	List(ctx context.Context, from, to time.Time) ([]sessiondto.SessionOutput, error)
	Submit(ctx context.Context, input sessiondto.ManualEntryInput) (sessiondto.ManualEntryOutput, error)
	Delete(ctx context.Context, sessionID string) error
	SyncProvider(ctx context.Context, provider string, since time.Time) (sessiondto.ProviderSyncOutput, error)
	Export(ctx context.Context, input sessiondto.ExportInput) (sessiondto.ExportOutput, error)
}

type insightPort interface {
	Days(ctx context.Context, input insightdto.RangeInput) ([]insightdto.DaySummaryOutput, error)
	Stats(ctx context.Context, input insightdto.RangeInput) (insightdto.PeriodStatsOutput, error)
}

type providerPort interface {
	Doctor(ctx context.Context) ([]providerdto.DoctorResult, error)
}

// Options carries settings resolved from config.
type Options struct {
	DefaultProvider string
	Location        *time.Location
}

// ─── tab index ───────────────────────────────────────────────────────────────

type tabID int

const (
	tabDays tabID = iota
	tabSessions
	tabProviders
	tabCount
)

var tabLabels = [tabCount]string{
	"Days", "Sessions", "Providers",
}

// ─── async messages ──────────────────────────────────────────────────────────

type syncedMsg struct {
	out sessiondto.ProviderSyncOutput
	err error
}

type editedMsg struct {
	done string
	err  error
}

type exportedMsg struct {
	out sessiondto.ExportOutput
	err error
}

// ─── key bindings ────────────────────────────────────────────────────────────

type keyMap struct {
	Tab     key.Binding
	Help    key.Binding
	Palette key.Binding
	Quit    key.Binding
	Recheck key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Tab:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Palette: key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "palette")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
		Recheck: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "re-check providers")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Help, k.Palette, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.Recheck},
		{k.Help, k.Palette, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the root Bubble Tea model. It owns tab routing, the help overlay
// and the command palette. Rendering is delegated to the sub-views.
type Model struct {
	opts     Options
	sessions sessionPort

	daysView      daysview.Model
	sessionsView  sessionsview.Model
	providersView providersview.Model
	checked       bool

	activeTab tabID
	keys      keyMap
	help      help.Model
	showHelp  bool
	palette   components.Palette
	status    string
	width     int
	height    int
}

func NewModel(opts Options, sessions sessionPort, insight insightPort, providers providerPort) Model {
	return Model{
		opts:          opts,
		sessions:      sessions,
		daysView:      daysview.New(insight),
		sessionsView:  sessionsview.New(sessions, opts.Location),
		providersView: providersview.New(providers),
		activeTab:     tabDays,
		keys:          defaultKeys(),
		help:          help.New(),
		palette:       components.NewPalette(),
		status:        "ready",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.daysView.Init(),
		m.sessionsView.Init(),
	)
}

// ─── update ──────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if m.palette.Visible() {
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.palette.SetWidth(min(m.width-4, 80))
		m.help.Width = m.width
		m.propagateSize()

	case syncedMsg:
		if msg.err != nil {
			m.status = "sync failed: " + msg.err.Error()
			return m, nil
		}
		if !msg.out.Available {
			m.status = fmt.Sprintf("sync skipped: %s is %s", msg.out.Provider, msg.out.Availability)
			return m, nil
		}
		m.status = fmt.Sprintf("synced %s: %d inserted, %d updated, %d skipped",
			msg.out.Provider, msg.out.Tally.Inserted, msg.out.Tally.Updated, msg.out.Tally.Skipped)
		return m, m.reloadCmd()

	case editedMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
			return m, nil
		}
		m.status = msg.done
		return m, m.reloadCmd()

	case exportedMsg:
		if msg.err != nil {
			m.status = "export failed: " + msg.err.Error()
		} else {
			m.status = fmt.Sprintf("exported %d sessions as %s", msg.out.Count, msg.out.Format)
		}

	case daysview.LoadedMsg:
		var cmd tea.Cmd
		m.daysView, cmd = m.daysView.Update(msg)
		return m, cmd

	case sessionsview.LoadedMsg:
		var cmd tea.Cmd
		m.sessionsView, cmd = m.sessionsView.Update(msg)
		return m, cmd

	case providersview.CheckedMsg:
		var cmd tea.Cmd
		m.providersView, cmd = m.providersView.Update(msg)
		return m, cmd

	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Input)

	case components.PaletteCancelMsg:
		m.status = "ready"

	case tea.KeyMsg:
		if m.showHelp {
			if msg.String() == "?" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}

		if m.subViewFiltering() {
			break
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
			cmds = append(cmds, m.enterTab())
		case "shift+tab":
			m.activeTab = (m.activeTab + tabCount - 1) % tabCount
			cmds = append(cmds, m.enterTab())
		case "?":
			m.showHelp = !m.showHelp
		case ":":
			cmds = append(cmds, m.palette.Open())
			return m, tea.Batch(cmds...)
		case "r":
			if m.activeTab == tabProviders {
				cmds = append(cmds, m.providersView.Check())
				return m, tea.Batch(cmds...)
			}
		}
	}

	var tabCmd tea.Cmd
	switch m.activeTab {
	case tabDays:
		m.daysView, tabCmd = m.daysView.Update(msg)
	case tabSessions:
		m.sessionsView, tabCmd = m.sessionsView.Update(msg)
	case tabProviders:
		m.providersView, tabCmd = m.providersView.Update(msg)
	}
	cmds = append(cmds, tabCmd)

	return m, tea.Batch(cmds...)
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	tabBar := m.renderTabBar()
	statusBar := m.renderStatusBar()
	contentH := m.height - lipgloss.Height(tabBar) - lipgloss.Height(statusBar)
	if contentH < 1 {
		contentH = 1
	}

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).
			Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH,
			lipgloss.Center, lipgloss.Center, m.palette.View())
	default:
		content = m.activeView()
	}

	return lipgloss.JoinVertical(lipgloss.Left, tabBar, content, statusBar)
}

func (m Model) activeView() string {
	switch m.activeTab {
	case tabDays:
		return m.daysView.View()
	case tabSessions:
		return m.sessionsView.View()
	case tabProviders:
		return m.providersView.View()
	}
	return ""
}

func (m Model) renderTabBar() string {
	parts := make([]string, tabCount)
	for i := tabID(0); i < tabCount; i++ {
		label := tabLabels[i]
		if i == m.activeTab {
			parts[i] = theme.Hot.Render(" " + label + " ")
		} else {
			parts[i] = theme.Muted.Render(" " + label + " ")
		}
	}
	sep := theme.Muted.Render(" │ ")
	bar := "sleeptrack  " + strings.Join(parts, sep)
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar) + "\n"
}

func (m Model) renderStatusBar() string {
	left := m.status
	right := theme.Muted.Render("?:help  tab:switch  :::palette  q:quit")
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	bar := left + strings.Repeat(" ", gap) + right
	return "\n" + lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar)
}

// ─── palette execution ───────────────────────────────────────────────────────

func (m Model) executePalette(input string) (tea.Model, tea.Cmd) {
	if strings.TrimSpace(input) == "" {
		return m, nil
	}
	parts := strings.Fields(input)

	switch parts[0] {
	case "sync":
		provider := m.opts.DefaultProvider
		if len(parts) >= 2 {
			provider = parts[1]
		}
		if provider == "" {
			m.status = "usage: sync <provider>"
			return m, nil
		}
		m.status = "syncing " + provider + "…"
		return m, m.syncCmd(provider)

	case "days":
		if len(parts) < 2 {
			m.status = "usage: days <n>"
			return m, nil
		}
		n, err := strconv.Atoi(parts[1])
		if err != nil || n <= 0 {
			m.status = "days must be a positive number"
			return m, nil
		}
		m.activeTab = tabDays
		return m, m.daysView.SetWindow(n)

	case "rate":
		selected, ok := m.sessionsView.Selected()
		if !ok || m.activeTab != tabSessions {
			m.status = "select a session on the Sessions tab"
			return m, nil
		}
		if len(parts) < 2 {
			m.status = "usage: rate <1-5>"
			return m, nil
		}
		rating, err := strconv.Atoi(parts[1])
		if err != nil {
			m.status = "rating must be a number"
			return m, nil
		}
		entry := editOf(selected)
		entry.Rating = &rating
		return m, m.submitCmd("rating saved", entry)

	case "note":
		selected, ok := m.sessionsView.Selected()
		if !ok || m.activeTab != tabSessions {
			m.status = "select a session on the Sessions tab"
			return m, nil
		}
		entry := editOf(selected)
		entry.Notes = strings.TrimSpace(strings.TrimPrefix(input, parts[0]))
		return m, m.submitCmd("note saved", entry)

	case "delete":
		selected, ok := m.sessionsView.Selected()
		if !ok || m.activeTab != tabSessions {
			m.status = "select a session on the Sessions tab"
			return m, nil
		}
		return m, m.deleteCmd(selected.ID)

	case "export":
		format := "md"
		if len(parts) >= 2 {
			format = parts[1]
		}
		return m, m.exportCmd(format)

	case "reload":
		return m, m.reloadCmd()

	default:
		m.status = "unknown command: " + parts[0]
	}
	return m, nil
}

// ─── helpers ─────────────────────────────────────────────────────────────────

func (m Model) subViewFiltering() bool {
	switch m.activeTab {
	case tabDays:
		return m.daysView.Filtering()
	case tabSessions:
		return m.sessionsView.Filtering()
	case tabProviders:
		return m.providersView.Filtering()
	}
	return false
}

// enterTab runs the provider check the first time its tab is shown.
func (m *Model) enterTab() tea.Cmd {
	if m.activeTab == tabProviders && !m.checked {
		m.checked = true
		return m.providersView.Check()
	}
	return nil
}

func (m *Model) propagateSize() {
	sz := tea.WindowSizeMsg{Width: m.width, Height: m.height - 3}
	m.daysView, _ = m.daysView.Update(sz)
	m.sessionsView, _ = m.sessionsView.Update(sz)
	m.providersView, _ = m.providersView.Update(sz)
}

func (m Model) reloadCmd() tea.Cmd {
	return tea.Batch(m.daysView.Reload(), m.sessionsView.Reload())
}

// editOf copies the stored state of a session into a full-state edit.
func editOf(session sessiondto.SessionOutput) sessiondto.ManualEntryInput {
	return sessiondto.ManualEntryInput{
		ID:            session.ID,
		Start:         session.Start,
		End:           session.End,
		OffsetSeconds: session.OffsetSeconds,
		SourceLabel:   session.SourceLabel,
		Rating:        session.Rating,
		Notes:         session.Notes,
	}
}

// ─── async commands ──────────────────────────────────────────────────────────

func (m Model) syncCmd(provider string) tea.Cmd {
	return func() tea.Msg {
		out, err := m.sessions.SyncProvider(context.Background(), provider, time.Time{})
		return syncedMsg{out: out, err: err}
	}
}

func (m Model) submitCmd(done string, entry sessiondto.ManualEntryInput) tea.Cmd {
	return func() tea.Msg {
		_, err := m.sessions.Submit(context.Background(), entry)
		return editedMsg{done: done, err: err}
	}
}

func (m Model) deleteCmd(sessionID string) tea.Cmd {
	return func() tea.Msg {
		return editedMsg{done: "session deleted", err: m.sessions.Delete(context.Background(), sessionID)}
	}
}

func (m Model) exportCmd(format string) tea.Cmd {
	return func() tea.Msg {
		out, err := m.sessions.Export(context.Background(), sessiondto.ExportInput{Format: format})
		return exportedMsg{out: out, err: err}
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
