package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	insightdto "sleeptrack/internal/modules/insight/dto"
	sessiondto "sleeptrack/internal/modules/session/dto"
	apperrors "sleeptrack/internal/platform/errors"
	"sleeptrack/internal/platform/interval"
	"sleeptrack/internal/ui/theme"
)

var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

func isTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// parseTime accepts RFC 3339 or a zone-less local layout read in loc. zoned
// reports whether the input carried its own offset.
func parseTime(raw string, loc *time.Location) (time.Time, bool, error) {
	value := strings.TrimSpace(raw)
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, true, nil
	}
	for _, layout := range localLayouts {
		if parsed, err := time.ParseInLocation(layout, value, loc); err == nil {
			return parsed, false, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("%w: cannot parse time %q", apperrors.ErrInvalidInput, raw)
}

func parseBounds(from, to string, loc *time.Location) (time.Time, time.Time, error) {
	var fromAt, toAt time.Time
	var err error
	if from != "" {
		if fromAt, _, err = parseTime(from, loc); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if to != "" {
		if toAt, _, err = parseTime(to, loc); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	return fromAt, toAt, nil
}

func parseOffset(raw string) (int, error) {
	parsed, err := time.Parse("-07:00", strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: offset %q must look like +02:00", apperrors.ErrInvalidInput, raw)
	}
	_, seconds := parsed.Zone()
	return seconds, nil
}

func localOf(t time.Time, offset *int, fallback *time.Location) time.Time {
	if offset != nil {
		return t.In(time.FixedZone("", *offset))
	}
	return t.In(fallback)
}

var (
	headerStyle = lipgloss.NewStyle().Foreground(theme.Sapphire).Bold(true)
	cellStyle   = lipgloss.NewStyle().PaddingRight(2)
)

// renderTable prints rows as aligned columns. Styling is only applied when
// stdout is a terminal; style, when set, may restyle individual cells.
func renderTable(w io.Writer, header []string, rows [][]string, style func(col int, cell string) lipgloss.Style) {
	if !isTTY() {
		_, _ = fmt.Fprintln(w, strings.Join(header, "\t"))
		for _, row := range rows {
			_, _ = fmt.Fprintln(w, strings.Join(row, "\t"))
		}
		return
	}
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if cw := lipgloss.Width(cell); cw > widths[i] {
				widths[i] = cw
			}
		}
	}
	plain := func(int, string) lipgloss.Style { return lipgloss.NewStyle() }
	if style == nil {
		style = plain
	}
	line := func(cells []string, pick func(int, string) lipgloss.Style) string {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			parts[i] = cellStyle.Width(widths[i] + 2).Render(pick(i, cell).Render(cell))
		}
		return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	}
	_, _ = fmt.Fprintln(w, line(header, func(int, string) lipgloss.Style { return headerStyle }))
	for _, row := range rows {
		_, _ = fmt.Fprintln(w, line(row, style))
	}
}

func renderSessions(w io.Writer, sessions []sessiondto.SessionOutput, fallback *time.Location) {
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		start := localOf(s.Start, s.OffsetSeconds, fallback)
		end := localOf(s.End, s.OffsetSeconds, fallback)
		score := "-"
		if s.Score != nil {
			score = fmt.Sprintf("%d", *s.Score)
		}
		rating := "-"
		if s.Rating != nil {
			rating = fmt.Sprintf("%d", *s.Rating)
		}
		rows = append(rows, []string{
			s.ID,
			start.Format("2006-01-02 15:04"),
			end.Format("15:04"),
			interval.FormatMinutes(s.DurationMin),
			score,
			rating,
			s.SourceLabel,
		})
	}
	renderTable(w, []string{"ID", "START", "END", "DURATION", "SCORE", "RATING", "SOURCE"}, rows, nil)
}

func renderDays(w io.Writer, days []insightdto.DaySummaryOutput) {
	rows := make([][]string, 0, len(days))
	for _, d := range days {
		rows = append(rows, []string{
			d.DateLabel,
			fmt.Sprintf("%d", d.SessionCount),
			interval.FormatMinutes(d.TotalMinutes),
			fmt.Sprintf("%d%%", d.QualityPercent),
			d.QualityTier,
			d.BedtimeLabel,
			d.WakeupLabel,
		})
	}
	const tierCol = 4
	renderTable(w, []string{"DATE", "SESSIONS", "TOTAL", "QUALITY", "TIER", "BEDTIME", "WAKE"}, rows, func(col int, cell string) lipgloss.Style {
		if col == tierCol {
			return theme.Tier(cell)
		}
		return lipgloss.NewStyle()
	})
}

func renderStats(w io.Writer, stats insightdto.PeriodStatsOutput) {
	period := "all time"
	if !stats.From.IsZero() || !stats.To.IsZero() {
		period = fmt.Sprintf("%s to %s", dateOrOpen(stats.From), dateOrOpen(stats.To.Add(-time.Nanosecond)))
	}
	_, _ = fmt.Fprintf(w, "period:   %s\n", period)
	_, _ = fmt.Fprintf(w, "days:     %d\n", stats.Days)
	_, _ = fmt.Fprintf(w, "average:  %s\n", stats.AverageDurationLabel)
	_, _ = fmt.Fprintf(w, "quality:  %s\n", stats.AverageQualityLabel)
}

func dateOrOpen(t time.Time) string {
	if t.IsZero() || t.Year() < 1 {
		return "…"
	}
	return t.Format("2006-01-02")
}
