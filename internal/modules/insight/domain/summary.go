package domain

import (
	"fmt"
	"math"
	"sort"
	"time"

	"sleeptrack/internal/platform/interval"
)

// DefaultTargetMinutes is the nightly duration that counts as 100% quality.
const DefaultTargetMinutes = 480

const Placeholder = "-"

const (
	dateLabelLayout = "2006-01-02 (Mon)"
	timeLabelLayout = "15:04"
)

type Tier int

const (
	TierPoor Tier = iota + 1
	TierFair
	TierGood
)

func (t Tier) String() string {
	switch t {
	case TierPoor:
		return "Poor"
	case TierFair:
		return "Fair"
	case TierGood:
		return "Good"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

func TierFor(qualityPercent int) Tier {
	switch {
	case qualityPercent >= 85:
		return TierGood
	case qualityPercent >= 70:
		return TierFair
	default:
		return TierPoor
	}
}

// Session is the aggregation view of a stored session.
type Session struct {
	ID                    string
	Start                 time.Time
	End                   time.Time
	TimeZoneOffsetSeconds *int
}

func (s Session) location(fallback *time.Location) *time.Location {
	if s.TimeZoneOffsetSeconds != nil {
		return time.FixedZone("", *s.TimeZoneOffsetSeconds)
	}
	if fallback == nil {
		return time.UTC
	}
	return fallback
}

// DaySummary aggregates the sessions that started on one local calendar date.
type DaySummary struct {
	Date           time.Time
	DateLabel      string
	SessionCount   int
	TotalMinutes   int
	QualityPercent int
	Tier           Tier
	Bedtime        time.Time
	Wakeup         time.Time
	BedtimeLabel   string
	WakeupLabel    string
}

type PeriodStats struct {
	Days                  int
	AverageMinutes        int
	AverageQualityPercent int
	AverageDurationLabel  string
	AverageQualityLabel   string
}

// Options tunes aggregation. Fallback is the zone for sessions without a
// recorded offset; a zero TargetMinutes means DefaultTargetMinutes.
type Options struct {
	Fallback      *time.Location
	TargetMinutes int
}

func (o Options) target() int {
	if o.TargetMinutes <= 0 {
		return DefaultTargetMinutes
	}
	return o.TargetMinutes
}

type bucket struct {
	summary    DaySummary
	bedtimeLoc *time.Location
	wakeupLoc  *time.Location
}

// SummarizeByDay buckets sessions by the local date of their start and
// returns one summary per date, most recent first. Sessions with an invalid
// range are ignored.
func SummarizeByDay(sessions []Session, opts Options) []DaySummary {
	buckets := map[time.Time]*bucket{}
	for _, session := range sessions {
		minutes, err := interval.DurationMinutes(session.Start, session.End)
		if err != nil {
			continue
		}
		loc := session.location(opts.Fallback)
		localStart := session.Start.In(loc)
		date := time.Date(localStart.Year(), localStart.Month(), localStart.Day(), 0, 0, 0, 0, time.UTC)

		b, ok := buckets[date]
		if !ok {
			b = &bucket{summary: DaySummary{Date: date, Bedtime: session.Start, Wakeup: session.End}, bedtimeLoc: loc, wakeupLoc: loc}
			buckets[date] = b
		}
		b.summary.SessionCount++
		b.summary.TotalMinutes += minutes
		if session.Start.Before(b.summary.Bedtime) {
			b.summary.Bedtime = session.Start
			b.bedtimeLoc = loc
		}
		if session.End.After(b.summary.Wakeup) {
			b.summary.Wakeup = session.End
			b.wakeupLoc = loc
		}
	}

	out := make([]DaySummary, 0, len(buckets))
	for _, b := range buckets {
		summary := b.summary
		summary.DateLabel = summary.Date.Format(dateLabelLayout)
		summary.QualityPercent = QualityPercent(float64(summary.TotalMinutes), opts.target())
		summary.Tier = TierFor(summary.QualityPercent)
		summary.BedtimeLabel = summary.Bedtime.In(b.bedtimeLoc).Format(timeLabelLayout)
		summary.WakeupLabel = summary.Wakeup.In(b.wakeupLoc).Format(timeLabelLayout)
		out = append(out, summary)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

// ComputePeriodStats averages the sessions' total duration over the number of
// summarized days. An empty session set yields placeholder labels.
func ComputePeriodStats(days []DaySummary, sessions []Session, opts Options) PeriodStats {
	if len(sessions) == 0 || len(days) == 0 {
		return PeriodStats{Days: len(days), AverageDurationLabel: Placeholder, AverageQualityLabel: Placeholder}
	}
	total := 0
	for _, session := range sessions {
		minutes, err := interval.DurationMinutes(session.Start, session.End)
		if err != nil {
			continue
		}
		total += minutes
	}
	average := float64(total) / float64(len(days))
	quality := QualityPercent(average, opts.target())
	return PeriodStats{
		Days:                  len(days),
		AverageMinutes:        int(average),
		AverageQualityPercent: quality,
		AverageDurationLabel:  interval.FormatMinutes(int(average)),
		AverageQualityLabel:   fmt.Sprintf("%d%%", quality),
	}
}

// QualityPercent is round(min(1, minutes/target) * 100).
func QualityPercent(minutes float64, target int) int {
	if target <= 0 {
		target = DefaultTargetMinutes
	}
	ratio := math.Min(1, minutes/float64(target))
	pct := int(math.Round(ratio * 100))
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
