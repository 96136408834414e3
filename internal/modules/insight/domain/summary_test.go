package domain_test

import (
	"testing"
	"time"

	"sleeptrack/internal/modules/insight/domain"
)

func session(start time.Time, minutes int) domain.Session {
	return domain.Session{Start: start, End: start.Add(time.Duration(minutes) * time.Minute)}
}

func TestSummarizeByDayCombinesSameDate(t *testing.T) {
	t.Parallel()
	day := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	summaries := domain.SummarizeByDay([]domain.Session{
		session(day.Add(1*time.Hour), 300),
		session(day.Add(14*time.Hour), 180),
	}, domain.Options{})
	if len(summaries) != 1 {
		t.Fatalf("expected one summary, got %d", len(summaries))
	}
	got := summaries[0]
	if got.TotalMinutes != 480 || got.QualityPercent != 100 || got.Tier != domain.TierGood || got.SessionCount != 2 {
		t.Fatalf("unexpected summary: %+v", got)
	}
	if got.DateLabel != "2026-01-05 (Mon)" || got.BedtimeLabel != "01:00" || got.WakeupLabel != "17:00" {
		t.Fatalf("unexpected labels: %+v", got)
	}
}

func TestSummarizeByDayOrdersMostRecentFirst(t *testing.T) {
	t.Parallel()
	jan := func(d int) time.Time { return time.Date(2026, 1, d, 22, 0, 0, 0, time.UTC) }
	summaries := domain.SummarizeByDay([]domain.Session{
		session(jan(1), 420),
		session(jan(3), 400),
		session(jan(2), 300),
	}, domain.Options{})
	if len(summaries) != 3 {
		t.Fatalf("expected three summaries, got %d", len(summaries))
	}
	for i, want := range []int{3, 2, 1} {
		if summaries[i].Date.Day() != want {
			t.Fatalf("position %d: want Jan %d, got %s", i, want, summaries[i].DateLabel)
		}
	}
}

func TestSummarizeByDayUsesRecordedOffsetThenFallback(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 1, 1, 23, 30, 0, 0, time.UTC)
	withOffset := session(start, 420)
	withOffset.TimeZoneOffsetSeconds = new(int)
	*withOffset.TimeZoneOffsetSeconds = 2 * 3600

	summaries := domain.SummarizeByDay([]domain.Session{withOffset}, domain.Options{})
	if summaries[0].DateLabel != "2026-01-02 (Fri)" || summaries[0].BedtimeLabel != "01:30" {
		t.Fatalf("expected bucket in recorded offset, got %+v", summaries[0])
	}

	west := time.FixedZone("west", -5*3600)
	summaries = domain.SummarizeByDay([]domain.Session{session(start, 420)}, domain.Options{Fallback: west})
	if summaries[0].DateLabel != "2026-01-01 (Thu)" || summaries[0].BedtimeLabel != "18:30" {
		t.Fatalf("expected bucket in fallback zone, got %+v", summaries[0])
	}
}

func TestSummarizeByDayEmpty(t *testing.T) {
	t.Parallel()
	if got := domain.SummarizeByDay(nil, domain.Options{}); len(got) != 0 {
		t.Fatalf("expected empty summaries, got %+v", got)
	}
}

func TestTierThresholds(t *testing.T) {
	t.Parallel()
	cases := map[int]domain.Tier{100: domain.TierGood, 85: domain.TierGood, 84: domain.TierFair, 70: domain.TierFair, 69: domain.TierPoor, 0: domain.TierPoor}
	for pct, want := range cases {
		if got := domain.TierFor(pct); got != want {
			t.Fatalf("TierFor(%d) = %s, want %s", pct, got, want)
		}
	}
}

func TestQualityPercentRoundsAndCaps(t *testing.T) {
	t.Parallel()
	if got := domain.QualityPercent(420, 480); got != 88 {
		t.Fatalf("expected 88 (87.5 rounded), got %d", got)
	}
	if got := domain.QualityPercent(600, 480); got != 100 {
		t.Fatalf("expected cap at 100, got %d", got)
	}
	if got := domain.QualityPercent(240, 0); got != 50 {
		t.Fatalf("expected default target, got %d", got)
	}
}

func TestComputePeriodStats(t *testing.T) {
	t.Parallel()
	empty := domain.ComputePeriodStats(nil, nil, domain.Options{})
	if empty.AverageDurationLabel != "-" || empty.AverageQualityLabel != "-" {
		t.Fatalf("expected placeholders, got %+v", empty)
	}

	jan := func(d int) time.Time { return time.Date(2026, 1, d, 22, 0, 0, 0, time.UTC) }
	sessions := []domain.Session{session(jan(1), 420), session(jan(2), 430)}
	days := domain.SummarizeByDay(sessions, domain.Options{})
	stats := domain.ComputePeriodStats(days, sessions, domain.Options{})
	if stats.Days != 2 || stats.AverageMinutes != 425 || stats.AverageDurationLabel != "7h 05m" {
		t.Fatalf("unexpected duration stats: %+v", stats)
	}
	if stats.AverageQualityPercent != 89 || stats.AverageQualityLabel != "89%" {
		t.Fatalf("unexpected quality stats: %+v", stats)
	}
}
