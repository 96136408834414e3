package usecase_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	insightadapter "sleeptrack/internal/modules/insight/adapter/out"
	insightdomain "sleeptrack/internal/modules/insight/domain"
	insightdto "sleeptrack/internal/modules/insight/dto"
	insightservice "sleeptrack/internal/modules/insight/service"
	insightusecase "sleeptrack/internal/modules/insight/usecase"
	sessionadapter "sleeptrack/internal/modules/session/adapter/out"
	sessiondto "sleeptrack/internal/modules/session/dto"
	sessionservice "sleeptrack/internal/modules/session/service"
	sessionusecase "sleeptrack/internal/modules/session/usecase"
	"sleeptrack/internal/platform/clock"
	"sleeptrack/internal/platform/id"
)

var now = time.Date(2026, 1, 8, 12, 0, 0, 0, time.UTC)

func TestDaySummariesAndStatsOverStoredSessions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()

	store, err := sessionadapter.NewSQLiteSessionStore(filepath.Join(dir, "sleeptrack.db"), id.UUID{})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	fixed := clock.Fixed{At: now}
	sessions := sessionusecase.NewInteractor(
		sessionservice.NewReconcileService(fixed, store, store, nil, 2),
		nil,
		sessionadapter.NewNoteExporter(time.UTC),
		filepath.Join(dir, "export"),
	)

	records := []sessiondto.RecordInput{
		{ExternalID: "n1", Start: time.Date(2026, 1, 6, 23, 0, 0, 0, time.UTC), End: time.Date(2026, 1, 7, 7, 0, 0, 0, time.UTC)},
		{ExternalID: "n2", Start: time.Date(2026, 1, 7, 23, 0, 0, 0, time.UTC), End: time.Date(2026, 1, 8, 5, 0, 0, 0, time.UTC)},
		{ExternalID: "nap", Start: time.Date(2026, 1, 7, 14, 0, 0, 0, time.UTC), End: time.Date(2026, 1, 7, 14, 30, 0, 0, time.UTC)},
		{ExternalID: "old", Start: time.Date(2025, 12, 1, 23, 0, 0, 0, time.UTC), End: time.Date(2025, 12, 2, 6, 0, 0, 0, time.UTC)},
	}
	if _, err := sessions.SyncBatch(ctx, records); err != nil {
		t.Fatalf("sync: %v", err)
	}

	insight := insightusecase.NewInteractor(insightservice.NewInsightService(
		fixed,
		insightadapter.NewSessionReaderAdapter(sessions),
		insightdomain.Options{Fallback: time.UTC, TargetMinutes: 480},
	))

	days, err := insight.GetDaySummaries(ctx, insightdto.RangeInput{LastDays: 7})
	if err != nil {
		t.Fatalf("days: %v", err)
	}
	if len(days) != 2 {
		t.Fatalf("expected 2 days in the last week, got %+v", days)
	}
	if days[0].Date != "2026-01-07" || days[0].SessionCount != 2 || days[0].TotalMinutes != 390 {
		t.Fatalf("unexpected latest day: %+v", days[0])
	}
	if days[0].BedtimeLabel != "14:00" || days[0].WakeupLabel != "05:00" {
		t.Fatalf("unexpected bedtime/wakeup: %+v", days[0])
	}
	if days[1].QualityTier != "Good" || days[1].QualityPercent != 100 {
		t.Fatalf("unexpected earlier day: %+v", days[1])
	}

	stats, err := insight.GetPeriodStats(ctx, insightdto.RangeInput{LastDays: 7})
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Days != 2 || stats.AverageMinutes != 435 || stats.AverageDurationLabel != "7h 15m" {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.AverageQualityLabel != "91%" {
		t.Fatalf("unexpected quality label %q", stats.AverageQualityLabel)
	}

	all, err := insight.GetDaySummaries(ctx, insightdto.RangeInput{})
	if err != nil {
		t.Fatalf("all days: %v", err)
	}
	if len(all) != 3 || all[2].Date != "2025-12-01" {
		t.Fatalf("unexpected unbounded days: %+v", all)
	}
}

func TestEmptyRangeYieldsPlaceholders(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store, err := sessionadapter.NewSQLiteSessionStore(filepath.Join(t.TempDir(), "sleeptrack.db"), id.UUID{})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	fixed := clock.Fixed{At: now}
	sessions := sessionusecase.NewInteractor(sessionservice.NewReconcileService(fixed, store, store, nil, 1), nil, nil, "")
	insight := insightusecase.NewInteractor(insightservice.NewInsightService(
		fixed,
		insightadapter.NewSessionReaderAdapter(sessions),
		insightdomain.Options{},
	))

	stats, err := insight.GetPeriodStats(ctx, insightdto.RangeInput{LastDays: 30})
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Days != 0 || stats.AverageDurationLabel != insightdomain.Placeholder || stats.AverageQualityLabel != insightdomain.Placeholder {
		t.Fatalf("unexpected empty stats: %+v", stats)
	}
}
