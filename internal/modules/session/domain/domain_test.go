package domain_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"sleeptrack/internal/modules/session/domain"
)

func TestErrorKindsMatchSentinelsAndCarryIDs(t *testing.T) {
	t.Parallel()
	err := fmt.Errorf("submit: %w", domain.NewOverlapConflict([]string{"a", "b"}))
	if !errors.Is(err, domain.ErrOverlapConflict) {
		t.Fatalf("expected overlap conflict, got %v", err)
	}
	if errors.Is(err, domain.ErrInvalidRange) {
		t.Fatalf("overlap conflict must not match invalid range")
	}
	ids := domain.ConflictingIDs(err)
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Fatalf("unexpected conflicting ids: %v", ids)
	}
	if _, ok := domain.KindOf(errors.New("plain")); ok {
		t.Fatalf("plain errors have no kind")
	}
}

func TestParseStageKind(t *testing.T) {
	t.Parallel()
	cases := map[string]domain.StageKind{
		"deep":       domain.StageDeep,
		"REM":        domain.StageREM,
		"awake":      domain.StageAwake,
		"out_of_bed": domain.StageOutOfBed,
		"core":       domain.StageOther,
	}
	for raw, want := range cases {
		got, err := domain.ParseStageKind(raw)
		if err != nil || got != want {
			t.Fatalf("%s: expected %v, got %v (%v)", raw, want, got, err)
		}
	}
	if _, err := domain.ParseStageKind("dreaming"); err == nil {
		t.Fatalf("expected unknown stage error")
	}
}

func TestRecordMergeKeepsUserAnnotations(t *testing.T) {
	t.Parallel()
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	existing := domain.Session{
		ID:         "s-1",
		Start:      night,
		End:        night.Add(6 * time.Hour),
		UserRating: domain.IntPtr(5),
		UserNotes:  "vivid dreams",
		CreatedAt:  created,
	}
	record := domain.ExternalRecord{ExternalID: "ext-1", SourceLabel: "Watch", Start: night, End: night.Add(8 * time.Hour)}
	merged := record.MergeInto(existing, 100)
	if merged.ID != "s-1" || !merged.CreatedAt.Equal(created) {
		t.Fatalf("identity must be kept: %+v", merged)
	}
	if merged.UserRating == nil || *merged.UserRating != 5 || merged.UserNotes != "vivid dreams" {
		t.Fatalf("annotations must be kept: %+v", merged)
	}
	if merged.ExternalID != "ext-1" || merged.SourceLabel != "Watch" || *merged.Score != 100 || merged.HasStageDetail {
		t.Fatalf("provider fields must be overwritten: %+v", merged)
	}
}

func TestSessionLocationFallsBack(t *testing.T) {
	t.Parallel()
	fallback := time.FixedZone("fallback", 3600)
	if got := (domain.Session{}).Location(fallback); got != fallback {
		t.Fatalf("expected fallback zone")
	}
	withOffset := domain.Session{TimeZoneOffsetSeconds: domain.IntPtr(-5 * 3600)}
	_, offset := night.In(withOffset.Location(fallback)).Zone()
	if offset != -5*3600 {
		t.Fatalf("expected recorded offset, got %d", offset)
	}
}
