package service_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"sleeptrack/internal/modules/session/domain"
	"sleeptrack/internal/modules/session/service"
	"sleeptrack/internal/platform/clock"
	apperrors "sleeptrack/internal/platform/errors"
	"sleeptrack/internal/platform/tx"
)

type memoryStore struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
	next     int
	failOn   string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{sessions: map[string]domain.Session{}}
}

func (m *memoryStore) FindByID(_ context.Context, id string) (domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	if !ok {
		return domain.Session{}, apperrors.ErrNotFound
	}
	return session, nil
}

func (m *memoryStore) FindByExternalID(_ context.Context, externalID string) (domain.Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, session := range m.sessions {
		if session.ExternalID == externalID {
			return session, true, nil
		}
	}
	return domain.Session{}, false, nil
}

func (m *memoryStore) FindOverlapping(_ context.Context, start, end time.Time, excludeID string) ([]domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Session{}
	for _, session := range m.sessions {
		if session.ID != excludeID && session.Overlaps(start, end) {
			out = append(out, session)
		}
	}
	return out, nil
}

func (m *memoryStore) Insert(_ context.Context, session domain.Session) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn == "insert" {
		return "", errors.New("disk full")
	}
	m.next++
	session.ID = fmt.Sprintf("s-%d", m.next)
	m.sessions[session.ID] = session
	return session.ID, nil
}

func (m *memoryStore) Update(_ context.Context, session domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[session.ID]; !ok {
		return apperrors.ErrNotFound
	}
	m.sessions[session.ID] = session
	return nil
}

func (m *memoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *memoryStore) All(_ context.Context) ([]domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		out = append(out, session)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

var (
	day1 = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now  = clock.Fixed{At: time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)}
)

func at(hour, minute int) time.Time {
	return day1.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func newService(store *memoryStore, workers int) *service.ReconcileService {
	return service.NewReconcileService(now, store, tx.NoopManager{}, nil, workers)
}

func TestSyncSameRecordTwiceIsIdempotent(t *testing.T) {
	t.Parallel()
	store := newMemoryStore()
	svc := newService(store, 2)
	record := domain.ExternalRecord{ExternalID: "hk-1", SourceLabel: "Watch", Start: at(23, 0), End: at(23, 0).Add(8 * time.Hour)}

	first, err := svc.SyncBatch(context.Background(), []domain.ExternalRecord{record})
	if err != nil {
		t.Fatalf("first sync: %v", err)
	}
	second, err := svc.SyncBatch(context.Background(), []domain.ExternalRecord{record})
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if first != (domain.SyncTally{Inserted: 1}) || second != (domain.SyncTally{Updated: 1}) {
		t.Fatalf("unexpected tallies: %+v %+v", first, second)
	}
	all, _ := store.All(context.Background())
	if len(all) != 1 {
		t.Fatalf("expected one stored session, got %d", len(all))
	}
	if all[0].Score == nil || *all[0].Score != 100 || !all[0].CreatedAt.Equal(now.At) {
		t.Fatalf("unexpected stored session: %+v", all[0])
	}
}

func TestSyncPreservesUserAnnotations(t *testing.T) {
	t.Parallel()
	store := newMemoryStore()
	svc := newService(store, 1)
	saved, _, err := svc.SubmitManualEntry(context.Background(), service.ManualEntry{
		Start:      at(22, 0),
		End:        at(22, 0).Add(7 * time.Hour),
		UserRating: domain.IntPtr(5),
		UserNotes:  "felt rested",
	})
	if err != nil {
		t.Fatalf("manual entry: %v", err)
	}

	stages := []domain.StageInterval{{Kind: domain.StageDeep, Start: at(23, 0), End: at(23, 0).Add(90 * time.Minute)}}
	record := domain.ExternalRecord{ExternalID: "hk-2", SourceLabel: "Ring", Start: at(22, 30), End: at(22, 30).Add(8 * time.Hour), Stages: stages}
	tally, err := svc.SyncBatch(context.Background(), []domain.ExternalRecord{record})
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if tally.Updated != 1 || tally.Inserted != 0 {
		t.Fatalf("expected overlap merge, got %+v", tally)
	}
	merged, err := store.FindByID(context.Background(), saved.ID)
	if err != nil {
		t.Fatalf("find merged: %v", err)
	}
	if merged.UserRating == nil || *merged.UserRating != 5 || merged.UserNotes != "felt rested" {
		t.Fatalf("annotations lost: %+v", merged)
	}
	if !merged.HasStageDetail || merged.ExternalID != "hk-2" || merged.SourceLabel != "Ring" || !merged.Start.Equal(record.Start) {
		t.Fatalf("provider fields not applied: %+v", merged)
	}
}

func TestSyncPicksMostOverlappingSession(t *testing.T) {
	t.Parallel()
	store := newMemoryStore()
	svc := newService(store, 1)
	for _, entry := range []service.ManualEntry{
		{Start: at(20, 0), End: at(21, 0)},
		{Start: at(21, 0), End: at(23, 0)},
	} {
		if _, _, err := svc.SubmitManualEntry(context.Background(), entry); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	record := domain.ExternalRecord{Start: at(20, 30), End: at(22, 30)}
	if _, err := svc.SyncBatch(context.Background(), []domain.ExternalRecord{record}); err != nil {
		t.Fatalf("sync: %v", err)
	}
	second, _ := store.FindByID(context.Background(), "s-2")
	if !second.Start.Equal(record.Start) || !second.End.Equal(record.End) {
		t.Fatalf("expected s-2 (90 overlapping minutes) to be updated, got %+v", second)
	}
	first, _ := store.FindByID(context.Background(), "s-1")
	if !first.End.Equal(at(21, 0)) {
		t.Fatalf("s-1 must be untouched, got %+v", first)
	}
}

func TestMostOverlappingTieBreaksOnEarliestStart(t *testing.T) {
	t.Parallel()
	candidates := []domain.Session{
		{ID: "late", Start: at(11, 0), End: at(12, 0)},
		{ID: "early", Start: at(9, 0), End: at(10, 0)},
	}
	best, ok := service.MostOverlapping(candidates, at(9, 30), at(11, 30))
	if !ok || best.ID != "early" {
		t.Fatalf("expected early session, got %+v", best)
	}
	if _, ok := service.MostOverlapping(candidates, at(12, 0), at(13, 0)); ok {
		t.Fatalf("touching ranges must not match")
	}
}

func TestSyncSkipsInvalidRecords(t *testing.T) {
	t.Parallel()
	store := newMemoryStore()
	svc := newService(store, 4)
	records := []domain.ExternalRecord{
		{ExternalID: "bad-range", Start: at(8, 0), End: at(7, 0)},
		{ExternalID: "bad-stage", Start: at(1, 0), End: at(2, 0), Stages: []domain.StageInterval{{Kind: domain.StageREM, Start: at(1, 30), End: at(2, 30)}}},
		{ExternalID: "ok", Start: at(3, 0), End: at(4, 0)},
	}
	tally, err := svc.SyncBatch(context.Background(), records)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if tally != (domain.SyncTally{Inserted: 1, Skipped: 2}) {
		t.Fatalf("unexpected tally: %+v", tally)
	}
}

func TestSyncParallelBatchDoesNotDuplicate(t *testing.T) {
	t.Parallel()
	store := newMemoryStore()
	svc := newService(store, 8)
	records := make([]domain.ExternalRecord, 0, 20)
	for i := 0; i < 10; i++ {
		start := at(0, 0).Add(time.Duration(i) * 24 * time.Hour)
		record := domain.ExternalRecord{ExternalID: fmt.Sprintf("n-%d", i), Start: start, End: start.Add(7 * time.Hour)}
		records = append(records, record, record)
	}
	tally, err := svc.SyncBatch(context.Background(), records)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if tally.Inserted != 10 || tally.Updated != 10 || tally.Total() != 20 {
		t.Fatalf("unexpected tally: %+v", tally)
	}
	all, _ := store.All(context.Background())
	if len(all) != 10 {
		t.Fatalf("expected 10 sessions, got %d", len(all))
	}
}

func TestSyncPropagatesStorageFailure(t *testing.T) {
	t.Parallel()
	store := newMemoryStore()
	store.failOn = "insert"
	svc := newService(store, 1)
	_, err := svc.SyncBatch(context.Background(), []domain.ExternalRecord{{Start: at(1, 0), End: at(2, 0)}})
	if err == nil || err.Error() != "sync record 0: disk full" {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestManualEntryRejectsOverlapButAllowsTouching(t *testing.T) {
	t.Parallel()
	store := newMemoryStore()
	svc := newService(store, 1)
	a, created, err := svc.SubmitManualEntry(context.Background(), service.ManualEntry{Start: at(10, 0), End: at(11, 0)})
	if err != nil || !created {
		t.Fatalf("insert A: %v", err)
	}
	_, _, err = svc.SubmitManualEntry(context.Background(), service.ManualEntry{Start: at(10, 30), End: at(11, 30)})
	if !errors.Is(err, domain.ErrOverlapConflict) {
		t.Fatalf("expected overlap conflict, got %v", err)
	}
	if ids := domain.ConflictingIDs(err); len(ids) != 1 || ids[0] != a.ID {
		t.Fatalf("expected conflict with %s, got %v", a.ID, ids)
	}
	c, _, err := svc.SubmitManualEntry(context.Background(), service.ManualEntry{Start: at(11, 0), End: at(12, 0)})
	if err != nil {
		t.Fatalf("touching insert: %v", err)
	}
	if c.Score == nil || *c.Score != 40 {
		t.Fatalf("expected coarse score 40, got %+v", c.Score)
	}
}

func TestManualEditExcludesItselfAndRescoresOnRangeChange(t *testing.T) {
	t.Parallel()
	store := newMemoryStore()
	svc := newService(store, 1)
	saved, _, err := svc.SubmitManualEntry(context.Background(), service.ManualEntry{Start: at(22, 0), End: at(22, 0).Add(5 * time.Hour)})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if *saved.Score != 60 {
		t.Fatalf("expected 60 for 300 minutes, got %d", *saved.Score)
	}
	edited, created, err := svc.SubmitManualEntry(context.Background(), service.ManualEntry{
		ID:    saved.ID,
		Start: at(22, 0),
		End:   at(22, 0).Add(450 * time.Minute),
	})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if created || edited.ID != saved.ID || *edited.Score != 100 || !edited.CreatedAt.Equal(saved.CreatedAt) {
		t.Fatalf("unexpected edit result: %+v", edited)
	}
	if _, _, err := svc.SubmitManualEntry(context.Background(), service.ManualEntry{ID: "missing", Start: at(1, 0), End: at(2, 0)}); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestManualEntryValidation(t *testing.T) {
	t.Parallel()
	store := newMemoryStore()
	svc := newService(store, 1)
	if _, _, err := svc.SubmitManualEntry(context.Background(), service.ManualEntry{Start: at(2, 0), End: at(1, 0)}); !errors.Is(err, domain.ErrInvalidRange) {
		t.Fatalf("expected invalid range, got %v", err)
	}
	if _, _, err := svc.SubmitManualEntry(context.Background(), service.ManualEntry{Start: at(1, 0), End: at(2, 0), UserRating: domain.IntPtr(9)}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid rating, got %v", err)
	}
	if all, _ := store.All(context.Background()); len(all) != 0 {
		t.Fatalf("rejected entries must not be stored")
	}
}

func TestDeleteAndList(t *testing.T) {
	t.Parallel()
	store := newMemoryStore()
	svc := newService(store, 1)
	for _, hour := range []int{1, 5, 30} {
		if _, _, err := svc.SubmitManualEntry(context.Background(), service.ManualEntry{Start: at(hour, 0), End: at(hour+1, 0)}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	listed, err := svc.List(context.Background(), at(0, 0), at(24, 0))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 2 || !listed[0].Start.Equal(at(1, 0)) {
		t.Fatalf("unexpected ranged list: %+v", listed)
	}
	if err := svc.Delete(context.Background(), listed[0].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(context.Background(), listed[0].ID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
	all, err := svc.List(context.Background(), time.Time{}, time.Time{})
	if err != nil || len(all) != 2 {
		t.Fatalf("expected two sessions left, got %d (%v)", len(all), err)
	}
}
