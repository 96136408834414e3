package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	hclog "github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"sleeptrack/internal/modules/session/domain"
	sessionout "sleeptrack/internal/modules/session/port/out"
	"sleeptrack/internal/platform/clock"
	apperrors "sleeptrack/internal/platform/errors"
	"sleeptrack/internal/platform/interval"
	"sleeptrack/internal/platform/logging"
	"sleeptrack/internal/platform/tx"
)

type syncOutcome int

const (
	outcomeInserted syncOutcome = iota + 1
	outcomeUpdated
	outcomeSkipped
)

// ManualEntry is the full edited state of a user-entered session. An empty ID
// creates a new session.
type ManualEntry struct {
	ID                    string
	Start                 time.Time
	End                   time.Time
	TimeZoneOffsetSeconds *int
	SourceLabel           string
	UserRating            *int
	UserNotes             string
}

// ReconcileService merges provider records and manual entries into the store.
// Every read-then-write sequence runs inside one serialized transaction.
type ReconcileService struct {
	clock   clock.Clock
	store   sessionout.SessionStore
	tx      tx.Manager
	logger  hclog.Logger
	workers int
}

func NewReconcileService(clock clock.Clock, store sessionout.SessionStore, txm tx.Manager, logger hclog.Logger, workers int) *ReconcileService {
	if workers <= 0 {
		workers = 1
	}
	return &ReconcileService{
		clock:   clock,
		store:   store,
		tx:      tx.NewSerialized(txm),
		logger:  logging.OrNull(logger),
		workers: workers,
	}
}

// SyncBatch reconciles a provider batch. Invalid records are skipped and
// counted; a storage failure stops the batch and is returned with the tally
// of records already applied.
func (s *ReconcileService) SyncBatch(ctx context.Context, records []domain.ExternalRecord) (domain.SyncTally, error) {
	var inserted, updated, skipped atomic.Int64

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.workers)
	for i, record := range records {
		i, record := i, record
		group.Go(func() error {
			outcome, err := s.syncRecord(groupCtx, record)
			if err != nil {
				return fmt.Errorf("sync record %d: %w", i, err)
			}
			switch outcome {
			case outcomeInserted:
				inserted.Add(1)
			case outcomeUpdated:
				updated.Add(1)
			case outcomeSkipped:
				skipped.Add(1)
			}
			return nil
		})
	}
	err := group.Wait()

	tally := domain.SyncTally{
		Inserted: int(inserted.Load()),
		Updated:  int(updated.Load()),
		Skipped:  int(skipped.Load()),
	}
	if err != nil {
		s.logger.Error("sync batch aborted", "records", len(records), "inserted", tally.Inserted, "updated", tally.Updated, "skipped", tally.Skipped, "error", err)
		return tally, err
	}
	s.logger.Info("sync batch complete", "records", len(records), "inserted", tally.Inserted, "updated", tally.Updated, "skipped", tally.Skipped)
	return tally, nil
}

func (s *ReconcileService) syncRecord(ctx context.Context, record domain.ExternalRecord) (syncOutcome, error) {
	if err := record.Validate(); err != nil {
		s.logger.Warn("skipping record", "external_id", record.ExternalID, "error", err)
		return outcomeSkipped, nil
	}
	score, err := domain.Score(record.AsSession(), record.Stages)
	if err != nil {
		s.logger.Warn("skipping unscorable record", "external_id", record.ExternalID, "error", err)
		return outcomeSkipped, nil
	}

	outcome := outcomeSkipped
	err = s.tx.Within(ctx, func(ctx context.Context) error {
		target, found, err := s.matchRecord(ctx, record)
		if err != nil {
			return err
		}
		if found {
			merged := record.MergeInto(target, score)
			if err := s.store.Update(ctx, merged); err != nil {
				return err
			}
			s.logger.Debug("record merged", "external_id", record.ExternalID, "session_id", target.ID)
			outcome = outcomeUpdated
			return nil
		}
		id, err := s.store.Insert(ctx, record.NewSession(score, s.clock.Now()))
		if err != nil {
			return err
		}
		s.logger.Debug("record inserted", "external_id", record.ExternalID, "session_id", id)
		outcome = outcomeInserted
		return nil
	})
	if err != nil {
		return 0, err
	}
	return outcome, nil
}

// matchRecord finds the stored session a record duplicates: the session with
// the same external id, else the one it overlaps the most.
func (s *ReconcileService) matchRecord(ctx context.Context, record domain.ExternalRecord) (domain.Session, bool, error) {
	if record.ExternalID != "" {
		existing, found, err := s.store.FindByExternalID(ctx, record.ExternalID)
		if err != nil {
			return domain.Session{}, false, fmt.Errorf("find by external id: %w", err)
		}
		if found {
			return existing, true, nil
		}
	}
	candidates, err := s.store.FindOverlapping(ctx, record.Start, record.End, "")
	if err != nil {
		return domain.Session{}, false, fmt.Errorf("find overlapping: %w", err)
	}
	best, ok := MostOverlapping(candidates, record.Start, record.End)
	return best, ok, nil
}

// MostOverlapping picks the candidate sharing the most whole minutes with
// [start, end). Ties go to the earliest start, then the smallest id.
func MostOverlapping(candidates []domain.Session, start, end time.Time) (domain.Session, bool) {
	var best domain.Session
	bestMinutes := -1
	for _, candidate := range candidates {
		if !candidate.Overlaps(start, end) {
			continue
		}
		minutes := int(interval.Overlap(candidate.Start, candidate.End, start, end) / time.Minute)
		better := minutes > bestMinutes ||
			(minutes == bestMinutes && candidate.Start.Before(best.Start)) ||
			(minutes == bestMinutes && candidate.Start.Equal(best.Start) && candidate.ID < best.ID)
		if !better {
			continue
		}
		best = candidate
		bestMinutes = minutes
	}
	return best, bestMinutes >= 0
}

// SubmitManualEntry creates or edits a user-entered session. Any overlap with
// another stored session is rejected with an overlap conflict naming it.
func (s *ReconcileService) SubmitManualEntry(ctx context.Context, entry ManualEntry) (domain.Session, bool, error) {
	if err := domain.ValidateRange(entry.Start, entry.End); err != nil {
		return domain.Session{}, false, err
	}
	if entry.UserRating != nil && (*entry.UserRating < 1 || *entry.UserRating > 5) {
		return domain.Session{}, false, fmt.Errorf("%w: rating must be between 1 and 5", apperrors.ErrInvalidInput)
	}

	var saved domain.Session
	created := entry.ID == ""
	err := s.tx.Within(ctx, func(ctx context.Context) error {
		conflicts, err := s.store.FindOverlapping(ctx, entry.Start, entry.End, entry.ID)
		if err != nil {
			return fmt.Errorf("find overlapping: %w", err)
		}
		if ids := overlappingIDs(conflicts, entry); len(ids) > 0 {
			return domain.NewOverlapConflict(ids)
		}
		if created {
			saved, err = s.insertManual(ctx, entry)
			return err
		}
		saved, err = s.updateManual(ctx, entry)
		return err
	})
	if err != nil {
		return domain.Session{}, false, err
	}
	s.logger.Info("manual entry saved", "session_id", saved.ID, "created", created)
	return saved, created, nil
}

func (s *ReconcileService) insertManual(ctx context.Context, entry ManualEntry) (domain.Session, error) {
	session := domain.Session{
		Start:                 entry.Start,
		End:                   entry.End,
		TimeZoneOffsetSeconds: entry.TimeZoneOffsetSeconds,
		SourceLabel:           entry.SourceLabel,
		UserRating:            entry.UserRating,
		UserNotes:             entry.UserNotes,
		CreatedAt:             s.clock.Now(),
	}
	score, err := domain.Score(session, nil)
	if err != nil {
		return domain.Session{}, err
	}
	session.Score = domain.IntPtr(score)
	id, err := s.store.Insert(ctx, session)
	if err != nil {
		return domain.Session{}, err
	}
	session.ID = id
	return session, nil
}

func (s *ReconcileService) updateManual(ctx context.Context, entry ManualEntry) (domain.Session, error) {
	existing, err := s.store.FindByID(ctx, entry.ID)
	if err != nil {
		return domain.Session{}, err
	}
	rangeChanged := !existing.Start.Equal(entry.Start) || !existing.End.Equal(entry.End)

	session := existing
	session.Start = entry.Start
	session.End = entry.End
	session.TimeZoneOffsetSeconds = entry.TimeZoneOffsetSeconds
	if entry.SourceLabel != "" {
		session.SourceLabel = entry.SourceLabel
	}
	session.UserRating = entry.UserRating
	session.UserNotes = entry.UserNotes
	if rangeChanged || session.Score == nil {
		score, err := domain.Score(session, nil)
		if err != nil {
			return domain.Session{}, err
		}
		session.Score = domain.IntPtr(score)
		session.HasStageDetail = false
	}
	if err := s.store.Update(ctx, session); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}

func overlappingIDs(candidates []domain.Session, entry ManualEntry) []string {
	ids := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.ID == entry.ID || !candidate.Overlaps(entry.Start, entry.End) {
			continue
		}
		ids = append(ids, candidate.ID)
	}
	sort.Strings(ids)
	return ids
}

func (s *ReconcileService) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: session id is required", apperrors.ErrInvalidInput)
	}
	return s.tx.Within(ctx, func(ctx context.Context) error {
		return s.store.Delete(ctx, id)
	})
}

func (s *ReconcileService) Get(ctx context.Context, id string) (domain.Session, error) {
	return s.store.FindByID(ctx, id)
}

// List returns sessions starting in [from, to), or every session when both
// bounds are zero, ordered by start time.
func (s *ReconcileService) List(ctx context.Context, from, to time.Time) ([]domain.Session, error) {
	var (
		sessions []domain.Session
		err      error
	)
	if from.IsZero() && to.IsZero() {
		sessions, err = s.store.All(ctx)
	} else {
		if to.IsZero() {
			to = s.clock.Now().Add(24 * time.Hour)
		}
		if !to.After(from) {
			return nil, domain.ValidateRange(from, to)
		}
		sessions, err = s.store.FindOverlapping(ctx, from, to, "")
	}
	if err != nil {
		return nil, err
	}
	out := make([]domain.Session, 0, len(sessions))
	for _, session := range sessions {
		if !from.IsZero() && session.Start.Before(from) {
			continue
		}
		if !to.IsZero() && !session.Start.Before(to) {
			continue
		}
		out = append(out, session)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Start.Equal(out[j].Start) {
			return out[i].ID < out[j].ID
		}
		return out[i].Start.Before(out[j].Start)
	})
	return out, nil
}
