package service

import (
	"context"
	"fmt"
	"time"

	"sleeptrack/internal/modules/insight/domain"
	insightout "sleeptrack/internal/modules/insight/port/out"
	"sleeptrack/internal/platform/clock"
	apperrors "sleeptrack/internal/platform/errors"
)

type InsightService struct {
	clock  clock.Clock
	reader insightout.SessionReader
	opts   domain.Options
}

func NewInsightService(clock clock.Clock, reader insightout.SessionReader, opts domain.Options) *InsightService {
	if opts.Fallback == nil {
		opts.Fallback = time.UTC
	}
	return &InsightService{clock: clock, reader: reader, opts: opts}
}

func (s *InsightService) DaySummaries(ctx context.Context, from, to time.Time) ([]domain.DaySummary, error) {
	sessions, err := s.reader.Sessions(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return domain.SummarizeByDay(sessions, s.opts), nil
}

func (s *InsightService) PeriodStats(ctx context.Context, from, to time.Time) (domain.PeriodStats, error) {
	sessions, err := s.reader.Sessions(ctx, from, to)
	if err != nil {
		return domain.PeriodStats{}, err
	}
	days := domain.SummarizeByDay(sessions, s.opts)
	return domain.ComputePeriodStats(days, sessions, s.opts), nil
}

// LastDays returns [start of the local day n-1 days ago, start of tomorrow).
func (s *InsightService) LastDays(n int) (time.Time, time.Time, error) {
	if n <= 0 {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: last days must be positive, got %d", apperrors.ErrInvalidInput, n)
	}
	now := s.clock.Now().In(s.opts.Fallback)
	tomorrow := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, s.opts.Fallback)
	return tomorrow.AddDate(0, 0, -n), tomorrow, nil
}
