package in

import (
	"context"

	"sleeptrack/internal/modules/insight/dto"
)

type Usecase interface {
	GetDaySummaries(ctx context.Context, input dto.RangeInput) ([]dto.DaySummaryOutput, error)
	GetPeriodStats(ctx context.Context, input dto.RangeInput) (dto.PeriodStatsOutput, error)
}
