package in

import (
	"context"

	"sleeptrack/internal/modules/insight/dto"
	insightin "sleeptrack/internal/modules/insight/port/in"
)

type CLIHandler struct {
	usecase insightin.Usecase
}

func NewCLIHandler(usecase insightin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Days(ctx context.Context, input dto.RangeInput) ([]dto.DaySummaryOutput, error) {
	return h.usecase.GetDaySummaries(ctx, input)
}

func (h CLIHandler) Stats(ctx context.Context, input dto.RangeInput) (dto.PeriodStatsOutput, error) {
	return h.usecase.GetPeriodStats(ctx, input)
}
