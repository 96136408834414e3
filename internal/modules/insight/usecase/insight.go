package usecase

import (
	"context"
	"time"

	"sleeptrack/internal/modules/insight/domain"
	"sleeptrack/internal/modules/insight/dto"
	insightin "sleeptrack/internal/modules/insight/port/in"
	"sleeptrack/internal/modules/insight/service"
)

type Interactor struct {
	svc *service.InsightService
}

func NewInteractor(svc *service.InsightService) insightin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) GetDaySummaries(ctx context.Context, input dto.RangeInput) ([]dto.DaySummaryOutput, error) {
	from, to, err := i.resolve(input)
	if err != nil {
		return nil, err
	}
	summaries, err := i.svc.DaySummaries(ctx, from, to)
	if err != nil {
		return nil, err
	}
	out := make([]dto.DaySummaryOutput, 0, len(summaries))
	for _, summary := range summaries {
		out = append(out, toDaySummaryOutput(summary))
	}
	return out, nil
}

func (i *Interactor) GetPeriodStats(ctx context.Context, input dto.RangeInput) (dto.PeriodStatsOutput, error) {
	from, to, err := i.resolve(input)
	if err != nil {
		return dto.PeriodStatsOutput{}, err
	}
	stats, err := i.svc.PeriodStats(ctx, from, to)
	if err != nil {
		return dto.PeriodStatsOutput{}, err
	}
	return dto.PeriodStatsOutput{
		From:                  from,
		To:                    to,
		Days:                  stats.Days,
		AverageMinutes:        stats.AverageMinutes,
		AverageQualityPercent: stats.AverageQualityPercent,
		AverageDurationLabel:  stats.AverageDurationLabel,
		AverageQualityLabel:   stats.AverageQualityLabel,
	}, nil
}

func (i *Interactor) resolve(input dto.RangeInput) (time.Time, time.Time, error) {
	if input.LastDays != 0 {
		return i.svc.LastDays(input.LastDays)
	}
	return input.From, input.To, nil
}

func toDaySummaryOutput(summary domain.DaySummary) dto.DaySummaryOutput {
	return dto.DaySummaryOutput{
		Date:           summary.Date.Format("2006-01-02"),
		DateLabel:      summary.DateLabel,
		SessionCount:   summary.SessionCount,
		TotalMinutes:   summary.TotalMinutes,
		QualityPercent: summary.QualityPercent,
		QualityTier:    summary.Tier.String(),
		BedtimeLabel:   summary.BedtimeLabel,
		WakeupLabel:    summary.WakeupLabel,
		Bedtime:        summary.Bedtime,
		Wakeup:         summary.Wakeup,
	}
}
