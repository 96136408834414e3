package dto

import "time"

// RangeInput selects sessions starting in [From, To). LastDays, when set,
// replaces both bounds with the trailing N local days including today.
type RangeInput struct {
	From     time.Time
	To       time.Time
	LastDays int
}

type DaySummaryOutput struct {
	Date           string    `json:"date" yaml:"date"`
	DateLabel      string    `json:"date_label" yaml:"date_label"`
	SessionCount   int       `json:"sessions" yaml:"sessions"`
	TotalMinutes   int       `json:"total_minutes" yaml:"total_minutes"`
	QualityPercent int       `json:"quality_percent" yaml:"quality_percent"`
	QualityTier    string    `json:"quality_tier" yaml:"quality_tier"`
	BedtimeLabel   string    `json:"bedtime" yaml:"bedtime"`
	WakeupLabel    string    `json:"wakeup" yaml:"wakeup"`
	Bedtime        time.Time `json:"bedtime_at" yaml:"bedtime_at"`
	Wakeup         time.Time `json:"wakeup_at" yaml:"wakeup_at"`
}

type PeriodStatsOutput struct {
	From                  time.Time
	To                    time.Time
	Days                  int
	AverageMinutes        int
	AverageQualityPercent int
	AverageDurationLabel  string
	AverageQualityLabel   string
}
