package domain

import (
	"fmt"
	"time"

	apperrors "sleeptrack/internal/platform/errors"
	"sleeptrack/internal/platform/interval"
)

// Score rates a session from 0 to 100. Without stages it is a step function of
// duration; with stages it sums duration, deep, REM and efficiency sub-scores.
func Score(session Session, stages []StageInterval) (int, error) {
	total, err := session.DurationMinutes()
	if err != nil {
		return 0, err
	}
	if err := ValidateStages(session.Start, session.End, stages); err != nil {
		return 0, err
	}
	if len(stages) == 0 {
		return clampScore(coarseScore(total)), nil
	}

	var deep, rem, awake int
	for _, stage := range stages {
		minutes := int(stage.End.Sub(stage.Start) / time.Minute)
		switch stage.Kind {
		case StageDeep:
			deep += minutes
		case StageREM:
			rem += minutes
		case StageAwake, StageOutOfBed:
			awake += minutes
		case StageOther:
		}
	}

	score := durationSubScore(total) +
		deepSubScore(percentOf(deep, total)) +
		remSubScore(percentOf(rem, total)) +
		efficiencySubScore(percentOf(awake, total))
	return clampScore(score), nil
}

// ValidateStages checks that every stage is well formed and lies within [start, end].
func ValidateStages(start, end time.Time, stages []StageInterval) error {
	for i, stage := range stages {
		if err := stage.Kind.Validate(); err != nil {
			return fmt.Errorf("%w: stage %d: %v", apperrors.ErrInvalidInput, i, err)
		}
		if !interval.Contains(start, end, stage.Start, stage.End) {
			return &Error{
				Kind:   KindStageOutOfBounds,
				Detail: fmt.Sprintf("stage %d (%s) %s-%s outside session", i, stage.Kind, stage.Start.Format(time.RFC3339), stage.End.Format(time.RFC3339)),
			}
		}
	}
	return nil
}

func coarseScore(minutes int) int {
	switch {
	case minutes >= 450:
		return 100
	case minutes >= 420:
		return 90
	case minutes >= 360:
		return 75
	case minutes >= 300:
		return 60
	default:
		return 40
	}
}

func durationSubScore(minutes int) int {
	switch {
	case minutes >= 420:
		return 40
	case minutes >= 360:
		return 30
	case minutes >= 300:
		return 20
	default:
		return 10
	}
}

func deepSubScore(pct int) int {
	switch {
	case pct >= 15:
		return 20
	case pct >= 10:
		return 15
	default:
		return 5
	}
}

func remSubScore(pct int) int {
	switch {
	case pct >= 20:
		return 20
	case pct >= 15:
		return 15
	default:
		return 5
	}
}

func efficiencySubScore(awakePct int) int {
	switch {
	case awakePct <= 5:
		return 20
	case awakePct <= 10:
		return 15
	case awakePct <= 15:
		return 10
	default:
		return 5
	}
}

func percentOf(part, total int) int {
	if total <= 0 {
		return 0
	}
	return part * 100 / total
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
