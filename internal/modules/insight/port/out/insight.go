package out

import (
	"context"
	"time"

	"sleeptrack/internal/modules/insight/domain"
)

// SessionReader lists sessions starting in [from, to); zero bounds mean all.
type SessionReader interface {
	Sessions(ctx context.Context, from, to time.Time) ([]domain.Session, error)
}
