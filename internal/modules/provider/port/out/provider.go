package out

import (
	"context"
	"time"

	"sleeptrack/internal/modules/provider/domain"
)

type ManifestStore interface {
	Load(ctx context.Context) ([]domain.Manifest, error)
}

// Host talks to provider processes. Failures to start or handshake with the
// process wrap domain.ErrHandshakeFailed.
type Host interface {
	CheckLifecycle(ctx context.Context, manifest domain.Manifest) error
	GetMetadata(ctx context.Context, manifest domain.Manifest) (domain.Metadata, error)
	FetchRecords(ctx context.Context, manifest domain.Manifest, since time.Time) ([]domain.Record, error)
}
