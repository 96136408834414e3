package out

import (
	"context"
	"time"

	"sleeptrack/internal/modules/session/domain"
	"sleeptrack/internal/modules/session/dto"
)

// SessionStore is the durable record store. FindByID and Delete report
// apperrors.ErrNotFound for unknown ids. An empty excludeID excludes nothing.
type SessionStore interface {
	FindByID(ctx context.Context, id string) (domain.Session, error)
	FindByExternalID(ctx context.Context, externalID string) (domain.Session, bool, error)
	FindOverlapping(ctx context.Context, start, end time.Time, excludeID string) ([]domain.Session, error)
	Insert(ctx context.Context, session domain.Session) (string, error)
	Update(ctx context.Context, session domain.Session) error
	Delete(ctx context.Context, id string) error
	All(ctx context.Context) ([]domain.Session, error)
}

// RecordSource delivers a finite batch of external records per call.
type RecordSource interface {
	Fetch(ctx context.Context, provider string, since time.Time) (RecordBatch, error)
}

type RecordBatch struct {
	Provider     string
	Available    bool
	Availability string
	Records      []dto.RecordInput
}

type ExportFormat string

const (
	ExportMarkdown ExportFormat = "md"
	ExportYAML     ExportFormat = "yaml"
	ExportJSON     ExportFormat = "json"
)

// SessionExporter writes sessions below dir and returns the written paths.
type SessionExporter interface {
	Export(ctx context.Context, sessions []domain.Session, format ExportFormat, dir string) ([]string, error)
}
