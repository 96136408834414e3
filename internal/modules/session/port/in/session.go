package in

import (
	"context"

	"sleeptrack/internal/modules/session/dto"
)

type Usecase interface {
	SyncBatch(ctx context.Context, records []dto.RecordInput) (dto.SyncOutput, error)
	SyncFromProvider(ctx context.Context, input dto.ProviderSyncInput) (dto.ProviderSyncOutput, error)
	SubmitManualEntry(ctx context.Context, input dto.ManualEntryInput) (dto.ManualEntryOutput, error)
	DeleteSession(ctx context.Context, id string) error
	GetSession(ctx context.Context, id string) (dto.SessionOutput, error)
	ListSessions(ctx context.Context, input dto.ListInput) ([]dto.SessionOutput, error)
	ExportSessions(ctx context.Context, input dto.ExportInput) (dto.ExportOutput, error)
}
