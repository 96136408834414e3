package in

import (
	"context"
	"time"

	sessiondto "sleeptrack/internal/modules/session/dto"
	sessionin "sleeptrack/internal/modules/session/port/in"
)

type CLIHandler struct {
	usecase sessionin.Usecase
}

func NewCLIHandler(usecase sessionin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Import(ctx context.Context, records []sessiondto.RecordInput) (sessiondto.SyncOutput, error) {
	return h.usecase.SyncBatch(ctx, records)
}

func (h CLIHandler) SyncProvider(ctx context.Context, provider string, since time.Time) (sessiondto.ProviderSyncOutput, error) {
	return h.usecase.SyncFromProvider(ctx, sessiondto.ProviderSyncInput{Provider: provider, Since: since})
}

func (h CLIHandler) Submit(ctx context.Context, input sessiondto.ManualEntryInput) (sessiondto.ManualEntryOutput, error) {
	return h.usecase.SubmitManualEntry(ctx, input)
}

func (h CLIHandler) Delete(ctx context.Context, sessionID string) error {
	return h.usecase.DeleteSession(ctx, sessionID)
}

func (h CLIHandler) Show(ctx context.Context, sessionID string) (sessiondto.SessionOutput, error) {
	return h.usecase.GetSession(ctx, sessionID)
}

func (h CLIHandler) List(ctx context.Context, from, to time.Time) ([]sessiondto.SessionOutput, error) {
	return h.usecase.ListSessions(ctx, sessiondto.ListInput{From: from, To: to})
}

func (h CLIHandler) Export(ctx context.Context, input sessiondto.ExportInput) (sessiondto.ExportOutput, error) {
	return h.usecase.ExportSessions(ctx, input)
}
