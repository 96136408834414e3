package usecase

import (
	"context"
	"fmt"
	"strings"

	"sleeptrack/internal/modules/session/domain"
	"sleeptrack/internal/modules/session/dto"
	sessionin "sleeptrack/internal/modules/session/port/in"
	sessionout "sleeptrack/internal/modules/session/port/out"
	"sleeptrack/internal/modules/session/service"
	apperrors "sleeptrack/internal/platform/errors"
)

const statusNotConfigured = "not_configured"

type Interactor struct {
	svc       *service.ReconcileService
	source    sessionout.RecordSource
	exporter  sessionout.SessionExporter
	exportDir string
}

// NewInteractor wires the session usecases. source and exporter may be nil;
// provider sync then reports the provider as not configured.
func NewInteractor(svc *service.ReconcileService, source sessionout.RecordSource, exporter sessionout.SessionExporter, exportDir string) sessionin.Usecase {
	return &Interactor{svc: svc, source: source, exporter: exporter, exportDir: exportDir}
}

func (i *Interactor) SyncBatch(ctx context.Context, records []dto.RecordInput) (dto.SyncOutput, error) {
	converted, err := toExternalRecords(records)
	if err != nil {
		return dto.SyncOutput{}, err
	}
	tally, err := i.svc.SyncBatch(ctx, converted)
	return toSyncOutput(tally), err
}

func (i *Interactor) SyncFromProvider(ctx context.Context, input dto.ProviderSyncInput) (dto.ProviderSyncOutput, error) {
	out := dto.ProviderSyncOutput{Provider: input.Provider, Availability: statusNotConfigured}
	if i.source == nil {
		return out, nil
	}
	batch, err := i.source.Fetch(ctx, input.Provider, input.Since)
	if err != nil {
		return out, err
	}
	out.Available = batch.Available
	out.Availability = batch.Availability
	out.Fetched = len(batch.Records)
	if !batch.Available {
		return out, nil
	}
	records, err := toExternalRecords(batch.Records)
	if err != nil {
		return out, fmt.Errorf("provider %s: %w", input.Provider, err)
	}
	tally, err := i.svc.SyncBatch(ctx, records)
	out.Tally = toSyncOutput(tally)
	return out, err
}

func (i *Interactor) SubmitManualEntry(ctx context.Context, input dto.ManualEntryInput) (dto.ManualEntryOutput, error) {
	saved, created, err := i.svc.SubmitManualEntry(ctx, service.ManualEntry{
		ID:                    strings.TrimSpace(input.ID),
		Start:                 input.Start,
		End:                   input.End,
		TimeZoneOffsetSeconds: input.OffsetSeconds,
		SourceLabel:           input.SourceLabel,
		UserRating:            input.Rating,
		UserNotes:             input.Notes,
	})
	if err != nil {
		return dto.ManualEntryOutput{}, err
	}
	out := dto.ManualEntryOutput{SessionID: saved.ID, Created: created}
	if saved.Score != nil {
		out.Score = *saved.Score
	}
	return out, nil
}

func (i *Interactor) DeleteSession(ctx context.Context, id string) error {
	return i.svc.Delete(ctx, id)
}

func (i *Interactor) GetSession(ctx context.Context, id string) (dto.SessionOutput, error) {
	session, err := i.svc.Get(ctx, id)
	if err != nil {
		return dto.SessionOutput{}, err
	}
	return toSessionOutput(session), nil
}

func (i *Interactor) ListSessions(ctx context.Context, input dto.ListInput) ([]dto.SessionOutput, error) {
	sessions, err := i.svc.List(ctx, input.From, input.To)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SessionOutput, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, toSessionOutput(session))
	}
	return out, nil
}

func (i *Interactor) ExportSessions(ctx context.Context, input dto.ExportInput) (dto.ExportOutput, error) {
	if i.exporter == nil {
		return dto.ExportOutput{}, fmt.Errorf("%w: no exporter configured", apperrors.ErrInvalidInput)
	}
	format, err := parseExportFormat(input.Format)
	if err != nil {
		return dto.ExportOutput{}, err
	}
	dir := input.Dir
	if dir == "" {
		dir = i.exportDir
	}
	sessions, err := i.svc.List(ctx, input.From, input.To)
	if err != nil {
		return dto.ExportOutput{}, err
	}
	paths, err := i.exporter.Export(ctx, sessions, format, dir)
	if err != nil {
		return dto.ExportOutput{}, err
	}
	return dto.ExportOutput{Format: string(format), Paths: paths, Count: len(sessions)}, nil
}

func parseExportFormat(raw string) (sessionout.ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "md", "markdown":
		return sessionout.ExportMarkdown, nil
	case "yaml", "yml":
		return sessionout.ExportYAML, nil
	case "json":
		return sessionout.ExportJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown export format %q", apperrors.ErrInvalidInput, raw)
	}
}

// toExternalRecords converts a whole batch. One unknown stage kind rejects
// the batch.
func toExternalRecords(records []dto.RecordInput) ([]domain.ExternalRecord, error) {
	converted := make([]domain.ExternalRecord, 0, len(records))
	for idx, record := range records {
		external, err := toExternalRecord(record)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", idx, err)
		}
		converted = append(converted, external)
	}
	return converted, nil
}

func toExternalRecord(record dto.RecordInput) (domain.ExternalRecord, error) {
	stages := make([]domain.StageInterval, 0, len(record.Stages))
	for _, stage := range record.Stages {
		kind, err := domain.ParseStageKind(stage.Kind)
		if err != nil {
			return domain.ExternalRecord{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
		}
		stages = append(stages, domain.StageInterval{Kind: kind, Start: stage.Start, End: stage.End})
	}
	return domain.ExternalRecord{
		ExternalID:            strings.TrimSpace(record.ExternalID),
		SourceLabel:           record.SourceLabel,
		Start:                 record.Start,
		End:                   record.End,
		TimeZoneOffsetSeconds: record.OffsetSeconds,
		Stages:                stages,
	}, nil
}

func toSyncOutput(tally domain.SyncTally) dto.SyncOutput {
	return dto.SyncOutput{Inserted: tally.Inserted, Updated: tally.Updated, Skipped: tally.Skipped}
}

func toSessionOutput(session domain.Session) dto.SessionOutput {
	minutes, _ := session.DurationMinutes()
	return dto.SessionOutput{
		ID:             session.ID,
		Start:          session.Start,
		End:            session.End,
		OffsetSeconds:  session.TimeZoneOffsetSeconds,
		ExternalID:     session.ExternalID,
		SourceLabel:    session.SourceLabel,
		HasStageDetail: session.HasStageDetail,
		Score:          session.Score,
		Rating:         session.UserRating,
		Notes:          session.UserNotes,
		DurationMin:    minutes,
		CreatedAt:      session.CreatedAt,
	}
}
