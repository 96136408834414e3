package out

import (
	"context"
	"time"

	providerdto "sleeptrack/internal/modules/provider/dto"
	providerin "sleeptrack/internal/modules/provider/port/in"
	"sleeptrack/internal/modules/session/dto"
	sessionout "sleeptrack/internal/modules/session/port/out"
)

// ProviderRecordSource adapts the provider module to the session record
// source. Stage kinds stay names here; the usecase parses them.
type ProviderRecordSource struct {
	providers providerin.Usecase
}

var _ sessionout.RecordSource = (*ProviderRecordSource)(nil)

func NewProviderRecordSource(providers providerin.Usecase) *ProviderRecordSource {
	return &ProviderRecordSource{providers: providers}
}

func (s *ProviderRecordSource) Fetch(ctx context.Context, provider string, since time.Time) (sessionout.RecordBatch, error) {
	out, err := s.providers.FetchRecords(ctx, providerdto.FetchInput{Name: provider, Since: since})
	if err != nil {
		return sessionout.RecordBatch{}, err
	}
	batch := sessionout.RecordBatch{
		Provider:     provider,
		Available:    out.Availability.Available,
		Availability: out.Availability.Status,
		Records:      make([]dto.RecordInput, 0, len(out.Records)),
	}
	for _, record := range out.Records {
		batch.Records = append(batch.Records, toRecordInput(record))
	}
	return batch, nil
}

func toRecordInput(record providerdto.Record) dto.RecordInput {
	stages := make([]dto.StageInput, 0, len(record.Stages))
	for _, stage := range record.Stages {
		stages = append(stages, dto.StageInput{Kind: stage.Kind, Start: stage.Start, End: stage.End})
	}
	return dto.RecordInput{
		ExternalID:    record.ExternalID,
		SourceLabel:   record.SourceLabel,
		Start:         record.Start,
		End:           record.End,
		OffsetSeconds: record.OffsetSeconds,
		Stages:        stages,
	}
}
