package out_test

import (
	"context"
	"testing"
	"time"

	providerdto "sleeptrack/internal/modules/provider/dto"
	sessionout "sleeptrack/internal/modules/session/adapter/out"
)

type fakeProviders struct {
	out providerdto.FetchOutput
}

func (f fakeProviders) List(context.Context) ([]providerdto.ProviderInfo, error) { return nil, nil }
func (f fakeProviders) Doctor(context.Context) ([]providerdto.DoctorResult, error) {
	return nil, nil
}
func (f fakeProviders) CheckAvailability(context.Context, string) (providerdto.AvailabilityOutput, error) {
	return f.out.Availability, nil
}
func (f fakeProviders) FetchRecords(context.Context, providerdto.FetchInput) (providerdto.FetchOutput, error) {
	return f.out, nil
}

func TestProviderRecordSourceCopiesRecords(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 1, 1, 22, 0, 0, 0, time.UTC)
	source := sessionout.NewProviderRecordSource(fakeProviders{out: providerdto.FetchOutput{
		Availability: providerdto.AvailabilityOutput{Name: "watch", Available: true, Status: "available"},
		Records: []providerdto.Record{{
			ExternalID: "n-1",
			Start:      start,
			End:        start.Add(8 * time.Hour),
			Stages: []providerdto.StageRecord{
				{Kind: "deep", Start: start, End: start.Add(time.Hour)},
				{Kind: "Core", Start: start.Add(time.Hour), End: start.Add(2 * time.Hour)},
			},
		}},
	}})
	batch, err := source.Fetch(context.Background(), "watch", time.Time{})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !batch.Available || len(batch.Records) != 1 {
		t.Fatalf("unexpected batch: %+v", batch)
	}
	record := batch.Records[0]
	if record.ExternalID != "n-1" || !record.End.Equal(start.Add(8*time.Hour)) {
		t.Fatalf("unexpected record: %+v", record)
	}
	if len(record.Stages) != 2 || record.Stages[0].Kind != "deep" || record.Stages[1].Kind != "Core" {
		t.Fatalf("unexpected stages: %+v", record.Stages)
	}
}

func TestProviderRecordSourcePassesThroughUnavailable(t *testing.T) {
	t.Parallel()
	source := sessionout.NewProviderRecordSource(fakeProviders{out: providerdto.FetchOutput{
		Availability: providerdto.AvailabilityOutput{Status: "disabled", Reason: "provider watch is disabled"},
		Records:      []providerdto.Record{},
	}})
	batch, err := source.Fetch(context.Background(), "watch", time.Time{})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if batch.Available || batch.Availability != "disabled" || len(batch.Records) != 0 {
		t.Fatalf("unexpected batch: %+v", batch)
	}
}
