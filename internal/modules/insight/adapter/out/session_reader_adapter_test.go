package out_test

import (
	"context"
	"testing"
	"time"

	insightadapter "sleeptrack/internal/modules/insight/adapter/out"
	sessiondto "sleeptrack/internal/modules/session/dto"
	sessionin "sleeptrack/internal/modules/session/port/in"
)

type fakeSessions struct {
	sessionin.Usecase
	listed []sessiondto.SessionOutput
	input  sessiondto.ListInput
}

func (f *fakeSessions) ListSessions(_ context.Context, input sessiondto.ListInput) ([]sessiondto.SessionOutput, error) {
	f.input = input
	return f.listed, nil
}

func TestSessionReaderAdapterMapsSessions(t *testing.T) {
	t.Parallel()

	offset := 3600
	start := time.Date(2026, 1, 1, 22, 0, 0, 0, time.UTC)
	fake := &fakeSessions{listed: []sessiondto.SessionOutput{
		{ID: "s-1", Start: start, End: start.Add(7 * time.Hour), OffsetSeconds: &offset, SourceLabel: "Watch"},
	}}
	reader := insightadapter.NewSessionReaderAdapter(fake)

	from, to := start.Add(-24*time.Hour), start.Add(24*time.Hour)
	sessions, err := reader.Sessions(context.Background(), from, to)
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	if !fake.input.From.Equal(from) || !fake.input.To.Equal(to) {
		t.Fatalf("unexpected list input: %+v", fake.input)
	}
	if len(sessions) != 1 || sessions[0].ID != "s-1" {
		t.Fatalf("unexpected sessions: %+v", sessions)
	}
	if sessions[0].TimeZoneOffsetSeconds == nil || *sessions[0].TimeZoneOffsetSeconds != 3600 {
		t.Fatalf("offset not carried: %+v", sessions[0])
	}
}
