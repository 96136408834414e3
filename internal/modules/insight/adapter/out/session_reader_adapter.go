package out

import (
	"context"
	"time"

	"sleeptrack/internal/modules/insight/domain"
	insightout "sleeptrack/internal/modules/insight/port/out"
	sessiondto "sleeptrack/internal/modules/session/dto"
	sessionin "sleeptrack/internal/modules/session/port/in"
)

type SessionReaderAdapter struct {
	sessions sessionin.Usecase
}

func NewSessionReaderAdapter(sessions sessionin.Usecase) insightout.SessionReader {
	return &SessionReaderAdapter{sessions: sessions}
}

func (a *SessionReaderAdapter) Sessions(ctx context.Context, from, to time.Time) ([]domain.Session, error) {
	listed, err := a.sessions.ListSessions(ctx, sessiondto.ListInput{From: from, To: to})
	if err != nil {
		return nil, err
	}
	out := make([]domain.Session, 0, len(listed))
	for _, session := range listed {
		out = append(out, domain.Session{
			ID:                    session.ID,
			Start:                 session.Start,
			End:                   session.End,
			TimeZoneOffsetSeconds: session.OffsetSeconds,
		})
	}
	return out, nil
}
