package domain

import "time"

// ExternalRecord is one session-shaped record delivered by a health-data provider.
type ExternalRecord struct {
	ExternalID            string
	SourceLabel           string
	Start                 time.Time
	End                   time.Time
	TimeZoneOffsetSeconds *int
	Stages                []StageInterval
}

func (r ExternalRecord) Validate() error {
	if err := ValidateRange(r.Start, r.End); err != nil {
		return err
	}
	return ValidateStages(r.Start, r.End, r.Stages)
}

// MergeInto overwrites the provider-owned fields of existing with the record.
// User annotations, id and creation time are kept.
func (r ExternalRecord) MergeInto(existing Session, score int) Session {
	merged := existing
	merged.Start = r.Start
	merged.End = r.End
	merged.SourceLabel = r.SourceLabel
	merged.HasStageDetail = len(r.Stages) > 0
	merged.Score = IntPtr(score)
	if r.TimeZoneOffsetSeconds != nil {
		merged.TimeZoneOffsetSeconds = IntPtr(*r.TimeZoneOffsetSeconds)
	}
	if merged.ExternalID == "" {
		merged.ExternalID = r.ExternalID
	}
	return merged
}

// NewSession builds the session inserted for an unmatched record.
func (r ExternalRecord) NewSession(score int, createdAt time.Time) Session {
	session := Session{
		Start:          r.Start,
		End:            r.End,
		ExternalID:     r.ExternalID,
		SourceLabel:    r.SourceLabel,
		HasStageDetail: len(r.Stages) > 0,
		Score:          IntPtr(score),
		CreatedAt:      createdAt,
	}
	if r.TimeZoneOffsetSeconds != nil {
		session.TimeZoneOffsetSeconds = IntPtr(*r.TimeZoneOffsetSeconds)
	}
	return session
}

// AsSession is the view of the record the scoring engine sees.
func (r ExternalRecord) AsSession() Session {
	return Session{Start: r.Start, End: r.End}
}
