package domain

import (
	"time"

	"sleeptrack/internal/platform/interval"
)

const SchemaVersion = 1

// Session is one stored rest interval. Optional values are nil or empty when
// absent.
type Session struct {
	ID                    string
	Start                 time.Time
	End                   time.Time
	TimeZoneOffsetSeconds *int
	ExternalID            string
	SourceLabel           string
	HasStageDetail        bool
	Score                 *int
	UserRating            *int
	UserNotes             string
	CreatedAt             time.Time
}

func (s Session) Validate() error {
	return ValidateRange(s.Start, s.End)
}

func (s Session) DurationMinutes() (int, error) {
	minutes, err := interval.DurationMinutes(s.Start, s.End)
	if err != nil {
		return 0, invalidRange(s.Start, s.End)
	}
	return minutes, nil
}

func (s Session) Overlaps(start, end time.Time) bool {
	return interval.Overlaps(s.Start, s.End, start, end)
}

// Location is the zone the session was recorded in, or fallback when the
// offset was not captured.
func (s Session) Location(fallback *time.Location) *time.Location {
	if s.TimeZoneOffsetSeconds == nil {
		if fallback == nil {
			return time.UTC
		}
		return fallback
	}
	return time.FixedZone("", *s.TimeZoneOffsetSeconds)
}

// ValidateRange rejects ranges whose end is not after start.
func ValidateRange(start, end time.Time) error {
	if !end.After(start) {
		return invalidRange(start, end)
	}
	return nil
}

func IntPtr(v int) *int {
	return &v
}

// OptionalIntEqual compares two optional values.
func OptionalIntEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
