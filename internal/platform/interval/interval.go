// Package interval holds half-open time range arithmetic shared by the
// reconciliation and aggregation code.
package interval

import (
	"fmt"
	"time"

	apperrors "sleeptrack/internal/platform/errors"
)

// ErrInvalidRange reports a range whose end is not after its start.
var ErrInvalidRange = fmt.Errorf("%w: end must be after start", apperrors.ErrInvalidInput)

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) share any instant.
// Ranges that only touch at an endpoint do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// DurationMinutes returns the whole minutes elapsed between start and end.
func DurationMinutes(start, end time.Time) (int, error) {
	if !end.After(start) {
		return 0, ErrInvalidRange
	}
	return int(end.Sub(start) / time.Minute), nil
}

// Overlap returns the length of the intersection of two ranges, zero when disjoint.
func Overlap(aStart, aEnd, bStart, bEnd time.Time) time.Duration {
	if !Overlaps(aStart, aEnd, bStart, bEnd) {
		return 0
	}
	lo := aStart
	if bStart.After(lo) {
		lo = bStart
	}
	hi := aEnd
	if bEnd.Before(hi) {
		hi = bEnd
	}
	return hi.Sub(lo)
}

// Contains reports whether [innerStart, innerEnd] lies within [outerStart, outerEnd].
func Contains(outerStart, outerEnd, innerStart, innerEnd time.Time) bool {
	return !innerStart.Before(outerStart) && !innerEnd.After(outerEnd) && !innerEnd.Before(innerStart)
}

// FormatMinutes renders a minute count as "7h 05m".
func FormatMinutes(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	return fmt.Sprintf("%dh %02dm", minutes/60, minutes%60)
}
