package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrorKind is the closed set of reconciliation failures.
type ErrorKind int

const (
	KindInvalidRange ErrorKind = iota + 1
	KindStageOutOfBounds
	KindOverlapConflict
	KindExternalIDCollision
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidRange:
		return "invalid range"
	case KindStageOutOfBounds:
		return "stage out of bounds"
	case KindOverlapConflict:
		return "overlap conflict"
	case KindExternalIDCollision:
		return "external id collision"
	default:
		return fmt.Sprintf("error kind %d", int(k))
	}
}

// Error carries a kind plus the sessions involved, if any.
type Error struct {
	Kind       ErrorKind
	SessionIDs []string
	Detail     string
	Err        error
}

var (
	ErrInvalidRange        = &Error{Kind: KindInvalidRange}
	ErrStageOutOfBounds    = &Error{Kind: KindStageOutOfBounds}
	ErrOverlapConflict     = &Error{Kind: KindOverlapConflict}
	ErrExternalIDCollision = &Error{Kind: KindExternalIDCollision}
)

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if len(e.SessionIDs) > 0 {
		msg += " (sessions: " + strings.Join(e.SessionIDs, ", ") + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the package sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf reports the kind of a reconciliation error anywhere in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind, true
	}
	return 0, false
}

// ConflictingIDs returns the session ids named by an overlap conflict.
func ConflictingIDs(err error) []string {
	var typed *Error
	if errors.As(err, &typed) && typed.Kind == KindOverlapConflict {
		return typed.SessionIDs
	}
	return nil
}

func invalidRange(start, end time.Time) error {
	return &Error{
		Kind:   KindInvalidRange,
		Detail: fmt.Sprintf("end %s is not after start %s", end.Format(time.RFC3339), start.Format(time.RFC3339)),
	}
}

func NewOverlapConflict(ids []string) error {
	return &Error{Kind: KindOverlapConflict, SessionIDs: ids, Detail: "session overlaps existing sessions"}
}

func NewExternalIDCollision(externalID string, err error) error {
	return &Error{Kind: KindExternalIDCollision, Detail: fmt.Sprintf("external id %q already stored", externalID), Err: err}
}
