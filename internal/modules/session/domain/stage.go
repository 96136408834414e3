package domain

import (
	"fmt"
	"strings"
	"time"
)

type StageKind int

const (
	StageDeep StageKind = iota + 1
	StageREM
	StageAwake
	StageOutOfBed
	StageOther
)

func (k StageKind) String() string {
	switch k {
	case StageDeep:
		return "deep"
	case StageREM:
		return "rem"
	case StageAwake:
		return "awake"
	case StageOutOfBed:
		return "out_of_bed"
	case StageOther:
		return "other"
	default:
		return fmt.Sprintf("stage(%d)", int(k))
	}
}

func (k StageKind) Validate() error {
	switch k {
	case StageDeep, StageREM, StageAwake, StageOutOfBed, StageOther:
		return nil
	default:
		return fmt.Errorf("unknown stage kind %d", int(k))
	}
}

// ParseStageKind maps provider stage names onto the closed stage set. Names
// the provider uses for light or generic asleep time map to StageOther.
func ParseStageKind(raw string) (StageKind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "deep":
		return StageDeep, nil
	case "rem":
		return StageREM, nil
	case "awake":
		return StageAwake, nil
	case "out_of_bed", "outofbed", "in_bed":
		return StageOutOfBed, nil
	case "other", "core", "light", "asleep", "unspecified":
		return StageOther, nil
	default:
		return 0, fmt.Errorf("unknown stage kind %q", raw)
	}
}

// StageInterval is a classified slice of a session. It is only used for scoring.
type StageInterval struct {
	Kind  StageKind
	Start time.Time
	End   time.Time
}
