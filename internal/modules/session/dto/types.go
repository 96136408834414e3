package dto

import "time"

type StageInput struct {
	Kind  string    `json:"kind" yaml:"kind"`
	Start time.Time `json:"start" yaml:"start"`
	End   time.Time `json:"end" yaml:"end"`
}

// RecordInput is one externally supplied record. The tags define the batch
// import file layout.
type RecordInput struct {
	ExternalID    string       `json:"external_id,omitempty" yaml:"external_id,omitempty"`
	SourceLabel   string       `json:"source,omitempty" yaml:"source,omitempty"`
	Start         time.Time    `json:"start" yaml:"start"`
	End           time.Time    `json:"end" yaml:"end"`
	OffsetSeconds *int         `json:"tz_offset_seconds,omitempty" yaml:"tz_offset_seconds,omitempty"`
	Stages        []StageInput `json:"stages,omitempty" yaml:"stages,omitempty"`
}

type SyncOutput struct {
	Inserted int
	Updated  int
	Skipped  int
}

type ProviderSyncInput struct {
	Provider string
	Since    time.Time
}

type ProviderSyncOutput struct {
	Provider     string
	Available    bool
	Availability string
	Fetched      int
	Tally        SyncOutput
}

type ManualEntryInput struct {
	ID            string
	Start         time.Time
	End           time.Time
	OffsetSeconds *int
	SourceLabel   string
	Rating        *int
	Notes         string
}

type ManualEntryOutput struct {
	SessionID string
	Created   bool
	Score     int
}

type ListInput struct {
	From time.Time
	To   time.Time
}

type SessionOutput struct {
	ID             string    `json:"id" yaml:"id"`
	Start          time.Time `json:"start" yaml:"start"`
	End            time.Time `json:"end" yaml:"end"`
	OffsetSeconds  *int      `json:"tz_offset_seconds,omitempty" yaml:"tz_offset_seconds,omitempty"`
	ExternalID     string    `json:"external_id,omitempty" yaml:"external_id,omitempty"`
	SourceLabel    string    `json:"source,omitempty" yaml:"source,omitempty"`
	HasStageDetail bool      `json:"has_stage_detail" yaml:"has_stage_detail"`
	Score          *int      `json:"score,omitempty" yaml:"score,omitempty"`
	Rating         *int      `json:"rating,omitempty" yaml:"rating,omitempty"`
	Notes          string    `json:"notes,omitempty" yaml:"notes,omitempty"`
	DurationMin    int       `json:"duration_minutes" yaml:"duration_minutes"`
	CreatedAt      time.Time `json:"created_at" yaml:"created_at"`
}

// ExportInput selects sessions starting in [From, To); zero bounds export all.
type ExportInput struct {
	Format string
	Dir    string
	From   time.Time
	To     time.Time
}

type ExportOutput struct {
	Format string
	Paths  []string
	Count  int
}
