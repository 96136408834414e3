package dto

import "time"

type ProviderInfo struct {
	Name    string
	Version string
	Enabled bool
	Binary  string
}

type DoctorResult struct {
	Name            string
	Status          string
	ChecksumValid   bool
	BinaryReachable bool
	LifecycleOK     bool
	Error           string
}

type AvailabilityOutput struct {
	Name      string
	Available bool
	Status    string
	Reason    string
}

type FetchInput struct {
	Name  string
	Since time.Time
}

type StageRecord struct {
	Kind  string
	Start time.Time
	End   time.Time
}

type Record struct {
	ExternalID    string
	SourceLabel   string
	Start         time.Time
	End           time.Time
	OffsetSeconds *int
	Stages        []StageRecord
}

// FetchOutput is empty, with Availability explaining why, when the provider
// could not be asked.
type FetchOutput struct {
	Availability AvailabilityOutput
	Records      []Record
}
