package domain

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

var (
	ErrChecksumMismatch = errors.New("provider checksum mismatch")
	ErrHandshakeFailed  = errors.New("provider handshake failed")
	ErrProviderTimeout  = errors.New("provider timeout")
)

var sha256Pattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

// Manifest describes one installed provider binary.
type Manifest struct {
	Name    string            `json:"name"`
	Version string            `json:"version"`
	Binary  string            `json:"binary"`
	SHA256  string            `json:"sha256"`
	Enabled bool              `json:"enabled"`
	Env     map[string]string `json:"env,omitempty"`
}

func (m Manifest) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("provider name is required")
	}
	if m.Version == "" {
		return fmt.Errorf("provider version is required")
	}
	if m.Binary == "" {
		return fmt.Errorf("provider binary path is required")
	}
	if !sha256Pattern.MatchString(m.SHA256) {
		return fmt.Errorf("provider sha256 must be lowercase 64-char hex")
	}
	return nil
}

type Status string

const (
	StatusAvailable        Status = "available"
	StatusNotConfigured    Status = "not_configured"
	StatusDisabled         Status = "disabled"
	StatusBinaryMissing    Status = "binary_missing"
	StatusChecksumMismatch Status = "checksum_mismatch"
	StatusHandshakeFailed  Status = "handshake_failed"
)

// Availability explains whether a provider can be asked for records.
type Availability struct {
	Status Status
	Reason string
}

func (a Availability) Available() bool {
	return a.Status == StatusAvailable
}

func Unavailable(status Status, format string, args ...any) Availability {
	return Availability{Status: status, Reason: fmt.Sprintf(format, args...)}
}

type Metadata struct {
	Name    string
	Version string
}

// Stage is a provider stage interval. Kind is the provider's label and is
// interpreted by the consumer.
type Stage struct {
	Kind  string
	Start time.Time
	End   time.Time
}

type Record struct {
	ExternalID            string
	SourceLabel           string
	Start                 time.Time
	End                   time.Time
	TimeZoneOffsetSeconds *int
	Stages                []Stage
}
