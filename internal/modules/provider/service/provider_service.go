package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	hclog "github.com/hashicorp/go-hclog"

	"sleeptrack/internal/modules/provider/domain"
	"sleeptrack/internal/modules/provider/dto"
	providerout "sleeptrack/internal/modules/provider/port/out"
	"sleeptrack/internal/platform/logging"
)

type ProviderService struct {
	store  providerout.ManifestStore
	host   providerout.Host
	logger hclog.Logger
}

func NewProviderService(store providerout.ManifestStore, host providerout.Host, logger hclog.Logger) *ProviderService {
	return &ProviderService{store: store, host: host, logger: logging.OrNull(logger)}
}

func (s *ProviderService) List(ctx context.Context) ([]dto.ProviderInfo, error) {
	manifests, err := s.loadValidated(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ProviderInfo, 0, len(manifests))
	for _, m := range manifests {
		out = append(out, dto.ProviderInfo{Name: m.Name, Version: m.Version, Enabled: m.Enabled, Binary: m.Binary})
	}
	return out, nil
}

func (s *ProviderService) Doctor(ctx context.Context) ([]dto.DoctorResult, error) {
	manifests, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	results := make([]dto.DoctorResult, 0, len(manifests))
	for _, m := range manifests {
		result := dto.DoctorResult{Name: m.Name}
		if err := m.Validate(); err != nil {
			result.Status = string(domain.StatusNotConfigured)
			result.Error = err.Error()
			results = append(results, result)
			continue
		}
		result.BinaryReachable = fileExists(m.Binary)
		if result.BinaryReachable {
			result.ChecksumValid = checksumMatches(m.Binary, m.SHA256) == nil
		}
		availability := s.availability(ctx, m, true)
		result.Status = string(availability.Status)
		result.LifecycleOK = availability.Available()
		result.Error = availability.Reason
		results = append(results, result)
	}
	return results, nil
}

// CheckAvailability runs every check including a handshake with the process.
func (s *ProviderService) CheckAvailability(ctx context.Context, name string) (dto.AvailabilityOutput, error) {
	manifest, availability, err := s.resolve(ctx, name)
	if err != nil {
		return dto.AvailabilityOutput{}, err
	}
	if availability.Available() {
		availability = s.availability(ctx, manifest, true)
	}
	return availabilityOutput(name, availability), nil
}

// FetchRecords asks the named provider for records since the given instant.
// An unavailable provider yields an empty batch and no error.
func (s *ProviderService) FetchRecords(ctx context.Context, input dto.FetchInput) (dto.FetchOutput, error) {
	manifest, availability, err := s.resolve(ctx, input.Name)
	if err != nil {
		return dto.FetchOutput{}, err
	}
	if availability.Available() {
		availability = s.availability(ctx, manifest, false)
	}
	if !availability.Available() {
		s.logger.Warn("provider unavailable", "provider", input.Name, "status", availability.Status, "reason", availability.Reason)
		return dto.FetchOutput{Availability: availabilityOutput(input.Name, availability), Records: []dto.Record{}}, nil
	}

	records, err := s.host.FetchRecords(ctx, manifest, input.Since)
	if errors.Is(err, domain.ErrHandshakeFailed) {
		availability = domain.Unavailable(domain.StatusHandshakeFailed, "%v", err)
		s.logger.Warn("provider unavailable", "provider", input.Name, "status", availability.Status, "reason", availability.Reason)
		return dto.FetchOutput{Availability: availabilityOutput(input.Name, availability), Records: []dto.Record{}}, nil
	}
	if err != nil {
		return dto.FetchOutput{}, fmt.Errorf("fetch records from %s: %w", input.Name, err)
	}
	s.logger.Info("provider records fetched", "provider", input.Name, "records", len(records), "since", formatSince(input.Since))
	return dto.FetchOutput{Availability: availabilityOutput(input.Name, availability), Records: toRecordDTOs(records)}, nil
}

// resolve finds the manifest for name. A missing or invalid entry is reported
// as NotConfigured rather than as an error.
func (s *ProviderService) resolve(ctx context.Context, name string) (domain.Manifest, domain.Availability, error) {
	if name == "" {
		return domain.Manifest{}, domain.Unavailable(domain.StatusNotConfigured, "no provider selected"), nil
	}
	manifests, err := s.store.Load(ctx)
	if err != nil {
		return domain.Manifest{}, domain.Availability{}, err
	}
	for _, m := range manifests {
		if m.Name != name {
			continue
		}
		if err := m.Validate(); err != nil {
			return m, domain.Unavailable(domain.StatusNotConfigured, "invalid manifest: %v", err), nil
		}
		return m, domain.Availability{Status: domain.StatusAvailable}, nil
	}
	return domain.Manifest{}, domain.Unavailable(domain.StatusNotConfigured, "provider %q is not configured", name), nil
}

// availability checks a valid manifest. The handshake is optional because
// fetching performs one anyway.
func (s *ProviderService) availability(ctx context.Context, m domain.Manifest, handshake bool) domain.Availability {
	if !m.Enabled {
		return domain.Unavailable(domain.StatusDisabled, "provider %s is disabled", m.Name)
	}
	if !fileExists(m.Binary) {
		return domain.Unavailable(domain.StatusBinaryMissing, "binary does not exist: %s", m.Binary)
	}
	if err := checksumMatches(m.Binary, m.SHA256); err != nil {
		return domain.Unavailable(domain.StatusChecksumMismatch, "%v", err)
	}
	if s.host == nil {
		return domain.Unavailable(domain.StatusHandshakeFailed, "no provider host configured")
	}
	if handshake {
		if err := s.host.CheckLifecycle(ctx, m); err != nil {
			return domain.Unavailable(domain.StatusHandshakeFailed, "%v", err)
		}
	}
	return domain.Availability{Status: domain.StatusAvailable}
}

func (s *ProviderService) loadValidated(ctx context.Context) ([]domain.Manifest, error) {
	manifests, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	seenNames := map[string]struct{}{}
	for _, manifest := range manifests {
		if err := manifest.Validate(); err != nil {
			return nil, err
		}
		if _, ok := seenNames[manifest.Name]; ok {
			return nil, fmt.Errorf("duplicate provider name: %s", manifest.Name)
		}
		seenNames[manifest.Name] = struct{}{}
	}
	return manifests, nil
}

func availabilityOutput(name string, availability domain.Availability) dto.AvailabilityOutput {
	return dto.AvailabilityOutput{
		Name:      name,
		Available: availability.Available(),
		Status:    string(availability.Status),
		Reason:    availability.Reason,
	}
}

func toRecordDTOs(records []domain.Record) []dto.Record {
	out := make([]dto.Record, 0, len(records))
	for _, record := range records {
		stages := make([]dto.StageRecord, 0, len(record.Stages))
		for _, stage := range record.Stages {
			stages = append(stages, dto.StageRecord{Kind: stage.Kind, Start: stage.Start, End: stage.End})
		}
		out = append(out, dto.Record{
			ExternalID:    record.ExternalID,
			SourceLabel:   record.SourceLabel,
			Start:         record.Start,
			End:           record.End,
			OffsetSeconds: record.TimeZoneOffsetSeconds,
			Stages:        stages,
		})
	}
	return out
}

func formatSince(since time.Time) string {
	if since.IsZero() {
		return "beginning"
	}
	return since.Format(time.RFC3339)
}

func checksumMatches(path string, expected string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read provider binary: %w", err)
	}
	hash := sha256.Sum256(payload)
	actual := hex.EncodeToString(hash[:])
	if actual != expected {
		return fmt.Errorf("%w: %s", domain.ErrChecksumMismatch, filepath.Base(path))
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
