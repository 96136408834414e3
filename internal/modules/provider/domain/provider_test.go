package domain_test

import (
	"strings"
	"testing"

	"sleeptrack/internal/modules/provider/domain"
)

func TestManifestValidate(t *testing.T) {
	t.Parallel()
	valid := domain.Manifest{
		Name:    "watch",
		Version: "1.0.0",
		Binary:  "/tmp/watch-provider",
		SHA256:  strings.Repeat("a", 64),
		Enabled: true,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid manifest, got %v", err)
	}

	cases := map[string]func(m *domain.Manifest){
		"missing name":    func(m *domain.Manifest) { m.Name = "" },
		"missing version": func(m *domain.Manifest) { m.Version = "" },
		"missing binary":  func(m *domain.Manifest) { m.Binary = "" },
		"upper checksum":  func(m *domain.Manifest) { m.SHA256 = strings.Repeat("A", 64) },
		"short checksum":  func(m *domain.Manifest) { m.SHA256 = "abc" },
	}
	for name, mutate := range cases {
		mutate := mutate
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			manifest := valid
			mutate(&manifest)
			if err := manifest.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestAvailability(t *testing.T) {
	t.Parallel()
	if !(domain.Availability{Status: domain.StatusAvailable}).Available() {
		t.Fatalf("available status must report available")
	}
	off := domain.Unavailable(domain.StatusDisabled, "provider %s is disabled", "watch")
	if off.Available() || off.Reason != "provider watch is disabled" {
		t.Fatalf("unexpected availability: %+v", off)
	}
}
