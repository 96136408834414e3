package logging_test

import (
	"bytes"
	"strings"
	"testing"

	hclog "github.com/hashicorp/go-hclog"

	"sleeptrack/internal/platform/logging"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()
	cases := map[string]hclog.Level{
		"":      hclog.Info,
		"  ":    hclog.Info,
		"debug": hclog.Debug,
		"WARN":  hclog.Warn,
		"error": hclog.Error,
		"trace": hclog.Trace,
	}
	for raw, want := range cases {
		got, err := logging.ParseLevel(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if got != want {
			t.Fatalf("parse %q: expected %s, got %s", raw, want, got)
		}
	}
	if _, err := logging.ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestNewFiltersBelowLevel(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	logger, err := logging.New("sleeptrack", "warn", &out)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown")
	if strings.Contains(out.String(), "hidden") || !strings.Contains(out.String(), "shown") {
		t.Fatalf("unexpected log output %q", out.String())
	}
}
