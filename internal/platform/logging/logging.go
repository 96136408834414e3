package logging

import (
	"fmt"
	"io"
	"strings"

	hclog "github.com/hashicorp/go-hclog"
)

// New builds the root logger. Components take named sub-loggers from it.
func New(name, level string, out io.Writer) (hclog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   name,
		Level:  lvl,
		Output: out,
	}), nil
}

// ParseLevel maps a level name onto hclog. An empty name means info.
func ParseLevel(level string) (hclog.Level, error) {
	if strings.TrimSpace(level) == "" {
		return hclog.Info, nil
	}
	lvl := hclog.LevelFromString(level)
	if lvl == hclog.NoLevel {
		return hclog.NoLevel, fmt.Errorf("unknown log level %q", level)
	}
	return lvl, nil
}

// OrNull returns logger, or a logger that drops everything when logger is nil.
func OrNull(logger hclog.Logger) hclog.Logger {
	if logger == nil {
		return hclog.NewNullLogger()
	}
	return logger
}
