package main

import (
	"context"
	"fmt"
	"os"

	providerrpc "sleeptrack/internal/modules/provider/adapter/out/rpc"

	"github.com/hashicorp/go-plugin"
	"gopkg.in/yaml.v3"
)

// recordsFileEnv names the JSON or YAML file holding the records this
// provider serves.
const recordsFileEnv = "SLEEPTRACK_RECORDS_FILE"

type server struct {
	path string
}

func (s *server) GetMetadata(_ context.Context, _ *providerrpc.Empty) (*providerrpc.Metadata, error) {
	return &providerrpc.Metadata{Name: "fileprovider", Version: "1.0.0"}, nil
}

func (s *server) FetchRecords(_ context.Context, in *providerrpc.FetchRecordsRequest) (*providerrpc.FetchRecordsResponse, error) {
	if s.path == "" {
		return nil, fmt.Errorf("%s is not set", recordsFileEnv)
	}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read records file: %w", err)
	}
	var records []providerrpc.Record
	if err := yaml.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode records file: %w", err)
	}
	out := make([]providerrpc.Record, 0, len(records))
	for _, record := range records {
		if !in.Since.IsZero() && !record.End.After(in.Since) {
			continue
		}
		out = append(out, record)
	}
	return &providerrpc.FetchRecordsResponse{Records: out}, nil
}

func main() {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: providerrpc.HandshakeConfig,
		Plugins:         providerrpc.PluginMap(&server{path: os.Getenv(recordsFileEnv)}),
		GRPCServer:      plugin.DefaultGRPCServer,
	})
}
