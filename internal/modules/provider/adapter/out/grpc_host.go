package out

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"time"

	providerrpc "sleeptrack/internal/modules/provider/adapter/out/rpc"
	"sleeptrack/internal/modules/provider/domain"
	providerout "sleeptrack/internal/modules/provider/port/out"
	"sleeptrack/internal/platform/logging"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
)

const (
	defaultStartTimeout = 3 * time.Second
	defaultCallTimeout  = 5 * time.Second
	defaultFetchTimeout = 30 * time.Second
)

// GRPCHost runs each provider as a go-plugin child process for the length of
// one call.
type GRPCHost struct {
	logger hclog.Logger
}

func NewGRPCHost(logger hclog.Logger) providerout.Host {
	return &GRPCHost{logger: logging.OrNull(logger)}
}

func (h *GRPCHost) CheckLifecycle(ctx context.Context, manifest domain.Manifest) error {
	_, err := h.GetMetadata(ctx, manifest)
	return err
}

func (h *GRPCHost) GetMetadata(ctx context.Context, manifest domain.Manifest) (domain.Metadata, error) {
	client, closeFn, err := h.connect(manifest, defaultStartTimeout)
	if err != nil {
		return domain.Metadata{}, err
	}
	defer closeFn()

	callCtx, cancel := h.callContext(ctx, defaultCallTimeout)
	defer cancel()

	meta, err := client.GetMetadata(callCtx)
	if err != nil {
		return domain.Metadata{}, fmt.Errorf("%w: get metadata: %v", domain.ErrHandshakeFailed, err)
	}
	return domain.Metadata{Name: meta.Name, Version: meta.Version}, nil
}

func (h *GRPCHost) FetchRecords(ctx context.Context, manifest domain.Manifest, since time.Time) ([]domain.Record, error) {
	client, closeFn, err := h.connect(manifest, defaultStartTimeout)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	callCtx, cancel := h.callContext(ctx, defaultFetchTimeout)
	defer cancel()
	response, err := client.FetchRecords(callCtx, &providerrpc.FetchRecordsRequest{Since: since})
	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w: fetch records from %s", domain.ErrProviderTimeout, manifest.Name)
		}
		return nil, fmt.Errorf("fetch records: %w", err)
	}
	out := make([]domain.Record, 0, len(response.Records))
	for _, record := range response.Records {
		stages := make([]domain.Stage, 0, len(record.Stages))
		for _, stage := range record.Stages {
			stages = append(stages, domain.Stage{Kind: stage.Kind, Start: stage.Start, End: stage.End})
		}
		out = append(out, domain.Record{
			ExternalID:            record.ExternalID,
			SourceLabel:           record.Source,
			Start:                 record.Start,
			End:                   record.End,
			TimeZoneOffsetSeconds: record.OffsetSeconds,
			Stages:                stages,
		})
	}
	return out, nil
}

func (h *GRPCHost) connect(manifest domain.Manifest, startTimeout time.Duration) (providerrpc.ProviderClient, func(), error) {
	cmd := exec.Command(manifest.Binary)
	cmd.Env = append(os.Environ(), manifestEnv(manifest)...)
	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  providerrpc.HandshakeConfig,
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolGRPC},
		Plugins:          providerrpc.PluginMap(nil),
		Cmd:              cmd,
		Managed:          true,
		StartTimeout:     startTimeout,
		Logger:           h.logger.Named(manifest.Name),
	})
	closeFn := func() { client.Kill() }

	rpcClient, err := client.Client()
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("%w: start provider client: %v", domain.ErrHandshakeFailed, err)
	}
	raw, err := rpcClient.Dispense(providerrpc.PluginMapKey)
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("%w: dispense provider: %v", domain.ErrHandshakeFailed, err)
	}
	typed, ok := raw.(providerrpc.ProviderClient)
	if !ok {
		closeFn()
		return nil, nil, fmt.Errorf("%w: provider rpc client type mismatch", domain.ErrHandshakeFailed)
	}
	return typed, closeFn, nil
}

func manifestEnv(manifest domain.Manifest) []string {
	keys := make([]string, 0, len(manifest.Env))
	for key := range manifest.Env {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	env := make([]string, 0, len(keys))
	for _, key := range keys {
		env = append(env, key+"="+manifest.Env[key])
	}
	return env
}

func (h *GRPCHost) callContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := parent.Deadline(); ok {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}
