package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hashicorp/go-plugin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

const (
	PluginMapKey       = "provider"
	serviceName        = "sleeptrack.provider.v1.Provider"
	jsonCodecName      = "json"
	methodGetMetadata  = "/" + serviceName + "/GetMetadata"
	methodFetchRecords = "/" + serviceName + "/FetchRecords"
)

var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "SLEEPTRACK_PROVIDER",
	MagicCookieValue: "sleeptrack",
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return jsonCodecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type Empty struct{}

type Metadata struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// FetchRecordsRequest asks for records ending after Since. A zero Since asks
// for everything.
type FetchRecordsRequest struct {
	Since time.Time `json:"since" yaml:"since"`
}

type Stage struct {
	Kind  string    `json:"kind" yaml:"kind"`
	Start time.Time `json:"start" yaml:"start"`
	End   time.Time `json:"end" yaml:"end"`
}

type Record struct {
	ExternalID    string    `json:"external_id" yaml:"external_id"`
	Source        string    `json:"source" yaml:"source"`
	Start         time.Time `json:"start" yaml:"start"`
	End           time.Time `json:"end" yaml:"end"`
	OffsetSeconds *int      `json:"tz_offset_seconds,omitempty" yaml:"tz_offset_seconds,omitempty"`
	Stages        []Stage   `json:"stages,omitempty" yaml:"stages,omitempty"`
}

type FetchRecordsResponse struct {
	Records []Record `json:"records"`
}

type ProviderServer interface {
	GetMetadata(ctx context.Context, in *Empty) (*Metadata, error)
	FetchRecords(ctx context.Context, in *FetchRecordsRequest) (*FetchRecordsResponse, error)
}

type ProviderClient interface {
	GetMetadata(ctx context.Context) (*Metadata, error)
	FetchRecords(ctx context.Context, in *FetchRecordsRequest) (*FetchRecordsResponse, error)
}

type providerClient struct {
	conn *grpc.ClientConn
}

func NewProviderClient(conn *grpc.ClientConn) ProviderClient {
	return &providerClient{conn: conn}
}

func (c *providerClient) GetMetadata(ctx context.Context) (*Metadata, error) {
	out := &Metadata{}
	if err := c.conn.Invoke(ctx, methodGetMetadata, &Empty{}, out, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *providerClient) FetchRecords(ctx context.Context, in *FetchRecordsRequest) (*FetchRecordsResponse, error) {
	out := &FetchRecordsResponse{}
	if err := c.conn.Invoke(ctx, methodFetchRecords, in, out, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func RegisterProviderServer(server grpc.ServiceRegistrar, impl ProviderServer) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*ProviderServer)(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: "GetMetadata",
				Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
					in := &Empty{}
					if err := dec(in); err != nil {
						return nil, err
					}
					if interceptor == nil {
						return impl.GetMetadata(ctx, in)
					}
					info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodGetMetadata}
					handler := func(ctx context.Context, req any) (any, error) {
						empty, ok := req.(*Empty)
						if !ok {
							return nil, fmt.Errorf("invalid request type")
						}
						return impl.GetMetadata(ctx, empty)
					}
					return interceptor(ctx, in, info, handler)
				},
			},
			{
				MethodName: "FetchRecords",
				Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
					in := &FetchRecordsRequest{}
					if err := dec(in); err != nil {
						return nil, err
					}
					if interceptor == nil {
						return impl.FetchRecords(ctx, in)
					}
					info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodFetchRecords}
					handler := func(ctx context.Context, req any) (any, error) {
						inReq, ok := req.(*FetchRecordsRequest)
						if !ok {
							return nil, fmt.Errorf("invalid request type")
						}
						return impl.FetchRecords(ctx, inReq)
					}
					return interceptor(ctx, in, info, handler)
				},
			},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "schemas/provider-rpc-v1.proto",
	}, impl)
}

type GRPCPlugin struct {
	plugin.NetRPCUnsupportedPlugin
	Impl ProviderServer
}

func (p *GRPCPlugin) GRPCServer(_ *plugin.GRPCBroker, server *grpc.Server) error {
	RegisterProviderServer(server, p.Impl)
	return nil
}

func (p *GRPCPlugin) GRPCClient(_ context.Context, _ *plugin.GRPCBroker, conn *grpc.ClientConn) (any, error) {
	return NewProviderClient(conn), nil
}

func PluginMap(impl ProviderServer) map[string]plugin.Plugin {
	return map[string]plugin.Plugin{
		PluginMapKey: &GRPCPlugin{Impl: impl},
	}
}
