package grpchost

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "provkit.ProviderHost"

// SchemaRequest is the (empty) GetSchema request message.
type SchemaRequest struct{}

// Schema describes a hosted provider: its name, host version, and the
// declared configuration fields with their default values.
type Schema struct {
	Name         string         `json:"name"`
	Version      string         `json:"version"`
	ConfigFields map[string]any `json:"configFields"`
}

// StartRequest carries the opaque configuration payload for Start.
type StartRequest struct {
	Config json.RawMessage `json:"config"`
}

// StartResponse is the (empty) Start acknowledgement.
type StartResponse struct{}

// service is the contract the ServiceDesc handlers dispatch against.
type service interface {
	GetSchema(ctx context.Context, req *SchemaRequest) (*Schema, error)
	Start(ctx context.Context, req *StartRequest) (*StartResponse, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*service)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetSchema", Handler: getSchemaHandler},
		{MethodName: "Start", Handler: startHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "provkit/providerhost",
}

func getSchemaHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(SchemaRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(service).GetSchema(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + ServiceName + "/GetSchema",
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(service).GetSchema(ctx, req.(*SchemaRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func startHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(StartRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(service).Start(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + ServiceName + "/Start",
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(service).Start(ctx, req.(*StartRequest))
	}
	return interceptor(ctx, in, info, handler)
}
