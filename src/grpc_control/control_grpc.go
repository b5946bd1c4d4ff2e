package grpc_control

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "trendpulse.control.v1.PulseControl"

// PulseControlServer is the control plane contract. Requests and replies
// use protobuf well-known types so no generated code is needed.
type PulseControlServer interface {
	ListSources(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	AddSource(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RemoveSource(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ReconnectSource(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AcknowledgeAlert(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetDashboard(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// -----------------------------------------------------------------------------

var PulseControl_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PulseControlServer)(nil),
	Methods: []grpc.MethodDesc{
		emptyMethod("ListSources", PulseControlServer.ListSources),
		structMethod("AddSource", PulseControlServer.AddSource),
		structMethod("RemoveSource", PulseControlServer.RemoveSource),
		structMethod("ReconnectSource", PulseControlServer.ReconnectSource),
		structMethod("AcknowledgeAlert", PulseControlServer.AcknowledgeAlert),
		emptyMethod("GetDashboard", PulseControlServer.GetDashboard),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "trendpulse/control.proto",
}

// -----------------------------------------------------------------------------

func RegisterPulseControlServer(s grpc.ServiceRegistrar, srv PulseControlServer) {
	s.RegisterService(&PulseControl_ServiceDesc, srv)
}

// -----------------------------------------------------------------------------

func emptyMethod(name string, call func(PulseControlServer, context.Context, *emptypb.Empty) (*structpb.Struct, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(emptypb.Empty)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(PulseControlServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(PulseControlServer), ctx, req.(*emptypb.Empty))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// -----------------------------------------------------------------------------

func structMethod(name string, call func(PulseControlServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(PulseControlServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(PulseControlServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// -----------------------------------------------------------------------------
// Client
// -----------------------------------------------------------------------------

type PulseControlClient struct {
	cc grpc.ClientConnInterface
}

func NewPulseControlClient(cc grpc.ClientConnInterface) *PulseControlClient {
	return &PulseControlClient{cc: cc}
}

// -----------------------------------------------------------------------------

func (c *PulseControlClient) invoke(ctx context.Context, method string, in interface{}, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// -----------------------------------------------------------------------------

func (c *PulseControlClient) ListSources(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ListSources", &emptypb.Empty{}, opts...)
}

func (c *PulseControlClient) AddSource(ctx context.Context, sourceID string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "AddSource", sourceRequest(sourceID), opts...)
}

func (c *PulseControlClient) RemoveSource(ctx context.Context, sourceID string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "RemoveSource", sourceRequest(sourceID), opts...)
}

func (c *PulseControlClient) ReconnectSource(ctx context.Context, sourceID string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ReconnectSource", sourceRequest(sourceID), opts...)
}

func (c *PulseControlClient) AcknowledgeAlert(ctx context.Context, alertID string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	req := &structpb.Struct{Fields: map[string]*structpb.Value{"alertId": structpb.NewStringValue(alertID)}}
	return c.invoke(ctx, "AcknowledgeAlert", req, opts...)
}

func (c *PulseControlClient) GetDashboard(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetDashboard", &emptypb.Empty{}, opts...)
}

// -----------------------------------------------------------------------------

func sourceRequest(sourceID string) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{"sourceId": structpb.NewStringValue(sourceID)}}
}
