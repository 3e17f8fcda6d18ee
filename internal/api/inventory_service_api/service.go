package inventory_service_api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "busbooking.inventory.v1.InventoryService"

const (
	InventoryService_Reserve_FullMethodName      = "/" + ServiceName + "/Reserve"
	InventoryService_Cancel_FullMethodName       = "/" + ServiceName + "/Cancel"
	InventoryService_Availability_FullMethodName = "/" + ServiceName + "/Availability"
)

// InventoryServiceServer carries request and response payloads as
// google.protobuf.Struct so the service needs no generated message types.
type InventoryServiceServer interface {
	Reserve(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Cancel(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Availability(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type UnimplementedInventoryServiceServer struct{}

func (UnimplementedInventoryServiceServer) Reserve(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Reserve not implemented")
}

func (UnimplementedInventoryServiceServer) Cancel(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Cancel not implemented")
}

func (UnimplementedInventoryServiceServer) Availability(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Availability not implemented")
}

func RegisterInventoryServiceServer(s grpc.ServiceRegistrar, srv InventoryServiceServer) {
	s.RegisterService(&InventoryService_ServiceDesc, srv)
}

func unaryHandler(method string, call func(InventoryServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(InventoryServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(InventoryServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var InventoryService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*InventoryServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Reserve",
			Handler:    unaryHandler(InventoryService_Reserve_FullMethodName, InventoryServiceServer.Reserve),
		},
		{
			MethodName: "Cancel",
			Handler:    unaryHandler(InventoryService_Cancel_FullMethodName, InventoryServiceServer.Cancel),
		},
		{
			MethodName: "Availability",
			Handler:    unaryHandler(InventoryService_Availability_FullMethodName, InventoryServiceServer.Availability),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "busbooking/inventory/v1/inventory.proto",
}

type InventoryServiceClient interface {
	Reserve(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Cancel(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Availability(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type inventoryServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewInventoryServiceClient(cc grpc.ClientConnInterface) InventoryServiceClient {
	return &inventoryServiceClient{cc: cc}
}

func (c *inventoryServiceClient) Reserve(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, InventoryService_Reserve_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *inventoryServiceClient) Cancel(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, InventoryService_Cancel_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *inventoryServiceClient) Availability(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, InventoryService_Availability_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
