package grpc

import (
	"context"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	EmailHygieneServiceName     = "library.admin.v1.EmailHygiene"
	ListInvalidEmailsFullMethod = "/" + EmailHygieneServiceName + "/ListInvalidEmails"
	FixEmailFullMethod          = "/" + EmailHygieneServiceName + "/FixEmail"
)

// EmailHygieneServer is the server API of library.admin.v1.EmailHygiene.
// Payloads are google.protobuf.Struct values carrying the same JSON field
// names as the HTTP endpoints.
type EmailHygieneServer interface {
	ListInvalidEmails(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	FixEmail(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func RegisterEmailHygieneServer(s gogrpc.ServiceRegistrar, srv EmailHygieneServer) {
	s.RegisterService(&EmailHygieneServiceDesc, srv)
}

func listInvalidEmailsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor gogrpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EmailHygieneServer).ListInvalidEmails(ctx, in)
	}
	info := &gogrpc.UnaryServerInfo{Server: srv, FullMethod: ListInvalidEmailsFullMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(EmailHygieneServer).ListInvalidEmails(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func fixEmailHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor gogrpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EmailHygieneServer).FixEmail(ctx, in)
	}
	info := &gogrpc.UnaryServerInfo{Server: srv, FullMethod: FixEmailFullMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(EmailHygieneServer).FixEmail(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

var EmailHygieneServiceDesc = gogrpc.ServiceDesc{
	ServiceName: EmailHygieneServiceName,
	HandlerType: (*EmailHygieneServer)(nil),
	Methods: []gogrpc.MethodDesc{
		{MethodName: "ListInvalidEmails", Handler: listInvalidEmailsHandler},
		{MethodName: "FixEmail", Handler: fixEmailHandler},
	},
	Streams:  []gogrpc.StreamDesc{},
	Metadata: "library/admin/v1/email_hygiene.proto",
}

// EmailHygieneClient is the client API of library.admin.v1.EmailHygiene.
type EmailHygieneClient struct {
	cc gogrpc.ClientConnInterface
}

func NewEmailHygieneClient(cc gogrpc.ClientConnInterface) *EmailHygieneClient {
	return &EmailHygieneClient{cc: cc}
}

func (c *EmailHygieneClient) ListInvalidEmails(ctx context.Context, in *emptypb.Empty, opts ...gogrpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ListInvalidEmailsFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *EmailHygieneClient) FixEmail(ctx context.Context, in *structpb.Struct, opts ...gogrpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FixEmailFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
