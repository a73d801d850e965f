package ledger

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/oggyb/fall-in/internal/auth"
	svcErr "github.com/oggyb/fall-in/internal/errors"
)

// ServiceName is the fully-qualified gRPC service name of the ledger.
const ServiceName = "fallin.ledger.v1.LedgerService"

// LedgerServer is the gRPC surface of the ledger. Payloads use protobuf
// well-known types; the caller is the session user attached by the auth interceptor.
type LedgerServer interface {
	RecordLike(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RequestChat(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RespondChat(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CanMessage(context.Context, *structpb.Struct) (*wrapperspb.BoolValue, error)
	Unmatch(context.Context, *structpb.Struct) (*emptypb.Empty, error)
}

func unary[T proto.Message](method string, newReq func() T, call func(LedgerServer, context.Context, T) (any, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := newReq()
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(LedgerServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + method}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(T))
			})
		},
	}
}

func newStruct() *structpb.Struct { return &structpb.Struct{} }

// serviceDesc carries no proto file metadata: reflection lists the service
// name but has no file descriptor to serve for it.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LedgerServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("RecordLike", newStruct, func(s LedgerServer, ctx context.Context, in *structpb.Struct) (any, error) {
			return s.RecordLike(ctx, in)
		}),
		unary("RequestChat", newStruct, func(s LedgerServer, ctx context.Context, in *structpb.Struct) (any, error) {
			return s.RequestChat(ctx, in)
		}),
		unary("RespondChat", newStruct, func(s LedgerServer, ctx context.Context, in *structpb.Struct) (any, error) {
			return s.RespondChat(ctx, in)
		}),
		unary("CanMessage", newStruct, func(s LedgerServer, ctx context.Context, in *structpb.Struct) (any, error) {
			return s.CanMessage(ctx, in)
		}),
		unary("Unmatch", newStruct, func(s LedgerServer, ctx context.Context, in *structpb.Struct) (any, error) {
			return s.Unmatch(ctx, in)
		}),
	},
	Streams: []grpc.StreamDesc{},
}

// GRPCServer adapts Service to LedgerServer.
type GRPCServer struct {
	svc *Service
}

var _ LedgerServer = (*GRPCServer)(nil)

func NewGRPCServer(svc *Service) *GRPCServer { return &GRPCServer{svc: svc} }

func caller(ctx context.Context) (string, error) {
	id := auth.UserIDFrom(ctx)
	if id == "" {
		return "", svcErr.Unauthenticated("missing session")
	}
	return id, nil
}

func field(in *structpb.Struct, name string) string {
	if v, ok := in.GetFields()[name]; ok {
		return v.GetStringValue()
	}
	return ""
}

func (g *GRPCServer) RecordLike(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	actor, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	res, err := g.svc.RecordLike(ctx, actor, field(in, "target_user_id"))
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return structpb.NewStruct(map[string]any{"matched": res.Matched, "duplicate": res.Duplicate})
}

func (g *GRPCServer) RequestChat(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	actor, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	res, err := g.svc.RequestChat(ctx, actor, field(in, "receiver_user_id"))
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return structpb.NewStruct(map[string]any{
		"request_id":        res.Request.ID,
		"status":            res.Request.Status,
		"already_requested": res.AlreadyRequested,
	})
}

func (g *GRPCServer) RespondChat(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	actor, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	accept := in.GetFields()["accept"].GetBoolValue()
	req, err := g.svc.RespondChat(ctx, field(in, "request_id"), actor, accept)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return structpb.NewStruct(map[string]any{"request_id": req.ID, "status": req.Status})
}

func (g *GRPCServer) CanMessage(ctx context.Context, in *structpb.Struct) (*wrapperspb.BoolValue, error) {
	actor, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	ok, err := g.svc.CanMessage(ctx, actor, field(in, "other_user_id"))
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return wrapperspb.Bool(ok), nil
}

func (g *GRPCServer) Unmatch(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	actor, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if err := g.svc.Unmatch(ctx, actor, field(in, "other_user_id")); err != nil {
		return nil, svcErr.Map(err)
	}
	return &emptypb.Empty{}, nil
}

// Client calls the ledger over a gRPC connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client { return &Client{cc: cc} }

func (c *Client) invoke(ctx context.Context, method string, in, out proto.Message) error {
	return c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out)
}

func (c *Client) RecordLike(ctx context.Context, target string) (matched bool, err error) {
	in, _ := structpb.NewStruct(map[string]any{"target_user_id": target})
	out := &structpb.Struct{}
	if err := c.invoke(ctx, "RecordLike", in, out); err != nil {
		return false, err
	}
	return out.GetFields()["matched"].GetBoolValue(), nil
}

func (c *Client) RequestChat(ctx context.Context, receiver string) (requestID string, already bool, err error) {
	in, _ := structpb.NewStruct(map[string]any{"receiver_user_id": receiver})
	out := &structpb.Struct{}
	if err := c.invoke(ctx, "RequestChat", in, out); err != nil {
		return "", false, err
	}
	return field(out, "request_id"), out.GetFields()["already_requested"].GetBoolValue(), nil
}

func (c *Client) RespondChat(ctx context.Context, requestID string, accept bool) (status string, err error) {
	in, _ := structpb.NewStruct(map[string]any{"request_id": requestID, "accept": accept})
	out := &structpb.Struct{}
	if err := c.invoke(ctx, "RespondChat", in, out); err != nil {
		return "", err
	}
	return field(out, "status"), nil
}

func (c *Client) CanMessage(ctx context.Context, other string) (bool, error) {
	in, _ := structpb.NewStruct(map[string]any{"other_user_id": other})
	out := &wrapperspb.BoolValue{}
	if err := c.invoke(ctx, "CanMessage", in, out); err != nil {
		return false, err
	}
	return out.GetValue(), nil
}

func (c *Client) Unmatch(ctx context.Context, other string) error {
	in, _ := structpb.NewStruct(map[string]any{"other_user_id": other})
	return c.invoke(ctx, "Unmatch", in, &emptypb.Empty{})
}
