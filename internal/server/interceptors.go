package server

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/oggyb/fall-in/internal/auth"
	svcErr "github.com/oggyb/fall-in/internal/errors"
	"github.com/oggyb/fall-in/internal/logger"
	"github.com/oggyb/fall-in/internal/metrics"
)

const metadataKeyRequestID = "x-request-id"

// Authenticator resolves a session token.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Claims, error)
}

// UnaryLogging puts a child logger carrying the request id into the context
// and logs every completed call.
func UnaryLogging(base *slog.Logger, m *metrics.Metrics) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		child := base.With("request_id", requestIDFromMD(ctx), "grpc_method", info.FullMethod)
		ctx = logger.Into(ctx, child)

		resp, err := handler(ctx, req)

		code := status.Code(err)
		attrs := []any{"grpc_code", code.String(), logger.Since(start)}
		if userID := auth.UserIDFrom(ctx); userID != "" {
			attrs = append(attrs, "user_id", userID)
		}
		if err != nil {
			attrs = append(attrs, "err", err)
		}
		child.Info("unary call completed", attrs...)
		if m != nil {
			m.ObserveGRPC(info.FullMethod, code.String())
		}
		return resp, err
	}
}

// UnaryAuth requires a bearer session token in the authorization metadata of
// every call except health checks and reflection.
func UnaryAuth(a Authenticator) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if public(info.FullMethod) {
			return handler(ctx, req)
		}
		token := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if vals := md.Get("authorization"); len(vals) > 0 {
				token = auth.BearerToken(vals[0])
			}
		}
		if token == "" {
			return nil, svcErr.Unauthenticated("missing session token")
		}
		claims, err := a.Authenticate(ctx, token)
		if err != nil {
			if svcErr.Is(err, svcErr.KindAuthorization) {
				return nil, svcErr.Unauthenticated(svcErr.Message(err))
			}
			return nil, svcErr.Map(err)
		}
		return handler(auth.WithUserID(ctx, claims.UserID()), req)
	}
}

func public(method string) bool {
	return strings.HasPrefix(method, "/grpc.health.v1.") || strings.HasPrefix(method, "/grpc.reflection.")
}

func requestIDFromMD(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if vals := md.Get(metadataKeyRequestID); len(vals) > 0 && vals[0] != "" {
			return vals[0]
		}
	}
	return uuid.NewString()
}
