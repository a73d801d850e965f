package errors

import (
	"context"
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Map converts service errors into gRPC-friendly status errors.
func Map(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "request timed out")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request was canceled")
	}

	switch KindOf(err) {
	case KindValidation:
		return status.Error(codes.InvalidArgument, Message(err))
	case KindAuthorization:
		return status.Error(codes.PermissionDenied, Message(err))
	case KindNotFound:
		return status.Error(codes.NotFound, Message(err))
	case KindUpstream:
		return status.Error(codes.Unavailable, Message(err))
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// InvalidArgument creates a gRPC InvalidArgument error.
func InvalidArgument(msg string) error {
	return status.Error(codes.InvalidArgument, msg)
}

// Unauthenticated creates a gRPC Unauthenticated error.
func Unauthenticated(msg string) error {
	return status.Error(codes.Unauthenticated, msg)
}

// HTTPStatus maps err to an HTTP status, an envelope code and a message.
func HTTPStatus(err error) (int, string, string) {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest, "BAD_REQUEST", Message(err)
	case KindAuthorization:
		return http.StatusForbidden, "FORBIDDEN", Message(err)
	case KindNotFound:
		return http.StatusNotFound, "NOT_FOUND", Message(err)
	case KindUpstream:
		return http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", Message(err)
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "internal error"
	}
}
