package errors_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"

	svcErr "github.com/oggyb/fall-in/internal/errors"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, svcErr.KindValidation, svcErr.KindOf(svcErr.Validation("bad")))
	assert.Equal(t, svcErr.KindNotFound, svcErr.KindOf(fmt.Errorf("load: %w", gorm.ErrRecordNotFound)))
	assert.Equal(t, svcErr.KindUpstream, svcErr.KindOf(svcErr.Upstream(fmt.Errorf("dial tcp"))))
	assert.Equal(t, svcErr.KindUpstream, svcErr.KindOf(context.DeadlineExceeded))
	assert.Equal(t, svcErr.KindUnknown, svcErr.KindOf(fmt.Errorf("boom")))
	assert.Nil(t, svcErr.Upstream(nil))
}

func TestUpstreamKeepsTypedErrors(t *testing.T) {
	err := svcErr.Upstream(fmt.Errorf("wrap: %w", svcErr.Authorization("nope")))
	assert.Equal(t, svcErr.KindAuthorization, svcErr.KindOf(err))
}

func TestMap(t *testing.T) {
	cases := []struct {
		err  error
		code codes.Code
	}{
		{svcErr.Validation("x"), codes.InvalidArgument},
		{svcErr.Authorization("x"), codes.PermissionDenied},
		{svcErr.NotFound("x"), codes.NotFound},
		{gorm.ErrRecordNotFound, codes.NotFound},
		{svcErr.Upstream(fmt.Errorf("down")), codes.Unavailable},
		{context.Canceled, codes.Canceled},
		{fmt.Errorf("boom"), codes.Internal},
	}
	for _, c := range cases {
		assert.Equal(t, c.code, status.Code(svcErr.Map(c.err)), c.err.Error())
	}
	assert.Nil(t, svcErr.Map(nil))
}

func TestHTTPStatus(t *testing.T) {
	code, env, msg := svcErr.HTTPStatus(svcErr.Authorization("not your request"))
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "FORBIDDEN", env)
	assert.Equal(t, "not your request", msg)

	code, env, _ = svcErr.HTTPStatus(fmt.Errorf("boom"))
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "INTERNAL_ERROR", env)
}
