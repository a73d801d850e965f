package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/fall-in/internal/auth"
)

func TestIssueAndParse(t *testing.T) {
	m := auth.NewManager("secret", time.Hour, "fall-in")

	token, claims, err := m.Issue("user-1")
	require.NoError(t, err)
	assert.NotEmpty(t, claims.ID)

	parsed, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", parsed.UserID())
	assert.Equal(t, claims.ID, parsed.ID)
}

func TestParseRejectsForeignSignature(t *testing.T) {
	token, _, err := auth.NewManager("other", time.Hour, "fall-in").Issue("user-1")
	require.NoError(t, err)

	_, err = auth.NewManager("secret", time.Hour, "fall-in").Parse(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = auth.NewManager("secret", time.Hour, "fall-in").Parse("garbage")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestParseExpired(t *testing.T) {
	issuedAt := time.Now().Add(-2 * time.Hour)
	m := auth.NewManager("secret", time.Hour, "fall-in").WithClock(func() time.Time { return issuedAt })
	token, _, err := m.Issue("user-1")
	require.NoError(t, err)

	_, err = auth.NewManager("secret", time.Hour, "fall-in").Parse(token)
	assert.ErrorIs(t, err, auth.ErrExpiredToken)
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", auth.BearerToken("Bearer abc"))
	assert.Equal(t, "abc", auth.BearerToken("bearer  abc"))
	assert.Equal(t, "", auth.BearerToken("Basic abc"))
	assert.Equal(t, "", auth.BearerToken("Bearer "))
}
