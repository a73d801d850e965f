package mail_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/fall-in/internal/config"
	"github.com/oggyb/fall-in/internal/logger"
	"github.com/oggyb/fall-in/internal/mail"
)

func TestRenderOTP(t *testing.T) {
	body, err := mail.RenderOTP("123456", 10)
	require.NoError(t, err)
	assert.Contains(t, body, "123456")
	assert.Contains(t, body, "10 minutes")
}

func TestNewPicksNoopWithoutSMTP(t *testing.T) {
	cfg := config.New()
	cfg.Mail.Host = ""
	cfg.Mail.Username = ""

	sender := mail.New(cfg, logger.Discard())
	_, ok := sender.(mail.NoopSender)
	assert.True(t, ok)
	assert.NoError(t, sender.SendOTP(context.Background(), "a@uni.edu", "000000"))
}

func TestNewPicksSMTPWhenConfigured(t *testing.T) {
	cfg := config.New()
	cfg.Mail.Host = "smtp.example.com"
	cfg.Mail.Username = "noreply@example.com"

	_, ok := mail.New(cfg, logger.Discard()).(*mail.SMTPSender)
	assert.True(t, ok)
}
