package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"

	"gopkg.in/gomail.v2"

	"github.com/oggyb/fall-in/internal/config"
)

const otpSubject = "Fall In - Your Verification Code"

// Sender delivers one-time codes.
type Sender interface {
	SendOTP(ctx context.Context, to, code string) error
}

var otpTemplate = template.Must(template.New("otp").Parse(`<html>
<body style="font-family: Arial, sans-serif; background: #fdf2f8; padding: 24px;">
  <div style="max-width: 480px; margin: 0 auto; background: #ffffff; border-radius: 16px; padding: 32px; text-align: center;">
    <h1 style="color: #ec4899; margin-bottom: 8px;">Fall In 💖</h1>
    <p style="color: #374151;">Your verification code is:</p>
    <p style="font-size: 32px; font-weight: bold; letter-spacing: 8px; color: #111827;">{{.Code}}</p>
    <p style="color: #6b7280; font-size: 14px;">This code expires in {{.Minutes}} minutes. If you didn't request it, you can ignore this email.</p>
  </div>
</body>
</html>`))

// RenderOTP returns the HTML body of the verification mail.
func RenderOTP(code string, minutes int) (string, error) {
	var buf bytes.Buffer
	if err := otpTemplate.Execute(&buf, struct {
		Code    string
		Minutes int
	}{code, minutes}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// SMTPSender sends mail through an SMTP relay.
type SMTPSender struct {
	dialer  *gomail.Dialer
	from    string
	minutes int
}

func NewSMTPSender(cfg *config.Config) *SMTPSender {
	return &SMTPSender{
		dialer:  gomail.NewDialer(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.Username, cfg.Mail.Password),
		from:    cfg.Mail.From,
		minutes: int(cfg.OTP.TTL.Minutes()),
	}
}

func (s *SMTPSender) SendOTP(ctx context.Context, to, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := RenderOTP(code, s.minutes)
	if err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", otpSubject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send otp to %s: %w", to, err)
	}
	return nil
}

// NoopSender is used when SMTP is not configured. It only logs.
type NoopSender struct {
	Logger *slog.Logger
}

func (n NoopSender) SendOTP(_ context.Context, to, code string) error {
	if n.Logger != nil {
		n.Logger.Debug("mail disabled, otp not sent", "to", to, "code", code)
	}
	return nil
}

// New picks the SMTP sender when mail is configured.
func New(cfg *config.Config, logger *slog.Logger) Sender {
	if cfg.MailEnabled() {
		return NewSMTPSender(cfg)
	}
	return NoopSender{Logger: logger}
}
