// Package notify delivers OTP codes to users.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"
)

const (
	subjectOTP       = "Your OTP for FocusNest Login"
	subjectOTPResent = "Your OTP for FocusNest Login (Resent)"
	sendTimeout      = 15 * time.Second
)

// SMTPConfig holds the credentials of the outgoing mail server.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender emails OTP codes through an authenticated SMTP relay.
type SMTPSender struct {
	cfg    SMTPConfig
	logger *slog.Logger
}

// NewSMTPSender creates a new SMTPSender
func NewSMTPSender(cfg SMTPConfig, logger *slog.Logger) *SMTPSender {
	return &SMTPSender{cfg: cfg, logger: logger}
}

// SendOTP builds the OTP email and delivers it. The code only appears in the message body.
func (s *SMTPSender) SendOTP(ctx context.Context, email, code string, resent bool) error {
	msg, err := buildOTPMessage(s.cfg.From, email, code, resent)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(s.cfg.Host,
		mail.WithPort(s.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.Username),
		mail.WithPassword(s.cfg.Password),
		mail.WithTimeout(sendTimeout),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send otp email: %w", err)
	}
	return nil
}

func buildOTPMessage(from, to, code string, resent bool) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	subject := subjectOTP
	if resent {
		subject = subjectOTPResent
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, fmt.Sprintf("<p>Your OTP is: %s</p>", code))
	return msg, nil
}

// DevSender stands in for SMTP when OTP_DEV_MODE is on. Nothing leaves the
// process; the fixed code is returned to the client instead.
type DevSender struct {
	logger *slog.Logger
}

// NewDevSender creates a new DevSender
func NewDevSender(logger *slog.Logger) *DevSender {
	return &DevSender{logger: logger}
}

func (d *DevSender) SendOTP(ctx context.Context, email, code string, resent bool) error {
	d.logger.InfoContext(ctx, "otp email skipped in dev mode", "resent", resent)
	return nil
}
