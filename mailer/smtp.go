// Package mailer delivers OTP and password-reset e-mails over SMTP.
package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/MrEthical07/tutorAuth/principal"
	"github.com/samber/oops"
)

// Config describes the SMTP relay and the content of outgoing mails.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	AppName  string
	// ClientURL is the frontend origin reset links point at.
	ClientURL string
	OTPTTL    time.Duration
	ResetTTL  time.Duration
}

var ErrNotConfigured = errors.New("mailer: smtp host and sender are required")

type sendFunc func(ctx context.Context, to string, msg []byte) error

// SMTP implements the engine's Mailer.
type SMTP struct {
	cfg  Config
	send sendFunc
}

func New(cfg Config) (*SMTP, error) {
	if cfg.Host == "" || cfg.From == "" {
		return nil, ErrNotConfigured
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.AppName == "" {
		cfg.AppName = "Tutor Platform"
	}
	cfg.ClientURL = strings.TrimRight(cfg.ClientURL, "/")
	m := &SMTP{cfg: cfg}
	m.send = m.deliver
	return m, nil
}

// SendOTPEmail mails the registration code.
func (m *SMTP) SendOTPEmail(ctx context.Context, email, code string) error {
	subject := fmt.Sprintf("%s - Your verification code", m.cfg.AppName)
	body := fmt.Sprintf(
		"Hello,\n\nUse the code below to verify your e-mail address:\n\n"+
			"Verification Code: %s\n\n"+
			"This code expires in %d minutes. If you did not sign up, ignore this e-mail.\n\n"+
			"The %s Team",
		code, minutes(m.cfg.OTPTTL), m.cfg.AppName)
	return m.sendMessage(ctx, "otp", email, subject, body)
}

// SendPasswordResetEmail mails a reset link for role.
func (m *SMTP) SendPasswordResetEmail(ctx context.Context, email, token string, role principal.Role) error {
	subject := fmt.Sprintf("%s - Reset your password", m.cfg.AppName)
	body := fmt.Sprintf(
		"Hello,\n\nOpen the link below to choose a new password:\n\n%s\n\n"+
			"The link expires in %d minutes. If you did not ask for a reset, ignore this e-mail.\n\n"+
			"The %s Team",
		ResetLink(m.cfg.ClientURL, role, token), minutes(m.cfg.ResetTTL), m.cfg.AppName)
	return m.sendMessage(ctx, "password_reset", email, subject, body)
}

// ResetLink builds <clientURL>/<role>/reset-password/<token>.
func ResetLink(clientURL string, role principal.Role, token string) string {
	return fmt.Sprintf("%s/%s/reset-password/%s", strings.TrimRight(clientURL, "/"), role.Slug(), token)
}

func (m *SMTP) sendMessage(ctx context.Context, kind, to, subject, body string) error {
	if strings.ContainsAny(to, "\r\n") {
		return oops.Code("MAIL_INVALID_RECIPIENT").In("mailer").Errorf("recipient contains a line break")
	}
	headers := []string{
		"From: " + m.cfg.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		`Content-Type: text/plain; charset="UTF-8"`,
		"",
		body,
	}
	msg := []byte(strings.Join(headers, "\r\n"))
	if err := m.send(ctx, to, msg); err != nil {
		return oops.Code("MAIL_SEND_FAILED").In("mailer").With("kind", kind).Wrap(err)
	}
	return nil
}

// deliver dials with the context deadline, upgrades to TLS when offered and
// authenticates when credentials are set.
func (m *SMTP) deliver(ctx context.Context, to string, msg []byte) error {
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: m.cfg.Host, MinVersion: tls.VersionTLS12}); err != nil {
			return err
		}
	}
	if m.cfg.Username != "" {
		if err := c.Auth(smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)); err != nil {
			return err
		}
	}
	if err := c.Mail(m.cfg.From); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

func minutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(d / time.Minute)
}
