package tutorAuth

import (
	"context"
	"io"
	"log/slog"

	internalaudit "github.com/MrEthical07/tutorAuth/internal/audit"
	"github.com/MrEthical07/tutorAuth/internal/flows"
	internalmetrics "github.com/MrEthical07/tutorAuth/internal/metrics"
	"github.com/MrEthical07/tutorAuth/principal"
)

// Role re-exports [principal.Role] so callers rarely need both imports.
type Role = principal.Role

const (
	RoleUser  = principal.RoleUser
	RoleTutor = principal.RoleTutor
	RoleAdmin = principal.RoleAdmin
)

// Principal is the identity record of a user, tutor or admin.
type Principal = principal.Principal

// RegisterRequest is the registration input as submitted by clients.
type RegisterRequest = flows.RegisterRequest

// GoogleProfile is the identity asserted by Google for federated login.
type GoogleProfile = flows.GoogleProfile

// SeedAdminRequest is the input for [Engine.SeedAdmin].
type SeedAdminRequest = flows.SeedAdminRequest

// AuthResult is returned by every operation that authenticates a
// principal. The refresh token is meant for the HttpOnly cookie only.
type AuthResult struct {
	Principal    *Principal
	AccessToken  string
	RefreshToken string
}

// Mailer delivers the OTP and password-reset e-mails.
type Mailer interface {
	SendOTPEmail(ctx context.Context, email, code string) error
	SendPasswordResetEmail(ctx context.Context, email, token string, role Role) error
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink writes one JSON-encoded event per line.
type JSONWriterSink = internalaudit.JSONWriterSink

// SlogSink routes audit events into a structured logger.
type SlogSink = internalaudit.SlogSink

func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

func NewSlogSink(logger *slog.Logger) *SlogSink {
	return internalaudit.NewSlogSink(logger)
}

// MetricID identifies a counter or the login latency histogram.
type MetricID = internalmetrics.MetricID

const (
	MetricRegisterSuccess             = internalmetrics.MetricRegisterSuccess
	MetricRegisterFailure             = internalmetrics.MetricRegisterFailure
	MetricOTPIssued                   = internalmetrics.MetricOTPIssued
	MetricOTPVerifySuccess            = internalmetrics.MetricOTPVerifySuccess
	MetricOTPVerifyFailure            = internalmetrics.MetricOTPVerifyFailure
	MetricLoginSuccess                = internalmetrics.MetricLoginSuccess
	MetricLoginFailure                = internalmetrics.MetricLoginFailure
	MetricGoogleAuthSuccess           = internalmetrics.MetricGoogleAuthSuccess
	MetricGoogleAuthFailure           = internalmetrics.MetricGoogleAuthFailure
	MetricPrincipalLinked             = internalmetrics.MetricPrincipalLinked
	MetricPasswordResetRequest        = internalmetrics.MetricPasswordResetRequest
	MetricPasswordResetConfirmSuccess = internalmetrics.MetricPasswordResetConfirmSuccess
	MetricPasswordResetConfirmFailure = internalmetrics.MetricPasswordResetConfirmFailure
	MetricPrincipalBlocked            = internalmetrics.MetricPrincipalBlocked
	MetricPrincipalUnblocked          = internalmetrics.MetricPrincipalUnblocked
	MetricTokensIssued                = internalmetrics.MetricTokensIssued
	MetricLoginLatency                = internalmetrics.MetricLoginLatency
)

// Metrics holds atomic counters and the optional login latency histogram.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time copy of all metrics.
type MetricsSnapshot = internalmetrics.Snapshot

// NewMetrics creates a [Metrics] instance. When Enabled is false, all
// operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{
		Enabled:       cfg.Enabled,
		EnableLatency: cfg.EnableLatencyHistograms,
	})
}
