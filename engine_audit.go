package tutorAuth

import (
	"context"
	"errors"

	internalaudit "github.com/MrEthical07/tutorAuth/internal/audit"
)

const (
	auditEventRegister             = "register"
	auditEventVerifyOTP            = "verify_otp"
	auditEventResendOTP            = "resend_otp"
	auditEventLogin                = "login"
	auditEventGoogleAuth           = "google_auth"
	auditEventPasswordResetRequest = "password_reset_request"
	auditEventPasswordResetConfirm = "password_reset_confirm"
	auditEventBlockChange          = "block_change"
	auditEventSeedAdmin            = "seed_admin"
)

// AuditErrorCode is the coarse failure reason written to audit events.
// Raw error strings never reach the audit trail.
type AuditErrorCode string

const (
	auditErrValidation         AuditErrorCode = "validation"
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrUnauthorized       AuditErrorCode = "unauthorized"
	auditErrOTPInvalid         AuditErrorCode = "otp_invalid"
	auditErrResetTokenInvalid  AuditErrorCode = "reset_token_invalid"
	auditErrAccountUnverified  AuditErrorCode = "account_unverified"
	auditErrAccountBlocked     AuditErrorCode = "account_blocked"
	auditErrDuplicate          AuditErrorCode = "duplicate"
	auditErrAlreadyVerified    AuditErrorCode = "already_verified"
	auditErrNotFound           AuditErrorCode = "not_found"
	auditErrGoogleData         AuditErrorCode = "invalid_google_data"
	auditErrUnsupported        AuditErrorCode = "unsupported"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	role Role,
	subject string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	event := internalaudit.NewEvent(eventType, e.now().UTC())
	event.Role = string(role)
	event.Subject = subject
	event.IP = clientIPFromContext(ctx)
	event.Success = success
	if metadataBuilder != nil {
		event.Metadata = metadataBuilder()
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrValidation):
		return auditErrValidation
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrUnauthorized):
		return auditErrUnauthorized
	case errors.Is(err, ErrOTPInvalid):
		return auditErrOTPInvalid
	case errors.Is(err, ErrResetTokenInvalid):
		return auditErrResetTokenInvalid
	case errors.Is(err, ErrAccountUnverified):
		return auditErrAccountUnverified
	case errors.Is(err, ErrAccountBlocked):
		return auditErrAccountBlocked
	case errors.Is(err, ErrAlreadyRegistered):
		return auditErrDuplicate
	case errors.Is(err, ErrAlreadyVerified):
		return auditErrAlreadyVerified
	case errors.Is(err, ErrPrincipalNotFound):
		return auditErrNotFound
	case errors.Is(err, ErrInvalidGoogleData):
		return auditErrGoogleData
	case errors.Is(err, ErrUnsupported):
		return auditErrUnsupported
	default:
		return auditErrUnavailable
	}
}
