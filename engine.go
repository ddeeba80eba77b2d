package tutorAuth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/MrEthical07/tutorAuth/internal"
	internalaudit "github.com/MrEthical07/tutorAuth/internal/audit"
	"github.com/MrEthical07/tutorAuth/internal/flows"
	"github.com/MrEthical07/tutorAuth/internal/stores"
	"github.com/MrEthical07/tutorAuth/jwt"
	"github.com/MrEthical07/tutorAuth/password"
	"github.com/MrEthical07/tutorAuth/principal"
	"github.com/google/uuid"
	"github.com/samber/oops"
)

// Engine runs the authentication flows of every role. It is safe for
// concurrent use once Build returns.
type Engine struct {
	config     Config
	store      principal.Store
	otp        *stores.OTPStore
	hasher     *password.Multi
	jwtManager *jwt.Manager
	mailer     Mailer
	logger     *slog.Logger
	now        func() time.Time
	audit      *internalaudit.Dispatcher
	metrics    *Metrics
	flow       flows.Service
}

// Close flushes and stops the audit dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped returns the number of audit events dropped because the
// buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) ready() bool {
	return e != nil && e.flow.Initialized()
}

// Register validates the request, creates or refreshes the pending
// principal and mails a fresh OTP. Admins cannot register.
func (e *Engine) Register(ctx context.Context, role Role, req RegisterRequest) (*Principal, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	return e.flow.Register(ctx, role, req)
}

// VerifyOTP consumes the code, marks the principal verified and issues a
// session.
func (e *Engine) VerifyOTP(ctx context.Context, role Role, email, code string) (*AuthResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	return toAuthResult(e.flow.VerifyOTP(ctx, role, email, code))
}

// ResendOTP replaces the live code of an unverified principal.
func (e *Engine) ResendOTP(ctx context.Context, role Role, email string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	return e.flow.ResendOTP(ctx, role, email)
}

// Login authenticates with e-mail and password.
func (e *Engine) Login(ctx context.Context, role Role, email, password string) (*AuthResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	start := time.Now()
	res, err := toAuthResult(e.flow.Login(ctx, role, email, password))
	e.metrics.Observe(MetricLoginLatency, time.Since(start))
	return res, err
}

// GoogleAuth signs in, links or creates a principal from a Google profile.
// Repeating the call with the same profile yields the same principal.
func (e *Engine) GoogleAuth(ctx context.Context, role Role, profile GoogleProfile) (*AuthResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	return toAuthResult(e.flow.GoogleAuth(ctx, role, profile))
}

// RequestPasswordReset mails a reset link. Unknown e-mails succeed without
// sending anything.
func (e *Engine) RequestPasswordReset(ctx context.Context, role Role, email string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	return e.flow.RequestPasswordReset(ctx, role, email)
}

// ConfirmPasswordReset sets a new password if token is live, and clears it.
func (e *Engine) ConfirmPasswordReset(ctx context.Context, role Role, token, newPassword string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	return e.flow.ConfirmPasswordReset(ctx, role, token, newPassword)
}

// SetBlocked toggles the block flag of a user or tutor by public id.
// Blocking clears the refresh slot.
func (e *Engine) SetBlocked(ctx context.Context, role Role, publicID string, blocked bool) (*Principal, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	return e.flow.SetBlocked(ctx, role, publicID, blocked)
}

// Authenticate resolves the active principal of role an access token was
// issued to.
func (e *Engine) Authenticate(ctx context.Context, role Role, accessToken string) (*Principal, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	return e.flow.Authenticate(ctx, role, accessToken)
}

// SeedAdmin creates the super admin. It refuses to run in production.
func (e *Engine) SeedAdmin(ctx context.Context, req SeedAdminRequest) (*Principal, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	if e.config.Production() {
		return nil, ErrSeedInProduction
	}
	return e.flow.SeedAdmin(ctx, req)
}

// RefreshCookie builds the HttpOnly cookie carrying a refresh token.
func (e *Engine) RefreshCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     e.config.Cookie.Name,
		Value:    token,
		Path:     e.config.Cookie.Path,
		Domain:   e.config.Cookie.Domain,
		MaxAge:   int(e.config.JWT.RefreshTTL / time.Second),
		HttpOnly: true,
		Secure:   e.config.SecureCookies(),
		SameSite: e.config.Cookie.SameSite,
	}
}

// ClearRefreshCookie builds a cookie that deletes the refresh cookie.
func (e *Engine) ClearRefreshCookie() *http.Cookie {
	c := e.RefreshCookie("")
	c.MaxAge = -1
	return c
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() Config {
	return cloneConfig(e.config)
}

func toAuthResult(res *flows.Result, err error) (*AuthResult, error) {
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		Principal:    res.Principal,
		AccessToken:  res.Tokens.AccessToken,
		RefreshToken: res.Tokens.RefreshToken,
	}, nil
}

// dependencyError wraps a collaborator failure with an oops code and logs it.
// The returned error matches ErrDependency and the original cause.
func (e *Engine) dependencyError(ctx context.Context, op string, err error) error {
	builder := oops.
		Code("DEPENDENCY_FAILED").
		In("tutorauth").
		With("operation", op)
	if id := requestIDFromContext(ctx); id != "" {
		builder = builder.With("request_id", id)
	}
	wrapped := builder.Wrap(errors.Join(ErrDependency, err))

	e.logger.LogAttrs(ctx, slog.LevelError, "dependency failure",
		slog.String("operation", op),
		slog.String("request_id", requestIDFromContext(ctx)),
		slog.Any("error", err),
	)
	return wrapped
}

func (e *Engine) flowDeps() flows.Deps {
	return flows.Deps{
		MinPasswordLength: e.config.Password.MinLength,
		ResetTTL:          e.config.PasswordReset.TokenTTL,

		Store:     e.store,
		Hasher:    e.hasher,
		Validator: flows.NewValidator(e.config.Registration.PhoneCountryPrefix),

		VerifyPassword: e.hasher.Verify,
		NeedsRehash:    e.hasher.NeedsUpgrade,
		NewPublicID:    uuid.NewString,
		Now:            e.now,

		GenerateOTP: internal.NewOTPCode,
		IssueOTP: func(ctx context.Context, role principal.Role, email, code string) error {
			return e.otp.Issue(ctx, string(role), email, internal.HashOTPCode(code))
		},
		ConsumeOTP: func(ctx context.Context, role principal.Role, email, code string) error {
			_, err := e.otp.Consume(ctx, string(role), email, internal.HashOTPCode(code))
			return err
		},
		IsOTPRejected: func(err error) bool {
			return errors.Is(err, stores.ErrOTPNotFound) || errors.Is(err, stores.ErrOTPMismatch)
		},

		NewResetToken:  internal.NewResetToken,
		HashResetToken: internal.HashResetToken,

		SendOTPEmail:           e.mailer.SendOTPEmail,
		SendPasswordResetEmail: e.mailer.SendPasswordResetEmail,

		IssueTokens: func(subject string) (flows.Tokens, error) {
			pair, err := e.jwtManager.IssuePair(subject)
			if err != nil {
				return flows.Tokens{}, err
			}
			return flows.Tokens{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}, nil
		},
		ParseAccess: func(token string) (string, error) {
			claims, err := e.jwtManager.ParseAccess(token)
			if err != nil {
				return "", err
			}
			return claims.Subject, nil
		},

		Invalid: func(field, message string) error {
			return &ValidationError{Field: field, Message: message}
		},
		Dependency: e.dependencyError,

		MetricInc: func(id int) {
			e.metricInc(MetricID(id))
		},
		EmitAudit: e.emitAudit,

		Metrics: flows.Metrics{
			RegisterSuccess:             int(MetricRegisterSuccess),
			RegisterFailure:             int(MetricRegisterFailure),
			OTPIssued:                   int(MetricOTPIssued),
			OTPVerifySuccess:            int(MetricOTPVerifySuccess),
			OTPVerifyFailure:            int(MetricOTPVerifyFailure),
			LoginSuccess:                int(MetricLoginSuccess),
			LoginFailure:                int(MetricLoginFailure),
			GoogleAuthSuccess:           int(MetricGoogleAuthSuccess),
			GoogleAuthFailure:           int(MetricGoogleAuthFailure),
			PrincipalLinked:             int(MetricPrincipalLinked),
			PasswordResetRequest:        int(MetricPasswordResetRequest),
			PasswordResetConfirmSuccess: int(MetricPasswordResetConfirmSuccess),
			PasswordResetConfirmFailure: int(MetricPasswordResetConfirmFailure),
			PrincipalBlocked:            int(MetricPrincipalBlocked),
			PrincipalUnblocked:          int(MetricPrincipalUnblocked),
			TokensIssued:                int(MetricTokensIssued),
		},
		Events: flows.Events{
			Register:             auditEventRegister,
			VerifyOTP:            auditEventVerifyOTP,
			ResendOTP:            auditEventResendOTP,
			Login:                auditEventLogin,
			GoogleAuth:           auditEventGoogleAuth,
			PasswordResetRequest: auditEventPasswordResetRequest,
			PasswordResetConfirm: auditEventPasswordResetConfirm,
			BlockChange:          auditEventBlockChange,
			SeedAdmin:            auditEventSeedAdmin,
		},
		Errors: flows.Errors{
			EngineNotReady:     ErrEngineNotReady,
			Unsupported:        ErrUnsupported,
			Unauthorized:       ErrUnauthorized,
			InvalidCredentials: ErrInvalidCredentials,
			OTPInvalid:         ErrOTPInvalid,
			ResetTokenInvalid:  ErrResetTokenInvalid,
			AccountUnverified:  ErrAccountUnverified,
			AccountBlocked:     ErrAccountBlocked,
			AlreadyRegistered:  ErrAlreadyRegistered,
			AlreadyVerified:    ErrAlreadyVerified,
			PrincipalNotFound:  ErrPrincipalNotFound,
			InvalidGoogleData:  ErrInvalidGoogleData,
		},
	}
}
