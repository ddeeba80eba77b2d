package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/tutorAuth/principal"
	"github.com/go-playground/validator/v10"
)

// Tokens is the credential pair minted after a successful authentication.
type Tokens struct {
	AccessToken  string
	RefreshToken string
}

// Result is returned by every flow that authenticates a principal.
type Result struct {
	Principal *principal.Principal
	Tokens    Tokens
}

// Metrics carries metric IDs used by the flows.
type Metrics struct {
	RegisterSuccess             int
	RegisterFailure             int
	OTPIssued                   int
	OTPVerifySuccess            int
	OTPVerifyFailure            int
	LoginSuccess                int
	LoginFailure                int
	GoogleAuthSuccess           int
	GoogleAuthFailure           int
	PrincipalLinked             int
	PasswordResetRequest        int
	PasswordResetConfirmSuccess int
	PasswordResetConfirmFailure int
	PrincipalBlocked            int
	PrincipalUnblocked          int
	TokensIssued                int
}

// Events carries audit event names used by the flows.
type Events struct {
	Register             string
	VerifyOTP            string
	ResendOTP            string
	Login                string
	GoogleAuth           string
	PasswordResetRequest string
	PasswordResetConfirm string
	BlockChange          string
	SeedAdmin            string
}

// Errors carries host-level sentinel errors used by the flows.
type Errors struct {
	EngineNotReady     error
	Unsupported        error
	Unauthorized       error
	InvalidCredentials error
	OTPInvalid         error
	ResetTokenInvalid  error
	AccountUnverified  error
	AccountBlocked     error
	AlreadyRegistered  error
	AlreadyVerified    error
	PrincipalNotFound  error
	InvalidGoogleData  error
}

// Deps is the dependency set shared by every flow. The root engine builds it
// once; flows never hold state between calls.
type Deps struct {
	MinPasswordLength int
	ResetTTL          time.Duration

	Store     principal.Store
	Hasher    principal.Hasher
	Validator *validator.Validate

	VerifyPassword func(plaintext, encodedHash string) (bool, error)
	// NeedsRehash reports whether a verified hash should be replaced. Optional.
	NeedsRehash func(encodedHash string) (bool, error)
	NewPublicID func() string
	Now         func() time.Time

	GenerateOTP   func() (string, error)
	IssueOTP      func(ctx context.Context, role principal.Role, email, code string) error
	ConsumeOTP    func(ctx context.Context, role principal.Role, email, code string) error
	IsOTPRejected func(error) bool

	NewResetToken  func() (string, error)
	HashResetToken func(string) string

	SendOTPEmail           func(ctx context.Context, email, code string) error
	SendPasswordResetEmail func(ctx context.Context, email, token string, role principal.Role) error

	IssueTokens func(subject string) (Tokens, error)
	ParseAccess func(token string) (string, error)

	// Invalid builds a field-level validation error.
	Invalid func(field, message string) error
	// Dependency wraps and logs a collaborator failure.
	Dependency func(ctx context.Context, op string, err error) error

	MetricInc func(int)
	EmitAudit func(ctx context.Context, event string, success bool, role principal.Role, subject string, err error, meta func() map[string]string)

	Metrics Metrics
	Events  Events
	Errors  Errors
}

func normalizeDeps(deps *Deps) {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = func(context.Context, string, bool, principal.Role, string, error, func() map[string]string) {}
	}
	if deps.Invalid == nil {
		deps.Invalid = func(string, string) error { return deps.Errors.EngineNotReady }
	}
	if deps.Dependency == nil {
		deps.Dependency = func(_ context.Context, _ string, err error) error { return err }
	}
	if deps.Validator == nil {
		deps.Validator = NewValidator("")
	}
	if deps.MinPasswordLength <= 0 {
		deps.MinPasswordLength = 5
	}
}

func (d *Deps) ready() bool {
	return d.Store != nil && d.Hasher != nil && d.IssueTokens != nil && d.NewPublicID != nil
}

func (d *Deps) otpReady() bool {
	return d.GenerateOTP != nil && d.IssueOTP != nil && d.ConsumeOTP != nil && d.SendOTPEmail != nil
}

// lookup maps principal.ErrNotFound to (nil, nil) and wraps anything else.
func lookup(ctx context.Context, deps *Deps, op string, find func() (*principal.Principal, error)) (*principal.Principal, error) {
	p, err := find()
	if errors.Is(err, principal.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, deps.Dependency(ctx, op, err)
	}
	return p, nil
}

// issueSession mints tokens for p, overwrites its refresh slot and persists
// the record with any pending changes.
func issueSession(ctx context.Context, deps *Deps, p *principal.Principal) (*Result, error) {
	tokens, err := deps.IssueTokens(p.ID)
	if err != nil {
		return nil, deps.Dependency(ctx, "tokens.issue", err)
	}
	p.RefreshToken = tokens.RefreshToken
	p.UpdatedAt = deps.Now()
	if err := deps.Store.Save(ctx, p); err != nil {
		return nil, deps.Dependency(ctx, "store.save", err)
	}
	deps.MetricInc(deps.Metrics.TokensIssued)
	return &Result{Principal: p, Tokens: tokens}, nil
}

// issueOTP generates, stores and mails a fresh code for (role, email).
func issueOTP(ctx context.Context, deps *Deps, role principal.Role, email string) error {
	code, err := deps.GenerateOTP()
	if err != nil {
		return deps.Dependency(ctx, "otp.generate", err)
	}
	if err := deps.IssueOTP(ctx, role, email, code); err != nil {
		return deps.Dependency(ctx, "otp.issue", err)
	}
	if err := deps.SendOTPEmail(ctx, email, code); err != nil {
		return deps.Dependency(ctx, "mail.send_otp", err)
	}
	deps.MetricInc(deps.Metrics.OTPIssued)
	return nil
}
