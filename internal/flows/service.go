package flows

import (
	"context"

	"github.com/MrEthical07/tutorAuth/principal"
)

// Service is the flow runner built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	normalizeDeps(&deps)
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return s.deps.ready()
}

func (s Service) Register(ctx context.Context, role principal.Role, req RegisterRequest) (*principal.Principal, error) {
	return RunRegister(ctx, role, req, s.deps)
}

func (s Service) VerifyOTP(ctx context.Context, role principal.Role, email, code string) (*Result, error) {
	return RunVerifyOTP(ctx, role, email, code, s.deps)
}

func (s Service) ResendOTP(ctx context.Context, role principal.Role, email string) error {
	return RunResendOTP(ctx, role, email, s.deps)
}

func (s Service) Login(ctx context.Context, role principal.Role, email, password string) (*Result, error) {
	return RunLogin(ctx, role, email, password, s.deps)
}

func (s Service) GoogleAuth(ctx context.Context, role principal.Role, profile GoogleProfile) (*Result, error) {
	return RunGoogleAuth(ctx, role, profile, s.deps)
}

func (s Service) RequestPasswordReset(ctx context.Context, role principal.Role, email string) error {
	return RunRequestPasswordReset(ctx, role, email, s.deps)
}

func (s Service) ConfirmPasswordReset(ctx context.Context, role principal.Role, token, newPassword string) error {
	return RunConfirmPasswordReset(ctx, role, token, newPassword, s.deps)
}

func (s Service) SetBlocked(ctx context.Context, role principal.Role, publicID string, blocked bool) (*principal.Principal, error) {
	return RunSetBlocked(ctx, role, publicID, blocked, s.deps)
}

func (s Service) Authenticate(ctx context.Context, role principal.Role, accessToken string) (*principal.Principal, error) {
	return RunAuthenticate(ctx, role, accessToken, s.deps)
}

func (s Service) SeedAdmin(ctx context.Context, req SeedAdminRequest) (*principal.Principal, error) {
	return RunSeedAdmin(ctx, req, s.deps)
}
