package flows

import (
	"context"
	"errors"
	"strings"

	"github.com/MrEthical07/tutorAuth/principal"
)

// SeedAdminRequest describes the super admin to create.
type SeedAdminRequest struct {
	FullName string
	Email    string
	Password string
}

// RunSeedAdmin creates an admin principal. An existing admin with the same
// e-mail is a conflict and is left untouched.
func RunSeedAdmin(ctx context.Context, req SeedAdminRequest, deps Deps) (*principal.Principal, error) {
	normalizeDeps(&deps)

	if deps.Store == nil || deps.Hasher == nil || deps.NewPublicID == nil {
		return nil, deps.Errors.EngineNotReady
	}

	email := principal.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, deps.Invalid("email", MsgAllFieldsRequired)
	}
	if err := validateEmail(&deps, email); err != nil {
		return nil, err
	}
	if err := validatePasswordLength(&deps, "password", req.Password); err != nil {
		return nil, err
	}

	existing, err := lookup(ctx, &deps, "store.find_by_email", func() (*principal.Principal, error) {
		return deps.Store.FindByEmail(ctx, principal.RoleAdmin, email)
	})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		deps.EmitAudit(ctx, deps.Events.SeedAdmin, false, principal.RoleAdmin, existing.ID, deps.Errors.AlreadyRegistered, nil)
		return nil, deps.Errors.AlreadyRegistered
	}

	name := strings.TrimSpace(req.FullName)
	if name == "" {
		name = "Super Admin"
	}
	now := deps.Now()
	p := &principal.Principal{
		PublicID:   deps.NewPublicID(),
		Role:       principal.RoleAdmin,
		FullName:   name,
		Email:      email,
		IsVerified: true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := p.SetPassword(deps.Hasher, req.Password); err != nil {
		return nil, deps.Dependency(ctx, "password.hash", err)
	}

	err = deps.Store.Create(ctx, p)
	if errors.Is(err, principal.ErrDuplicate) {
		return nil, deps.Errors.AlreadyRegistered
	}
	if err != nil {
		return nil, deps.Dependency(ctx, "store.create", err)
	}

	deps.EmitAudit(ctx, deps.Events.SeedAdmin, true, principal.RoleAdmin, p.ID, nil, nil)
	return p, nil
}
