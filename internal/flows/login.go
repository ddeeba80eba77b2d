package flows

import (
	"context"
	"errors"
	"strings"

	"github.com/MrEthical07/tutorAuth/principal"
)

// GoogleProfile is the federated identity asserted by Google.
type GoogleProfile struct {
	GoogleID     string
	Email        string
	Name         string
	ProfileImage string
}

// RunLogin authenticates with e-mail and password. Unknown e-mails,
// federated-only principals and wrong passwords share one error.
func RunLogin(ctx context.Context, role principal.Role, email, password string, deps Deps) (*Result, error) {
	normalizeDeps(&deps)

	if !role.Valid() {
		return nil, deps.Errors.Unsupported
	}
	if !deps.ready() || deps.VerifyPassword == nil {
		return nil, deps.Errors.EngineNotReady
	}

	email = principal.NormalizeEmail(email)
	if email == "" || password == "" {
		deps.MetricInc(deps.Metrics.LoginFailure)
		return nil, deps.Invalid("email", MsgAllFieldsRequired)
	}

	fail := func(subject string, err error, reason string) (*Result, error) {
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.EmitAudit(ctx, deps.Events.Login, false, role, subject, err, func() map[string]string {
			return map[string]string{"reason": reason}
		})
		return nil, err
	}

	p, err := lookup(ctx, &deps, "store.find_by_email", func() (*principal.Principal, error) {
		return deps.Store.FindByEmail(ctx, role, email)
	})
	if err != nil {
		deps.MetricInc(deps.Metrics.LoginFailure)
		return nil, err
	}
	if p == nil {
		return fail("", deps.Errors.InvalidCredentials, "unknown_email")
	}
	if role != principal.RoleAdmin && !p.IsVerified {
		return fail(p.ID, deps.Errors.AccountUnverified, "unverified")
	}
	if p.IsBlocked {
		return fail(p.ID, deps.Errors.AccountBlocked, "blocked")
	}
	if !p.HasPassword() {
		return fail(p.ID, deps.Errors.InvalidCredentials, "federated_only")
	}

	ok, err := deps.VerifyPassword(password, p.PasswordHash)
	if err != nil {
		deps.MetricInc(deps.Metrics.LoginFailure)
		return nil, deps.Dependency(ctx, "password.verify", err)
	}
	if !ok {
		return fail(p.ID, deps.Errors.InvalidCredentials, "wrong_password")
	}

	// Upgrade a stale hash while the plaintext is at hand. The new hash is
	// persisted with the session below; a failure keeps the old one.
	if deps.NeedsRehash != nil {
		if stale, err := deps.NeedsRehash(p.PasswordHash); err == nil && stale {
			_ = p.SetPassword(deps.Hasher, password)
		}
	}

	p.LastLogin = deps.Now()
	res, err := issueSession(ctx, &deps, p)
	if err != nil {
		deps.MetricInc(deps.Metrics.LoginFailure)
		return nil, err
	}

	deps.MetricInc(deps.Metrics.LoginSuccess)
	deps.EmitAudit(ctx, deps.Events.Login, true, role, p.ID, nil, nil)
	return res, nil
}

// RunGoogleAuth signs a principal in with a Google identity. The principal is
// looked up by google id, then by e-mail; an absent principal is created
// verified and password-less, an existing one without a google id is linked.
// Repeating the call with the same identity resolves the same principal.
func RunGoogleAuth(ctx context.Context, role principal.Role, profile GoogleProfile, deps Deps) (*Result, error) {
	normalizeDeps(&deps)

	if !principal.CapabilitiesOf(role).HasGoogleAuth {
		return nil, deps.Errors.Unsupported
	}
	if !deps.ready() {
		return nil, deps.Errors.EngineNotReady
	}

	profile.GoogleID = strings.TrimSpace(profile.GoogleID)
	profile.Email = principal.NormalizeEmail(profile.Email)
	profile.Name = strings.TrimSpace(profile.Name)
	if profile.GoogleID == "" || profile.Email == "" {
		deps.MetricInc(deps.Metrics.GoogleAuthFailure)
		return nil, deps.Errors.InvalidGoogleData
	}

	p, err := findGooglePrincipal(ctx, &deps, role, profile)
	if err != nil {
		deps.MetricInc(deps.Metrics.GoogleAuthFailure)
		return nil, err
	}

	if p != nil && p.IsBlocked {
		deps.MetricInc(deps.Metrics.GoogleAuthFailure)
		deps.EmitAudit(ctx, deps.Events.GoogleAuth, false, role, p.ID, deps.Errors.AccountBlocked, nil)
		return nil, deps.Errors.AccountBlocked
	}
	// An account already bound to another Google identity is never re-bound.
	if p != nil && p.GoogleID != "" && p.GoogleID != profile.GoogleID {
		deps.MetricInc(deps.Metrics.GoogleAuthFailure)
		deps.EmitAudit(ctx, deps.Events.GoogleAuth, false, role, p.ID, deps.Errors.InvalidGoogleData, func() map[string]string {
			return map[string]string{"reason": "google_id_mismatch"}
		})
		return nil, deps.Errors.InvalidGoogleData
	}

	outcome := "login"
	switch {
	case p == nil:
		outcome = "created"
		now := deps.Now()
		p = &principal.Principal{
			PublicID:     deps.NewPublicID(),
			Role:         role,
			FullName:     profile.Name,
			Email:        profile.Email,
			GoogleID:     profile.GoogleID,
			ProfileImage: profile.ProfileImage,
			IsVerified:   true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		err := deps.Store.Create(ctx, p)
		if errors.Is(err, principal.ErrDuplicate) {
			// Lost a race with a concurrent sign-in of the same identity.
			outcome = "login"
			p, err = findGooglePrincipal(ctx, &deps, role, profile)
			if err == nil && p == nil {
				err = deps.Dependency(ctx, "store.create", principal.ErrDuplicate)
			}
		} else if err != nil {
			err = deps.Dependency(ctx, "store.create", err)
		}
		if err != nil {
			deps.MetricInc(deps.Metrics.GoogleAuthFailure)
			return nil, err
		}
		if p.IsBlocked {
			deps.MetricInc(deps.Metrics.GoogleAuthFailure)
			return nil, deps.Errors.AccountBlocked
		}
		if p.GoogleID != "" && p.GoogleID != profile.GoogleID {
			deps.MetricInc(deps.Metrics.GoogleAuthFailure)
			return nil, deps.Errors.InvalidGoogleData
		}
	case p.GoogleID == "":
		outcome = "linked"
		p.LinkGoogle(profile.GoogleID, profile.ProfileImage)
		deps.MetricInc(deps.Metrics.PrincipalLinked)
	}

	p.LastLogin = deps.Now()
	res, err := issueSession(ctx, &deps, p)
	if err != nil {
		deps.MetricInc(deps.Metrics.GoogleAuthFailure)
		return nil, err
	}

	deps.MetricInc(deps.Metrics.GoogleAuthSuccess)
	deps.EmitAudit(ctx, deps.Events.GoogleAuth, true, role, p.ID, nil, func() map[string]string {
		return map[string]string{"outcome": outcome}
	})
	return res, nil
}

func findGooglePrincipal(ctx context.Context, deps *Deps, role principal.Role, profile GoogleProfile) (*principal.Principal, error) {
	p, err := lookup(ctx, deps, "store.find_by_google_id", func() (*principal.Principal, error) {
		return deps.Store.FindByGoogleID(ctx, role, profile.GoogleID)
	})
	if err != nil || p != nil {
		return p, err
	}
	return lookup(ctx, deps, "store.find_by_email", func() (*principal.Principal, error) {
		return deps.Store.FindByEmail(ctx, role, profile.Email)
	})
}
