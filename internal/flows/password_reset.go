package flows

import (
	"context"
	"strings"

	"github.com/MrEthical07/tutorAuth/principal"
)

// RunRequestPasswordReset stores a fresh reset digest on the principal and
// mails the plaintext token. An unknown e-mail succeeds without sending
// anything; a blocked principal is refused before any token exists.
func RunRequestPasswordReset(ctx context.Context, role principal.Role, email string, deps Deps) error {
	normalizeDeps(&deps)

	if !principal.CapabilitiesOf(role).HasPasswordReset {
		return deps.Errors.Unsupported
	}
	if !deps.ready() || deps.NewResetToken == nil || deps.HashResetToken == nil || deps.SendPasswordResetEmail == nil {
		return deps.Errors.EngineNotReady
	}

	email = principal.NormalizeEmail(email)
	if err := validateEmail(&deps, email); err != nil {
		return err
	}

	p, err := lookup(ctx, &deps, "store.find_by_email", func() (*principal.Principal, error) {
		return deps.Store.FindByEmail(ctx, role, email)
	})
	if err != nil {
		return err
	}
	if p == nil {
		deps.MetricInc(deps.Metrics.PasswordResetRequest)
		deps.EmitAudit(ctx, deps.Events.PasswordResetRequest, true, role, "", nil, func() map[string]string {
			return map[string]string{"enumeration_safe": "true"}
		})
		return nil
	}
	if p.IsBlocked {
		deps.EmitAudit(ctx, deps.Events.PasswordResetRequest, false, role, p.ID, deps.Errors.AccountBlocked, nil)
		return deps.Errors.AccountBlocked
	}

	token, err := deps.NewResetToken()
	if err != nil {
		return deps.Dependency(ctx, "reset.generate", err)
	}
	p.SetResetToken(deps.HashResetToken(token), deps.Now().Add(deps.ResetTTL))
	p.UpdatedAt = deps.Now()
	if err := deps.Store.Save(ctx, p); err != nil {
		return deps.Dependency(ctx, "store.save", err)
	}

	// A failed send leaves the digest to expire on its own.
	if err := deps.SendPasswordResetEmail(ctx, p.Email, token, role); err != nil {
		deps.EmitAudit(ctx, deps.Events.PasswordResetRequest, false, role, p.ID, err, func() map[string]string {
			return map[string]string{"reason": "mail_failed"}
		})
		return deps.Dependency(ctx, "mail.send_reset", err)
	}

	deps.MetricInc(deps.Metrics.PasswordResetRequest)
	deps.EmitAudit(ctx, deps.Events.PasswordResetRequest, true, role, p.ID, nil, nil)
	return nil
}

// RunConfirmPasswordReset sets a new password for the principal holding the
// unexpired digest of token. The password change and the digest removal are
// persisted in one Save, so a token works at most once.
func RunConfirmPasswordReset(ctx context.Context, role principal.Role, token, newPassword string, deps Deps) error {
	normalizeDeps(&deps)

	if !principal.CapabilitiesOf(role).HasPasswordReset {
		return deps.Errors.Unsupported
	}
	if !deps.ready() || deps.HashResetToken == nil {
		return deps.Errors.EngineNotReady
	}

	fail := func(subject string, err error) error {
		deps.MetricInc(deps.Metrics.PasswordResetConfirmFailure)
		deps.EmitAudit(ctx, deps.Events.PasswordResetConfirm, false, role, subject, err, nil)
		return err
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return fail("", deps.Errors.ResetTokenInvalid)
	}
	if newPassword == "" {
		return fail("", deps.Invalid("password", MsgAllFieldsRequired))
	}
	if err := validatePasswordLength(&deps, "password", newPassword); err != nil {
		return fail("", err)
	}

	now := deps.Now()
	digest := deps.HashResetToken(token)
	p, err := lookup(ctx, &deps, "store.find_by_reset_token", func() (*principal.Principal, error) {
		return deps.Store.FindByResetTokenHash(ctx, role, digest, now)
	})
	if err != nil {
		deps.MetricInc(deps.Metrics.PasswordResetConfirmFailure)
		return err
	}
	if p == nil || !p.ResetTokenValid(digest, now) {
		return fail("", deps.Errors.ResetTokenInvalid)
	}
	if p.IsBlocked {
		return fail(p.ID, deps.Errors.AccountBlocked)
	}

	if err := p.SetPassword(deps.Hasher, newPassword); err != nil {
		deps.MetricInc(deps.Metrics.PasswordResetConfirmFailure)
		return deps.Dependency(ctx, "password.hash", err)
	}
	p.ClearResetToken()
	p.UpdatedAt = now
	if err := deps.Store.Save(ctx, p); err != nil {
		deps.MetricInc(deps.Metrics.PasswordResetConfirmFailure)
		return deps.Dependency(ctx, "store.save", err)
	}

	deps.MetricInc(deps.Metrics.PasswordResetConfirmSuccess)
	deps.EmitAudit(ctx, deps.Events.PasswordResetConfirm, true, role, p.ID, nil, nil)
	return nil
}
