package flows

import (
	"context"
	"errors"
	"strings"

	"github.com/MrEthical07/tutorAuth/principal"
)

// RegisterRequest is the registration input as submitted by the client.
type RegisterRequest struct {
	FullName        string
	Email           string
	Phone           string
	Password        string
	ConfirmPassword string
}

// RunRegister validates the request, finds or creates the pending principal
// for the e-mail and (re)issues its OTP. An already verified principal is a
// conflict. Nothing is written when validation fails.
func RunRegister(ctx context.Context, role principal.Role, req RegisterRequest, deps Deps) (*principal.Principal, error) {
	normalizeDeps(&deps)

	if !principal.CapabilitiesOf(role).HasOTPFlow {
		return nil, deps.Errors.Unsupported
	}
	if !deps.ready() || !deps.otpReady() {
		return nil, deps.Errors.EngineNotReady
	}

	in := registrationInput{
		FullName:        strings.TrimSpace(req.FullName),
		Email:           principal.NormalizeEmail(req.Email),
		Phone:           strings.TrimSpace(req.Phone),
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	}
	if err := validateRegistration(&deps, in); err != nil {
		deps.MetricInc(deps.Metrics.RegisterFailure)
		deps.EmitAudit(ctx, deps.Events.Register, false, role, "", err, func() map[string]string {
			return map[string]string{"reason": "validation"}
		})
		return nil, err
	}

	p, err := lookup(ctx, &deps, "store.find_by_email", func() (*principal.Principal, error) {
		return deps.Store.FindByEmail(ctx, role, in.Email)
	})
	if err != nil {
		deps.MetricInc(deps.Metrics.RegisterFailure)
		return nil, err
	}

	if p != nil {
		if p.IsVerified {
			deps.MetricInc(deps.Metrics.RegisterFailure)
			deps.EmitAudit(ctx, deps.Events.Register, false, role, p.ID, deps.Errors.AlreadyRegistered, nil)
			return nil, deps.Errors.AlreadyRegistered
		}
		if p.IsBlocked {
			deps.MetricInc(deps.Metrics.RegisterFailure)
			deps.EmitAudit(ctx, deps.Events.Register, false, role, p.ID, deps.Errors.AccountBlocked, nil)
			return nil, deps.Errors.AccountBlocked
		}
	}

	now := deps.Now()
	created := p == nil
	if created {
		p = &principal.Principal{
			PublicID:  deps.NewPublicID(),
			Role:      role,
			Email:     in.Email,
			CreatedAt: now,
		}
	}
	p.FullName = in.FullName
	p.Phone = in.Phone
	p.UpdatedAt = now
	if err := p.SetPassword(deps.Hasher, in.Password); err != nil {
		deps.MetricInc(deps.Metrics.RegisterFailure)
		return nil, deps.Dependency(ctx, "password.hash", err)
	}

	if created {
		err = deps.Store.Create(ctx, p)
	} else {
		err = deps.Store.Save(ctx, p)
	}
	if errors.Is(err, principal.ErrDuplicate) {
		deps.MetricInc(deps.Metrics.RegisterFailure)
		deps.EmitAudit(ctx, deps.Events.Register, false, role, "", deps.Errors.AlreadyRegistered, func() map[string]string {
			return map[string]string{"reason": "duplicate"}
		})
		return nil, deps.Errors.AlreadyRegistered
	}
	if err != nil {
		deps.MetricInc(deps.Metrics.RegisterFailure)
		return nil, deps.Dependency(ctx, "store.write", err)
	}

	if err := issueOTP(ctx, &deps, role, p.Email); err != nil {
		deps.MetricInc(deps.Metrics.RegisterFailure)
		deps.EmitAudit(ctx, deps.Events.Register, false, role, p.ID, err, func() map[string]string {
			return map[string]string{"reason": "otp_dispatch"}
		})
		return nil, err
	}

	deps.MetricInc(deps.Metrics.RegisterSuccess)
	deps.EmitAudit(ctx, deps.Events.Register, true, role, p.ID, nil, func() map[string]string {
		return map[string]string{"created": boolString(created)}
	})
	return p, nil
}

// RunVerifyOTP consumes the code for (role, email), marks the principal
// verified and issues tokens.
func RunVerifyOTP(ctx context.Context, role principal.Role, email, code string, deps Deps) (*Result, error) {
	normalizeDeps(&deps)

	if !principal.CapabilitiesOf(role).HasOTPFlow {
		return nil, deps.Errors.Unsupported
	}
	if !deps.ready() || !deps.otpReady() || deps.IsOTPRejected == nil {
		return nil, deps.Errors.EngineNotReady
	}

	email = principal.NormalizeEmail(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		deps.MetricInc(deps.Metrics.OTPVerifyFailure)
		return nil, deps.Invalid("otp", MsgAllFieldsRequired)
	}

	p, err := lookup(ctx, &deps, "store.find_by_email", func() (*principal.Principal, error) {
		return deps.Store.FindByEmail(ctx, role, email)
	})
	if err != nil {
		deps.MetricInc(deps.Metrics.OTPVerifyFailure)
		return nil, err
	}
	if p == nil {
		deps.MetricInc(deps.Metrics.OTPVerifyFailure)
		deps.EmitAudit(ctx, deps.Events.VerifyOTP, false, role, "", deps.Errors.OTPInvalid, nil)
		return nil, deps.Errors.OTPInvalid
	}
	if p.IsVerified {
		deps.MetricInc(deps.Metrics.OTPVerifyFailure)
		deps.EmitAudit(ctx, deps.Events.VerifyOTP, false, role, p.ID, deps.Errors.AlreadyVerified, nil)
		return nil, deps.Errors.AlreadyVerified
	}
	if p.IsBlocked {
		deps.MetricInc(deps.Metrics.OTPVerifyFailure)
		deps.EmitAudit(ctx, deps.Events.VerifyOTP, false, role, p.ID, deps.Errors.AccountBlocked, nil)
		return nil, deps.Errors.AccountBlocked
	}

	if err := deps.ConsumeOTP(ctx, role, email, code); err != nil {
		deps.MetricInc(deps.Metrics.OTPVerifyFailure)
		if deps.IsOTPRejected(err) {
			deps.EmitAudit(ctx, deps.Events.VerifyOTP, false, role, p.ID, deps.Errors.OTPInvalid, nil)
			return nil, deps.Errors.OTPInvalid
		}
		return nil, deps.Dependency(ctx, "otp.consume", err)
	}

	p.IsVerified = true
	res, err := issueSession(ctx, &deps, p)
	if err != nil {
		deps.MetricInc(deps.Metrics.OTPVerifyFailure)
		return nil, err
	}

	deps.MetricInc(deps.Metrics.OTPVerifySuccess)
	deps.EmitAudit(ctx, deps.Events.VerifyOTP, true, role, p.ID, nil, nil)
	return res, nil
}

// RunResendOTP replaces the live code of an existing, unverified and not
// blocked principal.
func RunResendOTP(ctx context.Context, role principal.Role, email string, deps Deps) error {
	normalizeDeps(&deps)

	if !principal.CapabilitiesOf(role).HasOTPFlow {
		return deps.Errors.Unsupported
	}
	if !deps.ready() || !deps.otpReady() {
		return deps.Errors.EngineNotReady
	}

	email = principal.NormalizeEmail(email)
	if email == "" {
		return deps.Invalid("email", MsgAllFieldsRequired)
	}

	p, err := lookup(ctx, &deps, "store.find_by_email", func() (*principal.Principal, error) {
		return deps.Store.FindByEmail(ctx, role, email)
	})
	if err != nil {
		return err
	}

	var refusal error
	switch {
	case p == nil:
		refusal = deps.Errors.PrincipalNotFound
	case p.IsVerified:
		refusal = deps.Errors.AlreadyVerified
	case p.IsBlocked:
		refusal = deps.Errors.AccountBlocked
	}
	if refusal != nil {
		deps.EmitAudit(ctx, deps.Events.ResendOTP, false, role, "", refusal, nil)
		return refusal
	}

	if err := issueOTP(ctx, &deps, role, email); err != nil {
		deps.EmitAudit(ctx, deps.Events.ResendOTP, false, role, p.ID, err, nil)
		return err
	}
	deps.EmitAudit(ctx, deps.Events.ResendOTP, true, role, p.ID, nil, nil)
	return nil
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
