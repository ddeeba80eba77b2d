package flows

import (
	"context"
	"strings"

	"github.com/MrEthical07/tutorAuth/principal"
)

// RunSetBlocked flips the block flag of the principal with publicID. Blocking
// also clears the refresh slot.
func RunSetBlocked(ctx context.Context, role principal.Role, publicID string, blocked bool, deps Deps) (*principal.Principal, error) {
	normalizeDeps(&deps)

	if !role.Valid() {
		return nil, deps.Errors.Unsupported
	}
	if deps.Store == nil {
		return nil, deps.Errors.EngineNotReady
	}

	publicID = strings.TrimSpace(publicID)
	if publicID == "" {
		return nil, deps.Errors.PrincipalNotFound
	}

	p, err := lookup(ctx, &deps, "store.find_by_public_id", func() (*principal.Principal, error) {
		return deps.Store.FindByPublicID(ctx, role, publicID)
	})
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, deps.Errors.PrincipalNotFound
	}
	if p.IsBlocked == blocked {
		return p, nil
	}

	p.IsBlocked = blocked
	if blocked {
		p.RefreshToken = ""
	}
	p.UpdatedAt = deps.Now()
	if err := deps.Store.Save(ctx, p); err != nil {
		return nil, deps.Dependency(ctx, "store.save", err)
	}

	if blocked {
		deps.MetricInc(deps.Metrics.PrincipalBlocked)
	} else {
		deps.MetricInc(deps.Metrics.PrincipalUnblocked)
	}
	deps.EmitAudit(ctx, deps.Events.BlockChange, true, role, p.ID, nil, func() map[string]string {
		return map[string]string{"blocked": boolString(blocked)}
	})
	return p, nil
}

// RunAuthenticate resolves the principal behind an access token within role.
// The token must resolve in that role's collection and the principal must be
// active.
func RunAuthenticate(ctx context.Context, role principal.Role, accessToken string, deps Deps) (*principal.Principal, error) {
	normalizeDeps(&deps)

	if !role.Valid() {
		return nil, deps.Errors.Unsupported
	}
	if deps.Store == nil || deps.ParseAccess == nil {
		return nil, deps.Errors.EngineNotReady
	}
	if accessToken == "" {
		return nil, deps.Errors.Unauthorized
	}

	subject, err := deps.ParseAccess(accessToken)
	if err != nil || subject == "" {
		return nil, deps.Errors.Unauthorized
	}

	p, err := lookup(ctx, &deps, "store.find_by_id", func() (*principal.Principal, error) {
		return deps.Store.FindByID(ctx, role, subject)
	})
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, deps.Errors.Unauthorized
	}
	if p.IsBlocked {
		return nil, deps.Errors.AccountBlocked
	}
	if !p.Active() {
		return nil, deps.Errors.AccountUnverified
	}
	return p, nil
}
