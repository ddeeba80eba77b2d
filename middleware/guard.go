package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	tutorAuth "github.com/MrEthical07/tutorAuth"
)

// Authenticator resolves the principal behind an access token.
type Authenticator interface {
	Authenticate(ctx context.Context, role tutorAuth.Role, accessToken string) (*tutorAuth.Principal, error)
}

type principalContextKey struct{}

// PrincipalFromContext returns the principal admitted by a guard.
func PrincipalFromContext(ctx context.Context) (*tutorAuth.Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(*tutorAuth.Principal)
	return p, ok
}

// Guard rejects requests without an access token that resolves to an active
// principal of role. Blocked principals get 403, everything else 401.
func Guard(auth Authenticator, role tutorAuth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth == nil {
				reject(w, role, tutorAuth.ErrUnauthorized)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				reject(w, role, tutorAuth.ErrUnauthorized)
				return
			}

			p, err := auth.Authenticate(r.Context(), role, token)
			if err != nil {
				reject(w, role, err)
				return
			}

			ctx := context.WithValue(r.Context(), principalContextKey{}, p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RequireUser(auth Authenticator) func(http.Handler) http.Handler {
	return Guard(auth, tutorAuth.RoleUser)
}

func RequireTutor(auth Authenticator) func(http.Handler) http.Handler {
	return Guard(auth, tutorAuth.RoleTutor)
}

func RequireAdmin(auth Authenticator) func(http.Handler) http.Handler {
	return Guard(auth, tutorAuth.RoleAdmin)
}

func reject(w http.ResponseWriter, role tutorAuth.Role, err error) {
	status := http.StatusUnauthorized
	switch tutorAuth.Classify(err) {
	case tutorAuth.ClassAuthorization:
		status = http.StatusForbidden
	case tutorAuth.ClassDependency:
		status = http.StatusInternalServerError
	default:
		err = tutorAuth.ErrUnauthorized
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"message": tutorAuth.PublicMessage(role, err),
	})
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if len(value) < len(bearer) || !strings.EqualFold(value[:len(bearer)], bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}
