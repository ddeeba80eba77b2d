package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	tutorAuth "github.com/MrEthical07/tutorAuth"
)

type stubAuth struct {
	principal *tutorAuth.Principal
	err       error
	gotRole   tutorAuth.Role
	gotToken  string
}

func (s *stubAuth) Authenticate(_ context.Context, role tutorAuth.Role, token string) (*tutorAuth.Principal, error) {
	s.gotRole = role
	s.gotToken = token
	return s.principal, s.err
}

func serve(t *testing.T, auth Authenticator, header string) (*httptest.ResponseRecorder, *tutorAuth.Principal) {
	t.Helper()
	var seen *tutorAuth.Principal
	h := RequireTutor(auth)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/tutor/me", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec, seen
}

func TestGuardAdmitsActivePrincipal(t *testing.T) {
	auth := &stubAuth{principal: &tutorAuth.Principal{ID: "p-1", Role: tutorAuth.RoleTutor}}

	rec, seen := serve(t, auth, "Bearer tok-1")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if seen == nil || seen.ID != "p-1" {
		t.Fatalf("expected principal in context, got %+v", seen)
	}
	if auth.gotRole != tutorAuth.RoleTutor || auth.gotToken != "tok-1" {
		t.Fatalf("unexpected call role=%s token=%s", auth.gotRole, auth.gotToken)
	}
}

func TestGuardRejectsMissingToken(t *testing.T) {
	for _, header := range []string{"", "Basic abc", "Bearer "} {
		rec, seen := serve(t, &stubAuth{}, header)
		if rec.Code != http.StatusUnauthorized || seen != nil {
			t.Fatalf("header %q: expected 401, got %d", header, rec.Code)
		}
	}
}

func TestGuardStatusByErrorClass(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{tutorAuth.ErrUnauthorized, http.StatusUnauthorized},
		{tutorAuth.ErrAccountUnverified, http.StatusUnauthorized},
		{tutorAuth.ErrAccountBlocked, http.StatusForbidden},
		{errors.Join(tutorAuth.ErrDependency, errors.New("db down")), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec, _ := serve(t, &stubAuth{err: tc.err}, "Bearer tok")
		if rec.Code != tc.want {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.want, rec.Code)
		}
	}
}

func TestGuardNilAuthenticator(t *testing.T) {
	rec, _ := serve(t, nil, "Bearer tok")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
