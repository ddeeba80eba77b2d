package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func fakeGoogle(t *testing.T, verified bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.Form.Get("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "at-1",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":             "g-123",
			"email":          "g@x.com",
			"verified_email": verified,
			"name":           "Gina",
			"picture":        "https://img/g",
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newProvider(t *testing.T, srv *httptest.Server) *Provider {
	t.Helper()
	p, err := New(Config{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost/api/user/google/callback",
		Endpoint: oauth2.Endpoint{
			AuthURL:   srv.URL + "/auth",
			TokenURL:  srv.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
		UserInfoURL: srv.URL + "/userinfo",
	})
	require.NoError(t, err)
	return p
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(Config{ClientID: "id"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestAuthCodeURLCarriesState(t *testing.T) {
	p := newProvider(t, fakeGoogle(t, true))

	u, err := url.Parse(p.AuthCodeURL("state-1"))
	require.NoError(t, err)
	assert.Equal(t, "state-1", u.Query().Get("state"))
	assert.Equal(t, "client", u.Query().Get("client_id"))
	assert.Contains(t, u.Query().Get("scope"), "email")
}

func TestExchangeReturnsProfile(t *testing.T) {
	p := newProvider(t, fakeGoogle(t, true))

	profile, err := p.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, &Profile{ID: "g-123", Email: "g@x.com", Name: "Gina", Picture: "https://img/g"}, profile)
}

func TestExchangeBadCode(t *testing.T) {
	p := newProvider(t, fakeGoogle(t, true))

	_, err := p.Exchange(context.Background(), "bad-code")
	require.Error(t, err)
}

func TestExchangeUnverifiedEmail(t *testing.T) {
	p := newProvider(t, fakeGoogle(t, false))

	_, err := p.Exchange(context.Background(), "good-code")
	assert.ErrorIs(t, err, ErrUnverifiedEmail)
}
