package httpapi

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"log/slog"
	"net/http"

	tutorAuth "github.com/MrEthical07/tutorAuth"
	"github.com/MrEthical07/tutorAuth/oauth/google"
	"github.com/gorilla/sessions"
)

const oauthSessionName = "tutorauth_oauth"

// GoogleProvider performs the OAuth2 code flow.
type GoogleProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*google.Profile, error)
}

// oauthHandler keeps the CSRF state in a short-lived signed cookie session.
type oauthHandler struct {
	engine   Engine
	provider GoogleProvider
	store    sessions.Store
	logger   *slog.Logger
}

func (h *oauthHandler) start(role tutorAuth.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := newState()
		if err != nil {
			writeError(w, role, err)
			return
		}

		session, _ := h.store.Get(r, oauthSessionName)
		session.Values["state"] = state
		session.Values["role"] = string(role)
		session.Options.MaxAge = 300
		if err := session.Save(r, w); err != nil {
			h.logger.ErrorContext(r.Context(), "oauth state save failed", slog.String("error", err.Error()))
			writeError(w, role, err)
			return
		}
		http.Redirect(w, r, h.provider.AuthCodeURL(state), http.StatusTemporaryRedirect)
	}
}

func (h *oauthHandler) callback(role tutorAuth.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("error") != "" || q.Get("code") == "" {
			writeError(w, role, tutorAuth.ErrInvalidGoogleData)
			return
		}

		session, _ := h.store.Get(r, oauthSessionName)
		saved, _ := session.Values["state"].(string)
		savedRole, _ := session.Values["role"].(string)
		if saved == "" || saved != q.Get("state") || savedRole != string(role) {
			writeError(w, role, tutorAuth.ErrUnauthorized)
			return
		}
		session.Options.MaxAge = -1
		_ = session.Save(r, w)

		profile, err := h.provider.Exchange(r.Context(), q.Get("code"))
		if err != nil {
			h.logger.WarnContext(r.Context(), "google code exchange failed",
				slog.String("role", string(role)),
				slog.String("error", err.Error()),
			)
			writeError(w, role, tutorAuth.ErrInvalidGoogleData)
			return
		}

		res, err := h.engine.GoogleAuth(r.Context(), role, tutorAuth.GoogleProfile{
			GoogleID:     profile.ID,
			Email:        profile.Email,
			Name:         profile.Name,
			ProfileImage: profile.Picture,
		})
		if err != nil {
			writeError(w, role, err)
			return
		}
		http.SetCookie(w, h.engine.RefreshCookie(res.RefreshToken))
		writeOK(w, "Google login successful", authBody(res))
	}
}

func newState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
