// Package google performs the server-side Google OAuth2 authorization code
// exchange and resolves the signed-in Google account.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
)

const defaultUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

var (
	ErrNotConfigured = errors.New("google oauth: client id, secret and redirect url are required")
	// ErrUnverifiedEmail is returned when Google does not vouch for the address.
	ErrUnverifiedEmail = errors.New("google oauth: email not verified")
)

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// Endpoint and UserInfoURL override Google's production endpoints.
	Endpoint    oauth2.Endpoint
	UserInfoURL string
}

// Profile is the Google account behind an authorization code.
type Profile struct {
	ID      string
	Email   string
	Name    string
	Picture string
}

type Provider struct {
	oauth       *oauth2.Config
	userInfoURL string
}

func New(cfg Config) (*Provider, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RedirectURL == "" {
		return nil, ErrNotConfigured
	}
	endpoint := cfg.Endpoint
	if endpoint.TokenURL == "" {
		endpoint = googleoauth.Endpoint
	}
	userInfo := cfg.UserInfoURL
	if userInfo == "" {
		userInfo = defaultUserInfoURL
	}
	return &Provider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     endpoint,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
		},
		userInfoURL: userInfo,
	}, nil
}

// AuthCodeURL returns the consent page URL carrying state.
func (p *Provider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
}

// Exchange trades an authorization code for the account profile.
func (p *Provider) Exchange(ctx context.Context, code string) (*Profile, error) {
	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, oops.Code("GOOGLE_EXCHANGE_FAILED").In("oauth").Wrap(err)
	}

	client := p.oauth.Client(ctx, token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, oops.Code("GOOGLE_USERINFO_FAILED").In("oauth").Wrap(err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, oops.Code("GOOGLE_USERINFO_FAILED").In("oauth").Wrap(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, oops.Code("GOOGLE_USERINFO_FAILED").In("oauth").With("status", resp.StatusCode).
			Errorf("userinfo returned status %d", resp.StatusCode)
	}

	var data struct {
		ID            string `json:"id"`
		Email         string `json:"email"`
		VerifiedEmail bool   `json:"verified_email"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&data); err != nil {
		return nil, oops.Code("GOOGLE_USERINFO_FAILED").In("oauth").Wrap(fmt.Errorf("decode userinfo: %w", err))
	}
	if !data.VerifiedEmail {
		return nil, ErrUnverifiedEmail
	}

	return &Profile{
		ID:      data.ID,
		Email:   strings.TrimSpace(data.Email),
		Name:    data.Name,
		Picture: data.Picture,
	}, nil
}
