// Package httpapi is the chi transport of the auth engine: the
// /api/{user,tutor,admin} routes, the JSON envelope and the refresh cookie.
package httpapi

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	tutorAuth "github.com/MrEthical07/tutorAuth"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/sessions"
)

// Engine is the engine surface the transport calls.
type Engine interface {
	Register(ctx context.Context, role tutorAuth.Role, req tutorAuth.RegisterRequest) (*tutorAuth.Principal, error)
	VerifyOTP(ctx context.Context, role tutorAuth.Role, email, code string) (*tutorAuth.AuthResult, error)
	ResendOTP(ctx context.Context, role tutorAuth.Role, email string) error
	Login(ctx context.Context, role tutorAuth.Role, email, password string) (*tutorAuth.AuthResult, error)
	GoogleAuth(ctx context.Context, role tutorAuth.Role, profile tutorAuth.GoogleProfile) (*tutorAuth.AuthResult, error)
	RequestPasswordReset(ctx context.Context, role tutorAuth.Role, email string) error
	ConfirmPasswordReset(ctx context.Context, role tutorAuth.Role, token, newPassword string) error
	SetBlocked(ctx context.Context, role tutorAuth.Role, publicID string, blocked bool) (*tutorAuth.Principal, error)
	Authenticate(ctx context.Context, role tutorAuth.Role, accessToken string) (*tutorAuth.Principal, error)
	RefreshCookie(token string) *http.Cookie
}

type Options struct {
	Logger *slog.Logger
	// AllowedOrigins are the browser origins allowed to send credentials.
	AllowedOrigins []string
	RequestTimeout time.Duration

	// Google enables /google/login and /google/callback. SessionStore holds
	// the OAuth state and is required with it.
	Google       GoogleProvider
	SessionStore sessions.Store

	Metrics http.Handler
	// Ready reports backend health for /readyz.
	Ready func(ctx context.Context) error
}

// NewRouter wires every route onto a chi router.
func NewRouter(engine Engine, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(chimiddleware.Timeout(timeout))
	r.Use(engineContext)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, envelope{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if opts.Ready != nil {
			if err := opts.Ready(r.Context()); err != nil {
				logger.WarnContext(r.Context(), "readiness check failed", slog.String("error", err.Error()))
				writeJSON(w, http.StatusServiceUnavailable, envelope{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, envelope{"status": "ready"})
	})
	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics)
	}

	var oauth *oauthHandler
	if opts.Google != nil && opts.SessionStore != nil {
		oauth = &oauthHandler{engine: engine, provider: opts.Google, store: opts.SessionStore, logger: logger}
	}

	r.Route("/api", func(r chi.Router) {
		r.Mount("/user", (&authHandler{engine: engine, role: tutorAuth.RoleUser, oauth: oauth}).routes())
		r.Mount("/tutor", (&authHandler{engine: engine, role: tutorAuth.RoleTutor, oauth: oauth}).routes())
		r.Mount("/admin", (&adminHandler{engine: engine}).routes())
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, envelope{"success": false, "message": "Not found"})
	})
	return r
}

// engineContext carries the request id and client IP into engine calls.
func engineContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if id := chimiddleware.GetReqID(ctx); id != "" {
			ctx = tutorAuth.WithRequestID(ctx, id)
		}
		ip := r.RemoteAddr
		if host, _, err := net.SplitHostPort(ip); err == nil {
			ip = host
		}
		ctx = tutorAuth.WithClientIP(ctx, ip)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			// The route pattern keeps reset tokens out of the log.
			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			logger.LogAttrs(r.Context(), slog.LevelInfo, "http request",
				slog.String("method", r.Method),
				slog.String("route", route),
				slog.Int("status", ww.Status()),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", chimiddleware.GetReqID(r.Context())),
			)
		})
	}
}
