package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	tutorAuth "github.com/MrEthical07/tutorAuth"
	"github.com/MrEthical07/tutorAuth/internal/httpapi"
	promexport "github.com/MrEthical07/tutorAuth/metrics/export/prometheus"
	"github.com/MrEthical07/tutorAuth/oauth/google"
	"github.com/gorilla/sessions"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := a.settings
	b, err := a.openBackends(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	mail, err := a.newMailer()
	if err != nil {
		return err
	}
	engine, err := a.buildEngine(b, mail)
	if err != nil {
		return err
	}
	defer engine.Close()

	opts := httpapi.Options{
		Logger:         a.logger,
		AllowedOrigins: s.Server.AllowedOrigins,
		RequestTimeout: s.Server.RequestTimeout,
		Ready:          b.Ready,
	}
	if s.Metrics.Enabled {
		opts.Metrics = promexport.Handler(promexport.NewCollector(engine))
	}
	if s.GoogleEnabled() {
		provider, err := google.New(google.Config{
			ClientID:     s.Google.ClientID,
			ClientSecret: s.Google.ClientSecret,
			RedirectURL:  s.Google.RedirectURL,
		})
		if err != nil {
			return err
		}
		store := sessions.NewCookieStore([]byte(s.Session.Secret))
		store.Options.HttpOnly = true
		store.Options.Secure = s.Environment != tutorAuth.EnvDevelopment
		store.Options.SameSite = http.SameSiteLaxMode
		opts.Google = provider
		opts.SessionStore = store
	}

	srv := &http.Server{
		Addr:              s.Server.Addr,
		Handler:           httpapi.NewRouter(engine, opts),
		ReadTimeout:       s.Server.ReadTimeout,
		ReadHeaderTimeout: s.Server.ReadTimeout,
		WriteTimeout:      s.Server.WriteTimeout,
		ErrorLog:          slog.NewLogLogger(a.logger.Handler(), slog.LevelError),
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening",
			slog.String("addr", s.Server.Addr),
			slog.String("environment", s.Environment),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("received shutdown signal")
	case err := <-errCh:
		if err != nil {
			return oops.Code("HTTP_SERVE_FAILED").Wrap(err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("http server shutdown", slog.String("error", err.Error()))
	}
	a.logger.Info("shutdown complete")
	return nil
}
