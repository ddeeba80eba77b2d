package main

import (
	"io"
	"log/slog"
	"strings"

	"github.com/MrEthical07/tutorAuth/internal/config"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

// app carries the settings and logger resolved before any subcommand runs.
type app struct {
	configFile string
	settings   *config.Settings
	logger     *slog.Logger
}

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "tutorauth",
		Short: "Authentication service for users, tutors and admins",
		Long: `tutorauth serves registration with e-mail OTP, password and Google
login, password reset and admin account management over HTTP.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&a.configFile, "config", "", "config file path (YAML)")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(newServeCmd(a))
	cmd.AddCommand(newMigrateCmd(a))
	cmd.AddCommand(newSeedAdminCmd(a))

	return cmd
}

func (a *app) load(cmd *cobra.Command) error {
	s, err := config.Load(a.configFile, cmd.Flags())
	if err != nil {
		return err
	}
	logger, err := newLogger(cmd.ErrOrStderr(), s.LogFormat(), s.Log.Level)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	a.settings = s
	a.logger = logger
	return nil
}

// newLogger builds the process logger: json in production, text otherwise.
func newLogger(w io.Writer, format, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(defaultString(level, "info")))); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("level", level).Wrap(err)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch format {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, oops.Code("CONFIG_INVALID").Errorf("invalid log format %q: must be 'json' or 'text'", format)
	}
}

func defaultString(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
