package main

import (
	tutorAuth "github.com/MrEthical07/tutorAuth"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

func newSeedAdminCmd(a *app) *cobra.Command {
	var req tutorAuth.SeedAdminRequest

	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create an admin account (development only)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := a.openBackends(cmd.Context())
			if err != nil {
				return err
			}
			defer b.Close()

			engine, err := a.buildEngine(b, disabledMailer{})
			if err != nil {
				return err
			}
			defer engine.Close()

			p, err := engine.SeedAdmin(cmd.Context(), req)
			if err != nil {
				return oops.Code("SEED_FAILED").With("email", req.Email).Wrap(err)
			}
			cmd.Printf("admin %s created (id %s)\n", p.Email, p.PublicID)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Email, "email", "", "admin e-mail")
	cmd.Flags().StringVar(&req.Password, "password", "", "admin password")
	cmd.Flags().StringVar(&req.FullName, "name", "", "admin display name (default \"Super Admin\")")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
