package main

import (
	"fmt"
	"os"
	"time"

	"github.com/shinyyama/book-courier-backend/internal/identity"
	"github.com/shinyyama/book-courier-backend/internal/model"
	"github.com/spf13/cobra"
)

// tokenCmd mints HS256 tokens accepted by the API when Firebase is not configured.
func tokenCmd() *cobra.Command {
	var (
		uid  string
		role string
		ttl  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token [email]",
		Short: "Issue a local development bearer token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := os.Getenv("AUTH_JWT_SECRET")
			if secret == "" {
				return fmt.Errorf("AUTH_JWT_SECRET is not set")
			}
			r := model.Role(role)
			if role != "" && !r.Valid() {
				return fmt.Errorf("unknown role %q", role)
			}
			v, err := identity.NewJWTVerifier(secret)
			if err != nil {
				return err
			}
			if uid == "" {
				uid = args[0]
			}
			tok, err := v.Issue(uid, args[0], r, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&uid, "uid", "", "subject claim (defaults to the email)")
	cmd.Flags().StringVar(&role, "role", "", "role claim: user, librarian or admin")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}
