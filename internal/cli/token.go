package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"teacherdesk/internal/auth"
)

func newTokenCmd(o *options) *cobra.Command {
	var (
		subject string
		role    string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the HTTP gateway",
		Long: `Issue a bearer token for the HTTP gateway, signed with JWT_SIGNING_KEY.
The token is valid for --ttl, or ACCESS_TTL when the flag is not given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.cfg.JWTSigningKey == "" {
				return errors.New("JWT_SIGNING_KEY is not set")
			}
			if !cmd.Flags().Changed("ttl") {
				ttl = o.cfg.AccessTTL
			}
			tok, err := auth.Issue(subject, role, o.cfg.JWTIssuer, o.cfg.JWTSigningKey, ttl)
			if err != nil {
				return err
			}
			if o.asJSON {
				return o.printJSON(cmd, map[string]any{
					"access_token": tok.Value,
					"expires_at":   tok.ExpiresAt.Unix(),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok.Value)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "teacher", "Token subject")
	cmd.Flags().StringVar(&role, "role", "teacher", "Role claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime")
	return cmd
}
