package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/daun-gatal/chouse-ui-sub004/internal/middleware"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue bearer tokens for development",
	}
	cmd.AddCommand(newTokenIssueCmd())
	return cmd
}

func newTokenIssueCmd() *cobra.Command {
	var (
		username string
		ttl      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Sign an HS256 token for an existing user",
		Long: "Sign an HS256 token with JWT_SECRET for an existing user. Not available when " +
			"an OIDC issuer is configured.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			if s.cfg.Auth.OIDCEnabled() {
				return errors.New("tokens are issued by the OIDC provider when AUTH_ISSUER_URL is set")
			}
			u, err := s.users.Lookup(cmd.Context(), username)
			if err != nil {
				return fmt.Errorf("look up user %q: %w", username, err)
			}
			now := time.Now()
			tok, err := middleware.IssueHS256Token(s.cfg.Auth.JWTSecret, middleware.TokenRequest{
				UserID:   u.ID,
				Username: u.Username,
				Audience: s.cfg.Auth.Audience,
				TTL:      ttl,
			}, now)
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]string{
					"token":      tok,
					"user_id":    u.ID,
					"expires_at": now.Add(ttl).UTC().Format(time.RFC3339),
				})
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "user", "", "Username (required)")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
