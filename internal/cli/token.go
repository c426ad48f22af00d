package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"riddleme-service/internal/config"
	transport "riddleme-service/internal/transport/http"
)

// NewTokenCmd prints an admin JWT for the regenerate endpoint.
func NewTokenCmd(configPath *string) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an admin token signed with admin.jwt_secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			token, err := transport.IssueAdminToken(cfg.Admin.JWTSecret, subject, ttl, time.Now())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "admin", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
