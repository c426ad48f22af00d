package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"riddleme-service/internal/client"
)

// NewPlayCmd starts an interactive terminal game against a running server.
func NewPlayCmd(port *string) *cobra.Command {
	var (
		server   string
		username string
	)
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play riddles in the terminal against a running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			username = strings.TrimSpace(username)
			if username == "" {
				username = os.Getenv("USER")
			}
			if username == "" {
				return fmt.Errorf("--username is required")
			}
			base := server
			if base == "" {
				p := *port
				if p == "" {
					p = "8080"
				}
				base = "http://localhost:" + p
			}
			api := client.New(base, 30*time.Second)
			return client.NewGame(api, username, cmd.InOrStdin(), cmd.OutOrStdout()).Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&server, "server", "", "server base URL (default http://localhost:<port>)")
	cmd.Flags().StringVarP(&username, "username", "u", "", "player name (default $USER)")
	return cmd
}
