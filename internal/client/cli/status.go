package cli

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
)

func (c *Cli) newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show authentication status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.io.Println("=== Authentication Status ===")
			c.io.Println()

			creds, ok := c.store.Credentials()
			if !ok {
				c.io.Println("Status: Not authenticated")
				c.io.Println()
				c.io.Println("Run 'autopark login' to authenticate.")
				return nil
			}

			c.io.Println("Status: Authenticated")
			c.io.Printf("Server: %s\n", c.cfg.ServerURL)

			// подпись не проверяем: это делает сервер, здесь нужен только срок
			claims := &jwt.RegisteredClaims{}
			if _, _, err := jwt.NewParser().ParseUnverified(creds.AccessToken, claims); err != nil {
				return fmt.Errorf("failed to read access token: %w", err)
			}
			if claims.ExpiresAt == nil {
				return nil
			}

			expiresAt := claims.ExpiresAt.Time
			c.io.Printf("Access token expires: %s\n", expiresAt.Format(time.RFC3339))
			if remaining := time.Until(expiresAt); remaining > 0 {
				c.io.Printf("Time remaining: %s\n", remaining.Round(time.Second))
			} else {
				c.io.Println("Access token has expired, it will be refreshed on the next request.")
			}
			return nil
		},
	}
}
