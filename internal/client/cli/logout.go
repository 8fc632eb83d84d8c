package cli

import (
	"github.com/spf13/cobra"
)

func (c *Cli) newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and delete the local session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.io.Println("=== Logout ===")

			// Сервер уведомляется по возможности, локальная сессия удаляется всегда
			c.authService.Logout(cmd.Context())

			c.io.Println("✓ Logout successful!")
			c.io.Println("Your local session has been deleted.")
			return nil
		},
	}
}
