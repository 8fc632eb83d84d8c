package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *Cli) newLoginCommand() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session on this device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.io.Println("=== Login ===")
			c.io.Println()

			if email == "" {
				input, err := c.io.ReadInput("Email: ")
				if err != nil {
					return fmt.Errorf("failed to read email: %w", err)
				}
				email = input
			}

			password, err := c.io.ReadPassword("Password: ")
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}

			c.io.Println()
			c.io.Println("Authenticating...")

			if err := c.authService.Login(cmd.Context(), email, password); err != nil {
				return err
			}

			c.io.Println()
			c.io.Println("✓ Login successful!")
			c.io.Printf("Email: %s\n", email)
			c.io.Println("Your session has been saved securely.")
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address")
	return cmd
}
