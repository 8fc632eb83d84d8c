package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	pkgapi "github.com/iudanet/autopark/pkg/api"
)

func (c *Cli) newRegisterCommand() *cobra.Command {
	var req pkgapi.RegisterRequest

	cmd := &cobra.Command{
		Use:         "register",
		Short:       "Create an account",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationNoSession: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			c.io.Println("=== Registration ===")
			c.io.Println()

			// Запрашиваем email, если не передан флагом
			if req.Email == "" {
				email, err := c.io.ReadInput("Email: ")
				if err != nil {
					return fmt.Errorf("failed to read email: %w", err)
				}
				req.Email = email
			}

			password, err := c.io.ReadPassword("Password (min 8 chars): ")
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}

			// Подтверждение пароля
			confirm, err := c.io.ReadPassword("Confirm password: ")
			if err != nil {
				return fmt.Errorf("failed to read confirmation: %w", err)
			}
			if password != confirm {
				return fmt.Errorf("passwords do not match")
			}
			req.Password = password

			c.io.Println()
			c.io.Println("Registering user...")

			user, err := c.authService.Register(cmd.Context(), req)
			if err != nil {
				return err
			}

			c.io.Println()
			c.io.Println("✓ Registration successful!")
			c.io.Printf("User ID: %s\n", user.ID)
			c.io.Printf("Email:   %s\n", user.Email)
			c.io.Println()
			c.io.Println("Please run 'autopark login' to start using the service.")
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&req.Nom, "nom", "", "Last name")
	cmd.Flags().StringVar(&req.Prenom, "prenom", "", "First name")
	cmd.Flags().StringVar(&req.Telephone, "telephone", "", "Phone number")

	return cmd
}
