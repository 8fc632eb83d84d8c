package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	pkgapi "github.com/iudanet/autopark/pkg/api"
)

func (c *Cli) newMeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "me",
		Short: "Show your profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := c.profile.Me(cmd.Context())
			if err != nil {
				return err
			}
			return profileTmpl.Execute(c.io, user)
		},
	}

	cmd.AddCommand(c.newMeUpdateCommand(), c.newMePhotoCommand())
	return cmd
}

func (c *Cli) newMeUpdateCommand() *cobra.Command {
	var nom, prenom, telephone string

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update profile fields",
		Long:  `Only the flags you pass are changed, e.g. autopark me update --nom Diallo`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var req pkgapi.UpdateUserRequest
			if cmd.Flags().Changed("nom") {
				req.Nom = &nom
			}
			if cmd.Flags().Changed("prenom") {
				req.Prenom = &prenom
			}
			if cmd.Flags().Changed("telephone") {
				req.Telephone = &telephone
			}

			user, err := c.profile.Update(cmd.Context(), req)
			if err != nil {
				return err
			}

			c.io.Println("✓ Profile updated")
			return profileTmpl.Execute(c.io, user)
		},
	}

	cmd.Flags().StringVar(&nom, "nom", "", "Last name")
	cmd.Flags().StringVar(&prenom, "prenom", "", "First name")
	cmd.Flags().StringVar(&telephone, "telephone", "", "Phone number")
	return cmd
}

func (c *Cli) newMePhotoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "photo <file>",
		Short: "Upload a profile photo (jpg, png, gif, webp)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open photo: %w", err)
			}
			defer f.Close()

			c.io.Println("Uploading photo...")
			user, err := c.profile.UploadPhoto(cmd.Context(), args[0], f)
			if err != nil {
				return err
			}

			c.io.Println("✓ Photo updated")
			c.io.Printf("Photo: %s\n", user.PhotoURL)
			return nil
		},
	}
}
