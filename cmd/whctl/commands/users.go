package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	adminEmail    string
	adminPassword string
	resetEmail    string
	resetPassword string
)

var seedAdminCmd = &cobra.Command{
	Use:   "seed-admin",
	Short: "Create the admin account if it does not exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.close()

		created, err := a.users.EnsureAdmin(cmd.Context(), adminEmail, adminPassword)
		if err != nil {
			return fmt.Errorf("failed to seed admin: %w", err)
		}
		if created {
			fmt.Fprintf(cmd.OutOrStdout(), "Admin user created: %s\n", adminEmail)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Admin user %s already exists\n", adminEmail)
		}
		return nil
	},
}

var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password",
	Short: "Set a user's password and end their sessions",
	Long: `Set a user's password without knowing the old one. Every token issued
to the user stops working.

Examples:
  whctl reset-password --email admin@example.com --password 'n3w-secret'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.users.SetPassword(cmd.Context(), resetEmail, resetPassword); err != nil {
			return fmt.Errorf("failed to reset password: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Password for %s has been reset\n", resetEmail)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedAdminCmd)
	rootCmd.AddCommand(resetPasswordCmd)

	seedAdminCmd.Flags().StringVar(&adminEmail, "email", "admin@example.com", "Admin email")
	seedAdminCmd.Flags().StringVar(&adminPassword, "password", "admin123", "Admin password")

	resetPasswordCmd.Flags().StringVar(&resetEmail, "email", "admin@example.com", "User email")
	resetPasswordCmd.Flags().StringVar(&resetPassword, "password", "", "New password (required)")
	_ = resetPasswordCmd.MarkFlagRequired("password")
}
