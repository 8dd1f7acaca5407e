package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/luminary-app/luminary/internal/api"
	"github.com/luminary-app/luminary/internal/tui"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "View and manage your account profile",
}

var profileViewCmd = &cobra.Command{
	Use:   "view",
	Short: "Show the signed-in account's profile",
	RunE:  runProfileView,
}

var profileUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Change the account name or email",
	RunE:  runProfileUpdate,
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Permanently delete the account",
	RunE:  runProfileDelete,
}

var (
	profileName  string
	profileEmail string
	deleteYes    bool
)

func init() {
	profileUpdateCmd.Flags().StringVar(&profileName, "name", "", "new display name")
	profileUpdateCmd.Flags().StringVar(&profileEmail, "email", "", "new email address")
	profileDeleteCmd.Flags().BoolVar(&deleteYes, "yes", false, "skip the confirmation prompt")

	profileCmd.AddCommand(profileViewCmd)
	profileCmd.AddCommand(profileUpdateCmd)
	profileCmd.AddCommand(profileDeleteCmd)
	rootCmd.AddCommand(profileCmd)
}

func runProfileView(cmd *cobra.Command, args []string) error {
	a, err := requireSession()
	if err != nil {
		return err
	}

	user, err := a.api.GetProfile(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("Name:  %s\n", user.Name)
	fmt.Printf("Email: %s\n", user.Email)
	if user.Role != "" {
		fmt.Printf("Role:  %s\n", user.Role)
	}
	return nil
}

func runProfileUpdate(cmd *cobra.Command, args []string) error {
	a, err := requireSession()
	if err != nil {
		return err
	}

	var patch api.ProfilePatch
	if cmd.Flags().Changed("name") {
		patch.Name = &profileName
	}
	if cmd.Flags().Changed("email") {
		patch.Email = &profileEmail
	}
	if patch.Name == nil && patch.Email == nil {
		return fmt.Errorf("nothing to update: pass --name and/or --email")
	}

	user, err := a.api.UpdateProfile(cmd.Context(), patch)
	if err != nil {
		return err
	}

	a.store.SetUser(user)
	fmt.Println("Profile updated.")
	return nil
}

func runProfileDelete(cmd *cobra.Command, args []string) error {
	a, err := requireSession()
	if err != nil {
		return err
	}

	if !deleteYes {
		confirmed, err := tui.PromptForConfirmation("Permanently delete this account? This cannot be undone.", false)
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	if err := a.api.DeleteAccount(cmd.Context()); err != nil {
		return err
	}

	a.store.Logout()
	fmt.Println("Account deleted.")
	return nil
}
