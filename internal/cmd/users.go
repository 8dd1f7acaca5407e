package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/luminary-app/luminary/internal/errors"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Browse the member directory",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all members",
	RunE:  runUsersList,
}

func init() {
	usersCmd.AddCommand(usersListCmd)
	rootCmd.AddCommand(usersCmd)
}

func runUsersList(cmd *cobra.Command, args []string) error {
	a, err := requireSession()
	if err != nil {
		return err
	}

	users, err := a.api.ListUsers(cmd.Context())
	if err != nil {
		return err
	}

	if len(users) == 0 {
		fmt.Println("No members found.")
		return nil
	}

	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	fmt.Printf("%s  %s  %s\n",
		header.Width(24).Render("NAME"),
		header.Width(32).Render("EMAIL"),
		header.Render("ROLE"))

	for _, u := range users {
		fmt.Printf("%-24s  %-32s  %s\n", u.Name, u.Email, muted.Render(u.Role))
	}

	fmt.Printf("\n%d member(s)\n", len(users))
	return nil
}

// requireSession builds the app and refuses to proceed without a token. The
// server would answer 401 anyway; failing locally gives a better message and
// skips the doomed request.
func requireSession() (*app, error) {
	a, err := newApp()
	if err != nil {
		return nil, err
	}
	if a.store.Token() == "" {
		return nil, errors.NewNotLoggedInError()
	}
	return a, nil
}
