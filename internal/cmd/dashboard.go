package cmd

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/luminary-app/luminary/internal/bootstrap"
	"github.com/luminary-app/luminary/internal/tui"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Open the interactive client",
	Long: `Open the interactive client.

The session saved from a previous run is picked up automatically; otherwise
the sign-in form opens first. A URL passed as the only argument (an OAuth
redirect landing) has its token absorbed before the first screen is chosen.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDashboard,
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}

func runDashboard(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	launchURL := ""
	if len(args) == 1 {
		launchURL = args[0]
	}

	boot := bootstrap.New(a.api, a.store, a.flow, a.logger)
	decision, err := boot.Run(cmd.Context(), launchURL)
	if err != nil {
		return err
	}

	initial := tui.ViewLogin
	if decision == bootstrap.Proceed {
		initial = tui.ViewDashboard
	}

	model := tui.NewModel(cmd.Context(), a.flow, a.store, a.logger, initial)
	program := tea.NewProgram(model, tea.WithContext(cmd.Context()))

	// An out-of-band logout (a 401 on any request) must land the UI back on
	// the sign-in form, whatever view it is on.
	a.store.SetNavigateToLogin(func() {
		program.Send(tui.SessionExpired())
	})

	_, err = program.Run()
	return err
}
