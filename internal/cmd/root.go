package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/luminary-app/luminary/internal/api"
	"github.com/luminary-app/luminary/internal/authflow"
	"github.com/luminary-app/luminary/internal/config"
	"github.com/luminary-app/luminary/internal/credstore"
	"github.com/luminary-app/luminary/internal/log"
	"github.com/luminary-app/luminary/internal/session"
)

var rootCmd = &cobra.Command{
	Use:   "luminary",
	Short: "Terminal client for the Luminary platform",
	Long: `luminary is the terminal client for the Luminary platform.
It signs you in (with email verification or a trusted device), keeps the
session across restarts, and gives you access to your profile, the member
directory, and push notifications.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var verboseFlag bool

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with the given context
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable debug logging")
}

// app bundles the wired client stack the commands run against. Everything is
// built per invocation from the effective configuration.
type app struct {
	cfg    config.Config
	logger *log.Logger
	creds  *credstore.Store
	store  *session.Store
	api    *api.Client
	flow   *authflow.Controller
}

// newApp builds the client stack: configuration, logger, credential store,
// session store (hydrated synchronously), and the API client whose global
// 401 handler tears the session down.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := log.New(log.Config{
		Level:  log.ParseLevel(cfg.LogLevel),
		Format: log.ParseFormat(cfg.LogFormat),
		Output: log.OutputStderr(),
	})
	if verboseFlag {
		logger = log.Verbose()
	}

	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}

	creds := credstore.New(dir)
	store := session.New(creds, logger)

	client := api.New(cfg.APIURL, store, logger,
		api.WithTimeout(cfg.RequestTimeout),
		api.WithDeviceID(creds.DeviceID()),
		api.WithUnauthorizedHandler(store.Logout),
	)

	return &app{
		cfg:    cfg,
		logger: logger,
		creds:  creds,
		store:  store,
		api:    client,
		flow:   authflow.New(client, store, logger),
	}, nil
}
