package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/luminary-app/luminary/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show and change client configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change a configuration value",
	RunE:  runConfigSet,
}

var (
	setAPIURL  string
	setTimeout time.Duration
)

func init() {
	configSetCmd.Flags().StringVar(&setAPIURL, "api-url", "", "base URL of the Luminary service")
	configSetCmd.Flags().DurationVar(&setTimeout, "timeout", 0, "per-request timeout (e.g. 30s)")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	path, err := config.Path()
	if err != nil {
		return err
	}

	fmt.Printf("api_url:         %s\n", cfg.APIURL)
	fmt.Printf("request_timeout: %s\n", cfg.RequestTimeout)
	fmt.Printf("log_level:       %s\n", cfg.LogLevel)
	fmt.Printf("log_format:      %s\n", cfg.LogFormat)
	fmt.Printf("\nconfig file: %s\n", path)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if setAPIURL == "" && setTimeout == 0 {
		return fmt.Errorf("nothing to set: pass --api-url and/or --timeout")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if setAPIURL != "" {
		cfg.APIURL = setAPIURL
	}
	if setTimeout != 0 {
		cfg.RequestTimeout = setTimeout
	}

	if err := config.Save(cfg); err != nil {
		return err
	}

	fmt.Println("Configuration saved.")
	return nil
}
