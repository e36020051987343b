package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/calbooker/internal/logging"
)

var (
	// configFile is the optional --config path
	configFile string

	// appConfig and appLogger are resolved before any subcommand runs
	appConfig *Config
	appLogger = slog.Default()
)

// rootCmd represents the base command for the calbooker application
var rootCmd = &cobra.Command{
	Use:   "calbooker",
	Short: "Conversational scheduling assistant for Cal.com",
	Long: `calbooker books, lists, and cancels Cal.com meetings on behalf of users.

It can run as:
  - An HTTP chat API backed by an LLM with function calling (serve)
  - An MCP (Model Context Protocol) server for AI assistants (serve --transport stdio)
  - A CLI for direct Cal.com access (bookings, event-types)`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := loadDotEnv(appLogger); err != nil {
			return err
		}

		cfg, err := loadConfig(cmd, configFile)
		if err != nil {
			return err
		}

		logger, err := logging.New(os.Stderr, cfg.LogFormat, cfg.LogLevel)
		if err != nil {
			return err
		}
		slog.SetDefault(logger)

		appConfig = cfg
		appLogger = logger
		return nil
	},
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "calbooker version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "Optional config file (yaml, json, or toml)")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")
	flags.String("log-format", logging.FormatText, "Log format: text or json")
	flags.String("calcom-api-key", "", "Cal.com API key (env: CALCOM_API_KEY)")
	flags.String("calcom-base-url", "", "Cal.com API base URL (env: CALCOM_BASE_URL)")
	flags.String("calcom-username", "", "Cal.com username whose event types are offered (env: CALCOM_USERNAME)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newBookingsCmd())
	rootCmd.AddCommand(newEventTypesCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "calbooker version %s\n", version)
			return err
		},
	}
}
