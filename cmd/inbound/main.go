package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nhle/inboundkit/internal/credential"
	"github.com/nhle/inboundkit/internal/logging"
	"github.com/nhle/inboundkit/internal/model"
)

// Version is set via ldflags at build time.
var Version = "dev"

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "inbound",
	Short:         "inbound - terminal client and webhook servers for the Inbound email API",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("inbound version %s\n", Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", model.DefaultConfigPath(), "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the config file and environment, fills secrets from
// the keyring and checks the settings the command needs.
func loadConfig(reqs ...model.Requirement) (*model.AppConfig, error) {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	cfg.FillCredentials(credential.Get)
	if err := cfg.Require(reqs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// stderrLogger is the logger of commands that do not own the terminal.
func stderrLogger() *slog.Logger {
	return logging.New(os.Stderr, logLevel)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
