package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/inboundkit/internal/credential"
	"github.com/nhle/inboundkit/internal/model"
)

// credentialNames maps the names accepted by set-key to keyring entries.
var credentialNames = map[string]string{
	"inbound":     model.CredentialInboundAPIKey,
	"browserless": model.CredentialRenderToken,
	"anthropic":   model.CredentialAIKey,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration and stored credentials",
}

var setKeyCmd = &cobra.Command{
	Use:       "set-key <inbound|browserless|anthropic>",
	Short:     "Store an API key in the system keyring (read from stdin)",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"inbound", "browserless", "anthropic"},
	RunE: func(cmd *cobra.Command, args []string) error {
		name := credentialNames[args[0]]

		fmt.Fprintf(cmd.ErrOrStderr(), "Enter %s key: ", args[0])
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("reading key: %w", err)
		}
		value := strings.TrimSpace(line)
		if value == "" {
			return fmt.Errorf("empty key")
		}

		if err := credential.Set(name, value); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Stored %s key.\n", args[0])
		return nil
	},
}

var deleteKeyCmd = &cobra.Command{
	Use:       "delete-key <inbound|browserless|anthropic>",
	Short:     "Remove an API key from the system keyring",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"inbound", "browserless", "anthropic"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return credential.Delete(credentialNames[args[0]])
	},
}

var initConfigCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the default settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("%s already exists", configPath)
		}
		cfg, err := model.LoadConfig(configPath)
		if err != nil {
			return err
		}
		if err := model.SaveConfig(configPath, cfg); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", configPath)
		return nil
	},
}

func init() {
	configCmd.AddCommand(setKeyCmd, deleteKeyCmd, initConfigCmd)
	rootCmd.AddCommand(configCmd)
}
