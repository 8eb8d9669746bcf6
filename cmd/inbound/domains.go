package main

import (
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nhle/inboundkit/internal/app"
	"github.com/nhle/inboundkit/internal/domain"
	"github.com/nhle/inboundkit/internal/inbound"
	"github.com/nhle/inboundkit/internal/logging"
	"github.com/nhle/inboundkit/internal/model"
	"github.com/nhle/inboundkit/internal/store"
)

var zoneTTL int

var domainsCmd = &cobra.Command{
	Use:   "domains",
	Short: "Set up a receiving domain step by step",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(model.RequireInbound)
		if err != nil {
			return err
		}

		logger, closeLog, err := logging.NewFile(filepath.Join(filepath.Dir(cfg.Store.Path), "domains.log"), logLevel)
		if err != nil {
			return err
		}
		defer closeLog()

		client, err := inbound.NewClient(cfg.Inbound, inbound.WithLogger(logger))
		if err != nil {
			return err
		}

		kv, err := store.NewSQLiteStore(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer kv.Close()

		wiz, err := domain.NewWizard(cmd.Context(), client, kv, logger)
		if err != nil {
			return err
		}

		if _, err := tea.NewProgram(app.NewDomains(wiz), tea.WithAltScreen()).Run(); err != nil {
			return fmt.Errorf("running domain setup: %w", err)
		}
		return nil
	},
}

var zonefileCmd = &cobra.Command{
	Use:   "zonefile",
	Short: "Print the DNS records of the domain being set up as a zone file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		kv, err := store.NewSQLiteStore(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer kv.Close()

		wiz, err := domain.NewWizard(cmd.Context(), nil, kv, stderrLogger())
		if err != nil {
			return err
		}
		st := wiz.State()
		if st.Domain == nil {
			return fmt.Errorf("no domain in progress; run 'inbound domains' first")
		}

		fmt.Fprint(cmd.OutOrStdout(), domain.ZoneFile(st.Domain.Domain, st.Records(), zoneTTL))
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget the domain setup progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		kv, err := store.NewSQLiteStore(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer kv.Close()

		ctx := cmd.Context()
		wiz, err := domain.NewWizard(ctx, nil, kv, stderrLogger())
		if err != nil {
			return err
		}
		if err := wiz.Reset(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Domain setup reset.")
		return nil
	},
}

func init() {
	zonefileCmd.Flags().IntVar(&zoneTTL, "ttl", domain.DefaultTTL, "record TTL in seconds")
	domainsCmd.AddCommand(zonefileCmd, resetCmd)
	rootCmd.AddCommand(domainsCmd)
}
