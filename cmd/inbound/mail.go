package main

import (
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nhle/inboundkit/internal/app"
	"github.com/nhle/inboundkit/internal/inbound"
	"github.com/nhle/inboundkit/internal/logging"
	"github.com/nhle/inboundkit/internal/model"
)

var mailCmd = &cobra.Command{
	Use:   "mail",
	Short: "Browse threads, read messages and send email",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(model.RequireInbound, model.RequireSender)
		if err != nil {
			return err
		}

		logPath := filepath.Join(filepath.Dir(cfg.Store.Path), "mail.log")
		logger, closeLog, err := logging.NewFile(logPath, logLevel)
		if err != nil {
			return err
		}
		defer closeLog()

		client, err := inbound.NewClient(cfg.Inbound, inbound.WithLogger(logger))
		if err != nil {
			return err
		}

		m := app.New(app.Options{
			Gateway:      client,
			From:         cfg.Mail.FromAddress,
			FromName:     cfg.Mail.FromName,
			PollInterval: cfg.Mail.PollInterval(),
			StaleAfter:   cfg.Mail.StaleAfter(),
			PageSize:     cfg.Mail.PageSize,
			Logger:       logger,
		})
		defer m.Close()

		if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
			return fmt.Errorf("running mail client: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mailCmd)
}
