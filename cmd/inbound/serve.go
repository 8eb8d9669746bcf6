package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nhle/inboundkit/internal/ai"
	"github.com/nhle/inboundkit/internal/dedupe"
	"github.com/nhle/inboundkit/internal/dump"
	"github.com/nhle/inboundkit/internal/inbound"
	"github.com/nhle/inboundkit/internal/model"
	"github.com/nhle/inboundkit/internal/render"
	"github.com/nhle/inboundkit/internal/tmpl"
	"github.com/nhle/inboundkit/internal/webhook"
)

var serveCmd = &cobra.Command{
	Use:       "serve <cleanup|pdf|analyze>",
	Short:     "Run a webhook server for one processing variant",
	Long:      "Runs the inbound webhook for the chosen variant together with the domain setup proxy.",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"cleanup", "pdf", "analyze"},
	RunE: func(cmd *cobra.Command, args []string) error {
		variant := args[0]
		reqs := []model.Requirement{model.RequireInbound}
		switch variant {
		case "pdf":
			reqs = append(reqs, model.RequireRender)
		case "analyze":
			reqs = append(reqs, model.RequireAI)
		}

		cfg, err := loadConfig(reqs...)
		if err != nil {
			return err
		}
		logger := stderrLogger().With("variant", variant)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		client, err := inbound.NewClient(cfg.Inbound, inbound.WithLogger(logger))
		if err != nil {
			return err
		}

		v, jobs, cleanup, err := buildVariant(ctx, variant, cfg, client, logger)
		if err != nil {
			return err
		}
		defer cleanup()

		router := webhook.NewRouter(webhook.RouterOptions{
			Variant:        v,
			Domains:        client,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			MaxBodyBytes:   cfg.Server.MaxBodyBytes,
			Logger:         logger,
		})
		return webhook.NewServer(cfg.Server, router, jobs, logger).Run(ctx)
	},
}

// buildVariant wires the named variant. The returned cleanup releases
// connections the variant opened.
func buildVariant(
	ctx context.Context,
	name string,
	cfg *model.AppConfig,
	client *inbound.Client,
	logger *slog.Logger,
) (webhook.Variant, *webhook.Detached, func(), error) {
	noop := func() {}
	engine := tmpl.New()

	switch name {
	case "cleanup":
		sink, err := dump.New(ctx, cfg.Dump)
		if err != nil {
			return nil, nil, noop, err
		}
		return webhook.NewCleanup(sink, cfg.Server.QuoteMarkerClass, logger), nil, noop, nil

	case "pdf":
		renderer, err := render.NewBrowserless(cfg.Render, nil)
		if err != nil {
			return nil, nil, noop, err
		}
		return webhook.NewPDF(renderer, client, engine, cfg.Mail.FromAddress, cfg.Mail.FromName, logger), nil, noop, nil

	case "analyze":
		analyzer, err := ai.NewClaude(cfg.AI, nil)
		if err != nil {
			return nil, nil, noop, err
		}
		jobs := webhook.NewDetached(cfg.Server.AnalysisTimeout(), logger)
		opts := webhook.AnalyzeOptions{
			Analyzer: analyzer,
			Replier:  client,
			Engine:   engine,
			Jobs:     jobs,
			From:     cfg.Mail.FromAddress,
			FromName: cfg.Mail.FromName,
			Logger:   logger,
		}

		cleanup := noop
		if cfg.Redis.URL != "" {
			guard, err := dedupe.Connect(ctx, cfg.Redis.URL, cfg.Redis.ClaimTTL())
			if err != nil {
				return nil, nil, noop, err
			}
			opts.Guard = guard
			cleanup = func() {
				if err := guard.Close(); err != nil {
					logger.Warn("closing redis", "error", err)
				}
			}
		}
		return webhook.NewAnalyze(opts), jobs, cleanup, nil

	default:
		return nil, nil, noop, fmt.Errorf("unknown variant %q", name)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
