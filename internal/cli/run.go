package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ehowardtillit/recurring-kanban-cards/internal/catalog"
	"github.com/ehowardtillit/recurring-kanban-cards/internal/client"
	"github.com/ehowardtillit/recurring-kanban-cards/internal/config"
	"github.com/ehowardtillit/recurring-kanban-cards/internal/logger"
	"github.com/ehowardtillit/recurring-kanban-cards/internal/metrics"
	"github.com/ehowardtillit/recurring-kanban-cards/internal/service"
	"github.com/ehowardtillit/recurring-kanban-cards/internal/week"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// runOptions are the per-invocation choices not carried by config.Config
type runOptions struct {
	DryRun bool
	Week   int
	Next   bool
	XLSX   string
}

func runCreate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Flags override the environment
	if cmd.Flags().Changed("position") {
		cfg.ListPosition = flagPosition
	}
	if cmd.Flags().Changed("week-start") {
		cfg.WeekStartDay = flagWeekStart
	}
	if cmd.Flags().Changed("cards") {
		cfg.CardsPath = flagCards
	}
	if cmd.Flags().Changed("week") {
		if err := week.ValidateNumber(flagWeek); err != nil {
			return err
		}
	}

	return runWeekly(cmd.Context(), cfg, runOptions{
		DryRun: flagDryRun,
		Week:   flagWeek,
		Next:   flagNext,
		XLSX:   flagXLSX,
	}, cmd.OutOrStdout())
}

// runWeekly loads the catalog and runs the weekly creation once
func runWeekly(ctx context.Context, cfg *config.Config, opts runOptions, stdout io.Writer) error {
	log, closer, err := logger.New(logger.Options{
		Level:  cfg.LogLevel,
		JSON:   cfg.LogJSON,
		Dir:    cfg.LogDir,
		Stdout: stdout,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer closer.Close()
	ctx = logger.WithContext(ctx, log)

	log.Info().Str("version", appVersion).Msg("Starting Trello weekly list creator")
	if opts.DryRun {
		log.Info().Msg("Running in DRY-RUN mode - no changes will be made")
	}

	cards, err := catalog.Load(cfg.CardsPath)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load card templates")
		return err
	}
	log.Info().Int("cards", len(cards)).Str("path", cfg.CardsPath).Msg("Loaded card templates")

	m := metrics.New()
	runID := uuid.New().String()
	svc, err := service.NewWeeklyListService(newGateway(cfg, m), service.Options{
		WeekStart: cfg.WeekStartDay,
		Position:  cfg.ListPosition,
		Week:      opts.Week,
		Next:      opts.Next,
		DryRun:    opts.DryRun,
		Metrics:   m,
		RunID:     runID,
	})
	if err != nil {
		return err
	}

	if opts.XLSX != "" {
		if err := writePlan(svc.Plan(cards), opts.XLSX); err != nil {
			return err
		}
		log.Info().Str("path", opts.XLSX).Msg("Plan spreadsheet written")
	}

	result, err := svc.Run(ctx, cards)
	service.NewWebhookService(cfg.NotifyWebhookURL).Notify(ctx, runID, result, err)
	if err != nil {
		return err
	}

	log.Info().
		Str("outcome", result.Outcome).
		Str("list_name", result.ListName).
		Int("cards_created", result.CardsCreated).
		Msg("Weekly list creation completed successfully")
	return nil
}

func newGateway(cfg *config.Config, m *metrics.Metrics) *client.Client {
	return client.NewClient(client.Options{
		BaseURL:        cfg.TrelloBaseURL,
		APIKey:         cfg.TrelloAPIKey,
		APIToken:       cfg.TrelloAPIToken,
		BoardID:        cfg.TrelloBoardID,
		RequestsPer10s: cfg.RequestsPer10s,
		Metrics:        m,
	})
}

func writePlan(plan *service.RunResult, path string) error {
	buf, err := service.NewExcelGenerator().Generate(plan)
	if err != nil {
		return fmt.Errorf("generate plan spreadsheet: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write plan spreadsheet: %w", err)
	}
	return nil
}
