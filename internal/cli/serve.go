package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ehowardtillit/recurring-kanban-cards/internal/cache"
	"github.com/ehowardtillit/recurring-kanban-cards/internal/catalog"
	"github.com/ehowardtillit/recurring-kanban-cards/internal/config"
	"github.com/ehowardtillit/recurring-kanban-cards/internal/handler"
	"github.com/ehowardtillit/recurring-kanban-cards/internal/logger"
	"github.com/ehowardtillit/recurring-kanban-cards/internal/metrics"
	"github.com/ehowardtillit/recurring-kanban-cards/internal/middleware"
	"github.com/ehowardtillit/recurring-kanban-cards/internal/service"
	"github.com/ehowardtillit/recurring-kanban-cards/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const (
	shutdownTimeout = 15 * time.Second

	// catalogCacheTTL bounds how long a parsed catalog stays in memory
	catalogCacheTTL = 10 * time.Minute
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve runs, previews and progress events over HTTP",
	Long: `serve exposes the weekly creation over HTTP:

  GET  /health            health of the process and of the last run
  GET  /metrics           counters of runs, board objects and API calls
  GET  /api/v1/preview    the week's plan, as JSON or ?format=xlsx
  POST /api/v1/runs       run the weekly creation
  GET  /ws                run progress events

The /api and /ws routes require TOKEN_API or TOKEN_API_HASH.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.ValidateServe(); err != nil {
		return err
	}

	log, closer, err := logger.New(logger.Options{
		Level: cfg.LogLevel,
		JSON:  cfg.LogJSON,
		Dir:   cfg.LogDir,
	})
	if err != nil {
		return err
	}
	defer closer.Close()

	log.Info().
		Str("version", appVersion).
		Str("port", cfg.Port).
		Str("log_level", cfg.LogLevel).
		Bool("log_json", cfg.LogJSON).
		Msg("Trello weekly list server starting")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	hub := websocket.NewHub(log, m)
	go hub.Run(ctx)

	cards := cache.New[[]catalog.CardTemplate](catalogCacheTTL, catalogCacheTTL)
	defer cards.Stop()

	runs := handler.NewRunHandler(handler.RunHandlerConfig{
		Gateway:   newGateway(cfg, m),
		LoadCards: catalog.CachedLoader(cfg.CardsPath, cards),
		WeekStart: cfg.WeekStartDay,
		Position:  cfg.ListPosition,
		Metrics:   m,
		Progress:  hub,
		Webhook:   service.NewWebhookService(cfg.NotifyWebhookURL),
	})

	gin.SetMode(cfg.GinMode)
	router := handler.NewRouter(handler.RouterConfig{
		Logger:  log,
		Metrics: m,
		Auth: middleware.AuthConfig{
			TokenAPI:  cfg.TokenAPI,
			TokenHash: cfg.TokenAPIHash,
		},
		Health:    handler.NewHealthHandler(m, hub, appVersion),
		Runs:      runs,
		WebSocket: handler.NewWebSocketHandler(hub),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Servidor iniciando")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Erro ao iniciar servidor")
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
