package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/ehowardtillit/recurring-kanban-cards/internal/catalog"
	"github.com/ehowardtillit/recurring-kanban-cards/internal/logger"
	"github.com/ehowardtillit/recurring-kanban-cards/internal/metrics"
	"github.com/ehowardtillit/recurring-kanban-cards/internal/model"
	"github.com/ehowardtillit/recurring-kanban-cards/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const xlsxMime = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// runTimeout limita uma execução iniciada pela API
const runTimeout = 5 * time.Minute

// CatalogLoader returns the card templates of the next run
type CatalogLoader func() ([]catalog.CardTemplate, error)

// RunHandlerConfig holds the collaborators of RunHandler
type RunHandlerConfig struct {
	Gateway   service.BoardGateway
	LoadCards CatalogLoader
	WeekStart string
	Position  string
	Metrics   *metrics.Metrics
	Progress  service.ProgressReporter
	Webhook   *service.WebhookService
	Excel     *service.ExcelGenerator
	Now       func() time.Time
}

// RunHandler manipula execuções e prévias da lista semanal
type RunHandler struct {
	cfg RunHandlerConfig

	// Runs against the board are serialized inside the process
	mu sync.Mutex
}

// NewRunHandler cria um novo handler de execuções
func NewRunHandler(cfg RunHandlerConfig) *RunHandler {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.New()
	}
	if cfg.Excel == nil {
		cfg.Excel = service.NewExcelGenerator()
	}
	return &RunHandler{cfg: cfg}
}

// CreateRun cria a lista da semana no board
// @Summary      Executa a criação semanal
// @Description  Cria a lista da semana e seus cards. Uma lista já existente encerra a execução como skipped.
// @Tags         runs
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body model.RunRequest false "Semana, posição e modo prévia"
// @Success      201 {object} model.Response "Lista criada"
// @Success      200 {object} model.Response "Lista já existente ou prévia"
// @Failure      400 {object} model.ErrorResponse
// @Failure      409 {object} model.ErrorResponse
// @Failure      502 {object} model.ErrorResponse
// @Router       /api/v1/runs [post]
func (h *RunHandler) CreateRun(c *gin.Context) {
	var req model.RunRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Error:   "payload inválido",
			Details: err.Error(),
		})
		return
	}

	if !h.mu.TryLock() {
		c.JSON(http.StatusConflict, model.ErrorResponse{
			Success: false,
			Error:   "execução em andamento",
			Details: "aguarde a execução atual terminar",
		})
		return
	}
	defer h.mu.Unlock()

	runID := uuid.New().String()

	// The run outlives a dropped client connection
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), runTimeout)
	defer cancel()
	ctx = logger.WithRunID(ctx, runID)

	cards, err := h.cfg.LoadCards()
	if err != nil {
		h.cfg.Webhook.Notify(ctx, runID, nil, err)
		h.handleError(c, err, nil)
		return
	}

	svc, err := service.NewWeeklyListService(h.cfg.Gateway, h.options(req.Week, req.Next, req.Position, req.DryRun, runID))
	if err != nil {
		h.handleError(c, err, nil)
		return
	}

	result, err := svc.Run(ctx, cards)
	h.cfg.Webhook.Notify(ctx, runID, result, err)
	if err != nil {
		h.handleError(c, err, gin.H{"run_id": runID, "result": result})
		return
	}

	status := http.StatusOK
	if result.Outcome == service.OutcomeCreated {
		status = http.StatusCreated
	}
	c.JSON(status, model.Response{
		Success: true,
		Data:    gin.H{"run_id": runID, "result": result},
	})
}

// Preview retorna o plano da semana sem chamar o board
// @Summary      Prévia da lista semanal
// @Description  Calcula nome da lista e vencimentos; format=xlsx retorna uma planilha
// @Tags         runs
// @Produce      json
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        week query int false "Semana explícita (1-53)"
// @Param        next query bool false "Próxima semana"
// @Param        position query string false "top ou bottom"
// @Param        format query string false "json ou xlsx"
// @Success      200 {object} model.Response
// @Failure      400 {object} model.ErrorResponse
// @Router       /api/v1/preview [get]
func (h *RunHandler) Preview(c *gin.Context) {
	var q model.PreviewQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Error:   "parâmetros inválidos",
			Details: err.Error(),
		})
		return
	}

	cards, err := h.cfg.LoadCards()
	if err != nil {
		h.handleError(c, err, nil)
		return
	}

	svc, err := service.NewWeeklyListService(h.cfg.Gateway, h.options(q.Week, q.Next, q.Position, true, ""))
	if err != nil {
		h.handleError(c, err, nil)
		return
	}
	plan := svc.Plan(cards)

	if q.Format != "xlsx" {
		c.JSON(http.StatusOK, model.Response{Success: true, Data: plan})
		return
	}

	buf, err := h.cfg.Excel.Generate(plan)
	if err != nil {
		h.handleError(c, err, nil)
		return
	}

	filename := fmt.Sprintf("%s.xlsx", plan.ListName)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("X-Total-Cards", fmt.Sprintf("%d", len(plan.Planned)))
	c.Data(http.StatusOK, xlsxMime, buf.Bytes())
}

func (h *RunHandler) options(weekNumber *int, next bool, position string, dryRun bool, runID string) service.Options {
	opts := service.Options{
		WeekStart: h.cfg.WeekStart,
		Position:  h.cfg.Position,
		Next:      next,
		DryRun:    dryRun,
		Now:       h.cfg.Now,
		Metrics:   h.cfg.Metrics,
		Progress:  h.cfg.Progress,
		RunID:     runID,
	}
	if weekNumber != nil {
		opts.Week = *weekNumber
	}
	if position != "" {
		opts.Position = position
	}
	return opts
}

// handleError trata erros e retorna resposta apropriada
func (h *RunHandler) handleError(c *gin.Context, err error, data interface{}) {
	logger.Get(c.Request.Context()).Error().Err(err).Msg("Run request failed")

	resp := model.ErrorResponse{Success: false, Details: err.Error(), Data: data}
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, model.ErrRateLimited):
		status, resp.Error = http.StatusTooManyRequests, "rate limit do Trello excedido"
	case errors.Is(err, model.ErrUnauthorized):
		status, resp.Error = http.StatusBadGateway, "credenciais do Trello inválidas"
	case errors.Is(err, model.ErrNotFound):
		status, resp.Error = http.StatusBadGateway, "board não encontrado"
	case errors.Is(err, model.ErrTimeout):
		status, resp.Error = http.StatusGatewayTimeout, "timeout na requisição ao Trello"
	case errors.Is(err, model.ErrRemoteOperationFailed):
		status, resp.Error = http.StatusBadGateway, "falha ao chamar o Trello"
	case errors.Is(err, model.ErrInvalidConfiguration):
		status, resp.Error = http.StatusBadRequest, "configuração inválida"
	case errors.Is(err, model.ErrInvalidTemplate), errors.Is(err, catalog.ErrCatalogNotFound):
		resp.Error = "catálogo de cards inválido"
	default:
		resp.Error = "erro interno"
	}

	c.JSON(status, resp)
}
