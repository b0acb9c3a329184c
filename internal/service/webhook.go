package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ehowardtillit/recurring-kanban-cards/internal/logger"
	"github.com/ehowardtillit/recurring-kanban-cards/internal/model"
)

// webhookTimeout limita o envio da notificação
const webhookTimeout = 10 * time.Second

// WebhookService envia o resultado de cada execução para um webhook
type WebhookService struct {
	url        string
	httpClient *http.Client
}

// NewWebhookService cria um novo serviço de webhook. An empty url disables
// notifications.
func NewWebhookService(url string) *WebhookService {
	return &WebhookService{
		url:        url,
		httpClient: &http.Client{Timeout: webhookTimeout},
	}
}

// Enabled reports whether a webhook URL is configured
func (w *WebhookService) Enabled() bool {
	return w != nil && w.url != ""
}

// Notify posts the outcome of a run. Failures are logged and never returned:
// a notification must not change the result of the run.
func (w *WebhookService) Notify(ctx context.Context, runID string, result *RunResult, runErr error) {
	if !w.Enabled() {
		return
	}

	payload := model.WebhookPayload{
		Success: runErr == nil,
		RunID:   runID,
	}
	if result != nil {
		payload.Outcome = result.Outcome
		payload.ListName = result.ListName
		payload.Week = result.Week
		payload.CardsCreated = result.CardsCreated
	}
	if runErr != nil {
		payload.Outcome = OutcomeFailed
		payload.Error = runErr.Error()
	}

	if err := w.send(ctx, payload); err != nil {
		logger.Get(ctx).Warn().
			Err(err).
			Str("url", w.url).
			Msg("Falha ao enviar webhook")
	}
}

// send envia o payload para o webhook
func (w *WebhookService) send(ctx context.Context, payload model.WebhookPayload) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("criar request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("enviar webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("webhook retornou status %d: %s", resp.StatusCode, string(respBody))
	}

	logger.Get(ctx).Info().
		Str("url", w.url).
		Int("status", resp.StatusCode).
		Msg("Webhook enviado com sucesso")

	return nil
}
