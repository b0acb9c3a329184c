package model

// RunRequest is the payload accepted by POST /api/v1/runs
type RunRequest struct {
	Week     *int   `json:"week,omitempty" binding:"omitempty,min=1,max=53"`
	Next     bool   `json:"next,omitempty"`
	Position string `json:"position,omitempty" binding:"omitempty,oneof=top bottom"`
	DryRun   bool   `json:"dry_run,omitempty"`
}

// PreviewQuery are the query parameters of GET /api/v1/preview
type PreviewQuery struct {
	Week     *int   `form:"week" binding:"omitempty,min=1,max=53"`
	Next     bool   `form:"next"`
	Position string `form:"position" binding:"omitempty,oneof=top bottom"`
	Format   string `form:"format" binding:"omitempty,oneof=json xlsx"`
}

// Response representa a resposta padrão da API
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Errors  []string    `json:"errors,omitempty"`
}

// ErrorResponse representa uma resposta de erro
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   string      `json:"error"`
	Details string      `json:"details,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// WebhookPayload is posted to NOTIFY_WEBHOOK_URL after every run
type WebhookPayload struct {
	Success      bool   `json:"success"`
	Outcome      string `json:"outcome,omitempty"`
	RunID        string `json:"run_id,omitempty"`
	ListName     string `json:"list_name,omitempty"`
	Week         int    `json:"week,omitempty"`
	CardsCreated int    `json:"cards_created"`
	Error        string `json:"error,omitempty"`
}
