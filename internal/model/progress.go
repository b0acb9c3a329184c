package model

import "time"

// Progress event types broadcast while a run executes
const (
	EventRunStarted  = "run_started"
	EventListCreated = "list_created"
	EventCardCreated = "card_created"
	EventRunFinished = "run_finished"
	EventRunFailed   = "run_failed"
)

// ProgressEvent descreve um passo de uma execução
type ProgressEvent struct {
	Type         string    `json:"type"`
	RunID        string    `json:"run_id,omitempty"`
	ListName     string    `json:"list_name,omitempty"`
	Week         int       `json:"week,omitempty"`
	Outcome      string    `json:"outcome,omitempty"`
	Card         string    `json:"card,omitempty"`
	CardsCreated int       `json:"cards_created"`
	TotalCards   int       `json:"total_cards"`
	Error        string    `json:"error,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}
