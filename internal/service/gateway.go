package service

import (
	"context"

	"github.com/ehowardtillit/recurring-kanban-cards/internal/model"
)

// BoardGateway is the board the orchestrator provisions. Every failed call
// returns an error matching model.ErrRemoteOperationFailed.
type BoardGateway interface {
	ListLists(ctx context.Context) ([]model.BoardList, error)
	ListExists(ctx context.Context, name string) (bool, error)
	CreateList(ctx context.Context, name, position string) (string, error)
	ListLabels(ctx context.Context) (map[string]string, error)
	CreateCard(ctx context.Context, req model.CardRequest) (string, error)
	CreateChecklist(ctx context.Context, cardID, name string) (string, error)
	AddChecklistItem(ctx context.Context, checklistID, text string) (string, error)
}

// ProgressReporter receives the progress events of a run
type ProgressReporter interface {
	Publish(event model.ProgressEvent)
}

// NopReporter discards progress events
type NopReporter struct{}

func (NopReporter) Publish(model.ProgressEvent) {}
