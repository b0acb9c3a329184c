package service

import (
	"context"

	"github.com/ehowardtillit/recurring-kanban-cards/internal/logger"
)

// ResolveLabels maps label names to board label IDs, keeping the input
// order. Names missing from the board are dropped with a warning. The result
// is never nil.
func ResolveLabels(ctx context.Context, names []string, boardLabels map[string]string) []string {
	ids := make([]string, 0, len(names))
	for _, name := range names {
		id, ok := boardLabels[name]
		if !ok {
			logger.Get(ctx).Warn().
				Str("label", name).
				Msg("Label not found on board, skipping")
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
