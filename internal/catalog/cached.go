package catalog

import (
	"errors"
	"fmt"
	"os"

	"github.com/ehowardtillit/recurring-kanban-cards/internal/cache"
)

// CachedLoader serves the catalog at path from c while the file is unchanged.
// Entries are keyed by path, size and modification time, so an edited file is
// parsed again on the next call.
func CachedLoader(path string, c *cache.Cache[[]CardTemplate]) func() ([]CardTemplate, error) {
	return func() ([]CardTemplate, error) {
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrCatalogNotFound, path)
			}
			return nil, fmt.Errorf("stat catalog: %w", err)
		}

		key := fmt.Sprintf("%s@%d:%d", path, info.Size(), info.ModTime().UnixNano())
		if cards, ok := c.Get(key); ok {
			return cards, nil
		}

		cards, err := Load(path)
		if err != nil {
			return nil, err
		}
		c.InvalidatePrefix(path + "@")
		c.Set(key, cards)
		return cards, nil
	}
}
