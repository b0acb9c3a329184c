package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ehowardtillit/recurring-kanban-cards/internal/cache"
)

func TestCachedLoader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.yaml")
	write := func(body string, mtime time.Time) {
		t.Helper()
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := os.Chtimes(path, mtime, mtime); err != nil {
			t.Fatal(err)
		}
	}

	c := cache.New[[]CardTemplate](time.Hour, 0)
	defer c.Stop()
	load := CachedLoader(path, c)

	first := time.Date(2025, 1, 20, 9, 0, 0, 0, time.UTC)
	write("cards:\n  - title: A\n    day_of_week: monday\n    hour: 9\n", first)

	for i := 0; i < 3; i++ {
		cards, err := load()
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if len(cards) != 1 || cards[0].Title() != "A" {
			t.Fatalf("cards = %+v", cards)
		}
	}
	if stats := c.Stats(); stats.HitCount != 2 || stats.MissCount != 1 {
		t.Errorf("stats = %+v", stats)
	}

	write("cards:\n  - title: B\n    day_of_week: friday\n    hour: 16\n", first.Add(time.Minute))
	cards, err := load()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if cards[0].Title() != "B" {
		t.Errorf("stale catalog served: %q", cards[0].Title())
	}
	if c.Size() != 1 {
		t.Errorf("old entry kept, size = %d", c.Size())
	}
}

func TestCachedLoaderMissingFile(t *testing.T) {
	c := cache.New[[]CardTemplate](time.Hour, 0)
	defer c.Stop()

	_, err := CachedLoader(filepath.Join(t.TempDir(), "missing.yaml"), c)()
	if !errors.Is(err, ErrCatalogNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestCachedLoaderInvalidCatalogIsNotCached(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.yaml")
	if err := os.WriteFile(path, []byte("cards:\n  - title: A\n    day_of_week: someday\n    hour: 9\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := cache.New[[]CardTemplate](time.Hour, 0)
	defer c.Stop()

	if _, err := CachedLoader(path, c)(); err == nil {
		t.Fatal("expected validation error")
	}
	if c.Size() != 0 {
		t.Errorf("invalid catalog cached")
	}
}
