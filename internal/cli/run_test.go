package cli

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ehowardtillit/recurring-kanban-cards/internal/catalog"
	"github.com/ehowardtillit/recurring-kanban-cards/internal/config"
	"github.com/ehowardtillit/recurring-kanban-cards/internal/model"
)

const sampleCards = `cards:
  - title: Weekly review
    day_of_week: friday
    hour: 16
    labels: [Work]
  - title: Groceries
    day_of_week: saturday
    hour: 10
    minute: 30
`

func testConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cardsPath := filepath.Join(dir, "cards.yaml")
	if err := os.WriteFile(cardsPath, []byte(sampleCards), 0o644); err != nil {
		t.Fatal(err)
	}
	return &config.Config{
		TrelloAPIKey:   "key",
		TrelloAPIToken: "token",
		TrelloBoardID:  "board",
		TrelloBaseURL:  baseURL,
		RequestsPer10s: 90,
		CardsPath:      cardsPath,
		WeekStartDay:   "monday",
		ListPosition:   "top",
		LogDir:         filepath.Join(dir, "logs"),
		LogLevel:       "info",
	}
}

func TestRunWeeklyDryRun(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("dry run called the board: %s %s", r.Method, r.URL.Path)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	xlsxPath := filepath.Join(t.TempDir(), "plan.xlsx")

	var out bytes.Buffer
	err := runWeekly(context.Background(), cfg, runOptions{DryRun: true, Week: 7, XLSX: xlsxPath}, &out)
	if err != nil {
		t.Fatalf("runWeekly: %v", err)
	}

	logs := out.String()
	for _, want := range []string{
		"[DRY-RUN] Would create list: Todo w07 at position: top",
		"[DRY-RUN] Would create card: Weekly review",
		"[DRY-RUN] Would create 2 cards total",
	} {
		if !strings.Contains(logs, want) {
			t.Errorf("output missing %q", want)
		}
	}

	if info, err := os.Stat(xlsxPath); err != nil || info.Size() == 0 {
		t.Errorf("plan spreadsheet not written: %v", err)
	}

	entries, err := os.ReadDir(cfg.LogDir)
	if err != nil || len(entries) != 1 || !strings.HasPrefix(entries[0].Name(), "trello_automation_") {
		t.Errorf("daily log file missing: %v %v", entries, err)
	}
}

func TestRunWeeklyMissingCatalog(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:0")
	cfg.CardsPath = filepath.Join(t.TempDir(), "missing.yaml")

	err := runWeekly(context.Background(), cfg, runOptions{DryRun: true}, &bytes.Buffer{})
	if !errors.Is(err, catalog.ErrCatalogNotFound) {
		t.Errorf("error = %v", err)
	}
}

func TestRunWeeklyInvalidWeekStart(t *testing.T) {
	cfg := testConfig(t, "http://127.0.0.1:0")
	cfg.WeekStartDay = "friday"

	err := runWeekly(context.Background(), cfg, runOptions{DryRun: true}, &bytes.Buffer{})
	if !errors.Is(err, model.ErrInvalidConfiguration) {
		t.Errorf("error = %v", err)
	}
}

func TestRunWeeklyRemoteFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := runWeekly(context.Background(), testConfig(t, srv.URL), runOptions{}, &bytes.Buffer{})
	if !errors.Is(err, model.ErrRemoteOperationFailed) || !errors.Is(err, model.ErrUnauthorized) {
		t.Errorf("error = %v", err)
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)

	if !strings.HasPrefix(out.String(), "weekly-board ") {
		t.Errorf("output = %q", out.String())
	}
}
