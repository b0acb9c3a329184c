package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ehowardtillit/recurring-kanban-cards/internal/catalog"
	"github.com/ehowardtillit/recurring-kanban-cards/internal/metrics"
	"github.com/ehowardtillit/recurring-kanban-cards/internal/middleware"
	"github.com/ehowardtillit/recurring-kanban-cards/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testToken = "secret"

// memoryBoard is an in-memory board gateway
type memoryBoard struct {
	lists   map[string]string
	cards   []model.CardRequest
	failErr error
	nextID  int
}

func newMemoryBoard() *memoryBoard {
	return &memoryBoard{lists: map[string]string{}}
}

func (b *memoryBoard) id() string {
	b.nextID++
	return fmt.Sprintf("id%d", b.nextID)
}

func (b *memoryBoard) ListLists(ctx context.Context) ([]model.BoardList, error) {
	out := []model.BoardList{}
	for name, id := range b.lists {
		out = append(out, model.BoardList{ID: id, Name: name})
	}
	return out, nil
}

func (b *memoryBoard) ListExists(ctx context.Context, name string) (bool, error) {
	_, ok := b.lists[name]
	return ok, nil
}

func (b *memoryBoard) CreateList(ctx context.Context, name, position string) (string, error) {
	id := b.id()
	b.lists[name] = id
	return id, nil
}

func (b *memoryBoard) ListLabels(ctx context.Context) (map[string]string, error) {
	return map[string]string{"Work": "label1"}, nil
}

func (b *memoryBoard) CreateCard(ctx context.Context, req model.CardRequest) (string, error) {
	if b.failErr != nil {
		return "", b.failErr
	}
	b.cards = append(b.cards, req)
	return b.id(), nil
}

func (b *memoryBoard) CreateChecklist(ctx context.Context, cardID, name string) (string, error) {
	return b.id(), nil
}

func (b *memoryBoard) AddChecklistItem(ctx context.Context, checklistID, text string) (string, error) {
	return b.id(), nil
}

func testCatalog() ([]catalog.CardTemplate, error) {
	card, err := catalog.NewCardTemplate(catalog.CardSpec{
		Title:     "Review",
		DayOfWeek: "monday",
		Hour:      9,
		Labels:    []string{"Work"},
	})
	if err != nil {
		return nil, err
	}
	return []catalog.CardTemplate{card}, nil
}

func newTestRouter(board *memoryBoard, loader CatalogLoader) (*gin.Engine, *metrics.Metrics) {
	m := metrics.New()
	if loader == nil {
		loader = testCatalog
	}
	runs := NewRunHandler(RunHandlerConfig{
		Gateway:   board,
		LoadCards: loader,
		WeekStart: "monday",
		Position:  "top",
		Metrics:   m,
		Now:       func() time.Time { return time.Date(2025, time.January, 22, 10, 0, 0, 0, time.UTC) },
	})
	r := NewRouter(RouterConfig{
		Logger:  zerolog.Nop(),
		Metrics: m,
		Auth:    middleware.AuthConfig{TokenAPI: testToken},
		Health:  NewHealthHandler(m, nil, "test"),
		Runs:    runs,
	})
	return r, m
}

func do(r http.Handler, method, target string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+testToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type runEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Data    struct {
		RunID  string `json:"run_id"`
		Result struct {
			Outcome      string `json:"outcome"`
			ListName     string `json:"list_name"`
			CardsCreated int    `json:"cards_created"`
		} `json:"result"`
	} `json:"data"`
}

func decodeRun(t *testing.T, w *httptest.ResponseRecorder) runEnvelope {
	t.Helper()
	var env runEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return env
}

func TestHealthIsPublic(t *testing.T) {
	r, _ := newTestRouter(newMemoryBoard(), nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var hc metrics.HealthCheck
	if err := json.Unmarshal(w.Body.Bytes(), &hc); err != nil {
		t.Fatal(err)
	}
	if hc.Version != "test" || hc.Components["last_run"].Status != "healthy" {
		t.Errorf("health = %+v", hc)
	}
}

func TestAPIRequiresToken(t *testing.T) {
	r, _ := newTestRouter(newMemoryBoard(), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d", w.Code)
	}
}

func TestCreateRunThenSkip(t *testing.T) {
	board := newMemoryBoard()
	r, m := newTestRouter(board, nil)

	w := do(r, http.MethodPost, "/api/v1/runs", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	env := decodeRun(t, w)
	if env.Data.RunID == "" || env.Data.Result.Outcome != "created" || env.Data.Result.ListName != "Todo w04" {
		t.Errorf("response = %+v", env)
	}
	if len(board.cards) != 1 || board.cards[0].LabelIDs[0] != "label1" {
		t.Errorf("cards = %+v", board.cards)
	}

	w = do(r, http.MethodPost, "/api/v1/runs", []byte(`{}`))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if env := decodeRun(t, w); env.Data.Result.Outcome != "skipped" {
		t.Errorf("outcome = %q", env.Data.Result.Outcome)
	}
	if len(board.cards) != 1 {
		t.Errorf("second run created cards")
	}

	snap := m.Snapshot()
	if snap.Runs.Created != 1 || snap.Runs.Skipped != 1 {
		t.Errorf("runs = %+v", snap.Runs)
	}
}

func TestCreateRunDryRun(t *testing.T) {
	board := newMemoryBoard()
	r, _ := newTestRouter(board, nil)

	w := do(r, http.MethodPost, "/api/v1/runs", []byte(`{"dry_run": true, "week": 10, "position": "bottom"}`))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	env := decodeRun(t, w)
	if env.Data.Result.Outcome != "preview" || env.Data.Result.ListName != "Todo w10" {
		t.Errorf("response = %+v", env)
	}
	if len(board.lists) != 0 || len(board.cards) != 0 {
		t.Error("dry run touched the board")
	}
}

func TestCreateRunInvalidPayload(t *testing.T) {
	r, _ := newTestRouter(newMemoryBoard(), nil)

	for _, body := range []string{`{"week": 60}`, `{"position": "middle"}`, `not json`} {
		if w := do(r, http.MethodPost, "/api/v1/runs", []byte(body)); w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d", body, w.Code)
		}
	}
}

func TestCreateRunRemoteFailure(t *testing.T) {
	board := newMemoryBoard()
	board.failErr = &model.RemoteError{Op: "create_card", Status: 500, Err: errors.New("boom")}
	r, m := newTestRouter(board, nil)

	w := do(r, http.MethodPost, "/api/v1/runs", nil)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", w.Code)
	}
	env := decodeRun(t, w)
	if env.Success || env.Data.Result.Outcome != "failed" || env.Data.RunID == "" {
		t.Errorf("response = %+v", env)
	}
	if m.Snapshot().Runs.Failed != 1 {
		t.Error("failed run not counted")
	}
}

func TestCreateRunInvalidCatalog(t *testing.T) {
	loader := func() ([]catalog.CardTemplate, error) {
		return nil, fmt.Errorf("card 1: %w", model.ErrInvalidTemplate)
	}
	board := newMemoryBoard()
	r, _ := newTestRouter(board, loader)

	w := do(r, http.MethodPost, "/api/v1/runs", nil)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", w.Code)
	}
	if len(board.lists) != 0 {
		t.Error("invalid catalog must not reach the board")
	}
}

func TestPreviewJSON(t *testing.T) {
	board := newMemoryBoard()
	r, _ := newTestRouter(board, nil)

	w := do(r, http.MethodGet, "/api/v1/preview?next=true", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}

	var env struct {
		Data struct {
			ListName string `json:"list_name"`
			Planned  []struct {
				Title string    `json:"title"`
				Due   time.Time `json:"due"`
			} `json:"planned"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if env.Data.ListName != "Todo w05" || len(env.Data.Planned) != 1 {
		t.Fatalf("preview = %+v", env.Data)
	}
	want := time.Date(2025, time.January, 27, 9, 0, 0, 0, time.UTC)
	if !env.Data.Planned[0].Due.Equal(want) {
		t.Errorf("due = %s, want %s", env.Data.Planned[0].Due, want)
	}
	if len(board.lists) != 0 {
		t.Error("preview touched the board")
	}
}

func TestPreviewXLSX(t *testing.T) {
	r, _ := newTestRouter(newMemoryBoard(), nil)

	w := do(r, http.MethodGet, "/api/v1/preview?format=xlsx", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != xlsxMime {
		t.Errorf("content type = %q", ct)
	}
	if w.Header().Get("X-Total-Cards") != "1" || w.Body.Len() == 0 {
		t.Errorf("unexpected xlsx response")
	}
}

func TestPreviewInvalidQuery(t *testing.T) {
	r, _ := newTestRouter(newMemoryBoard(), nil)
	if w := do(r, http.MethodGet, "/api/v1/preview?format=csv", nil); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r, _ := newTestRouter(newMemoryBoard(), nil)
	do(r, http.MethodPost, "/api/v1/runs", nil)

	w := do(r, http.MethodGet, "/metrics", nil)
	var snap metrics.MetricsSnapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatal(err)
	}
	if snap.Runs.Started != 1 || snap.Board.Cards != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
}
