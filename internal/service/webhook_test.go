package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ehowardtillit/recurring-kanban-cards/internal/model"
)

func TestWebhookNotifySuccess(t *testing.T) {
	received := make(chan model.WebhookPayload, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("content type = %q", r.Header.Get("Content-Type"))
		}
		var p model.WebhookPayload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Errorf("decode: %v", err)
		}
		received <- p
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	w := NewWebhookService(srv.URL)
	w.Notify(context.Background(), "run-1", &RunResult{
		Outcome:      OutcomeCreated,
		ListName:     "Todo w04",
		Week:         4,
		CardsCreated: 3,
	}, nil)

	p := <-received
	want := model.WebhookPayload{Success: true, Outcome: "created", RunID: "run-1", ListName: "Todo w04", Week: 4, CardsCreated: 3}
	if p != want {
		t.Errorf("payload = %+v, want %+v", p, want)
	}
}

func TestWebhookNotifyFailure(t *testing.T) {
	received := make(chan model.WebhookPayload, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p model.WebhookPayload
		_ = json.NewDecoder(r.Body).Decode(&p)
		received <- p
	}))
	defer srv.Close()

	NewWebhookService(srv.URL).Notify(context.Background(), "", &RunResult{
		Outcome:      OutcomeFailed,
		ListName:     "Todo w04",
		CardsCreated: 1,
	}, errors.New("create_card failed"))

	p := <-received
	if p.Success || p.Outcome != OutcomeFailed || p.Error != "create_card failed" || p.CardsCreated != 1 {
		t.Errorf("unexpected payload: %+v", p)
	}
}

func TestWebhookErrorsAreSwallowed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	// Must not panic or block
	NewWebhookService(srv.URL).Notify(context.Background(), "run", nil, nil)
}

func TestWebhookDisabled(t *testing.T) {
	if NewWebhookService("").Enabled() {
		t.Error("empty url must disable the webhook")
	}
	var w *WebhookService
	if w.Enabled() {
		t.Error("nil service must be disabled")
	}
	w.Notify(context.Background(), "run", nil, nil)
}
