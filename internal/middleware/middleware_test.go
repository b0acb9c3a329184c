package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ehowardtillit/recurring-kanban-cards/internal/logger"
	"github.com/ehowardtillit/recurring-kanban-cards/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newAuthRouter(cfg AuthConfig) *gin.Engine {
	r := gin.New()
	r.Use(BearerAuth(cfg))
	r.GET("/protected", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func serve(r http.Handler, method, target, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestBearerAuthPlainToken(t *testing.T) {
	r := newAuthRouter(AuthConfig{TokenAPI: "secret"})

	tests := []struct {
		name   string
		target string
		auth   string
		want   int
	}{
		{"valid", "/protected", "Bearer secret", http.StatusOK},
		{"lowercase scheme", "/protected", "bearer secret", http.StatusOK},
		{"wrong token", "/protected", "Bearer nope", http.StatusUnauthorized},
		{"missing header", "/protected", "", http.StatusUnauthorized},
		{"basic scheme", "/protected", "Basic secret", http.StatusUnauthorized},
		{"query token", "/protected?token=secret", "", http.StatusOK},
		{"wrong query token", "/protected?token=nope", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := serve(r, http.MethodGet, tt.target, tt.auth); w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestBearerAuthHashedToken(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	// The hash wins over a plain token
	r := newAuthRouter(AuthConfig{TokenAPI: "other", TokenHash: string(hash)})

	if w := serve(r, http.MethodGet, "/protected", "Bearer secret"); w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
	if w := serve(r, http.MethodGet, "/protected", "Bearer other"); w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d", w.Code)
	}
}

func TestBearerAuthNotConfigured(t *testing.T) {
	r := newAuthRouter(AuthConfig{})
	if w := serve(r, http.MethodGet, "/protected", "Bearer anything"); w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d", w.Code)
	}
}

func TestHashToken(t *testing.T) {
	hash, err := HashToken("secret")
	if err != nil {
		t.Fatal(err)
	}
	if !(AuthConfig{TokenHash: hash}).valid("secret") {
		t.Error("hash should validate its token")
	}
}

func TestRequestIDPropagation(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(zerolog.Nop()))

	var seen string
	r.GET("/x", func(c *gin.Context) {
		seen = logger.GetRequestID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(HeaderRequestID, "abc123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if seen != "abc123" {
		t.Errorf("request id in context = %q", seen)
	}
	if w.Header().Get(HeaderRequestID) != "abc123" {
		t.Errorf("response header = %q", w.Header().Get(HeaderRequestID))
	}
	if w.Header().Get(HeaderTraceID) == "" {
		t.Error("trace id should be generated")
	}

	w = serve(r, http.MethodGet, "/x", "")
	if len(w.Header().Get(HeaderRequestID)) != 8 {
		t.Errorf("generated request id = %q", w.Header().Get(HeaderRequestID))
	}
}

func TestMetricsMiddleware(t *testing.T) {
	m := metrics.New()
	r := gin.New()
	r.Use(Metrics(m))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/fail", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	serve(r, http.MethodGet, "/ok", "")
	serve(r, http.MethodGet, "/ok", "")
	serve(r, http.MethodGet, "/fail", "")

	if m.TotalRequests != 3 || m.SuccessfulRequests != 2 || m.FailedRequests != 1 {
		t.Errorf("requests = %d/%d/%d", m.TotalRequests, m.SuccessfulRequests, m.FailedRequests)
	}
	endpoints := m.GetEndpointMetrics()
	if len(endpoints) != 2 {
		t.Errorf("endpoints = %v", endpoints)
	}
}
