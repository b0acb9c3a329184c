package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ehowardtillit/recurring-kanban-cards/internal/logger"
	"github.com/ehowardtillit/recurring-kanban-cards/internal/metrics"
	"github.com/ehowardtillit/recurring-kanban-cards/internal/model"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the Trello REST API root
	DefaultBaseURL = "https://api.trello.com/1"

	// DefaultRequestsPer10s fica abaixo do limite do Trello (100 req / 10s por token)
	DefaultRequestsPer10s = 90

	// DefaultTimeout timeout padrão para requisições
	DefaultTimeout = 30 * time.Second

	// RetryMaxAttempts is one request plus three retries
	RetryMaxAttempts = 4

	// RetryBackoff is the first wait; it doubles on every retry
	RetryBackoff = 1 * time.Second

	// maxRetryAfter caps a server-provided Retry-After
	maxRetryAfter = 60 * time.Second

	// dueLayout is a naive local timestamp; no zone is sent
	dueLayout = "2006-01-02T15:04:05"
)

// Gateway operation names carried by model.RemoteError
const (
	OpListLists        = "list_lists"
	OpCreateList       = "create_list"
	OpListLabels       = "list_labels"
	OpCreateCard       = "create_card"
	OpCreateChecklist  = "create_checklist"
	OpAddChecklistItem = "add_checklist_item"
)

// retryableStatus are the responses worth another attempt
var retryableStatus = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// Options configura o cliente Trello
type Options struct {
	BaseURL        string
	APIKey         string
	APIToken       string
	BoardID        string
	RequestsPer10s int
	Timeout        time.Duration
	MaxAttempts    int
	Backoff        time.Duration
	HTTPClient     *http.Client
	Metrics        *metrics.Metrics
}

// Client é o cliente HTTP para a API do Trello, preso a um board
type Client struct {
	baseURL     string
	key         string
	token       string
	boardID     string
	httpClient  *http.Client
	limiter     *rate.Limiter
	maxAttempts int
	backoff     time.Duration
	metrics     *metrics.Metrics
}

// NewClient cria um novo cliente Trello
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.RequestsPer10s <= 0 {
		opts.RequestsPer10s = DefaultRequestsPer10s
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = RetryMaxAttempts
	}
	if opts.Backoff <= 0 {
		opts.Backoff = RetryBackoff
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     30 * time.Second,
			},
		}
	}

	return &Client{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		key:         opts.APIKey,
		token:       opts.APIToken,
		boardID:     opts.BoardID,
		httpClient:  httpClient,
		limiter:     rate.NewLimiter(rate.Every(10*time.Second/time.Duration(opts.RequestsPer10s)), 10),
		maxAttempts: opts.MaxAttempts,
		backoff:     opts.Backoff,
		metrics:     opts.Metrics,
	}
}

// ListLists busca todas as listas do board
func (c *Client) ListLists(ctx context.Context) ([]model.BoardList, error) {
	var lists []model.BoardList
	if err := c.call(ctx, OpListLists, http.MethodGet, "boards/"+c.boardID+"/lists", nil, &lists); err != nil {
		return nil, err
	}
	return lists, nil
}

// ListExists reports whether a list with exactly this name is on the board
func (c *Client) ListExists(ctx context.Context, name string) (bool, error) {
	lists, err := c.ListLists(ctx)
	if err != nil {
		return false, err
	}
	for _, l := range lists {
		if l.Name == name {
			return true, nil
		}
	}
	return false, nil
}

// CreateList cria uma lista no board na posição top ou bottom
func (c *Client) CreateList(ctx context.Context, name, position string) (string, error) {
	logger.Get(ctx).Info().Str("name", name).Str("position", position).Msg("Creating list")

	params := url.Values{}
	params.Set("name", name)
	params.Set("idBoard", c.boardID)
	params.Set("pos", position)

	var created model.Identified
	if err := c.call(ctx, OpCreateList, http.MethodPost, "lists", params, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

// ListLabels returns the board's labels as name -> id. Unnamed labels are
// left out; when two labels share a name the last one wins.
func (c *Client) ListLabels(ctx context.Context) (map[string]string, error) {
	logger.Get(ctx).Info().Msg("Fetching board labels")

	var labels []model.Label
	if err := c.call(ctx, OpListLabels, http.MethodGet, "boards/"+c.boardID+"/labels", nil, &labels); err != nil {
		return nil, err
	}

	byName := make(map[string]string, len(labels))
	for _, l := range labels {
		if l.Name == "" {
			continue
		}
		byName[l.Name] = l.ID
	}
	return byName, nil
}

// CreateCard cria um card no fim da lista
func (c *Client) CreateCard(ctx context.Context, req model.CardRequest) (string, error) {
	logger.Get(ctx).Info().Str("name", req.Title).Msg("Creating card")

	params := url.Values{}
	params.Set("idList", req.ListID)
	params.Set("name", req.Title)
	params.Set("due", req.Due.Format(dueLayout))
	params.Set("pos", "bottom")
	if len(req.LabelIDs) > 0 {
		params.Set("idLabels", strings.Join(req.LabelIDs, ","))
	}
	if req.Description != "" {
		params.Set("desc", req.Description)
	}

	var created model.Identified
	if err := c.call(ctx, OpCreateCard, http.MethodPost, "cards", params, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

// CreateChecklist cria uma checklist no card
func (c *Client) CreateChecklist(ctx context.Context, cardID, name string) (string, error) {
	params := url.Values{}
	params.Set("idCard", cardID)
	params.Set("name", name)

	var created model.Identified
	if err := c.call(ctx, OpCreateChecklist, http.MethodPost, "checklists", params, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

// AddChecklistItem appends an item at the bottom of the checklist
func (c *Client) AddChecklistItem(ctx context.Context, checklistID, text string) (string, error) {
	params := url.Values{}
	params.Set("name", text)
	params.Set("pos", "bottom")

	var created model.Identified
	path := "checklists/" + checklistID + "/checkItems"
	if err := c.call(ctx, OpAddChecklistItem, http.MethodPost, path, params, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

// call executa a requisição com rate limit e retry. Falhas definitivas viram
// *model.RemoteError com o nome da operação.
func (c *Client) call(ctx context.Context, op, method, path string, params url.Values, out interface{}) error {
	var (
		lastErr    error
		lastStatus int
	)

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		// Aguarda rate limiter
		if err := c.limiter.Wait(ctx); err != nil {
			return &model.RemoteError{Op: op, Err: fmt.Errorf("rate limiter: %w", err)}
		}

		c.metrics.IncrementAPIRequest(attempt > 1)
		status, retryAfter, err := c.doRequest(ctx, method, path, params, out)
		if err == nil {
			return nil
		}
		lastErr, lastStatus = err, status

		// Contexto cancelado: não faz retry
		if ctx.Err() != nil {
			break
		}

		if !retryable(method, status, err) || attempt == c.maxAttempts {
			break
		}

		wait := c.backoff << (attempt - 1)
		if retryAfter > wait {
			wait = retryAfter
		}

		logger.Get(ctx).Warn().
			Str("op", op).
			Int("status", status).
			Int("attempt", attempt).
			Int("max_attempts", c.maxAttempts).
			Err(err).
			Dur("backoff", wait).
			Msg("Trello request failed, retrying")

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return &model.RemoteError{Op: op, Status: lastStatus, Err: ctx.Err()}
		}
	}

	c.metrics.IncrementAPIFailure()
	logger.Get(ctx).Error().
		Str("op", op).
		Int("status", lastStatus).
		Err(lastErr).
		Msg("Trello request failed")
	return &model.RemoteError{Op: op, Status: lastStatus, Err: lastErr}
}

// retryable reports whether a failed attempt may be repeated. Reads retry on
// transport errors and on the retryable statuses. Creations only retry on
// 429, which Trello returns before doing any work; repeating a POST after a
// 5xx or a dropped connection could create the object twice.
func retryable(method string, status int, err error) bool {
	if method != http.MethodGet {
		return status == http.StatusTooManyRequests
	}
	if status == 0 {
		return !errors.Is(err, model.ErrTimeout)
	}
	return retryableStatus[status]
}

// doRequest executa uma única requisição autenticada
func (c *Client) doRequest(ctx context.Context, method, path string, params url.Values, out interface{}) (int, time.Duration, error) {
	query := url.Values{}
	for k, v := range params {
		query[k] = v
	}
	query.Set("key", c.key)
	query.Set("token", c.token)

	endpoint := c.baseURL + "/" + path + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, 0, model.ErrTimeout
		}
		return 0, 0, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	// Tratamento de erros HTTP
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		// OK, continua
	case resp.StatusCode == http.StatusTooManyRequests:
		return resp.StatusCode, parseRetryAfter(resp.Header.Get("Retry-After")), model.ErrRateLimited
	case resp.StatusCode == http.StatusUnauthorized:
		return resp.StatusCode, 0, model.ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return resp.StatusCode, 0, model.ErrNotFound
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return resp.StatusCode, parseRetryAfter(resp.Header.Get("Retry-After")),
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if out == nil {
		return resp.StatusCode, 0, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, 0, fmt.Errorf("%w: %v", model.ErrInvalidResponse, err)
	}
	return resp.StatusCode, 0, nil
}

func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	d := time.Duration(secs) * time.Second
	if d > maxRetryAfter {
		d = maxRetryAfter
	}
	return d
}
