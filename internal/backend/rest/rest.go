package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/slok/stockwatch/internal/log"
	"github.com/slok/stockwatch/internal/model"
	"github.com/slok/stockwatch/internal/utils/isotime"
)

const (
	// DefaultBaseURL is the default analysis server URL.
	DefaultBaseURL = "http://127.0.0.1:5000"

	// Server side limits of the task endpoints.
	DefaultStartPerMinute  = 10
	DefaultStatusPerMinute = 50
	DefaultBurst           = 5

	defaultHTTPTimeout = 30 * time.Second
	maxBodyBytes       = 16 << 20

	startPath  = "/api/task/start"
	statusPath = "/api/task/status/"
)

// ClientConfig is the configuration of the REST backend client.
type ClientConfig struct {
	// BaseURL is the server root URL, task endpoints live under /api/task.
	BaseURL string
	// HTTPClient is the HTTP client used for the requests.
	HTTPClient *http.Client
	// StartPerMinute limits the start requests, negative disables the limit.
	StartPerMinute int
	// StatusPerMinute limits the status requests, negative disables the limit.
	StatusPerMinute int
	// Burst is the burst of both limiters.
	Burst  int
	Logger log.Logger
}

func (c *ClientConfig) defaults() error {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("base URL host is required")
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")

	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: defaultHTTPTimeout}
	}

	if c.StartPerMinute == 0 {
		c.StartPerMinute = DefaultStartPerMinute
	}

	if c.StatusPerMinute == 0 {
		c.StatusPerMinute = DefaultStatusPerMinute
	}

	if c.Burst <= 0 {
		c.Burst = DefaultBurst
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "backend.REST"})

	return nil
}

// Client is a backend.Client for the analysis server HTTP API.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	startLimiter  *rate.Limiter
	statusLimiter *rate.Limiter
	logger        log.Logger
}

// NewClient returns a new REST backend client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Client{
		baseURL:       cfg.BaseURL,
		httpClient:    cfg.HTTPClient,
		startLimiter:  newLimiter(cfg.StartPerMinute, cfg.Burst),
		statusLimiter: newLimiter(cfg.StatusPerMinute, cfg.Burst),
		logger:        cfg.Logger,
	}, nil
}

func newLimiter(perMinute, burst int) *rate.Limiter {
	if perMinute < 0 {
		return rate.NewLimiter(rate.Inf, burst)
	}
	return rate.NewLimiter(rate.Limit(float64(perMinute)/60), burst)
}

// --- JSON wire types ---

type startRequestJSON struct {
	Type   string         `json:"type"`
	Params map[string]any `json:"params"`
}

type startResponseJSON struct {
	TaskID  string `json:"task_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type statusResponseJSON struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Status      string          `json:"status"`
	Progress    float64         `json:"progress"`
	CurrentStep *string         `json:"current_step"`
	CurrentItem *string         `json:"current_item"`
	Result      json.RawMessage `json:"result"`
	Error       *string         `json:"error"`
	CreatedAt   *string         `json:"created_at"`
	CompletedAt *string         `json:"completed_at"`
}

type errorJSON struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// envelopeJSON is the dashboard API envelope, code 0 means success.
type envelopeJSON struct {
	Code    *int            `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// StartTask starts an analysis task on the server.
func (c *Client) StartTask(ctx context.Context, kind model.AnalysisKind, params model.AnalysisParams) (string, error) {
	if params == nil {
		params = model.AnalysisParams{}
	}

	body, err := json.Marshal(startRequestJSON{Type: string(kind), Params: params})
	if err != nil {
		return "", fmt.Errorf("could not encode start request: %w: %w", err, model.ErrNotValid)
	}

	if err := c.startLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	var resp startResponseJSON
	if err := c.do(ctx, http.MethodPost, c.baseURL+startPath, body, &resp); err != nil {
		return "", fmt.Errorf("could not start %s task: %w", kind, err)
	}

	if resp.TaskID == "" {
		return "", fmt.Errorf("server didn't return a task ID: %w", model.ErrTransport)
	}

	c.logger.Debugf("Started %s task %s: %s", kind, resp.TaskID, resp.Message)

	return resp.TaskID, nil
}

// GetTaskStatus returns the current status of a task.
func (c *Client) GetTaskStatus(ctx context.Context, taskID string) (*model.TaskSnapshot, error) {
	if taskID == "" {
		return nil, fmt.Errorf("task ID is required: %w", model.ErrNotValid)
	}

	if err := c.statusLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	var resp statusResponseJSON
	if err := c.do(ctx, http.MethodGet, c.baseURL+statusPath+url.PathEscape(taskID), nil, &resp); err != nil {
		return nil, fmt.Errorf("could not get task %s status: %w", taskID, err)
	}

	phase := model.TaskPhase(resp.Status)
	if !phase.Valid() {
		return nil, fmt.Errorf("task %s has unknown status %q: %w", taskID, resp.Status, model.ErrTransport)
	}

	id := resp.ID
	if id == "" {
		id = taskID
	}

	s := &model.TaskSnapshot{
		TaskID:   id,
		Kind:     model.AnalysisKind(resp.Type),
		Phase:    phase,
		Progress: resp.Progress,
		Error:    resp.Error,
	}
	if resp.CurrentStep != nil {
		s.CurrentStep = *resp.CurrentStep
	}
	if resp.CurrentItem != nil {
		s.CurrentItem = *resp.CurrentItem
	}
	if !isNull(resp.Result) {
		s.Result = resp.Result
	}
	if resp.CreatedAt != nil {
		s.CreatedAt = isotime.ParsePtr(*resp.CreatedAt)
	}
	if resp.CompletedAt != nil {
		s.CompletedAt = isotime.ParsePtr(*resp.CompletedAt)
	}

	return s, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte, out any) error {
	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("could not create request: %w: %w", err, model.ErrNotValid)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("network error: %w: %w", err, model.ErrTransport)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("could not read response: %w: %w", err, model.ErrTransport)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp.StatusCode, data)
	}

	data, err = unwrapEnvelope(data)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("could not decode response: %w: %w", err, model.ErrTransport)
	}

	return nil
}

func statusError(code int, data []byte) error {
	msg := fmt.Sprintf("server error: %d", code)

	var e errorJSON
	if err := json.Unmarshal(data, &e); err == nil {
		switch {
		case e.Error != "":
			msg = e.Error
		case e.Message != "":
			msg = e.Message
		}
	}

	switch code {
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", msg, model.ErrNotFound)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return fmt.Errorf("%s: %w", msg, model.ErrNotValid)
	}

	return fmt.Errorf("%s: %w", msg, model.ErrTransport)
}

// unwrapEnvelope returns the data of an enveloped response, responses
// without envelope are returned as they are.
func unwrapEnvelope(data []byte) ([]byte, error) {
	var env envelopeJSON
	if err := json.Unmarshal(data, &env); err != nil || env.Code == nil {
		return data, nil
	}

	if *env.Code != 0 {
		msg := env.Message
		if msg == "" {
			msg = "unknown error"
		}
		return nil, fmt.Errorf("%s (code %d): %w", msg, *env.Code, model.ErrNotValid)
	}

	return env.Data, nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
