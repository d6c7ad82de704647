// Package todoapi is a client for the remote REST task store.
package todoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clive/todo-tui/internal/failure"
	"github.com/clive/todo-tui/internal/model"
)

const (
	// DefaultBaseURL is the public playground task store
	DefaultBaseURL = "https://playground.4geeks.com/todo"

	// RequestIDHeader carries a per-request ID for correlating client and store logs
	RequestIDHeader = "X-Request-ID"
)

// Operation names used in errors and logs
const (
	OpEnsureAccount = "ensure account"
	OpListTasks     = "list tasks"
	OpCreateTask    = "create task"
	OpDeleteTask    = "delete task"
	OpDeleteAccount = "delete account"
)

// Client talks to the task store on behalf of a single account
type Client struct {
	baseURL    string
	account    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithLogger sets the logger used for request diagnostics
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a client for account on the store at baseURL
func NewClient(baseURL, account string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		account: account,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Account returns the account this client is bound to
func (c *Client) Account() string {
	return c.account
}

// EnsureAccount creates the account. A 400 means it already exists and counts as success.
func (c *Client) EnsureAccount(ctx context.Context) error {
	return c.do(ctx, OpEnsureAccount, http.MethodPost, c.userPath(), nil, nil, func(code int) bool {
		return isSuccess(code) || code == http.StatusBadRequest
	})
}

// ListTasks fetches every task of the account. A body without todos yields an empty list.
func (c *Client) ListTasks(ctx context.Context) ([]model.Task, error) {
	var list model.TaskList
	if err := c.do(ctx, OpListTasks, http.MethodGet, c.userPath(), nil, &list, isSuccess); err != nil {
		return nil, err
	}
	if list.Todos == nil {
		return []model.Task{}, nil
	}
	return list.Todos, nil
}

// CreateTask submits a new, not-done task with the given label
func (c *Client) CreateTask(ctx context.Context, label string) error {
	body := model.NewTask{Label: label, IsDone: false}
	return c.do(ctx, OpCreateTask, http.MethodPost, "/todos/"+url.PathEscape(c.account), body, nil, isSuccess)
}

// DeleteTask removes a single task by its store-assigned ID
func (c *Client) DeleteTask(ctx context.Context, id int) error {
	return c.do(ctx, OpDeleteTask, http.MethodDelete, "/todos/"+strconv.Itoa(id), nil, nil, isSuccess)
}

// DeleteAccount removes the account together with all of its tasks
func (c *Client) DeleteAccount(ctx context.Context) error {
	return c.do(ctx, OpDeleteAccount, http.MethodDelete, c.userPath(), nil, nil, isSuccess)
}

func (c *Client) userPath() string {
	return "/users/" + url.PathEscape(c.account)
}

// do executes one request. A non-nil body is sent as JSON; result is decoded only on accepted statuses.
func (c *Client) do(ctx context.Context, op, method, path string, body, result interface{}, accept func(int) bool) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return failure.NewInvalidInput(op, fmt.Sprintf("marshal request: %v", err))
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return failure.NewTransport(op, fmt.Errorf("create request: %w", err))
	}
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	requestID := uuid.New().String()[:8]
	req.Header.Set(RequestIDHeader, requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "op", op, "method", method, "path", path, "request_id", requestID, "error", err)
		return failure.NewTransport(op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return failure.NewTransport(op, fmt.Errorf("read response: %w", err))
	}

	c.logger.Debug("request",
		"op", op,
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if !accept(resp.StatusCode) {
		return failure.NewStatus(op, resp.StatusCode, resp.Status)
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return failure.NewDecode(op, err)
		}
	}

	return nil
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}
