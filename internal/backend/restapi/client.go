// Package restapi implements the service.Service interface over the task REST API.
package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"taskflow/internal/service"
)

// APITimeout is the default timeout for API calls.
const APITimeout = 10 * time.Second

// RequestIDHeader carries a per-request correlation ID.
const RequestIDHeader = "X-Request-ID"

// Client implements service.Service over HTTP.
type Client struct {
	base    *url.URL
	anon    *http.Client // login, no credentials
	authed  *http.Client // everything else, bearer token attached
	timeout time.Duration
	log     *slog.Logger
}

type options struct {
	httpClient *http.Client
	tokens     oauth2.TokenSource
	timeout    time.Duration
	log        *slog.Logger
}

// Option configures a Client.
type Option func(*options)

// WithHTTPClient sets the underlying HTTP client (for testing).
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithTokenSource sets where the bearer token of authenticated calls comes
// from. The source is asked on every request; nothing is cached.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(o *options) { o.tokens = ts }
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = l }
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid api url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid api url: %s (want http or https)", baseURL)
	}

	o := options{httpClient: http.DefaultClient, timeout: APITimeout, log: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	transport := o.httpClient.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	transport = &requestIDTransport{base: transport}

	anon := *o.httpClient
	anon.Transport = transport

	authed := anon
	if o.tokens != nil {
		// oauth2.NewClient would wrap the source in a ReuseTokenSource, which
		// keeps serving a token after logout.
		authed.Transport = &oauth2.Transport{Source: o.tokens, Base: transport}
	}

	return &Client{
		base:    base,
		anon:    &anon,
		authed:  &authed,
		timeout: o.timeout,
		log:     o.log,
	}, nil
}

// requestIDTransport stamps every request with a fresh request ID.
type requestIDTransport struct {
	base http.RoundTripper
}

func (t *requestIDTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get(RequestIDHeader) != "" {
		return t.base.RoundTrip(req)
	}
	r := req.Clone(req.Context())
	r.Header.Set(RequestIDHeader, uuid.NewString())
	return t.base.RoundTrip(r)
}

// Login implements service.Service.
func (c *Client) Login(ctx context.Context, email, password string) (service.Credentials, error) {
	var out wireCredentials
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, c.anon, http.MethodPost, "/api/auth/login", nil, body, &out); err != nil {
		return service.Credentials{}, err
	}
	if out.Token == "" {
		return service.Credentials{}, errors.New("login response carries no token")
	}
	return service.Credentials{Token: out.Token, User: out.User.toUser()}, nil
}

// ListUsers implements service.Service.
func (c *Client) ListUsers(ctx context.Context) ([]service.User, error) {
	var out listOf[wireUser]
	if err := c.do(ctx, c.authed, http.MethodGet, "/api/users", nil, nil, &out); err != nil {
		return nil, err
	}
	users := make([]service.User, 0, len(out))
	for _, u := range out {
		users = append(users, u.toUser())
	}
	return users, nil
}

// ListTasks implements service.Service.
func (c *Client) ListTasks(ctx context.Context, q service.TaskQuery) (service.TaskPage, error) {
	params := url.Values{}
	setIf := func(key, value string) {
		if value != "" {
			params.Set(key, value)
		}
	}
	setIf("search", q.Search)
	setIf("status", string(q.Status))
	setIf("priority", string(q.Priority))
	setIf("assignedTo", q.AssignedTo)
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}

	var out wirePage
	if err := c.do(ctx, c.authed, http.MethodGet, "/api/tasks", params, nil, &out); err != nil {
		return service.TaskPage{}, err
	}
	items, err := toTasks(out.Items)
	if err != nil {
		return service.TaskPage{}, err
	}
	return service.TaskPage{
		Items: items,
		Page:  out.Page,
		Pages: out.Pages,
		Total: out.Total,
		Limit: out.Limit,
	}, nil
}

// CreateTask implements service.Service.
func (c *Client) CreateTask(ctx context.Context, in service.TaskInput) (service.Task, error) {
	var out wireTask
	if err := c.do(ctx, c.authed, http.MethodPost, "/api/tasks", nil, inputBody(in), &out); err != nil {
		return service.Task{}, err
	}
	return out.toTask()
}

// UpdateTask implements service.Service.
func (c *Client) UpdateTask(ctx context.Context, id string, in service.TaskInput) (service.Task, error) {
	var out wireTask
	if err := c.do(ctx, c.authed, http.MethodPut, "/api/tasks/"+url.PathEscape(id), nil, inputBody(in), &out); err != nil {
		return service.Task{}, err
	}
	return out.toTask()
}

// DeleteTask implements service.Service.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, c.authed, http.MethodDelete, "/api/tasks/"+url.PathEscape(id), nil, nil, nil)
}

// MyTasks implements service.Service.
func (c *Client) MyTasks(ctx context.Context) ([]service.Task, error) {
	var out listOf[wireTask]
	if err := c.do(ctx, c.authed, http.MethodGet, "/api/tasks/my", nil, nil, &out); err != nil {
		return nil, err
	}
	return toTasks(out)
}

// UpdateTaskStatus implements service.Service.
func (c *Client) UpdateTaskStatus(ctx context.Context, id string, status service.Status) (service.Task, error) {
	var out wireTask
	body := map[string]any{"status": status}
	if err := c.do(ctx, c.authed, http.MethodPatch, "/api/tasks/"+url.PathEscape(id)+"/status", nil, body, &out); err != nil {
		return service.Task{}, err
	}
	return out.toTask()
}

// do performs one JSON round trip. A nil out discards the response body.
func (c *Client) do(ctx context.Context, hc *http.Client, method, path string, params url.Values, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := c.base.JoinPath(path)
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		c.log.Debug("request failed", "method", method, "path", path, "error", err)
		return wrapError(err)
	}
	defer resp.Body.Close()
	c.log.Debug("request done", "method", method, "path", path, "status", resp.StatusCode, "elapsed", time.Since(start))

	if err := googleapi.CheckResponse(resp); err != nil {
		return wrapError(err)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// wrapError turns non-2xx responses into *service.APIError carrying the
// backend's message and marks timeouts.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		apiErr := &service.APIError{StatusCode: gerr.Code, Message: gerr.Message}
		var payload struct {
			Message string `json:"message"`
		}
		if json.Unmarshal([]byte(gerr.Body), &payload) == nil && payload.Message != "" {
			apiErr.Message = payload.Message
		}
		return apiErr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", err)
	}
	return err
}

var _ service.Service = (*Client)(nil)
