package clinic

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Client is the single HTTP gateway for both portals. It attaches role
// tokens to every outgoing request, refuses to send a known-expired token,
// and classifies failures into the APIError taxonomy. It is the only
// component that observes raw transport/HTTP errors and the only trigger
// for session teardown; portals and commands never re-implement either.
type Client struct {
	config     Config
	store      *SessionStore
	httpClient *http.Client
	logger     *slog.Logger

	// latches guarantee the teardown side effect fires at most once per
	// role per expiry episode, however many requests observe the expiry
	// concurrently. Re-armed by a successful login.
	latches map[Role]*atomic.Bool

	mu        sync.Mutex
	onExpired []func(Role)
}

// NewClient creates a clinic API client over the given session store.
// A nil logger discards all output.
func NewClient(config Config, store *SessionStore, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	latches := make(map[Role]*atomic.Bool, len(Roles))
	for _, r := range Roles {
		latches[r] = &atomic.Bool{}
	}
	return &Client{
		config:     config,
		store:      store,
		httpClient: &http.Client{},
		logger:     logger.With("component", "clinic-client"),
		latches:    latches,
	}
}

// Store returns the session store backing this client.
func (c *Client) Store() *SessionStore { return c.store }

// Token returns the stored token for role, "" when logged out.
func (c *Client) Token(role Role) string { return c.store.Get(role) }

// OnSessionExpired registers fn to run after a role's session is torn down
// following an expiry or a 401. Callbacks run at most once per expiry
// episode, on whichever request flow won the latch.
func (c *Client) OnSessionExpired(fn func(Role)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onExpired = append(c.onExpired, fn)
}

// teardown clears the role's session exactly once per episode. Concurrent
// observers race on a compare-and-swap; only the winner clears storage and
// fires the callbacks.
func (c *Client) teardown(role Role, reason string) {
	if !c.latches[role].CompareAndSwap(false, true) {
		return
	}
	c.logger.Warn("session torn down", "role", string(role), "reason", reason)
	if err := c.store.Clear(role); err != nil {
		c.logger.Error("clear session", "role", string(role), "error", err)
	}
	c.mu.Lock()
	fns := append(([]func(Role))(nil), c.onExpired...)
	c.mu.Unlock()
	for _, fn := range fns {
		fn(role)
	}
}

// rearm re-enables teardown for the role after a fresh login.
func (c *Client) rearm(role Role) {
	c.latches[role].Store(false)
}

// RequestOption adjusts a single request.
type RequestOption func(*requestOptions)

type requestOptions struct {
	timeout time.Duration
	noAuth  bool
}

// WithTimeout overrides the default per-request timeout. Uploads use a
// longer one and cheap reads may use a shorter one; there is never an
// unbounded wait.
func WithTimeout(d time.Duration) RequestOption {
	return func(o *requestOptions) { o.timeout = d }
}

// unauthenticated marks a request that needs no token (login).
func unauthenticated() RequestOption {
	return func(o *requestOptions) { o.noAuth = true }
}

func buildOptions(opts []RequestOption) requestOptions {
	var o requestOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// get performs an authenticated GET and decodes the envelope into out.
func (c *Client) get(ctx context.Context, role Role, path string, out payload, opts ...RequestOption) error {
	return c.do(ctx, role, http.MethodGet, path, nil, "", out, buildOptions(opts))
}

// post performs a POST with an optional JSON body.
func (c *Client) post(ctx context.Context, role Role, path string, body any, out payload, opts ...RequestOption) error {
	var reader io.Reader
	contentType := ""
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &APIError{Kind: KindUnknown, Role: role, Message: "marshal request", Err: err}
		}
		reader = bytes.NewReader(data)
		contentType = "application/json"
	}
	return c.do(ctx, role, http.MethodPost, path, reader, contentType, out, buildOptions(opts))
}

// postForm performs a multipart POST (doctor image uploads) under the
// upload timeout.
func (c *Client) postForm(ctx context.Context, role Role, path string, form io.Reader, contentType string) error {
	var out okResponse
	o := requestOptions{timeout: c.config.UploadTimeout}
	return c.do(ctx, role, http.MethodPost, path, form, contentType, &out, o)
}

// do runs the full request/response cycle: preflight expiry check, token
// headers, finite deadline, send, classify.
func (c *Client) do(ctx context.Context, role Role, method, path string, body io.Reader, contentType string, out payload, opts requestOptions) error {
	timeout := opts.timeout
	if timeout <= 0 {
		timeout = c.config.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Preflight: a known-expired token never goes over the wire. Expired
	// tokens of either role are cleared through the latch; the call itself
	// only aborts when the requesting role's token is the bad one, so the
	// two sessions stay independent.
	tokens := make(map[Role]string, len(Roles))
	for _, r := range Roles {
		tok := c.store.Get(r)
		if tok == "" {
			continue
		}
		if IsTokenExpired(tok) {
			c.teardown(r, "token expired before request")
			if r == role && !opts.noAuth {
				return &APIError{
					Kind:    KindUnauthorizedExpired,
					Role:    role,
					Message: defaultMessage(KindUnauthorizedExpired, 0),
					Err:     ErrSessionExpired,
				}
			}
			continue
		}
		tokens[r] = tok
	}
	if !opts.noAuth && tokens[role] == "" {
		return &APIError{
			Kind:    KindUnauthorizedInvalid,
			Role:    role,
			Message: "not logged in as " + string(role),
			Err:     ErrNotLoggedIn,
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, body)
	if err != nil {
		return &APIError{Kind: KindUnknown, Role: role, Message: "create request", Err: err}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("X-Request-Id", "req_"+uuid.New().String()[:8])
	for r, tok := range tokens {
		req.Header.Set(r.header(), tok)
	}

	c.logger.Debug("request", "method", method, "path", path, "role", string(role))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Transport failure: nothing to classify, session untouched.
		return &APIError{Kind: KindUnknown, Role: role, Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Kind: KindUnknown, Role: role, Status: resp.StatusCode, Message: "read response", Err: err}
	}

	c.logger.Debug("response", "status", resp.StatusCode, "path", path)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.classify(role, resp.StatusCode, respBody)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return &APIError{Kind: KindUnknown, Role: role, Status: resp.StatusCode, Message: "parse response", Err: err}
	}
	if ok, message := out.status(); !ok {
		if message == "" {
			message = "request rejected"
		}
		return &APIError{Kind: KindValidation, Role: role, Status: resp.StatusCode, Message: message}
	}
	return nil
}

// classify turns a non-2xx response into an APIError and applies the one
// side effect this layer owns: teardown on either 401 subtype.
func (c *Client) classify(role Role, status int, body []byte) error {
	var env envelope
	message := ""
	if json.Unmarshal(body, &env) == nil {
		message = env.Message
	}
	kind := classifyStatus(status, message)
	if message == "" {
		message = defaultMessage(kind, status)
	}
	if kind == KindUnauthorizedExpired || kind == KindUnauthorizedInvalid {
		c.teardown(role, message)
	}
	return &APIError{Kind: kind, Status: status, Role: role, Message: message}
}
