// Package gateway is the REST client for the platform's identity API. It
// normalizes success and failure responses into the session vocabulary:
// every role string is parsed against the closed enumeration, a 200 without a
// token is malformed, and a 401 on an authenticated call invalidates the
// local session before the error surfaces.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/mrseck/AQ54-fe/internal/session/domain"
	"github.com/mrseck/AQ54-fe/internal/telemetry"
)

// Sentinel errors for the gateway; the app maps them to user-facing messages.
var (
	// ErrInvalidCredentials covers any non-success status on login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrMalformedResponse means a nominally successful response is missing
	// required fields (e.g. no token on a 200).
	ErrMalformedResponse = errors.New("malformed response from server")
	// ErrUnauthorized means the server rejected the bearer token. The local
	// session has already been invalidated when this error is returned.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNetwork wraps transport-level failures; they are surfaced, not
	// retried.
	ErrNetwork = errors.New("network failure")
)

// TokenSource supplies the current bearer token; "" means unauthenticated.
// The session manager is the production implementation.
type TokenSource interface {
	Token() string
}

// SessionInvalidator drops the local session after a server-side 401 so
// stale tokens are never retried blindly.
type SessionInvalidator interface {
	InvalidateSession()
}

// Account is a normalized successful auth response: the issued token plus the
// validated user profile.
type Account struct {
	Token string
	User  domain.User
}

// RegisterProfile is the registration payload. The password-policy-enforcing
// variant is canonical: the password is validated client-side before any
// request is dispatched.
type RegisterProfile struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// CreateUserProfile is the admin-only account creation payload.
type CreateUserProfile struct {
	Username string      `json:"username"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role"`
}

// authResponse is the wire shape shared by login, register, and create-user.
type authResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Email    string `json:"email"`
}

// countResponse is the wire shape of the summary counters.
type countResponse struct {
	Count int `json:"count"`
}

// Client talks to the identity API. Each operation is a single
// request/response cycle with no retry.
type Client struct {
	baseURL     string
	http        *http.Client
	tokens      TokenSource
	invalidator SessionInvalidator
	metrics     *telemetry.Metrics
	tracer      trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client (e.g. to set a
// timeout).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithSessionInvalidator sets the hook called on any 401 from an
// authenticated call.
func WithSessionInvalidator(inv SessionInvalidator) Option {
	return func(c *Client) { c.invalidator = inv }
}

// WithMetrics sets the request counters.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithTracer sets the tracer wrapping each REST call in a span.
func WithTracer(t trace.Tracer) Option {
	return func(c *Client) { c.tracer = t }
}

// NewClient returns a client for the API at baseURL (e.g.
// http://localhost:3000/api/v1). tokens supplies the bearer token for
// authenticated calls.
func NewClient(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		tokens:  tokens,
		tracer:  tracenoop.NewTracerProvider().Tracer("aq54.gateway"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login exchanges credentials for a session. Any non-2xx status is
// ErrInvalidCredentials; a 2xx without a token is ErrMalformedResponse; an
// unknown role is domain.ErrInvalidRole and no partial session escapes.
func (c *Client) Login(ctx context.Context, email, password string) (*Account, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	body := map[string]string{"email": email, "password": password}
	var resp authResponse
	status, err := c.postJSON(ctx, "/auth/login", body, &resp)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		c.metrics.CountAuthFailure(ctx, "invalid_credentials")
		return nil, ErrInvalidCredentials
	}
	return normalizeAccount(resp)
}

// Register creates an account through self-registration. The password policy
// is enforced before any network dispatch.
func (c *Client) Register(ctx context.Context, profile RegisterProfile) (*Account, error) {
	profile.Email = strings.TrimSpace(strings.ToLower(profile.Email))
	if err := validateEmail(profile.Email); err != nil {
		return nil, err
	}
	if err := ValidatePassword(profile.Password); err != nil {
		return nil, err
	}
	var resp authResponse
	status, err := c.postJSON(ctx, "/auth/register", profile, &resp)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		c.metrics.CountAuthFailure(ctx, "register_rejected")
		return nil, ErrInvalidCredentials
	}
	return normalizeAccount(resp)
}

// CreateUser creates an account on behalf of an administrator. It requires a
// bearer token and never falls back to an unauthenticated call; a server-side
// 401 invalidates the local session.
func (c *Client) CreateUser(ctx context.Context, profile CreateUserProfile) (*Account, error) {
	profile.Email = strings.TrimSpace(strings.ToLower(profile.Email))
	if err := validateEmail(profile.Email); err != nil {
		return nil, err
	}
	if err := ValidatePassword(profile.Password); err != nil {
		return nil, err
	}
	if _, err := domain.ParseRole(string(profile.Role)); err != nil {
		return nil, err
	}
	var resp authResponse
	if err := c.AuthorizedJSON(ctx, http.MethodPost, "/auth/create-user", nil, profile, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, ErrMalformedResponse
	}
	return normalizeAccount(resp)
}

// UserCount returns the registered user counter shown on the admin overview.
func (c *Client) UserCount(ctx context.Context) (int, error) {
	var resp countResponse
	if err := c.AuthorizedJSON(ctx, http.MethodGet, "/auth/users", nil, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// CollectedCount returns the collected-measurements counter.
func (c *Client) CollectedCount(ctx context.Context) (int, error) {
	var resp countResponse
	if err := c.AuthorizedJSON(ctx, http.MethodGet, "/sensor/data-collected", nil, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// AuthorizedJSON issues one authenticated request and decodes the JSON
// response into out. It is the primitive the sensor query composer builds on.
// Without a token it fails with ErrUnauthorized before any dispatch; on a 401
// it invalidates the local session and returns ErrUnauthorized; any other
// non-2xx status is reported with its code.
func (c *Client) AuthorizedJSON(ctx context.Context, method, path string, query url.Values, body, out any) error {
	token := ""
	if c.tokens != nil {
		token = c.tokens.Token()
	}
	if token == "" {
		return ErrUnauthorized
	}
	status, raw, err := c.do(ctx, method, path, query, body, token)
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized {
		c.metrics.CountAuthFailure(ctx, "expired_token")
		if c.invalidator != nil {
			c.invalidator.InvalidateSession()
		}
		return ErrUnauthorized
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("server returned status %d", status)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return ErrMalformedResponse
	}
	return nil
}

// postJSON issues one unauthenticated POST and decodes a 2xx body into out.
// The status is returned so callers can classify rejections themselves.
func (c *Client) postJSON(ctx context.Context, path string, body, out any) (int, error) {
	status, raw, err := c.do(ctx, http.MethodPost, path, nil, body, "")
	if err != nil {
		return 0, err
	}
	if status >= 200 && status < 300 && out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return status, ErrMalformedResponse
		}
	}
	return status, nil
}

// do performs the request cycle: marshal, span, dispatch, read. Transport
// failures come back wrapped in ErrNetwork.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, token string) (int, []byte, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		reader = bytes.NewReader(payload)
	}
	ctx, span := c.tracer.Start(ctx, method+" "+path, trace.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.path", path),
	))
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.New().String())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return 0, nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return 0, nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	c.metrics.CountRequest(ctx, path, resp.StatusCode)
	return resp.StatusCode, raw, nil
}

// normalizeAccount validates the wire response into an Account. A missing
// token on a nominal success is malformed; an out-of-enumeration role is
// rejected whole.
func normalizeAccount(resp authResponse) (*Account, error) {
	if resp.Token == "" {
		return nil, ErrMalformedResponse
	}
	role, err := domain.ParseRole(resp.Role)
	if err != nil {
		return nil, err
	}
	if resp.Username == "" {
		return nil, ErrMalformedResponse
	}
	return &Account{
		Token: resp.Token,
		User: domain.User{
			Username: resp.Username,
			Email:    resp.Email,
			Role:     role,
		},
	}, nil
}
