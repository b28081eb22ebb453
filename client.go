package signup

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

const (
	OperationListActivities = "list activities"
	OperationSignup         = "signup"
	OperationUnregister     = "unregister"
	OperationLogin          = "login"
	OperationRegister       = "register"
	OperationLogout         = "logout"
	OperationMe             = "who am i"
)

// RequestIDHeader carries a per call identifier for backend log correlation.
const RequestIDHeader = "X-Request-ID"

var _ API = &Client{}

// Client talks to the signup backend over HTTP.
type Client struct {
	baseURL   string
	doer      HTTPDoer
	logger    Logger
	requestID bool
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithHTTPDoer sets the transport. Defaults to an http.Client with no timeout.
func WithHTTPDoer(doer HTTPDoer) ClientOption {
	return func(c *Client) {
		if doer != nil {
			c.doer = doer
		}
	}
}

// WithClientLogger overrides the logger used for transport diagnostics.
func WithClientLogger(logger Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRequestID toggles the X-Request-ID header on outbound calls.
func WithRequestID(enabled bool) ClientOption {
	return func(c *Client) {
		c.requestID = enabled
	}
}

// NewClient creates a client rooted at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		doer:      &http.Client{},
		logger:    defLogger{},
		requestID: true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// NewClientFromConfig creates a client using cfg.
func NewClientFromConfig(cfg Config, opts ...ClientOption) *Client {
	base := []ClientOption{WithRequestID(cfg.GetSendRequestID())}
	return NewClient(cfg.GetBaseURL(), append(base, opts...)...)
}

// ListActivities calls GET /activities. The call is never authenticated.
func (c *Client) ListActivities(ctx context.Context) (*Catalog, error) {
	out := &Catalog{}
	if err := c.do(ctx, OperationListActivities, http.MethodGet, "/activities", "", nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Signup calls POST /activities/{name}/signup?email=...
func (c *Client) Signup(ctx context.Context, token, activity, email string) (string, error) {
	var out messageResponse
	err := c.do(ctx, OperationSignup, http.MethodPost, activityPath(activity, "signup", email), token, nil, &out)
	return out.Message, err
}

// Unregister calls DELETE /activities/{name}/unregister?email=...
func (c *Client) Unregister(ctx context.Context, token, activity, email string) (string, error) {
	var out messageResponse
	err := c.do(ctx, OperationUnregister, http.MethodDelete, activityPath(activity, "unregister", email), token, nil, &out)
	return out.Message, err
}

// Login calls POST /auth/login.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	out := &LoginResponse{}
	payload := credentialsRequest{Email: email, Password: password}
	if err := c.do(ctx, OperationLogin, http.MethodPost, "/auth/login", "", payload, out); err != nil {
		return nil, err
	}

	if out.Token == "" {
		return nil, goerrors.New("login response did not include a token", goerrors.CategoryOperation).
			WithTextCode("SIGNUP_LOGIN_MISSING_TOKEN").
			WithCode(goerrors.CodeInternal)
	}

	return out, nil
}

// Register calls POST /auth/register. Self registration is always for members.
func (c *Client) Register(ctx context.Context, email, password string) (string, error) {
	var out messageResponse
	payload := credentialsRequest{Email: email, Password: password, Role: string(RoleMember)}
	err := c.do(ctx, OperationRegister, http.MethodPost, "/auth/register", "", payload, &out)
	return out.Message, err
}

// Logout calls POST /auth/logout. The response body is ignored.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, OperationLogout, http.MethodPost, "/auth/logout", token, nil, nil)
}

// Me calls GET /auth/me.
func (c *Client) Me(ctx context.Context, token string) (*UserProfile, error) {
	out := &UserProfile{}
	if err := c.do(ctx, OperationMe, http.MethodGet, "/auth/me", token, nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

type messageResponse struct {
	Message string `json:"message"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

func activityPath(activity, action, email string) string {
	return "/activities/" + url.PathEscape(activity) + "/" + action + "?email=" + url.QueryEscape(email)
}

func (c *Client) do(ctx context.Context, operation, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode "+operation+" request")
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to build "+operation+" request")
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if c.requestID {
		req.Header.Set(RequestIDHeader, uuid.NewString())
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		c.logger.Debug("%s %s: %v", method, path, err)
		return wrapTransportError(err, operation)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Debug("%s %s: read body: %v", method, path, err)
		return wrapTransportError(err, operation)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{
			Operation: operation,
			Status:    resp.StatusCode,
			Detail:    detailFromBody(raw),
			Raw:       json.RawMessage(raw),
		}
		c.logger.Debug("%s %s: %v", method, path, apiErr)
		return apiErr
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		c.logger.Debug("%s %s: decode: %v", method, path, err)
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to decode "+operation+" response")
	}

	return nil
}
