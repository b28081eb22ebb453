package signup

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// TokenStore is the durable mirror of the session token. It holds a single
// opaque string under a fixed key. Load returns an empty string when nothing
// has been persisted.
type TokenStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// TokenSource exposes the token attached to authenticated calls.
type TokenSource interface {
	Token() string
}

// HTTPDoer is the transport used by Client. *http.Client satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// API is the backend contract consumed by SessionStore and RosterView.
type API interface {
	ListActivities(ctx context.Context) (*Catalog, error)
	Signup(ctx context.Context, token, activity, email string) (string, error)
	Unregister(ctx context.Context, token, activity, email string) (string, error)
	Login(ctx context.Context, email, password string) (*LoginResponse, error)
	Register(ctx context.Context, email, password string) (string, error)
	Logout(ctx context.Context, token string) error
	Me(ctx context.Context, token string) (*UserProfile, error)
}

// Config holds client options
type Config interface {
	GetBaseURL() string
	GetStorageKey() string
	GetNotificationTTL() time.Duration
	GetSendRequestID() bool
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] SIGNUP "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] SIGNUP "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] SIGNUP "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] SIGNUP "+newline(format), args...)
}

// NopLogger discards everything. Useful for CLIs that own stdout.
type NopLogger struct{}

func (NopLogger) Debug(string, ...any) {}
func (NopLogger) Info(string, ...any)  {}
func (NopLogger) Warn(string, ...any)  {}
func (NopLogger) Error(string, ...any) {}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
