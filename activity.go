package signup

import (
	"context"
	"time"
)

// SessionEventType enumerates supported session lifecycle events.
type SessionEventType string

const (
	SessionEventLoginSuccess    SessionEventType = "session.login.success"
	SessionEventLoginFailure    SessionEventType = "session.login.failure"
	SessionEventLogout          SessionEventType = "session.logout"
	SessionEventRestored        SessionEventType = "session.restored"
	SessionEventExpired         SessionEventType = "session.expired"
	SessionEventRegisterSuccess SessionEventType = "session.register.success"
	SessionEventRegisterFailure SessionEventType = "session.register.failure"
)

// SessionEvent describes one lifecycle change.
type SessionEvent struct {
	EventType  SessionEventType
	Email      string
	Role       Role
	From       SessionState
	To         SessionState
	Metadata   map[string]any
	OccurredAt time.Time
}

// SessionEventSink consumes session events for auditing/telemetry purposes.
type SessionEventSink interface {
	Record(ctx context.Context, event SessionEvent) error
}

// SessionEventSinkFunc adapts a function to the SessionEventSink interface.
type SessionEventSinkFunc func(ctx context.Context, event SessionEvent) error

// Record implements SessionEventSink.
func (f SessionEventSinkFunc) Record(ctx context.Context, event SessionEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopSessionEventSink struct{}

func (noopSessionEventSink) Record(context.Context, SessionEvent) error {
	return nil
}

func normalizeSessionEventSink(s SessionEventSink) SessionEventSink {
	if s == nil {
		return noopSessionEventSink{}
	}
	return s
}
