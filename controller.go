package signup

import (
	"context"
	"fmt"

	"github.com/goliatone/go-command"
)

// ControllerOption customizes the controller.
type ControllerOption func(*Controller)

// WithGateRenderer sets where the AuthGate view is drawn.
func WithGateRenderer(renderer GateRenderer) ControllerOption {
	return func(c *Controller) {
		c.gate = renderer
	}
}

// WithControllerLogger overrides the logger.
func WithControllerLogger(logger Logger) ControllerOption {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Controller is the composition root. Each user event maps to exactly one
// command, and the AuthGate is redrawn after every session change.
type Controller struct {
	session  *SessionStore
	roster   *RosterView
	notifier Notifications
	gate     GateRenderer
	logger   Logger

	login      *LoginHandler
	logout     *LogoutHandler
	register   *RegisterHandler
	refresh    *RefreshSessionHandler
	load       *LoadCatalogHandler
	signup     *SignupHandler
	unregister *UnregisterHandler
}

// NewController wires the handlers and subscribes to session changes.
func NewController(session *SessionStore, roster *RosterView, notifier Notifications, opts ...ControllerOption) *Controller {
	c := &Controller{
		session:  session,
		roster:   roster,
		notifier: notifier,
		logger:   defLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	c.login = &LoginHandler{session: session, notifier: notifier, logger: c.logger}
	c.logout = &LogoutHandler{session: session, notifier: notifier}
	c.register = &RegisterHandler{session: session, notifier: notifier, logger: c.logger}
	c.refresh = &RefreshSessionHandler{session: session, notifier: notifier}
	c.load = &LoadCatalogHandler{roster: roster}
	c.signup = &SignupHandler{roster: roster, session: session}
	c.unregister = &UnregisterHandler{roster: roster, session: session}

	session.Subscribe(func(s Session, _ SessionState) {
		c.renderGate(s)
	})

	return c
}

// Start restores a persisted session, draws the gate and loads the catalog.
// An expired session is dropped silently.
func (c *Controller) Start(ctx context.Context) {
	c.session.Restore(ctx)
	c.renderGate(c.session.Session())
	_ = c.load.Execute(ctx, LoadCatalogMessage{})
}

// Gate returns the current AuthGate view.
func (c *Controller) Gate() GateView {
	return DeriveGate(c.session.Session())
}

// Session exposes the session store for read access.
func (c *Controller) Session() *SessionStore {
	return c.session
}

// Roster exposes the roster view for read access.
func (c *Controller) Roster() *RosterView {
	return c.roster
}

// Dispatch runs msg on the caller's goroutine. The returned error is for the
// caller's bookkeeping; the user facing outcome has already been shown.
func (c *Controller) Dispatch(ctx context.Context, msg command.Message) error {
	switch m := msg.(type) {
	case LoginMessage:
		return c.login.Execute(ctx, m)
	case LogoutMessage:
		return c.logout.Execute(ctx, m)
	case RegisterMessage:
		return c.register.Execute(ctx, m)
	case RefreshSessionMessage:
		return c.refresh.Execute(ctx, m)
	case LoadCatalogMessage:
		return c.load.Execute(ctx, m)
	case SignupMessage:
		return c.signup.Execute(ctx, m)
	case UnregisterMessage:
		return c.unregister.Execute(ctx, m)
	default:
		c.logger.Error("dispatch: no handler for %T", msg)
		return ErrUnknownCommand
	}
}

// DispatchAsync runs msg on its own goroutine. Requests are neither
// deduplicated nor queued.
func (c *Controller) DispatchAsync(ctx context.Context, msg command.Message) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error("dispatch %s panicked: %v", msg.Type(), r)
				done <- fmt.Errorf("dispatch %s: %v", msg.Type(), r)
			}
			close(done)
		}()
		done <- c.Dispatch(ctx, msg)
	}()
	return done
}

func (c *Controller) renderGate(s Session) {
	if c.gate == nil {
		return
	}
	if err := c.gate.RenderGate(DeriveGate(s)); err != nil {
		c.logger.Error("render gate: %v", err)
	}
}
