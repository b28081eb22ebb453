package signup

import (
	"context"
	"strings"
	"sync"
	"time"
)

var _ TokenSource = &SessionStore{}

// SessionListener is called after every session change with the new snapshot.
type SessionListener func(session Session, state SessionState)

// SessionStoreOption customizes store construction.
type SessionStoreOption func(*SessionStore)

// WithSessionLogger overrides the logger.
func WithSessionLogger(logger Logger) SessionStoreOption {
	return func(s *SessionStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSessionEventSink sets the sink used to publish lifecycle events.
func WithSessionEventSink(sink SessionEventSink) SessionStoreOption {
	return func(s *SessionStore) {
		s.sink = normalizeSessionEventSink(sink)
	}
}

// WithSessionClock injects a custom clock (useful for tests).
func WithSessionClock(clock func() time.Time) SessionStoreOption {
	return func(s *SessionStore) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithExpiryChecker sets the local expiry check run before restoring a
// persisted token. Pass nil to always ask the backend.
func WithExpiryChecker(checker ExpiryChecker) SessionStoreOption {
	return func(s *SessionStore) {
		s.expiry = checker
	}
}

// WithSessionListener registers a listener at construction time.
func WithSessionListener(listener SessionListener) SessionStoreOption {
	return func(s *SessionStore) {
		if listener != nil {
			s.listeners = append(s.listeners, listener)
		}
	}
}

// SessionStore owns the Session. It is the only writer of the session and of
// the persisted token.
type SessionStore struct {
	api    API
	tokens TokenStore

	mu        sync.RWMutex
	session   Session
	pending   string
	inflight  int
	restored  bool
	listeners []SessionListener

	sink   SessionEventSink
	expiry ExpiryChecker
	logger Logger
	now    func() time.Time
}

// NewSessionStore returns a logged out store.
func NewSessionStore(api API, tokens TokenStore, opts ...SessionStoreOption) *SessionStore {
	s := &SessionStore{
		api:    api,
		tokens: tokens,
		sink:   noopSessionEventSink{},
		expiry: JWTExpiryChecker,
		logger: defLogger{},
		now:    time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

// Subscribe registers a listener for session changes.
func (s *SessionStore) Subscribe(listener SessionListener) {
	if listener == nil {
		return
	}
	s.mu.Lock()
	s.listeners = append(s.listeners, listener)
	s.mu.Unlock()
}

// Session returns a snapshot of the current session.
func (s *SessionStore) Session() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// State returns the current lifecycle position.
func (s *SessionStore) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return deriveState(s.session, s.inflight)
}

// Token returns the validated token, empty when logged out.
func (s *SessionStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Token
}

// Restore reads the persisted token once and validates it with the backend.
// Any failure expires the session silently. It returns true when the store
// ends up logged in.
func (s *SessionStore) Restore(ctx context.Context) bool {
	s.mu.Lock()
	if s.restored {
		authenticated := s.session.IsAuthenticated()
		s.mu.Unlock()
		return authenticated
	}
	s.restored = true
	s.mu.Unlock()

	if s.tokens == nil {
		return false
	}

	token, err := s.tokens.Load(ctx)
	if err != nil {
		s.logger.Warn("session restore: unable to load persisted token: %v", err)
		return false
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return false
	}

	s.mu.Lock()
	s.pending = token
	s.inflight++
	s.mu.Unlock()
	s.notify()

	if s.expiry != nil && s.expiry.Expired(token, s.now()) {
		s.logger.Debug("session restore: persisted token expired locally")
		s.settle()
		s.expire(ctx, token, StateValidating, "token expired")
		return false
	}

	profile, err := s.api.Me(ctx, token)
	s.settle()
	if err != nil {
		s.logger.Debug("session restore: who am i failed: %v", err)
		s.expire(ctx, token, StateValidating, err.Error())
		return false
	}

	s.mu.Lock()
	if s.pending != token {
		// logged out while validating
		s.mu.Unlock()
		s.notify()
		return false
	}
	s.pending = ""
	s.session = Session{Token: token, User: copyProfile(profile)}
	s.mu.Unlock()

	s.persist(ctx, token)
	s.record(ctx, SessionEvent{
		EventType: SessionEventRestored,
		Email:     profile.Email,
		Role:      profile.Role,
		From:      StateValidating,
		To:        StateLoggedIn,
	})
	s.notify()

	return true
}

// Login authenticates with the backend and replaces the session on success.
// On failure the session is left as it was.
func (s *SessionStore) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	s.mu.Lock()
	s.inflight++
	s.mu.Unlock()
	s.notify()

	resp, err := s.api.Login(ctx, email, password)

	s.mu.Lock()
	s.inflight--
	before := deriveState(s.session, s.inflight+1)
	if err == nil {
		s.pending = ""
		s.session = Session{Token: resp.Token, User: copyProfile(&resp.User)}
	}
	to := deriveState(s.session, s.inflight)
	s.mu.Unlock()

	if err != nil {
		s.record(ctx, SessionEvent{
			EventType: SessionEventLoginFailure,
			Email:     email,
			From:      before,
			To:        to,
			Metadata:  map[string]any{"error": err.Error()},
		})
		s.notify()
		return nil, err
	}

	s.persist(ctx, resp.Token)
	s.record(ctx, SessionEvent{
		EventType: SessionEventLoginSuccess,
		Email:     resp.User.Email,
		Role:      resp.User.Role,
		From:      before,
		To:        to,
	})
	s.notify()

	return resp, nil
}

// Register creates a member account. It never touches the session.
func (s *SessionStore) Register(ctx context.Context, email, password string) (string, error) {
	message, err := s.api.Register(ctx, email, password)
	if err != nil {
		s.record(ctx, SessionEvent{
			EventType: SessionEventRegisterFailure,
			Email:     email,
			Metadata:  map[string]any{"error": err.Error()},
		})
		return "", err
	}

	s.record(ctx, SessionEvent{
		EventType: SessionEventRegisterSuccess,
		Email:     email,
		Role:      RoleMember,
	})
	return message, nil
}

// Logout clears the session. The backend call is best effort: its outcome is
// only logged and local state is always cleared. Without a token it is a no-op
// and returns false.
func (s *SessionStore) Logout(ctx context.Context) bool {
	s.mu.RLock()
	token := s.session.Token
	if token == "" {
		token = s.pending
	}
	s.mu.RUnlock()

	if token == "" {
		return false
	}

	if err := s.api.Logout(ctx, token); err != nil {
		s.logger.Warn("logout: server call failed, clearing local session anyway: %v", err)
	}

	s.mu.Lock()
	from := deriveState(s.session, s.inflight)
	var email string
	var role Role
	if s.session.User != nil {
		email, role = s.session.User.Email, s.session.User.Role
	}
	s.session = Session{}
	s.pending = ""
	to := deriveState(s.session, s.inflight)
	s.mu.Unlock()

	s.clearPersisted(ctx)
	s.record(ctx, SessionEvent{
		EventType: SessionEventLogout,
		Email:     email,
		Role:      role,
		From:      from,
		To:        to,
	})
	s.notify()

	return true
}

// Refresh re-validates the held token. A failure expires the session the same
// way a failed restore does and returns ErrSessionExpired.
func (s *SessionStore) Refresh(ctx context.Context) error {
	token := s.Token()
	if token == "" {
		return ErrNoSession
	}

	profile, err := s.api.Me(ctx, token)
	if err != nil {
		s.logger.Debug("session refresh: who am i failed: %v", err)
		s.expire(ctx, token, StateLoggedIn, err.Error())
		return ErrSessionExpired
	}

	s.mu.Lock()
	if s.session.Token != token {
		s.mu.Unlock()
		return nil
	}
	s.session = Session{Token: token, User: copyProfile(profile)}
	s.mu.Unlock()

	s.notify()
	return nil
}

// settle marks one validation as finished.
func (s *SessionStore) settle() {
	s.mu.Lock()
	s.inflight--
	s.mu.Unlock()
}

// expire drops token and profile together and removes the persisted copy.
// A token replaced by a newer login or already dropped by logout is left alone.
func (s *SessionStore) expire(ctx context.Context, token string, from SessionState, reason string) {
	s.mu.Lock()
	owned := s.pending == token || s.session.Token == token
	if s.pending == token {
		s.pending = ""
	}
	if s.session.Token == token {
		s.session = Session{}
	}
	to := deriveState(s.session, s.inflight)
	s.mu.Unlock()

	if !owned {
		s.notify()
		return
	}

	s.clearPersisted(ctx)
	s.record(ctx, SessionEvent{
		EventType: SessionEventExpired,
		From:      from,
		To:        to,
		Metadata:  map[string]any{"reason": reason},
	})
	s.notify()
}

func (s *SessionStore) persist(ctx context.Context, token string) {
	if s.tokens == nil {
		return
	}
	if err := s.tokens.Save(ctx, token); err != nil {
		s.logger.Error("session: unable to persist token: %v", err)
	}
}

func (s *SessionStore) clearPersisted(ctx context.Context) {
	if s.tokens == nil {
		return
	}
	if err := s.tokens.Clear(ctx); err != nil {
		s.logger.Error("session: unable to clear persisted token: %v", err)
	}
}

func (s *SessionStore) record(ctx context.Context, event SessionEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now()
	}

	sink := normalizeSessionEventSink(s.sink)
	if err := sink.Record(ctx, event); err != nil {
		s.logger.Warn("session event sink error: %v", err)
	}
}

func (s *SessionStore) notify() {
	s.mu.RLock()
	session := s.snapshotLocked()
	state := deriveState(s.session, s.inflight)
	listeners := make([]SessionListener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.RUnlock()

	for _, l := range listeners {
		l(session, state)
	}
}

func (s *SessionStore) snapshotLocked() Session {
	return Session{Token: s.session.Token, User: copyProfile(s.session.User)}
}

func copyProfile(p *UserProfile) *UserProfile {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}
