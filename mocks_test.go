package signup_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	signup "github.com/goliatone/go-signup"
	"github.com/stretchr/testify/mock"
)

// MockAPI implements signup.API
type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) ListActivities(ctx context.Context) (*signup.Catalog, error) {
	args := m.Called(ctx)
	catalog, _ := args.Get(0).(*signup.Catalog)
	return catalog, args.Error(1)
}

func (m *MockAPI) Signup(ctx context.Context, token, activity, email string) (string, error) {
	args := m.Called(ctx, token, activity, email)
	return args.String(0), args.Error(1)
}

func (m *MockAPI) Unregister(ctx context.Context, token, activity, email string) (string, error) {
	args := m.Called(ctx, token, activity, email)
	return args.String(0), args.Error(1)
}

func (m *MockAPI) Login(ctx context.Context, email, password string) (*signup.LoginResponse, error) {
	args := m.Called(ctx, email, password)
	resp, _ := args.Get(0).(*signup.LoginResponse)
	return resp, args.Error(1)
}

func (m *MockAPI) Register(ctx context.Context, email, password string) (string, error) {
	args := m.Called(ctx, email, password)
	return args.String(0), args.Error(1)
}

func (m *MockAPI) Logout(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockAPI) Me(ctx context.Context, token string) (*signup.UserProfile, error) {
	args := m.Called(ctx, token)
	profile, _ := args.Get(0).(*signup.UserProfile)
	return profile, args.Error(1)
}

// MemoryTokens is a TokenStore that records every write.
type MemoryTokens struct {
	mu      sync.Mutex
	token   string
	saves   []string
	clears  int
	loadErr error
}

func (m *MemoryTokens) Load(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, m.loadErr
}

func (m *MemoryTokens) Save(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	m.saves = append(m.saves, token)
	return nil
}

func (m *MemoryTokens) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.clears++
	return nil
}

func (m *MemoryTokens) Stored() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

func (m *MemoryTokens) Clears() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clears
}

// RecordingNotifier implements signup.Notifications
type RecordingNotifier struct {
	mu       sync.Mutex
	messages []signup.NotificationMessage
}

func (r *RecordingNotifier) Show(text string, kind signup.NotificationKind) signup.NotificationMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg := signup.NotificationMessage{Text: text, Kind: kind}
	r.messages = append(r.messages, msg)
	return msg
}

func (r *RecordingNotifier) Messages() []signup.NotificationMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]signup.NotificationMessage, len(r.messages))
	copy(out, r.messages)
	return out
}

func (r *RecordingNotifier) Last() signup.NotificationMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return signup.NotificationMessage{}
	}
	return r.messages[len(r.messages)-1]
}

// RecordingRoster implements signup.RosterRenderer
type RecordingRoster struct {
	mu       sync.Mutex
	views    []signup.CatalogView
	failures []string
}

func (r *RecordingRoster) RenderCatalog(view signup.CatalogView) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views = append(r.views, view)
	return nil
}

func (r *RecordingRoster) RenderCatalogFailure(notice string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, notice)
	return nil
}

func (r *RecordingRoster) Views() []signup.CatalogView {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]signup.CatalogView(nil), r.views...)
}

func (r *RecordingRoster) Failures() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.failures...)
}

// RecordingSink captures session events.
type RecordingSink struct {
	mu     sync.Mutex
	events []signup.SessionEvent
}

func (r *RecordingSink) Record(_ context.Context, event signup.SessionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *RecordingSink) Events() []signup.SessionEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]signup.SessionEvent(nil), r.events...)
}

func (r *RecordingSink) Types() []signup.SessionEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]signup.SessionEventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.EventType)
	}
	return out
}

// fakeClock is a manual clock plus scheduler for the Notifier.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	fn      func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) signup.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), fn: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves time forward and fires due timers outside the clock lock.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.fn()
	}
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	wasActive := !t.stopped && !t.fired
	t.stopped = true
	return wasActive
}

// RecordingLogger keeps formatted lines per level.
type RecordingLogger struct {
	mu    sync.Mutex
	lines map[string][]string
}

func (l *RecordingLogger) Debug(format string, args ...any) { l.log("debug", format, args...) }
func (l *RecordingLogger) Info(format string, args ...any)  { l.log("info", format, args...) }
func (l *RecordingLogger) Warn(format string, args ...any)  { l.log("warn", format, args...) }
func (l *RecordingLogger) Error(format string, args ...any) { l.log("error", format, args...) }

func (l *RecordingLogger) log(level, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.lines == nil {
		l.lines = map[string][]string{}
	}
	l.lines[level] = append(l.lines[level], fmt.Sprintf(format, args...))
}

func (l *RecordingLogger) Lines(level string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines[level]...)
}
