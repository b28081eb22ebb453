package signup

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultNotificationTTL is how long a message stays visible.
const DefaultNotificationTTL = 5 * time.Second

// Timer is the handle returned by a scheduler. *time.Timer satisfies it.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f to run once after d.
type AfterFunc func(d time.Duration, f func()) Timer

// NotificationDisplay presents the single visible message. Calls are made
// while the notifier holds its lock, implementations must not call back into
// the Notifier.
type NotificationDisplay interface {
	ShowNotification(msg NotificationMessage) error
	HideNotification(msg NotificationMessage) error
}

// NotifierOption customizes the notifier.
type NotifierOption func(*Notifier)

// WithNotificationTTL overrides the auto hide delay.
func WithNotificationTTL(ttl time.Duration) NotifierOption {
	return func(n *Notifier) {
		if ttl > 0 {
			n.ttl = ttl
		}
	}
}

// WithNotificationDisplay sets where messages are drawn.
func WithNotificationDisplay(display NotificationDisplay) NotifierOption {
	return func(n *Notifier) {
		n.display = display
	}
}

// WithNotifierClock injects a custom clock (useful for tests).
func WithNotifierClock(clock func() time.Time) NotifierOption {
	return func(n *Notifier) {
		if clock != nil {
			n.now = clock
		}
	}
}

// WithNotifierScheduler replaces time.AfterFunc (useful for tests).
func WithNotifierScheduler(after AfterFunc) NotifierOption {
	return func(n *Notifier) {
		if after != nil {
			n.after = after
		}
	}
}

// WithNotifierLogger overrides the logger used for display failures.
func WithNotifierLogger(logger Logger) NotifierOption {
	return func(n *Notifier) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// Notifier keeps at most one visible message. A new message replaces the
// current one and restarts the hide timer. No history is kept.
type Notifier struct {
	mu      sync.Mutex
	current *NotificationMessage
	timer   Timer

	ttl     time.Duration
	now     func() time.Time
	after   AfterFunc
	display NotificationDisplay
	logger  Logger
}

// NewNotifier returns an empty notifier.
func NewNotifier(opts ...NotifierOption) *Notifier {
	n := &Notifier{
		ttl: DefaultNotificationTTL,
		now: time.Now,
		after: func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		},
		logger: defLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(n)
		}
	}
	return n
}

// Show replaces the visible message and arms the hide timer.
func (n *Notifier) Show(text string, kind NotificationKind) NotificationMessage {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}

	now := n.now()
	msg := NotificationMessage{
		ID:        uuid.NewString(),
		Text:      text,
		Kind:      kind,
		ShownAt:   now,
		ExpiresAt: now.Add(n.ttl),
	}
	n.current = &msg

	if n.display != nil {
		if err := n.display.ShowNotification(msg); err != nil {
			n.logger.Warn("notification display failed: %v", err)
		}
	}

	id := msg.ID
	n.timer = n.after(n.ttl, func() {
		n.expire(id)
	})

	return msg
}

// Success shows a success message.
func (n *Notifier) Success(text string) NotificationMessage {
	return n.Show(text, NotificationSuccess)
}

// Error shows an error message.
func (n *Notifier) Error(text string) NotificationMessage {
	return n.Show(text, NotificationError)
}

// Info shows an informational message.
func (n *Notifier) Info(text string) NotificationMessage {
	return n.Show(text, NotificationInfo)
}

// Current returns the visible message, if any.
func (n *Notifier) Current() (NotificationMessage, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.current == nil {
		return NotificationMessage{}, false
	}
	if !n.now().Before(n.current.ExpiresAt) {
		return NotificationMessage{}, false
	}
	return *n.current, true
}

// Hide removes the visible message immediately.
func (n *Notifier) Hide() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	n.hideLocked()
}

func (n *Notifier) expire(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	// a newer message owns the slot
	if n.current == nil || n.current.ID != id {
		return
	}
	n.timer = nil
	n.hideLocked()
}

func (n *Notifier) hideLocked() {
	if n.current == nil {
		return
	}
	msg := *n.current
	n.current = nil

	if n.display != nil {
		if err := n.display.HideNotification(msg); err != nil {
			n.logger.Warn("notification display failed: %v", err)
		}
	}
}
