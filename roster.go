package signup

import (
	"context"
	"sync"

	goerrors "github.com/goliatone/go-errors"
)

const (
	// CatalogPlaceholder is the no-selection entry of the activity picker.
	CatalogPlaceholder = "-- Select an activity --"
	// CatalogFailureNotice replaces the activity list when loading fails.
	CatalogFailureNotice = "Failed to load activities. Please try again later."

	signupFailedMessage        = "Failed to sign up. Please try again."
	unregisterFailedMessage    = "Failed to unregister. Please try again."
	signupNoSessionMessage     = "You must be logged in to sign up for an activity."
	unregisterNoSessionMessage = "You must be logged in to unregister from an activity."
)

// Notifications is the part of the Notifier used by components.
type Notifications interface {
	Show(text string, kind NotificationKind) NotificationMessage
}

// SelectOption is one entry of the activity picker.
type SelectOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// ParticipantView is a roster entry with its removal target.
type ParticipantView struct {
	Email    string `json:"email"`
	Activity string `json:"activity"`
}

// ActivityView is the rendered form of one activity.
type ActivityView struct {
	Name            string            `json:"name"`
	Description     string            `json:"description"`
	Schedule        string            `json:"schedule"`
	MaxParticipants int               `json:"max_participants"`
	SpotsLeft       int               `json:"spots_left"`
	Participants    []ParticipantView `json:"participants"`
}

// CatalogView is everything a renderer needs to draw the list and the picker.
type CatalogView struct {
	Activities []ActivityView `json:"activities"`
	Options    []SelectOption `json:"options"`
}

// RosterRenderer draws the catalog. Both methods replace the whole list region.
// Renderers may read RosterView.Catalog but must not trigger another load.
type RosterRenderer interface {
	RenderCatalog(view CatalogView) error
	RenderCatalogFailure(notice string) error
}

// BuildCatalogView maps a catalog to its view. SpotsLeft is reported as is,
// including zero and negative values.
func BuildCatalogView(catalog *Catalog) CatalogView {
	view := CatalogView{
		Activities: make([]ActivityView, 0, catalog.Len()),
		Options:    make([]SelectOption, 0, catalog.Len()+1),
	}
	view.Options = append(view.Options, SelectOption{Value: "", Label: CatalogPlaceholder})

	for _, a := range catalog.Activities() {
		participants := make([]ParticipantView, 0, len(a.Participants))
		for _, email := range a.Participants {
			participants = append(participants, ParticipantView{Email: email, Activity: a.Name})
		}

		view.Activities = append(view.Activities, ActivityView{
			Name:            a.Name,
			Description:     a.Description,
			Schedule:        a.Schedule,
			MaxParticipants: a.MaxParticipants,
			SpotsLeft:       a.SpotsLeft(),
			Participants:    participants,
		})
		view.Options = append(view.Options, SelectOption{Value: a.Name, Label: a.Name})
	}

	return view
}

// RosterViewOption customizes the roster view.
type RosterViewOption func(*RosterView)

// WithRosterLogger overrides the logger.
func WithRosterLogger(logger Logger) RosterViewOption {
	return func(r *RosterView) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRosterRenderer sets where the catalog is drawn.
func WithRosterRenderer(renderer RosterRenderer) RosterViewOption {
	return func(r *RosterView) {
		r.renderer = renderer
	}
}

// RosterView owns the catalog snapshot. Every successful fetch replaces the
// snapshot wholesale and every mutation is followed by a full fetch.
type RosterView struct {
	api      API
	tokens   TokenSource
	notifier Notifications
	renderer RosterRenderer
	logger   Logger

	mu      sync.RWMutex
	catalog *Catalog

	// renderMu orders renders; mu is never held while the renderer runs
	renderMu sync.Mutex
}

// NewRosterView wires the view to its collaborators.
func NewRosterView(api API, tokens TokenSource, notifier Notifications, opts ...RosterViewOption) *RosterView {
	r := &RosterView{
		api:      api,
		tokens:   tokens,
		notifier: notifier,
		logger:   defLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Catalog returns the last fetched snapshot, nil before the first success.
func (r *RosterView) Catalog() *Catalog {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.catalog
}

// LoadCatalog fetches the catalog without credentials and redraws everything.
// On failure the list is replaced by CatalogFailureNotice and the previous
// snapshot is kept.
func (r *RosterView) LoadCatalog(ctx context.Context) error {
	catalog, err := r.api.ListActivities(ctx)
	if err != nil {
		r.logger.Error("load catalog: %v", err)
		r.renderMu.Lock()
		defer r.renderMu.Unlock()
		if r.renderer != nil {
			if rerr := r.renderer.RenderCatalogFailure(CatalogFailureNotice); rerr != nil {
				r.logger.Error("render catalog failure: %v", rerr)
			}
		}
		return goerrors.Wrap(err, goerrors.CategoryOperation, ErrCatalogUnavailable.Message).
			WithTextCode(TextCodeCatalogUnavailable)
	}

	view := BuildCatalogView(catalog)

	// last completed fetch wins
	r.renderMu.Lock()
	defer r.renderMu.Unlock()
	r.mu.Lock()
	r.catalog = catalog
	r.mu.Unlock()
	if r.renderer != nil {
		if err := r.renderer.RenderCatalog(view); err != nil {
			r.logger.Error("render catalog: %v", err)
		}
	}

	return nil
}

// Signup registers email for activity and reloads the catalog on success.
func (r *RosterView) Signup(ctx context.Context, email, activity string) error {
	return r.mutate(ctx, email, activity, rosterMutation{
		call:      r.api.Signup,
		validate:  SignupMessage{Email: email, Activity: activity}.Validate,
		noSession: signupNoSessionMessage,
		fallback:  signupFailedMessage,
		operation: OperationSignup,
	})
}

// Unregister removes email from activity and reloads the catalog on success.
func (r *RosterView) Unregister(ctx context.Context, email, activity string) error {
	return r.mutate(ctx, email, activity, rosterMutation{
		call:      r.api.Unregister,
		validate:  UnregisterMessage{Email: email, Activity: activity}.Validate,
		noSession: unregisterNoSessionMessage,
		fallback:  unregisterFailedMessage,
		operation: OperationUnregister,
	})
}

type rosterMutation struct {
	call      func(ctx context.Context, token, activity, email string) (string, error)
	validate  func() error
	noSession string
	fallback  string
	operation string
}

func (r *RosterView) mutate(ctx context.Context, email, activity string, m rosterMutation) error {
	token := ""
	if r.tokens != nil {
		token = r.tokens.Token()
	}

	if token == "" {
		r.notify(m.noSession, NotificationError)
		return ErrNoSession
	}

	if err := m.validate(); err != nil {
		r.notify(err.Error(), NotificationError)
		return invalidInput(err)
	}

	message, err := m.call(ctx, token, activity, email)
	if err != nil {
		r.logger.Warn("%s %s for %q: %v", m.operation, email, activity, err)
		r.notify(UserMessage(err, m.fallback), NotificationError)
		return err
	}

	if message == "" {
		message = m.operation + " successful"
	}
	r.notify(message, NotificationSuccess)

	// LoadCatalog reports its own failure inline
	_ = r.LoadCatalog(ctx)

	return nil
}

func (r *RosterView) notify(text string, kind NotificationKind) {
	if r.notifier == nil {
		return
	}
	r.notifier.Show(text, kind)
}
