package signup

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-command"
)

var (
	_ command.Commander[LoadCatalogMessage] = (*LoadCatalogHandler)(nil)
	_ command.Commander[SignupMessage]      = (*SignupHandler)(nil)
	_ command.Commander[UnregisterMessage]  = (*UnregisterHandler)(nil)
)

type LoadCatalogMessage struct{}

func (m LoadCatalogMessage) Type() string { return "roster.load" }

func (m LoadCatalogMessage) Validate() error { return nil }

// SignupMessage signs Email up for Activity. An empty Email means the
// logged in user.
type SignupMessage struct {
	Email    string `json:"email"`
	Activity string `json:"activity"`
}

func (m SignupMessage) Type() string { return "roster.signup" }

// Validate checks the resolved target, so it runs after the session email
// has been filled in.
func (m SignupMessage) Validate() error {
	return validateRosterInput(normalizeEmail(m.Email), m.Activity)
}

// UnregisterMessage removes Email from Activity. An empty Email means the
// logged in user.
type UnregisterMessage struct {
	Email    string `json:"email"`
	Activity string `json:"activity"`
}

func (m UnregisterMessage) Type() string { return "roster.unregister" }

func (m UnregisterMessage) Validate() error {
	return validateRosterInput(normalizeEmail(m.Email), m.Activity)
}

type rosterInput struct {
	Email    string
	Activity string
}

func validateRosterInput(email, activity string) error {
	in := rosterInput{Email: email, Activity: strings.TrimSpace(activity)}
	return validation.ValidateStruct(&in,
		validation.Field(&in.Activity, validation.Required),
		validation.Field(&in.Email, validation.Required, is.Email),
	)
}

type LoadCatalogHandler struct {
	roster *RosterView
}

// Execute never fails the dispatch, a failed load is drawn inline.
func (h *LoadCatalogHandler) Execute(ctx context.Context, _ LoadCatalogMessage) error {
	_ = h.roster.LoadCatalog(ctx)
	return nil
}

type SignupHandler struct {
	roster  *RosterView
	session *SessionStore
}

func (h *SignupHandler) Execute(ctx context.Context, msg SignupMessage) error {
	return h.roster.Signup(ctx, targetEmail(h.session, msg.Email), msg.Activity)
}

type UnregisterHandler struct {
	roster  *RosterView
	session *SessionStore
}

func (h *UnregisterHandler) Execute(ctx context.Context, msg UnregisterMessage) error {
	return h.roster.Unregister(ctx, targetEmail(h.session, msg.Email), msg.Activity)
}

func targetEmail(session *SessionStore, email string) string {
	email = normalizeEmail(email)
	if email != "" || session == nil {
		return email
	}
	if user := session.Session().User; user != nil {
		return user.Email
	}
	return ""
}
