package signup

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-command"
	goerrors "github.com/goliatone/go-errors"
)

const (
	loginFailedMessage      = "Login failed. Please try again."
	registerFailedMessage   = "Registration failed. Please try again."
	loginSucceededMessage   = "Login successful"
	registerSuccessMessage  = "Registration successful. You can now log in."
	logoutCompletedMessage  = "You have been logged out."
	sessionRefreshedMessage = "Session refreshed"
)

var (
	_ command.Commander[LoginMessage]          = (*LoginHandler)(nil)
	_ command.Commander[LogoutMessage]         = (*LogoutHandler)(nil)
	_ command.Commander[RegisterMessage]       = (*RegisterHandler)(nil)
	_ command.Commander[RefreshSessionMessage] = (*RefreshSessionHandler)(nil)
)

type LoginMessage struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (m LoginMessage) Type() string { return "session.login" }

func (m LoginMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Email, validation.Required, is.Email),
		validation.Field(&m.Password, validation.Required),
	)
}

type LogoutMessage struct{}

func (m LogoutMessage) Type() string { return "session.logout" }

func (m LogoutMessage) Validate() error { return nil }

type RegisterMessage struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (m RegisterMessage) Type() string { return "session.register" }

func (m RegisterMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Email, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&m.Password, validation.Required, validation.Length(1, 128)),
	)
}

type RefreshSessionMessage struct{}

func (m RefreshSessionMessage) Type() string { return "session.refresh" }

func (m RefreshSessionMessage) Validate() error { return nil }

type LoginHandler struct {
	session  *SessionStore
	notifier Notifications
	logger   Logger
}

func (h *LoginHandler) Execute(ctx context.Context, msg LoginMessage) error {
	msg.Email = normalizeEmail(msg.Email)
	if err := msg.Validate(); err != nil {
		h.notifier.Show(err.Error(), NotificationError)
		return invalidInput(err)
	}

	resp, err := h.session.Login(ctx, msg.Email, msg.Password)
	if err != nil {
		h.logger.Warn("login %s: %v", msg.Email, err)
		h.notifier.Show(UserMessage(err, loginFailedMessage), NotificationError)
		return err
	}

	text := resp.Message
	if text == "" {
		text = loginSucceededMessage
	}
	h.notifier.Show(text, NotificationSuccess)
	return nil
}

type LogoutHandler struct {
	session  *SessionStore
	notifier Notifications
}

func (h *LogoutHandler) Execute(ctx context.Context, _ LogoutMessage) error {
	if !h.session.Logout(ctx) {
		return nil
	}
	h.notifier.Show(logoutCompletedMessage, NotificationInfo)
	return nil
}

type RegisterHandler struct {
	session  *SessionStore
	notifier Notifications
	logger   Logger
}

func (h *RegisterHandler) Execute(ctx context.Context, msg RegisterMessage) error {
	msg.Email = normalizeEmail(msg.Email)
	if err := msg.Validate(); err != nil {
		h.notifier.Show(err.Error(), NotificationError)
		return invalidInput(err)
	}

	message, err := h.session.Register(ctx, msg.Email, msg.Password)
	if err != nil {
		h.logger.Warn("register %s: %v", msg.Email, err)
		h.notifier.Show(UserMessage(err, registerFailedMessage), NotificationError)
		return err
	}

	if message == "" {
		message = registerSuccessMessage
	}
	h.notifier.Show(message, NotificationSuccess)
	return nil
}

type RefreshSessionHandler struct {
	session  *SessionStore
	notifier Notifications
}

func (h *RefreshSessionHandler) Execute(ctx context.Context, _ RefreshSessionMessage) error {
	// expiry stays silent, the gate re-render is the only visible effect
	if err := h.session.Refresh(ctx); err != nil {
		return err
	}
	h.notifier.Show(sessionRefreshedMessage, NotificationInfo)
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func invalidInput(err error) error {
	return goerrors.Wrap(err, goerrors.CategoryValidation, err.Error()).
		WithTextCode(TextCodeInvalidInput).
		WithCode(goerrors.CodeBadRequest)
}
