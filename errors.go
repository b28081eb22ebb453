package signup

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeNoSession          = "SIGNUP_NO_SESSION"
	TextCodeSessionExpired     = "SIGNUP_SESSION_EXPIRED"
	TextCodeCatalogUnavailable = "SIGNUP_CATALOG_UNAVAILABLE"
	TextCodeInvalidInput       = "SIGNUP_INVALID_INPUT"
	TextCodeUnknownCommand     = "SIGNUP_UNKNOWN_COMMAND"
)

// ErrNoSession is returned when an authenticated operation runs without a token.
var ErrNoSession = goerrors.New("you must be logged in to perform this action", goerrors.CategoryAuth).
	WithTextCode(TextCodeNoSession).
	WithCode(goerrors.CodeUnauthorized)

// ErrSessionExpired is returned when the held token no longer resolves to a user.
var ErrSessionExpired = goerrors.New("session expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeSessionExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrCatalogUnavailable is returned when the activity catalog cannot be fetched or parsed.
var ErrCatalogUnavailable = goerrors.New("activity catalog unavailable", goerrors.CategoryOperation).
	WithTextCode(TextCodeCatalogUnavailable).
	WithCode(goerrors.CodeInternal)

// ErrInvalidInput is returned when a command fails local validation.
var ErrInvalidInput = goerrors.New("invalid input", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidInput).
	WithCode(goerrors.CodeBadRequest)

// ErrUnknownCommand is returned by the controller for messages it has no handler for.
var ErrUnknownCommand = goerrors.New("unknown command", goerrors.CategoryBadInput).
	WithTextCode(TextCodeUnknownCommand).
	WithCode(goerrors.CodeBadRequest)

// APIError captures a non-success backend response.
type APIError struct {
	Operation string
	Status    int
	Detail    string
	Raw       json.RawMessage
}

func (e *APIError) Error() string {
	if e == nil {
		return "api error"
	}

	scope := "api"
	if e.Operation != "" {
		scope = e.Operation
	}

	if e.Detail != "" {
		return fmt.Sprintf("%s failed (%d): %s", scope, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s failed (%d)", scope, e.Status)
}

func (e *APIError) Metadata() map[string]any {
	if e == nil {
		return nil
	}

	meta := map[string]any{}
	if e.Operation != "" {
		meta["operation"] = e.Operation
	}
	if e.Status != 0 {
		meta["status"] = e.Status
	}
	if e.Detail != "" {
		meta["detail"] = e.Detail
	}
	return meta
}

// IsUnauthorized reports whether the backend rejected the credential.
func (e *APIError) IsUnauthorized() bool {
	return e != nil && (e.Status == 401 || e.Status == 403)
}

// UserMessage returns the text that should be shown to a user for err.
// Server supplied details are returned verbatim, validation errors return
// their own message and everything else collapses to fallback.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr != nil {
		if strings.TrimSpace(apiErr.Detail) != "" {
			return apiErr.Detail
		}
		return fallback
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr != nil {
		if richErr.Category == goerrors.CategoryValidation || richErr.Category == goerrors.CategoryAuth {
			return richErr.Message
		}
	}

	return fallback
}

// detailFromBody extracts the reason from a `{detail}` body. Validation
// failures carry a list of objects, the first `msg` wins.
func detailFromBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(payload.Detail, &text); err == nil {
		return text
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(payload.Detail, &items); err == nil {
		for _, item := range items {
			if item.Msg != "" {
				return item.Msg
			}
		}
	}

	return ""
}

func wrapTransportError(err error, operation string) error {
	return goerrors.Wrap(err, goerrors.CategoryOperation, operation+" request failed").
		WithMetadata(map[string]any{"operation": operation})
}
