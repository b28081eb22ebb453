package signup

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ExpiryChecker reports whether a persisted token is already known to be
// expired without asking the backend.
type ExpiryChecker interface {
	Expired(token string, now time.Time) bool
}

// ExpiryCheckerFunc adapts a function into an ExpiryChecker.
type ExpiryCheckerFunc func(token string, now time.Time) bool

// Expired satisfies the ExpiryChecker interface.
func (f ExpiryCheckerFunc) Expired(token string, now time.Time) bool {
	if f == nil {
		return false
	}
	return f(token, now)
}

// TokenExpiry returns the `exp` claim of a JWT shaped token. The signature is
// not verified, the backend remains the authority. Opaque tokens return false.
func TokenExpiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil || parsed == nil {
		return time.Time{}, false
	}

	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}

	return exp.Time, true
}

// JWTExpiryChecker treats tokens with a past `exp` claim as expired.
var JWTExpiryChecker = ExpiryCheckerFunc(func(token string, now time.Time) bool {
	exp, ok := TokenExpiry(token)
	if !ok {
		return false
	}
	return !now.Before(exp)
})
