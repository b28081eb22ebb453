package signup

// SessionState is the lifecycle position of a SessionStore.
type SessionState string

const (
	StateLoggedOut  SessionState = "logged_out"
	StateValidating SessionState = "validating"
	StateLoggedIn   SessionState = "logged_in"
)

func (s SessionState) String() string {
	return string(s)
}

// deriveState computes the lifecycle position from the data the store holds.
// A validated session always wins. Otherwise any outstanding validation
// (login or restore) keeps the store in Validating until it settles.
func deriveState(session Session, inflight int) SessionState {
	switch {
	case session.IsAuthenticated():
		return StateLoggedIn
	case inflight > 0:
		return StateValidating
	default:
		return StateLoggedOut
	}
}
