// Package signup is a client for the club activity signup service. It keeps
// the authentication session, derives what a role may see, and keeps the
// activity roster in step with the backend.
//
// Session lifecycle:
//   - SessionStore is the single writer of the Session (token + profile). The
//     token is mirrored to a TokenStore on every write and removed on logout
//     or expiry. Restore reads the persisted token once at startup and checks
//     it against GET /auth/me; any failure drops the session silently.
//   - Logout is best effort against the backend and always clears local state.
//
// Views:
//   - DeriveGate is a pure function of the Session. It is recomputed in full
//     after every session change.
//   - RosterView owns the catalog snapshot. Mutations never patch it; every
//     successful signup or unregister is followed by a full reload, and the
//     last completed reload wins.
//   - Notifier shows one transient message at a time. A catalog load failure
//     is drawn inline in place of the list instead.
//
// Controller ties these together with one command per user event.
package signup
