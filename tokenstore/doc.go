// Package tokenstore holds the durable copies of the session token used by
// signup.SessionStore. Every store keeps a single opaque string under a fixed
// key, returns an empty string when nothing is stored, and treats Clear on an
// empty store as a no-op.
package tokenstore
