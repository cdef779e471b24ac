package auth

type contextKey string

// SessionContextKey carries the *store.SessionRecord of the authenticated
// caller through the request context.
const SessionContextKey contextKey = "session"

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
