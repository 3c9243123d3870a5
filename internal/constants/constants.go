package constants

const (
	// ContextKeyUserID is the key under which the authenticated user id is kept,
	// both in the session and in the gin context.
	ContextKeyUserID = "user_id"

	// ContextKeyRequestID holds the per-request correlation id.
	ContextKeyRequestID = "request_id"

	// SessionCookieName is the name of the session cookie.
	SessionCookieName = "task_session"

	HeaderRequestID = "X-Request-ID"
)

// Registration rules
const (
	MinUsernameLength = 4
	MinPasswordLength = 8
)

// Task field limits
const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 2000
)

// MaxSuggestedTasks caps how many tasks a single suggestion request may return.
const MaxSuggestedTasks = 20
