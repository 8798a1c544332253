package domain

// =============================================================================
// ACCOUNT DOMAIN TYPES
// =============================================================================

// SessionStatus is the authentication state of the shopper on this device.
type SessionStatus string

const (
	SessionAnonymous      SessionStatus = "anonymous"
	SessionAuthenticating SessionStatus = "authenticating"
	SessionAuthenticated  SessionStatus = "authenticated"
	SessionFailed         SessionStatus = "failed"
)

// User is the profile returned by the bookstore API.
type User struct {
	ID         int    `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	IsVerified bool   `json:"is_verified"`
}

// Tokens holds the bearer credentials issued at login.
type Tokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Session is a snapshot of the authentication state.
// User is non-nil iff Status is SessionAuthenticated.
type Session struct {
	Status SessionStatus `json:"status"`
	User   *User         `json:"user,omitempty"`
	Err    string        `json:"error,omitempty"`
}

// Authenticated reports whether the snapshot is for a logged-in shopper.
func (s Session) Authenticated() bool {
	return s.Status == SessionAuthenticated && s.User != nil
}

// Credentials is the login payload.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Registration is the sign-up payload.
type Registration struct {
	Username  string `json:"username" validate:"required,min=3"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Role      string `json:"role" validate:"required,oneof=buyer seller"`
}
