// Package session tracks whether the shopper on this device is logged in.
//
// Bearer credentials live in durable storage under the keys accessToken and
// refreshToken. A session is authenticated while the stored access token
// carries an exp claim in the future; the signature is never checked since
// the client holds no key.
package session

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dukerupert/folio/internal/api"
	"github.com/dukerupert/folio/internal/crypto"
	"github.com/dukerupert/folio/internal/domain"
	"github.com/dukerupert/folio/internal/storage"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v4"
)

// Storage keys for the bearer credentials.
const (
	AccessTokenKey  = "accessToken"
	RefreshTokenKey = "refreshToken"
)

// Authenticator is the subset of the API client the tracker needs.
type Authenticator interface {
	Login(ctx context.Context, creds domain.Credentials) (*api.LoginResponse, error)
	CurrentUser(ctx context.Context, token string) (*domain.User, error)
}

// Tracker owns the session state machine:
//
//	anonymous|failed -> authenticating -> authenticated|failed
//	authenticated -> anonymous (logout)
type Tracker struct {
	store    storage.Storage
	auth     Authenticator
	sealer   crypto.Encryptor
	validate *validator.Validate
	now      func() time.Time
	logger   *slog.Logger

	mu        sync.Mutex
	status    domain.SessionStatus
	user      *domain.User
	errMsg    string
	epoch     uint64
	expiresAt time.Time
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock overrides the clock used to check token expiry.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithEncryptor seals stored credentials. Values that fail to open are
// treated as absent, so enabling it logs out sessions saved in plaintext.
func WithEncryptor(enc crypto.Encryptor) Option {
	return func(t *Tracker) { t.sealer = enc }
}

// NewTracker creates an anonymous tracker.
func NewTracker(store storage.Storage, auth Authenticator, logger *slog.Logger, opts ...Option) *Tracker {
	t := &Tracker{
		store:    store,
		auth:     auth,
		validate: validator.New(),
		now:      time.Now,
		logger:   logger.With(slog.String("component", "session")),
		status:   domain.SessionAnonymous,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// IsAuthenticated reports whether a stored access token exists and has not
// expired. It has no side effects.
func (t *Tracker) IsAuthenticated(ctx context.Context) bool {
	_, ok := t.Token(ctx)
	return ok
}

// Token returns the stored access token if it is still valid.
func (t *Tracker) Token(ctx context.Context) (string, bool) {
	token := t.readKey(ctx, AccessTokenKey)
	if token == "" {
		return "", false
	}
	if !t.tokenValid(token) {
		return "", false
	}
	return token, true
}

// tokenValid reports whether the token carries an exp claim in the future.
func (t *Tracker) tokenValid(token string) bool {
	exp, ok := tokenExpiry(token)
	return ok && exp.After(t.now())
}

// tokenExpiry decodes the exp claim without verifying the signature.
func tokenExpiry(token string) (time.Time, bool) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// Login exchanges credentials for tokens. On success the tokens are
// persisted and the session becomes authenticated; on failure the session
// becomes failed with a user-visible message. Invalid input is rejected
// before any state change.
func (t *Tracker) Login(ctx context.Context, creds domain.Credentials) (*domain.User, error) {
	const op = "session.login"

	creds.Email = strings.TrimSpace(creds.Email)
	if err := t.validate.Struct(creds); err != nil {
		return nil, domain.NewValidationError(op, "email", "Please enter your email and password")
	}

	valid := t.IsAuthenticated(ctx)
	t.mu.Lock()
	t.expireLocked(!valid)
	if t.status == domain.SessionAuthenticating {
		t.mu.Unlock()
		return nil, domain.Conflict(op, "Login already in progress")
	}
	if t.status == domain.SessionAuthenticated {
		t.mu.Unlock()
		return nil, domain.Conflict(op, "Already logged in")
	}
	t.status = domain.SessionAuthenticating
	t.errMsg = ""
	t.mu.Unlock()

	resp, err := t.auth.Login(ctx, creds)
	if err == nil {
		err = t.persistTokens(ctx, resp.Tokens)
	}
	if err != nil {
		t.mu.Lock()
		t.status = domain.SessionFailed
		t.user = nil
		t.errMsg = domain.ErrorMessage(err)
		t.mu.Unlock()

		t.logger.Info("login failed", "error", err)
		return nil, err
	}

	user := resp.Data
	exp, _ := tokenExpiry(resp.Tokens.Access)
	t.mu.Lock()
	t.status = domain.SessionAuthenticated
	t.user = &user
	t.errMsg = ""
	t.expiresAt = exp
	t.epoch++
	t.mu.Unlock()

	t.logger.Info("logged in", "user_id", user.ID)
	return &user, nil
}

// LoadUser restores the session from stored credentials, typically at
// startup. With no valid token the session is anonymous and (nil, nil) is
// returned. A token the server rejects is cleared.
func (t *Tracker) LoadUser(ctx context.Context) (*domain.User, error) {
	const op = "session.load_user"

	token, ok := t.Token(ctx)
	if !ok {
		t.setAnonymous()
		return nil, nil
	}

	user, err := t.auth.CurrentUser(ctx, token)
	if err != nil {
		if domain.IsCode(err, domain.EUNAUTHORIZED) {
			t.logger.Info("stored credentials rejected, clearing", "error", err)
			_ = t.clearTokens(ctx)
			t.setAnonymous()
			return nil, nil
		}
		t.mu.Lock()
		t.errMsg = domain.ErrorMessage(err)
		t.mu.Unlock()
		return nil, domain.WrapError(err, domain.ErrorCode(err), op, domain.ErrorMessage(err))
	}

	exp, _ := tokenExpiry(token)
	t.mu.Lock()
	if t.status != domain.SessionAuthenticated {
		t.epoch++
	}
	t.status = domain.SessionAuthenticated
	t.user = user
	t.errMsg = ""
	t.expiresAt = exp
	t.mu.Unlock()

	return user, nil
}

// Logout deletes stored credentials and returns to anonymous.
func (t *Tracker) Logout(ctx context.Context) error {
	if err := t.clearTokens(ctx); err != nil {
		return domain.Internal(err, "session.logout", "failed to clear credentials")
	}
	t.setAnonymous()
	t.logger.Info("logged out")
	return nil
}

// Snapshot returns the current session state. A session whose access token
// has expired is reported, and becomes, anonymous.
func (t *Tracker) Snapshot() domain.Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.expireLocked(false)

	s := domain.Session{Status: t.status, Err: t.errMsg}
	if t.user != nil {
		u := *t.user
		s.User = &u
	}
	return s
}

// Epoch increments on every transition into or out of authenticated.
// Async work captures it before I/O and discards its result if it changed.
func (t *Tracker) Epoch() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.expireLocked(false)
	return t.epoch
}

// expireLocked drops an authenticated session once its access token has
// expired, or unconditionally when gone is set (the stored token is no
// longer valid).
func (t *Tracker) expireLocked(gone bool) {
	if t.status != domain.SessionAuthenticated {
		return
	}
	if !gone && t.expiresAt.After(t.now()) {
		return
	}
	t.status = domain.SessionAnonymous
	t.user = nil
	t.errMsg = ""
	t.expiresAt = time.Time{}
	t.epoch++
	t.logger.Info("session expired")
}

func (t *Tracker) setAnonymous() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status == domain.SessionAuthenticated {
		t.epoch++
	}
	t.status = domain.SessionAnonymous
	t.user = nil
	t.errMsg = ""
	t.expiresAt = time.Time{}
}

func (t *Tracker) persistTokens(ctx context.Context, tokens domain.Tokens) error {
	for key, value := range map[string]string{
		AccessTokenKey:  tokens.Access,
		RefreshTokenKey: tokens.Refresh,
	} {
		b := []byte(value)
		if t.sealer != nil {
			sealed, err := t.sealer.Encrypt(b)
			if err != nil {
				return domain.Internal(err, "session.persist", "failed to save credentials")
			}
			b = sealed
		}
		if err := t.store.Put(ctx, key, bytes.NewReader(b), "text/plain"); err != nil {
			return domain.Internal(err, "session.persist", "failed to save credentials")
		}
	}
	return nil
}

func (t *Tracker) clearTokens(ctx context.Context) error {
	if err := t.store.Delete(ctx, AccessTokenKey); err != nil {
		return err
	}
	return t.store.Delete(ctx, RefreshTokenKey)
}

func (t *Tracker) readKey(ctx context.Context, key string) string {
	rc, err := t.store.Get(ctx, key)
	if err != nil {
		if !storage.IsNotFound(err) {
			t.logger.Warn("failed to read credential", "key", key, "error", err)
		}
		return ""
	}
	defer rc.Close()

	b, err := io.ReadAll(rc)
	if err != nil {
		return ""
	}
	b = bytes.TrimSpace(b)
	if t.sealer != nil && len(b) > 0 {
		b, err = t.sealer.Decrypt(b)
		if err != nil {
			t.logger.Warn("stored credential could not be opened", "key", key, "error", err)
			return ""
		}
	}
	return strings.TrimSpace(string(b))
}
