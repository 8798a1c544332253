package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dukerupert/folio/internal/domain"
	"github.com/go-playground/validator/v10"
)

// AccountService provides the shopper's login, registration and logout
// flows and keeps the cart in step with them.
type AccountService interface {
	// Login authenticates and, on the anonymous to authenticated
	// transition, merges the device cart into the server cart.
	Login(ctx context.Context, creds domain.Credentials) (*domain.User, error)

	// Register creates an account. The shopper must verify their email
	// before logging in.
	Register(ctx context.Context, reg domain.Registration) (*domain.User, error)

	// Logout drops credentials and reloads the device cart.
	Logout(ctx context.Context) error

	// Restore resumes a stored session at startup and loads the cart.
	Restore(ctx context.Context) (*domain.User, error)

	// Session returns the current session state.
	Session() domain.Session
}

// SessionManager is the session tracker as seen by the account service.
type SessionManager interface {
	SessionState
	Login(ctx context.Context, creds domain.Credentials) (*domain.User, error)
	LoadUser(ctx context.Context) (*domain.User, error)
	Logout(ctx context.Context) error
	Snapshot() domain.Session
}

// Registrar creates accounts on the server.
type Registrar interface {
	Register(ctx context.Context, reg domain.Registration) (*domain.Envelope[domain.User], error)
}

// LoginRecorder receives login metrics.
type LoginRecorder interface {
	RecordLogin(err error)
}

type accountService struct {
	sessions  SessionManager
	registrar Registrar
	cart      CartService
	metrics   LoginRecorder
	validate  *validator.Validate
	logger    *slog.Logger
}

// NewAccountService creates a new account service.
func NewAccountService(sessions SessionManager, registrar Registrar, cart CartService, metrics LoginRecorder, logger *slog.Logger) AccountService {
	return &accountService{
		sessions:  sessions,
		registrar: registrar,
		cart:      cart,
		metrics:   metrics,
		validate:  newValidator(),
		logger:    logger.With(slog.String("component", "account")),
	}
}

func (s *accountService) Login(ctx context.Context, creds domain.Credentials) (*domain.User, error) {
	const op = "account.login"

	creds.Email = strings.TrimSpace(creds.Email)
	if err := s.validate.Struct(creds); err != nil {
		return nil, validationError(op, err)
	}

	wasAuthenticated := s.sessions.IsAuthenticated(ctx)

	user, err := s.sessions.Login(ctx, creds)
	if s.metrics != nil {
		s.metrics.RecordLogin(err)
	}
	if err != nil {
		return nil, err
	}

	if !wasAuthenticated {
		merged, err := s.cart.MergeLocalCart(ctx)
		if err != nil {
			// Lines not yet merged stay in the local store for the next login.
			s.logger.Warn("failed to merge local cart after login", "user_id", user.ID, "merged", merged, "error", err)
		}
		if merged > 0 && err == nil {
			return user, nil
		}
	}

	if _, err := s.cart.FetchCart(ctx); err != nil {
		s.logger.Warn("failed to load cart after login", "user_id", user.ID, "error", err)
	}
	return user, nil
}

func (s *accountService) Register(ctx context.Context, reg domain.Registration) (*domain.User, error) {
	const op = "account.register"

	reg.Email = strings.TrimSpace(reg.Email)
	reg.Username = strings.TrimSpace(reg.Username)
	if reg.Role == "" {
		reg.Role = "buyer"
	}
	if err := s.validate.Struct(reg); err != nil {
		return nil, validationError(op, err)
	}

	env, err := s.registrar.Register(ctx, reg)
	if err != nil {
		return nil, err
	}

	s.logger.Info("account registered", "username", reg.Username)
	return &env.Data, nil
}

func (s *accountService) Logout(ctx context.Context) error {
	if err := s.sessions.Logout(ctx); err != nil {
		return err
	}
	if _, err := s.cart.FetchCart(ctx); err != nil {
		s.logger.Warn("failed to reload local cart after logout", "error", err)
	}
	return nil
}

func (s *accountService) Restore(ctx context.Context) (*domain.User, error) {
	user, err := s.sessions.LoadUser(ctx)
	if err != nil {
		s.logger.Warn("failed to restore session", "error", err)
	}
	if _, ferr := s.cart.FetchCart(ctx); ferr != nil {
		s.logger.Warn("failed to load cart", "error", ferr)
	}
	return user, err
}

func (s *accountService) Session() domain.Session {
	return s.sessions.Snapshot()
}
