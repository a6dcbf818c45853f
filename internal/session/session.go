package session

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"go.uber.org/zap"
)

var (
	ErrInFlight     = errors.New("another session operation is in progress")
	ErrNoCredential = errors.New("no stored credential")
	ErrUnauthorized = errors.New("credential rejected")
	ErrNoUser       = errors.New("auth server returned no user")
)

const (
	loginFailed        = "Login failed"
	registrationFailed = "Registration failed"
)

// User is the authenticated identity returned by the auth server.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AuthClient is the auth collaborator.
type AuthClient interface {
	Login(ctx context.Context, email, password string) (string, error)
	Register(ctx context.Context, name, email, password string) (string, error)
	CurrentUser(ctx context.Context, token string) (*User, error)
}

// CredentialStore persists the bearer credential across restarts.
// Load returns ErrNoCredential when nothing is stored.
type CredentialStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// Error is a failed login or registration. Message is safe to show to the user.
type Error struct {
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Err }

// Session holds the current user and credential.
type Session struct {
	mu       sync.Mutex
	client   AuthClient
	store    CredentialStore
	logger   *zap.Logger
	user     *User
	token    string
	inFlight bool
}

func New(client AuthClient, store CredentialStore, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		client: client,
		store:  store,
		logger: logger.Named("session"),
	}
}

// Bootstrap restores a stored credential by fetching its user. Any failure
// discards the credential and leaves the session anonymous.
func (s *Session) Bootstrap(ctx context.Context) {
	if !s.begin() {
		s.logger.Debug("bootstrap skipped, operation in flight")
		return
	}
	defer s.end()

	token, err := s.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoCredential) {
			s.logger.Debug("credential load failed", zap.Error(err))
		}
		return
	}

	user, err := s.client.CurrentUser(ctx, token)
	if err == nil && user == nil {
		err = ErrNoUser
	}
	if err != nil {
		s.logger.Debug("stored credential rejected", zap.Error(err))
		if err := s.store.Clear(ctx); err != nil {
			s.logger.Debug("credential clear failed", zap.Error(err))
		}
		s.set(nil, "")
		return
	}
	s.set(user, token)
}

// Login authenticates with email and password.
func (s *Session) Login(ctx context.Context, email, password string) error {
	return s.authenticate(ctx, "login", loginFailed, func() (string, error) {
		return s.client.Login(ctx, email, password)
	})
}

// Register creates an account and signs in to it.
func (s *Session) Register(ctx context.Context, name, email, password string) error {
	return s.authenticate(ctx, "register", registrationFailed, func() (string, error) {
		return s.client.Register(ctx, name, email, password)
	})
}

func (s *Session) authenticate(ctx context.Context, op, fallback string, obtain func() (string, error)) error {
	if !s.begin() {
		return ErrInFlight
	}
	defer s.end()

	token, err := obtain()
	if err != nil {
		s.set(nil, "")
		return &Error{Op: op, Message: userMessage(err, fallback), Err: err}
	}

	if err := s.store.Save(ctx, token); err != nil {
		s.logger.Warn("credential not persisted", zap.String("op", op), zap.Error(err))
	}

	user, err := s.client.CurrentUser(ctx, token)
	if err == nil && user == nil {
		err = ErrNoUser
	}
	if err != nil {
		_ = s.store.Clear(ctx)
		s.set(nil, "")
		return &Error{Op: op, Message: userMessage(err, fallback), Err: err}
	}

	s.set(user, token)
	s.logger.Info("signed in", zap.String("op", op), zap.String("user_id", user.ID))
	return nil
}

// Logout discards the credential and user.
func (s *Session) Logout(ctx context.Context) {
	s.set(nil, "")
	if err := s.store.Clear(ctx); err != nil {
		s.logger.Warn("credential clear failed", zap.Error(err))
	}
}

func (s *Session) User() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user != nil && s.token != ""
}

// Authorize attaches the bearer credential to req when signed in.
func (s *Session) Authorize(req *http.Request) {
	if token := s.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func (s *Session) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return false
	}
	s.inFlight = true
	return true
}

func (s *Session) end() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
}

func (s *Session) set(user *User, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
	s.token = token
}

func userMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
