package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"robohub/internal/domain"
	"robohub/internal/validation"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	loginFailedMessage    = "Login failed. Please check your credentials."
	registerFailedMessage = "Registration failed. Please try again."
)

// Reader is the read side of the session, shared with every component that
// needs to know who is signed in.
type Reader interface {
	CurrentUser() *domain.User
	Token() string
	IsAuthenticated() bool
	IsLoading() bool
}

// Authenticator is the backend surface the store needs.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*domain.AuthResponse, error)
	Register(ctx context.Context, email, password, fullName string) (*domain.AuthResponse, error)
	Me(ctx context.Context) (*domain.User, error)
}

// LoginForm is the sign-in form.
type LoginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterForm is the sign-up form. ConfirmPassword is checked locally and
// never sent.
type RegisterForm struct {
	FullName        string `json:"full_name" validate:"notblank"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"eqfield=Password"`
}

// Validate checks the form, reporting "Passwords do not match" first since
// that is the error users hit most.
func (f RegisterForm) Validate() error {
	if f.Password != f.ConfirmPassword {
		return domain.NewValidationError("Passwords do not match",
			domain.FieldError{Field: "confirm_password", Message: "Passwords do not match"})
	}
	return validation.Struct(f, "Please fill in all required fields")
}

// Store is the single writer of the session. It owns the token, persists it
// through a TokenStore and exposes the current user to readers.
type Store struct {
	mu      sync.RWMutex
	user    *domain.User
	token   string
	loading bool

	bootMu   sync.Mutex
	restored bool

	api    Authenticator
	tokens TokenStore
	logger *zap.Logger
	now    func() time.Time
}

// NewStore creates a store in the loading state; call Restore at boot.
func NewStore(tokens TokenStore, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tokens == nil {
		tokens = NewMemoryTokenStore()
	}
	return &Store{
		loading: true,
		tokens:  tokens,
		logger:  logger,
		now:     time.Now,
	}
}

// Connect sets the backend used for login, register and identity checks.
// The API client usually reads its token from this same store, hence the
// two-step construction.
func (s *Store) Connect(api Authenticator) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.api = api
	return s
}

func (s *Store) CurrentUser() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Restore brings back a persisted session. An expired or rejected token is
// cleared and the session stays signed out without an error; only a broken
// token store is reported. Restore runs its identity check at most once.
func (s *Store) Restore(ctx context.Context) error {
	s.bootMu.Lock()
	defer s.bootMu.Unlock()
	defer s.setLoading(false)

	if s.restored {
		return nil
	}
	s.restored = true

	token, err := s.tokens.Load(ctx)
	if errors.Is(err, ErrNoToken) {
		s.logger.Debug("No persisted session")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load persisted token: %w", err)
	}

	if exp, ok := tokenExpiry(token); ok && !exp.After(s.now()) {
		s.logger.Info("Persisted token expired, signing out", zap.Time("expired_at", exp))
		s.discard(ctx)
		return nil
	}

	s.mu.Lock()
	s.token = token
	api := s.api
	s.mu.Unlock()

	if api == nil {
		return errors.New("session store has no authenticator")
	}

	user, err := api.Me(ctx)
	if err != nil {
		s.logger.Info("Persisted token rejected, signing out", zap.Error(err))
		s.discard(ctx)
		return nil
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()

	s.logger.Info("Session restored", zap.String("user_id", user.ID))
	return nil
}

// Login signs in with email and password.
func (s *Store) Login(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	if err := validation.Struct(LoginForm{Email: email, Password: password}, "Please enter your email and password"); err != nil {
		return nil, err
	}

	api, err := s.authenticator()
	if err != nil {
		return nil, err
	}

	resp, err := api.Login(ctx, email, password)
	if err != nil {
		s.logger.Debug("Login failed", zap.Error(err))
		return nil, asAuthError(err, loginFailedMessage)
	}

	s.establish(ctx, resp)
	s.logger.Info("User logged in", zap.String("user_id", resp.User.ID))
	return s.CurrentUser(), nil
}

// Register creates an account and signs it in.
func (s *Store) Register(ctx context.Context, email, password, fullName string) (*domain.User, error) {
	form := RegisterForm{
		FullName:        strings.TrimSpace(fullName),
		Email:           strings.TrimSpace(email),
		Password:        password,
		ConfirmPassword: password,
	}
	if err := form.Validate(); err != nil {
		return nil, err
	}

	api, err := s.authenticator()
	if err != nil {
		return nil, err
	}

	resp, err := api.Register(ctx, form.Email, form.Password, form.FullName)
	if err != nil {
		s.logger.Debug("Registration failed", zap.Error(err))
		return nil, asAuthError(err, registerFailedMessage)
	}

	s.establish(ctx, resp)
	s.logger.Info("User registered", zap.String("user_id", resp.User.ID))
	return s.CurrentUser(), nil
}

// Logout forgets the token and the user. No server call is made.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.mu.Unlock()

	if err := s.tokens.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear persisted token: %w", err)
	}
	s.logger.Info("User logged out")
	return nil
}

func (s *Store) establish(ctx context.Context, resp *domain.AuthResponse) {
	user := resp.User
	s.mu.Lock()
	s.token = resp.AccessToken
	s.user = &user
	s.loading = false
	s.mu.Unlock()

	exp, _ := tokenExpiry(resp.AccessToken)
	if err := s.tokens.Save(ctx, resp.AccessToken, exp); err != nil {
		// the in-memory session still works; only persistence is lost
		s.logger.Warn("Failed to persist token", zap.Error(err))
	}
}

func (s *Store) discard(ctx context.Context) {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.mu.Unlock()

	if err := s.tokens.Clear(ctx); err != nil {
		s.logger.Warn("Failed to clear persisted token", zap.Error(err))
	}
}

func (s *Store) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

func (s *Store) authenticator() (Authenticator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.api == nil {
		return nil, errors.New("session store has no authenticator")
	}
	return s.api, nil
}

// asAuthError turns any login/register failure into an AuthError whose
// message is the backend's detail when it has one.
func asAuthError(err error, fallback string) error {
	var (
		authErr *domain.AuthError
		apiErr  *domain.APIError
	)
	msg := fallback
	switch {
	case errors.As(err, &authErr) && authErr.Message != "":
		msg = authErr.Message
	case errors.As(err, &apiErr) && apiErr.Detail != "":
		msg = apiErr.Detail
	}
	return &domain.AuthError{Message: msg, Err: err}
}

// tokenExpiry reads the exp claim without verifying the signature; the
// backend remains the judge of validity. Opaque tokens report ok=false.
func tokenExpiry(token string) (time.Time, bool) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
