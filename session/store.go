// Package session owns the authenticated-identity lifecycle: the bearer
// token's cookie-backed persistence, the lazily fetched user profile, and the
// login/register/logout operations. A Store is an explicit dependency-injected
// object; there is no package-level singleton.
package session

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"shopfront/model"
	"shopfront/transport"
)

const (
	loginPath    = "auth/login"
	registerPath = "auth/register"
	logoutPath   = "auth/logout"
	mePath       = "users/me"
)

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Registration struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Store tracks the session state machine: ANONYMOUS until a login succeeds,
// AUTHENTICATED while the stored token's embedded expiry is in the future,
// back to ANONYMOUS on logout, expiry, or profile-fetch failure.
type Store struct {
	api    transport.Doer
	tokens transport.TokenStore
	log    zerolog.Logger
	now    func() time.Time

	mu   sync.Mutex
	user *model.UserProfile
}

type Option func(*Store)

func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) { s.log = log }
}

func New(api transport.Doer, tokens transport.TokenStore, opts ...Option) *Store {
	s := &Store{
		api:    api,
		tokens: tokens,
		log:    zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init hydrates the store from any token already present in the cookie store.
// A valid token triggers exactly one profile fetch before the store is ready.
func (s *Store) Init(ctx context.Context) error {
	if !s.IsAuthenticated() {
		return nil
	}
	_, err := s.GetUser(ctx)
	return err
}

// IsAuthenticated is pure over the token's decoded expiry and performs no
// I/O. An undecodable or expired token is treated as absent and purged.
func (s *Store) IsAuthenticated() bool {
	token, ok := s.tokens.Token()
	if !ok {
		return false
	}

	expiry, err := tokenExpiry(token)
	if err != nil {
		s.log.Warn().Err(err).Msg("purging undecodable token")
		s.tokens.Clear()
		return false
	}
	if expiry.IsZero() || expiry.After(s.now()) {
		return true
	}
	s.tokens.Clear()
	return false
}

// Login posts credentials, stores the returned token, and immediately fetches
// the current profile. Backend failures propagate with their payload intact.
func (s *Store) Login(ctx context.Context, creds Credentials) (*model.UserProfile, error) {
	if err := validateCredentials(creds); err != nil {
		return nil, err
	}

	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	if err := s.api.Do(ctx, http.MethodPost, loginPath, creds, &resp); err != nil {
		return nil, err
	}
	s.tokens.Store(resp.AccessToken)

	return s.GetUser(ctx)
}

// Register posts registration data. No local state changes on success: the
// user logs in separately.
func (s *Store) Register(ctx context.Context, reg Registration) (string, error) {
	if err := validateRegistration(reg); err != nil {
		return "", err
	}

	var resp struct {
		Message string `json:"message"`
	}
	if err := s.api.Do(ctx, http.MethodPost, registerPath, reg, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Logout notifies the backend best-effort and clears local state whatever the
// outcome. A network failure must never leave the user appearing logged in.
func (s *Store) Logout(ctx context.Context) {
	if err := s.api.Do(ctx, http.MethodPost, logoutPath, nil, nil); err != nil {
		s.log.Warn().Err(err).Msg("logout notification failed")
	}

	s.tokens.Clear()
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()
}

// GetUser fetches the current profile. On failure the cached profile is
// cleared and the error is returned to the caller.
func (s *Store) GetUser(ctx context.Context) (*model.UserProfile, error) {
	var resp struct {
		User model.UserProfile `json:"user"`
	}
	if err := s.api.Do(ctx, http.MethodGet, mePath, nil, &resp); err != nil {
		s.mu.Lock()
		s.user = nil
		s.mu.Unlock()
		return nil, err
	}

	s.mu.Lock()
	s.user = &resp.User
	s.mu.Unlock()
	return &resp.User, nil
}

// CurrentUser returns the cached profile, or nil when anonymous.
func (s *Store) CurrentUser() *model.UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return nil
	}
	user := *s.user
	return &user
}

func validateCredentials(creds Credentials) error {
	fields := map[string]string{}
	if !strings.Contains(creds.Email, "@") {
		fields["email"] = "must be a valid email address"
	}
	if creds.Password == "" {
		fields["password"] = "is required"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func validateRegistration(reg Registration) error {
	fields := map[string]string{}
	if strings.TrimSpace(reg.FullName) == "" {
		fields["fullName"] = "is required"
	}
	if !strings.Contains(reg.Email, "@") {
		fields["email"] = "must be a valid email address"
	}
	if len(reg.Password) < 8 {
		fields["password"] = "must be at least 8 characters"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
