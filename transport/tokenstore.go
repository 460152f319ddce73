package transport

import (
	"net/http"
	"sync"
	"time"
)

// AccessTokenCookie is the cookie name the backend contract uses for the
// bearer token.
const AccessTokenCookie = "accessToken"

// DefaultTokenTTL matches the backend's fixed expiry window for the
// access-token cookie.
const DefaultTokenTTL = time.Hour

// TokenStore owns the bearer token attached to outgoing requests.
type TokenStore interface {
	// Token returns the current token, or false when absent or expired.
	Token() (string, bool)
	// Store replaces the current token and restarts its expiry window.
	Store(token string)
	// Clear removes the token.
	Clear()
}

// CookieStore keeps the token as an in-memory accessToken cookie: secure,
// SameSite strict, path "/", one hour expiry. An expired cookie reads as
// absent.
type CookieStore struct {
	mu     sync.Mutex
	cookie *http.Cookie
	ttl    time.Duration
	now    func() time.Time
}

func NewCookieStore() *CookieStore {
	return &CookieStore{
		ttl: DefaultTokenTTL,
		now: time.Now,
	}
}

func (s *CookieStore) Token() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cookie == nil {
		return "", false
	}
	if !s.cookie.Expires.IsZero() && !s.cookie.Expires.After(s.now()) {
		s.cookie = nil
		return "", false
	}
	return s.cookie.Value, true
}

func (s *CookieStore) Store(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cookie = &http.Cookie{
		Name:     AccessTokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  s.now().Add(s.ttl),
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}
}

func (s *CookieStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cookie = nil
}

// Cookie exposes the raw cookie so callers can persist it across runs.
func (s *CookieStore) Cookie() (http.Cookie, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cookie == nil {
		return http.Cookie{}, false
	}
	return *s.cookie, true
}

// SetCookie hydrates the store from a previously persisted cookie. Cookies
// with a foreign name are ignored.
func (s *CookieStore) SetCookie(c http.Cookie) {
	if c.Name != AccessTokenCookie || c.Value == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cookie = &c
}
