package main

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"shopfront/transport"
)

// The auth cookie is the CLI's only persisted state, mirroring the single
// accessToken cookie a browser client would hold.
type persistedCookie struct {
	Value   string    `json:"value"`
	Expires time.Time `json:"expires"`
}

func loadCookie(tokens *transport.CookieStore, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	var saved persistedCookie
	if err := json.Unmarshal(data, &saved); err != nil {
		return
	}

	tokens.SetCookie(http.Cookie{
		Name:     transport.AccessTokenCookie,
		Value:    saved.Value,
		Path:     "/",
		Expires:  saved.Expires,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

func saveCookie(tokens *transport.CookieStore, path string) {
	cookie, ok := tokens.Cookie()
	if !ok {
		_ = os.Remove(path)
		return
	}

	data, err := json.Marshal(persistedCookie{Value: cookie.Value, Expires: cookie.Expires})
	if err != nil {
		return
	}
	_ = os.WriteFile(path, data, 0o600)
}
