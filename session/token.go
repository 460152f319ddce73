package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenExpiry extracts the embedded expiry from a bearer token without
// verifying its signature. Authentication state is a pure function of this
// value; verification is the backend's job.
func tokenExpiry(token string) (time.Time, error) {
	var claims jwt.RegisteredClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return time.Time{}, &DecodeError{Err: err}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, nil
	}
	return claims.ExpiresAt.Time, nil
}
