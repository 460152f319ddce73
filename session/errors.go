package session

import (
	"fmt"
	"sort"
	"strings"
)

// DecodeError marks a malformed bearer token. The token is treated as absent
// and purged from the cookie store.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode token: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ValidationError carries per-field messages for client-side form failures.
// Requests failing validation never reach the network.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
