package transport

import (
	"context"
	"net/http"
	"sync"
)

// RefreshPath is the cookie-based endpoint that issues a fresh access token.
const RefreshPath = "auth/refresh"

type refreshCall struct {
	done chan struct{}
	err  error
}

// Refresher decorates a Client with the single-retry-on-401 policy: the first
// 401 on a request triggers one call to the refresh endpoint, and on success
// the original request is replayed exactly once. Refresh failure propagates
// the original 401. No other status and no network failure is ever retried.
//
// Concurrent requests that each hit a 401 share one in-flight refresh rather
// than issuing duplicates.
type Refresher struct {
	next   *Client
	tokens TokenStore

	mu       sync.Mutex
	inflight *refreshCall
}

func NewRefresher(next *Client, tokens TokenStore) *Refresher {
	return &Refresher{next: next, tokens: tokens}
}

func (r *Refresher) Do(ctx context.Context, method, path string, body any, out any) error {
	err := r.next.Do(ctx, method, path, body, out)
	if !IsStatus(err, http.StatusUnauthorized) {
		return err
	}

	if refreshErr := r.refresh(ctx); refreshErr != nil {
		// Terminal: surface the original 401, not the refresh failure.
		return err
	}
	return r.next.Do(ctx, method, path, body, out)
}

// refresh coalesces concurrent refresh attempts onto a single network call.
func (r *Refresher) refresh(ctx context.Context) error {
	r.mu.Lock()
	if call := r.inflight; call != nil {
		r.mu.Unlock()
		select {
		case <-call.done:
			return call.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	call := &refreshCall{done: make(chan struct{})}
	r.inflight = call
	r.mu.Unlock()

	call.err = r.doRefresh(ctx)
	close(call.done)

	r.mu.Lock()
	r.inflight = nil
	r.mu.Unlock()

	return call.err
}

func (r *Refresher) doRefresh(ctx context.Context) error {
	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	if err := r.next.Do(ctx, http.MethodPost, RefreshPath, nil, &resp); err != nil {
		return err
	}
	r.tokens.Store(resp.AccessToken)
	return nil
}
