// Package panel implements the paginated list/create/update/delete clients
// behind the admin and seller consoles. All resources share one contract:
// list state is replaced wholesale on fetch, and mutations re-fetch the
// current page so the local cache only ever holds server-confirmed state.
package panel

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"shopfront/model"
	"shopfront/transport"
)

// Filters are passed through to the backend as query parameters; the client
// performs no filtering of its own.
type Filters map[string]string

type listQuery struct {
	page    int
	limit   int
	filters Filters
}

type Panel[T any] struct {
	api  transport.Doer
	base string
	log  zerolog.Logger

	mu     sync.Mutex
	cache  model.Page[T]
	last   listQuery
	listed bool
}

type Option[T any] func(*Panel[T])

func WithLogger[T any](log zerolog.Logger) Option[T] {
	return func(p *Panel[T]) { p.log = log }
}

func New[T any](api transport.Doer, base string, opts ...Option[T]) *Panel[T] {
	p := &Panel[T]{
		api:  api,
		base: base,
		log:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// List fetches one page and replaces the cached list wholesale.
func (p *Panel[T]) List(ctx context.Context, page, limit int, filters Filters) (model.Page[T], error) {
	query := listQuery{page: page, limit: limit, filters: filters}

	var result model.Page[T]
	if err := p.api.Do(ctx, http.MethodGet, p.listPath(query), nil, &result); err != nil {
		return model.Page[T]{}, err
	}

	p.mu.Lock()
	p.cache = result
	p.last = query
	p.listed = true
	p.mu.Unlock()

	return result, nil
}

// Create posts a new record and re-fetches the current page.
func (p *Panel[T]) Create(ctx context.Context, input any) (T, error) {
	var created T
	if err := p.api.Do(ctx, http.MethodPost, p.base, input, &created); err != nil {
		return created, err
	}
	p.refetch(ctx)
	return created, nil
}

// Update replaces a record and re-fetches the current page.
func (p *Panel[T]) Update(ctx context.Context, id string, input any) (T, error) {
	var updated T
	if err := p.api.Do(ctx, http.MethodPut, p.base+"/"+url.PathEscape(id), input, &updated); err != nil {
		return updated, err
	}
	p.refetch(ctx)
	return updated, nil
}

// Delete removes a record and returns the deleted id. An id absent from the
// local cache is a silent no-op locally; the server-confirmed page replaces
// the cache either way.
func (p *Panel[T]) Delete(ctx context.Context, id string) (string, error) {
	if err := p.api.Do(ctx, http.MethodDelete, p.base+"/"+url.PathEscape(id), nil, nil); err != nil {
		return "", err
	}
	p.refetch(ctx)
	return id, nil
}

// Items returns the cached page's records.
func (p *Panel[T]) Items() []T {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]T(nil), p.cache.Items...)
}

func (p *Panel[T]) Pagination() model.Pagination {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cache.Pagination
}

// refetch re-runs the last list query after a mutation. A failed refetch only
// leaves the cache stale; the mutation itself already succeeded.
func (p *Panel[T]) refetch(ctx context.Context) {
	p.mu.Lock()
	if !p.listed {
		p.mu.Unlock()
		return
	}
	query := p.last
	p.mu.Unlock()

	var result model.Page[T]
	if err := p.api.Do(ctx, http.MethodGet, p.listPath(query), nil, &result); err != nil {
		p.log.Warn().Err(err).Str("resource", p.base).Msg("refetch after mutation failed")
		return
	}

	p.mu.Lock()
	p.cache = result
	p.mu.Unlock()
}

func (p *Panel[T]) listPath(q listQuery) string {
	values := url.Values{}
	if q.page > 0 {
		values.Set("page", strconv.Itoa(q.page))
	}
	if q.limit > 0 {
		values.Set("limit", strconv.Itoa(q.limit))
	}
	for k, v := range q.filters {
		values.Set(k, v)
	}
	if len(values) == 0 {
		return p.base
	}
	return fmt.Sprintf("%s?%s", p.base, values.Encode())
}
