package panel

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopfront/model"
	"shopfront/transport"
)

type recordedRequest struct {
	method string
	path   string
	query  string
}

// categoryBackend serves a mutable category list and records every request.
type categoryBackend struct {
	requests   []recordedRequest
	categories []model.Category
	failLists  bool
}

func (b *categoryBackend) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.requests = append(b.requests, recordedRequest{
			method: r.Method,
			path:   r.URL.Path,
			query:  r.URL.RawQuery,
		})

		switch r.Method {
		case http.MethodGet:
			if b.failLists {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			_ = json.NewEncoder(w).Encode(model.Page[model.Category]{
				Items: b.categories,
				Pagination: model.Pagination{
					Page: 1, Limit: 20,
					TotalItems: len(b.categories),
					TotalPages: 1,
				},
			})
		case http.MethodPost:
			var in model.Category
			_ = json.NewDecoder(r.Body).Decode(&in)
			in.ID = "cat-new"
			b.categories = append(b.categories, in)
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(in)
		case http.MethodPut:
			_ = json.NewEncoder(w).Encode(b.categories[0])
		case http.MethodDelete:
			b.categories = b.categories[:len(b.categories)-1]
			w.WriteHeader(http.StatusNoContent)
		}
	})
}

func newCategoryPanel(t *testing.T, backend *categoryBackend) *Panel[model.Category] {
	t.Helper()
	server := httptest.NewServer(backend.handler())
	t.Cleanup(server.Close)
	return New[model.Category](transport.NewClient(server.URL, transport.NewCookieStore()), "categories")
}

func TestListEncodesPaginationAndFilters(t *testing.T) {
	backend := &categoryBackend{categories: []model.Category{{ID: "cat-1", Name: "Electronics"}}}
	panel := newCategoryPanel(t, backend)

	page, err := panel.List(context.Background(), 2, 50, Filters{"q": "usb c"})
	require.NoError(t, err)

	require.Len(t, backend.requests, 1)
	assert.Equal(t, "/categories", backend.requests[0].path)
	assert.Equal(t, "limit=50&page=2&q=usb+c", backend.requests[0].query)

	require.Len(t, page.Items, 1)
	assert.Equal(t, "Electronics", page.Items[0].Name)
	assert.Equal(t, page.Items, panel.Items())
}

func TestListWithoutPaginationOmitsQuery(t *testing.T) {
	backend := &categoryBackend{}
	panel := newCategoryPanel(t, backend)

	_, err := panel.List(context.Background(), 0, 0, nil)
	require.NoError(t, err)
	assert.Empty(t, backend.requests[0].query)
}

func TestCreateRefetchesCurrentPage(t *testing.T) {
	backend := &categoryBackend{categories: []model.Category{{ID: "cat-1", Name: "Electronics"}}}
	panel := newCategoryPanel(t, backend)

	_, err := panel.List(context.Background(), 1, 20, nil)
	require.NoError(t, err)

	created, err := panel.Create(context.Background(), model.Category{Name: "Books"})
	require.NoError(t, err)
	assert.Equal(t, "cat-new", created.ID)

	require.Len(t, backend.requests, 3, "list, create, refetch")
	assert.Equal(t, http.MethodPost, backend.requests[1].method)
	assert.Equal(t, http.MethodGet, backend.requests[2].method)
	assert.Equal(t, "limit=20&page=1", backend.requests[2].query, "refetch reuses the last list query")

	assert.Len(t, panel.Items(), 2, "cache holds the server-confirmed page")
}

func TestMutationBeforeAnyListSkipsRefetch(t *testing.T) {
	backend := &categoryBackend{}
	panel := newCategoryPanel(t, backend)

	_, err := panel.Create(context.Background(), model.Category{Name: "Books"})
	require.NoError(t, err)

	require.Len(t, backend.requests, 1, "no refetch without a prior list")
	assert.Empty(t, panel.Items())
}

func TestDeleteReturnsIDAndRefetches(t *testing.T) {
	backend := &categoryBackend{categories: []model.Category{{ID: "cat-1"}, {ID: "cat-2"}}}
	panel := newCategoryPanel(t, backend)

	_, err := panel.List(context.Background(), 1, 20, nil)
	require.NoError(t, err)

	deleted, err := panel.Delete(context.Background(), "cat-2")
	require.NoError(t, err)
	assert.Equal(t, "cat-2", deleted)

	assert.Equal(t, "/categories/cat-2", backend.requests[1].path)
	assert.Len(t, panel.Items(), 1)
}

func TestFailedRefetchKeepsMutationResult(t *testing.T) {
	backend := &categoryBackend{categories: []model.Category{{ID: "cat-1", Name: "Electronics"}}}
	panel := newCategoryPanel(t, backend)

	_, err := panel.List(context.Background(), 1, 20, nil)
	require.NoError(t, err)

	backend.failLists = true
	created, err := panel.Create(context.Background(), model.Category{Name: "Books"})
	require.NoError(t, err, "the mutation succeeded even though the refetch failed")
	assert.Equal(t, "cat-new", created.ID)

	assert.Len(t, panel.Items(), 1, "cache left stale, not corrupted")
}

func TestUpdateTargetsRecordPath(t *testing.T) {
	backend := &categoryBackend{categories: []model.Category{{ID: "cat-1"}}}
	panel := newCategoryPanel(t, backend)

	_, err := panel.Update(context.Background(), "cat-1", model.Category{Name: "Renamed"})
	require.NoError(t, err)

	require.Len(t, backend.requests, 1, "no refetch without a prior list")
	assert.Equal(t, http.MethodPut, backend.requests[0].method)
	assert.Equal(t, "/categories/cat-1", backend.requests[0].path)
}

func TestOrdersPanelUpdateStatus(t *testing.T) {
	var gotPath string
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			gotPath = r.URL.Path
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
			_ = json.NewEncoder(w).Encode(model.Order{ID: "order-1", Status: model.OrderStatusShipped})
			return
		}
		_ = json.NewEncoder(w).Encode(model.Page[model.Order]{})
	}))
	defer server.Close()

	orders := NewOrdersPanel(transport.NewClient(server.URL, transport.NewCookieStore()))

	order, err := orders.UpdateStatus(context.Background(), "order-1", model.OrderStatusShipped)
	require.NoError(t, err)

	assert.Equal(t, "/orders/order-1/status", gotPath)
	assert.Equal(t, map[string]string{"status": "shipped"}, gotBody)
	assert.Equal(t, model.OrderStatusShipped, order.Status)
}
