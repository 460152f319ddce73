package checkout

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopfront/cart"
	"shopfront/model"
	"shopfront/transport"
)

// fakeClock records requested pauses and lets tests observe the flow state
// while a pause would be in effect.
type fakeClock struct {
	sleeps  []time.Duration
	onSleep func(d time.Duration)
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) {
	c.sleeps = append(c.sleeps, d)
	if c.onSleep != nil {
		c.onSleep(d)
	}
}

type checkoutBackend struct {
	t *testing.T

	orderCalls atomic.Int32
	cartAfter  []model.Cart
	orderBody  []byte
	failOrder  string // non-empty: respond 402 with this message
	failCarts  bool
}

func (b *checkoutBackend) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/carts/getcarts":
			if b.failCarts {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			_ = json.NewEncoder(w).Encode(b.cartAfter)
		case r.URL.Path == "/orders/addOrder/cart-1":
			b.orderCalls.Add(1)
			b.orderBody, _ = io.ReadAll(r.Body)
			if b.failOrder != "" {
				w.WriteHeader(http.StatusPaymentRequired)
				_ = json.NewEncoder(w).Encode(map[string]string{"message": b.failOrder})
				return
			}
			_ = json.NewEncoder(w).Encode(model.Order{
				ID:     "order-1",
				Total:  decimal.RequireFromString("118.77"),
				Status: model.OrderStatusPending,
			})
		default:
			b.t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			http.NotFound(w, r)
		}
	})
}

func newTestFlow(t *testing.T, backend *checkoutBackend, clock Clock) (*Flow, *cart.Store) {
	t.Helper()
	server := httptest.NewServer(backend.handler())
	t.Cleanup(server.Close)

	api := transport.NewClient(server.URL, transport.NewCookieStore())
	carts := cart.New(api)
	flow := New(api, carts, Config{ConfirmDelay: 2 * time.Second, CompleteDelay: 3 * time.Second}, WithClock(clock))
	return flow, carts
}

func seedCart(t *testing.T, carts *cart.Store, backend *checkoutBackend) {
	t.Helper()
	backend.cartAfter = []model.Cart{{
		ID:    "cart-1",
		Items: []model.CartItem{{ProductID: "p1", Quantity: 2, UnitPrice: decimal.RequireFromString("29.99")}},
	}}
	_, err := carts.Refresh(context.Background())
	require.NoError(t, err)
	backend.cartAfter = nil // the order consumes the cart
}

func TestPlaceOrderSuccessSequence(t *testing.T) {
	backend := &checkoutBackend{t: t}
	clock := &fakeClock{}
	flow, carts := newTestFlow(t, backend, clock)
	seedCart(t, carts, backend)

	var statesDuringSleep []State
	clock.onSleep = func(time.Duration) { statesDuringSleep = append(statesDuringSleep, flow.State()) }

	completed := false
	order, err := flow.PlaceOrder(context.Background(), "WELCOME10", func() { completed = true })
	require.NoError(t, err)

	assert.Equal(t, "order-1", order.ID)
	assert.JSONEq(t, `{"couponCode":"WELCOME10"}`, string(backend.orderBody))
	assert.Equal(t, int32(1), backend.orderCalls.Load(), "one order call per attempt")

	assert.Equal(t, []time.Duration{2 * time.Second, 3 * time.Second}, clock.sleeps)
	assert.Equal(t, []State{StateProcessing, StateSuccess}, statesDuringSleep)

	assert.True(t, completed, "completion callback fired")
	assert.Equal(t, StatePayment, flow.State(), "flow resets for the next attempt")
	assert.Empty(t, carts.Current().Items, "cart resynced after the order consumed it")
	require.NotNil(t, flow.LastOrder())
	assert.Equal(t, "order-1", flow.LastOrder().ID)
}

func TestPlaceOrderWithoutCouponSendsEmptyBody(t *testing.T) {
	backend := &checkoutBackend{t: t}
	flow, carts := newTestFlow(t, backend, &fakeClock{})
	seedCart(t, carts, backend)

	_, err := flow.PlaceOrder(context.Background(), "", nil)
	require.NoError(t, err)
	assert.Empty(t, backend.orderBody)
}

func TestPlaceOrderFailureReturnsToPayment(t *testing.T) {
	backend := &checkoutBackend{t: t, failOrder: "card declined"}
	clock := &fakeClock{}
	flow, carts := newTestFlow(t, backend, clock)
	seedCart(t, carts, backend)

	_, err := flow.PlaceOrder(context.Background(), "", nil)
	require.True(t, transport.IsStatus(err, http.StatusPaymentRequired))

	assert.Equal(t, StatePayment, flow.State())
	assert.Equal(t, "card declined", flow.FailureMessage())
	assert.Empty(t, clock.sleeps, "no cosmetic pauses on failure")
	assert.Nil(t, flow.LastOrder())
	assert.Len(t, carts.Current().Items, 1, "cart kept for retry")
}

func TestPlaceOrderFallbackMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("upstream timeout"))
	}))
	defer server.Close()

	api := transport.NewClient(server.URL, transport.NewCookieStore())
	flow := New(api, cart.New(api), Config{}, WithClock(&fakeClock{}))

	_, err := flow.PlaceOrder(context.Background(), "", nil)
	require.Error(t, err)
	assert.Equal(t, FallbackMessage, flow.FailureMessage())
}

func TestPlaceOrderRejectsConcurrentAttempt(t *testing.T) {
	backend := &checkoutBackend{t: t}
	flow, _ := newTestFlow(t, backend, &fakeClock{})

	flow.mu.Lock()
	flow.state = StateProcessing
	flow.mu.Unlock()

	_, err := flow.PlaceOrder(context.Background(), "", nil)
	assert.ErrorIs(t, err, ErrInProgress)
	assert.Zero(t, backend.orderCalls.Load())
}

func TestCartClearedWhenPostOrderRefreshFails(t *testing.T) {
	backend := &checkoutBackend{t: t}
	flow, carts := newTestFlow(t, backend, &fakeClock{})
	seedCart(t, carts, backend)
	backend.failCarts = true

	_, err := flow.PlaceOrder(context.Background(), "", nil)
	require.NoError(t, err, "the order itself succeeded")
	assert.Empty(t, carts.Current().Items, "cart cleared locally as a fallback")
}

func TestCloseResetsState(t *testing.T) {
	flow := New(nil, nil, Config{}, WithClock(&fakeClock{}))

	flow.mu.Lock()
	flow.state = StateSuccess
	flow.message = "stale"
	flow.order = &model.Order{ID: "order-1"}
	flow.mu.Unlock()

	flow.Close()

	assert.Equal(t, StatePayment, flow.State())
	assert.Empty(t, flow.FailureMessage())
	assert.Nil(t, flow.LastOrder())
}
