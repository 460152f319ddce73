// Package checkout drives the order-creation and confirmation sequence: a
// short-lived state machine scoped to one payment attempt, issuing exactly one
// order call per attempt.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"shopfront/cart"
	"shopfront/model"
	"shopfront/transport"
)

type State string

const (
	StatePayment    State = "payment"
	StateProcessing State = "processing"
	StateSuccess    State = "success"
)

// ErrInProgress is returned when PlaceOrder is called while an attempt is
// already running.
var ErrInProgress = errors.New("checkout already in progress")

// FallbackMessage is shown when the backend provides no error text.
const FallbackMessage = "Payment failed. Please try again."

const orderPath = "orders/addOrder/%s"

type Config struct {
	// ConfirmDelay holds the flow in processing after a successful order call,
	// purely for perceived progress. Safe to zero out.
	ConfirmDelay time.Duration
	// CompleteDelay is the pause in the success state before the completion
	// callback fires and the flow resets.
	CompleteDelay time.Duration
}

func DefaultConfig() Config {
	return Config{
		ConfirmDelay:  2 * time.Second,
		CompleteDelay: 3 * time.Second,
	}
}

// Flow transitions payment → processing → success, or back to payment with a
// failure message. Closing it at any point resets to payment; nothing leaks
// across attempts.
type Flow struct {
	api   transport.Doer
	carts *cart.Store
	clock Clock
	cfg   Config
	log   zerolog.Logger

	mu      sync.Mutex
	state   State
	message string
	order   *model.Order
}

type Option func(*Flow)

func WithClock(clock Clock) Option {
	return func(f *Flow) { f.clock = clock }
}

func WithLogger(log zerolog.Logger) Option {
	return func(f *Flow) { f.log = log }
}

func New(api transport.Doer, carts *cart.Store, cfg Config, opts ...Option) *Flow {
	f := &Flow{
		api:   api,
		carts: carts,
		clock: realClock{},
		cfg:   cfg,
		log:   zerolog.Nop(),
		state: StatePayment,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// PlaceOrder runs one payment attempt against the current cart. onComplete,
// when non-nil, fires after the success state has been held for the configured
// delay; the flow then resets to payment for the next attempt.
func (f *Flow) PlaceOrder(ctx context.Context, couponCode string, onComplete func()) (*model.Order, error) {
	f.mu.Lock()
	if f.state != StatePayment {
		f.mu.Unlock()
		return nil, ErrInProgress
	}
	f.state = StateProcessing
	f.message = ""
	cartID := f.carts.Current().ID
	f.mu.Unlock()

	var body any
	if couponCode != "" {
		body = struct {
			CouponCode string `json:"couponCode"`
		}{CouponCode: couponCode}
	}

	var order model.Order
	err := f.api.Do(ctx, http.MethodPost, fmt.Sprintf(orderPath, cartID), body, &order)
	if err != nil {
		f.fail(err)
		return nil, err
	}

	f.clock.Sleep(ctx, f.cfg.ConfirmDelay)

	f.mu.Lock()
	f.state = StateSuccess
	f.order = &order
	f.mu.Unlock()

	// The order consumed the cart server-side; resync local state.
	if _, refreshErr := f.carts.Refresh(ctx); refreshErr != nil {
		f.log.Warn().Err(refreshErr).Msg("cart refresh after order failed, clearing locally")
		f.carts.Clear()
	}

	f.clock.Sleep(ctx, f.cfg.CompleteDelay)
	if onComplete != nil {
		onComplete()
	}

	f.mu.Lock()
	f.state = StatePayment
	f.mu.Unlock()

	return &order, nil
}

func (f *Flow) fail(err error) {
	f.mu.Lock()
	f.state = StatePayment
	f.message = transport.ErrorMessage(err, FallbackMessage)
	f.mu.Unlock()
	f.log.Warn().Err(err).Msg("order placement failed")
}

// Close force-resets the state machine, e.g. when the caller dismisses the
// payment surface mid-attempt.
func (f *Flow) Close() {
	f.mu.Lock()
	f.state = StatePayment
	f.message = ""
	f.order = nil
	f.mu.Unlock()
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// FailureMessage returns the text of the last failed attempt: the backend's
// message when it sent one, else the generic fallback.
func (f *Flow) FailureMessage() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.message
}

// LastOrder returns the order created by the most recent successful attempt.
func (f *Flow) LastOrder() *model.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.order
}
