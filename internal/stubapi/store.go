// Package stubapi is an in-memory implementation of the storefront backend
// contract. It backs the integration tests and the local development server;
// the production backend is an external collaborator and lives elsewhere.
package stubapi

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/ksuid"
	"github.com/shopspring/decimal"

	"shopfront/model"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrEmailTaken    = errors.New("email already registered")
	ErrCartEmpty     = errors.New("cart is empty")
	ErrInvalidCoupon = errors.New("invalid coupon code")
	ErrBadTransition = errors.New("invalid status transition")
	ErrWrongPassword = errors.New("invalid email or password")
	ErrOutOfStock    = errors.New("insufficient stock")
)

// account is the server-side user record; the wire shape is model.UserProfile.
type account struct {
	Profile      model.UserProfile
	PasswordHash []byte
}

type refreshSession struct {
	UserID    string
	TokenHash []byte
	ExpiresAt time.Time
}

type cartRecord struct {
	Cart      model.Cart
	UserID    string
	UpdatedAt time.Time
}

// Store owns all stub state behind one mutex. Volumes here are test-sized;
// contention is not a concern.
type Store struct {
	mu         sync.Mutex
	now        func() time.Time
	accounts   map[string]*account        // by user ID
	emails     map[string]string          // email -> user ID
	sessions   map[string]*refreshSession // by session ID
	categories map[string]model.Category
	products   map[string]model.Product
	reviews    map[string]model.Review
	carts      map[string]*cartRecord // by user ID
	orders     map[string]model.Order
}

func NewStore() *Store {
	return &Store{
		now:        time.Now,
		accounts:   map[string]*account{},
		emails:     map[string]string{},
		sessions:   map[string]*refreshSession{},
		categories: map[string]model.Category{},
		products:   map[string]model.Product{},
		reviews:    map[string]model.Review{},
		carts:      map[string]*cartRecord{},
		orders:     map[string]model.Order{},
	}
}

func newID() string {
	return ksuid.New().String()
}

// ---- accounts ----

func (s *Store) CreateAccount(fullName, email string, passwordHash []byte, role model.UserRole) (model.UserProfile, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.emails[email]; taken {
		return model.UserProfile{}, ErrEmailTaken
	}

	now := s.now()
	profile := model.UserProfile{
		ID:        newID(),
		Email:     email,
		FullName:  fullName,
		Role:      role,
		Status:    model.UserStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.accounts[profile.ID] = &account{Profile: profile, PasswordHash: passwordHash}
	s.emails[email] = profile.ID
	return profile, nil
}

func (s *Store) AccountByEmail(email string) (model.UserProfile, []byte, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.emails[email]
	if !ok {
		return model.UserProfile{}, nil, ErrNotFound
	}
	acct := s.accounts[id]
	return acct.Profile, acct.PasswordHash, nil
}

func (s *Store) UserByID(id string) (model.UserProfile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[id]
	if !ok {
		return model.UserProfile{}, false
	}
	return acct.Profile, true
}

func (s *Store) ListUsers(page, limit int, role model.UserRole) model.Page[model.UserProfile] {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]model.UserProfile, 0, len(s.accounts))
	for _, acct := range s.accounts {
		if role != "" && acct.Profile.Role != role {
			continue
		}
		all = append(all, acct.Profile)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })
	return paginate(all, page, limit)
}

func (s *Store) UpdateUser(id string, fullName string, role model.UserRole, status model.UserStatus) (model.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[id]
	if !ok {
		return model.UserProfile{}, ErrNotFound
	}
	if fullName != "" {
		acct.Profile.FullName = fullName
	}
	if role != "" {
		acct.Profile.Role = role
	}
	if status != "" {
		acct.Profile.Status = status
	}
	acct.Profile.UpdatedAt = s.now()
	return acct.Profile, nil
}

func (s *Store) DeleteUser(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.emails, acct.Profile.Email)
	delete(s.accounts, id)
	delete(s.carts, id)
	return nil
}

// ---- refresh sessions ----

func (s *Store) CreateSession(userID string, tokenHash []byte, ttl time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := newID()
	s.sessions[id] = &refreshSession{
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: s.now().Add(ttl),
	}
	return id
}

// RotateSession validates the presented hash and installs a new one, sliding
// the expiry window. Expired sessions are dropped on sight.
func (s *Store) RotateSession(sessionID string, presentedHash, nextHash []byte, ttl time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return "", ErrNotFound
	}
	if session.ExpiresAt.Before(s.now()) {
		delete(s.sessions, sessionID)
		return "", ErrNotFound
	}
	if string(session.TokenHash) != string(presentedHash) {
		return "", ErrNotFound
	}

	session.TokenHash = nextHash
	session.ExpiresAt = s.now().Add(ttl)
	return session.UserID, nil
}

func (s *Store) DeleteSession(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

// PurgeExpiredSessions drops refresh sessions past their expiry and reports
// how many were removed.
func (s *Store) PurgeExpiredSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	purged := 0
	for id, session := range s.sessions {
		if session.ExpiresAt.Before(now) {
			delete(s.sessions, id)
			purged++
		}
	}
	return purged
}

// ---- catalog ----

func (s *Store) UpsertCategory(cat model.Category) model.Category {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cat.ID == "" {
		cat.ID = newID()
	}
	s.categories[cat.ID] = cat
	return cat
}

func (s *Store) DeleteCategory(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[id]; !ok {
		return ErrNotFound
	}
	delete(s.categories, id)
	return nil
}

func (s *Store) ListCategories(page, limit int) model.Page[model.Category] {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]model.Category, 0, len(s.categories))
	for _, cat := range s.categories {
		all = append(all, cat)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return paginate(all, page, limit)
}

func (s *Store) UpsertProduct(p model.Product) model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if p.ID == "" {
		p.ID = newID()
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	s.products[p.ID] = p
	return p
}

func (s *Store) ProductByID(id string) (model.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	return p, ok
}

func (s *Store) DeleteProduct(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return ErrNotFound
	}
	delete(s.products, id)
	return nil
}

type ProductFilter struct {
	CategoryID string
	SellerID   string
	Query      string
}

func (s *Store) ListProducts(page, limit int, filter ProductFilter) model.Page[model.Product] {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]model.Product, 0, len(s.products))
	for _, p := range s.products {
		if filter.CategoryID != "" && p.CategoryID != filter.CategoryID {
			continue
		}
		if filter.SellerID != "" && p.SellerID != filter.SellerID {
			continue
		}
		if filter.Query != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Query)) {
			continue
		}
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return paginate(all, page, limit)
}

func (s *Store) UpsertReview(r model.Review) model.Review {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == "" {
		r.ID = newID()
		r.CreatedAt = s.now()
	}
	s.reviews[r.ID] = r
	return r
}

func (s *Store) DeleteReview(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reviews[id]; !ok {
		return ErrNotFound
	}
	delete(s.reviews, id)
	return nil
}

func (s *Store) ListReviews(page, limit int, productID string) model.Page[model.Review] {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]model.Review, 0, len(s.reviews))
	for _, r := range s.reviews {
		if productID != "" && r.ProductID != productID {
			continue
		}
		all = append(all, r)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })
	return paginate(all, page, limit)
}

// ---- carts ----

// CartForUser returns the user's cart, creating it lazily. Line items embed a
// product summary resolved at read time; a deleted product leaves the summary
// nil so clients can render a fallback.
func (s *Store) CartForUser(userID string) model.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cartLocked(userID)
}

func (s *Store) cartLocked(userID string) model.Cart {
	record, ok := s.carts[userID]
	if !ok {
		record = &cartRecord{
			Cart:      model.Cart{ID: newID()},
			UserID:    userID,
			UpdatedAt: s.now(),
		}
		s.carts[userID] = record
	}

	cart := record.Cart
	cart.Items = make([]model.CartItem, len(record.Cart.Items))
	for i, item := range record.Cart.Items {
		item.Product = nil
		if p, ok := s.products[item.ProductID]; ok {
			item.Product = &model.ProductSummary{
				ID:    p.ID,
				Name:  p.Name,
				Price: p.Price,
				Image: p.Image,
			}
		}
		cart.Items[i] = item
	}
	return cart
}

func (s *Store) AddCartItem(userID, productID string, quantity int) (model.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.products[productID]
	if !ok {
		return model.Cart{}, ErrNotFound
	}
	if product.Stock < quantity {
		return model.Cart{}, ErrOutOfStock
	}

	s.cartLocked(userID)
	record := s.carts[userID]

	found := false
	for i, item := range record.Cart.Items {
		if item.ProductID == productID {
			record.Cart.Items[i].Quantity += quantity
			found = true
			break
		}
	}
	if !found {
		record.Cart.Items = append(record.Cart.Items, model.CartItem{
			ProductID: productID,
			Quantity:  quantity,
			UnitPrice: product.Price,
		})
	}
	record.UpdatedAt = s.now()
	return s.cartLocked(userID), nil
}

func (s *Store) UpdateCartItem(userID, productID string, quantity int) (model.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.carts[userID]
	if !ok {
		return model.Cart{}, ErrNotFound
	}
	for i, item := range record.Cart.Items {
		if item.ProductID == productID {
			record.Cart.Items[i].Quantity = quantity
			record.UpdatedAt = s.now()
			return s.cartLocked(userID), nil
		}
	}
	return model.Cart{}, ErrNotFound
}

func (s *Store) RemoveCartItem(userID, productID string) (model.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.carts[userID]
	if !ok {
		return model.Cart{}, ErrNotFound
	}
	for i, item := range record.Cart.Items {
		if item.ProductID == productID {
			record.Cart.Items = append(record.Cart.Items[:i], record.Cart.Items[i+1:]...)
			record.UpdatedAt = s.now()
			return s.cartLocked(userID), nil
		}
	}
	return model.Cart{}, ErrNotFound
}

func (s *Store) clearCartLocked(userID string) {
	if record, ok := s.carts[userID]; ok {
		record.Cart.Items = nil
		record.UpdatedAt = s.now()
	}
}

// PurgeStaleCarts empties carts untouched for longer than ttl.
func (s *Store) PurgeStaleCarts(ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-ttl)
	purged := 0
	for _, record := range s.carts {
		if len(record.Cart.Items) > 0 && record.UpdatedAt.Before(cutoff) {
			record.Cart.Items = nil
			purged++
		}
	}
	return purged
}

// ---- orders ----

var taxRate = decimal.NewFromFloat(0.08)

// coupons known to the stub; anything else is rejected.
var coupons = map[string]decimal.Decimal{
	"WELCOME10": decimal.NewFromFloat(0.10),
}

// CreateOrder snapshots the cart into an order, applies tax and any coupon,
// decrements stock, and empties the cart.
func (s *Store) CreateOrder(userID, cartID, couponCode, shippingAddress string) (model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.carts[userID]
	if !ok || record.Cart.ID != cartID {
		return model.Order{}, ErrNotFound
	}
	if len(record.Cart.Items) == 0 {
		return model.Order{}, ErrCartEmpty
	}

	discount := decimal.Zero
	if couponCode != "" {
		rate, ok := coupons[couponCode]
		if !ok {
			return model.Order{}, ErrInvalidCoupon
		}
		discount = rate
	}

	items := s.cartLocked(userID).Items
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	subtotal = subtotal.Sub(subtotal.Mul(discount).Round(2))
	total := subtotal.Add(subtotal.Mul(taxRate).Round(2))

	for _, item := range items {
		if p, ok := s.products[item.ProductID]; ok {
			p.Stock -= item.Quantity
			if p.Stock < 0 {
				p.Stock = 0
			}
			s.products[item.ProductID] = p
		}
	}

	order := model.Order{
		ID:              newID(),
		UserID:          userID,
		Items:           items,
		Total:           total,
		Status:          model.OrderStatusPending,
		ShippingAddress: shippingAddress,
		CouponCode:      couponCode,
		CreatedAt:       s.now(),
	}
	s.orders[order.ID] = order
	s.clearCartLocked(userID)
	return order, nil
}

func (s *Store) ListOrders(page, limit int, userID string, status model.OrderStatus) model.Page[model.Order] {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]model.Order, 0, len(s.orders))
	for _, o := range s.orders {
		if userID != "" && o.UserID != userID {
			continue
		}
		if status != "" && o.Status != status {
			continue
		}
		all = append(all, o)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })
	return paginate(all, page, limit)
}

var orderTransitions = map[model.OrderStatus][]model.OrderStatus{
	model.OrderStatusPending: {model.OrderStatusPaid, model.OrderStatusCancelled},
	model.OrderStatusPaid:    {model.OrderStatusShipped, model.OrderStatusCancelled},
	model.OrderStatusShipped: {model.OrderStatusDelivered},
}

func (s *Store) TransitionOrder(id string, next model.OrderStatus) (model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return model.Order{}, ErrNotFound
	}
	for _, allowed := range orderTransitions[order.Status] {
		if allowed == next {
			order.Status = next
			s.orders[id] = order
			return order, nil
		}
	}
	return model.Order{}, ErrBadTransition
}

// ---- shared ----

func paginate[T any](all []T, page, limit int) model.Page[T] {
	if limit <= 0 {
		limit = 20
	}
	if page <= 0 {
		page = 1
	}

	total := len(all)
	totalPages := (total + limit - 1) / limit
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return model.Page[T]{
		Items: append([]T(nil), all[start:end]...),
		Pagination: model.Pagination{
			Page:       page,
			Limit:      limit,
			TotalItems: total,
			TotalPages: totalPages,
		},
	}
}
