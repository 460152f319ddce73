package stubapi

import (
	"fmt"

	"github.com/shopspring/decimal"

	"shopfront/model"
)

// SeedPassword is the password of every seeded account.
const SeedPassword = "password123"

// Seed loads a small demo catalog and one account per role. It is used by the
// dev server and by integration tests.
func Seed(store *Store) error {
	hash, err := HashPassword(SeedPassword)
	if err != nil {
		return fmt.Errorf("hash seed password: %w", err)
	}

	seedUsers := []struct {
		name  string
		email string
		role  model.UserRole
	}{
		{"Ada Admin", "admin@shopfront.test", model.UserRoleAdmin},
		{"Sam Seller", "seller@shopfront.test", model.UserRoleSeller},
		{"Bea Buyer", "buyer@shopfront.test", model.UserRoleBuyer},
	}

	var sellerID string
	for _, u := range seedUsers {
		profile, err := store.CreateAccount(u.name, u.email, hash, u.role)
		if err != nil {
			return fmt.Errorf("seed account %s: %w", u.email, err)
		}
		if u.role == model.UserRoleSeller {
			sellerID = profile.ID
		}
	}

	electronics := store.UpsertCategory(model.Category{Name: "Electronics", Slug: "electronics"})
	books := store.UpsertCategory(model.Category{Name: "Books", Slug: "books"})

	seedProducts := []model.Product{
		{Name: "Wireless Earbuds", Price: decimal.NewFromFloat(29.99), Stock: 120, CategoryID: electronics.ID},
		{Name: "Mechanical Keyboard", Price: decimal.NewFromFloat(49.99), Stock: 45, CategoryID: electronics.ID},
		{Name: "USB-C Charger", Price: decimal.NewFromFloat(19.50), Stock: 200, CategoryID: electronics.ID},
		{Name: "The Go Programming Language", Price: decimal.NewFromFloat(39.95), Stock: 30, CategoryID: books.ID},
	}
	for _, p := range seedProducts {
		p.SellerID = sellerID
		store.UpsertProduct(p)
	}

	return nil
}
