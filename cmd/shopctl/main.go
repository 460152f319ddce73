// shopctl is a headless storefront client: it drives the SDK's session, cart,
// checkout, and admin panels from the command line against a running backend
// (the stub or a real one).
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/shopspring/decimal"

	"shopfront/cart"
	"shopfront/checkout"
	"shopfront/internal/config"
	"shopfront/internal/log"
	"shopfront/model"
	"shopfront/panel"
	"shopfront/session"
	"shopfront/transport"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type app struct {
	cfg      *config.AppConfig
	tokens   *transport.CookieStore
	sessions *session.Store
	carts    *cart.Store
	flow     *checkout.Flow
	console  *panel.Console
}

func run(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := log.New(cfg.Environment)

	tokens := transport.NewCookieStore()
	loadCookie(tokens, cfg.API.CookieFile)

	base := transport.NewClient(cfg.API.BaseURL, tokens, transport.WithLogger(logger))
	api := transport.NewRefresher(base, tokens)

	a := &app{
		cfg:      cfg,
		tokens:   tokens,
		sessions: session.New(api, tokens, session.WithLogger(logger)),
		carts:    cart.New(api, cart.WithLogger(logger)),
		console:  panel.NewConsole(api),
	}
	a.flow = checkout.New(api, a.carts, checkout.Config{
		ConfirmDelay:  cfg.Checkout.ConfirmDelay,
		CompleteDelay: cfg.Checkout.CompleteDelay,
	}, checkout.WithLogger(logger))

	defer saveCookie(tokens, cfg.API.CookieFile)

	if len(args) == 0 {
		usage()
		return nil
	}

	ctx := context.Background()
	switch args[0] {
	case "register":
		return a.register(ctx, args[1:])
	case "login":
		return a.login(ctx, args[1:])
	case "logout":
		a.sessions.Logout(ctx)
		a.carts.Clear()
		fmt.Println("logged out")
		return nil
	case "me":
		return a.me(ctx)
	case "products":
		return a.products(ctx, args[1:])
	case "cart":
		return a.cart(ctx, args[1:])
	case "checkout":
		return a.checkout(ctx, args[1:])
	case "admin":
		return a.admin(ctx, args[1:])
	default:
		usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func usage() {
	fmt.Println(`usage: shopctl <command>

  register <name> <email> <password>
  login <email> <password>
  logout
  me
  products [search]
  cart show | add <productID> [qty] | set <productID> <qty> | rm <productID>
  checkout [couponCode]
  admin <users|categories|products|reviews|orders> list [page]`)
}

func (a *app) register(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("usage: register <name> <email> <password>")
	}
	msg, err := a.sessions.Register(ctx, session.Registration{
		FullName: args[0],
		Email:    args[1],
		Password: args[2],
	})
	if err != nil {
		return err
	}
	fmt.Println(msg)
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: login <email> <password>")
	}
	profile, err := a.sessions.Login(ctx, session.Credentials{Email: args[0], Password: args[1]})
	if err != nil {
		return err
	}
	fmt.Printf("logged in as %s (%s)\n", profile.FullName, profile.Role)
	return nil
}

func (a *app) me(ctx context.Context) error {
	if !a.sessions.IsAuthenticated() {
		fmt.Println("not logged in")
		return nil
	}
	profile, err := a.sessions.GetUser(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s <%s> role=%s status=%s\n", profile.FullName, profile.Email, profile.Role, profile.Status)
	return nil
}

func (a *app) products(ctx context.Context, args []string) error {
	filters := panel.Filters{}
	if len(args) > 0 {
		filters["q"] = args[0]
	}
	page, err := a.console.Products.List(ctx, 1, 20, filters)
	if err != nil {
		return err
	}
	for _, p := range page.Items {
		fmt.Printf("%-28s %-32s %8s  stock=%d\n", p.ID, p.Name, p.Price.StringFixed(2), p.Stock)
	}
	fmt.Printf("page %d/%d (%d items)\n", page.Pagination.Page, page.Pagination.TotalPages, page.Pagination.TotalItems)
	return nil
}

func (a *app) cart(ctx context.Context, args []string) error {
	if len(args) == 0 {
		args = []string{"show"}
	}

	switch args[0] {
	case "show":
		current, err := a.carts.Refresh(ctx)
		if err != nil {
			return err
		}
		printCart(*current, a.cfg.Checkout.TaxRate)
		return nil
	case "add":
		if len(args) < 2 {
			return fmt.Errorf("usage: cart add <productID> [qty]")
		}
		qty := 1
		if len(args) > 2 {
			var err error
			if qty, err = strconv.Atoi(args[2]); err != nil {
				return fmt.Errorf("quantity must be a number")
			}
		}
		current, err := a.carts.AddToCart(ctx, args[1], qty)
		if err != nil {
			return err
		}
		printCart(*current, a.cfg.Checkout.TaxRate)
		return nil
	case "set":
		if len(args) != 3 {
			return fmt.Errorf("usage: cart set <productID> <qty>")
		}
		qty, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("quantity must be a number")
		}
		if qty < 1 {
			fmt.Println("quantity below 1 ignored")
			return nil
		}
		if err := a.carts.UpdateQuantity(ctx, args[1], qty); err != nil {
			return err
		}
		printCart(a.carts.Current(), a.cfg.Checkout.TaxRate)
		return nil
	case "rm":
		if len(args) != 2 {
			return fmt.Errorf("usage: cart rm <productID>")
		}
		removed, err := a.carts.RemoveFromCart(ctx, args[1])
		if err != nil {
			return err
		}
		fmt.Println("removed", removed)
		return nil
	default:
		return fmt.Errorf("unknown cart subcommand %q", args[0])
	}
}

func (a *app) checkout(ctx context.Context, args []string) error {
	coupon := ""
	if len(args) > 0 {
		coupon = args[0]
	}

	if _, err := a.carts.Refresh(ctx); err != nil {
		return err
	}
	totals := cart.ComputeTotals(a.carts.Current().Items, decimal.NewFromFloat(a.cfg.Checkout.TaxRate))
	fmt.Printf("subtotal %s  tax %s  total %s\n",
		totals.Subtotal.StringFixed(2), totals.Tax.StringFixed(2), totals.Total.StringFixed(2))

	fmt.Println("processing payment...")
	order, err := a.flow.PlaceOrder(ctx, coupon, func() {
		fmt.Println("thank you for your purchase")
	})
	if err != nil {
		return fmt.Errorf("%s", a.flow.FailureMessage())
	}
	fmt.Printf("order %s placed, total %s, status %s\n", order.ID, order.Total.StringFixed(2), order.Status)
	return nil
}

func (a *app) admin(ctx context.Context, args []string) error {
	if len(args) < 2 || args[1] != "list" {
		return fmt.Errorf("usage: admin <users|categories|products|reviews|orders> list [page]")
	}
	page := 1
	if len(args) > 2 {
		var err error
		if page, err = strconv.Atoi(args[2]); err != nil {
			return fmt.Errorf("page must be a number")
		}
	}

	switch args[0] {
	case "users":
		result, err := a.console.Users.List(ctx, page, 20, nil)
		if err != nil {
			return err
		}
		for _, u := range result.Items {
			fmt.Printf("%-28s %-28s %-8s %s\n", u.ID, u.Email, u.Role, u.Status)
		}
		printPagination(result.Pagination)
	case "categories":
		result, err := a.console.Categories.List(ctx, page, 20, nil)
		if err != nil {
			return err
		}
		for _, cat := range result.Items {
			fmt.Printf("%-28s %s\n", cat.ID, cat.Name)
		}
		printPagination(result.Pagination)
	case "products":
		result, err := a.console.Products.List(ctx, page, 20, nil)
		if err != nil {
			return err
		}
		for _, p := range result.Items {
			fmt.Printf("%-28s %-32s %8s\n", p.ID, p.Name, p.Price.StringFixed(2))
		}
		printPagination(result.Pagination)
	case "reviews":
		result, err := a.console.Reviews.List(ctx, page, 20, nil)
		if err != nil {
			return err
		}
		for _, r := range result.Items {
			fmt.Printf("%-28s product=%s rating=%d %s\n", r.ID, r.ProductID, r.Rating, r.Comment)
		}
		printPagination(result.Pagination)
	case "orders":
		result, err := a.console.Orders.List(ctx, page, 20, nil)
		if err != nil {
			return err
		}
		for _, o := range result.Items {
			fmt.Printf("%-28s total=%s status=%s\n", o.ID, o.Total.StringFixed(2), o.Status)
		}
		printPagination(result.Pagination)
	default:
		return fmt.Errorf("unknown resource %q", args[0])
	}
	return nil
}

func printCart(c model.Cart, taxRate float64) {
	if len(c.Items) == 0 {
		fmt.Println("cart is empty")
		return
	}
	for _, item := range c.Items {
		fmt.Printf("%-32s x%-3d @ %s\n", item.DisplayName(), item.Quantity, item.UnitPrice.StringFixed(2))
	}
	totals := cart.ComputeTotals(c.Items, decimal.NewFromFloat(taxRate))
	fmt.Printf("subtotal %s  tax %s  total %s\n",
		totals.Subtotal.StringFixed(2), totals.Tax.StringFixed(2), totals.Total.StringFixed(2))
}

func printPagination(p model.Pagination) {
	fmt.Printf("page %d/%d (%d items)\n", p.Page, p.TotalPages, p.TotalItems)
}
