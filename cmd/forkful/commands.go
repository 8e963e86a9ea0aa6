package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"forkful/internal/activity"
	"forkful/internal/api"
	"forkful/internal/domain"
	"forkful/internal/platform/config"
	"forkful/internal/platform/metrics"
	"forkful/internal/receipt"
)

var errUsage = errors.New("usage")

const checkoutUsage = "pickup | <address> <phone> [coupon]"

type command struct {
	usage   string
	summary string
	minArgs int
	run     func(ctx context.Context, a *app, args []string) error
	// confirm, when set, builds the question asked before a destructive
	// command runs. --yes skips it.
	confirm func(args []string) string
	// standalone commands build their own stack instead of using the
	// configured token store and API.
	standalone func(ctx context.Context, cfg config.Config, log *slog.Logger, m *metrics.Metrics, publisher activity.Publisher, out io.Writer, args []string) error
}

var commands = map[string]command{
	"login":      {usage: "<email> <password>", summary: "sign in and store the session", minArgs: 2, run: cmdLogin},
	"logout": {
		usage: "[--yes]", summary: "forget the stored session", run: cmdLogout,
		confirm: func([]string) string { return "Sign out" },
	},
	"whoami":     {summary: "show the signed-in user", run: cmdWhoami},
	"categories": {summary: "list restaurant categories", run: cmdCategories},
	"restaurants": {
		usage: "[query]", summary: "list restaurants, optionally filtered by name", run: cmdRestaurants,
	},
	"menu":       {usage: "<restaurant-id>", summary: "show a restaurant's menu", minArgs: 1, run: cmdMenu},
	"cart":       {summary: "show the cart", run: cmdCart},
	"add":        {usage: "<menu-item-id> <qty>", summary: "add an item to the cart", minArgs: 2, run: cmdAdd},
	"set-qty":    {usage: "<cart-item-id> <qty>", summary: "change a cart line's quantity (0 removes it)", minArgs: 2, run: cmdSetQty},
	"remove": {
		usage: "<cart-item-id> [--yes]", summary: "remove a cart line", minArgs: 1, run: cmdRemove,
		confirm: func(args []string) string { return "Remove cart item " + args[0] },
	},
	"clear-cart": {
		usage: "[--yes]", summary: "empty the cart", run: cmdClearCart,
		confirm: func([]string) string { return "Remove every item from the cart" },
	},
	"orders":     {summary: "list your orders", run: cmdOrders},
	"order":      {usage: "<id>", summary: "show one order with its tracking history", minArgs: 1, run: cmdOrder},
	"checkout": {
		usage: checkoutUsage, summary: "place an order from the cart", minArgs: 1, run: cmdCheckout,
	},
	"cancel": {
		usage: "<id> [--yes]", summary: "cancel an order", minArgs: 1, run: cmdCancel,
		confirm: func(args []string) string { return "Cancel order " + args[0] },
	},
	"pay":       {usage: "<id> <method>", summary: "pay for an order", minArgs: 2, run: cmdPay},
	"pickup-qr": {usage: "<id> <file>", summary: "write the pickup QR code as PNG", minArgs: 2, run: cmdPickupQR},
	"demo":      {summary: "run a scripted session against an in-process backend", standalone: cmdDemo},
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: forkful <command> [args]")
	fmt.Fprintln(w)
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := commands[name]
		fmt.Fprintf(w, "  %-12s %-36s %s\n", name, c.usage, c.summary)
	}
}

func cmdLogin(ctx context.Context, a *app, args []string) error {
	user, err := a.store.Auth.Login(ctx, api.LoginRequest{Email: args[0], Password: args[1]})
	if err != nil {
		return displayError(a.store.Auth.Snapshot().Error, err)
	}
	fmt.Fprintf(a.out, "signed in as %s\n", user.Email)
	return nil
}

func cmdLogout(ctx context.Context, a *app, _ []string) error {
	if err := a.store.Auth.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "signed out")
	return nil
}

func cmdWhoami(ctx context.Context, a *app, _ []string) error {
	if !a.store.Auth.Snapshot().Session.Authenticated {
		fmt.Fprintln(a.out, "not signed in")
		return nil
	}
	user, err := a.store.Auth.FetchProfile(ctx)
	if err != nil {
		return displayError(a.store.Auth.Snapshot().Error, err)
	}
	printUser(a.out, user)
	return nil
}

func cmdCategories(ctx context.Context, a *app, _ []string) error {
	categories, err := a.store.Catalog.FetchCategories(ctx)
	if err != nil {
		return displayError(a.store.Catalog.Snapshot().Error, err)
	}
	printCategories(a.out, categories)
	return nil
}

func cmdRestaurants(ctx context.Context, a *app, args []string) error {
	a.store.Catalog.SetSearchQuery(strings.Join(args, " "))
	restaurants, err := a.store.Catalog.FetchRestaurants(ctx, a.store.Catalog.Snapshot().Query())
	if err != nil {
		return displayError(a.store.Catalog.Snapshot().Error, err)
	}
	printRestaurants(a.out, restaurants)
	return nil
}

func cmdMenu(ctx context.Context, a *app, args []string) error {
	id, err := parseID("restaurant id", args[0])
	if err != nil {
		return err
	}
	restaurant, err := a.store.Catalog.FetchRestaurant(ctx, id)
	if err != nil {
		return displayError(a.store.Catalog.Snapshot().Error, err)
	}
	items, err := a.store.Catalog.FetchMenuItems(ctx, id, api.MenuQuery{})
	if err != nil {
		return displayError(a.store.Catalog.Snapshot().Error, err)
	}
	fmt.Fprintf(a.out, "%s (%s, %s)\n\n", restaurant.Name, restaurant.CuisineType, restaurant.PriceRange)
	printMenu(a.out, items)
	return nil
}

func cmdCart(ctx context.Context, a *app, _ []string) error {
	return a.cartAction(ctx, a.store.Cart.Fetch)
}

func cmdAdd(ctx context.Context, a *app, args []string) error {
	id, err := parseID("menu item id", args[0])
	if err != nil {
		return err
	}
	qty, err := parseQuantity(args[1])
	if err != nil {
		return err
	}
	return a.cartAction(ctx, func(ctx context.Context) (*domain.Cart, error) {
		return a.store.Cart.Add(ctx, api.AddToCartRequest{MenuItemID: id, Quantity: qty})
	})
}

func cmdSetQty(ctx context.Context, a *app, args []string) error {
	id, err := parseID("cart item id", args[0])
	if err != nil {
		return err
	}
	qty, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid quantity %q", args[1])
	}
	return a.cartAction(ctx, func(ctx context.Context) (*domain.Cart, error) {
		return a.store.Cart.UpdateQuantity(ctx, id, qty)
	})
}

func cmdRemove(ctx context.Context, a *app, args []string) error {
	id, err := parseID("cart item id", args[0])
	if err != nil {
		return err
	}
	return a.cartAction(ctx, func(ctx context.Context) (*domain.Cart, error) {
		return a.store.Cart.Remove(ctx, id)
	})
}

func cmdClearCart(ctx context.Context, a *app, _ []string) error {
	return a.cartAction(ctx, a.store.Cart.Clear)
}

func (a *app) cartAction(ctx context.Context, action func(context.Context) (*domain.Cart, error)) error {
	cart, err := action(ctx)
	if err != nil {
		return displayError(a.store.Cart.Snapshot().Error, err)
	}
	printCart(a.out, cart)
	return nil
}

func cmdOrders(ctx context.Context, a *app, _ []string) error {
	orders, err := a.store.Orders.FetchAll(ctx)
	if err != nil {
		return displayError(a.store.Orders.Snapshot().Error, err)
	}
	printOrders(a.out, orders)
	return nil
}

func cmdOrder(ctx context.Context, a *app, args []string) error {
	return a.orderAction(ctx, args[0], a.store.Orders.Fetch)
}

func cmdCheckout(ctx context.Context, a *app, args []string) error {
	req := api.CreateOrderRequest{DeliveryType: domain.DeliveryTypePickup}
	if args[0] != string(domain.DeliveryTypePickup) {
		if len(args) < 2 {
			return fmt.Errorf("usage: forkful checkout %s", checkoutUsage)
		}
		req = api.CreateOrderRequest{
			DeliveryType:    domain.DeliveryTypeDelivery,
			DeliveryAddress: args[0],
			DeliveryPhone:   args[1],
		}
		if len(args) > 2 {
			req.CouponCode = args[2]
		}
	}
	order, err := a.store.Orders.Create(ctx, req)
	if err != nil {
		return displayError(a.store.Orders.Snapshot().Error, err)
	}
	fmt.Fprintf(a.out, "order %s placed\n\n", order.OrderNumber)
	printOrder(a.out, order)
	return nil
}

func cmdCancel(ctx context.Context, a *app, args []string) error {
	return a.orderAction(ctx, args[0], a.store.Orders.Cancel)
}

func cmdPay(ctx context.Context, a *app, args []string) error {
	id, err := parseID("order id", args[0])
	if err != nil {
		return err
	}
	res, err := a.store.Orders.ProcessPayment(ctx, id, api.PaymentRequest{PaymentMethod: args[1]})
	if err != nil {
		return displayError(a.store.Orders.Snapshot().Error, err)
	}
	fmt.Fprintln(a.out, res.Message)
	if res.TransactionID != "" {
		fmt.Fprintf(a.out, "transaction %s\n", res.TransactionID)
	}
	if res.Order != nil {
		fmt.Fprintln(a.out)
		printOrder(a.out, res.Order)
	}
	return nil
}

func cmdPickupQR(ctx context.Context, a *app, args []string) error {
	id, err := parseID("order id", args[0])
	if err != nil {
		return err
	}
	order, err := a.store.Orders.Fetch(ctx, id)
	if err != nil {
		return displayError(a.store.Orders.Snapshot().Error, err)
	}
	if err := receipt.WritePickupQR(*order, receipt.DefaultSize, args[1]); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "pickup code for %s written to %s\n", order.OrderNumber, args[1])
	return nil
}

func (a *app) orderAction(ctx context.Context, rawID string, action func(context.Context, int) (*domain.Order, error)) error {
	id, err := parseID("order id", rawID)
	if err != nil {
		return err
	}
	order, err := action(ctx, id)
	if err != nil {
		return displayError(a.store.Orders.Snapshot().Error, err)
	}
	printOrder(a.out, order)
	return nil
}

// displayError prefers the slice's display message over the raw error.
func displayError(msg string, err error) error {
	if msg == "" {
		return err
	}
	return errors.New(msg)
}

func parseID(name, raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}

func parseQuantity(raw string) (int, error) {
	qty, err := strconv.Atoi(raw)
	if err != nil || qty <= 0 {
		return 0, fmt.Errorf("invalid quantity %q", raw)
	}
	return qty, nil
}
