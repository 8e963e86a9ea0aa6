package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"

	"forkful/internal/activity"
	"forkful/internal/api"
	"forkful/internal/domain"
	"forkful/internal/fakeapi"
	"forkful/internal/platform/config"
	"forkful/internal/platform/metrics"
	"forkful/internal/receipt"
	"forkful/internal/tokenstore"
)

const (
	demoEmail    = "demo@forkful.dev"
	demoPassword = "demo-password"
)

// cmdDemo runs a full session against an in-process backend: sign in, browse,
// fill the cart, check out for pickup, pay, and survive an access token
// expiry through the shared refresh.
func cmdDemo(ctx context.Context, cfg config.Config, log *slog.Logger, m *metrics.Metrics, publisher activity.Publisher, out io.Writer, _ []string) error {
	backend := fakeapi.New(fakeapi.WithLogger(log))
	server := httptest.NewServer(backend.Handler())
	defer server.Close()
	if _, err := backend.CreateUser(demoEmail, demoPassword); err != nil {
		return err
	}

	cfg.API.BaseURL = server.URL
	a := newApp(cfg, log, m, tokenstore.NewInMemory(), publisher, out)
	step := func(title string) { fmt.Fprintf(out, "\n== %s\n", title) }

	step("login")
	if err := cmdLogin(ctx, a, []string{demoEmail, demoPassword}); err != nil {
		return err
	}
	if err := a.store.Bootstrap(ctx); err != nil {
		return err
	}
	printCategories(out, a.store.Catalog.Snapshot().Categories)

	step("restaurants")
	if err := cmdRestaurants(ctx, a, nil); err != nil {
		return err
	}
	step("menu")
	if err := cmdMenu(ctx, a, []string{"1"}); err != nil {
		return err
	}

	step("cart")
	if err := cmdAdd(ctx, a, []string{"101", "2"}); err != nil {
		return err
	}
	fmt.Fprintln(out)
	if err := cmdAdd(ctx, a, []string{"201", "1"}); err != nil {
		fmt.Fprintf(out, "rejected: %v\n", err)
	}

	step("checkout")
	order, err := a.store.Orders.Create(ctx, api.CreateOrderRequest{DeliveryType: domain.DeliveryTypePickup})
	if err != nil {
		return displayError(a.store.Orders.Snapshot().Error, err)
	}
	printOrder(out, order)

	step("session refresh")
	backend.ExpireAccessTokens()
	if err := cmdPay(ctx, a, []string{fmt.Sprint(order.ID), "card"}); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nrefresh calls: %d\n", backend.RefreshCount())

	step("pickup code")
	code, err := receipt.PickupText(*order)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, code)

	if mem, ok := publisher.(*activity.MemoryStore); ok {
		step("activity")
		for _, e := range mem.List() {
			fmt.Fprintf(out, "%s  %-18s order=%d\n", e.Timestamp.Format("15:04:05"), e.Action, e.OrderID)
		}
	}
	return nil
}
