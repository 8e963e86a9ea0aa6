package state

import (
	"context"
	"slices"

	"forkful/internal/activity"
	"forkful/internal/api"
	"forkful/internal/domain"
)

// CartState holds the server's cart verbatim. Totals are never recomputed
// locally.
type CartState struct {
	Cart    *domain.Cart
	Loading bool
	Error   string
}

func (s CartState) clone() CartState {
	if s.Cart != nil {
		c := *s.Cart
		c.Items = slices.Clone(c.Items)
		if c.RestaurantID != nil {
			id := *c.RestaurantID
			c.RestaurantID = &id
		}
		s.Cart = &c
	}
	return s
}

func cartPending(s CartState) CartState {
	s.Loading = true
	return s
}

func cartRejected(s CartState, msg string) CartState {
	s.Loading = false
	s.Error = msg
	return s
}

// cartReplaced installs the server's cart as a whole; there is no field merge.
// The snapshot keeps its own copy so the caller's value cannot alias it.
func cartReplaced(_ CartState, cart *domain.Cart) CartState {
	return CartState{Cart: cart}.clone()
}

// CartSlice mirrors the server-side cart.
type CartSlice struct {
	root *Store
	snap *snapshot[CartState]
}

func newCartSlice(root *Store) *CartSlice {
	return &CartSlice{root: root, snap: newSnapshot(CartState{}, CartState.clone)}
}

func (c *CartSlice) Snapshot() CartState {
	return c.snap.get()
}

func (c *CartSlice) Subscribe(fn func(CartState)) (unsubscribe func()) {
	return c.snap.subscribe(fn)
}

func (c *CartSlice) Fetch(ctx context.Context) (*domain.Cart, error) {
	return c.mutate(ctx, c.root.client.Cart, "Failed to fetch cart")
}

func (c *CartSlice) Add(ctx context.Context, req api.AddToCartRequest) (*domain.Cart, error) {
	return c.mutate(ctx, func(ctx context.Context) (*domain.Cart, error) {
		return c.root.client.AddToCart(ctx, req)
	}, "Failed to add item to cart")
}

// UpdateQuantity sets a line's quantity. Zero or less removes the line.
func (c *CartSlice) UpdateQuantity(ctx context.Context, itemID, quantity int) (*domain.Cart, error) {
	if quantity <= 0 {
		return c.Remove(ctx, itemID)
	}
	return c.mutate(ctx, func(ctx context.Context) (*domain.Cart, error) {
		return c.root.client.UpdateCartItem(ctx, itemID, api.UpdateCartItemRequest{Quantity: quantity})
	}, "Failed to update cart item")
}

func (c *CartSlice) Remove(ctx context.Context, itemID int) (*domain.Cart, error) {
	return c.mutate(ctx, func(ctx context.Context) (*domain.Cart, error) {
		return c.root.client.RemoveCartItem(ctx, itemID)
	}, "Failed to remove item from cart")
}

func (c *CartSlice) Clear(ctx context.Context) (*domain.Cart, error) {
	cart, err := c.mutate(ctx, c.root.client.ClearCart, "Failed to clear cart")
	if err != nil {
		return nil, err
	}
	c.root.emit(ctx, activity.Event{Action: activity.ActionCartCleared})
	return cart, nil
}

// Reset drops the local cart without touching the server.
func (c *CartSlice) Reset() {
	c.snap.apply(func(CartState) CartState { return CartState{} })
}

func (c *CartSlice) ClearError() {
	c.snap.apply(func(s CartState) CartState {
		s.Error = ""
		return s
	})
}

func (c *CartSlice) mutate(ctx context.Context, call func(context.Context) (*domain.Cart, error), fallback string) (*domain.Cart, error) {
	return run(ctx, c.snap, cartPending, call, cartReplaced, cartRejected, fallback)
}
