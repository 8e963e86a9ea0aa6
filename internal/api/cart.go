package api

import (
	"context"
	"fmt"
	"net/http"

	"forkful/internal/domain"
)

// Cart mutations return the server's whole cart, bare or as {"cart": {...}}.
// An empty body yields an empty cart.

func (c *Client) Cart(ctx context.Context) (*domain.Cart, error) {
	return c.cartCall(ctx, call{method: http.MethodGet, path: "/orders/cart/"})
}

func (c *Client) AddToCart(ctx context.Context, req AddToCartRequest) (*domain.Cart, error) {
	if err := validate(&req); err != nil {
		return nil, err
	}
	return c.cartCall(ctx, call{method: http.MethodPost, path: "/orders/cart/add/", body: req})
}

func (c *Client) UpdateCartItem(ctx context.Context, itemID int, req UpdateCartItemRequest) (*domain.Cart, error) {
	if err := requireID("cart item", itemID); err != nil {
		return nil, err
	}
	if err := validate(&req); err != nil {
		return nil, err
	}
	return c.cartCall(ctx, call{method: http.MethodPut, path: fmt.Sprintf("/orders/cart/items/%d/update/", itemID), body: req})
}

func (c *Client) RemoveCartItem(ctx context.Context, itemID int) (*domain.Cart, error) {
	if err := requireID("cart item", itemID); err != nil {
		return nil, err
	}
	return c.cartCall(ctx, call{method: http.MethodDelete, path: fmt.Sprintf("/orders/cart/items/%d/remove/", itemID)})
}

func (c *Client) ClearCart(ctx context.Context) (*domain.Cart, error) {
	return c.cartCall(ctx, call{method: http.MethodDelete, path: "/orders/cart/clear/"})
}

func (c *Client) cartCall(ctx context.Context, req call) (*domain.Cart, error) {
	cart := domain.Cart{Items: []domain.CartItem{}}
	if err := c.doEnveloped(ctx, req, "cart", &cart); err != nil {
		return nil, err
	}
	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}
	return &cart, nil
}
