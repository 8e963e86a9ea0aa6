package api

import (
	"context"
	"fmt"
	"net/http"

	"forkful/internal/domain"
)

// PaymentResult is the response of /orders/{id}/pay/. Order is nil when the
// server did not echo the updated order.
type PaymentResult struct {
	Message       string        `json:"message"`
	TransactionID string        `json:"transaction_id,omitempty"`
	Order         *domain.Order `json:"order"`
}

func (c *Client) Orders(ctx context.Context) ([]domain.Order, error) {
	var list domain.List[domain.Order]
	if err := c.get(ctx, "/orders/", nil, &list); err != nil {
		return nil, err
	}
	return list.Items(), nil
}

func (c *Client) Order(ctx context.Context, id int) (*domain.Order, error) {
	if err := requireID("order", id); err != nil {
		return nil, err
	}
	var order domain.Order
	if err := c.get(ctx, fmt.Sprintf("/orders/%d/", id), nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// CreateOrder places an order from the current cart.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*domain.Order, error) {
	req.Normalize()
	if err := validate(&req); err != nil {
		return nil, err
	}
	return c.orderCall(ctx, call{method: http.MethodPost, path: "/orders/create/", body: req})
}

func (c *Client) CancelOrder(ctx context.Context, id int) (*domain.Order, error) {
	if err := requireID("order", id); err != nil {
		return nil, err
	}
	return c.orderCall(ctx, call{method: http.MethodPost, path: fmt.Sprintf("/orders/%d/cancel/", id)})
}

func (c *Client) ProcessPayment(ctx context.Context, id int, req PaymentRequest) (*PaymentResult, error) {
	if err := requireID("order", id); err != nil {
		return nil, err
	}
	if err := validate(&req); err != nil {
		return nil, err
	}
	var result PaymentResult
	if err := c.send(ctx, http.MethodPost, fmt.Sprintf("/orders/%d/pay/", id), req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) RequestRefund(ctx context.Context, id int) (*domain.Order, error) {
	if err := requireID("order", id); err != nil {
		return nil, err
	}
	return c.orderCall(ctx, call{method: http.MethodPost, path: fmt.Sprintf("/orders/%d/refund/", id)})
}

// PaymentMethods accepts {"payment_methods": [...]} or a bare array.
func (c *Client) PaymentMethods(ctx context.Context) ([]domain.PaymentMethod, error) {
	methods := []domain.PaymentMethod{}
	req := call{method: http.MethodGet, path: "/orders/payment-methods/"}
	if err := c.doEnveloped(ctx, req, "payment_methods", &methods); err != nil {
		return nil, err
	}
	return methods, nil
}

func (c *Client) ValidateCoupon(ctx context.Context, q CouponQuery) (*domain.CouponValidation, error) {
	if err := validate(q); err != nil {
		return nil, err
	}
	var result domain.CouponValidation
	if err := c.get(ctx, "/orders/coupons/validate/", q.Values(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) orderCall(ctx context.Context, req call) (*domain.Order, error) {
	var order domain.Order
	if err := c.doEnveloped(ctx, req, "order", &order); err != nil {
		return nil, err
	}
	return &order, nil
}
