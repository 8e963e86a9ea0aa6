package state

import (
	"context"
	"slices"
	"time"

	"forkful/internal/activity"
	"forkful/internal/api"
	"forkful/internal/domain"
	dErrors "forkful/pkg/domain-errors"
)

// DefaultPollInterval is how often Poll re-fetches an order.
const DefaultPollInterval = 15 * time.Second

// OrdersState lists orders most recent first. Status values come from the
// server only.
type OrdersState struct {
	Orders         []domain.Order
	Selected       *domain.Order
	PaymentMethods []domain.PaymentMethod
	Coupon         *domain.CouponValidation
	Loading        bool
	Error          string
}

func (s OrdersState) clone() OrdersState {
	s.Orders = slices.Clone(s.Orders)
	s.PaymentMethods = slices.Clone(s.PaymentMethods)
	if s.Selected != nil {
		s.Selected = cloneOrder(s.Selected)
	}
	if s.Coupon != nil {
		c := *s.Coupon
		s.Coupon = &c
	}
	return s
}

// cloneOrder copies o so the snapshot and callers never share its slices.
func cloneOrder(o *domain.Order) *domain.Order {
	c := *o
	c.Items = slices.Clone(o.Items)
	c.TrackingUpdates = slices.Clone(o.TrackingUpdates)
	return &c
}

func ordersPending(s OrdersState) OrdersState {
	s.Loading = true
	return s
}

func ordersRejected(s OrdersState, msg string) OrdersState {
	s.Loading = false
	s.Error = msg
	return s
}

func ordersSucceeded(s OrdersState) OrdersState {
	s.Loading = false
	s.Error = ""
	return s
}

func ordersLoaded(s OrdersState, orders []domain.Order) OrdersState {
	s = ordersSucceeded(s)
	s.Orders = orders
	return s
}

func orderSelected(s OrdersState, order *domain.Order) OrdersState {
	s = replaceOrder(s, order)
	s.Selected = cloneOrder(order)
	return s
}

// orderCreated prepends: the list is kept most recent first regardless of
// the order the server lists them in.
func orderCreated(s OrdersState, order *domain.Order) OrdersState {
	s = ordersSucceeded(s)
	s.Orders = append([]domain.Order{*cloneOrder(order)}, s.Orders...)
	return s
}

// replaceOrder swaps the order with the same id in place. An order that is not
// in the loaded list is not inserted.
func replaceOrder(s OrdersState, order *domain.Order) OrdersState {
	s = ordersSucceeded(s)
	if i := slices.IndexFunc(s.Orders, func(o domain.Order) bool { return o.ID == order.ID }); i >= 0 {
		orders := slices.Clone(s.Orders)
		orders[i] = *cloneOrder(order)
		s.Orders = orders
	}
	if s.Selected != nil && s.Selected.ID == order.ID {
		s.Selected = cloneOrder(order)
	}
	return s
}

func paymentProcessed(s OrdersState, res *api.PaymentResult) OrdersState {
	if res.Order == nil {
		return ordersSucceeded(s)
	}
	return replaceOrder(s, res.Order)
}

func paymentMethodsLoaded(s OrdersState, methods []domain.PaymentMethod) OrdersState {
	s = ordersSucceeded(s)
	s.PaymentMethods = methods
	return s
}

func couponValidated(s OrdersState, c *domain.CouponValidation) OrdersState {
	s = ordersSucceeded(s)
	s.Coupon = c
	return s
}

// OrdersSlice holds the user's orders and checkout helpers.
type OrdersSlice struct {
	root *Store
	snap *snapshot[OrdersState]
}

func newOrdersSlice(root *Store) *OrdersSlice {
	return &OrdersSlice{root: root, snap: newSnapshot(OrdersState{}, OrdersState.clone)}
}

func (o *OrdersSlice) Snapshot() OrdersState {
	return o.snap.get()
}

func (o *OrdersSlice) Subscribe(fn func(OrdersState)) (unsubscribe func()) {
	return o.snap.subscribe(fn)
}

func (o *OrdersSlice) FetchAll(ctx context.Context) ([]domain.Order, error) {
	return run(ctx, o.snap, ordersPending, o.root.client.Orders, ordersLoaded, ordersRejected, "Failed to fetch orders")
}

// Fetch loads one order as the selection and refreshes its entry in the list.
func (o *OrdersSlice) Fetch(ctx context.Context, id int) (*domain.Order, error) {
	return run(ctx, o.snap, ordersPending,
		func(ctx context.Context) (*domain.Order, error) { return o.root.client.Order(ctx, id) },
		orderSelected, ordersRejected, "Failed to fetch order")
}

func (o *OrdersSlice) Create(ctx context.Context, req api.CreateOrderRequest) (*domain.Order, error) {
	order, err := run(ctx, o.snap, ordersPending,
		func(ctx context.Context) (*domain.Order, error) { return o.root.client.CreateOrder(ctx, req) },
		orderCreated, ordersRejected, "Failed to create order")
	if err != nil {
		return nil, err
	}
	// The server empties the cart when the order is placed.
	o.root.Cart.Reset()
	o.root.emit(ctx, activity.Event{Action: activity.ActionOrderCreated, OrderID: order.ID, RestaurantID: order.RestaurantID})
	return order, nil
}

func (o *OrdersSlice) Cancel(ctx context.Context, id int) (*domain.Order, error) {
	order, err := run(ctx, o.snap, ordersPending,
		func(ctx context.Context) (*domain.Order, error) { return o.root.client.CancelOrder(ctx, id) },
		replaceOrder, ordersRejected, "Failed to cancel order")
	if err != nil {
		return nil, err
	}
	o.root.emit(ctx, activity.Event{Action: activity.ActionOrderCancelled, OrderID: id})
	return order, nil
}

func (o *OrdersSlice) ProcessPayment(ctx context.Context, id int, req api.PaymentRequest) (*api.PaymentResult, error) {
	res, err := run(ctx, o.snap, ordersPending,
		func(ctx context.Context) (*api.PaymentResult, error) { return o.root.client.ProcessPayment(ctx, id, req) },
		paymentProcessed, ordersRejected, "Payment failed")
	if err != nil {
		return nil, err
	}
	o.root.emit(ctx, activity.Event{Action: activity.ActionPaymentProcessed, OrderID: id, Detail: req.PaymentMethod})
	return res, nil
}

func (o *OrdersSlice) RequestRefund(ctx context.Context, id int) (*domain.Order, error) {
	order, err := run(ctx, o.snap, ordersPending,
		func(ctx context.Context) (*domain.Order, error) { return o.root.client.RequestRefund(ctx, id) },
		replaceOrder, ordersRejected, "Failed to request refund")
	if err != nil {
		return nil, err
	}
	o.root.emit(ctx, activity.Event{Action: activity.ActionRefundRequested, OrderID: id})
	return order, nil
}

func (o *OrdersSlice) FetchPaymentMethods(ctx context.Context) ([]domain.PaymentMethod, error) {
	return run(ctx, o.snap, ordersPending, o.root.client.PaymentMethods, paymentMethodsLoaded, ordersRejected, "Failed to fetch payment methods")
}

func (o *OrdersSlice) ValidateCoupon(ctx context.Context, q api.CouponQuery) (*domain.CouponValidation, error) {
	return run(ctx, o.snap, ordersPending,
		func(ctx context.Context) (*domain.CouponValidation, error) { return o.root.client.ValidateCoupon(ctx, q) },
		couponValidated, ordersRejected, "Invalid coupon")
}

func (o *OrdersSlice) ClearSelected() {
	o.snap.apply(func(s OrdersState) OrdersState {
		s.Selected = nil
		return s
	})
}

func (o *OrdersSlice) Reset() {
	o.snap.apply(func(OrdersState) OrdersState { return OrdersState{} })
}

func (o *OrdersSlice) ClearError() {
	o.snap.apply(func(s OrdersState) OrdersState {
		s.Error = ""
		return s
	})
}

// Poll re-fetches order id every interval until its status is terminal, the
// context ends, or the server rejects the request outright. Transient network
// failures are retried on the next tick. The last fetched order is returned.
func (o *OrdersSlice) Poll(ctx context.Context, id int, interval time.Duration) (*domain.Order, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last *domain.Order
	for {
		order, err := o.Fetch(ctx, id)
		switch {
		case err == nil:
			last = order
			if order.Status.Terminal() {
				return order, nil
			}
		case dErrors.HasCode(err, dErrors.CodeNetwork), dErrors.HasCode(err, dErrors.CodeTimeout):
			o.root.logger.DebugContext(ctx, "order poll failed, retrying", "order_id", id, "error", err)
		default:
			return last, err
		}

		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-ticker.C:
		}
	}
}
