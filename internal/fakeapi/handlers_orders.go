package fakeapi

import (
	"fmt"
	"math"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"forkful/internal/api"
	"forkful/internal/domain"
	"forkful/internal/platform/middleware"
	dErrors "forkful/pkg/domain-errors"
)

const (
	timeLayout = time.RFC3339
	taxRate    = 0.08
)

// declinedCard is the card number suffix the payment handler always rejects.
const declinedCard = "0002"

var statusDisplay = map[domain.OrderStatus]string{
	domain.OrderStatusPending:        "Pending",
	domain.OrderStatusConfirmed:      "Confirmed",
	domain.OrderStatusPreparing:      "Preparing",
	domain.OrderStatusOutForDelivery: "Out for Delivery",
	domain.OrderStatusDelivered:      "Delivered",
	domain.OrderStatusCancelled:      "Cancelled",
}

var paymentDisplay = map[domain.PaymentStatus]string{
	domain.PaymentStatusPending:  "Pending",
	domain.PaymentStatusPaid:     "Paid",
	domain.PaymentStatusFailed:   "Failed",
	domain.PaymentStatusRefunded: "Refunded",
}

type orderResponse struct {
	Message string        `json:"message"`
	Order   *domain.Order `json:"order"`
}

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())

	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*domain.Order{}
	for id, owner := range s.orderOwner {
		if owner == userID {
			out = append(out, s.orders[id])
		}
	}
	slices.SortFunc(out, func(a, b *domain.Order) int { return b.ID - a.ID })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	s.withOrder(w, r, func(order *domain.Order) {
		writeJSON(w, http.StatusOK, order)
	})
}

// handleCreateOrder turns the user's cart into an order, pricing it
// server-side, and empties the cart.
func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req api.CreateOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		writeError(w, err)
		return
	}
	userID := middleware.UserID(r.Context())

	s.mu.Lock()
	defer s.mu.Unlock()
	cart := s.cartLocked(userID)
	if len(cart.Items) == 0 || cart.RestaurantID == nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "Cart is empty"))
		return
	}
	rest, _ := s.restaurantLocked(*cart.RestaurantID)
	if !rest.IsOpen {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "Restaurant is currently closed"))
		return
	}
	subtotal := cart.TotalAmount
	if subtotal < rest.MinimumOrder {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("Minimum order amount is $%.2f", rest.MinimumOrder)))
		return
	}
	discount := 0.0
	if req.CouponCode != "" {
		c, err := s.couponLocked(req.CouponCode, rest.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		if subtotal < c.MinimumAmount {
			writeError(w, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("Minimum order amount for this coupon is $%.2f", c.MinimumAmount)))
			return
		}
		discount = c.discount(subtotal)
	}
	fee := rest.DeliveryFee
	if req.DeliveryType == domain.DeliveryTypePickup {
		fee = 0
	}
	tax := roundCents(subtotal * taxRate)

	now := s.now().UTC()
	id := s.newIDLocked()
	order := &domain.Order{
		ID:                    id,
		OrderNumber:           fmt.Sprintf("FK%06d", id),
		RestaurantID:          rest.ID,
		RestaurantName:        rest.Name,
		RestaurantImage:       rest.Image,
		PaymentStatus:         domain.PaymentStatusPending,
		PaymentStatusDisplay:  paymentDisplay[domain.PaymentStatusPending],
		DeliveryType:          req.DeliveryType,
		DeliveryAddress:       req.DeliveryAddress,
		DeliveryPhone:         req.DeliveryPhone,
		DeliveryInstructions:  req.DeliveryInstructions,
		SpecialInstructions:   req.SpecialInstructions,
		PaymentMethod:         req.PaymentMethod,
		Subtotal:              subtotal,
		DeliveryFee:           fee,
		TaxAmount:             tax,
		DiscountAmount:        discount,
		TotalAmount:           roundCents(subtotal + fee + tax - discount),
		EstimatedDeliveryTime: now.Add(time.Duration(rest.EstimatedDeliveryTime) * time.Minute).Format(timeLayout),
		Items:                 make([]domain.OrderItem, 0, len(cart.Items)),
		TrackingUpdates:       []domain.OrderTracking{},
		CreatedAt:             now.Format(timeLayout),
	}
	for _, line := range cart.Items {
		order.Items = append(order.Items, domain.OrderItem{
			ID:                  s.newIDLocked(),
			MenuItemID:          line.MenuItem.ID,
			MenuItemName:        line.MenuItem.Name,
			MenuItemImage:       line.MenuItem.Image,
			Quantity:            line.Quantity,
			UnitPrice:           line.MenuItem.Price,
			TotalPrice:          line.TotalPrice,
			SpecialInstructions: line.SpecialInstructions,
		})
	}
	s.trackLocked(order, domain.OrderStatusPending, "Order placed")
	s.orders[id] = order
	s.orderOwner[id] = userID

	cart.Items = []domain.CartItem{}
	s.recalculateLocked(cart)

	writeJSON(w, http.StatusCreated, orderResponse{Message: "Order created successfully", Order: order})
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	s.withOrder(w, r, func(order *domain.Order) {
		if order.Status != domain.OrderStatusPending && order.Status != domain.OrderStatusConfirmed {
			writeError(w, dErrors.New(dErrors.CodeBadRequest, "Order cannot be cancelled at this stage"))
			return
		}
		s.trackLocked(order, domain.OrderStatusCancelled, "Order cancelled by customer")
		writeJSON(w, http.StatusOK, orderResponse{Message: "Order cancelled successfully", Order: order})
	})
}

func (s *Server) handlePay(w http.ResponseWriter, r *http.Request) {
	var req api.PaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, err)
		return
	}
	s.withOrder(w, r, func(order *domain.Order) {
		switch {
		case order.Status == domain.OrderStatusCancelled:
			writeError(w, dErrors.New(dErrors.CodeBadRequest, "Cannot pay for a cancelled order"))
			return
		case order.PaymentStatus == domain.PaymentStatusPaid:
			writeError(w, dErrors.New(dErrors.CodeBadRequest, "Order is already paid"))
			return
		case !s.methodEnabledLocked(req.PaymentMethod):
			writeError(w, dErrors.New(dErrors.CodeBadRequest, "Payment method is not available"))
			return
		}
		order.PaymentMethod = req.PaymentMethod
		if req.PaymentMethod == "card" && strings.HasSuffix(req.PaymentDetails["card_number"], declinedCard) {
			setPayment(order, domain.PaymentStatusFailed)
			writeError(w, dErrors.New(dErrors.CodeBadRequest, "Card declined"))
			return
		}
		setPayment(order, domain.PaymentStatusPaid)
		if order.Status == domain.OrderStatusPending {
			s.trackLocked(order, domain.OrderStatusConfirmed, "Payment received")
		}
		writeJSON(w, http.StatusOK, api.PaymentResult{
			Message:       "Payment processed successfully",
			TransactionID: "txn_" + uuid.NewString(),
			Order:         order,
		})
	})
}

func (s *Server) handleRefund(w http.ResponseWriter, r *http.Request) {
	s.withOrder(w, r, func(order *domain.Order) {
		if order.PaymentStatus != domain.PaymentStatusPaid {
			writeError(w, dErrors.New(dErrors.CodeBadRequest, "Only paid orders can be refunded"))
			return
		}
		setPayment(order, domain.PaymentStatusRefunded)
		if !order.Status.Terminal() {
			s.trackLocked(order, domain.OrderStatusCancelled, "Refunded and cancelled")
		}
		writeJSON(w, http.StatusOK, orderResponse{Message: "Refund requested successfully", Order: order})
	})
}

func (s *Server) handlePaymentMethods(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	methods := slices.Clone(s.methods)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"payment_methods": methods})
}

func (s *Server) handleValidateCoupon(w http.ResponseWriter, r *http.Request) {
	q := api.CouponQuery{Code: strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("code")))}
	if err := q.Validate(); err != nil {
		writeError(w, err)
		return
	}
	restaurantID, _ := strconv.Atoi(r.URL.Query().Get("restaurant_id"))

	s.mu.Lock()
	c, err := s.couponLocked(q.Code, restaurantID)
	s.mu.Unlock()
	if err != nil {
		writeError(w, err)
		return
	}
	result := c.CouponValidation
	result.Message = "Coupon is valid"
	writeJSON(w, http.StatusOK, result)
}

// withOrder resolves the {id} order owned by the caller and runs fn under
// the server lock. Other users' orders are reported as not found.
func (s *Server) withOrder(w http.ResponseWriter, r *http.Request, fn func(order *domain.Order)) {
	id, ok := pathID(r)
	if !ok {
		writeNotFound(w)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	order, found := s.orders[id]
	if !found || s.orderOwner[id] != middleware.UserID(r.Context()) {
		writeNotFound(w)
		return
	}
	fn(order)
}

func (s *Server) trackLocked(order *domain.Order, status domain.OrderStatus, message string) {
	now := s.now().UTC().Format(timeLayout)
	order.Status = status
	order.StatusDisplay = statusDisplay[status]
	if status == domain.OrderStatusDelivered {
		order.ActualDeliveryTime = now
	}
	order.TrackingUpdates = append(order.TrackingUpdates, domain.OrderTracking{
		ID:            s.newIDLocked(),
		Status:        status,
		StatusDisplay: statusDisplay[status],
		Message:       message,
		Timestamp:     now,
	})
}

func (s *Server) couponLocked(code string, restaurantID int) (coupon, error) {
	c, ok := s.coupons[code]
	if !ok || !c.active {
		return coupon{}, dErrors.New(dErrors.CodeBadRequest, "Invalid or expired coupon")
	}
	if restaurantID > 0 && c.RestaurantID != nil && *c.RestaurantID != restaurantID {
		return coupon{}, dErrors.New(dErrors.CodeBadRequest, "Coupon is not valid for this restaurant")
	}
	return c, nil
}

func (s *Server) methodEnabledLocked(id string) bool {
	return slices.ContainsFunc(s.methods, func(m domain.PaymentMethod) bool { return m.ID == id && m.Enabled })
}

func (c coupon) discount(subtotal float64) float64 {
	if c.DiscountType == "percentage" {
		return roundCents(subtotal * c.DiscountValue / 100)
	}
	return math.Min(c.DiscountValue, subtotal)
}

func setPayment(order *domain.Order, status domain.PaymentStatus) {
	order.PaymentStatus = status
	order.PaymentStatusDisplay = paymentDisplay[status]
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
