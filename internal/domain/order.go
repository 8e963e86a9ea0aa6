package domain

// OrderStatus is whatever the server reports. The client never advances it and
// must render unknown values.
type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusConfirmed      OrderStatus = "confirmed"
	OrderStatusPreparing      OrderStatus = "preparing"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

var statusColors = map[OrderStatus]string{
	OrderStatusPending:        "#FFA500",
	OrderStatusConfirmed:      "#2196F3",
	OrderStatusPreparing:      "#9C27B0",
	OrderStatusOutForDelivery: "#FF5722",
	OrderStatusDelivered:      "#4CAF50",
	OrderStatusCancelled:      "#F44336",
}

// fallbackStatusColor is used for statuses the client does not recognise.
const fallbackStatusColor = "#757575"

// Known reports whether s is one of the documented statuses.
func (s OrderStatus) Known() bool {
	_, ok := statusColors[s]
	return ok
}

// Color is the display color for s.
func (s OrderStatus) Color() string {
	if c, ok := statusColors[s]; ok {
		return c
	}
	return fallbackStatusColor
}

// Terminal reports whether no further status updates are expected.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// PaymentStatus is reported by the server alongside the order status.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// DeliveryType is how the order reaches the customer.
type DeliveryType string

const (
	DeliveryTypeDelivery DeliveryType = "delivery"
	DeliveryTypePickup   DeliveryType = "pickup"
)

// OrderItem is a line of a placed order.
type OrderItem struct {
	ID                  int     `json:"id"`
	MenuItemID          int     `json:"menu_item"`
	MenuItemName        string  `json:"menu_item_name"`
	MenuItemImage       string  `json:"menu_item_image,omitempty"`
	Quantity            int     `json:"quantity"`
	UnitPrice           float64 `json:"unit_price"`
	TotalPrice          float64 `json:"total_price"`
	SpecialInstructions string  `json:"special_instructions,omitempty"`
}

// OrderTracking is one entry of an order's append-only status history, kept in
// server order.
type OrderTracking struct {
	ID            int         `json:"id"`
	Status        OrderStatus `json:"status"`
	StatusDisplay string      `json:"status_display,omitempty"`
	Message       string      `json:"message"`
	Timestamp     string      `json:"timestamp"`
}

// Order is immutable after creation except for Status and PaymentStatus.
type Order struct {
	ID                    int             `json:"id"`
	OrderNumber           string          `json:"order_number"`
	RestaurantID          int             `json:"restaurant"`
	RestaurantName        string          `json:"restaurant_name"`
	RestaurantImage       string          `json:"restaurant_image,omitempty"`
	Status                OrderStatus     `json:"status"`
	StatusDisplay         string          `json:"status_display,omitempty"`
	PaymentStatus         PaymentStatus   `json:"payment_status"`
	PaymentStatusDisplay  string          `json:"payment_status_display,omitempty"`
	DeliveryType          DeliveryType    `json:"delivery_type"`
	DeliveryAddress       string          `json:"delivery_address,omitempty"`
	DeliveryPhone         string          `json:"delivery_phone,omitempty"`
	DeliveryInstructions  string          `json:"delivery_instructions,omitempty"`
	Subtotal              float64         `json:"subtotal"`
	DeliveryFee           float64         `json:"delivery_fee"`
	TaxAmount             float64         `json:"tax_amount"`
	DiscountAmount        float64         `json:"discount_amount"`
	TotalAmount           float64         `json:"total_amount"`
	EstimatedDeliveryTime string          `json:"estimated_delivery_time,omitempty"`
	ActualDeliveryTime    string          `json:"actual_delivery_time,omitempty"`
	PaymentMethod         string          `json:"payment_method,omitempty"`
	SpecialInstructions   string          `json:"special_instructions,omitempty"`
	Items                 []OrderItem     `json:"items"`
	TrackingUpdates       []OrderTracking `json:"tracking_updates"`
	CreatedAt             string          `json:"created_at,omitempty"`
}

// PaymentMethod is an option offered by /orders/payment-methods/.
type PaymentMethod struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Enabled     bool   `json:"enabled"`
}

// CouponValidation is the result of /orders/coupons/validate/.
type CouponValidation struct {
	Valid         bool    `json:"valid"`
	Code          string  `json:"code"`
	DiscountType  string  `json:"discount_type,omitempty"`
	DiscountValue float64 `json:"discount_value,omitempty"`
	MinimumAmount float64 `json:"minimum_amount,omitempty"`
	Message       string  `json:"message,omitempty"`
	RestaurantID  *int    `json:"restaurant,omitempty"`
}
