package domain

// CartItem is one line of the cart. TotalPrice is server-computed.
type CartItem struct {
	ID                  int      `json:"id"`
	MenuItem            MenuItem `json:"menu_item"`
	Quantity            int      `json:"quantity"`
	SpecialInstructions string   `json:"special_instructions,omitempty"`
	TotalPrice          float64  `json:"total_price"`
}

// Cart holds items from a single restaurant. TotalAmount and TotalItems are
// aggregates computed by the server and trusted verbatim.
type Cart struct {
	ID             int        `json:"id"`
	RestaurantID   *int       `json:"restaurant,omitempty"`
	RestaurantName string     `json:"restaurant_name,omitempty"`
	Items          []CartItem `json:"items"`
	TotalAmount    float64    `json:"total_amount"`
	TotalItems     int        `json:"total_items"`
	UpdatedAt      string     `json:"updated_at,omitempty"`
}

// Item returns the line with the given id.
func (c *Cart) Item(id int) (CartItem, bool) {
	if c == nil {
		return CartItem{}, false
	}
	for _, item := range c.Items {
		if item.ID == id {
			return item, true
		}
	}
	return CartItem{}, false
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}
