package domain

// Category groups restaurants on the home screen.
type Category struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
}

// Restaurant is a catalog entry. Distance is only present on search results
// that were filtered by location.
type Restaurant struct {
	ID                    int        `json:"id"`
	Name                  string     `json:"name"`
	Description           string     `json:"description,omitempty"`
	Image                 string     `json:"image,omitempty"`
	CoverImage            string     `json:"cover_image,omitempty"`
	CuisineType           string     `json:"cuisine_type,omitempty"`
	PriceRange            string     `json:"price_range,omitempty"`
	AverageRating         float64    `json:"average_rating"`
	TotalReviews          int        `json:"total_reviews"`
	IsOpen                bool       `json:"is_open"`
	DeliveryFee           float64    `json:"delivery_fee"`
	MinimumOrder          float64    `json:"minimum_order"`
	EstimatedDeliveryTime int        `json:"estimated_delivery_time"`
	Categories            []Category `json:"categories,omitempty"`
	Distance              *float64   `json:"distance,omitempty"`
}

// MenuItem is a dish on a restaurant's menu.
type MenuItem struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	Description  string  `json:"description,omitempty"`
	Image        string  `json:"image,omitempty"`
	Price        float64 `json:"price"`
	Category     *int    `json:"category,omitempty"`
	CategoryName string  `json:"category_name,omitempty"`
	Calories     *int    `json:"calories,omitempty"`
	Ingredients  string  `json:"ingredients,omitempty"`
	Allergens    string  `json:"allergens,omitempty"`
	IsAvailable  bool    `json:"is_available"`
	IsVegetarian bool    `json:"is_vegetarian"`
	IsVegan      bool    `json:"is_vegan"`
	IsGlutenFree bool    `json:"is_gluten_free"`
	IsSpicy      bool    `json:"is_spicy"`
	OrderCount   int     `json:"order_count"`
}

// Review is a customer rating of a restaurant.
type Review struct {
	ID        int    `json:"id"`
	UserName  string `json:"user_name,omitempty"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
	CreatedAt string `json:"created_at,omitempty"`
}
