package api

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/asaskevich/govalidator"

	"forkful/internal/domain"
	dErrors "forkful/pkg/domain-errors"
)

// Request bodies follow Normalize -> Validate before dispatch. Validation
// order: Size -> Required -> Syntax -> Semantic.

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Normalize() {
	if r == nil {
		return
	}
	r.Email = strings.TrimSpace(strings.ToLower(r.Email))
}

func (r *LoginRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if !govalidator.StringLength(r.Email, "1", "255") {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if r.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "password is required")
	}
	if !govalidator.IsEmail(r.Email) {
		return dErrors.New(dErrors.CodeValidation, "invalid email")
	}
	return nil
}

type RegisterRequest struct {
	Email           string `json:"email"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	FirstName       string `json:"first_name,omitempty"`
	LastName        string `json:"last_name,omitempty"`
	PhoneNumber     string `json:"phone_number,omitempty"`
}

func (r *RegisterRequest) Normalize() {
	if r == nil {
		return
	}
	r.Email = strings.TrimSpace(strings.ToLower(r.Email))
	r.Username = strings.TrimSpace(r.Username)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.PhoneNumber = strings.TrimSpace(r.PhoneNumber)
}

func (r *RegisterRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if len(r.Email) > 255 || len(r.Username) > 150 {
		return dErrors.New(dErrors.CodeValidation, "email or username too long")
	}
	if r.Email == "" || r.Username == "" || r.Password == "" {
		return dErrors.New(dErrors.CodeValidation, "email, username and password are required")
	}
	if !govalidator.IsEmail(r.Email) {
		return dErrors.New(dErrors.CodeValidation, "invalid email")
	}
	if r.PhoneNumber != "" && !govalidator.Matches(r.PhoneNumber, `^\+?[0-9 ()-]{6,20}$`) {
		return dErrors.New(dErrors.CodeValidation, "invalid phone number")
	}
	if r.Password != r.PasswordConfirm {
		return dErrors.New(dErrors.CodeValidation, "passwords do not match")
	}
	return nil
}

// UpdateProfileRequest is a partial update; nil fields are left unchanged.
type UpdateProfileRequest struct {
	FirstName   *string `json:"first_name,omitempty"`
	LastName    *string `json:"last_name,omitempty"`
	PhoneNumber *string `json:"phone_number,omitempty"`
	Address     *string `json:"address,omitempty"`
}

func (r *UpdateProfileRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.FirstName == nil && r.LastName == nil && r.PhoneNumber == nil && r.Address == nil {
		return dErrors.New(dErrors.CodeValidation, "no fields to update")
	}
	if r.PhoneNumber != nil && *r.PhoneNumber != "" && !govalidator.Matches(*r.PhoneNumber, `^\+?[0-9 ()-]{6,20}$`) {
		return dErrors.New(dErrors.CodeValidation, "invalid phone number")
	}
	return nil
}

type ChangePasswordRequest struct {
	OldPassword        string `json:"old_password"`
	NewPassword        string `json:"new_password"`
	NewPasswordConfirm string `json:"new_password_confirm"`
}

func (r *ChangePasswordRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.OldPassword == "" || r.NewPassword == "" {
		return dErrors.New(dErrors.CodeValidation, "old and new password are required")
	}
	if r.NewPassword != r.NewPasswordConfirm {
		return dErrors.New(dErrors.CodeValidation, "passwords do not match")
	}
	return nil
}

// RefreshRequest is the body of the token refresh call.
type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

// RestaurantQuery filters the restaurant listing. Zero fields are omitted.
type RestaurantQuery struct {
	Search         string
	Category       string
	Cuisine        string
	MinRating      float64
	MaxDeliveryFee *float64
	PriceRange     string
	Page           int
}

func (q RestaurantQuery) Values() url.Values {
	v := url.Values{}
	setString(v, "search", q.Search)
	setString(v, "category", q.Category)
	setString(v, "cuisine_type", q.Cuisine)
	setString(v, "price_range", q.PriceRange)
	if q.MinRating > 0 {
		v.Set("min_rating", strconv.FormatFloat(q.MinRating, 'f', -1, 64))
	}
	if q.MaxDeliveryFee != nil {
		v.Set("max_delivery_fee", strconv.FormatFloat(*q.MaxDeliveryFee, 'f', -1, 64))
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	return v
}

// MenuQuery filters a restaurant's menu.
type MenuQuery struct {
	Category       int
	VegetarianOnly bool
	AvailableOnly  bool
}

func (q MenuQuery) Values() url.Values {
	v := url.Values{}
	if q.Category > 0 {
		v.Set("category", strconv.Itoa(q.Category))
	}
	if q.VegetarianOnly {
		v.Set("is_vegetarian", "true")
	}
	if q.AvailableOnly {
		v.Set("is_available", "true")
	}
	return v
}

// SearchQuery drives /restaurants/search/. Latitude and Longitude must be set
// together.
type SearchQuery struct {
	Query     string
	Cuisine   string
	Latitude  *float64
	Longitude *float64
	Radius    float64
}

func (q SearchQuery) Validate() error {
	if len(q.Query) > 200 {
		return dErrors.New(dErrors.CodeValidation, "search query must be 200 characters or less")
	}
	if (q.Latitude == nil) != (q.Longitude == nil) {
		return dErrors.New(dErrors.CodeValidation, "latitude and longitude must be provided together")
	}
	if q.Latitude != nil && !govalidator.IsLatitude(strconv.FormatFloat(*q.Latitude, 'f', -1, 64)) {
		return dErrors.New(dErrors.CodeValidation, "invalid latitude")
	}
	if q.Longitude != nil && !govalidator.IsLongitude(strconv.FormatFloat(*q.Longitude, 'f', -1, 64)) {
		return dErrors.New(dErrors.CodeValidation, "invalid longitude")
	}
	return nil
}

func (q SearchQuery) Values() url.Values {
	v := url.Values{}
	setString(v, "q", strings.TrimSpace(q.Query))
	setString(v, "cuisine_type", q.Cuisine)
	if q.Latitude != nil && q.Longitude != nil {
		v.Set("latitude", strconv.FormatFloat(*q.Latitude, 'f', -1, 64))
		v.Set("longitude", strconv.FormatFloat(*q.Longitude, 'f', -1, 64))
	}
	if q.Radius > 0 {
		v.Set("radius", strconv.FormatFloat(q.Radius, 'f', -1, 64))
	}
	return v
}

type CreateReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (r *CreateReviewRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if len(r.Comment) > 2000 {
		return dErrors.New(dErrors.CodeValidation, "comment must be 2000 characters or less")
	}
	if !govalidator.InRangeInt(r.Rating, 1, 5) {
		return dErrors.New(dErrors.CodeValidation, "rating must be between 1 and 5")
	}
	return nil
}

type AddToCartRequest struct {
	MenuItemID          int    `json:"menu_item_id"`
	Quantity            int    `json:"quantity"`
	SpecialInstructions string `json:"special_instructions,omitempty"`
}

func (r *AddToCartRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if len(r.SpecialInstructions) > 500 {
		return dErrors.New(dErrors.CodeValidation, "special instructions must be 500 characters or less")
	}
	if r.MenuItemID <= 0 {
		return dErrors.New(dErrors.CodeValidation, "menu_item_id is required")
	}
	if r.Quantity <= 0 {
		return dErrors.New(dErrors.CodeValidation, "quantity must be positive")
	}
	return nil
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

func (r *UpdateCartItemRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.Quantity <= 0 {
		return dErrors.New(dErrors.CodeValidation, "quantity must be positive")
	}
	return nil
}

type CreateOrderRequest struct {
	DeliveryType         domain.DeliveryType `json:"delivery_type"`
	DeliveryAddress      string              `json:"delivery_address,omitempty"`
	DeliveryPhone        string              `json:"delivery_phone,omitempty"`
	DeliveryInstructions string              `json:"delivery_instructions,omitempty"`
	SpecialInstructions  string              `json:"special_instructions,omitempty"`
	PaymentMethod        string              `json:"payment_method,omitempty"`
	CouponCode           string              `json:"coupon_code,omitempty"`
}

func (r *CreateOrderRequest) Normalize() {
	if r == nil {
		return
	}
	if r.DeliveryType == "" {
		r.DeliveryType = domain.DeliveryTypeDelivery
	}
	r.DeliveryAddress = strings.TrimSpace(r.DeliveryAddress)
	r.DeliveryPhone = strings.TrimSpace(r.DeliveryPhone)
	r.CouponCode = strings.ToUpper(strings.TrimSpace(r.CouponCode))
}

func (r *CreateOrderRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if len(r.DeliveryAddress) > 500 || len(r.DeliveryInstructions) > 500 || len(r.SpecialInstructions) > 500 {
		return dErrors.New(dErrors.CodeValidation, "instructions and address must be 500 characters or less")
	}
	switch r.DeliveryType {
	case domain.DeliveryTypeDelivery:
		if r.DeliveryAddress == "" {
			return dErrors.New(dErrors.CodeValidation, "delivery address is required")
		}
		if r.DeliveryPhone == "" {
			return dErrors.New(dErrors.CodeValidation, "delivery phone is required")
		}
	case domain.DeliveryTypePickup:
	default:
		return dErrors.New(dErrors.CodeValidation, "delivery_type must be 'delivery' or 'pickup'")
	}
	if r.DeliveryPhone != "" && !govalidator.Matches(r.DeliveryPhone, `^\+?[0-9 ()-]{6,20}$`) {
		return dErrors.New(dErrors.CodeValidation, "invalid delivery phone")
	}
	return nil
}

type PaymentRequest struct {
	PaymentMethod  string            `json:"payment_method"`
	PaymentDetails map[string]string `json:"payment_details,omitempty"`
}

func (r *PaymentRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if strings.TrimSpace(r.PaymentMethod) == "" {
		return dErrors.New(dErrors.CodeValidation, "payment_method is required")
	}
	return nil
}

// CouponQuery checks a coupon code, optionally against one restaurant.
type CouponQuery struct {
	Code         string
	RestaurantID int
}

func (q CouponQuery) Validate() error {
	code := strings.TrimSpace(q.Code)
	if len(code) > 50 {
		return dErrors.New(dErrors.CodeValidation, "coupon code must be 50 characters or less")
	}
	if code == "" {
		return dErrors.New(dErrors.CodeValidation, "coupon code is required")
	}
	if !govalidator.IsAlphanumeric(strings.ReplaceAll(code, "-", "")) {
		return dErrors.New(dErrors.CodeValidation, "coupon code must be alphanumeric")
	}
	return nil
}

func (q CouponQuery) Values() url.Values {
	v := url.Values{}
	v.Set("code", strings.ToUpper(strings.TrimSpace(q.Code)))
	if q.RestaurantID > 0 {
		v.Set("restaurant_id", strconv.Itoa(q.RestaurantID))
	}
	return v
}

func setString(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}
