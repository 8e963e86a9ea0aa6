package fakeapi

import (
	"net/http"
	"slices"

	"forkful/internal/api"
	"forkful/internal/domain"
	"forkful/internal/platform/middleware"
	dErrors "forkful/pkg/domain-errors"
)

type cartResponse struct {
	Message string       `json:"message"`
	Cart    *domain.Cart `json:"cart"`
}

func (s *Server) handleCart(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.cartLocked(middleware.UserID(r.Context())))
}

// handleAddToCart merges quantities for an item already in the cart. A cart
// holds items from one restaurant only.
func (s *Server) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	var req api.AddToCartRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.menu[req.MenuItemID]
	if !ok {
		writeError(w, dErrors.New(dErrors.CodeNotFound, "Menu item not found"))
		return
	}
	if !item.IsAvailable {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "This item is currently unavailable"))
		return
	}
	cart := s.cartLocked(middleware.UserID(r.Context()))
	owner := s.menuOwner[item.ID]
	if cart.RestaurantID != nil && *cart.RestaurantID != owner {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "You can only order from one restaurant at a time. Clear your cart first."))
		return
	}

	if i := slices.IndexFunc(cart.Items, func(line domain.CartItem) bool { return line.MenuItem.ID == item.ID }); i >= 0 {
		cart.Items[i].Quantity += req.Quantity
		if req.SpecialInstructions != "" {
			cart.Items[i].SpecialInstructions = req.SpecialInstructions
		}
	} else {
		cart.Items = append(cart.Items, domain.CartItem{
			ID:                  s.newIDLocked(),
			MenuItem:            item,
			Quantity:            req.Quantity,
			SpecialInstructions: req.SpecialInstructions,
		})
	}
	s.recalculateLocked(cart)
	writeJSON(w, http.StatusCreated, cartResponse{Message: "Item added to cart", Cart: cart})
}

func (s *Server) handleUpdateCartItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeNotFound(w)
		return
	}
	var req api.UpdateCartItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cart := s.cartLocked(middleware.UserID(r.Context()))
	i := slices.IndexFunc(cart.Items, func(line domain.CartItem) bool { return line.ID == id })
	if i < 0 {
		writeError(w, dErrors.New(dErrors.CodeNotFound, "Cart item not found"))
		return
	}
	msg := "Cart updated"
	if req.Quantity <= 0 {
		cart.Items = slices.Delete(cart.Items, i, i+1)
		msg = "Item removed from cart"
	} else {
		cart.Items[i].Quantity = req.Quantity
	}
	s.recalculateLocked(cart)
	writeJSON(w, http.StatusOK, cartResponse{Message: msg, Cart: cart})
}

func (s *Server) handleRemoveCartItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeNotFound(w)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cart := s.cartLocked(middleware.UserID(r.Context()))
	i := slices.IndexFunc(cart.Items, func(line domain.CartItem) bool { return line.ID == id })
	if i < 0 {
		writeError(w, dErrors.New(dErrors.CodeNotFound, "Cart item not found"))
		return
	}
	cart.Items = slices.Delete(cart.Items, i, i+1)
	s.recalculateLocked(cart)
	writeJSON(w, http.StatusOK, cartResponse{Message: "Item removed from cart", Cart: cart})
}

func (s *Server) handleClearCart(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cart := s.cartLocked(middleware.UserID(r.Context()))
	cart.Items = []domain.CartItem{}
	s.recalculateLocked(cart)
	writeJSON(w, http.StatusOK, cartResponse{Message: "Cart cleared", Cart: cart})
}

// cartLocked returns the user's cart, creating an empty one on first use.
func (s *Server) cartLocked(userID int) *domain.Cart {
	cart, ok := s.carts[userID]
	if !ok {
		cart = &domain.Cart{ID: s.newIDLocked(), Items: []domain.CartItem{}}
		s.carts[userID] = cart
	}
	return cart
}

// recalculateLocked derives line totals, cart totals and the owning
// restaurant from the cart's lines.
func (s *Server) recalculateLocked(cart *domain.Cart) {
	cart.TotalAmount = 0
	cart.TotalItems = 0
	for i := range cart.Items {
		line := &cart.Items[i]
		line.TotalPrice = roundCents(line.MenuItem.Price * float64(line.Quantity))
		cart.TotalAmount += line.TotalPrice
		cart.TotalItems += line.Quantity
	}
	cart.TotalAmount = roundCents(cart.TotalAmount)
	cart.UpdatedAt = s.now().UTC().Format(timeLayout)

	if len(cart.Items) == 0 {
		cart.RestaurantID = nil
		cart.RestaurantName = ""
		return
	}
	owner := s.menuOwner[cart.Items[0].MenuItem.ID]
	cart.RestaurantID = &owner
	if rest, ok := s.restaurantLocked(owner); ok {
		cart.RestaurantName = rest.Name
	}
}
