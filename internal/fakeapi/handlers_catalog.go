package fakeapi

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"forkful/internal/api"
	"forkful/internal/domain"
	"forkful/internal/platform/middleware"
	dErrors "forkful/pkg/domain-errors"
)

// page is the paginated list envelope; the client also accepts bare arrays,
// which the menu and search endpoints return.
type page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

func newPage[T any](items []T) page[T] {
	if items == nil {
		items = []T{}
	}
	return page[T]{Count: len(items), Results: items}
}

func pathID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	return id, err == nil && id > 0
}

func (s *Server) handleCategories(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	categories := slices.Clone(s.categories)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, newPage(categories))
}

func (s *Server) handleRestaurants(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	search := strings.ToLower(q.Get("search"))
	minRating, _ := strconv.ParseFloat(q.Get("min_rating"), 64)
	maxFee, hasMaxFee := parseFloat(q.Get("max_delivery_fee"))

	s.mu.Lock()
	var out []domain.Restaurant
	for _, rest := range s.restaurants {
		switch {
		case search != "" && !strings.Contains(strings.ToLower(rest.Name), search):
			continue
		case q.Get("category") != "" && !inCategory(rest, q.Get("category")):
			continue
		case q.Get("cuisine_type") != "" && !strings.EqualFold(rest.CuisineType, q.Get("cuisine_type")):
			continue
		case q.Get("price_range") != "" && rest.PriceRange != q.Get("price_range"):
			continue
		case rest.AverageRating < minRating:
			continue
		case hasMaxFee && rest.DeliveryFee > maxFee:
			continue
		}
		out = append(out, rest)
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, newPage(out))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	term := strings.ToLower(strings.TrimSpace(q.Get("q")))

	s.mu.Lock()
	out := []domain.Restaurant{}
	for _, rest := range s.restaurants {
		if q.Get("cuisine_type") != "" && !strings.EqualFold(rest.CuisineType, q.Get("cuisine_type")) {
			continue
		}
		if term != "" && !strings.Contains(strings.ToLower(rest.Name), term) && !strings.Contains(rest.CuisineType, term) {
			continue
		}
		out = append(out, rest)
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRestaurant(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeNotFound(w)
		return
	}
	s.mu.Lock()
	rest, found := s.restaurantLocked(id)
	s.mu.Unlock()
	if !found {
		writeNotFound(w)
		return
	}
	writeJSON(w, http.StatusOK, rest)
}

func (s *Server) handleMenu(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeNotFound(w)
		return
	}
	q := r.URL.Query()
	category, _ := strconv.Atoi(q.Get("category"))

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.restaurantLocked(id); !found {
		writeNotFound(w)
		return
	}
	out := []domain.MenuItem{}
	for itemID, owner := range s.menuOwner {
		item := s.menu[itemID]
		switch {
		case owner != id:
			continue
		case category > 0 && (item.Category == nil || *item.Category != category):
			continue
		case q.Get("is_vegetarian") == "true" && !item.IsVegetarian:
			continue
		case q.Get("is_available") == "true" && !item.IsAvailable:
			continue
		}
		out = append(out, item)
	}
	slices.SortFunc(out, func(a, b domain.MenuItem) int { return a.ID - b.ID })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeNotFound(w)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.restaurantLocked(id); !found {
		writeNotFound(w)
		return
	}
	writeJSON(w, http.StatusOK, newPage(slices.Clone(s.reviews[id])))
}

func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeNotFound(w)
		return
	}
	var req api.CreateReviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, err)
		return
	}
	userID := middleware.UserID(r.Context())

	s.mu.Lock()
	defer s.mu.Unlock()
	idx := slices.IndexFunc(s.restaurants, func(rest domain.Restaurant) bool { return rest.ID == id })
	if idx < 0 {
		writeNotFound(w)
		return
	}
	if s.reviewers[id][userID] {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "You have already reviewed this restaurant"))
		return
	}
	review := domain.Review{
		ID:        s.newIDLocked(),
		UserName:  s.accounts[userID].user.Username,
		Rating:    req.Rating,
		Comment:   req.Comment,
		CreatedAt: s.now().UTC().Format(timeLayout),
	}
	s.reviews[id] = append([]domain.Review{review}, s.reviews[id]...)
	if s.reviewers[id] == nil {
		s.reviewers[id] = make(map[int]bool)
	}
	s.reviewers[id][userID] = true

	rest := &s.restaurants[idx]
	total := rest.AverageRating*float64(rest.TotalReviews) + float64(req.Rating)
	rest.TotalReviews++
	rest.AverageRating = roundCents(total / float64(rest.TotalReviews))

	writeJSON(w, http.StatusCreated, review)
}

func (s *Server) restaurantLocked(id int) (domain.Restaurant, bool) {
	for _, rest := range s.restaurants {
		if rest.ID == id {
			return rest, true
		}
	}
	return domain.Restaurant{}, false
}

func inCategory(rest domain.Restaurant, category string) bool {
	for _, c := range rest.Categories {
		if strconv.Itoa(c.ID) == category || strings.EqualFold(c.Name, category) {
			return true
		}
	}
	return false
}

func parseFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil
}
