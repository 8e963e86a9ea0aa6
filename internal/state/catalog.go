package state

import (
	"context"
	"slices"

	"forkful/internal/activity"
	"forkful/internal/api"
	"forkful/internal/domain"
)

// Filters narrow the restaurant listing. Zero fields are unset.
type Filters struct {
	Category       string
	Cuisine        string
	MinRating      float64
	MaxDeliveryFee *float64
	PriceRange     string
}

// merge overlays the set fields of f onto base.
func (base Filters) merge(f Filters) Filters {
	if f.Category != "" {
		base.Category = f.Category
	}
	if f.Cuisine != "" {
		base.Cuisine = f.Cuisine
	}
	if f.MinRating != 0 {
		base.MinRating = f.MinRating
	}
	if f.MaxDeliveryFee != nil {
		v := *f.MaxDeliveryFee
		base.MaxDeliveryFee = &v
	}
	if f.PriceRange != "" {
		base.PriceRange = f.PriceRange
	}
	return base
}

// CatalogState is the browsing snapshot. MenuItems and Reviews belong to
// MenuRestaurantID and are cleared whenever the selection changes.
type CatalogState struct {
	Categories         []domain.Category
	Restaurants        []domain.Restaurant
	SelectedRestaurant *domain.Restaurant
	MenuRestaurantID   int
	MenuItems          []domain.MenuItem
	Reviews            []domain.Review
	SearchQuery        string
	Filters            Filters
	Loading            bool
	Error              string
}

func (s CatalogState) clone() CatalogState {
	s.Categories = slices.Clone(s.Categories)
	s.Restaurants = slices.Clone(s.Restaurants)
	s.MenuItems = slices.Clone(s.MenuItems)
	s.Reviews = slices.Clone(s.Reviews)
	if s.SelectedRestaurant != nil {
		r := *s.SelectedRestaurant
		s.SelectedRestaurant = &r
	}
	if s.Filters.MaxDeliveryFee != nil {
		v := *s.Filters.MaxDeliveryFee
		s.Filters.MaxDeliveryFee = &v
	}
	return s
}

// Query builds a listing query from the current search text and filters.
func (s CatalogState) Query() api.RestaurantQuery {
	return api.RestaurantQuery{
		Search:         s.SearchQuery,
		Category:       s.Filters.Category,
		Cuisine:        s.Filters.Cuisine,
		MinRating:      s.Filters.MinRating,
		MaxDeliveryFee: s.Filters.MaxDeliveryFee,
		PriceRange:     s.Filters.PriceRange,
	}
}

func catalogPending(s CatalogState) CatalogState {
	s.Loading = true
	return s
}

func catalogRejected(s CatalogState, msg string) CatalogState {
	s.Loading = false
	s.Error = msg
	return s
}

func catalogSucceeded(s CatalogState) CatalogState {
	s.Loading = false
	s.Error = ""
	return s
}

func categoriesLoaded(s CatalogState, categories []domain.Category) CatalogState {
	s = catalogSucceeded(s)
	s.Categories = categories
	return s
}

// restaurantsLoaded replaces the listing wholesale; there is no paging merge.
func restaurantsLoaded(s CatalogState, restaurants []domain.Restaurant) CatalogState {
	s = catalogSucceeded(s)
	s.Restaurants = restaurants
	return s
}

func restaurantSelected(s CatalogState, r *domain.Restaurant) CatalogState {
	s = catalogSucceeded(s)
	if s.MenuRestaurantID != r.ID {
		s.MenuRestaurantID = r.ID
		s.MenuItems = nil
		s.Reviews = nil
	}
	s.SelectedRestaurant = r
	return s
}

// belongsToSelection reports whether data fetched for restaurantID may be
// shown: a different current selection makes it stale.
func (s CatalogState) belongsToSelection(restaurantID int) bool {
	return s.SelectedRestaurant == nil || s.SelectedRestaurant.ID == restaurantID
}

func menuLoaded(restaurantID int) func(CatalogState, []domain.MenuItem) CatalogState {
	return func(s CatalogState, items []domain.MenuItem) CatalogState {
		s = catalogSucceeded(s)
		if !s.belongsToSelection(restaurantID) {
			return s
		}
		if s.MenuRestaurantID != restaurantID {
			s.Reviews = nil
		}
		s.MenuRestaurantID = restaurantID
		s.MenuItems = items
		return s
	}
}

func reviewsLoaded(restaurantID int) func(CatalogState, []domain.Review) CatalogState {
	return func(s CatalogState, reviews []domain.Review) CatalogState {
		s = catalogSucceeded(s)
		if !s.belongsToSelection(restaurantID) {
			return s
		}
		if s.MenuRestaurantID != restaurantID {
			s.MenuItems = nil
		}
		s.MenuRestaurantID = restaurantID
		s.Reviews = reviews
		return s
	}
}

func reviewCreated(restaurantID int) func(CatalogState, *domain.Review) CatalogState {
	return func(s CatalogState, review *domain.Review) CatalogState {
		s = catalogSucceeded(s)
		if s.MenuRestaurantID == restaurantID {
			s.Reviews = append([]domain.Review{*review}, s.Reviews...)
		}
		return s
	}
}

func selectionCleared(s CatalogState) CatalogState {
	s.SelectedRestaurant = nil
	s.MenuRestaurantID = 0
	s.MenuItems = nil
	s.Reviews = nil
	return s
}

// CatalogSlice holds categories, restaurants and the selected restaurant.
type CatalogSlice struct {
	root *Store
	snap *snapshot[CatalogState]
}

func newCatalogSlice(root *Store) *CatalogSlice {
	return &CatalogSlice{root: root, snap: newSnapshot(CatalogState{}, CatalogState.clone)}
}

func (c *CatalogSlice) Snapshot() CatalogState {
	return c.snap.get()
}

func (c *CatalogSlice) Subscribe(fn func(CatalogState)) (unsubscribe func()) {
	return c.snap.subscribe(fn)
}

func (c *CatalogSlice) FetchCategories(ctx context.Context) ([]domain.Category, error) {
	return run(ctx, c.snap, catalogPending, c.root.client.Categories, categoriesLoaded, catalogRejected, "Failed to fetch categories")
}

func (c *CatalogSlice) FetchRestaurants(ctx context.Context, q api.RestaurantQuery) ([]domain.Restaurant, error) {
	return run(ctx, c.snap, catalogPending,
		func(ctx context.Context) ([]domain.Restaurant, error) { return c.root.client.Restaurants(ctx, q) },
		restaurantsLoaded, catalogRejected, "Failed to fetch restaurants")
}

// FetchRestaurant selects a restaurant. Selecting a different one clears the
// menu and reviews of the previous selection.
func (c *CatalogSlice) FetchRestaurant(ctx context.Context, id int) (*domain.Restaurant, error) {
	return run(ctx, c.snap, catalogPending,
		func(ctx context.Context) (*domain.Restaurant, error) { return c.root.client.Restaurant(ctx, id) },
		restaurantSelected, catalogRejected, "Failed to fetch restaurant")
}

// FetchMenuItems loads a menu. A response arriving after the selection moved
// to another restaurant is discarded.
func (c *CatalogSlice) FetchMenuItems(ctx context.Context, restaurantID int, q api.MenuQuery) ([]domain.MenuItem, error) {
	return run(ctx, c.snap, catalogPending,
		func(ctx context.Context) ([]domain.MenuItem, error) {
			return c.root.client.MenuItems(ctx, restaurantID, q)
		},
		menuLoaded(restaurantID), catalogRejected, "Failed to fetch menu items")
}

// SearchRestaurants replaces the restaurant listing with the results.
func (c *CatalogSlice) SearchRestaurants(ctx context.Context, q api.SearchQuery) ([]domain.Restaurant, error) {
	return run(ctx, c.snap,
		func(s CatalogState) CatalogState {
			s = catalogPending(s)
			s.SearchQuery = q.Query
			return s
		},
		func(ctx context.Context) ([]domain.Restaurant, error) { return c.root.client.SearchRestaurants(ctx, q) },
		restaurantsLoaded, catalogRejected, "Search failed")
}

func (c *CatalogSlice) FetchReviews(ctx context.Context, restaurantID int) ([]domain.Review, error) {
	return run(ctx, c.snap, catalogPending,
		func(ctx context.Context) ([]domain.Review, error) { return c.root.client.Reviews(ctx, restaurantID) },
		reviewsLoaded(restaurantID), catalogRejected, "Failed to fetch reviews")
}

func (c *CatalogSlice) CreateReview(ctx context.Context, restaurantID int, req api.CreateReviewRequest) (*domain.Review, error) {
	review, err := run(ctx, c.snap, catalogPending,
		func(ctx context.Context) (*domain.Review, error) {
			return c.root.client.CreateReview(ctx, restaurantID, req)
		},
		reviewCreated(restaurantID), catalogRejected, "Failed to submit review")
	if err != nil {
		return nil, err
	}
	c.root.emit(ctx, activity.Event{Action: activity.ActionReviewCreated, RestaurantID: restaurantID})
	return review, nil
}

func (c *CatalogSlice) SetSearchQuery(query string) {
	c.snap.apply(func(s CatalogState) CatalogState {
		s.SearchQuery = query
		return s
	})
}

// SetFilters merges f into the current filters.
func (c *CatalogSlice) SetFilters(f Filters) {
	c.snap.apply(func(s CatalogState) CatalogState {
		s.Filters = s.Filters.merge(f)
		return s
	})
}

func (c *CatalogSlice) ClearFilters() {
	c.snap.apply(func(s CatalogState) CatalogState {
		s.Filters = Filters{}
		return s
	})
}

func (c *CatalogSlice) ClearSelectedRestaurant() {
	c.snap.apply(selectionCleared)
}

func (c *CatalogSlice) ClearError() {
	c.snap.apply(func(s CatalogState) CatalogState {
		s.Error = ""
		return s
	})
}
