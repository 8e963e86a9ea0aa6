// Package state holds the client's observable state: Auth, Catalog, Cart and
// Orders slices inside an explicitly constructed Store.
//
// Every asynchronous operation moves its slice through three phases:
// pending sets Loading and keeps data; fulfilled clears Loading and Error and
// replaces the affected fields with the server payload; rejected clears
// Loading, sets Error to a display message, and keeps previously loaded data.
// Operations also return the error so callers can branch on it.
package state

import (
	"context"
	"log/slog"
	"strconv"

	"golang.org/x/sync/errgroup"

	"forkful/internal/activity"
	"forkful/internal/api"
	"forkful/internal/domain"
	"forkful/internal/tokenstore"
)

// Client is the subset of the API client the slices use.
type Client interface {
	Login(ctx context.Context, req api.LoginRequest) (*api.AuthResult, error)
	Register(ctx context.Context, req api.RegisterRequest) (*api.AuthResult, error)
	Profile(ctx context.Context) (*domain.User, error)
	UpdateProfile(ctx context.Context, req api.UpdateProfileRequest) (*domain.User, error)
	ChangePassword(ctx context.Context, req api.ChangePasswordRequest) (string, error)

	Categories(ctx context.Context) ([]domain.Category, error)
	Restaurants(ctx context.Context, q api.RestaurantQuery) ([]domain.Restaurant, error)
	Restaurant(ctx context.Context, id int) (*domain.Restaurant, error)
	MenuItems(ctx context.Context, restaurantID int, q api.MenuQuery) ([]domain.MenuItem, error)
	SearchRestaurants(ctx context.Context, q api.SearchQuery) ([]domain.Restaurant, error)
	Reviews(ctx context.Context, restaurantID int) ([]domain.Review, error)
	CreateReview(ctx context.Context, restaurantID int, req api.CreateReviewRequest) (*domain.Review, error)

	Cart(ctx context.Context) (*domain.Cart, error)
	AddToCart(ctx context.Context, req api.AddToCartRequest) (*domain.Cart, error)
	UpdateCartItem(ctx context.Context, itemID int, req api.UpdateCartItemRequest) (*domain.Cart, error)
	RemoveCartItem(ctx context.Context, itemID int) (*domain.Cart, error)
	ClearCart(ctx context.Context) (*domain.Cart, error)

	Orders(ctx context.Context) ([]domain.Order, error)
	Order(ctx context.Context, id int) (*domain.Order, error)
	CreateOrder(ctx context.Context, req api.CreateOrderRequest) (*domain.Order, error)
	CancelOrder(ctx context.Context, id int) (*domain.Order, error)
	ProcessPayment(ctx context.Context, id int, req api.PaymentRequest) (*api.PaymentResult, error)
	RequestRefund(ctx context.Context, id int) (*domain.Order, error)
	PaymentMethods(ctx context.Context) ([]domain.PaymentMethod, error)
	ValidateCoupon(ctx context.Context, q api.CouponQuery) (*domain.CouponValidation, error)
}

// sessionNotifier is implemented by clients that can report an irrecoverable
// refresh failure.
type sessionNotifier interface {
	SetSessionExpiredHandler(fn func(ctx context.Context))
}

// Deps are the collaborators every slice shares.
type Deps struct {
	Client Client
	Tokens tokenstore.Store
}

// Store is the state container. Build one per session with New; there is no
// package-level instance.
type Store struct {
	Auth    *AuthSlice
	Catalog *CatalogSlice
	Cart    *CartSlice
	Orders  *OrdersSlice

	client   Client
	tokens   tokenstore.Store
	logger   *slog.Logger
	activity activity.Publisher
}

// Option configures a Store.
type Option func(*Store)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithActivity sets where user-visible outcomes are reported.
func WithActivity(p activity.Publisher) Option {
	return func(s *Store) {
		if p != nil {
			s.activity = p
		}
	}
}

// New builds a Store with every slice in its initial state. When the client
// can report session expiry, the Auth slice is registered to handle it.
func New(deps Deps, opts ...Option) *Store {
	s := &Store{
		client:   deps.Client,
		tokens:   deps.Tokens,
		logger:   slog.Default(),
		activity: activity.Discard,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.Auth = newAuthSlice(s)
	s.Catalog = newCatalogSlice(s)
	s.Cart = newCartSlice(s)
	s.Orders = newOrdersSlice(s)

	if n, ok := deps.Client.(sessionNotifier); ok {
		n.SetSessionExpiredHandler(s.Auth.expire)
	}
	return s
}

// Reset returns every slice to its initial state.
func (s *Store) Reset() {
	s.Auth.snap.apply(func(AuthState) AuthState { return AuthState{} })
	s.Catalog.snap.apply(func(CatalogState) CatalogState { return CatalogState{} })
	s.Cart.Reset()
	s.Orders.Reset()
}

// Bootstrap restores the session and loads the start-up data concurrently:
// categories always, and profile, cart and orders when a session exists.
// Each slice records its own failure; the first error is returned.
func (s *Store) Bootstrap(ctx context.Context) error {
	authenticated, err := s.Auth.Restore(ctx)
	if err != nil {
		return err
	}

	// No shared cancellation: one failed fetch must not abort the others.
	var g errgroup.Group
	g.Go(func() error {
		_, err := s.Catalog.FetchCategories(ctx)
		return err
	})
	if authenticated {
		g.Go(func() error {
			_, err := s.Auth.FetchProfile(ctx)
			return err
		})
		g.Go(func() error {
			_, err := s.Cart.Fetch(ctx)
			return err
		})
		g.Go(func() error {
			_, err := s.Orders.FetchAll(ctx)
			return err
		})
	}
	return g.Wait()
}

// emit reports a user-visible outcome. Failures are logged and otherwise
// ignored.
func (s *Store) emit(ctx context.Context, event activity.Event) {
	if event.UserID == "" {
		event.UserID = s.Auth.userID()
	}
	if err := s.activity.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit activity",
			"action", event.Action,
			"error", err,
		)
	}
}

func userIDString(id int) string {
	if id == 0 {
		return ""
	}
	return strconv.Itoa(id)
}
