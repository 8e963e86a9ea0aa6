// Package fakeapi is an in-memory stand-in for the food-delivery REST API.
// It serves every endpoint the client consumes, issues real HS256 tokens,
// and exposes knobs for exercising the session refresh protocol. Tests and
// `forkful demo` run it behind httptest.
package fakeapi

import (
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"forkful/internal/domain"
	"forkful/internal/platform/middleware"
	dErrors "forkful/pkg/domain-errors"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 24 * time.Hour
)

type account struct {
	user         domain.User
	passwordHash string
}

type coupon struct {
	domain.CouponValidation
	active bool
}

// Server holds the backend's state. All handlers serialize on mu.
type Server struct {
	logger       *slog.Logger
	tokens       *issuer
	passwordCost int

	mu          sync.Mutex
	nextID      int
	accounts    map[int]*account
	byEmail     map[string]int
	categories  []domain.Category
	restaurants []domain.Restaurant
	menu        map[int]domain.MenuItem
	menuOwner   map[int]int
	reviews     map[int][]domain.Review
	reviewers   map[int]map[int]bool
	carts       map[int]*domain.Cart
	orders      map[int]*domain.Order
	orderOwner  map[int]int
	coupons     map[string]coupon
	methods     []domain.PaymentMethod
	generation  int
	failRefresh bool

	refreshCalls atomic.Int64
}

type Option func(*Server)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSigningKey sets the HS256 key used for access and refresh tokens.
func WithSigningKey(key string) Option {
	return func(s *Server) {
		if key != "" {
			s.tokens.signingKey = []byte(key)
		}
	}
}

// WithTokenTTL overrides access and refresh token lifetimes.
func WithTokenTTL(access, refresh time.Duration) Option {
	return func(s *Server) {
		if access > 0 {
			s.tokens.accessTTL = access
		}
		if refresh > 0 {
			s.tokens.refreshTTL = refresh
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.tokens.now = now
		}
	}
}

// WithPasswordCost sets the bcrypt cost; tests use bcrypt.MinCost.
func WithPasswordCost(cost int) Option {
	return func(s *Server) {
		s.passwordCost = cost
	}
}

// New returns a server seeded with the demo catalog and no users.
func New(opts ...Option) *Server {
	s := &Server{
		logger: slog.Default(),
		tokens: &issuer{
			signingKey: []byte("forkful-fakeapi-signing-key"),
			accessTTL:  defaultAccessTTL,
			refreshTTL: defaultRefreshTTL,
			now:        time.Now,
		},
		passwordCost: bcrypt.DefaultCost,
		nextID:       1000,
		accounts:     make(map[int]*account),
		byEmail:      make(map[string]int),
		menu:         make(map[int]domain.MenuItem),
		menuOwner:    make(map[int]int),
		reviews:      make(map[int][]domain.Review),
		reviewers:    make(map[int]map[int]bool),
		carts:        make(map[int]*domain.Cart),
		orders:       make(map[int]*domain.Order),
		orderOwner:   make(map[int]int),
		coupons:      make(map[string]coupon),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.seed()
	return s
}

// Handler returns the chi router serving the API. Public catalog and
// credential endpoints are open; everything else requires a bearer.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)

	r.Post("/auth/login/", s.handleLogin)
	r.Post("/auth/register/", s.handleRegister)
	r.Post("/auth/token/refresh/", s.handleRefresh)

	r.Get("/restaurants/categories/", s.handleCategories)
	r.Get("/restaurants/", s.handleRestaurants)
	r.Get("/restaurants/search/", s.handleSearch)
	r.Get("/restaurants/{id}/", s.handleRestaurant)
	r.Get("/restaurants/{id}/menu/", s.handleMenu)
	r.Get("/restaurants/{id}/reviews/", s.handleReviews)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(s, s.logger))

		r.Get("/auth/profile/", s.handleProfile)
		r.Patch("/auth/profile/", s.handleUpdateProfile)
		r.Post("/auth/change-password/", s.handleChangePassword)

		r.Post("/restaurants/{id}/reviews/", s.handleCreateReview)

		r.Get("/orders/cart/", s.handleCart)
		r.Post("/orders/cart/add/", s.handleAddToCart)
		r.Put("/orders/cart/items/{id}/update/", s.handleUpdateCartItem)
		r.Delete("/orders/cart/items/{id}/remove/", s.handleRemoveCartItem)
		r.Delete("/orders/cart/clear/", s.handleClearCart)

		r.Get("/orders/", s.handleOrders)
		r.Post("/orders/create/", s.handleCreateOrder)
		r.Get("/orders/payment-methods/", s.handlePaymentMethods)
		r.Get("/orders/coupons/validate/", s.handleValidateCoupon)
		r.Get("/orders/{id}/", s.handleOrder)
		r.Post("/orders/{id}/cancel/", s.handleCancelOrder)
		r.Post("/orders/{id}/pay/", s.handlePay)
		r.Post("/orders/{id}/refund/", s.handleRefund)
	})
	return r
}

// ValidateAccessToken implements middleware.TokenValidator. Tokens minted
// before the last ExpireAccessTokens call are rejected.
func (s *Server) ValidateAccessToken(token string) (int, error) {
	c, err := s.tokens.parse(token, tokenTypeAccess)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.Generation < s.generation {
		return 0, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
	}
	if _, ok := s.accounts[c.UserID]; !ok {
		return 0, dErrors.New(dErrors.CodeUnauthorized, "user not found")
	}
	return c.UserID, nil
}

// ExpireAccessTokens invalidates every access token issued so far. Refresh
// tokens stay valid.
func (s *Server) ExpireAccessTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
}

// FailRefresh makes the refresh endpoint reject every request while on.
func (s *Server) FailRefresh(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failRefresh = fail
}

// RefreshCount is the number of refresh requests received.
func (s *Server) RefreshCount() int {
	return int(s.refreshCalls.Load())
}

// CreateUser registers an account directly, bypassing the HTTP layer.
func (s *Server) CreateUser(email, password string) (domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.passwordCost)
	if err != nil {
		return domain.User{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "could not hash password")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[email]; ok {
		return domain.User{}, dErrors.New(dErrors.CodeConflict, "A user with this email already exists.")
	}
	return s.addAccountLocked(domain.User{Email: email, Username: email, UserType: "customer"}, string(hash)), nil
}

// SetOrderStatus advances an order the way the restaurant would.
func (s *Server) SetOrderStatus(id int, status domain.OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return dErrors.New(dErrors.CodeNotFound, "order not found")
	}
	s.trackLocked(order, status, "Status updated")
	return nil
}

func (s *Server) addAccountLocked(user domain.User, hash string) domain.User {
	user.ID = s.newIDLocked()
	s.accounts[user.ID] = &account{user: user, passwordHash: hash}
	s.byEmail[user.Email] = user.ID
	return user
}

func (s *Server) newIDLocked() int {
	s.nextID++
	return s.nextID
}

func (s *Server) now() time.Time {
	return s.tokens.now()
}
