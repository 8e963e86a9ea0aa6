package fakeapi_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"forkful/internal/activity"
	"forkful/internal/api"
	"forkful/internal/domain"
	"forkful/internal/fakeapi"
	"forkful/internal/platform/logger"
	"forkful/internal/state"
	"forkful/internal/tokenstore"
	dErrors "forkful/pkg/domain-errors"
)

const (
	email    = "ana@example.com"
	password = "correct-horse"
)

type BackendSuite struct {
	suite.Suite
	backend  *fakeapi.Server
	server   *httptest.Server
	tokens   *tokenstore.InMemoryStore
	client   *api.Client
	store    *state.Store
	activity *activity.MemoryStore
	ctx      context.Context
}

func TestBackendSuite(t *testing.T) {
	suite.Run(t, new(BackendSuite))
}

func (s *BackendSuite) SetupTest() {
	s.ctx = context.Background()
	s.backend = fakeapi.New(
		fakeapi.WithLogger(logger.Discard()),
		fakeapi.WithPasswordCost(bcrypt.MinCost),
	)
	s.server = httptest.NewServer(s.backend.Handler())
	s.tokens = tokenstore.NewInMemory()
	s.client = api.New(s.server.URL, s.tokens, api.WithLogger(logger.Discard()))
	s.activity = activity.NewMemoryStore()
	s.store = state.New(state.Deps{Client: s.client, Tokens: s.tokens},
		state.WithLogger(logger.Discard()),
		state.WithActivity(s.activity),
	)

	_, err := s.backend.CreateUser(email, password)
	s.Require().NoError(err)
}

func (s *BackendSuite) TearDownTest() {
	s.server.Close()
}

func (s *BackendSuite) login() {
	_, err := s.store.Auth.Login(s.ctx, api.LoginRequest{Email: email, Password: password})
	s.Require().NoError(err)
}

func (s *BackendSuite) TestRegisterThenProfile() {
	res, err := s.client.Register(s.ctx, api.RegisterRequest{
		Email:           "ben@example.com",
		Username:        "ben",
		Password:        "s3cret-pass",
		PasswordConfirm: "s3cret-pass",
	})
	s.Require().NoError(err)
	s.NotEmpty(res.Tokens.Access)
	s.NotEmpty(res.Tokens.Refresh)
	s.Require().NoError(s.tokens.Set(s.ctx, tokenstore.AccessTokenKey, res.Tokens.Access))

	user, err := s.client.Profile(s.ctx)

	s.Require().NoError(err)
	s.Equal("ben@example.com", user.Email)
	s.Equal(res.User.ID, user.ID)
}

func (s *BackendSuite) TestDuplicateRegistrationSurfacesFieldError() {
	_, err := s.client.Register(s.ctx, api.RegisterRequest{
		Email:           email,
		Username:        "ana",
		Password:        "another-pass",
		PasswordConfirm: "another-pass",
	})

	s.Require().Error(err)
	s.Equal("email: A user with this email already exists.", api.Message(err, "Registration failed"))
}

func (s *BackendSuite) TestWrongPassword() {
	_, err := s.store.Auth.Login(s.ctx, api.LoginRequest{Email: email, Password: "nope"})

	s.Require().Error(err)
	s.Equal("Invalid email or password", s.store.Auth.Snapshot().Error)
	s.False(s.store.Auth.Snapshot().Session.Authenticated)
}

func (s *BackendSuite) TestCartIsSingleRestaurant() {
	s.login()

	cart, err := s.store.Cart.Add(s.ctx, api.AddToCartRequest{MenuItemID: 101, Quantity: 2})
	s.Require().NoError(err)
	s.Equal(19.0, cart.TotalAmount)
	s.Equal(2, cart.TotalItems)
	s.Require().NotNil(cart.RestaurantID)
	s.Equal(1, *cart.RestaurantID)

	_, err = s.store.Cart.Add(s.ctx, api.AddToCartRequest{MenuItemID: 201, Quantity: 1})

	s.Require().Error(err)
	got := s.store.Cart.Snapshot()
	s.Equal("You can only order from one restaurant at a time. Clear your cart first.", got.Error)
	s.Equal(cart, got.Cart, "rejected add keeps the previous cart")
}

func (s *BackendSuite) TestQuantityUpdatesAndRemoval() {
	s.login()
	cart, err := s.store.Cart.Add(s.ctx, api.AddToCartRequest{MenuItemID: 102, Quantity: 1})
	s.Require().NoError(err)
	lineID := cart.Items[0].ID

	cart, err = s.store.Cart.UpdateQuantity(s.ctx, lineID, 3)
	s.Require().NoError(err)
	s.Equal(33.0, cart.TotalAmount)

	cart, err = s.store.Cart.UpdateQuantity(s.ctx, lineID, 0)
	s.Require().NoError(err)
	s.True(cart.IsEmpty())
	s.Nil(cart.RestaurantID)
}

func (s *BackendSuite) TestCheckoutPayAndRefund() {
	s.login()
	_, err := s.store.Cart.Add(s.ctx, api.AddToCartRequest{MenuItemID: 101, Quantity: 2})
	s.Require().NoError(err)

	order, err := s.store.Orders.Create(s.ctx, api.CreateOrderRequest{DeliveryType: domain.DeliveryTypePickup})
	s.Require().NoError(err)

	s.Equal(domain.OrderStatusPending, order.Status)
	s.Equal(19.0, order.Subtotal)
	s.Equal(0.0, order.DeliveryFee)
	s.Equal(1.52, order.TaxAmount)
	s.Equal(20.52, order.TotalAmount)
	s.Nil(s.store.Cart.Snapshot().Cart)
	serverCart, err := s.client.Cart(s.ctx)
	s.Require().NoError(err)
	s.True(serverCart.IsEmpty(), "server empties the cart on order creation")

	paid, err := s.store.Orders.ProcessPayment(s.ctx, order.ID, api.PaymentRequest{PaymentMethod: "card"})
	s.Require().NoError(err)
	s.NotEmpty(paid.TransactionID)
	s.Equal(domain.PaymentStatusPaid, paid.Order.PaymentStatus)
	s.Equal(domain.OrderStatusConfirmed, paid.Order.Status)

	refunded, err := s.store.Orders.RequestRefund(s.ctx, order.ID)
	s.Require().NoError(err)
	s.Equal(domain.PaymentStatusRefunded, refunded.PaymentStatus)

	orders := s.store.Orders.Snapshot().Orders
	s.Require().Len(orders, 1)
	s.Equal(domain.PaymentStatusRefunded, orders[0].PaymentStatus)
	s.Equal([]activity.Action{
		activity.ActionLogin,
		activity.ActionOrderCreated,
		activity.ActionPaymentProcessed,
		activity.ActionRefundRequested,
	}, s.activity.Actions())
}

func (s *BackendSuite) TestCouponDiscount() {
	s.login()
	_, err := s.store.Cart.Add(s.ctx, api.AddToCartRequest{MenuItemID: 101, Quantity: 2})
	s.Require().NoError(err)

	coupon, err := s.store.Orders.ValidateCoupon(s.ctx, api.CouponQuery{Code: "save10", RestaurantID: 1})
	s.Require().NoError(err)
	s.True(coupon.Valid)

	order, err := s.store.Orders.Create(s.ctx, api.CreateOrderRequest{
		DeliveryType:    domain.DeliveryTypeDelivery,
		DeliveryAddress: "1 Main St",
		DeliveryPhone:   "+1 555 0100",
		CouponCode:      "save10",
	})
	s.Require().NoError(err)
	s.Equal(1.9, order.DiscountAmount)
	s.Equal(2.5, order.DeliveryFee)
	s.Equal(21.12, order.TotalAmount)

	_, err = s.store.Orders.ValidateCoupon(s.ctx, api.CouponQuery{Code: "EXPIRED"})
	s.Require().Error(err)
	s.Equal("Invalid or expired coupon", s.store.Orders.Snapshot().Error)
}

func (s *BackendSuite) TestDeclinedCard() {
	s.login()
	_, err := s.store.Cart.Add(s.ctx, api.AddToCartRequest{MenuItemID: 201, Quantity: 4})
	s.Require().NoError(err)
	order, err := s.store.Orders.Create(s.ctx, api.CreateOrderRequest{DeliveryType: domain.DeliveryTypePickup})
	s.Require().NoError(err)

	_, err = s.store.Orders.ProcessPayment(s.ctx, order.ID, api.PaymentRequest{
		PaymentMethod:  "card",
		PaymentDetails: map[string]string{"card_number": "4000000000000002"},
	})

	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	s.Equal("Card declined", s.store.Orders.Snapshot().Error)
}

func (s *BackendSuite) TestCancelOnlyBeforePreparation() {
	s.login()
	_, err := s.store.Cart.Add(s.ctx, api.AddToCartRequest{MenuItemID: 101, Quantity: 2})
	s.Require().NoError(err)
	order, err := s.store.Orders.Create(s.ctx, api.CreateOrderRequest{DeliveryType: domain.DeliveryTypePickup})
	s.Require().NoError(err)
	s.Require().NoError(s.backend.SetOrderStatus(order.ID, domain.OrderStatusPreparing))

	_, err = s.store.Orders.Cancel(s.ctx, order.ID)

	s.Require().Error(err)
	s.Equal("Order cannot be cancelled at this stage", s.store.Orders.Snapshot().Error)
}

func (s *BackendSuite) TestClosedRestaurantRejectsOrders() {
	s.login()
	_, err := s.store.Cart.Add(s.ctx, api.AddToCartRequest{MenuItemID: 301, Quantity: 1})
	s.Require().NoError(err)

	_, err = s.store.Orders.Create(s.ctx, api.CreateOrderRequest{DeliveryType: domain.DeliveryTypePickup})

	s.Require().Error(err)
	s.Equal("Restaurant is currently closed", s.store.Orders.Snapshot().Error)
}

func (s *BackendSuite) TestConcurrentExpiryRefreshesOnce() {
	s.login()
	s.backend.ExpireAccessTokens()

	var g errgroup.Group
	for range 8 {
		g.Go(func() error {
			_, err := s.client.Cart(s.ctx)
			return err
		})
	}

	s.Require().NoError(g.Wait())
	s.Equal(1, s.backend.RefreshCount())
	s.True(s.store.Auth.Snapshot().Session.Authenticated)
}

func (s *BackendSuite) TestRefreshFailureExpiresSession() {
	s.login()
	_, err := s.store.Catalog.FetchCategories(s.ctx)
	s.Require().NoError(err)
	s.backend.ExpireAccessTokens()
	s.backend.FailRefresh(true)

	_, err = s.store.Orders.FetchAll(s.ctx)

	s.Require().Error(err)
	s.True(api.IsUnauthorized(err))
	auth := s.store.Auth.Snapshot()
	s.False(auth.Session.Authenticated)
	s.Equal(state.SessionExpiredMessage, auth.Error)
	s.NotEmpty(s.store.Catalog.Snapshot().Categories)
	_, err = s.tokens.Get(s.ctx, tokenstore.AccessTokenKey)
	s.Error(err)
	s.Equal(1, s.backend.RefreshCount())
}

func (s *BackendSuite) TestPollUntilDelivered() {
	s.login()
	_, err := s.store.Cart.Add(s.ctx, api.AddToCartRequest{MenuItemID: 101, Quantity: 2})
	s.Require().NoError(err)
	order, err := s.store.Orders.Create(s.ctx, api.CreateOrderRequest{DeliveryType: domain.DeliveryTypePickup})
	s.Require().NoError(err)

	go func() {
		for _, status := range []domain.OrderStatus{domain.OrderStatusPreparing, domain.OrderStatusDelivered} {
			time.Sleep(20 * time.Millisecond)
			_ = s.backend.SetOrderStatus(order.ID, status)
		}
	}()
	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()

	final, err := s.store.Orders.Poll(ctx, order.ID, 10*time.Millisecond)

	s.Require().NoError(err)
	s.Equal(domain.OrderStatusDelivered, final.Status)
	s.Len(final.TrackingUpdates, 3)
}

func TestCatalogEndpoints(t *testing.T) {
	backend := fakeapi.New(fakeapi.WithLogger(logger.Discard()))
	server := httptest.NewServer(backend.Handler())
	defer server.Close()
	client := api.New(server.URL, tokenstore.NewInMemory(), api.WithLogger(logger.Discard()))
	ctx := context.Background()

	categories, err := client.Categories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 3)

	restaurants, err := client.Restaurants(ctx, api.RestaurantQuery{Cuisine: "japanese"})
	require.NoError(t, err)
	require.Len(t, restaurants, 1)
	assert.Equal(t, "Umi Sushi Bar", restaurants[0].Name)

	menu, err := client.MenuItems(ctx, 1, api.MenuQuery{VegetarianOnly: true, AvailableOnly: true})
	require.NoError(t, err)
	require.Len(t, menu, 1)
	assert.Equal(t, "Margherita", menu[0].Name)

	found, err := client.SearchRestaurants(ctx, api.SearchQuery{Query: "patty"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.False(t, found[0].IsOpen)

	_, err = client.Restaurant(ctx, 99)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = client.PaymentMethods(ctx)
	require.Error(t, err, "payment methods require a session")
	assert.True(t, api.IsUnauthorized(err))
}
