package fakeapi_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"forkful/internal/api"
	"forkful/internal/domain"
	"forkful/internal/fakeapi"
	"forkful/internal/platform/logger"
	"forkful/internal/platform/middleware"
	tu "forkful/pkg/testutil"
)

type loginResponse struct {
	User   domain.User      `json:"user"`
	Tokens domain.TokenPair `json:"tokens"`
}

func newBackend(t *testing.T) (*fakeapi.Server, http.Handler, domain.TokenPair) {
	t.Helper()
	backend := fakeapi.New(
		fakeapi.WithLogger(logger.Discard()),
		fakeapi.WithPasswordCost(bcrypt.MinCost),
		fakeapi.WithClock(func() time.Time { return tu.FixedNow }),
	)
	_, err := backend.CreateUser(email, password)
	require.NoError(t, err)
	handler := backend.Handler()

	rr := tu.DoRequest(handler, tu.NewJSONRequest(t, http.MethodPost, "/auth/login/", api.LoginRequest{Email: email, Password: password}))
	tu.AssertStatus(t, rr, http.StatusOK)
	res := tu.UnmarshalResponse[loginResponse](t, rr)
	require.NotEmpty(t, res.Tokens.Access)
	return backend, handler, res.Tokens
}

func TestLoginIssuesDistinctTokens(t *testing.T) {
	_, _, tokens := newBackend(t)

	assert.NotEqual(t, tokens.Access, tokens.Refresh)
}

func TestRefreshRejectsAccessTokens(t *testing.T) {
	backend, handler, tokens := newBackend(t)

	rr := tu.DoRequest(handler, tu.NewJSONRequest(t, http.MethodPost, "/auth/token/refresh/", api.RefreshRequest{Refresh: tokens.Access}))

	tu.AssertStatus(t, rr, http.StatusUnauthorized)
	assert.Equal(t, 1, backend.RefreshCount())

	rr = tu.DoRequest(handler, tu.NewJSONRequest(t, http.MethodPost, "/auth/token/refresh/", api.RefreshRequest{Refresh: tokens.Refresh}))

	tu.AssertStatus(t, rr, http.StatusOK)
	assert.NotEmpty(t, (*tu.UnmarshalResponse[map[string]string](t, rr))["access"])
	assert.Equal(t, 2, backend.RefreshCount())
}

func TestExpiredAccessTokenIsRejected(t *testing.T) {
	backend, handler, tokens := newBackend(t)
	req := func() *http.Request {
		return tu.WithBearer(tu.NewJSONRequest(t, http.MethodGet, "/orders/cart/", nil), tokens.Access)
	}

	tu.AssertStatus(t, tu.DoRequest(handler, req()), http.StatusOK)

	backend.ExpireAccessTokens()

	rr := tu.DoRequest(handler, req())
	tu.AssertStatus(t, rr, http.StatusUnauthorized)
	assert.Contains(t, rr.Body.String(), "token_not_valid")
}

func TestProtectedRoutesNeedBearer(t *testing.T) {
	_, handler, _ := newBackend(t)

	for _, path := range []string{"/auth/profile/", "/orders/", "/orders/cart/", "/orders/payment-methods/"} {
		rr := tu.DoRequest(handler, tu.NewJSONRequest(t, http.MethodGet, path, nil))
		tu.AssertStatus(t, rr, http.StatusUnauthorized)
	}
	rr := tu.DoRequest(handler, tu.NewJSONRequest(t, http.MethodGet, "/restaurants/categories/", nil))
	tu.AssertStatus(t, rr, http.StatusOK)
}

func TestAddToCartErrors(t *testing.T) {
	_, handler, tokens := newBackend(t)

	tests := []struct {
		name   string
		itemID int
		status int
		msg    string
	}{
		{name: "unknown item", itemID: 999, status: http.StatusNotFound, msg: "Menu item not found"},
		{name: "sold out item", itemID: 103, status: http.StatusBadRequest, msg: "This item is currently unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tu.WithBearer(tu.NewJSONRequest(t, http.MethodPost, "/orders/cart/add/", api.AddToCartRequest{MenuItemID: tt.itemID, Quantity: 1}), tokens.Access)

			rr := tu.DoRequest(handler, req)

			tu.AssertStatus(t, rr, tt.status)
			tu.AssertErrorMessage(t, rr, tt.msg)
		})
	}
}

func TestOrderTimestampsUseServerClock(t *testing.T) {
	_, handler, tokens := newBackend(t)
	add := tu.WithBearer(tu.NewJSONRequest(t, http.MethodPost, "/orders/cart/add/", api.AddToCartRequest{MenuItemID: 101, Quantity: 2}), tokens.Access)
	tu.AssertStatus(t, tu.DoRequest(handler, add), http.StatusCreated)

	create := tu.WithBearer(tu.NewJSONRequest(t, http.MethodPost, "/orders/create/", api.CreateOrderRequest{DeliveryType: domain.DeliveryTypePickup}), tokens.Access)
	rr := tu.DoRequest(handler, create)

	tu.AssertStatus(t, rr, http.StatusCreated)
	res := tu.UnmarshalResponse[struct {
		Order domain.Order `json:"order"`
	}](t, rr)
	assert.Equal(t, tu.FixedNow.Format(time.RFC3339), res.Order.CreatedAt)
	assert.Equal(t, tu.FixedNow.Add(30*time.Minute).Format(time.RFC3339), res.Order.EstimatedDeliveryTime)
	require.Len(t, res.Order.TrackingUpdates, 1)
	assert.Equal(t, domain.OrderStatusPending, res.Order.TrackingUpdates[0].Status)
}

func TestRequestIDIsEchoed(t *testing.T) {
	_, handler, _ := newBackend(t)
	req := tu.NewJSONRequest(t, http.MethodGet, "/restaurants/", nil).WithContext(tu.Context("req-9"))

	rr := tu.DoRequest(handler, req)

	tu.AssertStatus(t, rr, http.StatusOK)
	assert.Equal(t, "req-9", rr.Header().Get(middleware.RequestIDHeader))
}
