package state

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forkful/internal/activity"
	"forkful/internal/api"
	"forkful/internal/domain"
	"forkful/internal/platform/logger"
	"forkful/internal/tokenstore"
	"forkful/pkg/platform/sentinel"
	tu "forkful/pkg/testutil"
)

type harness struct {
	store    *Store
	tokens   *tokenstore.InMemoryStore
	activity *activity.MemoryStore
}

// newHarness wires a Store to a stub backend served by mux.
func newHarness(t *testing.T, mux *http.ServeMux) *harness {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	tokens := tokenstore.NewInMemory()
	trail := activity.NewMemoryStore()
	client := api.New(server.URL, tokens, api.WithLogger(logger.Discard()))
	return &harness{
		store:    New(Deps{Client: client, Tokens: tokens}, WithActivity(trail), WithLogger(logger.Discard())),
		tokens:   tokens,
		activity: trail,
	}
}

func (h *harness) token(t *testing.T, name string) string {
	t.Helper()
	v, err := h.tokens.Get(context.Background(), name)
	if err != nil {
		require.ErrorIs(t, err, sentinel.ErrNotFound)
		return ""
	}
	return v
}

func jsonHandler(t *testing.T, status int, body any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tu.WriteJSON(t, w, status, body)
	}
}

func TestLoginThenCategories(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login/", jsonHandler(t, http.StatusOK, map[string]any{
		"user":   map[string]any{"id": 5, "email": "ana@example.com"},
		"tokens": map[string]string{"access": "acc-1", "refresh": "ref-1"},
	}))
	mux.HandleFunc("GET /restaurants/categories/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "acc-1", tu.BearerToken(r))
		tu.WriteJSON(t, w, http.StatusOK, map[string]any{"results": []map[string]any{{"id": 1, "name": "Pizza"}}})
	})
	h := newHarness(t, mux)
	ctx := context.Background()

	_, err := h.store.Auth.Login(ctx, api.LoginRequest{Email: "ana@example.com", Password: "secret"})
	require.NoError(t, err)

	auth := h.store.Auth.Snapshot()
	assert.True(t, auth.Session.Authenticated)
	assert.Equal(t, "acc-1", h.token(t, tokenstore.AccessTokenKey))
	assert.Equal(t, "ref-1", h.token(t, tokenstore.RefreshTokenKey))

	_, err = h.store.Catalog.FetchCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Category{{ID: 1, Name: "Pizza"}}, h.store.Catalog.Snapshot().Categories)

	events := h.activity.List()
	require.Len(t, events, 1)
	assert.Equal(t, activity.ActionLogin, events[0].Action)
	assert.Equal(t, "5", events[0].UserID)
}

func TestLoginFailureShowsServerMessage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login/", jsonHandler(t, http.StatusBadRequest, map[string]any{"non_field_errors": []string{"Invalid email or password"}}))
	h := newHarness(t, mux)

	_, err := h.store.Auth.Login(context.Background(), api.LoginRequest{Email: "ana@example.com", Password: "wrong"})

	require.Error(t, err)
	auth := h.store.Auth.Snapshot()
	assert.False(t, auth.Session.Authenticated)
	assert.False(t, auth.Loading)
	assert.Equal(t, "Invalid email or password", auth.Error)
	assert.Empty(t, h.token(t, tokenstore.AccessTokenKey))
}

func TestAddToEmptyCartMirrorsServerCart(t *testing.T) {
	serverCart := map[string]any{
		"items": []map[string]any{{
			"id":          1,
			"menu_item":   map[string]any{"id": 7, "price": 10},
			"quantity":    2,
			"total_price": 20,
		}},
		"total_amount": 20,
		"total_items":  2,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /orders/cart/add/", func(w http.ResponseWriter, r *http.Request) {
		body := tu.DecodeBody[api.AddToCartRequest](t, r)
		assert.Equal(t, api.AddToCartRequest{MenuItemID: 7, Quantity: 2}, body)
		tu.WriteJSON(t, w, http.StatusCreated, serverCart)
	})
	h := newHarness(t, mux)

	_, err := h.store.Cart.Add(context.Background(), api.AddToCartRequest{MenuItemID: 7, Quantity: 2})
	require.NoError(t, err)

	want := &domain.Cart{
		Items: []domain.CartItem{{
			ID:         1,
			MenuItem:   domain.MenuItem{ID: 7, Price: 10},
			Quantity:   2,
			TotalPrice: 20,
		}},
		TotalAmount: 20,
		TotalItems:  2,
	}
	assert.Equal(t, CartState{Cart: want}, h.store.Cart.Snapshot())
}

func TestZeroQuantityEqualsRemove(t *testing.T) {
	emptied := map[string]any{"message": "Item removed", "cart": map[string]any{"id": 1, "items": []any{}, "total_amount": 0, "total_items": 0}}

	var mu sync.Mutex
	var calls []string
	newMux := func() *http.ServeMux {
		mux := http.NewServeMux()
		mux.HandleFunc("DELETE /orders/cart/items/{id}/remove/", func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			calls = append(calls, r.Method+" "+r.URL.Path)
			mu.Unlock()
			tu.WriteJSON(t, w, http.StatusOK, emptied)
		})
		mux.HandleFunc("PUT /orders/cart/items/{id}/update/", func(w http.ResponseWriter, r *http.Request) {
			t.Error("quantity 0 must not be sent as an update")
		})
		return mux
	}
	ctx := context.Background()

	viaUpdate := newHarness(t, newMux())
	_, err := viaUpdate.store.Cart.UpdateQuantity(ctx, 3, 0)
	require.NoError(t, err)

	viaRemove := newHarness(t, newMux())
	_, err = viaRemove.store.Cart.Remove(ctx, 3)
	require.NoError(t, err)

	assert.Equal(t, viaRemove.store.Cart.Snapshot(), viaUpdate.store.Cart.Snapshot())
	assert.Equal(t, []string{"DELETE /orders/cart/items/3/remove/", "DELETE /orders/cart/items/3/remove/"}, calls)
}

func TestOrdersList(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /orders/{$}", jsonHandler(t, http.StatusOK, []map[string]any{{"id": 7, "status": "delivered"}, {"id": 3, "status": "pending"}}))
	mux.HandleFunc("POST /orders/create/", jsonHandler(t, http.StatusCreated, map[string]any{"id": 42, "status": "pending", "restaurant": 9}))
	mux.HandleFunc("POST /orders/99/cancel/", jsonHandler(t, http.StatusOK, map[string]any{"id": 99, "status": "cancelled"}))
	h := newHarness(t, mux)
	ctx := context.Background()

	_, err := h.store.Orders.FetchAll(ctx)
	require.NoError(t, err)

	t.Run("created order is first", func(t *testing.T) {
		_, err := h.store.Orders.Create(ctx, api.CreateOrderRequest{DeliveryType: domain.DeliveryTypePickup})
		require.NoError(t, err)

		orders := h.store.Orders.Snapshot().Orders
		assert.Equal(t, []int{42, 7, 3}, orderIDs(orders))
	})

	t.Run("cancel of an order not in the list leaves it unchanged", func(t *testing.T) {
		before := h.store.Orders.Snapshot().Orders

		_, err := h.store.Orders.Cancel(ctx, 99)
		require.NoError(t, err)

		assert.Equal(t, before, h.store.Orders.Snapshot().Orders)
	})

	assert.Equal(t, []activity.Action{activity.ActionOrderCreated, activity.ActionOrderCancelled}, h.activity.Actions())
}

func TestLogoutResetsEverything(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /restaurants/categories/", jsonHandler(t, http.StatusOK, []map[string]any{{"id": 1, "name": "Pizza"}}))
	mux.HandleFunc("GET /auth/profile/", jsonHandler(t, http.StatusOK, map[string]any{"id": 5, "email": "ana@example.com"}))
	mux.HandleFunc("GET /orders/cart/", jsonHandler(t, http.StatusOK, map[string]any{"id": 1, "items": []any{}}))
	mux.HandleFunc("GET /orders/{$}", jsonHandler(t, http.StatusOK, []map[string]any{{"id": 3}}))
	h := newHarness(t, mux)
	ctx := context.Background()
	require.NoError(t, h.tokens.Set(ctx, tokenstore.AccessTokenKey, "a"))
	require.NoError(t, h.tokens.Set(ctx, tokenstore.RefreshTokenKey, "r"))

	require.NoError(t, h.store.Bootstrap(ctx))
	require.NotNil(t, h.store.Cart.Snapshot().Cart)

	require.NoError(t, h.store.Auth.Logout(ctx))

	assert.Equal(t, AuthState{}, h.store.Auth.Snapshot())
	assert.Equal(t, CatalogState{}, h.store.Catalog.Snapshot())
	assert.Equal(t, CartState{}, h.store.Cart.Snapshot())
	assert.Equal(t, OrdersState{}, h.store.Orders.Snapshot())
	assert.Empty(t, h.token(t, tokenstore.AccessTokenKey))
	assert.Empty(t, h.token(t, tokenstore.RefreshTokenKey))
	assert.Contains(t, h.activity.Actions(), activity.ActionLogout)
}

func TestBootstrap(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /restaurants/categories/", jsonHandler(t, http.StatusOK, []map[string]any{{"id": 1, "name": "Pizza"}}))
	mux.HandleFunc("GET /auth/profile/", jsonHandler(t, http.StatusOK, map[string]any{"id": 5, "email": "ana@example.com"}))
	mux.HandleFunc("GET /orders/cart/", jsonHandler(t, http.StatusOK, map[string]any{"id": 1, "items": []any{}}))
	mux.HandleFunc("GET /orders/{$}", jsonHandler(t, http.StatusInternalServerError, map[string]string{"detail": "database unavailable"}))

	t.Run("anonymous loads only the catalog", func(t *testing.T) {
		h := newHarness(t, mux)

		require.NoError(t, h.store.Bootstrap(context.Background()))

		assert.False(t, h.store.Auth.Snapshot().Session.Authenticated)
		assert.Len(t, h.store.Catalog.Snapshot().Categories, 1)
		assert.Nil(t, h.store.Cart.Snapshot().Cart)
	})

	t.Run("restored session loads user data and reports failures per slice", func(t *testing.T) {
		h := newHarness(t, mux)
		require.NoError(t, h.tokens.Set(context.Background(), tokenstore.AccessTokenKey, "a"))

		err := h.store.Bootstrap(context.Background())

		require.Error(t, err)
		assert.True(t, h.store.Auth.Snapshot().Session.Authenticated)
		assert.Equal(t, 5, h.store.Auth.Snapshot().User.ID)
		assert.NotNil(t, h.store.Cart.Snapshot().Cart)
		assert.Len(t, h.store.Catalog.Snapshot().Categories, 1)
		assert.Equal(t, "database unavailable", h.store.Orders.Snapshot().Error)
	})
}

func TestSessionExpiryFromClient(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /restaurants/categories/", jsonHandler(t, http.StatusOK, []map[string]any{{"id": 1, "name": "Pizza"}}))
	mux.HandleFunc("GET /orders/{$}", jsonHandler(t, http.StatusOK, []map[string]any{{"id": 3}}))
	mux.HandleFunc("GET /orders/cart/", jsonHandler(t, http.StatusUnauthorized, map[string]string{"detail": "token expired"}))
	mux.HandleFunc("POST /auth/token/refresh/", jsonHandler(t, http.StatusUnauthorized, map[string]string{"detail": "refresh expired"}))
	h := newHarness(t, mux)
	ctx := context.Background()
	require.NoError(t, h.tokens.Set(ctx, tokenstore.AccessTokenKey, "a"))
	require.NoError(t, h.tokens.Set(ctx, tokenstore.RefreshTokenKey, "r"))
	_, err := h.store.Auth.Restore(ctx)
	require.NoError(t, err)
	_, err = h.store.Catalog.FetchCategories(ctx)
	require.NoError(t, err)
	_, err = h.store.Orders.FetchAll(ctx)
	require.NoError(t, err)

	_, err = h.store.Cart.Fetch(ctx)

	require.True(t, api.IsUnauthorized(err))
	auth := h.store.Auth.Snapshot()
	assert.False(t, auth.Session.Authenticated)
	assert.Equal(t, SessionExpiredMessage, auth.Error)
	assert.Empty(t, h.store.Orders.Snapshot().Orders, "user data dropped")
	assert.Len(t, h.store.Catalog.Snapshot().Categories, 1, "public catalog kept")
	assert.Empty(t, h.token(t, tokenstore.AccessTokenKey))
	assert.Empty(t, h.token(t, tokenstore.RefreshTokenKey))
	assert.Contains(t, h.activity.Actions(), activity.ActionSessionExpired)
}

func TestAnonymousUnauthorizedIsNotAnExpiry(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /orders/cart/", jsonHandler(t, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."}))
	h := newHarness(t, mux)
	ctx := context.Background()

	for range 2 {
		_, err := h.store.Cart.Fetch(ctx)
		require.True(t, api.IsUnauthorized(err))
	}

	auth := h.store.Auth.Snapshot()
	assert.False(t, auth.Session.Authenticated)
	assert.Empty(t, auth.Error)
	assert.Equal(t, "Authentication credentials were not provided.", h.store.Cart.Snapshot().Error)
	assert.NotContains(t, h.activity.Actions(), activity.ActionSessionExpired)
}

func TestExpiryHandlerIgnoresSignedOutStore(t *testing.T) {
	h := newHarness(t, http.NewServeMux())

	h.store.Auth.expire(context.Background())

	assert.Equal(t, AuthState{}, h.store.Auth.Snapshot())
	assert.Empty(t, h.activity.List())
}

func TestSubscribe(t *testing.T) {
	release := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("GET /orders/cart/", func(w http.ResponseWriter, r *http.Request) {
		<-release
		tu.WriteJSON(t, w, http.StatusOK, map[string]any{"id": 1, "items": []any{}})
	})
	h := newHarness(t, mux)

	var mu sync.Mutex
	var seen []bool
	unsubscribe := h.store.Cart.Subscribe(func(s CartState) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, s.Loading)
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = h.store.Cart.Fetch(context.Background())
	}()
	assert.Eventually(t, func() bool { return h.store.Cart.Snapshot().Loading }, time.Second, 5*time.Millisecond)
	close(release)
	<-done

	unsubscribe()
	h.store.Cart.Reset()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []bool{true, false}, seen)
}

func TestPollStopsAtTerminalStatus(t *testing.T) {
	statuses := []string{"preparing", "out_for_delivery", "delivered"}
	var mu sync.Mutex
	calls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("GET /orders/42/", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		status := statuses[min(calls, len(statuses)-1)]
		calls++
		mu.Unlock()
		tu.WriteJSON(t, w, http.StatusOK, map[string]any{"id": 42, "status": status})
	})
	h := newHarness(t, mux)

	order, err := h.store.Orders.Poll(context.Background(), 42, 5*time.Millisecond)

	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusDelivered, order.Status)
	assert.Equal(t, domain.OrderStatusDelivered, h.store.Orders.Snapshot().Selected.Status)
	mu.Lock()
	assert.Equal(t, 3, calls)
	mu.Unlock()
}

func TestPollHonoursContext(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /orders/42/", jsonHandler(t, http.StatusOK, map[string]any{"id": 42, "status": "preparing"}))
	h := newHarness(t, mux)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	order, err := h.store.Orders.Poll(ctx, 42, 10*time.Millisecond)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	require.NotNil(t, order)
	assert.Equal(t, domain.OrderStatusPreparing, order.Status)
}

func TestRejectedFetchKeepsPreviousData(t *testing.T) {
	var mu sync.Mutex
	fail := false
	mux := http.NewServeMux()
	mux.HandleFunc("GET /orders/{$}", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		if fail {
			tu.WriteJSON(t, w, http.StatusServiceUnavailable, map[string]string{"detail": "maintenance window"})
			return
		}
		tu.WriteJSON(t, w, http.StatusOK, []map[string]any{{"id": 3, "status": "pending"}})
	})
	h := newHarness(t, mux)
	ctx := context.Background()

	tu.Given(t, "a loaded order list", func(t *testing.T) {
		_, err := h.store.Orders.FetchAll(ctx)
		require.NoError(t, err)

		tu.When(t, "the next fetch is rejected", func(t *testing.T) {
			mu.Lock()
			fail = true
			mu.Unlock()
			_, err := h.store.Orders.FetchAll(ctx)
			require.Error(t, err)

			tu.Then(t, "the list is kept and the error is shown", func(t *testing.T) {
				got := h.store.Orders.Snapshot()
				assert.Equal(t, []int{3}, orderIDs(got.Orders))
				assert.False(t, got.Loading)
				assert.Equal(t, "maintenance window", got.Error)
			})

			tu.And(t, "clearing the error leaves the data", func(t *testing.T) {
				h.store.Orders.ClearError()
				got := h.store.Orders.Snapshot()
				assert.Empty(t, got.Error)
				assert.Len(t, got.Orders, 1)
			})
		})
	})
}
