package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/dukerupert/folio/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	mu    sync.Mutex
	calls []string
	codes []int
}

func (o *recordingObserver) ObserveAPIRequest(endpoint string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, endpoint)
	o.codes = append(o.codes, status)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *recordingObserver) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	obs := &recordingObserver{}
	return New(Options{
		BaseURL:  srv.URL + "/",
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Observer: obs,
	}), obs
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_Login(t *testing.T) {
	client, obs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/login/", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		assert.Empty(t, r.Header.Get("Authorization"))

		var creds domain.Credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		if creds.Password != "secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "Login successful",
			"tokens":  map[string]string{"access": "acc", "refresh": "ref"},
			"data":    map[string]any{"id": 7, "username": "reader", "email": creds.Email},
		})
	})

	resp, err := client.Login(context.Background(), domain.Credentials{Email: "r@example.com", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "acc", resp.Tokens.Access)
	assert.Equal(t, "ref", resp.Tokens.Refresh)
	assert.Equal(t, 7, resp.Data.ID)

	_, err = client.Login(context.Background(), domain.Credentials{Email: "r@example.com", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, domain.EUNAUTHORIZED, domain.ErrorCode(err))
	assert.Equal(t, "Invalid credentials", domain.ErrorMessage(err))
	assert.Equal(t, http.StatusUnauthorized, StatusCode(err))

	assert.Equal(t, []string{"auth_login", "auth_login"}, obs.calls)
	assert.Equal(t, []int{200, 401}, obs.codes)
}

func TestClient_RequestIDFromContext(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "req-123", r.Header.Get("X-Request-ID"))
		writeJSON(w, http.StatusOK, map[string]any{"status": "success", "data": []any{}})
	})

	ctx := domain.NewContextWithRequestID(context.Background(), "req-123")
	books, err := client.ListBooks(ctx)
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestClient_GetCart(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/cart/", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"message":"ok","status":"success","data":{"items":[{"book":10,"quantity":2,"price":"200.00"}],"total_price":"400.00","total_quantity":2}}`)
	})

	env, err := client.GetCart(context.Background(), "tok")
	require.NoError(t, err)
	lines, ok := env.Data.Items.Lines()
	require.True(t, ok)
	require.Len(t, lines, 1)
	assert.Equal(t, 10, lines[0].Book)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.True(t, lines[0].Price.Equal(decimal.NewFromInt(200)))
	assert.True(t, env.Data.TotalPrice.Equal(decimal.NewFromInt(400)))
}

func TestClient_SetAndDeleteCartItem(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/cart/item/10/", r.URL.Path)
		switch r.Method {
		case http.MethodPost:
			var body map[string]int
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, 3, body["quantity"])
			writeJSON(w, http.StatusOK, map[string]any{
				"message": "Item added",
				"status":  "success",
				"data":    map[string]any{"book": 10, "quantity": 3, "price": "200"},
			})
		case http.MethodDelete:
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "Item not found in cart"})
		}
	})

	env, err := client.SetCartItem(context.Background(), "tok", 10, 3)
	require.NoError(t, err)
	assert.True(t, env.OK())
	assert.Equal(t, 3, env.Data.Quantity)

	err = client.DeleteCartItem(context.Background(), "tok", 10)
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.ENOTFOUND))
	assert.Equal(t, http.StatusNotFound, StatusCode(err))
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   string
	}{
		{"bad request", http.StatusBadRequest, domain.EINVALID},
		{"unauthorized", http.StatusUnauthorized, domain.EUNAUTHORIZED},
		{"forbidden", http.StatusForbidden, domain.EUNAUTHORIZED},
		{"not found", http.StatusNotFound, domain.ENOTFOUND},
		{"rate limited", http.StatusTooManyRequests, domain.ERATELIMIT},
		{"server error", http.StatusInternalServerError, domain.EUNAVAILABLE},
		{"bad gateway", http.StatusBadGateway, domain.EUNAVAILABLE},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})
			_, err := client.GetBook(context.Background(), 1)
			require.Error(t, err)
			assert.Equal(t, tt.want, domain.ErrorCode(err))
			assert.Equal(t, tt.status, StatusCode(err))
		})
	}
}

func TestClient_ErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		body any
		want string
	}{
		{"message", map[string]any{"message": "Cart is empty"}, "Cart is empty"},
		{"detail", map[string]any{"detail": "Not authenticated"}, "Not authenticated"},
		{"error string", map[string]any{"status": "error", "error": "Book not found."}, "Book not found."},
		{"error list", map[string]any{"status": "error", "error": []string{"Invalid quantity."}}, "Invalid quantity."},
		{"error fields", map[string]any{"status": "error", "error": map[string]any{
			"quantity": []string{"Ensure this value is greater than 0."},
		}}, "Ensure this value is greater than 0."},
		{"message wins", map[string]any{"message": "Bad request", "error": "ignored"}, "Bad request"},
		{"unrecognised", map[string]any{"error": 42}, "Bad Request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusBadRequest, tt.body)
			})
			_, err := client.GetBook(context.Background(), 1)
			require.Error(t, err)
			assert.Equal(t, tt.want, domain.ErrorMessage(err))
		})
	}
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	obs := &recordingObserver{}
	client := New(Options{BaseURL: url, Timeout: time.Second, Observer: obs,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})

	_, err := client.ListBooks(context.Background())
	require.Error(t, err)
	assert.Equal(t, domain.EUNAVAILABLE, domain.ErrorCode(err))
	assert.Equal(t, 0, StatusCode(err))
	assert.Equal(t, []int{0}, obs.codes)
}

func TestClient_UnreadableBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<html>oops</html>")
	})

	_, err := client.ListBooks(context.Background())
	require.Error(t, err)
	assert.Equal(t, domain.EUNAVAILABLE, domain.ErrorCode(err))
}

func TestClient_Orders(t *testing.T) {
	placed := false
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/order/", r.URL.Path)
		switch r.Method {
		case http.MethodGet:
			if !placed {
				writeJSON(w, http.StatusNotFound, map[string]string{"message": "No orders found."})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"status": "success",
				"data": []any{map[string]any{
					"id": 1, "is_ordered": true, "total_quantity": 1, "total_price": "5",
					"items": []any{map[string]any{"book": 2, "quantity": 1, "price": "5"}},
				}},
			})
		case http.MethodPost:
			placed = true
			writeJSON(w, http.StatusOK, map[string]string{"message": "Order placed successfully.", "status": "success"})
		case http.MethodPatch:
			writeJSON(w, http.StatusOK, map[string]string{"message": "Order canceled successfully.", "status": "success"})
		}
	})
	ctx := context.Background()

	_, err := client.ListOrders(ctx, "tok")
	assert.True(t, domain.IsCode(err, domain.ENOTFOUND))

	env, err := client.PlaceOrder(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, "Order placed successfully.", env.Message)

	orders, err := client.ListOrders(ctx, "tok")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.True(t, orders[0].IsOrdered)

	env, err = client.CancelOrder(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, "Order canceled successfully.", env.Message)
}

func TestClient_RateLimitRespectsContext(t *testing.T) {
	client := New(Options{BaseURL: "http://127.0.0.1:1", RateLimit: 0.001, Burst: 1,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})

	// consume the single token
	_ = client.limiter.Allow()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.ListBooks(ctx)
	require.Error(t, err)
	assert.Equal(t, domain.EUNAVAILABLE, domain.ErrorCode(err))
}
