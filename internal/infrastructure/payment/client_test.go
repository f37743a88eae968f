package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_CreateIntent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/payment-intent", r.URL.Path)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"pi_1","order_id":"o-1","amount":"51.00","currency":"USD","status":"requires_confirmation"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	intent, err := client.CreateIntent(context.Background(), CreateIntentRequest{
		OrderID:  "o-1",
		Amount:   decimal.RequireFromString("51.00"),
		Currency: "USD",
		Method:   "CARD",
	})
	require.NoError(t, err)
	assert.Equal(t, "pi_1", intent.ID)
	assert.Equal(t, "requires_confirmation", intent.Status)
}

func TestClient_GetIntent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payment-intent/pi_1", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"pi_1","status":"succeeded"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	intent, err := client.GetIntent(context.Background(), "pi_1")
	require.NoError(t, err)
	assert.Equal(t, "succeeded", intent.Status)
}

func TestClient_Non2xxBecomesServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream unavailable"))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	_, err := client.GetIntent(context.Background(), "pi_1")

	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, http.StatusBadGateway, svcErr.StatusCode)
	assert.Contains(t, svcErr.Body, "upstream unavailable")
}
