package httpclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type quotaResponse struct {
	Quota int64 `json:"quota"`
}

func TestClient_DecodesSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/internal/ticket-types/5/decrement", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var in map[string]int
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, 2, in["quantity"])

		_ = json.NewEncoder(w).Encode(quotaResponse{Quota: 8})
	}))
	defer srv.Close()

	c := New("inventory", srv.URL, time.Second, zap.NewNop())

	var out quotaResponse
	err := c.Post(context.Background(), "/internal/ticket-types/5/decrement", map[string]int{"quantity": 2}, &out)
	require.NoError(t, err)
	assert.Equal(t, int64(8), out.Quota)
}

func TestClient_DecodesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"insufficient quota","code":"INSUFFICIENT_QUOTA"}`))
	}))
	defer srv.Close()

	c := New("inventory", srv.URL, time.Second, zap.NewNop())

	err := c.Post(context.Background(), "/x", nil, nil)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.True(t, HasCode(err, "INSUFFICIENT_QUOTA"))
	assert.False(t, IsNotFound(err))
}

func TestClient_ClientErrorsDoNotTripBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New("inventory", srv.URL, time.Second, zap.NewNop())

	for i := 0; i < 10; i++ {
		err := c.Get(context.Background(), "/missing", nil)
		require.True(t, IsNotFound(err))
	}
}

func TestClient_BreakerOpensOnServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New("payment", srv.URL, time.Second, zap.NewNop())

	for i := 0; i < 5; i++ {
		_ = c.Get(context.Background(), "/boom", nil)
	}

	err := c.Get(context.Background(), "/boom", nil)
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, int32(5), calls.Load())
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := New("ticket", srv.URL, 50*time.Millisecond, zap.NewNop())

	err := c.Get(context.Background(), "/slow", nil)
	require.ErrorIs(t, err, ErrTimeout)
}
