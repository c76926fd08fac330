package razorpay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestCreateOrderSendsCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/orders", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "key", user)
		require.Equal(t, "secret", pass)

		var payload OrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Equal(t, int64(49900), payload.Amount)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Order{ID: "order_1", Amount: payload.Amount, Currency: payload.Currency, Receipt: payload.Receipt, Status: "created"})
	}))
	defer server.Close()

	client := New(Config{KeyID: "key", KeySecret: "secret", BaseURL: server.URL}, zerolog.Nop())
	order, err := client.CreateOrder(context.Background(), OrderRequest{Amount: 49900, Currency: "INR", Receipt: "receipt_1"})
	require.NoError(t, err)
	require.Equal(t, "order_1", order.ID)
	require.Equal(t, "INR", order.Currency)
}

func TestCreateOrderRequiresCredentials(t *testing.T) {
	client := New(Config{}, zerolog.Nop())
	_, err := client.CreateOrder(context.Background(), OrderRequest{Amount: 100})
	require.Error(t, err)
}

func TestCreateOrderUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := New(Config{KeyID: "key", KeySecret: "secret", BaseURL: server.URL}, zerolog.Nop())
	_, err := client.CreateOrder(context.Background(), OrderRequest{Amount: 100})
	require.ErrorIs(t, err, ErrUpstream)
}

func TestLookupIFSC(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/HDFC0000123" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"BANK":"HDFC Bank","BRANCH":"Andheri West","IFSC":"HDFC0000123"}`))
	}))
	defer server.Close()

	client := New(Config{IFSCBaseURL: server.URL}, zerolog.Nop())

	branch, err := client.LookupIFSC(context.Background(), "hdfc0000123")
	require.NoError(t, err)
	require.Equal(t, "HDFC Bank", branch.Bank)
	require.Equal(t, "Andheri West", branch.Branch)

	_, err = client.LookupIFSC(context.Background(), "SBIN0000999")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = client.LookupIFSC(context.Background(), "BAD")
	require.ErrorIs(t, err, ErrInvalidIFSC)
}
