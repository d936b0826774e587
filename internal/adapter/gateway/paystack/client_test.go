package paystack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccmarketers/ledger/internal/domain"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient(Config{
		BaseURL:   srv.URL,
		SecretKey: "sk_test_secret",
	}, nil)
	return client, srv
}

func TestInitializePayment(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/transaction/initialize", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(map[string]any{
			"status": true,
			"data": map[string]any{
				"authorization_url": "https://checkout.paystack.com/abc123",
				"reference":         gotBody["reference"],
			},
		})
	}))

	auth, err := client.InitializePayment(context.Background(), "user-1", decimal.RequireFromString("150.50"), "https://app.test/callback")
	require.NoError(t, err)

	assert.Equal(t, "Bearer sk_test_secret", gotAuth)
	assert.Equal(t, "https://checkout.paystack.com/abc123", auth.AuthorizationURL)
	assert.NotEmpty(t, auth.Reference)

	// Amounts cross the wire in kobo.
	assert.Equal(t, float64(15050), gotBody["amount"])
}

func TestVerifyPayment(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/transaction/verify/PS_REF", r.URL.Path)

		json.NewEncoder(w).Encode(map[string]any{
			"status": true,
			"data": map[string]any{
				"reference": "PS_REF",
				"status":    "success",
				"amount":    25000,
			},
		})
	}))

	status, err := client.VerifyPayment(context.Background(), "PS_REF")
	require.NoError(t, err)

	assert.Equal(t, "PS_REF", status.Reference)
	assert.Equal(t, "success", status.Status)
	assert.True(t, status.Amount.Equal(decimal.RequireFromString("250")))
}

func TestCreateTransferRecipient(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/transferrecipient", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "nuban", body["type"])
		assert.Equal(t, "0123456789", body["account_number"])

		json.NewEncoder(w).Encode(map[string]any{
			"status": true,
			"data":   map[string]any{"recipient_code": "RCP_abc"},
		})
	}))

	code, err := client.CreateTransferRecipient(context.Background(), "058", "0123456789", "ADA OBI")
	require.NoError(t, err)
	assert.Equal(t, "RCP_abc", code)
}

func TestInitiateTransferGatewayDecline(t *testing.T) {
	var calls int32

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"status":  false,
			"message": "insufficient balance",
		})
	}))

	_, err := client.InitiateTransfer(context.Background(), decimal.RequireFromString("50"), "RCP_abc", "payout")
	require.ErrorIs(t, err, domain.ErrGatewayFailure)
	assert.Contains(t, err.Error(), "insufficient balance")

	// Declines are permanent, not retried.
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCallRetriesServerErrors(t *testing.T) {
	var calls int32

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"status": true,
			"data":   map[string]any{"account_name": "ADA OBI"},
		})
	}))

	name, err := client.ResolveAccountNumber(context.Background(), "0123456789", "058")
	require.NoError(t, err)
	assert.Equal(t, "ADA OBI", name)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestResolveAccountNumberQuery(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/bank/resolve", r.URL.Path)
		assert.Equal(t, "0123456789", r.URL.Query().Get("account_number"))
		assert.Equal(t, "058", r.URL.Query().Get("bank_code"))

		json.NewEncoder(w).Encode(map[string]any{
			"status": true,
			"data":   map[string]any{"account_name": "ADA OBI"},
		})
	}))

	name, err := client.ResolveAccountNumber(context.Background(), "0123456789", "058")
	require.NoError(t, err)
	assert.Equal(t, "ADA OBI", name)
}
