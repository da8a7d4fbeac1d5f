package paystack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/damilareakin/artmarket-backend/pkg/errors"
)

func TestNewClient_RequiresSecretKey(t *testing.T) {
	_, err := NewClient("  ")
	require.Error(t, err)
}

func TestInitialize_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/transaction/initialize", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_abc", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "buyer@example.com", body["email"])
		assert.Equal(t, float64(250000), body["amount"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": true,
			"message": "Authorization URL created",
			"data": {
				"authorization_url": "https://checkout.paystack.com/abc123",
				"access_code": "abc123",
				"reference": "ord-ref-1"
			}
		}`))
	}))
	defer server.Close()

	client, err := NewClient("sk_test_abc", WithBaseURL(server.URL), WithHTTPClient(server.Client()))
	require.NoError(t, err)

	result, err := client.Initialize(context.Background(), InitializeRequest{
		Email:     "buyer@example.com",
		Amount:    decimal.NewFromInt(2500),
		Reference: "ord-ref-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.paystack.com/abc123", result.AuthorizationURL)
	assert.Equal(t, "ord-ref-1", result.Reference)
}

func TestInitialize_ValidatesInput(t *testing.T) {
	client, err := NewClient("sk_test_abc")
	require.NoError(t, err)

	_, err = client.Initialize(context.Background(), InitializeRequest{Amount: decimal.NewFromInt(10)})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = client.Initialize(context.Background(), InitializeRequest{Email: "buyer@example.com"})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestInitialize_GatewayFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream unavailable"))
	}))
	defer server.Close()

	client, err := NewClient("sk_test_abc", WithBaseURL(server.URL), WithHTTPClient(server.Client()))
	require.NoError(t, err)

	_, err = client.Initialize(context.Background(), InitializeRequest{
		Email:  "buyer@example.com",
		Amount: decimal.NewFromInt(100),
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUpstream, pkgerrors.As(err).Code())
}

func TestVerify_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/transaction/verify/ord-ref-1", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": true,
			"message": "Verification successful",
			"data": {
				"status": "success",
				"reference": "ord-ref-1",
				"amount": 250000,
				"gateway_response": "Successful"
			}
		}`))
	}))
	defer server.Close()

	client, err := NewClient("sk_test_abc", WithBaseURL(server.URL), WithHTTPClient(server.Client()))
	require.NoError(t, err)

	result, err := client.Verify(context.Background(), "ord-ref-1")
	require.NoError(t, err)
	assert.Equal(t, "success", result.Status)
	assert.Equal(t, "ord-ref-1", result.Reference)
	assert.True(t, result.Amount.Equal(decimal.NewFromInt(2500)))
}

func TestVerify_UnknownReference(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status": false, "message": "Transaction reference not found"}`))
	}))
	defer server.Close()

	client, err := NewClient("sk_test_abc", WithBaseURL(server.URL), WithHTTPClient(server.Client()))
	require.NoError(t, err)

	_, err = client.Verify(context.Background(), "missing-ref")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}
