package shipping

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

func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	client, err := NewClient("ship_key", server.URL,
		WithHTTPClient(server.Client()),
		WithOrigin(Origin{City: "Lagos", Country: "NG", Zip: "100001"}),
	)
	require.NoError(t, err)
	return client
}

func TestGetRates_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rates", r.URL.Path)
		assert.Equal(t, "Bearer ship_key", r.Header.Get("Authorization"))

		var body struct {
			Origin      map[string]string `json:"origin"`
			Destination map[string]string `json:"destination"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Lagos", body.Origin["city"])
		assert.Equal(t, "Abuja", body.Destination["city"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"rates": [
				{"rate_id": "rt_1", "carrier": "dhl", "amount": "4500.00", "currency": "NGN", "delivery_days": 3},
				{"rate_id": "rt_2", "carrier": "gig", "amount": "2100.50", "currency": "NGN", "delivery_days": 5}
			]
		}`))
	}))
	defer server.Close()

	client := newTestClient(t, server)
	rates, err := client.GetRates(context.Background(), RateRequest{City: "Abuja", Country: "NG", WeightKg: 2.5})
	require.NoError(t, err)
	require.Len(t, rates, 2)
	assert.Equal(t, "rt_1", rates[0].RateID)
	assert.Equal(t, "dhl", rates[0].Carrier)
	assert.True(t, rates[0].Amount.Equal(decimal.RequireFromString("4500.00")))
	assert.Equal(t, 5, rates[1].DeliveryDays)
}

func TestGetRates_RequiresDestination(t *testing.T) {
	client, err := NewClient("ship_key", "https://shipping.example.com")
	require.NoError(t, err)

	_, err = client.GetRates(context.Background(), RateRequest{Country: "NG"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestBuyLabel_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/labels", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "rt_1", body["rate_id"])

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"tracking_id": "TRK-9f2", "carrier": "dhl", "label_url": "https://labels.example.com/TRK-9f2.pdf"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server)
	label, err := client.BuyLabel(context.Background(), "rt_1")
	require.NoError(t, err)
	assert.Equal(t, "TRK-9f2", label.TrackingID)
	assert.Equal(t, "dhl", label.Carrier)
}

func TestTrack_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/tracking/TRK-9f2", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"tracking_id": "TRK-9f2",
			"carrier": "dhl",
			"status": "in_transit",
			"events": [
				{"status": "picked_up", "description": "Package picked up", "location": "Lagos", "occurred_at": "2026-08-30T09:00:00Z"}
			]
		}`))
	}))
	defer server.Close()

	client := newTestClient(t, server)
	info, err := client.Track(context.Background(), "TRK-9f2")
	require.NoError(t, err)
	assert.Equal(t, "in_transit", info.Status)
	require.Len(t, info.Events, 1)
	assert.Equal(t, "picked_up", info.Events[0].Status)
}

func TestTrack_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(t, server)
	_, err := client.Track(context.Background(), "TRK-missing")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}
