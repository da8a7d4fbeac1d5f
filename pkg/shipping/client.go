package shipping

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/damilareakin/artmarket-backend/pkg/errors"
)

const responseBodyReadLimit int64 = 1024

var errAPIKeyRequired = errors.New("shipping api key is required")

// Origin is the warehouse address rate quotes ship from.
type Origin struct {
	City    string
	Country string
	Zip     string
}

// Client talks to the shipping aggregator used for order fulfilment.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	origin     Origin
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithOrigin sets the pickup address used for every rate request.
func WithOrigin(origin Origin) Option {
	return func(c *Client) {
		c.origin = origin
	}
}

// NewClient builds a shipping client for the given provider endpoint.
func NewClient(apiKey, baseURL string, opts ...Option) (*Client, error) {
	trimmedKey := strings.TrimSpace(apiKey)
	if trimmedKey == "" {
		return nil, errAPIKeyRequired
	}
	trimmedBase := strings.TrimSpace(baseURL)
	if trimmedBase == "" {
		return nil, errors.New("shipping base url is required")
	}

	client := &Client{
		apiKey:     trimmedKey,
		baseURL:    trimmedBase,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	return client, nil
}

// RateRequest asks for a delivery quote to the buyer's address.
type RateRequest struct {
	City     string
	Country  string
	Zip      string
	WeightKg float64
}

// Rate is a single carrier quote.
type Rate struct {
	RateID       string
	Carrier      string
	Amount       decimal.Decimal
	Currency     string
	DeliveryDays int
}

// Label is a purchased shipment label.
type Label struct {
	TrackingID string
	Carrier    string
	LabelURL   string
}

// TrackingEvent is one scan in a shipment's movement history.
type TrackingEvent struct {
	Status      string    `json:"status"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// TrackingInfo is the provider's view of a shipment in transit.
type TrackingInfo struct {
	TrackingID string
	Carrier    string
	Status     string
	Events     []TrackingEvent
}

// GetRates quotes delivery from the configured origin to the destination.
func (c *Client) GetRates(ctx context.Context, req RateRequest) ([]Rate, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "shipping client not configured")
	}
	if strings.TrimSpace(req.City) == "" || strings.TrimSpace(req.Country) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "destination city and country are required")
	}

	payload, err := json.Marshal(map[string]any{
		"origin": map[string]string{
			"city":    c.origin.City,
			"country": c.origin.Country,
			"zip":     c.origin.Zip,
		},
		"destination": map[string]string{
			"city":    req.City,
			"country": req.Country,
			"zip":     req.Zip,
		},
		"weight_kg": req.WeightKg,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "marshal rate request")
	}

	var apiResp struct {
		Rates []struct {
			RateID       string `json:"rate_id"`
			Carrier      string `json:"carrier"`
			Amount       string `json:"amount"`
			Currency     string `json:"currency"`
			DeliveryDays int    `json:"delivery_days"`
		} `json:"rates"`
	}
	if err := c.do(ctx, http.MethodPost, "rates", payload, &apiResp); err != nil {
		return nil, err
	}

	rates := make([]Rate, 0, len(apiResp.Rates))
	for _, r := range apiResp.Rates {
		amount, err := decimal.NewFromString(r.Amount)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "parse rate amount")
		}
		rates = append(rates, Rate{
			RateID:       r.RateID,
			Carrier:      r.Carrier,
			Amount:       amount,
			Currency:     r.Currency,
			DeliveryDays: r.DeliveryDays,
		})
	}
	return rates, nil
}

// BuyLabel purchases the quoted rate and returns the carrier label.
func (c *Client) BuyLabel(ctx context.Context, rateID string) (*Label, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "shipping client not configured")
	}
	trimmed := strings.TrimSpace(rateID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rate id is required")
	}

	payload, err := json.Marshal(map[string]string{"rate_id": trimmed})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "marshal label request")
	}

	var apiResp struct {
		TrackingID string `json:"tracking_id"`
		Carrier    string `json:"carrier"`
		LabelURL   string `json:"label_url"`
	}
	if err := c.do(ctx, http.MethodPost, "labels", payload, &apiResp); err != nil {
		return nil, err
	}
	return &Label{TrackingID: apiResp.TrackingID, Carrier: apiResp.Carrier, LabelURL: apiResp.LabelURL}, nil
}

// Track fetches the movement history for a purchased shipment.
func (c *Client) Track(ctx context.Context, trackingID string) (*TrackingInfo, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "shipping client not configured")
	}
	trimmed := strings.TrimSpace(trackingID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tracking id is required")
	}

	var apiResp struct {
		TrackingID string          `json:"tracking_id"`
		Carrier    string          `json:"carrier"`
		Status     string          `json:"status"`
		Events     []TrackingEvent `json:"events"`
	}
	if err := c.do(ctx, http.MethodGet, "tracking/"+url.PathEscape(trimmed), nil, &apiResp); err != nil {
		return nil, err
	}
	return &TrackingInfo{
		TrackingID: apiResp.TrackingID,
		Carrier:    apiResp.Carrier,
		Status:     apiResp.Status,
		Events:     apiResp.Events,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte, out any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.buildURL(path), body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "build shipping request")
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "execute shipping request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return pkgerrors.New(pkgerrors.CodeNotFound, "shipping resource not found")
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "shipping request failed")
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "decode shipping response")
		}
	}
	return nil
}

func (c *Client) buildURL(path string) string {
	trimmed := strings.TrimRight(c.baseURL, "/")
	path = strings.TrimLeft(path, "/")
	return fmt.Sprintf("%s/%s", trimmed, path)
}
