package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/damilareakin/artmarket-backend/pkg/errors"
)

// SMSSender delivers a single SMS.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// SMSClient posts messages to the SMS gateway's JSON API.
type SMSClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	sender     string
}

// SMSOption configures optional SMS client behavior.
type SMSOption func(*SMSClient)

// WithSMSHTTPClient overrides the default HTTP client.
func WithSMSHTTPClient(client *http.Client) SMSOption {
	return func(c *SMSClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewSMSClient builds an SMS sender for the given gateway endpoint.
func NewSMSClient(apiKey, baseURL, sender string, opts ...SMSOption) (*SMSClient, error) {
	trimmedKey := strings.TrimSpace(apiKey)
	if trimmedKey == "" {
		return nil, errors.New("sms api key is required")
	}
	trimmedBase := strings.TrimSpace(baseURL)
	if trimmedBase == "" {
		return nil, errors.New("sms base url is required")
	}

	client := &SMSClient{
		apiKey:     trimmedKey,
		baseURL:    trimmedBase,
		sender:     strings.TrimSpace(sender),
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

// SendSMS delivers a message to the given phone number.
func (c *SMSClient) SendSMS(ctx context.Context, to, body string) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "sms client not configured")
	}
	if strings.TrimSpace(to) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient phone number is required")
	}
	if strings.TrimSpace(body) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "message body is required")
	}

	payload, err := json.Marshal(map[string]string{
		"to":   to,
		"from": c.sender,
		"body": body,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "marshal sms payload")
	}

	endpoint := strings.TrimRight(c.baseURL, "/") + "/messages"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "build sms request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "execute sms request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusAccepted {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "sms delivery failed")
	}
	return nil
}
