// Package mailer delivers transactional email and SMS for account and
// order notifications.
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

const (
	defaultEmailBaseURL         = "https://api.sendgrid.com"
	responseBodyReadLimit int64 = 1024
)

var errEmailAPIKeyRequired = errors.New("sendgrid api key is required")

// EmailSender delivers a single transactional email.
type EmailSender interface {
	SendEmail(ctx context.Context, msg EmailMessage) error
}

// EmailMessage is one outbound email.
type EmailMessage struct {
	To        string
	Subject   string
	PlainBody string
	HTMLBody  string
}

// EmailClient sends mail through the Sendgrid v3 API.
type EmailClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	fromEmail  string
}

// EmailOption configures optional email client behavior.
type EmailOption func(*EmailClient)

// WithEmailHTTPClient overrides the default HTTP client.
func WithEmailHTTPClient(client *http.Client) EmailOption {
	return func(c *EmailClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithEmailBaseURL overrides the Sendgrid endpoint.
func WithEmailBaseURL(baseURL string) EmailOption {
	return func(c *EmailClient) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewEmailClient builds a Sendgrid-backed email sender.
func NewEmailClient(apiKey, fromEmail string, opts ...EmailOption) (*EmailClient, error) {
	trimmedKey := strings.TrimSpace(apiKey)
	if trimmedKey == "" {
		return nil, errEmailAPIKeyRequired
	}
	trimmedFrom := strings.TrimSpace(fromEmail)
	if trimmedFrom == "" {
		return nil, errors.New("sender email is required")
	}

	client := &EmailClient{
		apiKey:     trimmedKey,
		fromEmail:  trimmedFrom,
		baseURL:    defaultEmailBaseURL,
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

// SendEmail posts the message to Sendgrid's mail send endpoint.
func (c *EmailClient) SendEmail(ctx context.Context, msg EmailMessage) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "email client not configured")
	}
	if strings.TrimSpace(msg.To) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient email is required")
	}
	if strings.TrimSpace(msg.Subject) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email subject is required")
	}

	content := make([]map[string]string, 0, 2)
	if strings.TrimSpace(msg.PlainBody) != "" {
		content = append(content, map[string]string{"type": "text/plain", "value": msg.PlainBody})
	}
	if strings.TrimSpace(msg.HTMLBody) != "" {
		content = append(content, map[string]string{"type": "text/html", "value": msg.HTMLBody})
	}
	if len(content) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "email body is required")
	}

	payload, err := json.Marshal(map[string]any{
		"personalizations": []map[string]any{
			{"to": []map[string]string{{"email": msg.To}}},
		},
		"from":    map[string]string{"email": c.fromEmail},
		"subject": msg.Subject,
		"content": content,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "marshal email payload")
	}

	endpoint := strings.TrimRight(c.baseURL, "/") + "/v3/mail/send"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "build email request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "execute email request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), "email delivery failed")
	}
	return nil
}
