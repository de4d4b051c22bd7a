// Package email sends transactional email through the provider's HTTP API.
// The client knows nothing about subscriptions; it exposes a single send
// capability that either succeeds or fails.
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client posts messages to the provider's /email endpoint, authenticated by a
// server token header. The embedded http.Client timeout bounds every send so
// a hung provider cannot stall a request slot.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	sender      string
	serverToken string
}

// NewClient builds an email client for the given provider base URL.
func NewClient(baseURL, sender, serverToken string, timeout time.Duration) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     baseURL,
		sender:      sender,
		serverToken: serverToken,
	}
}

// sendEmailRequest matches the provider's wire format.
type sendEmailRequest struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HTMLBody string `json:"HtmlBody"`
	TextBody string `json:"TextBody"`
}

// Send delivers one message. Any transport failure, timeout, or non-2xx
// response is an error; the caller decides what that means for its workflow.
func (c *Client) Send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	endpoint, err := url.JoinPath(c.baseURL, "email")
	if err != nil {
		return fmt.Errorf("build email endpoint: %w", err)
	}

	payload, err := json.Marshal(sendEmailRequest{
		From:     c.sender,
		To:       to,
		Subject:  subject,
		HTMLBody: htmlBody,
		TextBody: textBody,
	})
	if err != nil {
		return fmt.Errorf("marshal email request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Postmark-Server-Token", c.serverToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("send email: provider returned %d", resp.StatusCode)
	}
	return nil
}
