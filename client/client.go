// Package client talks to the codepolish format endpoint.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

// Language is the language hint sent with a format request.
type Language string

const (
	LanguageJavaScript Language = "javascript"
	LanguageTypeScript Language = "typescript"
)

// Toggle returns the other supported language.
func (l Language) Toggle() Language {
	if l == LanguageTypeScript {
		return LanguageJavaScript
	}
	return LanguageTypeScript
}

// FormatRequest is the body of POST /format.
type FormatRequest struct {
	Code     string   `json:"code"`
	Language Language `json:"language"`
}

// formatReply covers both the success and the error body.
type formatReply struct {
	Formatted *string `json:"formatted"`
	Error     string  `json:"error"`
}

// Health is the body of GET /healthz.
type Health struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	Engine     string `json:"engine"`
	Conforming bool   `json:"conforming"`
}

// Client is an HTTP client for one codepolish server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// New returns a client for the server at baseURL. Requests carry no timeout
// of their own; callers bound them through the context if they want to.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Format posts req to the format endpoint and returns the formatted code.
// Every failure is returned as a *FormatError.
func (c *Client) Format(ctx context.Context, req FormatRequest, requestID string) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", newTransportError(0, MessageUnexpectedResponse, errors.Wrap(err, "failed to marshal format request"))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/format", bytes.NewReader(body))
	if err != nil {
		return "", newTransportError(0, MessageNetworkFailure, errors.Wrap(err, "failed to construct format request"))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if requestID != "" {
		httpReq.Header.Set("X-Request-ID", requestID)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		slog.Debug("format request failed", "url", c.baseURL, "request_id", requestID, "error", err)
		return "", newTransportError(0, MessageNetworkFailure, errors.Wrapf(err, "failed to post format request to %s", c.baseURL))
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", newTransportError(resp.StatusCode, MessageNetworkFailure, errors.Wrap(err, "failed to read format response"))
	}

	var reply formatReply
	decodeErr := json.Unmarshal(b, &reply)
	ok := resp.StatusCode >= 200 && resp.StatusCode <= 299

	if !ok {
		if decodeErr == nil && reply.Error != "" {
			return "", &FormatError{Kind: kindForStatus(resp.StatusCode), Message: reply.Error, HTTPStatus: resp.StatusCode}
		}
		slog.Debug("format request rejected without error payload", "status", resp.StatusCode, "request_id", requestID)
		return "", newTransportError(resp.StatusCode, fmt.Sprintf("Request failed with status %d", resp.StatusCode), decodeErr)
	}

	if decodeErr != nil || reply.Formatted == nil {
		if decodeErr == nil {
			decodeErr = errors.New("response has no formatted field")
		}
		slog.Debug("unexpected format response", "status", resp.StatusCode, "request_id", requestID, "error", decodeErr)
		return "", newTransportError(resp.StatusCode, MessageUnexpectedResponse, errors.Wrap(decodeErr, "failed to decode format response"))
	}
	return *reply.Formatted, nil
}

// Health fetches the server's health report.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to construct health request")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to reach %s", c.baseURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("health check of %s returned status %d", c.baseURL, resp.StatusCode)
	}
	health := &Health{}
	if err := json.NewDecoder(resp.Body).Decode(health); err != nil {
		return nil, errors.Wrap(err, "failed to decode health response")
	}
	return health, nil
}

func kindForStatus(status int) ErrorKind {
	if status == http.StatusBadRequest {
		return KindMissingInput
	}
	return KindFormatFailure
}
