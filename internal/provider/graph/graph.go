// Package graph implements a Provider that sends emails via the Microsoft Graph API.
package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/shineum/contact-mailer/internal/email"
)

// GraphProviderConfig holds the configuration for creating a GraphProvider.
type GraphProviderConfig struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	Sender       string
}

// GraphProvider sends emails via the Microsoft Graph sendMail endpoint using
// OAuth2 client credentials.
type GraphProvider struct {
	graphURL   string
	httpClient *http.Client
	token      *tokenCache
}

// New creates a new GraphProvider with the given configuration.
func New(cfg GraphProviderConfig) *GraphProvider {
	tokenURL := fmt.Sprintf(
		"https://login.microsoftonline.com/%s/oauth2/v2.0/token",
		url.PathEscape(cfg.TenantID),
	)
	graphURL := fmt.Sprintf(
		"https://graph.microsoft.com/v1.0/users/%s/sendMail",
		url.PathEscape(cfg.Sender),
	)

	return newWithOverrides(cfg, graphURL, tokenURL, &http.Client{Timeout: 30 * time.Second})
}

// newWithOverrides creates a GraphProvider with custom URLs and HTTP client,
// used for testing.
func newWithOverrides(cfg GraphProviderConfig, graphURL, tokenURL string, client *http.Client) *GraphProvider {
	return &GraphProvider{
		graphURL:   graphURL,
		httpClient: client,
		token:      newTokenCache(tokenURL, cfg.ClientID, cfg.ClientSecret, client),
	}
}

// Send delivers an email message via the Graph API in a single attempt.
// A 401 drops the cached token so the next send re-authenticates.
func (g *GraphProvider) Send(ctx context.Context, msg *email.Email) (string, error) {
	reqBody, err := buildSendMailRequest(msg)
	if err != nil {
		return "", fmt.Errorf("failed to build request body: %w", err)
	}
	bodyJSON, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	token, err := g.token.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get access token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.graphURL, bytes.NewReader(bodyJSON))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	// sendMail answers 202 Accepted with an empty body.
	if resp.StatusCode == http.StatusAccepted || resp.StatusCode == http.StatusOK {
		return resp.Status, nil
	}

	if resp.StatusCode == http.StatusUnauthorized {
		slog.Info("Graph API rejected token, invalidating cache")
		g.token.Invalidate()
	}

	body, _ := io.ReadAll(resp.Body)
	return "", newSendError(resp.StatusCode, body)
}

// Name returns the provider name.
func (g *GraphProvider) Name() string {
	return "msgraph"
}

// sendError is a non-2xx answer from the sendMail endpoint.
type sendError struct {
	statusCode int
	code       string
	message    string
}

func newSendError(statusCode int, body []byte) *sendError {
	e := &sendError{statusCode: statusCode, message: string(body)}

	var errResp graphErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		e.code = errResp.Error.Code
		e.message = errResp.Error.Message
	}
	return e
}

func (e *sendError) Error() string {
	if e.code != "" {
		return fmt.Sprintf("Graph API error (HTTP %d, %s): %s", e.statusCode, e.code, e.message)
	}
	return fmt.Sprintf("Graph API error (HTTP %d): %s", e.statusCode, e.message)
}
