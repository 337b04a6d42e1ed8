// Package hubspot provides the HTTP client for CRM deal properties.
package hubspot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"scheduling_backend/platform/config"
	"scheduling_backend/platform/logger"

	"golang.org/x/time/rate"
)

const defaultTimeout = 15 * time.Second

// Client reads and writes deal properties.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	limiter    *rate.Limiter
	log        *logger.Logger
}

type dealPropertiesBody struct {
	Properties map[string]string `json:"properties"`
}

type dealResponse struct {
	ID         string             `json:"id"`
	Properties map[string]*string `json:"properties"`
}

// New creates a CRM client, or nil when no access token is configured.
func New(cfg config.HubSpotConfig, log *logger.Logger) *Client {
	if !cfg.IsHubSpotEnabled() {
		return nil
	}
	timeout := cfg.GetHubSpotTimeout()
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.GetHubSpotBaseURL(), "/"),
		token:      cfg.GetHubSpotAccessToken(),
		// HubSpot private apps allow 100 requests per 10 seconds.
		limiter: rate.NewLimiter(rate.Limit(10), 10),
		log:     log,
	}
}

// Configured reports whether c can make calls. It is safe on a nil client.
func (c *Client) Configured() bool {
	return c != nil
}

// UpdateProperties writes props to the deal. It reports false when the CRM
// rejected the write and returns an error only for transport failures.
func (c *Client) UpdateProperties(ctx context.Context, dealID string, props map[string]string) (bool, error) {
	payload, err := json.Marshal(dealPropertiesBody{Properties: props})
	if err != nil {
		return false, fmt.Errorf("hubspot update: encode body: %w", err)
	}

	resp, err := c.do(ctx, "update deal", http.MethodPatch, dealPath(dealID), bytes.NewReader(payload))
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		c.log.Warn("hubspot deal update rejected", "dealId", dealID, "status", resp.StatusCode, "body", strings.TrimSpace(string(raw)))
		return false, nil
	}
	return true, nil
}

// ReadProperties returns the requested deal properties. Null values map to "".
func (c *Client) ReadProperties(ctx context.Context, dealID string, keys []string) (map[string]string, error) {
	params := url.Values{}
	params.Set("properties", strings.Join(keys, ","))

	resp, err := c.do(ctx, "read deal", http.MethodGet, dealPath(dealID)+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("hubspot read deal: status %d", resp.StatusCode)
	}

	var deal dealResponse
	if err := json.NewDecoder(resp.Body).Decode(&deal); err != nil {
		return nil, fmt.Errorf("hubspot read deal: decode response: %w", err)
	}

	out := make(map[string]string, len(keys))
	for _, key := range keys {
		if v := deal.Properties[key]; v != nil {
			out[key] = *v
		} else {
			out[key] = ""
		}
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, operation, method, path string, body io.Reader) (*http.Response, error) {
	if c == nil {
		return nil, fmt.Errorf("hubspot %s: client not configured", operation)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("hubspot %s: rate limit wait: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("hubspot %s: create request: %w", operation, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.ExternalCallFailed("hubspot", operation, err)
		return nil, fmt.Errorf("hubspot %s: http request: %w", operation, err)
	}
	return resp, nil
}

func dealPath(dealID string) string {
	return "/crm/v3/objects/deals/" + url.PathEscape(dealID)
}
