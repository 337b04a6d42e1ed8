// Package zuper provides the HTTP client for the field-service provider API.
package zuper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"scheduling_backend/platform/config"
	"scheduling_backend/platform/logger"

	"golang.org/x/time/rate"
)

const (
	defaultTimeout = 20 * time.Second
	searchPageSize = 100
	// maxSearchPages caps a category-wide search at a few thousand jobs.
	maxSearchPages = 20
)

// Client is the HTTP client for the field-service provider.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
	log        *logger.Logger
}

// New creates a provider client. It returns nil when the provider is not
// configured; a nil *Client reports Configured() == false.
func New(cfg config.ZuperConfig, log *logger.Logger) *Client {
	if !cfg.IsZuperEnabled() {
		return nil
	}

	timeout := cfg.GetZuperTimeout()
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	perSecond := cfg.GetZuperRatePerSecond()
	if perSecond <= 0 {
		perSecond = 4
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.GetZuperBaseURL(), "/"),
		apiKey:     cfg.GetZuperAPIKey(),
		limiter:    rate.NewLimiter(rate.Limit(perSecond), 1),
		log:        log,
	}
}

// Configured reports whether the client can make calls.
func (c *Client) Configured() bool {
	return c != nil && c.baseURL != "" && c.apiKey != ""
}

// SearchJobs lists every job matching q, following pagination up to
// maxSearchPages.
func (c *Client) SearchJobs(ctx context.Context, q JobQuery) ([]Job, error) {
	params := url.Values{}
	params.Set("count", strconv.Itoa(searchPageSize))
	if ref, ok := q.Category.Ref(); ok {
		params.Set("filter.category", ref.UID)
	}
	if q.Tag != "" {
		params.Set("filter.job_tags", q.Tag)
	}
	if q.Text != "" {
		params.Set("filter.keyword", q.Text)
	}

	var jobs []Job
	for page := 1; page <= maxSearchPages; page++ {
		params.Set("page", strconv.Itoa(page))

		var env listEnvelope[Job]
		if err := c.do(ctx, "search jobs", http.MethodGet, "/jobs?"+params.Encode(), nil, &env); err != nil {
			return nil, err
		}
		if strings.EqualFold(env.Type, "error") {
			return nil, &APIError{Operation: "search jobs", Status: http.StatusOK, Message: env.Message}
		}
		jobs = append(jobs, env.Data...)

		if len(env.Data) < searchPageSize || (env.TotalPages > 0 && page >= env.TotalPages) {
			return jobs, nil
		}
	}

	c.log.Warn("zuper job search truncated", "pages", maxSearchPages, "jobs", len(jobs))
	return jobs, nil
}

// SearchUsers lists provider users whose name matches name.
func (c *Client) SearchUsers(ctx context.Context, name string) ([]User, error) {
	params := url.Values{}
	params.Set("filter.keyword", name)

	var env listEnvelope[User]
	if err := c.do(ctx, "search users", http.MethodGet, "/user/all?"+params.Encode(), nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// RescheduleJob moves a job to a new window and, when assignees are given,
// reassigns it. The schedule update is sent first; an assignment failure is
// reported as an error even though the new window has been applied.
func (c *Client) RescheduleJob(ctx context.Context, req RescheduleRequest) error {
	if req.JobUID == "" {
		return fmt.Errorf("zuper reschedule: job uid is required")
	}

	var env actionEnvelope
	body := scheduleBody{JobUID: req.JobUID, FromDate: req.StartUTC, ToDate: req.EndUTC}
	if err := c.do(ctx, "reschedule job", http.MethodPut, "/jobs/schedule", body, &env); err != nil {
		return err
	}
	if strings.EqualFold(env.Type, "error") {
		return &APIError{Operation: "reschedule job", Status: http.StatusOK, Message: env.Message}
	}

	if len(req.UserUIDs) == 0 && req.TeamUID == "" {
		return nil
	}

	assign := assignBody{JobUID: req.JobUID, TeamUID: req.TeamUID}
	for _, uid := range req.UserUIDs {
		assign.Users = append(assign.Users, assignUser{UserUID: uid})
	}
	env = actionEnvelope{}
	if err := c.do(ctx, "assign job", http.MethodPut, "/jobs/assign", assign, &env); err != nil {
		return err
	}
	if strings.EqualFold(env.Type, "error") {
		return &APIError{Operation: "assign job", Status: http.StatusOK, Message: env.Message}
	}
	return nil
}

func (c *Client) do(ctx context.Context, operation, method, path string, body any, out any) error {
	if !c.Configured() {
		return fmt.Errorf("zuper %s: client not configured", operation)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("zuper %s: rate limit wait: %w", operation, err)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("zuper %s: encode body: %w", operation, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("zuper %s: create request: %w", operation, err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.ExternalCallFailed("zuper", operation, err)
		return fmt.Errorf("zuper %s: http request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		apiErr := &APIError{Operation: operation, Status: resp.StatusCode, Message: extractMessage(raw)}
		c.log.ExternalCallFailed("zuper", operation, apiErr)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("zuper %s: decode response: %w", operation, err)
	}
	return nil
}

func extractMessage(raw []byte) string {
	var env actionEnvelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Message != "" {
		return env.Message
	}
	return strings.TrimSpace(string(raw))
}
