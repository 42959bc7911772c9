package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"pfpharvest/pkg/config"
	errs "pfpharvest/pkg/errors"
	"pfpharvest/pkg/logger"
)

// APIKeyHeader carries the catalog credential on every request
const APIKeyHeader = "X-API-KEY"

// Client talks to the collections endpoint of the catalog API
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	pageSize   int
	logger     logger.Logger
}

// NewClient creates a catalog client from configuration
func NewClient(cfg config.CatalogConfig, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		headers: map[string]string{
			"Accept":     "application/json",
			"User-Agent": "pfpharvest/1.0",
		},
		baseURL:  cfg.BaseURL,
		pageSize: cfg.PageSize,
		logger:   log.WithField("component", "catalog"),
	}
	if c.pageSize <= 0 {
		c.pageSize = DefaultPageSize
	}
	if cfg.APIKey != "" {
		c.SetHeader(APIKeyHeader, cfg.APIKey)
	}

	return c
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// SetHTTPClient replaces the underlying HTTP client
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// doRequest performs an HTTP request with the configured headers
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		kind := errs.ClassifyTransport(err)
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"kind":     string(kind),
			"duration": duration,
		})
		return nil, &errs.TransportError{Kind: kind, URL: req.URL.String(), Err: err}
	}

	logger.LogRequest(c.logger, req.Method, req.URL.String(), resp.StatusCode, duration)
	return resp, nil
}

// GetJSON performs a GET request and decodes the JSON response into target
func (c *Client) GetJSON(ctx context.Context, url string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &errs.CatalogError{Message: fmt.Sprintf("failed to create request: %v", err), Err: err}
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp, url); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &errs.TransportError{Kind: errs.ClassifyTransport(err), URL: url, Err: err}
	}

	if err := json.Unmarshal(body, target); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}

		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          url,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return &errs.CatalogError{
			Code:    resp.StatusCode,
			Message: fmt.Sprintf("failed to parse JSON: %v", err),
			Err:     err,
		}
	}

	return nil
}

// checkResponseStatus maps non-200 statuses to catalog errors
func (c *Client) checkResponseStatus(resp *http.Response, url string) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}

	var message string
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		message = "authentication failed, check " + config.APIKeyEnv
	case resp.StatusCode == http.StatusTooManyRequests:
		message = "rate limit exceeded"
	case resp.StatusCode >= 500:
		message = "server error"
	default:
		message = fmt.Sprintf("unexpected status code: %d", resp.StatusCode)
	}

	c.logger.ErrorWithFields("catalog request rejected", map[string]interface{}{
		"status":  resp.StatusCode,
		"url":     url,
		"message": message,
	})

	return &errs.CatalogError{Code: resp.StatusCode, Message: message}
}

// ListCollections fetches one page of collections starting at cursor.
// An empty cursor requests the first page.
func (c *Client) ListCollections(ctx context.Context, cursor string) (*Page, error) {
	url := CollectionsURL(c.baseURL, c.pageSize, cursor)

	var response collectionsResponse
	if err := c.GetJSON(ctx, url, &response); err != nil {
		return nil, err
	}

	page, err := response.toPage()
	if err != nil {
		c.logger.ErrorWithFields("unexpected catalog response shape", map[string]interface{}{
			"url":   url,
			"error": err.Error(),
		})
		return nil, err
	}

	c.logger.DebugWithFields("fetched collections page", map[string]interface{}{
		"cursor":   cursor,
		"records":  len(page.Records),
		"has_next": page.Next != "",
	})

	return page, nil
}
