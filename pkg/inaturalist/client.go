package inaturalist

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"inatphotos/pkg/errors"
	"inatphotos/pkg/logger"
)

// DefaultUserAgent identifies the tool to the API
const DefaultUserAgent = "inatphotos/1.0"

// Client talks to the iNaturalist observation endpoint and the photo host
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	logger     logger.Logger
}

// NewClient creates a new iNaturalist client.
// An empty baseURL selects the public site.
func NewClient(baseURL string, timeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	if baseURL == "" {
		baseURL = BaseURL
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		headers: map[string]string{
			"User-Agent": DefaultUserAgent,
			"Accept":     "application/json",
		},
		baseURL: baseURL,
		logger:  log,
	}
}

// SetHeader sets a custom header for every request
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// BaseURL returns the API base the client was built with
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do performs an HTTP GET with the configured headers
func (c *Client) do(ctx context.Context, url string, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &errors.Error{
			Type:    errors.ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to create request: %v", err),
			URL:     url,
		}
	}

	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"url":      url,
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, &errors.Error{
			Type:    errors.ErrorTypeNetwork,
			Message: fmt.Sprintf("network error: %v", err),
			URL:     url,
		}
	}

	logger.LogRequest(c.logger, req.Method, url, resp.StatusCode, float64(duration.Microseconds())/1000)

	if err := checkResponseStatus(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}

	return resp, nil
}

// checkResponseStatus converts a non-2xx status into a typed error
func checkResponseStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	errType := errors.TypeForStatus(resp.StatusCode)
	if errType == "" {
		errType = errors.ErrorTypeUnknown
	}

	url := ""
	if resp.Request != nil && resp.Request.URL != nil {
		url = resp.Request.URL.String()
	}

	return &errors.Error{
		Type:    errType,
		Message: fmt.Sprintf("unexpected status %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
		Code:    resp.StatusCode,
		URL:     url,
	}
}

// GetJSON performs a GET request and decodes the JSON response into target
func (c *Client) GetJSON(ctx context.Context, url string, target interface{}) error {
	resp, err := c.do(ctx, url, "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &errors.Error{
			Type:    errors.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read response body: %v", err),
			Code:    resp.StatusCode,
			URL:     url,
		}
	}

	if err := json.Unmarshal(body, target); err != nil {
		preview := string(body)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          url,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": preview,
		})
		return &errors.Error{
			Type:    errors.ErrorTypeParsing,
			Message: fmt.Sprintf("failed to parse JSON: %v", err),
			Code:    resp.StatusCode,
			URL:     url,
		}
	}

	return nil
}

// FetchObservation fetches the detail record for one observation
func (c *Client) FetchObservation(ctx context.Context, observationID string) (*Observation, error) {
	url := GetObservationURL(c.baseURL, observationID)

	c.logger.DebugWithFields("fetching observation", map[string]interface{}{
		"observation_id": observationID,
		"url":            url,
	})

	var obs Observation
	if err := c.GetJSON(ctx, url, &obs); err != nil {
		return nil, err
	}

	return &obs, nil
}

// OpenPhoto starts downloading a photo and returns the body stream.
// The caller must close it.
func (c *Client) OpenPhoto(ctx context.Context, photoURL string) (io.ReadCloser, error) {
	c.logger.DebugWithFields("downloading photo", map[string]interface{}{
		"url": photoURL,
	})

	resp, err := c.do(ctx, photoURL, "image/*")
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}
