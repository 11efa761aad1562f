// Package oracle wraps the external product-availability predictor.
//
// The predictor is slow and occasionally unavailable, so every call is
// bounded by the client timeout and failures are reported as transient
// errors for the caller to skip and retry on the next trigger.
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Prediction is one predictor verdict for a (product, store) pair
type Prediction struct {
	Answer     bool    `json:"answer"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

// Client is an HTTP client for the availability predictor
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a predictor client with a bounded per-call timeout
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
	}
}

// Check asks the predictor whether a product is sold at a store
func (c *Client) Check(ctx context.Context, product, store string) (*Prediction, error) {
	params := url.Values{}
	params.Set("product", product)
	params.Set("store", store)

	reqURL := c.baseURL + "/check_product_availability?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("predictor request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read predictor response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("predictor returned %d: %s", resp.StatusCode, truncate(body, 200))
	}

	var pred Prediction
	if err := json.Unmarshal(body, &pred); err != nil {
		return nil, fmt.Errorf("decode predictor response: %w", err)
	}

	return &pred, nil
}

// truncate returns a truncated string representation for error messages
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
