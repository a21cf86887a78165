package services

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"orderhub/internal/metrics"

	"github.com/pkg/errors"
)

type StockItem struct {
	Sku      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

type StockCheckResult struct {
	Available bool   `json:"available"`
	Message   string `json:"message"`
}

// InventoryChecker asks the inventory service whether an order can be filled.
type InventoryChecker interface {
	CheckAvailability(ctx context.Context, items []StockItem) (*StockCheckResult, error)
}

type inventoryHTTPClient struct {
	baseURL    string
	httpClient *http.Client
	metrics    *metrics.Metrics
}

func NewInventoryClient(baseURL string, timeout time.Duration, m *metrics.Metrics) InventoryChecker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &inventoryHTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		metrics:    m,
	}
}

// CheckAvailability sends the whole item list in one call. Any transport or
// decoding failure is an error; an unavailable answer is not.
func (c *inventoryHTTPClient) CheckAvailability(ctx context.Context, items []StockItem) (*StockCheckResult, error) {
	result, err := c.checkStock(ctx, items)
	switch {
	case err != nil:
		c.metrics.StockChecks.WithLabelValues("error").Inc()
	case result.Available:
		c.metrics.StockChecks.WithLabelValues("available").Inc()
	default:
		c.metrics.StockChecks.WithLabelValues("unavailable").Inc()
	}
	return result, err
}

func (c *inventoryHTTPClient) checkStock(ctx context.Context, items []StockItem) (*StockCheckResult, error) {
	payload, err := json.Marshal(items)
	if err != nil {
		return nil, errors.Wrap(err, "encode stock check")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/check-stock", bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "build stock check request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "stock check")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.Errorf("stock check returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result StockCheckResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, errors.Wrap(err, "decode stock check response")
	}
	return &result, nil
}
