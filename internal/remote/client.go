// Package remote talks to the storefront platform's Ajax cart API. The
// platform is authoritative for inventory and final pricing; this client
// only pushes the local working set and reads snapshots back.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"
)

const defaultTimeout = 10 * time.Second

// Snapshot is the platform's read-only view of its cart. Prices are in the
// platform's minor currency units.
type Snapshot struct {
	ItemCount  int            `json:"item_count"`
	TotalPrice int64          `json:"total_price"`
	Items      []SnapshotItem `json:"items"`
}

type SnapshotItem struct {
	ID       int64  `json:"id"`
	Quantity int    `json:"quantity"`
	Title    string `json:"title"`
	Price    int64  `json:"price"`
}

// AddItem is one line of a batch add request.
type AddItem struct {
	ID       int64 `json:"id"`
	Quantity int   `json:"quantity"`
}

type addRequest struct {
	Items []AddItem `json:"items"`
}

// APIError is the platform's error payload on a non-2xx response, e.g.
// inventory exhausted during a batch add.
type APIError struct {
	StatusCode  int    `json:"status"`
	Message     string `json:"message"`
	Description string `json:"description"`
}

func (e *APIError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("cart API error (status %d): %s: %s", e.StatusCode, e.Message, e.Description)
	}
	return fmt.Sprintf("cart API error (status %d): %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*Snapshot]
	sfg     singleflight.Group // dedupes concurrent snapshot reads
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	breaker := gobreaker.NewCircuitBreaker[*Snapshot](gobreaker.Settings{
		Name:    "storefront-cart",
		Timeout: 30 * time.Second,
	})
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		breaker: breaker,
	}
}

// Cart fetches the authoritative cart snapshot.
func (c *Client) Cart(ctx context.Context) (*Snapshot, error) {
	v, err, _ := c.sfg.Do("cart", func() (interface{}, error) {
		return c.breaker.Execute(func() (*Snapshot, error) {
			return c.getSnapshot(ctx)
		})
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

// AddItems pushes the given lines to the remote cart as a single batch and
// returns the resulting snapshot.
func (c *Client) AddItems(ctx context.Context, items []AddItem) (*Snapshot, error) {
	return c.breaker.Execute(func() (*Snapshot, error) {
		body, err := json.Marshal(addRequest{Items: items})
		if err != nil {
			return nil, fmt.Errorf("marshal add request failed: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/cart/add.js", bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("build add request failed: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("cart add request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, decodeAPIError(resp)
		}

		var snapshot Snapshot
		if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
			return nil, fmt.Errorf("decode cart add response failed: %w", err)
		}
		return &snapshot, nil
	})
}

// Clear empties the remote cart. Callers treat failures as best-effort.
func (c *Client) Clear(ctx context.Context) error {
	_, err := c.breaker.Execute(func() (*Snapshot, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/cart/clear.js", nil)
		if err != nil {
			return nil, fmt.Errorf("build clear request failed: %w", err)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("cart clear request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, decodeAPIError(resp)
		}
		return nil, nil
	})
	return err
}

func (c *Client) getSnapshot(ctx context.Context) (*Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/cart.js", nil)
	if err != nil {
		return nil, fmt.Errorf("build cart request failed: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cart request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeAPIError(resp)
	}

	var snapshot Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("decode cart snapshot failed: %w", err)
	}
	return &snapshot, nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil || len(body) == 0 {
		apiErr.Message = resp.Status
		return apiErr
	}

	if err := json.Unmarshal(body, apiErr); err != nil {
		apiErr.Message = string(body)
	}
	apiErr.StatusCode = resp.StatusCode
	return apiErr
}
