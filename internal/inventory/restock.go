package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kapehan/pos-backend/internal/sales"
)

const (
	ingredientsRestockPath = "/ingredients/restock-from-cancelled-order"
	materialsRestockPath   = "/materials/restock-from-cancelled-order"
)

type restockRequest struct {
	CancelledItems []sales.RestockItem `json:"cancelled_items"`
}

// Result is the outcome of one downstream restock call.
type Result struct {
	Service string
	Status  int
	Body    string
	Err     error
}

func (r Result) OK() bool { return r.Err == nil && r.Status == http.StatusOK }

// Client notifies the ingredients and materials inventories of cancelled items.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Log     *slog.Logger
}

func NewClient(baseURL string, timeout time.Duration, log *slog.Logger) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
		Log:     log.With("component", "restock"),
	}
}

// Restock satisfies sales.Restocker; failures are logged and dropped.
func (c *Client) Restock(ctx context.Context, token string, items []sales.RestockItem) {
	for _, res := range c.Notify(ctx, token, items) {
		switch {
		case res.Err != nil:
			c.Log.Error("restock call failed", "service", res.Service, "err", res.Err)
		case !res.OK():
			c.Log.Error("restock rejected", "service", res.Service, "status", res.Status, "body", res.Body)
		default:
			c.Log.Info("restock accepted", "service", res.Service, "items", len(items))
		}
	}
}

// Notify posts the same payload to both inventories concurrently and waits
// for both. One call failing never cancels the other.
func (c *Client) Notify(ctx context.Context, token string, items []sales.RestockItem) []Result {
	body, err := json.Marshal(restockRequest{CancelledItems: items})
	if err != nil {
		return []Result{{Service: "ingredients", Err: err}, {Service: "materials", Err: err}}
	}

	targets := []struct{ service, path string }{
		{"ingredients", ingredientsRestockPath},
		{"materials", materialsRestockPath},
	}
	results := make([]Result, len(targets))
	var g errgroup.Group
	for i, t := range targets {
		g.Go(func() error {
			results[i] = c.post(ctx, t.service, t.path, token, body)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (c *Client) post(ctx context.Context, service, path, token string, body []byte) Result {
	res := Result{Service: service}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		res.Err = err
		return res
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		res.Err = fmt.Errorf("post %s: %w", path, err)
		return res
	}
	defer resp.Body.Close()
	res.Status = resp.StatusCode
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		res.Body = string(b)
	}
	return res
}
