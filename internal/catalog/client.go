// Package catalog is the typed transport boundary to the remote product API.
// It performs no retries and keeps no cache; callers own all state.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/drstein77/storefront/internal/models"
)

// ErrNotFound indicates the remote catalog has no product with the given id.
var ErrNotFound = errors.New("product not found")

// NetworkError covers transport failures and non-2xx responses. Callers must
// not assume partial results when one is returned.
type NetworkError struct {
	URL    string
	Status int
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("catalog request %s failed: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("catalog request %s failed with status %d", e.URL, e.Status)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Log interface for logging
type Log interface {
	Debug(string, ...zap.Field)
}

// Client calls the remote catalog API.
type Client struct {
	base  string
	httpc *http.Client
	log   Log
}

// NewClient creates a Client for the given base URL. Every call honors the
// timeout so no request can hang the caller.
func NewClient(base string, timeout time.Duration, log Log) *Client {
	return &Client{
		base:  strings.TrimRight(base, "/"),
		httpc: &http.Client{Timeout: timeout},
		log:   log,
	}
}

// ListProducts fetches one page of the full catalog listing.
func (c *Client) ListProducts(ctx context.Context, page, limit int) (*models.ProductPage, error) {
	u := fmt.Sprintf("%s/products?limit=%d&skip=%d", c.base, limit, page*limit)
	return c.getPage(ctx, u)
}

// ListByCategory fetches one page of a single category's products. The
// category URL comes straight from a Category returned by ListCategories.
func (c *Client) ListByCategory(ctx context.Context, categoryURL string, page, limit int) (*models.ProductPage, error) {
	sep := "?"
	if strings.Contains(categoryURL, "?") {
		sep = "&"
	}
	u := fmt.Sprintf("%s%slimit=%d&skip=%d", categoryURL, sep, limit, page*limit)
	return c.getPage(ctx, u)
}

// SearchProducts fetches one page of products matching the query.
func (c *Client) SearchProducts(ctx context.Context, query string, page, limit int) (*models.ProductPage, error) {
	u := fmt.Sprintf("%s/products/search?q=%s&limit=%d&skip=%d",
		c.base, url.QueryEscape(query), limit, page*limit)
	return c.getPage(ctx, u)
}

// GetProduct fetches a single product by id. Returns ErrNotFound when the
// remote reports no such id.
func (c *Client) GetProduct(ctx context.Context, id int) (*models.Product, error) {
	u := c.base + "/products/" + strconv.Itoa(id)

	var p models.Product
	if err := c.getJSON(ctx, u, &p); err != nil {
		var ne *NetworkError
		if errors.As(err, &ne) && ne.Status == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ListCategories fetches the full category list.
func (c *Client) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := c.getJSON(ctx, c.base+"/products/categories", &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (c *Client) getPage(ctx context.Context, u string) (*models.ProductPage, error) {
	var page models.ProductPage
	if err := c.getJSON(ctx, u, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	c.log.Debug("catalog request", zap.String("url", u))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &NetworkError{URL: u, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return &NetworkError{URL: u, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &NetworkError{URL: u, Status: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &NetworkError{URL: u, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
