package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"ApniDukan/internal/catalog"
)

var (
	ErrCatalogNotFound    = errors.New("catalog resource not found")
	ErrCatalogBadStatus   = errors.New("catalog bad status")
	ErrCatalogUnavailable = errors.New("catalog unavailable")
)

// Catalog is the slice of the catalog service the order service depends on.
type Catalog interface {
	GetShop(ctx context.Context, id string) (catalog.Shop, error)
	GetProduct(ctx context.Context, id string) (catalog.Product, error)
	ListShopsByOwner(ctx context.Context, ownerID string) ([]catalog.Shop, error)
}

type CatalogClient struct {
	BaseURL string
	Client  *http.Client
	cb      *gobreaker.CircuitBreaker[[]byte]
}

func NewCatalogClient(baseURL string, timeout time.Duration, log *zap.Logger) *CatalogClient {
	if u, err := url.Parse(baseURL); err == nil && u.Scheme != "" && u.Host != "" {
		baseURL = strings.TrimRight(baseURL, "/")
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "catalog",
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrCatalogNotFound) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &CatalogClient{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: timeout},
		cb:      cb,
	}
}

func (c *CatalogClient) GetShop(ctx context.Context, id string) (catalog.Shop, error) {
	var out struct {
		Shop catalog.Shop `json:"shop"`
	}
	if err := c.get(ctx, "/shops/"+url.PathEscape(id), &out); err != nil {
		return catalog.Shop{}, err
	}
	return out.Shop, nil
}

func (c *CatalogClient) GetProduct(ctx context.Context, id string) (catalog.Product, error) {
	var out struct {
		Product catalog.Product `json:"product"`
	}
	if err := c.get(ctx, "/products/"+url.PathEscape(id), &out); err != nil {
		return catalog.Product{}, err
	}
	return out.Product, nil
}

func (c *CatalogClient) ListShopsByOwner(ctx context.Context, ownerID string) ([]catalog.Shop, error) {
	var out struct {
		Shops []catalog.Shop `json:"shops"`
	}
	if err := c.get(ctx, "/shops?ownerId="+url.QueryEscape(ownerID), &out); err != nil {
		return nil, err
	}
	return out.Shops, nil
}

func (c *CatalogClient) get(ctx context.Context, path string, dst any) error {
	body, err := c.cb.Execute(func() ([]byte, error) {
		return c.fetch(ctx, path)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrCatalogBadStatus, err)
	}
	return nil
}

func (c *CatalogClient) fetch(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return io.ReadAll(resp.Body)
	case http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, ErrCatalogNotFound
	default:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: status=%d", ErrCatalogBadStatus, resp.StatusCode)
	}
}
