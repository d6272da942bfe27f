package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"ApniDukan/internal/catalog"
)

type ShopInput struct {
	ShopName    *string `json:"shopName,omitempty"`
	Category    *string `json:"category,omitempty"`
	Address     *string `json:"address,omitempty"`
	City        *string `json:"city,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	Timings     *string `json:"timings,omitempty"`
	Description *string `json:"description,omitempty"`
	Logo        *string `json:"logo,omitempty"`
}

// ListShops returns every shop. With useCache false the list is always refetched.
func (c *Client) ListShops(ctx context.Context, useCache bool) ([]catalog.Shop, error) {
	req := request{method: http.MethodGet, path: "/shops"}
	if !useCache {
		c.Invalidate("shops:all")
	}
	out, err := decode[struct {
		Shops []catalog.Shop `json:"shops"`
	}](c.read(ctx, "shops:all", TTLShops, req))
	return out.Shops, err
}

// ListShopsByOwner is uncached so a shopkeeper always sees their own latest shops.
func (c *Client) ListShopsByOwner(ctx context.Context, ownerID string) ([]catalog.Shop, error) {
	out, err := decode[struct {
		Shops []catalog.Shop `json:"shops"`
	}](c.uncached(ctx, request{
		method: http.MethodGet,
		path:   "/shops",
		query:  url.Values{"ownerId": {ownerID}},
	}))
	return out.Shops, err
}

func (c *Client) GetShop(ctx context.Context, id string) (catalog.Shop, error) {
	out, err := decode[struct {
		Shop catalog.Shop `json:"shop"`
	}](c.read(ctx, "shops:"+id, TTLShop, request{method: http.MethodGet, path: "/shops/" + url.PathEscape(id)}))
	return out.Shop, err
}

// SearchShops filters shops by name, category, city or address, case-insensitively.
// A nil list is fetched through the cache first. An empty query returns the list unchanged.
func (c *Client) SearchShops(ctx context.Context, query string, shops []catalog.Shop) ([]catalog.Shop, error) {
	if shops == nil {
		var err error
		if shops, err = c.ListShops(ctx, true); err != nil {
			return nil, err
		}
	}
	return FilterShops(shops, query), nil
}

func FilterShops(shops []catalog.Shop, query string) []catalog.Shop {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return shops
	}

	out := make([]catalog.Shop, 0, len(shops))
	for _, s := range shops {
		for _, field := range []string{s.ShopName, s.Category, s.City, s.Address} {
			if strings.Contains(strings.ToLower(field), q) {
				out = append(out, s)
				break
			}
		}
	}
	return out
}

func (c *Client) CreateShop(ctx context.Context, in ShopInput) (catalog.Shop, error) {
	out, err := decode[struct {
		Shop catalog.Shop `json:"shop"`
	}](c.write(ctx, request{method: http.MethodPost, path: "/shops", body: in, auth: true}, FamilyShops))
	return out.Shop, err
}

func (c *Client) UpdateShop(ctx context.Context, id string, in ShopInput) (catalog.Shop, error) {
	out, err := decode[struct {
		Shop catalog.Shop `json:"shop"`
	}](c.write(ctx, request{
		method: http.MethodPut,
		path:   "/shops/" + url.PathEscape(id),
		body:   in,
		auth:   true,
	}, FamilyShops))
	return out.Shop, err
}

func (c *Client) DeleteShop(ctx context.Context, id string) error {
	_, err := c.write(ctx, request{
		method: http.MethodDelete,
		path:   "/shops/" + url.PathEscape(id),
		auth:   true,
	}, FamilyShops, FamilyProducts)
	return err
}
