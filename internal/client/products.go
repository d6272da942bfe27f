package client

import (
	"context"
	"net/http"
	"net/url"

	"ApniDukan/internal/catalog"
)

type ProductFilter struct {
	ShopID   string
	Category string
}

func (f ProductFilter) key() string {
	shop := "all"
	if f.ShopID != "" {
		shop = "shop:" + f.ShopID
	}
	if f.Category == "" {
		return "products:" + shop
	}
	return "products:" + shop + ":category:" + f.Category
}

func (f ProductFilter) query() url.Values {
	q := url.Values{}
	if f.ShopID != "" {
		q.Set("shopId", f.ShopID)
	}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	return q
}

type ProductInput struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Price       *int64  `json:"price,omitempty"`
	Category    *string `json:"category,omitempty"`
	ShopID      *string `json:"shopId,omitempty"`
	Image       *string `json:"image,omitempty"`
	Stock       *int    `json:"stock,omitempty"`
}

func (c *Client) ListProducts(ctx context.Context, f ProductFilter) ([]catalog.Product, error) {
	out, err := decode[struct {
		Products []catalog.Product `json:"products"`
	}](c.read(ctx, f.key(), TTLProducts, request{method: http.MethodGet, path: "/products", query: f.query()}))
	return out.Products, err
}

func (c *Client) GetProduct(ctx context.Context, id string) (catalog.Product, error) {
	out, err := decode[struct {
		Product catalog.Product `json:"product"`
	}](c.read(ctx, "products:"+id, TTLProduct, request{method: http.MethodGet, path: "/products/" + url.PathEscape(id)}))
	return out.Product, err
}

func (c *Client) CreateProduct(ctx context.Context, in ProductInput) (catalog.Product, error) {
	out, err := decode[struct {
		Product catalog.Product `json:"product"`
	}](c.write(ctx, request{method: http.MethodPost, path: "/products", body: in, auth: true}, FamilyProducts))
	return out.Product, err
}

func (c *Client) UpdateProduct(ctx context.Context, id string, in ProductInput) (catalog.Product, error) {
	out, err := decode[struct {
		Product catalog.Product `json:"product"`
	}](c.write(ctx, request{
		method: http.MethodPut,
		path:   "/products/" + url.PathEscape(id),
		body:   in,
		auth:   true,
	}, FamilyProducts))
	return out.Product, err
}

func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	_, err := c.write(ctx, request{
		method: http.MethodDelete,
		path:   "/products/" + url.PathEscape(id),
		auth:   true,
	}, FamilyProducts)
	return err
}
