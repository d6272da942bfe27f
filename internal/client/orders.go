package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"ApniDukan/internal/order"
)

type ordersBody struct {
	Orders []order.Order `json:"orders"`
}

// ListOrders returns the caller's orders: their own as a customer, their shops' as a shopkeeper.
func (c *Client) ListOrders(ctx context.Context) ([]order.Order, error) {
	out, err := decode[ordersBody](c.read(ctx, "orders:all", TTLOrders, request{
		method: http.MethodGet,
		path:   "/orders",
		auth:   true,
	}))
	return out.Orders, err
}

// ListShopOrders narrows the order list to one shop and caches the result separately.
func (c *Client) ListShopOrders(ctx context.Context, shopID string) ([]order.Order, error) {
	req := request{method: http.MethodGet, path: "/orders", auth: true}

	out, err := decode[ordersBody](c.cached(ctx, "orders:shop:"+shopID, TTLOrders, true, func(ctx context.Context) ([]byte, error) {
		all, err := decode[ordersBody](c.exchange(ctx, req))
		if err != nil {
			return nil, err
		}
		mine := ordersBody{Orders: make([]order.Order, 0, len(all.Orders))}
		for _, o := range all.Orders {
			if o.ShopID == shopID {
				mine.Orders = append(mine.Orders, o)
			}
		}
		return json.Marshal(mine)
	}))
	return out.Orders, err
}

// GetOrder always asks the server; order status changes too often to cache.
func (c *Client) GetOrder(ctx context.Context, id string) (order.Order, error) {
	out, err := decode[struct {
		Order order.Order `json:"order"`
	}](c.uncached(ctx, request{method: http.MethodGet, path: "/orders/" + url.PathEscape(id), auth: true}))
	return out.Order, err
}

func (c *Client) CreateOrder(ctx context.Context, in order.CreateRequest) (order.Order, error) {
	out, err := decode[struct {
		Order order.Order `json:"order"`
	}](c.write(ctx, request{method: http.MethodPost, path: "/orders", body: in, auth: true}, FamilyOrders))
	return out.Order, err
}

func (c *Client) UpdateOrderStatus(ctx context.Context, id string, status order.Status) (order.Order, error) {
	out, err := decode[struct {
		Order order.Order `json:"order"`
	}](c.write(ctx, request{
		method: http.MethodPut,
		path:   "/orders/" + url.PathEscape(id) + "/status",
		body:   order.StatusRequest{Status: status},
		auth:   true,
	}, FamilyOrders))
	return out.Order, err
}
