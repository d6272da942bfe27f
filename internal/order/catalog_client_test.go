package order_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ApniDukan/internal/catalog"
	"ApniDukan/internal/order"
	"ApniDukan/pkg/kit"
)

func TestCatalogClientAgainstCatalogService(t *testing.T) {
	store := catalog.NewMemStore()
	ctx := context.Background()
	require.NoError(t, store.CreateShop(ctx, catalog.Shop{ID: "shop_1", ShopName: "Ravi Kirana", OwnerID: "u_ravi"}))
	require.NoError(t, store.CreateProduct(ctx, catalog.Product{ID: "p1", Name: "Rice", Price: 4000, ShopID: "shop_1"}))

	ts := httptest.NewServer(catalog.NewHandler(&catalog.Server{Store: store}, catalog.HTTPDeps{Service: "catalog"}))
	t.Cleanup(ts.Close)

	c := order.NewCatalogClient(ts.URL+"/", time.Second, zap.NewNop())

	sh, err := c.GetShop(ctx, "shop_1")
	require.NoError(t, err)
	require.Equal(t, "u_ravi", sh.OwnerID)

	p, err := c.GetProduct(ctx, "p1")
	require.NoError(t, err)
	require.EqualValues(t, 4000, p.Price)

	shops, err := c.ListShopsByOwner(ctx, "u_ravi")
	require.NoError(t, err)
	require.Len(t, shops, 1)

	_, err = c.GetProduct(ctx, "missing")
	require.ErrorIs(t, err, order.ErrCatalogNotFound)
}

func TestCatalogClientBreakerOpens(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		kit.WriteError(w, r, http.StatusInternalServerError, "boom", nil)
	}))
	t.Cleanup(ts.Close)

	c := order.NewCatalogClient(ts.URL, time.Second, zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := c.GetShop(ctx, "shop_1")
		require.ErrorIs(t, err, order.ErrCatalogBadStatus)
	}

	_, err := c.GetShop(ctx, "shop_1")
	require.ErrorIs(t, err, order.ErrCatalogUnavailable)
	require.EqualValues(t, 5, hits.Load())
}

func TestCatalogClientNotFoundKeepsBreakerClosed(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(ts.Close)

	c := order.NewCatalogClient(ts.URL, time.Second, zap.NewNop())
	for i := 0; i < 10; i++ {
		_, err := c.GetProduct(context.Background(), "p1")
		require.ErrorIs(t, err, order.ErrCatalogNotFound)
	}
}
