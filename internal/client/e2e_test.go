package client_test

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ApniDukan/internal/auth"
	"ApniDukan/internal/catalog"
	"ApniDukan/internal/client"
	"ApniDukan/internal/gateway"
	"ApniDukan/internal/order"
	"ApniDukan/internal/upload"
	"ApniDukan/pkg/kit"
)

const e2eSecret = "e2e-secret-e2e-secret-e2e-secret"

func newGateway(t *testing.T) string {
	t.Helper()

	authTS := httptest.NewServer(auth.NewHandler(&auth.Server{
		Store: auth.NewStore(),
		JWT:   auth.NewTokenMaker(e2eSecret),
	}, auth.HTTPDeps{Log: zap.NewNop(), Service: "auth"}))
	t.Cleanup(authTS.Close)

	catalogTS := httptest.NewServer(catalog.NewHandler(&catalog.Server{Store: catalog.NewStore()},
		catalog.HTTPDeps{Service: "catalog"}))
	t.Cleanup(catalogTS.Close)

	orderTS := httptest.NewServer(order.NewHandler(&order.Server{
		Store:   order.NewStore(),
		Catalog: order.NewCatalogClient(catalogTS.URL, time.Second, nil),
	}, order.HTTPDeps{Service: "order"}))
	t.Cleanup(orderTS.Close)

	uploadTS := httptest.NewServer(upload.NewHandler(&upload.Server{Dir: t.TempDir()},
		upload.HTTPDeps{Service: "upload"}))
	t.Cleanup(uploadTS.Close)

	h, err := gateway.NewHandler(gateway.Deps{
		AuthURL:    authTS.URL,
		CatalogURL: catalogTS.URL,
		OrderURL:   orderTS.URL,
		UploadURL:  uploadTS.URL,
		JWTSecret:  e2eSecret,
	}, gateway.HTTPDeps{Service: "gateway"})
	require.NoError(t, err)

	gw := httptest.NewServer(h)
	t.Cleanup(gw.Close)
	return gw.URL
}

func ptr[T any](v T) *T { return &v }

func TestEndToEndShopToDelivery(t *testing.T) {
	base := newGateway(t)
	ctx := context.Background()

	keeper := client.New(base, nil)
	_, err := keeper.Register(ctx, client.RegisterInput{
		Name: "Ravi", Email: "ravi@example.com", Password: "secret1", Role: kit.RoleShopkeeper,
	})
	require.NoError(t, err)

	me, err := keeper.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, kit.RoleShopkeeper, me.Role)

	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)
	logo, err := keeper.UploadFile(ctx, "logo.png", bytes.NewReader(png))
	require.NoError(t, err)
	require.Contains(t, logo.URL, base+"/uploads/")

	shop, err := keeper.CreateShop(ctx, client.ShopInput{
		ShopName: ptr("Ravi Kirana"),
		Category: ptr("Grocery"),
		Address:  ptr("12 MG Road"),
		City:     ptr("Pune"),
		Phone:    ptr("9876543210"),
		Logo:     ptr(logo.URL),
	})
	require.NoError(t, err)

	rice, err := keeper.CreateProduct(ctx, client.ProductInput{
		Name: ptr("Rice"), Description: ptr("5kg"), Price: ptr(int64(4000)),
		Category: ptr("Grains"), ShopID: ptr(shop.ID),
	})
	require.NoError(t, err)
	dal, err := keeper.CreateProduct(ctx, client.ProductInput{
		Name: ptr("Dal"), Description: ptr("1kg"), Price: ptr(int64(35000)),
		Category: ptr("Pulses"), ShopID: ptr(shop.ID), Stock: ptr(0),
	})
	require.NoError(t, err)
	require.False(t, dal.InStock)

	shopper := client.New(base, nil)
	_, err = shopper.Register(ctx, client.RegisterInput{
		Name: "Asha", Email: "asha@example.com", Password: "secret1",
	})
	require.NoError(t, err)

	found, err := shopper.SearchShops(ctx, "pune", nil)
	require.NoError(t, err)
	require.Len(t, found, 1)

	products, err := shopper.ListProducts(ctx, client.ProductFilter{ShopID: shop.ID})
	require.NoError(t, err)
	require.Len(t, products, 2)

	placed, err := shopper.CreateOrder(ctx, order.CreateRequest{
		ShopID: shop.ID,
		Customer: order.Customer{
			Name: "Asha", Email: "asha@example.com", Phone: "9876543210",
			Address: "4 Park Street", City: "Pune", Pincode: "411001",
		},
		Items: []order.LineRequest{
			{ProductID: rice.ID, Quantity: 2},
			{ProductID: dal.ID, Quantity: 1},
		},
	})
	require.NoError(t, err)
	require.EqualValues(t, 43000, placed.Total)
	require.Equal(t, order.StatusPending, placed.Status)

	_, err = shopper.UpdateOrderStatus(ctx, placed.ID, order.StatusConfirmed)
	require.True(t, client.IsStatus(err, 403), err)

	board := client.NewOrderBoard(keeper, shop.ID)
	require.NoError(t, board.Load(ctx))
	require.Len(t, board.Orders(), 1)

	for _, want := range []order.Status{order.StatusConfirmed, order.StatusPreparing, order.StatusReady, order.StatusDelivered} {
		o, err := board.Advance(ctx, placed.ID)
		require.NoError(t, err)
		require.Equal(t, want, o.Status)
	}

	got, err := shopper.GetOrder(ctx, placed.ID)
	require.NoError(t, err)
	require.Equal(t, order.StatusDelivered, got.Status)

	require.NoError(t, shopper.Logout(ctx))
	_, err = shopper.ListOrders(ctx)
	require.ErrorIs(t, err, client.ErrAuthRequired)
}

func TestEndToEndAccountAndCatalogUpkeep(t *testing.T) {
	base := newGateway(t)
	ctx := context.Background()

	keeper := client.New(base, nil)
	_, err := keeper.Register(ctx, client.RegisterInput{
		Name: "Meena", Email: "meena@example.com", Password: "secret1", Role: kit.RoleShopkeeper,
	})
	require.NoError(t, err)

	u, err := keeper.UpdateProfile(ctx, client.ProfileInput{Name: ptr("Meena Gupta")})
	require.NoError(t, err)
	require.Equal(t, "Meena Gupta", u.Name)

	err = keeper.ChangePassword(ctx, "wrong1", "secret2")
	require.Equal(t, client.KindValidation, client.Classify(err))
	require.NoError(t, keeper.ChangePassword(ctx, "secret1", "secret2"))

	shop, err := keeper.CreateShop(ctx, client.ShopInput{
		ShopName: ptr("Gupta Stores"), Category: ptr("General"), Address: ptr("3 Station Road"),
		City: ptr("Nagpur"), Phone: ptr("9000000001"),
	})
	require.NoError(t, err)

	shop, err = keeper.UpdateShop(ctx, shop.ID, client.ShopInput{Timings: ptr("8:00 AM - 10:00 PM")})
	require.NoError(t, err)
	require.Equal(t, "8:00 AM - 10:00 PM", shop.Timings)

	soap, err := keeper.CreateProduct(ctx, client.ProductInput{
		Name: ptr("Soap"), Description: ptr("Neem"), Price: ptr(int64(3000)),
		Category: ptr("Personal care"), ShopID: ptr(shop.ID),
	})
	require.NoError(t, err)

	cached, err := keeper.GetProduct(ctx, soap.ID)
	require.NoError(t, err)
	require.EqualValues(t, 3000, cached.Price)

	_, err = keeper.UpdateProduct(ctx, soap.ID, client.ProductInput{Price: ptr(int64(3500))})
	require.NoError(t, err)
	fresh, err := keeper.GetProduct(ctx, soap.ID)
	require.NoError(t, err)
	require.EqualValues(t, 3500, fresh.Price)

	require.NoError(t, keeper.DeleteProduct(ctx, soap.ID))
	_, err = keeper.GetProduct(ctx, soap.ID)
	require.True(t, client.IsStatus(err, 404), err)

	mine, err := keeper.ListShopsByOwner(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	require.NoError(t, keeper.DeleteShop(ctx, shop.ID))
	_, err = keeper.GetShop(ctx, shop.ID)
	require.True(t, client.IsStatus(err, 404), err)

	all, err := keeper.ListShops(ctx, false)
	require.NoError(t, err)
	require.Empty(t, all)
}
