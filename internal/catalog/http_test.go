package catalog_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ApniDukan/internal/catalog"
	"ApniDukan/pkg/kit"
)

type caller struct {
	t   *testing.T
	url string
}

func newCatalogTS(t *testing.T) caller {
	t.Helper()

	s := &catalog.Server{Store: catalog.NewStore(), Log: zap.NewNop()}
	ts := httptest.NewServer(catalog.NewHandler(s, catalog.HTTPDeps{Log: zap.NewNop(), Service: "catalog"}))
	t.Cleanup(ts.Close)
	return caller{t: t, url: ts.URL}
}

func (c caller) do(method, path string, who *kit.Identity, body any) (int, map[string]any) {
	c.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, c.url+path, &buf)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if who != nil {
		req.Header.Set(kit.HeaderUserID, who.UserID)
		req.Header.Set(kit.HeaderUserRole, who.Role)
		req.Header.Set(kit.HeaderUserName, who.Name)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

var (
	ravi  = &kit.Identity{UserID: "u_ravi", Role: kit.RoleShopkeeper, Name: "Ravi"}
	meena = &kit.Identity{UserID: "u_meena", Role: kit.RoleShopkeeper, Name: "Meena"}
	asha  = &kit.Identity{UserID: "u_asha", Role: kit.RoleCustomer, Name: "Asha"}
)

func createShop(t *testing.T, c caller, who *kit.Identity) string {
	t.Helper()

	status, body := c.do(http.MethodPost, "/shops", who, map[string]any{
		"shopName": "Ravi Kirana",
		"category": "Grocery",
		"address":  "12 MG Road",
		"city":     "Pune",
		"phone":    "9876543210",
	})
	require.Equal(t, http.StatusCreated, status, body)
	return body["shop"].(map[string]any)["id"].(string)
}

func TestCreateShopDefaultsAndOwnership(t *testing.T) {
	c := newCatalogTS(t)

	status, body := c.do(http.MethodPost, "/shops", ravi, map[string]any{
		"shopName": "Ravi Kirana",
		"category": "Grocery",
		"address":  "12 MG Road",
		"city":     "Pune",
		"phone":    "9876543210",
	})
	require.Equal(t, http.StatusCreated, status, body)
	require.Equal(t, "Shop created successfully", body["message"])

	shop := body["shop"].(map[string]any)
	require.Equal(t, "u_ravi", shop["ownerId"])
	require.Equal(t, "Ravi", shop["ownerName"])
	require.Equal(t, "9:00 AM - 9:00 PM", shop["timings"])
	require.Equal(t, false, shop["isVerified"])

	status, body = c.do(http.MethodGet, "/shops?ownerId=u_ravi", nil, nil)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, body["shops"], 1)

	status, body = c.do(http.MethodGet, "/shops?ownerId=u_meena", nil, nil)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, body["shops"], 0)
}

func TestCreateShopRules(t *testing.T) {
	c := newCatalogTS(t)

	status, _ := c.do(http.MethodPost, "/shops", nil, map[string]any{"shopName": "x"})
	require.Equal(t, http.StatusUnauthorized, status)

	status, body := c.do(http.MethodPost, "/shops", asha, map[string]any{"shopName": "x"})
	require.Equal(t, http.StatusForbidden, status, body)

	status, body = c.do(http.MethodPost, "/shops", ravi, map[string]any{"shopName": "x"})
	require.Equal(t, http.StatusBadRequest, status)
	fields := body["errors"].([]any)
	require.Len(t, fields, 4)
	require.Equal(t, "category", fields[0].(map[string]any)["field"])
}

func TestUpdateAndDeleteShopOwnerOnly(t *testing.T) {
	c := newCatalogTS(t)
	id := createShop(t, c, ravi)

	status, _ := c.do(http.MethodPut, "/shops/"+id, meena, map[string]any{"city": "Mumbai"})
	require.Equal(t, http.StatusForbidden, status)

	status, body := c.do(http.MethodPut, "/shops/"+id, ravi, map[string]any{"city": "Mumbai"})
	require.Equal(t, http.StatusOK, status, body)
	require.Equal(t, "Mumbai", body["shop"].(map[string]any)["city"])
	require.Equal(t, "Ravi Kirana", body["shop"].(map[string]any)["shopName"])

	status, _ = c.do(http.MethodDelete, "/shops/"+id, meena, nil)
	require.Equal(t, http.StatusForbidden, status)

	status, _ = c.do(http.MethodDelete, "/shops/"+id, ravi, nil)
	require.Equal(t, http.StatusOK, status)

	status, body = c.do(http.MethodGet, "/shops/"+id, nil, nil)
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "Shop not found", body["message"])
}

func TestProductLifecycle(t *testing.T) {
	c := newCatalogTS(t)
	shopID := createShop(t, c, ravi)

	status, body := c.do(http.MethodPost, "/products", meena, map[string]any{
		"name": "Rice", "description": "5kg bag", "price": 45000, "category": "Grains", "shopId": shopID,
	})
	require.Equal(t, http.StatusForbidden, status, body)

	status, body = c.do(http.MethodPost, "/products", ravi, map[string]any{
		"name": "Rice", "description": "5kg bag", "price": 45000, "category": "Grains", "shopId": shopID,
	})
	require.Equal(t, http.StatusCreated, status, body)
	p := body["product"].(map[string]any)
	require.Equal(t, true, p["inStock"])
	require.Nil(t, p["stock"])
	require.NotEmpty(t, p["image"])
	id := p["id"].(string)

	status, body = c.do(http.MethodPut, "/products/"+id, ravi, map[string]any{"stock": 0})
	require.Equal(t, http.StatusOK, status, body)
	require.Equal(t, false, body["product"].(map[string]any)["inStock"])
	require.EqualValues(t, 45000, body["product"].(map[string]any)["price"])

	status, body = c.do(http.MethodGet, "/products?shopId="+shopID+"&category=Grains", nil, nil)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, body["products"], 1)

	status, body = c.do(http.MethodGet, "/products?category=Dairy", nil, nil)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, body["products"], 0)

	status, _ = c.do(http.MethodDelete, "/products/"+id, meena, nil)
	require.Equal(t, http.StatusForbidden, status)

	status, _ = c.do(http.MethodDelete, "/products/"+id, ravi, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = c.do(http.MethodGet, "/products/"+id, nil, nil)
	require.Equal(t, http.StatusNotFound, status)
}

func TestCreateProductValidation(t *testing.T) {
	c := newCatalogTS(t)

	status, body := c.do(http.MethodPost, "/products", ravi, map[string]any{
		"name": "Rice", "description": "bag", "price": -1, "category": "Grains", "shopId": "nope",
	})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "price", body["errors"].([]any)[0].(map[string]any)["field"])

	status, body = c.do(http.MethodPost, "/products", ravi, map[string]any{
		"name": "Rice", "description": "bag", "price": 100, "category": "Grains", "shopId": "nope",
	})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "shopId", body["errors"].([]any)[0].(map[string]any)["field"])
}
