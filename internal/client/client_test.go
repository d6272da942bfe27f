package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ApniDukan/internal/catalog"
	"ApniDukan/internal/client"
	"ApniDukan/internal/order"
	"ApniDukan/pkg/kit"
)

type fakeAPI struct {
	*httptest.Server
	R *chi.Mux

	mu      sync.Mutex
	hits    map[string]int
	headers http.Header
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()

	f := &fakeAPI{R: chi.NewRouter(), hits: map[string]int{}}
	f.R.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			f.mu.Lock()
			f.hits[r.Method+" "+r.URL.Path]++
			f.headers = r.Header.Clone()
			f.mu.Unlock()
			next.ServeHTTP(w, r)
		})
	})
	f.Server = httptest.NewServer(f.R)
	t.Cleanup(f.Close)
	return f
}

func (f *fakeAPI) Hits(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[key]
}

func (f *fakeAPI) LastHeader(name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.headers.Get(name)
}

func shopsHandler(shops ...catalog.Shop) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if shops == nil {
			shops = []catalog.Shop{}
		}
		kit.WriteJSON(w, http.StatusOK, map[string]any{"shops": shops})
	}
}

func signedIn(t *testing.T) *client.MemTokens {
	t.Helper()
	tokens := &client.MemTokens{}
	require.NoError(t, tokens.SetToken("tok-123"))
	return tokens
}

func TestListShopsCachedForSixtySeconds(t *testing.T) {
	api := newFakeAPI(t)
	api.R.Get("/shops", shopsHandler(catalog.Shop{ID: "shop_1", ShopName: "Ravi Kirana"}))

	clk := newFakeClock()
	c := client.New(api.URL, nil, client.WithClock(clk.Now))
	ctx := context.Background()

	shops, err := c.ListShops(ctx, true)
	require.NoError(t, err)
	require.Len(t, shops, 1)
	require.Equal(t, 1, api.Hits("GET /shops"))

	clk.Advance(59999 * time.Millisecond)
	_, err = c.ListShops(ctx, true)
	require.NoError(t, err)
	require.Equal(t, 1, api.Hits("GET /shops"))

	clk.Advance(2 * time.Millisecond)
	_, err = c.ListShops(ctx, true)
	require.NoError(t, err)
	require.Equal(t, 2, api.Hits("GET /shops"))

	_, err = c.ListShops(ctx, false)
	require.NoError(t, err)
	require.Equal(t, 3, api.Hits("GET /shops"))
}

func TestConcurrentReadsShareOneRequest(t *testing.T) {
	api := newFakeAPI(t)
	release := make(chan struct{})
	api.R.Get("/shops/{id}", func(w http.ResponseWriter, r *http.Request) {
		<-release
		kit.WriteJSON(w, http.StatusOK, map[string]any{"shop": catalog.Shop{ID: chi.URLParam(r, "id")}})
	})

	c := client.New(api.URL, nil)

	var wg sync.WaitGroup
	got := make([]catalog.Shop, 2)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sh, err := c.GetShop(context.Background(), "shop_1")
			assert.NoError(t, err)
			got[i] = sh
		}(i)
	}

	require.Eventually(t, func() bool { return api.Hits("GET /shops/shop_1") == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	require.Equal(t, 1, api.Hits("GET /shops/shop_1"))
	require.Equal(t, got[0], got[1])
	require.Equal(t, "shop_1", got[0].ID)
}

func TestProductWriteInvalidatesProductFamily(t *testing.T) {
	api := newFakeAPI(t)
	api.R.Get("/shops", shopsHandler())
	api.R.Get("/products", func(w http.ResponseWriter, r *http.Request) {
		kit.WriteJSON(w, http.StatusOK, map[string]any{"products": []catalog.Product{}})
	})
	api.R.Post("/products", func(w http.ResponseWriter, r *http.Request) {
		kit.WriteJSON(w, http.StatusCreated, map[string]any{"product": catalog.Product{ID: "prod_1"}})
	})

	c := client.New(api.URL, signedIn(t))
	ctx := context.Background()

	_, err := c.ListShops(ctx, true)
	require.NoError(t, err)
	_, err = c.ListProducts(ctx, client.ProductFilter{ShopID: "shop_1"})
	require.NoError(t, err)
	_, err = c.ListProducts(ctx, client.ProductFilter{})
	require.NoError(t, err)
	require.Equal(t, 2, api.Hits("GET /products"))

	name := "Rice"
	p, err := c.CreateProduct(ctx, client.ProductInput{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "prod_1", p.ID)

	_, ok := c.Cache().Get("products:shop:shop_1")
	require.False(t, ok)
	_, ok = c.Cache().Get("products:all")
	require.False(t, ok)
	_, ok = c.Cache().Get("shops:all")
	require.True(t, ok)

	_, err = c.ListProducts(ctx, client.ProductFilter{ShopID: "shop_1"})
	require.NoError(t, err)
	require.Equal(t, 3, api.Hits("GET /products"))
}

func TestReadInFlightDuringWriteIsNotCached(t *testing.T) {
	api := newFakeAPI(t)

	var (
		mu       sync.Mutex
		products []catalog.Product
		first    = true
		release  = make(chan struct{})
	)
	api.R.Get("/products", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		snapshot := append([]catalog.Product{}, products...)
		block := first
		first = false
		mu.Unlock()
		if block {
			<-release
		}
		kit.WriteJSON(w, http.StatusOK, map[string]any{"products": snapshot})
	})
	api.R.Post("/products", func(w http.ResponseWriter, r *http.Request) {
		p := catalog.Product{ID: "prod_1", Name: "Rice"}
		mu.Lock()
		products = append(products, p)
		mu.Unlock()
		kit.WriteJSON(w, http.StatusCreated, map[string]any{"product": p})
	})

	c := client.New(api.URL, signedIn(t))
	ctx := context.Background()

	done := make(chan []catalog.Product, 1)
	go func() {
		list, err := c.ListProducts(ctx, client.ProductFilter{})
		assert.NoError(t, err)
		done <- list
	}()
	require.Eventually(t, func() bool { return api.Hits("GET /products") == 1 }, time.Second, time.Millisecond)

	name := "Rice"
	_, err := c.CreateProduct(ctx, client.ProductInput{Name: &name})
	require.NoError(t, err)

	close(release)
	require.Empty(t, <-done)

	list, err := c.ListProducts(ctx, client.ProductFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, 2, api.Hits("GET /products"))
}

func TestReadAfterWriteDoesNotJoinOlderCall(t *testing.T) {
	api := newFakeAPI(t)

	var (
		mu      sync.Mutex
		calls   int
		release = make(chan struct{})
	)
	api.R.Get("/shops", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			<-release
			shopsHandler()(w, r)
			return
		}
		shopsHandler(catalog.Shop{ID: "shop_1"})(w, r)
	})

	c := client.New(api.URL, nil)
	ctx := context.Background()

	stale := make(chan []catalog.Shop, 1)
	go func() {
		list, err := c.ListShops(ctx, true)
		assert.NoError(t, err)
		stale <- list
	}()
	require.Eventually(t, func() bool { return api.Hits("GET /shops") == 1 }, time.Second, time.Millisecond)

	fresh, err := c.ListShops(ctx, false)
	require.NoError(t, err)
	require.Len(t, fresh, 1)

	close(release)
	require.Empty(t, <-stale)

	cached, err := c.ListShops(ctx, true)
	require.NoError(t, err)
	require.Len(t, cached, 1)
	require.Equal(t, 2, api.Hits("GET /shops"))
}

func TestAuthRequiredFailsLocally(t *testing.T) {
	api := newFakeAPI(t)
	c := client.New(api.URL, nil)
	ctx := context.Background()

	_, err := c.ListOrders(ctx)
	require.ErrorIs(t, err, client.ErrAuthRequired)
	require.Equal(t, client.KindLocal, client.Classify(err))

	_, err = c.CreateOrder(ctx, order.CreateRequest{ShopID: "shop_1"})
	require.ErrorIs(t, err, client.ErrAuthRequired)

	_, err = c.UploadFile(ctx, "a.png", strings.NewReader("x"))
	require.ErrorIs(t, err, client.ErrAuthRequired)

	require.Zero(t, api.Hits("GET /orders"))
	require.Zero(t, api.Hits("POST /orders"))
	require.Zero(t, api.Hits("POST /upload"))
}

func TestRequestsCarryHeaders(t *testing.T) {
	api := newFakeAPI(t)
	api.R.Get("/orders", func(w http.ResponseWriter, r *http.Request) {
		kit.WriteJSON(w, http.StatusOK, map[string]any{"orders": []order.Order{}})
	})
	api.R.Get("/shops", shopsHandler())

	tokens := signedIn(t)
	c := client.New(api.URL, tokens)

	_, err := c.ListOrders(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Bearer tok-123", api.LastHeader("Authorization"))
	require.Equal(t, "application/json", api.LastHeader("Content-Type"))

	require.NoError(t, tokens.ClearToken())
	_, err = c.ListShops(context.Background(), false)
	require.NoError(t, err)
	require.Empty(t, api.LastHeader("Authorization"))
}

func TestConnectionError(t *testing.T) {
	api := newFakeAPI(t)
	base := api.URL
	api.Close()

	c := client.New(base, nil)
	_, err := c.ListShops(context.Background(), true)

	require.ErrorIs(t, err, client.ErrUnreachable)
	require.Equal(t, client.KindConnection, client.Classify(err))

	var ce *client.ConnectionError
	require.ErrorAs(t, err, &ce)
	require.Equal(t, base, ce.Endpoint)
	require.Contains(t, err.Error(), base)
	require.Contains(t, err.Error(), "server may be down")
}

func TestServerErrorFallbackMessage(t *testing.T) {
	api := newFakeAPI(t)
	api.R.Get("/shops", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "<html>oops</html>", http.StatusBadGateway)
	})
	api.R.Get("/products", func(w http.ResponseWriter, r *http.Request) {
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	})

	c := client.New(api.URL, nil)

	_, err := c.ListShops(context.Background(), true)
	var se *client.ServerError
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusBadGateway, se.Status)
	require.Equal(t, "An error occurred", se.Message)
	require.Equal(t, client.KindServer, client.Classify(err))

	_, err = c.ListProducts(context.Background(), client.ProductFilter{})
	require.ErrorAs(t, err, &se)
	require.Equal(t, "server error", se.Message)

	_, ok := c.Cache().Get("shops:all")
	require.False(t, ok, "failures are not cached")
}

func TestValidationErrorFields(t *testing.T) {
	api := newFakeAPI(t)
	api.R.Post("/shops", func(w http.ResponseWriter, r *http.Request) {
		kit.WriteValidation(w, r, []kit.FieldError{
			{Field: "shopName", Message: "Shop name is required"},
			{Field: "phone", Message: "Phone is required"},
		})
	})

	c := client.New(api.URL, signedIn(t))
	_, err := c.CreateShop(context.Background(), client.ShopInput{})

	var ve *client.ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, http.StatusBadRequest, ve.Status)
	require.Equal(t, client.KindValidation, client.Classify(err))
	require.Equal(t, map[string]string{
		"shopName": "Shop name is required",
		"phone":    "Phone is required",
	}, client.FieldMessages(err))
	require.Equal(t, []string{"phone", "shopName"}, client.Fields(err))
	require.True(t, client.IsStatus(err, http.StatusBadRequest))
}

func TestCancellationReleasesQueueSlot(t *testing.T) {
	api := newFakeAPI(t)
	api.R.Get("/shops/{id}", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "id") == "slow" {
			<-r.Context().Done()
			return
		}
		kit.WriteJSON(w, http.StatusOK, map[string]any{"shop": catalog.Shop{ID: "fast"}})
	})

	c := client.New(api.URL, nil, client.WithMaxConcurrent(1))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.GetShop(ctx, "slow")
		done <- err
	}()
	require.Eventually(t, func() bool { return api.Hits("GET /shops/slow") == 1 }, time.Second, time.Millisecond)
	cancel()

	err := <-done
	require.ErrorIs(t, err, client.ErrCancelled)
	require.Equal(t, client.KindCancelled, client.Classify(err))

	ctx2, cancel2 := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel2()
	sh, err := c.GetShop(ctx2, "fast")
	require.NoError(t, err)
	require.Equal(t, "fast", sh.ID)
}

func TestLogoutClearsTokenWhenServerFails(t *testing.T) {
	api := newFakeAPI(t)
	api.R.Post("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	})

	c := client.New(api.URL, signedIn(t))
	require.True(t, c.SignedIn())

	require.NoError(t, c.Logout(context.Background()))
	require.False(t, c.SignedIn())
	require.Equal(t, 1, api.Hits("POST /auth/logout"))
}

func TestLoginStoresToken(t *testing.T) {
	api := newFakeAPI(t)
	api.R.Post("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret1" {
			kit.WriteError(w, r, http.StatusUnauthorized, "Invalid credentials", nil)
			return
		}
		kit.WriteJSON(w, http.StatusOK, map[string]any{
			"token": "tok-abc",
			"user":  map[string]any{"id": "u_1", "email": body["email"], "role": "customer"},
		})
	})

	tokens := &client.MemTokens{}
	c := client.New(api.URL, tokens)

	_, err := c.Login(context.Background(), "asha@example.com", "wrong")
	require.True(t, client.IsStatus(err, http.StatusUnauthorized))
	require.False(t, c.SignedIn())

	s, err := c.Login(context.Background(), "asha@example.com", "secret1")
	require.NoError(t, err)
	require.Equal(t, "u_1", s.User.ID)
	tok, _ := tokens.Token()
	require.Equal(t, "tok-abc", tok)
}

func TestUploadReturnsAbsoluteURL(t *testing.T) {
	api := newFakeAPI(t)
	api.R.Post("/upload", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		fhs := r.MultipartForm.File["file"]
		if len(fhs) != 1 || fhs[0].Filename != "logo.png" {
			kit.WriteError(w, r, http.StatusBadRequest, "No file uploaded", nil)
			return
		}
		kit.WriteJSON(w, http.StatusOK, map[string]any{"url": "/uploads/abc.png", "filename": "abc.png"})
	})
	api.R.Post("/upload/multiple", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		files := []map[string]string{}
		for i := range r.MultipartForm.File["files"] {
			name := []string{"a.png", "b.png"}[i]
			files = append(files, map[string]string{"url": "/uploads/" + name, "filename": name})
		}
		kit.WriteJSON(w, http.StatusOK, map[string]any{"files": files})
	})

	c := client.New(api.URL+"/", signedIn(t))

	f, err := c.UploadFile(context.Background(), "logo.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	require.Equal(t, api.URL+"/uploads/abc.png", f.URL)
	require.True(t, strings.HasPrefix(api.LastHeader("Content-Type"), "multipart/form-data"))

	files, err := c.UploadFiles(context.Background(), []client.UploadSource{
		{Name: "a.png", Data: strings.NewReader("a")},
		{Name: "b.png", Data: strings.NewReader("b")},
	})
	require.NoError(t, err)
	require.Len(t, files, 2)
	require.Equal(t, api.URL+"/uploads/b.png", files[1].URL)
}

func TestListShopOrdersFiltersAndCaches(t *testing.T) {
	api := newFakeAPI(t)
	api.R.Get("/orders", func(w http.ResponseWriter, r *http.Request) {
		kit.WriteJSON(w, http.StatusOK, map[string]any{"orders": []order.Order{
			{ID: "ord_1", ShopID: "shop_1", Status: order.StatusPending},
			{ID: "ord_2", ShopID: "shop_2", Status: order.StatusPending},
			{ID: "ord_3", ShopID: "shop_1", Status: order.StatusReady},
		}})
	})
	api.R.Put("/orders/{id}/status", func(w http.ResponseWriter, r *http.Request) {
		kit.WriteJSON(w, http.StatusOK, map[string]any{"order": order.Order{ID: chi.URLParam(r, "id")}})
	})

	c := client.New(api.URL, signedIn(t))
	ctx := context.Background()

	got, err := c.ListShopOrders(ctx, "shop_1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "ord_3", got[1].ID)

	_, err = c.ListShopOrders(ctx, "shop_1")
	require.NoError(t, err)
	require.Equal(t, 1, api.Hits("GET /orders"))

	_, err = c.UpdateOrderStatus(ctx, "ord_1", order.StatusConfirmed)
	require.NoError(t, err)

	_, err = c.ListShopOrders(ctx, "shop_1")
	require.NoError(t, err)
	require.Equal(t, 2, api.Hits("GET /orders"))
}

func TestFilterShops(t *testing.T) {
	shops := []catalog.Shop{
		{ID: "1", ShopName: "Ravi Kirana", Category: "Grocery", City: "Pune", Address: "MG Road"},
		{ID: "2", ShopName: "Meena Dairy", Category: "Dairy", City: "Mumbai", Address: "Linking Road"},
		{ID: "3", ShopName: "Book Nook", Category: "Books", City: "Pune", Address: "FC Road"},
	}

	ids := func(in []catalog.Shop) []string {
		out := []string{}
		for _, s := range in {
			out = append(out, s.ID)
		}
		return out
	}

	require.Equal(t, []string{"1", "3"}, ids(client.FilterShops(shops, "pune")))
	require.Equal(t, []string{"2"}, ids(client.FilterShops(shops, "DAIRY")))
	require.Equal(t, []string{"2"}, ids(client.FilterShops(shops, "linking")))
	require.Equal(t, []string{"1", "2", "3"}, ids(client.FilterShops(shops, "  ")))
	require.Empty(t, client.FilterShops(shops, "pharmacy"))
}
