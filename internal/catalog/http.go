package catalog

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"ApniDukan/pkg/kit"
)

type Server struct {
	Store Store
	Log   *zap.Logger
}

func (s *Server) routes(r chi.Router) {
	r.Get("/readyz", kit.Readyz(s.Log, s.Store.Ping))

	r.Get("/shops", s.listShops)
	r.Get("/shops/{id}", s.getShop)
	r.Get("/products", s.listProducts)
	r.Get("/products/{id}", s.getProduct)

	r.Group(func(pr chi.Router) {
		pr.Use(kit.RequireUserHeaders)

		pr.Post("/shops", s.createShop)
		pr.Put("/shops/{id}", s.updateShop)
		pr.Delete("/shops/{id}", s.deleteShop)

		pr.Post("/products", s.createProduct)
		pr.Put("/products/{id}", s.updateProduct)
		pr.Delete("/products/{id}", s.deleteProduct)
	})
}

type shopReq struct {
	ShopName    *string `json:"shopName"`
	Category    *string `json:"category"`
	Address     *string `json:"address"`
	City        *string `json:"city"`
	Phone       *string `json:"phone"`
	Timings     *string `json:"timings"`
	Description *string `json:"description"`
	Logo        *string `json:"logo"`
}

func (s *Server) listShops(w http.ResponseWriter, r *http.Request) {
	shops, err := s.Store.ListShops(r.Context(), ShopFilter{OwnerID: r.URL.Query().Get("ownerId")})
	if err != nil {
		s.serverError(w, r, "list shops failed", err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, map[string]any{"shops": shops})
}

func (s *Server) getShop(w http.ResponseWriter, r *http.Request) {
	sh, ok := s.loadShop(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	kit.WriteJSON(w, http.StatusOK, map[string]any{"shop": sh})
}

func (s *Server) createShop(w http.ResponseWriter, r *http.Request) {
	id, _ := kit.IdentityFromContext(r.Context())
	if id.Role != kit.RoleShopkeeper {
		kit.WriteError(w, r, http.StatusForbidden, "Only shopkeepers can create shops", nil)
		return
	}

	var req shopReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	var c kit.Checks
	c.Required("shopName", deref(req.ShopName), "Shop name is required")
	c.Required("category", deref(req.Category), "Category is required")
	c.Required("address", deref(req.Address), "Address is required")
	c.Required("city", deref(req.City), "City is required")
	c.Required("phone", deref(req.Phone), "Phone is required")
	if c.Failed() {
		kit.WriteValidation(w, r, c.Errors())
		return
	}

	now := time.Now().UTC()
	sh := Shop{
		ID:          "shop_" + uuid.NewString(),
		OwnerName:   id.Name,
		OwnerID:     id.UserID,
		Timings:     defaultTimings,
		Description: "",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	req.apply(&sh)

	if err := s.Store.CreateShop(r.Context(), sh); err != nil {
		s.serverError(w, r, "create shop failed", err)
		return
	}
	kit.WriteJSON(w, http.StatusCreated, map[string]any{"message": "Shop created successfully", "shop": sh})
}

func (s *Server) updateShop(w http.ResponseWriter, r *http.Request) {
	sh, ok := s.loadOwnedShop(w, r, chi.URLParam(r, "id"), "Not authorized to update this shop")
	if !ok {
		return
	}

	var req shopReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	var c kit.Checks
	if req.ShopName != nil {
		c.Required("shopName", *req.ShopName, "Shop name cannot be empty")
	}
	if req.Category != nil {
		c.Required("category", *req.Category, "Category cannot be empty")
	}
	if c.Failed() {
		kit.WriteValidation(w, r, c.Errors())
		return
	}

	req.apply(&sh)
	sh.UpdatedAt = time.Now().UTC()

	if err := s.Store.UpdateShop(r.Context(), sh); err != nil {
		s.writeStoreError(w, r, "update shop failed", err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, map[string]any{"message": "Shop updated successfully", "shop": sh})
}

func (s *Server) deleteShop(w http.ResponseWriter, r *http.Request) {
	sh, ok := s.loadOwnedShop(w, r, chi.URLParam(r, "id"), "Not authorized to delete this shop")
	if !ok {
		return
	}

	if err := s.Store.DeleteShop(r.Context(), sh.ID); err != nil {
		s.writeStoreError(w, r, "delete shop failed", err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, kit.Message{Message: "Shop deleted successfully"})
}

func (req shopReq) apply(sh *Shop) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	set(&sh.ShopName, req.ShopName)
	set(&sh.Category, req.Category)
	set(&sh.Address, req.Address)
	set(&sh.City, req.City)
	set(&sh.Phone, req.Phone)
	set(&sh.Description, req.Description)
	if req.Timings != nil && strings.TrimSpace(*req.Timings) != "" {
		sh.Timings = strings.TrimSpace(*req.Timings)
	}
	if req.Logo != nil {
		logo := strings.TrimSpace(*req.Logo)
		sh.Logo = &logo
		if logo == "" {
			sh.Logo = nil
		}
	}
}

type productReq struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Price       *int64  `json:"price"`
	Category    *string `json:"category"`
	ShopID      *string `json:"shopId"`
	Image       *string `json:"image"`
	Stock       *int    `json:"stock"`
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	products, err := s.Store.ListProducts(r.Context(), ProductFilter{
		ShopID:   q.Get("shopId"),
		Category: q.Get("category"),
	})
	if err != nil {
		s.serverError(w, r, "list products failed", err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, map[string]any{"products": products})
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := s.Store.GetProduct(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, r, "get product failed", err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, map[string]any{"product": p})
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	id, _ := kit.IdentityFromContext(r.Context())
	if id.Role != kit.RoleShopkeeper {
		kit.WriteError(w, r, http.StatusForbidden, "Only shopkeepers can create products", nil)
		return
	}

	var req productReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	var c kit.Checks
	c.Required("name", deref(req.Name), "Product name is required")
	c.Required("description", deref(req.Description), "Description is required")
	c.Check(req.Price != nil && *req.Price >= 0, "price", "Price must be a positive number")
	c.Required("category", deref(req.Category), "Category is required")
	c.Required("shopId", deref(req.ShopID), "Shop ID is required")
	c.Check(req.Stock == nil || *req.Stock >= 0, "stock", "Stock cannot be negative")
	if c.Failed() {
		kit.WriteValidation(w, r, c.Errors())
		return
	}

	sh, err := s.Store.GetShop(r.Context(), strings.TrimSpace(*req.ShopID))
	if errors.Is(err, ErrShopNotFound) {
		kit.WriteValidation(w, r, []kit.FieldError{{Field: "shopId", Message: "Shop not found"}})
		return
	}
	if err != nil {
		s.serverError(w, r, "load shop failed", err)
		return
	}
	if sh.OwnerID != id.UserID {
		kit.WriteError(w, r, http.StatusForbidden, "Not authorized to add products to this shop", nil)
		return
	}

	now := time.Now().UTC()
	p := Product{
		ID:        "prod_" + uuid.NewString(),
		ShopID:    sh.ID,
		Image:     defaultProductImage,
		CreatedAt: now,
		UpdatedAt: now,
	}
	req.apply(&p)

	if err := s.Store.CreateProduct(r.Context(), p); err != nil {
		s.serverError(w, r, "create product failed", err)
		return
	}
	kit.WriteJSON(w, http.StatusCreated, map[string]any{"message": "Product created successfully", "product": p})
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadOwnedProduct(w, r)
	if !ok {
		return
	}

	var req productReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	var c kit.Checks
	if req.Name != nil {
		c.Required("name", *req.Name, "Product name cannot be empty")
	}
	c.Check(req.Price == nil || *req.Price >= 0, "price", "Price must be a positive number")
	c.Check(req.Stock == nil || *req.Stock >= 0, "stock", "Stock cannot be negative")
	c.Check(req.ShopID == nil || *req.ShopID == p.ShopID, "shopId", "Products cannot move between shops")
	if c.Failed() {
		kit.WriteValidation(w, r, c.Errors())
		return
	}

	req.apply(&p)
	p.UpdatedAt = time.Now().UTC()

	if err := s.Store.UpdateProduct(r.Context(), p); err != nil {
		s.writeStoreError(w, r, "update product failed", err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, map[string]any{"message": "Product updated successfully", "product": p})
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadOwnedProduct(w, r)
	if !ok {
		return
	}

	if err := s.Store.DeleteProduct(r.Context(), p.ID); err != nil {
		s.writeStoreError(w, r, "delete product failed", err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, kit.Message{Message: "Product deleted successfully"})
}

func (req productReq) apply(p *Product) {
	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		p.Description = strings.TrimSpace(*req.Description)
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.Category != nil {
		p.Category = strings.TrimSpace(*req.Category)
	}
	if req.Image != nil && strings.TrimSpace(*req.Image) != "" {
		p.Image = strings.TrimSpace(*req.Image)
	}
	if req.Stock != nil {
		p.SetStock(req.Stock)
	} else if p.Stock == nil {
		p.SetStock(nil)
	}
}

func (s *Server) loadShop(w http.ResponseWriter, r *http.Request, id string) (Shop, bool) {
	sh, err := s.Store.GetShop(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, r, "get shop failed", err)
		return Shop{}, false
	}
	return sh, true
}

func (s *Server) loadOwnedShop(w http.ResponseWriter, r *http.Request, shopID, denied string) (Shop, bool) {
	sh, ok := s.loadShop(w, r, shopID)
	if !ok {
		return Shop{}, false
	}

	id, _ := kit.IdentityFromContext(r.Context())
	if sh.OwnerID != id.UserID {
		kit.WriteError(w, r, http.StatusForbidden, denied, nil)
		return Shop{}, false
	}
	return sh, true
}

func (s *Server) loadOwnedProduct(w http.ResponseWriter, r *http.Request) (Product, bool) {
	id, _ := kit.IdentityFromContext(r.Context())
	if id.Role != kit.RoleShopkeeper {
		kit.WriteError(w, r, http.StatusForbidden, "Not authorized", nil)
		return Product{}, false
	}

	p, err := s.Store.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeStoreError(w, r, "get product failed", err)
		return Product{}, false
	}

	if _, ok := s.loadOwnedShop(w, r, p.ShopID, "Not authorized"); !ok {
		return Product{}, false
	}
	return p, true
}

func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	switch {
	case errors.Is(err, ErrShopNotFound):
		kit.WriteError(w, r, http.StatusNotFound, "Shop not found", nil)
	case errors.Is(err, ErrProductNotFound):
		kit.WriteError(w, r, http.StatusNotFound, "Product not found", nil)
	default:
		s.serverError(w, r, msg, err)
	}
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	s.Log.Error(msg, zap.Error(err))
	kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
