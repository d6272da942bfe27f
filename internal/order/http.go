package order

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"ApniDukan/pkg/kit"
)

type Server struct {
	Store   Store
	Catalog Catalog
	Events  Publisher
	Log     *zap.Logger
	Now     func() time.Time
}

func (s *Server) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

var (
	errTotalOverflow   = errors.New("total overflow")
	errForbiddenCreate = errors.New("only customers can place orders")
)

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	u, _ := kit.IdentityFromContext(r.Context())
	if u.Role != kit.RoleCustomer {
		s.writeError(w, r, errForbiddenCreate)
		return
	}

	var req CreateRequest
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	if fields := validateCreate(req); len(fields) > 0 {
		kit.WriteValidation(w, r, fields)
		return
	}

	o, fields, err := s.buildOrder(r.Context(), u, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(fields) > 0 {
		kit.WriteValidation(w, r, fields)
		return
	}

	if err := s.Store.Create(r.Context(), o); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.Log.Info("order placed",
		zap.String("order_id", o.ID),
		zap.String("shop_id", o.ShopID),
		zap.Int64("total", o.Total))
	s.publish(r.Context(), Event{
		Type:       EventCreated,
		OrderID:    o.ID,
		ShopID:     o.ShopID,
		CustomerID: o.CustomerID,
		Status:     o.Status,
		Total:      o.Total,
		At:         o.CreatedAt,
	})

	kit.WriteJSON(w, http.StatusCreated, map[string]any{"message": "Order placed successfully", "order": o})
}

func validateCreate(req CreateRequest) []kit.FieldError {
	var c kit.Checks
	c.Required("shopId", req.ShopID, "Shop ID is required")
	c.Required("customerName", req.Name, "Name is required")
	c.Email("customerEmail", req.Email)
	c.Required("customerPhone", req.Phone, "Phone is required")
	c.Required("customerAddress", req.Address, "Address is required")
	c.Required("customerCity", req.City, "City is required")
	c.Required("customerPincode", req.Pincode, "Pincode is required")
	c.Check(len(req.Items) > 0, "items", "Order must contain at least one item")

	for i, it := range req.Items {
		prefix := fmt.Sprintf("items[%d].", i)
		c.Required(prefix+"productId", it.ProductID, "Product ID is required")
		c.Check(it.Quantity >= 1, prefix+"quantity", "Quantity must be at least 1")
	}
	return c.Errors()
}

// buildOrder resolves names and prices from the catalog. Field errors describe
// references the catalog rejects; err is reserved for upstream failures.
func (s *Server) buildOrder(ctx context.Context, u kit.Identity, req CreateRequest) (Order, []kit.FieldError, error) {
	shopID := strings.TrimSpace(req.ShopID)
	shop, err := s.Catalog.GetShop(ctx, shopID)
	if errors.Is(err, ErrCatalogNotFound) {
		return Order{}, []kit.FieldError{{Field: "shopId", Message: "Shop not found"}}, nil
	}
	if err != nil {
		return Order{}, nil, err
	}

	var (
		c     kit.Checks
		seen  = make(map[string]struct{}, len(req.Items))
		items = make([]Item, 0, len(req.Items))
		total int64
	)
	for i, it := range req.Items {
		field := fmt.Sprintf("items[%d].productId", i)
		pid := strings.TrimSpace(it.ProductID)
		if _, dup := seen[pid]; dup {
			c.Add(field, "Duplicate product in order")
			continue
		}
		seen[pid] = struct{}{}

		p, err := s.Catalog.GetProduct(ctx, pid)
		if errors.Is(err, ErrCatalogNotFound) {
			c.Add(field, "Product not found")
			continue
		}
		if err != nil {
			return Order{}, nil, err
		}
		if p.ShopID != shop.ID {
			c.Add(field, "Product does not belong to this shop")
			continue
		}

		line := p.Price * int64(it.Quantity)
		if p.Price != 0 && line/p.Price != int64(it.Quantity) || line < 0 || total > math.MaxInt64-line {
			return Order{}, nil, errTotalOverflow
		}
		total += line
		items = append(items, Item{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    it.Quantity,
			Price:       p.Price,
		})
	}
	if c.Failed() {
		return Order{}, c.Errors(), nil
	}

	payment := strings.TrimSpace(req.PaymentMethod)
	if payment == "" {
		payment = DefaultPaymentMethod
	}

	now := s.now()
	cust := req.Customer
	cust.Email = strings.ToLower(strings.TrimSpace(cust.Email))

	return Order{
		ID:            "ord_" + uuid.NewString(),
		CustomerID:    u.UserID,
		Customer:      cust,
		ShopID:        shop.ID,
		ShopName:      shop.ShopName,
		Items:         items,
		Total:         total,
		Status:        StatusPending,
		PaymentMethod: payment,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil, nil
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	u, _ := kit.IdentityFromContext(r.Context())

	f := Filter{}
	switch u.Role {
	case kit.RoleShopkeeper:
		ids, err := s.ownedShopIDs(r.Context(), u.UserID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		f.ShopIDs = ids
	default:
		f.CustomerID = u.UserID
	}

	orders, err := s.Store.List(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	u, _ := kit.IdentityFromContext(r.Context())

	o, err := s.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	allowed := o.CustomerID == u.UserID
	if !allowed && u.Role == kit.RoleShopkeeper {
		a, err := s.actor(r.Context(), u, o)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		allowed = a.Owns(o.ShopID)
	}
	if !allowed {
		kit.WriteError(w, r, http.StatusForbidden, "Not authorized to view this order", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, map[string]any{"order": o})
}

func (s *Server) updateStatus(w http.ResponseWriter, r *http.Request) {
	u, _ := kit.IdentityFromContext(r.Context())

	var req StatusRequest
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	o, err := s.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	a, err := s.actor(r.Context(), u, o)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := CanTransition(a, o, req.Status); err != nil {
		s.writeError(w, r, err)
		return
	}

	updated, err := s.Store.UpdateStatus(r.Context(), o.ID, o.Status, req.Status, s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.Log.Info("order status changed",
		zap.String("order_id", o.ID),
		zap.String("from", string(o.Status)),
		zap.String("to", string(updated.Status)))
	s.publish(r.Context(), Event{
		Type:       EventStatusChanged,
		OrderID:    updated.ID,
		ShopID:     updated.ShopID,
		CustomerID: updated.CustomerID,
		Status:     updated.Status,
		Previous:   o.Status,
		Total:      updated.Total,
		At:         updated.UpdatedAt,
	})

	kit.WriteJSON(w, http.StatusOK, map[string]any{"message": "Order status updated successfully", "order": updated})
}

// actor resolves whether the caller owns the order's shop.
func (s *Server) actor(ctx context.Context, u kit.Identity, o Order) (Actor, error) {
	a := Actor{UserID: u.UserID, Role: u.Role}
	if u.Role != kit.RoleShopkeeper {
		return a, nil
	}

	shop, err := s.Catalog.GetShop(ctx, o.ShopID)
	switch {
	case errors.Is(err, ErrCatalogNotFound):
		return a, nil
	case err != nil:
		return Actor{}, err
	}
	if shop.OwnerID == u.UserID {
		a.ShopIDs = []string{shop.ID}
	}
	return a, nil
}

func (s *Server) ownedShopIDs(ctx context.Context, userID string) ([]string, error) {
	shops, err := s.Catalog.ListShopsByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(shops))
	for _, sh := range shops {
		ids = append(ids, sh.ID)
	}
	return ids, nil
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errForbiddenCreate):
		kit.WriteError(w, r, http.StatusForbidden, "Only customers can place orders", nil)
	case errors.Is(err, errTotalOverflow):
		kit.WriteError(w, r, http.StatusBadRequest, "total overflow", nil)
	case errors.Is(err, ErrOrderNotFound):
		kit.WriteError(w, r, http.StatusNotFound, "Order not found", nil)
	case errors.Is(err, ErrUnknownStatus):
		kit.WriteValidation(w, r, []kit.FieldError{{Field: "status", Message: "Invalid status"}})
	case errors.Is(err, ErrNotShopkeeper):
		kit.WriteError(w, r, http.StatusForbidden, "Only shopkeepers can update order status", nil)
	case errors.Is(err, ErrNotShopOwner):
		kit.WriteError(w, r, http.StatusForbidden, "Not authorized to update this order", nil)
	case errors.Is(err, ErrIllegalTransition):
		kit.WriteError(w, r, http.StatusBadRequest, "Invalid status transition", map[string]any{"cause": err.Error()})
	case errors.Is(err, ErrStatusConflict):
		kit.WriteError(w, r, http.StatusConflict, "Order status changed, reload and retry", nil)
	case errors.Is(err, ErrCatalogUnavailable):
		kit.WriteError(w, r, http.StatusServiceUnavailable, "catalog unavailable", nil)
	case errors.Is(err, ErrCatalogBadStatus):
		s.Log.Warn("catalog error", zap.Error(err))
		kit.WriteError(w, r, http.StatusBadGateway, "catalog error", nil)
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		kit.WriteError(w, r, http.StatusGatewayTimeout, "timeout", nil)
	default:
		s.Log.Error("order request failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}
