package order

import (
	"context"
	"errors"
	"time"
)

var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrStatusConflict = errors.New("order status changed concurrently")
)

const DefaultPaymentMethod = "cod"

// Item prices are in paise.
type Item struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	Quantity    int    `json:"quantity"`
	Price       int64  `json:"price"`
}

type Customer struct {
	Name    string `json:"customerName"`
	Email   string `json:"customerEmail"`
	Phone   string `json:"customerPhone"`
	Address string `json:"customerAddress"`
	City    string `json:"customerCity"`
	Pincode string `json:"customerPincode"`
}

type Order struct {
	ID         string `json:"id"`
	CustomerID string `json:"customerId"`
	Customer
	ShopID        string    `json:"shopId"`
	ShopName      string    `json:"shopName"`
	Items         []Item    `json:"items"`
	Total         int64     `json:"total"`
	Status        Status    `json:"status"`
	PaymentMethod string    `json:"paymentMethod"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type LineRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// CreateRequest is the body of POST /orders. Names and prices are resolved from the catalog.
type CreateRequest struct {
	ShopID string `json:"shopId"`
	Customer
	Items         []LineRequest `json:"items"`
	PaymentMethod string        `json:"paymentMethod,omitempty"`
}

type StatusRequest struct {
	Status Status `json:"status"`
}

// Filter selects orders placed by CustomerID or placed at any of ShopIDs.
// A zero Filter matches nothing.
type Filter struct {
	CustomerID string
	ShopIDs    []string
}

func (f Filter) empty() bool {
	return f.CustomerID == "" && len(f.ShopIDs) == 0
}

func (f Filter) match(o Order) bool {
	if f.CustomerID != "" && o.CustomerID == f.CustomerID {
		return true
	}
	for _, id := range f.ShopIDs {
		if o.ShopID == id {
			return true
		}
	}
	return false
}

type Store interface {
	Ping(ctx context.Context) error
	Create(ctx context.Context, o Order) error
	Get(ctx context.Context, id string) (Order, error)
	List(ctx context.Context, f Filter) ([]Order, error)
	// UpdateStatus moves the order from -> to only if its stored status is still from.
	UpdateStatus(ctx context.Context, id string, from, to Status, at time.Time) (Order, error)
}

func NewStore() Store {
	return NewMemStore()
}
