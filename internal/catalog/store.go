package catalog

import (
	"context"
	"errors"
	"time"
)

var (
	ErrShopNotFound    = errors.New("shop not found")
	ErrProductNotFound = errors.New("product not found")
)

const (
	defaultTimings      = "9:00 AM - 9:00 PM"
	defaultProductImage = "https://images.unsplash.com/photo-1441986300917-64674bd600d8?w=400&auto=format&fit=crop"
)

type Shop struct {
	ID          string    `json:"id"`
	ShopName    string    `json:"shopName"`
	OwnerName   string    `json:"ownerName"`
	OwnerID     string    `json:"ownerId"`
	Category    string    `json:"category"`
	Address     string    `json:"address"`
	City        string    `json:"city"`
	Phone       string    `json:"phone"`
	Timings     string    `json:"timings"`
	Description string    `json:"description"`
	Logo        *string   `json:"logo"`
	Rating      *float64  `json:"rating"`
	ReviewCount int       `json:"reviewCount"`
	IsVerified  bool      `json:"isVerified"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Product prices are in paise.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       int64     `json:"price"`
	Category    string    `json:"category"`
	ShopID      string    `json:"shopId"`
	Image       string    `json:"image"`
	InStock     bool      `json:"inStock"`
	Stock       *int      `json:"stock"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (p *Product) SetStock(stock *int) {
	p.Stock = stock
	p.InStock = stock == nil || *stock > 0
}

type ShopFilter struct {
	OwnerID string
}

type ProductFilter struct {
	ShopID   string
	Category string
}

type Store interface {
	Ping(ctx context.Context) error

	ListShops(ctx context.Context, f ShopFilter) ([]Shop, error)
	GetShop(ctx context.Context, id string) (Shop, error)
	CreateShop(ctx context.Context, s Shop) error
	UpdateShop(ctx context.Context, s Shop) error
	DeleteShop(ctx context.Context, id string) error

	ListProducts(ctx context.Context, f ProductFilter) ([]Product, error)
	GetProduct(ctx context.Context, id string) (Product, error)
	CreateProduct(ctx context.Context, p Product) error
	UpdateProduct(ctx context.Context, p Product) error
	DeleteProduct(ctx context.Context, id string) error
}

func NewStore() Store {
	return NewMemStore()
}
