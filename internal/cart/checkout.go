package cart

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"ApniDukan/internal/order"
)

var (
	ErrEmpty      = errors.New("cart is empty")
	ErrMixedShops = errors.New("cart holds items from more than one shop")
)

type Customer = order.Customer

type FieldError struct {
	Field   string
	Message string
}

// InvalidCustomerError lists every problem with the checkout form.
type InvalidCustomerError struct {
	Fields []FieldError
}

func (e *InvalidCustomerError) Error() string {
	if len(e.Fields) == 0 {
		return "invalid customer details"
	}
	return "invalid customer details: " + e.Fields[0].Message
}

func ValidateCustomer(c Customer) error {
	var fields []FieldError
	add := func(field, msg string) { fields = append(fields, FieldError{Field: field, Message: msg}) }

	if strings.TrimSpace(c.Name) == "" {
		add("customerName", "Name is required")
	}
	email := strings.TrimSpace(c.Email)
	at := strings.Index(email, "@")
	if at < 1 || !strings.Contains(email[at+1:], ".") || strings.ContainsAny(email, " \t") {
		add("customerEmail", "Please enter a valid email address")
	}
	digits := 0
	for _, r := range c.Phone {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	if digits < 10 {
		add("customerPhone", "Please enter a valid phone number")
	}
	if strings.TrimSpace(c.Address) == "" {
		add("customerAddress", "Address is required")
	}
	if strings.TrimSpace(c.City) == "" {
		add("customerCity", "City is required")
	}
	if strings.TrimSpace(c.Pincode) == "" {
		add("customerPincode", "Pincode is required")
	}

	if len(fields) > 0 {
		return &InvalidCustomerError{Fields: fields}
	}
	return nil
}

// OrderPlacer sends an order to the server. *client.Client satisfies it.
type OrderPlacer interface {
	CreateOrder(ctx context.Context, in order.CreateRequest) (order.Order, error)
}

// Request builds the order body for the current cart without touching it.
func (s *Store) Request(c Customer, paymentMethod string) (order.CreateRequest, error) {
	items := s.Items()
	if len(items) == 0 {
		return order.CreateRequest{}, ErrEmpty
	}

	shopID := items[0].ShopID
	lines := make([]order.LineRequest, 0, len(items))
	for _, it := range items {
		if it.ShopID != shopID {
			return order.CreateRequest{}, ErrMixedShops
		}
		lines = append(lines, order.LineRequest{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	if paymentMethod == "" {
		paymentMethod = order.DefaultPaymentMethod
	}
	return order.CreateRequest{
		ShopID:        shopID,
		Customer:      c,
		Items:         lines,
		PaymentMethod: paymentMethod,
	}, nil
}

// Checkout validates the form locally, places one order and empties the cart
// only once the server has accepted it.
func (s *Store) Checkout(ctx context.Context, placer OrderPlacer, c Customer, paymentMethod string) (order.Order, error) {
	if err := ValidateCustomer(c); err != nil {
		return order.Order{}, err
	}
	req, err := s.Request(c, paymentMethod)
	if err != nil {
		return order.Order{}, err
	}

	o, err := placer.CreateOrder(ctx, req)
	if err != nil {
		return order.Order{}, err
	}

	s.Clear()
	s.log.Info("order placed from cart", zap.String("order_id", o.ID), zap.Int64("total", o.Total))
	return o, nil
}
