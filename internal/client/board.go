package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"ApniDukan/internal/order"
)

var ErrOrderNotLoaded = errors.New("order not on board")

// OrderBoard is a shopkeeper's working view of incoming orders. Status changes
// show up immediately and are rolled back if the server rejects them.
type OrderBoard struct {
	c      *Client
	shopID string

	mu     sync.Mutex
	orders []order.Order
}

// NewOrderBoard watches one shop, or every order the caller may see when shopID is empty.
func NewOrderBoard(c *Client, shopID string) *OrderBoard {
	return &OrderBoard{c: c, shopID: shopID}
}

func (b *OrderBoard) Load(ctx context.Context) error {
	var (
		list []order.Order
		err  error
	)
	if b.shopID != "" {
		list, err = b.c.ListShopOrders(ctx, b.shopID)
	} else {
		list, err = b.c.ListOrders(ctx)
	}
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.orders = list
	b.mu.Unlock()
	return nil
}

func (b *OrderBoard) Orders() []order.Order {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]order.Order(nil), b.orders...)
}

type Actions struct {
	Next       order.Status
	CanAdvance bool
	CanCancel  bool
}

func (b *OrderBoard) Actions(id string) (Actions, error) {
	o, err := b.find(id)
	if err != nil {
		return Actions{}, err
	}
	next, ok := order.NextStatus(o.Status)
	return Actions{Next: next, CanAdvance: ok, CanCancel: o.Status.Cancellable()}, nil
}

func (b *OrderBoard) Advance(ctx context.Context, id string) (order.Order, error) {
	o, err := b.find(id)
	if err != nil {
		return order.Order{}, err
	}
	next, ok := order.NextStatus(o.Status)
	if !ok {
		return order.Order{}, fmt.Errorf("%w: %s is final", order.ErrIllegalTransition, o.Status)
	}
	return b.move(ctx, id, next)
}

func (b *OrderBoard) Cancel(ctx context.Context, id string) (order.Order, error) {
	o, err := b.find(id)
	if err != nil {
		return order.Order{}, err
	}
	if !o.Status.Cancellable() {
		return order.Order{}, fmt.Errorf("%w: cannot cancel a %s order", order.ErrIllegalTransition, o.Status)
	}
	return b.move(ctx, id, order.StatusCancelled)
}

func (b *OrderBoard) move(ctx context.Context, id string, to order.Status) (order.Order, error) {
	var updated order.Order

	snapshot := func() order.Status {
		o, _ := b.find(id)
		return o.Status
	}
	// Rollback touches only this order, and only while it still shows our change.
	restore := func(prev order.Status) {
		b.set(id, func(o *order.Order) {
			if o.Status == to {
				o.Status = prev
			}
		})
	}

	err := Optimistic(ctx, snapshot,
		func() { b.set(id, func(o *order.Order) { o.Status = to }) },
		restore,
		func(ctx context.Context) error {
			var err error
			updated, err = b.c.UpdateOrderStatus(ctx, id, to)
			return err
		},
	)
	if err != nil {
		b.c.log.Info("order status change rolled back",
			zap.String("order_id", id),
			zap.String("to", string(to)),
			zap.Error(err))
		return order.Order{}, err
	}

	b.set(id, func(o *order.Order) { *o = updated })
	return updated, nil
}

func (b *OrderBoard) find(id string) (order.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, o := range b.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return order.Order{}, fmt.Errorf("%w: %s", ErrOrderNotLoaded, id)
}

func (b *OrderBoard) set(id string, fn func(o *order.Order)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.orders {
		if b.orders[i].ID == id {
			fn(&b.orders[i])
			return
		}
	}
}
