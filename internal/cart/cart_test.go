package cart_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ApniDukan/internal/cart"
	"ApniDukan/internal/localstore"
	"ApniDukan/internal/order"
)

func newStorage(t *testing.T) *localstore.Store {
	t.Helper()
	st, err := localstore.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

var (
	rice = cart.Item{ProductID: "p1", ProductName: "Rice 1kg", Price: 4000, ShopID: "shop_1", ShopName: "Sharma Kirana"}
	ghee = cart.Item{ProductID: "p2", ProductName: "Ghee 500g", Price: 35000, ShopID: "shop_1", ShopName: "Sharma Kirana"}
	soap = cart.Item{ProductID: "p9", ProductName: "Soap", Price: 3000, ShopID: "shop_2", ShopName: "Gupta Stores"}
)

func TestTotalsAndQuantityEdits(t *testing.T) {
	c := cart.New(newStorage(t), nil)

	first, err := c.Add(rice)
	require.NoError(t, err)
	c.Add(rice)
	c.Add(ghee)

	assert.Equal(t, int64(43000), c.Total())
	assert.Equal(t, 3, c.Count())
	assert.Len(t, c.Items(), 2)

	c.SetQuantity(first.ID, 0)
	assert.Equal(t, int64(35000), c.Total())
	assert.Equal(t, 1, c.Count())

	_, ok := c.Find("p1")
	assert.False(t, ok)
}

func TestAddMergesByProduct(t *testing.T) {
	c := cart.New(newStorage(t), nil)

	a, err := c.Add(rice)
	require.NoError(t, err)
	b, err := c.Add(rice)
	require.NoError(t, err)

	assert.Equal(t, a.ID, b.ID)
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, 1, a.Quantity)
	assert.Equal(t, 2, b.Quantity)
}

func TestSetQuantityAndRemove(t *testing.T) {
	c := cart.New(newStorage(t), nil)
	it, err := c.Add(ghee)
	require.NoError(t, err)

	c.SetQuantity(it.ID, 4)
	assert.Equal(t, 4, c.Count())

	c.SetQuantity("missing", 9)
	assert.Equal(t, 4, c.Count())

	c.Remove(it.ID)
	assert.Empty(t, c.Items())
	assert.Zero(t, c.Total())
}

func TestCartSurvivesRestart(t *testing.T) {
	dir := t.TempDir()

	st, err := localstore.Open(dir)
	require.NoError(t, err)
	c := cart.New(st, nil)
	c.Add(rice)
	c.Add(rice)
	c.Add(soap)
	require.NoError(t, st.Close())

	st, err = localstore.Open(dir)
	require.NoError(t, err)
	defer st.Close()

	again := cart.New(st, nil)
	assert.Equal(t, 3, again.Count())
	assert.Equal(t, int64(11000), again.Total())
}

func TestCorruptCartStartsEmpty(t *testing.T) {
	st := newStorage(t)
	require.NoError(t, st.Set(cart.StorageKey, "{not json"))

	c := cart.New(st, nil)
	assert.Empty(t, c.Items())

	c.Add(rice)
	raw, ok, err := st.Get(cart.StorageKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, raw, `"productId":"p1"`)
}

type failingStorage struct{}

func (failingStorage) Get(string) (string, bool, error) { return "", false, errors.New("disk gone") }
func (failingStorage) Set(string, string) error         { return errors.New("disk gone") }

func TestStorageFailuresKeepMemoryCart(t *testing.T) {
	c := cart.New(failingStorage{}, nil)
	c.Add(rice)
	assert.Equal(t, 1, c.Count())
}

func TestSnapshotRestore(t *testing.T) {
	c := cart.New(newStorage(t), nil)
	c.Add(rice)
	snap := c.Snapshot()

	c.Clear()
	assert.Zero(t, c.Count())

	c.Restore(snap)
	assert.Equal(t, 1, c.Count())
}

func TestAddRejectsInvalidItems(t *testing.T) {
	st := newStorage(t)
	c := cart.New(st, nil)
	c.Add(rice)

	_, err := c.Add(cart.Item{ProductID: "p1", Price: -500})
	assert.ErrorIs(t, err, cart.ErrInvalidItem)
	_, err = c.Add(cart.Item{ProductID: "", Price: 100})
	assert.ErrorIs(t, err, cart.ErrInvalidItem)

	assert.Len(t, c.Items(), 1)
	assert.Equal(t, 1, c.Count())
	assert.Equal(t, int64(4000), c.Total())

	again := cart.New(st, nil)
	assert.Equal(t, int64(4000), again.Total())
}

func TestRestoreSkipsInvalidItems(t *testing.T) {
	c := cart.New(newStorage(t), nil)

	c.Restore([]cart.Item{
		{ID: "a", ProductID: "p1", Price: 4000, Quantity: 2},
		{ID: "b", ProductID: "p2", Price: -1, Quantity: 1},
		{ID: "c", ProductID: "", Price: 100, Quantity: 1},
		{ID: "d", ProductID: "p3", Price: 100, Quantity: 0},
	})

	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "a", items[0].ID)
	assert.Equal(t, int64(8000), c.Total())
}

type placer struct {
	got order.CreateRequest
	err error
}

func (p *placer) CreateOrder(_ context.Context, in order.CreateRequest) (order.Order, error) {
	p.got = in
	if p.err != nil {
		return order.Order{}, p.err
	}
	return order.Order{ID: "ord_1", ShopID: in.ShopID, Total: 43000, Status: order.StatusPending}, nil
}

var asha = cart.Customer{
	Name:    "Asha",
	Email:   "asha@example.com",
	Phone:   "98765 43210",
	Address: "12 MG Road",
	City:    "Pune",
	Pincode: "411001",
}

func TestCheckoutPlacesOrderAndClears(t *testing.T) {
	c := cart.New(newStorage(t), nil)
	c.Add(rice)
	c.Add(rice)
	c.Add(ghee)

	p := &placer{}
	o, err := c.Checkout(context.Background(), p, asha, "")
	require.NoError(t, err)

	assert.Equal(t, "ord_1", o.ID)
	assert.Equal(t, "shop_1", p.got.ShopID)
	assert.Equal(t, order.DefaultPaymentMethod, p.got.PaymentMethod)
	assert.Equal(t, []order.LineRequest{{ProductID: "p1", Quantity: 2}, {ProductID: "p2", Quantity: 1}}, p.got.Items)
	assert.Equal(t, "Asha", p.got.Name)
	assert.Empty(t, c.Items())
}

func TestCheckoutFailureKeepsCart(t *testing.T) {
	c := cart.New(newStorage(t), nil)
	c.Add(rice)

	p := &placer{err: errors.New("server down")}
	_, err := c.Checkout(context.Background(), p, asha, "upi")
	require.Error(t, err)
	assert.Equal(t, "upi", p.got.PaymentMethod)
	assert.Equal(t, 1, c.Count())
}

func TestCheckoutRejections(t *testing.T) {
	p := &placer{}

	empty := cart.New(newStorage(t), nil)
	_, err := empty.Checkout(context.Background(), p, asha, "")
	assert.ErrorIs(t, err, cart.ErrEmpty)

	mixed := cart.New(newStorage(t), nil)
	mixed.Add(rice)
	mixed.Add(soap)
	_, err = mixed.Checkout(context.Background(), p, asha, "")
	assert.ErrorIs(t, err, cart.ErrMixedShops)
	assert.Equal(t, 2, mixed.Count())

	bad := asha
	bad.Phone = "12345"
	bad.Email = "asha"
	_, err = mixed.Checkout(context.Background(), p, bad, "")
	var invalid *cart.InvalidCustomerError
	require.ErrorAs(t, err, &invalid)
	require.Len(t, invalid.Fields, 2)
	assert.Equal(t, "customerEmail", invalid.Fields[0].Field)
	assert.Equal(t, "customerPhone", invalid.Fields[1].Field)
}
