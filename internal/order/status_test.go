package order_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ApniDukan/internal/order"
	"ApniDukan/pkg/kit"
)

func TestNextStatus(t *testing.T) {
	cases := []struct {
		in   order.Status
		want order.Status
		ok   bool
	}{
		{order.StatusPending, order.StatusConfirmed, true},
		{order.StatusConfirmed, order.StatusPreparing, true},
		{order.StatusPreparing, order.StatusReady, true},
		{order.StatusReady, order.StatusDelivered, true},
		{order.StatusDelivered, "", false},
		{order.StatusCancelled, "", false},
		{"shipped", "", false},
	}
	for _, tc := range cases {
		got, ok := order.NextStatus(tc.in)
		require.Equal(t, tc.ok, ok, tc.in)
		require.Equal(t, tc.want, got, tc.in)
	}
}

func TestCanTransition(t *testing.T) {
	owner := order.Actor{UserID: "u_ravi", Role: kit.RoleShopkeeper, ShopIDs: []string{"shop_1"}}
	other := order.Actor{UserID: "u_meena", Role: kit.RoleShopkeeper, ShopIDs: []string{"shop_2"}}
	customer := order.Actor{UserID: "u_asha", Role: kit.RoleCustomer}

	at := func(s order.Status) order.Order {
		return order.Order{ID: "ord_1", ShopID: "shop_1", CustomerID: "u_asha", Status: s}
	}

	cases := []struct {
		name   string
		actor  order.Actor
		from   order.Status
		target order.Status
		want   error
	}{
		{"confirm", owner, order.StatusPending, order.StatusConfirmed, nil},
		{"cancel pending", owner, order.StatusPending, order.StatusCancelled, nil},
		{"skip ahead", owner, order.StatusPending, order.StatusReady, order.ErrIllegalTransition},
		{"backwards", owner, order.StatusPreparing, order.StatusConfirmed, order.ErrIllegalTransition},
		{"same state", owner, order.StatusReady, order.StatusReady, order.ErrIllegalTransition},
		{"cancel confirmed", owner, order.StatusConfirmed, order.StatusCancelled, order.ErrIllegalTransition},
		{"deliver", owner, order.StatusReady, order.StatusDelivered, nil},
		{"delivered frozen", owner, order.StatusDelivered, order.StatusCancelled, order.ErrIllegalTransition},
		{"cancelled frozen", owner, order.StatusCancelled, order.StatusPending, order.ErrIllegalTransition},
		{"unknown", owner, order.StatusPending, "shipped", order.ErrUnknownStatus},
		{"customer", customer, order.StatusPending, order.StatusCancelled, order.ErrNotShopkeeper},
		{"other shop", other, order.StatusPending, order.StatusConfirmed, order.ErrNotShopOwner},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o := at(tc.from)
			err := order.CanTransition(tc.actor, o, tc.target)
			if tc.want == nil {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, tc.want)
			}
			require.Equal(t, tc.from, o.Status)
		})
	}
}

func TestWalkFullLifecycle(t *testing.T) {
	owner := order.Actor{UserID: "u_ravi", Role: kit.RoleShopkeeper, ShopIDs: []string{"shop_1"}}
	o := order.Order{ShopID: "shop_1", Status: order.StatusPending}

	steps := 0
	for {
		next, ok := order.NextStatus(o.Status)
		if !ok {
			break
		}
		require.NoError(t, order.CanTransition(owner, o, next))
		o.Status = next
		steps++
	}
	require.Equal(t, 4, steps)
	require.Equal(t, order.StatusDelivered, o.Status)
	require.True(t, o.Status.Terminal())
}
