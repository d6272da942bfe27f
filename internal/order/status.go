package order

import (
	"errors"
	"fmt"

	"ApniDukan/pkg/kit"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

var (
	ErrUnknownStatus     = errors.New("unknown order status")
	ErrNotShopkeeper     = errors.New("only shopkeepers can change order status")
	ErrNotShopOwner      = errors.New("order belongs to another shop")
	ErrIllegalTransition = errors.New("illegal status transition")
)

var lifecycle = []Status{StatusPending, StatusConfirmed, StatusPreparing, StatusReady, StatusDelivered}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if st == StatusCancelled {
		return st, nil
	}
	for _, known := range lifecycle {
		if st == known {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

// NextStatus returns the forward successor of s, false for terminal or unknown states.
func NextStatus(s Status) (Status, bool) {
	for i := 0; i < len(lifecycle)-1; i++ {
		if lifecycle[i] == s {
			return lifecycle[i+1], true
		}
	}
	return "", false
}

func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

func (s Status) Cancellable() bool {
	return s == StatusPending
}

// Actor is the caller attempting a transition. ShopIDs lists the shops the caller owns.
type Actor struct {
	UserID  string
	Role    string
	ShopIDs []string
}

func (a Actor) Owns(shopID string) bool {
	for _, id := range a.ShopIDs {
		if id == shopID {
			return true
		}
	}
	return false
}

func CanTransition(a Actor, o Order, target Status) error {
	if _, err := ParseStatus(string(target)); err != nil {
		return err
	}
	if a.Role != kit.RoleShopkeeper {
		return ErrNotShopkeeper
	}
	if !a.Owns(o.ShopID) {
		return ErrNotShopOwner
	}

	if target == StatusCancelled {
		if o.Status.Cancellable() {
			return nil
		}
		return fmt.Errorf("%w: cannot cancel a %s order", ErrIllegalTransition, o.Status)
	}

	next, ok := NextStatus(o.Status)
	if !ok || next != target {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, o.Status, target)
	}
	return nil
}
