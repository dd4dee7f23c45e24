package orders

import "fmt"

var statusRank = map[Status]int{
	StatusPending:   0,
	StatusConfirmed: 1,
	StatusShipped:   2,
	StatusDelivered: 3,
	StatusCompleted: 4,
}

var paymentRank = map[PaymentStatus]int{
	PaymentUnpaid:   0,
	PaymentPaid:     1,
	PaymentRefunded: 2,
}

var shippingRank = map[ShippingStatus]int{
	ShippingPending:   0,
	ShippingShipped:   1,
	ShippingDelivered: 2,
}

func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok || s == StatusCancelled
}

// Terminal reports whether no transition out of s is permitted.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Cancellable reports whether an order in s may be cancelled.
func (s Status) Cancellable() bool {
	return s == StatusPending || s == StatusConfirmed
}

func (p PaymentStatus) Valid() bool {
	_, ok := paymentRank[p]
	return ok
}

func (s ShippingStatus) Valid() bool {
	_, ok := shippingRank[s]
	return ok
}

// CanTransition reports whether status may move from -> to.
// Staying in a non-terminal status is allowed so sub-statuses can change.
func CanTransition(from, to Status) bool {
	if from.Terminal() || !to.Valid() {
		return false
	}
	if to == StatusCancelled {
		return from.Cancellable()
	}
	return statusRank[to] >= statusRank[from]
}

func applyCancel(o *Order) error {
	if !o.Status.Cancellable() {
		return fmt.Errorf("%w: cannot cancel order %s in status %s", ErrInvalidTransition, o.ID, o.Status)
	}
	o.Status = StatusCancelled
	return nil
}

func applyUpdate(o *Order, u StatusUpdate) error {
	target := u.Status
	if target == "" {
		target = o.Status
	}
	if !CanTransition(o.Status, target) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, target)
	}

	payment := o.PaymentStatus
	if u.PaymentStatus != nil {
		if !canPay(payment, *u.PaymentStatus) {
			return fmt.Errorf("%w: payment %s -> %s", ErrInvalidTransition, payment, *u.PaymentStatus)
		}
		payment = *u.PaymentStatus
	}

	shipping := o.ShippingStatus
	implied, hasImplied := impliedShipping(target)
	if u.ShippingStatus != nil {
		next := *u.ShippingStatus
		if !next.Valid() || shippingRank[next] < shippingRank[shipping] {
			return fmt.Errorf("%w: shipping %s -> %s", ErrInvalidTransition, shipping, next)
		}
		if hasImplied && shippingRank[next] < shippingRank[implied] {
			return fmt.Errorf("%w: shipping %s is behind status %s", ErrInvalidTransition, next, target)
		}
		shipping = next
	} else if hasImplied && shippingRank[implied] > shippingRank[shipping] {
		shipping = implied
	}

	o.Status = target
	o.PaymentStatus = payment
	o.ShippingStatus = shipping
	return nil
}

// canPay allows staying put or moving one step: UNPAID -> PAID -> REFUNDED.
func canPay(from, to PaymentStatus) bool {
	if !to.Valid() {
		return false
	}
	return to == from || paymentRank[to] == paymentRank[from]+1
}

func impliedShipping(s Status) (ShippingStatus, bool) {
	switch s {
	case StatusShipped:
		return ShippingShipped, true
	case StatusDelivered, StatusCompleted:
		return ShippingDelivered, true
	}
	return "", false
}
