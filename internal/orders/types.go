package orders

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("order not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrVersionConflict reports a lost compare-and-swap on an order's version.
	ErrVersionConflict = errors.New("order version conflict")
	ErrDuplicateOrder  = errors.New("order already exists")
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusShipped   Status = "SHIPPED"
	StatusDelivered Status = "DELIVERED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "UNPAID"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

type ShippingStatus string

const (
	ShippingPending   ShippingStatus = "PENDING"
	ShippingShipped   ShippingStatus = "SHIPPED"
	ShippingDelivered ShippingStatus = "DELIVERED"
)

// LineItem is immutable once attached to an order.
type LineItem struct {
	ProductID   string
	VariantID   string
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int
	LineTotal   decimal.Decimal
}

// Order is a customer's committed purchase.
// FinalTotal == Subtotal - DiscountAmount + ShippingFee + Tax, and FinalTotal >= 0.
type Order struct {
	ID             string
	OrderNumber    string
	CustomerID     string
	SellerID       string
	Status         Status
	PaymentStatus  PaymentStatus
	ShippingStatus ShippingStatus

	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	ShippingFee    decimal.Decimal
	Tax            decimal.Decimal
	FinalTotal     decimal.Decimal

	VoucherCode       string
	ShippingMethod    string
	PaymentMethod     string
	ShippingAddressID string
	Notes             string

	Items     []LineItem
	CreatedAt time.Time
	UpdatedAt time.Time

	// Version increments on every committed change.
	Version int64
	// Seq is the numeric part of OrderNumber and records insertion order.
	Seq int64
}

// NewOrder is the input to Service.Create.
type NewOrder struct {
	CustomerID        string
	SellerID          string
	Items             []LineItem
	VoucherCode       string
	ShippingMethod    string
	PaymentMethod     string
	ShippingAddressID string
	Notes             string
}

// StatusUpdate is an administrative transition. An empty Status keeps the
// current one. Nil sub-statuses are left unchanged, except that shipping
// follows status when it moves to SHIPPED, DELIVERED or COMPLETED.
type StatusUpdate struct {
	Status         Status
	PaymentStatus  *PaymentStatus
	ShippingStatus *ShippingStatus
}

type ChangeType string

const (
	ChangeCreated       ChangeType = "order.created"
	ChangeCancelled     ChangeType = "order.cancelled"
	ChangeStatusUpdated ChangeType = "order.status_updated"
)

// Change describes a committed order mutation.
type Change struct {
	Type       ChangeType
	Order      Order
	FromStatus Status
}
