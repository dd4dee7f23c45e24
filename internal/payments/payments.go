// Package payments takes customers' online payments and marks orders paid.
package payments

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound       = errors.New("payment not found")
	ErrMethodNotFound = errors.New("payment method not found")
	ErrNotPayable     = errors.New("order is not payable online")
	ErrMethodMismatch = errors.New("payment method does not match order")
	ErrAlreadyPaid    = errors.New("order already paid")
	ErrAlreadySettled = errors.New("payment already settled")
	ErrStatusConflict = errors.New("payment status changed")
	ErrDuplicate      = errors.New("payment already exists")
	ErrInvalidOutcome = errors.New("invalid payment outcome")
)

type Status string

const (
	StatusPending Status = "PENDING"
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

// MethodCOD is collected by the courier, never online.
const MethodCOD = "cod"

// Method is a way to pay. Redirect methods complete through a gateway
// callback; the others settle as soon as they are processed.
type Method struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Description      string `json:"description"`
	DisplayOrder     int    `json:"display_order"`
	RequiresRedirect bool   `json:"requires_redirect"`
}

func DefaultMethods() []Method {
	return []Method{
		{ID: MethodCOD, Name: "Cash on delivery", Description: "Pay the courier in cash", DisplayOrder: 1},
		{ID: "bank-transfer", Name: "Bank transfer", Description: "Transfer from your bank account", DisplayOrder: 2},
		{ID: "vnpay", Name: "VNPay", Description: "Pay with VNPay", DisplayOrder: 3, RequiresRedirect: true},
		{ID: "momo", Name: "MoMo", Description: "Pay with the MoMo wallet", DisplayOrder: 4, RequiresRedirect: true},
	}
}

func sortMethods(ms []Method) {
	sort.Slice(ms, func(i, j int) bool {
		if ms[i].DisplayOrder != ms[j].DisplayOrder {
			return ms[i].DisplayOrder < ms[j].DisplayOrder
		}
		return ms[i].ID < ms[j].ID
	})
}

// Payment is one attempt to pay an order. Amount is copied from the order's
// final total, never taken from the client.
type Payment struct {
	ID            string
	OrderID       string
	CustomerID    string
	MethodID      string
	Amount        decimal.Decimal
	Status        Status
	TransactionID string
	CreatedAt     time.Time
	CompletedAt   *time.Time
}

// Repository persists payments. Settle moves a payment out of from only if it
// is still in from, returning ErrStatusConflict otherwise.
type Repository interface {
	Create(ctx context.Context, p Payment) error
	Get(ctx context.Context, paymentID string) (*Payment, error)
	Settle(ctx context.Context, paymentID string, from, to Status, transactionID string, at time.Time) error
	ListByOrder(ctx context.Context, orderID string) ([]Payment, error)
}

// sortOldestFirst orders an order's payments by creation time.
func sortOldestFirst(list []Payment) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
}
