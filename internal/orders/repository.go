package orders

import (
	"context"
	"sort"
)

// Repository persists orders. Get returns (nil, nil) when the order is absent.
// Update writes o only if the stored version equals expectedVersion and
// returns ErrVersionConflict otherwise.
type Repository interface {
	Create(ctx context.Context, o Order) error
	Get(ctx context.Context, orderID string) (*Order, error)
	Update(ctx context.Context, o Order, expectedVersion int64) error
	ListByCustomer(ctx context.Context, customerID string) ([]Order, error)
	ListBySeller(ctx context.Context, sellerID string) ([]Order, error)
}

// Sequence hands out monotonically increasing order numbers.
type Sequence interface {
	Next(ctx context.Context) (int64, error)
}

// SortNewestFirst orders by CreatedAt descending, ties in insertion order.
func SortNewestFirst(list []Order) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].Seq < list[j].Seq
	})
}

func filterStatus(list []Order, status Status) []Order {
	if status == "" {
		return list
	}
	out := list[:0]
	for _, o := range list {
		if o.Status == status {
			out = append(out, o)
		}
	}
	return out
}
