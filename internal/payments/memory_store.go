package payments

import (
	"context"
	"sync"
	"time"
)

type MemoryStore struct {
	mu       sync.Mutex
	payments map[string]Payment
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{payments: make(map[string]Payment)}
}

func (s *MemoryStore) Create(ctx context.Context, p Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.payments[p.ID]; ok {
		return ErrDuplicate
	}
	s.payments[p.ID] = p
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, paymentID string) (*Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[paymentID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *MemoryStore) Settle(ctx context.Context, paymentID string, from, to Status, transactionID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[paymentID]
	if !ok {
		return ErrNotFound
	}
	if p.Status != from {
		return ErrStatusConflict
	}
	p.Status = to
	p.TransactionID = transactionID
	p.CompletedAt = &at
	s.payments[paymentID] = p
	return nil
}

func (s *MemoryStore) ListByOrder(ctx context.Context, orderID string) ([]Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Payment
	for _, p := range s.payments {
		if p.OrderID == orderID {
			out = append(out, p)
		}
	}
	sortOldestFirst(out)
	return out, nil
}
