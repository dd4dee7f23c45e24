package idempotency

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore is the in-process Keeper used for local runs and tests.
type MemoryStore struct {
	mu        sync.Mutex
	records   map[string]Record
	ttlWindow time.Duration
	nowFunc   func() time.Time
}

func NewMemoryStore(ttlWindow time.Duration) *MemoryStore {
	return &MemoryStore{
		records:   map[string]Record{},
		ttlWindow: ttlWindow,
		nowFunc:   time.Now,
	}
}

func (s *MemoryStore) CreateIfNotExists(ctx context.Context, key, customerID, requestHash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.nowFunc().UTC()
	if rec, ok := s.records[key]; ok && !rec.Expired(now) {
		return false, nil
	}
	s.records[key] = Record{
		IdempotencyKey: key,
		Status:         StatusInProgress,
		CustomerID:     customerID,
		RequestHash:    requestHash,
		CreatedAt:      now,
		UpdatedAt:      now,
		ExpiresAt:      now.Add(s.ttlWindow).Unix(),
	}
	return true, nil
}

func (s *MemoryStore) Get(ctx context.Context, key string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	if !ok || rec.Expired(s.nowFunc()) {
		return nil, nil
	}
	return &rec, nil
}

func (s *MemoryStore) MarkDone(ctx context.Context, key, orderID, responseBody string, responseStatus int) error {
	return s.transition(key, StatusInProgress, func(r *Record) {
		r.Status = StatusDone
		r.OrderID = orderID
		r.ResponseBody = responseBody
		r.ResponseStatus = responseStatus
	})
}

func (s *MemoryStore) MarkFailed(ctx context.Context, key, note string) error {
	return s.transition(key, StatusInProgress, func(r *Record) {
		r.Status = StatusFailed
		r.Note = note
	})
}

func (s *MemoryStore) Retry(ctx context.Context, key string) (bool, error) {
	err := s.transition(key, StatusFailed, func(r *Record) {
		r.Status = StatusInProgress
		r.Note = ""
	})
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (s *MemoryStore) transition(key, from string, fn func(*Record)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	if !ok || rec.Status != from {
		return fmt.Errorf("%s: %w", key, ErrConditionFailed)
	}
	fn(&rec)
	rec.UpdatedAt = s.nowFunc().UTC()
	s.records[key] = rec
	return nil
}
