// Package vouchers loads discount vouchers by code.
package vouchers

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/imrishuroy/go-shop-orderflow/internal/pricing"
)

var ErrNotFound = errors.New("voucher not found")

// Store looks a voucher up by code. Implementations return ErrNotFound for
// unknown codes.
type Store interface {
	GetByCode(ctx context.Context, code string) (*pricing.Voucher, error)
}

// NormalizeCode is the canonical form codes are stored and looked up under.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// MemoryStore is a Store backed by a map, used for local runs and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	vouchers map[string]pricing.Voucher
}

func NewMemoryStore(vs ...pricing.Voucher) *MemoryStore {
	s := &MemoryStore{vouchers: make(map[string]pricing.Voucher, len(vs))}
	for _, v := range vs {
		s.Put(v)
	}
	return s
}

func (s *MemoryStore) Put(v pricing.Voucher) {
	v.Code = NormalizeCode(v.Code)
	s.mu.Lock()
	s.vouchers[v.Code] = v
	s.mu.Unlock()
}

func (s *MemoryStore) GetByCode(ctx context.Context, code string) (*pricing.Voucher, error) {
	s.mu.RLock()
	v, ok := s.vouchers[NormalizeCode(code)]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return &v, nil
}
