// Package catalog resolves the products a checkout refers to.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrVariantNotFound = errors.New("variant not found")
)

type Variant struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

type Product struct {
	ID       string             `json:"id"`
	Name     string             `json:"name"`
	SellerID string             `json:"seller_id"`
	Price    decimal.Decimal    `json:"price"`
	Stock    int                `json:"stock"`
	Variants map[string]Variant `json:"variants,omitempty"`
}

// PriceFor returns the unit price and display name of the product or one of
// its variants.
func (p *Product) PriceFor(variantID string) (decimal.Decimal, string, error) {
	if variantID == "" {
		return p.Price, p.Name, nil
	}
	v, ok := p.Variants[variantID]
	if !ok {
		return decimal.Zero, "", fmt.Errorf("product %s variant %s: %w", p.ID, variantID, ErrVariantNotFound)
	}
	name := p.Name
	if v.Name != "" {
		name = fmt.Sprintf("%s (%s)", p.Name, v.Name)
	}
	return v.Price, name, nil
}

// Store looks products up by id, returning ErrProductNotFound when absent.
type Store interface {
	GetProduct(ctx context.Context, productID string) (*Product, error)
}

type MemoryStore struct {
	mu       sync.RWMutex
	products map[string]Product
}

func NewMemoryStore(ps ...Product) *MemoryStore {
	s := &MemoryStore{products: make(map[string]Product, len(ps))}
	for _, p := range ps {
		s.Put(p)
	}
	return s
}

func (s *MemoryStore) Put(p Product) {
	s.mu.Lock()
	s.products[p.ID] = p
	s.mu.Unlock()
}

func (s *MemoryStore) GetProduct(ctx context.Context, productID string) (*Product, error) {
	s.mu.RLock()
	p, ok := s.products[productID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("product %s: %w", productID, ErrProductNotFound)
	}
	return &p, nil
}
