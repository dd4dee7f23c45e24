package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/imrishuroy/go-shop-orderflow/internal/catalog"
	"github.com/imrishuroy/go-shop-orderflow/internal/pricing"
)

// seedData is the optional SEED_FILE layout for local runs.
type seedData struct {
	Products []catalog.Product `json:"products"`
	Vouchers []pricing.Voucher `json:"vouchers"`
}

func loadSeed(path string) (*seedData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var s seedData
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return &s, nil
}

func (s *seedData) apply(
	ctx context.Context,
	putProduct func(context.Context, catalog.Product) error,
	putVoucher func(context.Context, pricing.Voucher) error,
) error {
	for _, p := range s.Products {
		if err := putProduct(ctx, p); err != nil {
			return fmt.Errorf("seed product %s: %w", p.ID, err)
		}
	}
	for _, v := range s.Vouchers {
		if err := putVoucher(ctx, v); err != nil {
			return fmt.Errorf("seed voucher %s: %w", v.Code, err)
		}
	}
	return nil
}
