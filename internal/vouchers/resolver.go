package vouchers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/imrishuroy/go-shop-orderflow/internal/pricing"
)

// Resolver turns a code on a checkout request into a voucher for pricing.
// Under the lenient policy an unknown code prices as "no voucher"; under the
// strict policy it is an error.
type Resolver struct {
	store  Store
	policy pricing.VoucherPolicy
	log    *slog.Logger
}

func NewResolver(store Store, policy pricing.VoucherPolicy, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{store: store, policy: policy, log: log}
}

func (r *Resolver) Resolve(ctx context.Context, code string) (*pricing.Voucher, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, nil
	}

	v, err := r.store.GetByCode(ctx, code)
	if errors.Is(err, ErrNotFound) {
		if r.policy == pricing.PolicyStrict {
			return nil, fmt.Errorf("voucher %s: %w", code, ErrNotFound)
		}
		r.log.InfoContext(ctx, "ignoring unknown voucher", slog.String("code", code))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve voucher %s: %w", code, err)
	}
	return v, nil
}
