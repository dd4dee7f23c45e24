// Package handlers exposes checkout and order operations over HTTP.
package handlers

import (
	"log/slog"

	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/imrishuroy/go-shop-orderflow/internal/checkout"
	"github.com/imrishuroy/go-shop-orderflow/internal/idempotency"
	"github.com/imrishuroy/go-shop-orderflow/internal/orders"
	"github.com/imrishuroy/go-shop-orderflow/internal/payments"
	"github.com/imrishuroy/go-shop-orderflow/internal/pricing"
	"github.com/imrishuroy/go-shop-orderflow/internal/validation"
)

// HandlerConfig groups dependencies for the API handlers.
type HandlerConfig struct {
	Checkout    *checkout.Service
	Orders      *orders.Service
	Payments    *payments.Service
	Calculator  *pricing.Calculator
	Idempotency idempotency.Keeper
	Validator   *validatorv10.Validate
	Logger      *slog.Logger
}

func (cfg *HandlerConfig) defaults() {
	if cfg.Validator == nil {
		cfg.Validator = validation.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
}
