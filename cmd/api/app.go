package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/imrishuroy/go-shop-orderflow/internal/aws"
	"github.com/imrishuroy/go-shop-orderflow/internal/catalog"
	"github.com/imrishuroy/go-shop-orderflow/internal/checkout"
	"github.com/imrishuroy/go-shop-orderflow/internal/config"
	"github.com/imrishuroy/go-shop-orderflow/internal/events"
	"github.com/imrishuroy/go-shop-orderflow/internal/handlers"
	"github.com/imrishuroy/go-shop-orderflow/internal/idempotency"
	"github.com/imrishuroy/go-shop-orderflow/internal/metrics"
	"github.com/imrishuroy/go-shop-orderflow/internal/orders"
	"github.com/imrishuroy/go-shop-orderflow/internal/payments"
	"github.com/imrishuroy/go-shop-orderflow/internal/pricing"
	"github.com/imrishuroy/go-shop-orderflow/internal/vouchers"
)

// app is everything the router needs, built once at startup.
type app struct {
	handlers  handlers.HandlerConfig
	metrics   *metrics.ServerMetrics
	publisher *events.Publisher
	closers   []func() error
}

func (a *app) Close() {
	for _, c := range a.closers {
		_ = c()
	}
}

type backends struct {
	orders      orders.Repository
	sequence    orders.Sequence
	catalog     catalog.Store
	vouchers    vouchers.Store
	idempotency idempotency.Keeper
	payments    payments.Repository
	sender      events.Sender
}

func memoryBackends(ctx context.Context, cfg config.Config) (*backends, error) {
	products := catalog.NewMemoryStore()
	vs := vouchers.NewMemoryStore()
	if cfg.SeedFile != "" {
		seed, err := loadSeed(cfg.SeedFile)
		if err != nil {
			return nil, err
		}
		err = seed.apply(ctx,
			func(_ context.Context, p catalog.Product) error { products.Put(p); return nil },
			func(_ context.Context, v pricing.Voucher) error { vs.Put(v); return nil },
		)
		if err != nil {
			return nil, err
		}
	}
	return &backends{
		orders:      orders.NewMemoryStore(),
		sequence:    orders.NewMemorySequence(orders.FirstOrderNumber),
		catalog:     products,
		vouchers:    vs,
		idempotency: idempotency.NewMemoryStore(cfg.TTLWindow),
		payments:    payments.NewMemoryStore(),
	}, nil
}

func dynamoBackends(ctx context.Context, cfg config.Config) (*backends, error) {
	clients, err := aws.NewAWSClients(ctx, cfg.AWSRegion, cfg.AWSEndpoint)
	if err != nil {
		return nil, fmt.Errorf("init aws clients: %w", err)
	}

	products := catalog.NewDynamoStore(clients.DynamoDB, cfg.ProductsTable)
	vs := vouchers.NewDynamoStore(clients.DynamoDB, cfg.VouchersTable)
	if cfg.SeedFile != "" {
		seed, err := loadSeed(cfg.SeedFile)
		if err != nil {
			return nil, err
		}
		if err := seed.apply(ctx, products.Put, vs.Put); err != nil {
			return nil, err
		}
	}

	b := &backends{
		orders:      orders.NewDynamoStore(clients.DynamoDB, cfg.OrdersTable),
		sequence:    orders.NewDynamoSequence(clients.DynamoDB, cfg.CountersTable, "order_number", orders.FirstOrderNumber),
		catalog:     products,
		vouchers:    vs,
		idempotency: idempotency.NewStore(clients.DynamoDB, cfg.IdempotencyTable, cfg.TTLWindow),
		payments:    payments.NewDynamoStore(clients.DynamoDB, cfg.PaymentsTable),
	}
	if cfg.QueueURL != "" {
		b.sender = aws.NewPublisher(clients.SQS, cfg.QueueURL)
	}
	return b, nil
}

func buildApp(ctx context.Context, cfg config.Config, reg *prometheus.Registry, log *slog.Logger) (*app, error) {
	var (
		b   *backends
		err error
	)
	switch cfg.StoreBackend {
	case "memory":
		b, err = memoryBackends(ctx, cfg)
	case "dynamodb":
		b, err = dynamoBackends(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
	if err != nil {
		return nil, err
	}

	a := &app{metrics: metrics.NewServerMetrics(reg, "api")}

	voucherStore := b.vouchers
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		a.closers = append(a.closers, rdb.Close)
		voucherStore = vouchers.NewCachedStore(voucherStore, rdb, cfg.VoucherCacheTT, log)
		log.Info("voucher cache enabled", slog.String("redis_addr", cfg.RedisAddr))
	}

	policy := pricing.ParsePolicy(cfg.VoucherPolicy)
	calc := pricing.NewCalculator(pricing.NewShippingTable(pricing.DefaultShippingMethods()), policy)
	resolver := vouchers.NewResolver(voucherStore, policy, log)

	opts := []orders.Option{
		orders.WithLogger(log),
		orders.WithNotifier(a.metrics),
	}
	if b.sender != nil {
		a.publisher = events.NewPublisher(b.sender, log)
		opts = append(opts, orders.WithNotifier(a.publisher))
	}
	orderSvc := orders.NewService(b.orders, b.sequence, calc, resolver, opts...)

	a.handlers = handlers.HandlerConfig{
		Checkout:    checkout.NewService(b.catalog, orderSvc, resolver, calc, cfg.CatalogWorkers, log),
		Orders:      orderSvc,
		Calculator:  calc,
		Idempotency: b.idempotency,
		Payments:    payments.NewService(b.payments, orderSvc, payments.DefaultMethods(), log),
		Logger:      log,
	}

	log.Info("app configured",
		slog.String("store_backend", cfg.StoreBackend),
		slog.String("voucher_policy", string(policy)),
		slog.Bool("events", b.sender != nil),
	)
	return a, nil
}
