package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the process configuration read from the environment.
type Config struct {
	AppEnv   string
	LogLevel string
	RunLocal bool
	HTTPAddr string

	// memory | dynamodb
	StoreBackend string
	SeedFile     string

	AWSRegion   string
	AWSEndpoint string

	OrdersTable      string
	CountersTable    string
	VouchersTable    string
	ProductsTable    string
	IdempotencyTable string
	PaymentsTable    string
	QueueURL         string
	MetricsNamespace string

	RedisAddr      string
	VoucherCacheTT time.Duration

	VoucherPolicy  string
	TTLWindow      time.Duration
	RequestTimeout time.Duration
	CatalogWorkers int

	OTLPEndpoint string
}

func Load() Config {
	return Config{
		AppEnv:   getEnv("APP_ENV", "dev"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		RunLocal: getEnvBool("RUN_LOCAL", false),
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		StoreBackend: strings.ToLower(getEnv("STORE_BACKEND", "dynamodb")),
		SeedFile:     os.Getenv("SEED_FILE"),

		AWSRegion:   os.Getenv("AWS_REGION"),
		AWSEndpoint: os.Getenv("AWS_ENDPOINT_OVERRIDE"),

		OrdersTable:      getEnv("ORDERS_TABLE", "orders"),
		CountersTable:    getEnv("COUNTERS_TABLE", "counters"),
		VouchersTable:    getEnv("VOUCHERS_TABLE", "vouchers"),
		ProductsTable:    getEnv("PRODUCTS_TABLE", "products"),
		IdempotencyTable: getEnv("IDEMPOTENCY_TABLE", "idempotency"),
		PaymentsTable:    getEnv("PAYMENTS_TABLE", "payments"),
		QueueURL:         os.Getenv("ORDERS_QUEUE_URL"),
		MetricsNamespace: getEnv("METRICS_NAMESPACE", "ShopOrderflow"),

		RedisAddr:      os.Getenv("REDIS_ADDR"),
		VoucherCacheTT: getEnvDuration("VOUCHER_CACHE_TTL", 10*time.Minute),

		VoucherPolicy:  strings.ToLower(getEnv("VOUCHER_POLICY", "lenient")),
		TTLWindow:      getEnvDuration("IDEMPOTENCY_TTL", 48*time.Hour),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 5*time.Second),
		CatalogWorkers: getEnvInt("CATALOG_WORKERS", 8),

		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}

	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
