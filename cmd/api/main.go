package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/imrishuroy/go-shop-orderflow/internal/config"
	"github.com/imrishuroy/go-shop-orderflow/internal/handlers"
	"github.com/imrishuroy/go-shop-orderflow/internal/telemetry"
)

const serviceName = "shop-api"

func setupRouter(a *app, cfg config.Config, log *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), handlers.RequestID(), handlers.AccessLog(log), a.metrics.Middleware())

	// health
	r.GET("/health", func(c *gin.Context) {
		body := gin.H{"status": "ok"}
		if a.publisher != nil {
			body["events_breaker"] = a.publisher.State().String()
		}
		c.JSON(http.StatusOK, body)
	})
	r.GET("/metrics", gin.WrapH(a.metrics.Handler()))

	api := r.Group("/api", handlers.Timeout(cfg.RequestTimeout), handlers.RequireUser())
	handlers.RegisterCheckoutRoutes(api, a.handlers)
	handlers.RegisterOrdersRoutes(api, a.handlers)
	handlers.RegisterPaymentRoutes(api, a.handlers)

	return r
}

func main() {
	cfg := config.Load()
	log := telemetry.NewLogger(os.Stdout, telemetry.LoggerOptions{
		Service: serviceName,
		Env:     cfg.AppEnv,
		Level:   cfg.LogLevel,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.SetupTracer(ctx, serviceName, cfg.AppEnv, cfg.OTLPEndpoint)
	if err != nil {
		log.Error("failed to init tracer", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(sctx); err != nil {
			log.Error("tracer shutdown", slog.Any("error", err))
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a, err := buildApp(ctx, cfg, reg, log)
	if err != nil {
		log.Error("failed to build app", slog.Any("error", err))
		os.Exit(1)
	}
	defer a.Close()

	r := setupRouter(a, cfg, log)

	// if environment variable RUN_LOCAL is set to "true", run local HTTP server for development.
	if cfg.RunLocal {
		runLocal(ctx, cfg.HTTPAddr, r, log)
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.StartWithOptions(func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		return adapter.ProxyWithContext(ctx, req)
	}, lambda.WithContext(ctx))
}

func runLocal(ctx context.Context, addr string, r *gin.Engine, log *slog.Logger) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           otelhttp.NewHandler(r, serviceName),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("running local server", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("http server error", slog.Any("error", err))
		}
		return
	case <-ctx.Done():
	}

	log.Info("shutdown requested")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error("http shutdown error", slog.Any("error", err))
	}
}
