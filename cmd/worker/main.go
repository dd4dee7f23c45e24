package main

import (
	"context"
	"log/slog"
	"os"

	lambdaevents "github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/imrishuroy/go-shop-orderflow/internal/aws"
	"github.com/imrishuroy/go-shop-orderflow/internal/config"
	"github.com/imrishuroy/go-shop-orderflow/internal/events"
	"github.com/imrishuroy/go-shop-orderflow/internal/orders"
	"github.com/imrishuroy/go-shop-orderflow/internal/pricing"
	"github.com/imrishuroy/go-shop-orderflow/internal/telemetry"
)

const serviceName = "shop-worker"

func main() {
	cfg := config.Load()
	log := telemetry.NewLogger(os.Stdout, telemetry.LoggerOptions{
		Service: serviceName,
		Env:     cfg.AppEnv,
		Level:   cfg.LogLevel,
	})

	ctx := context.Background()
	clients, err := aws.NewAWSClients(ctx, cfg.AWSRegion, cfg.AWSEndpoint)
	if err != nil {
		log.Error("failed to init aws clients", slog.Any("error", err))
		os.Exit(1)
	}

	policy := pricing.ParsePolicy(cfg.VoucherPolicy)
	calc := pricing.NewCalculator(pricing.NewShippingTable(pricing.DefaultShippingMethods()), policy)

	opts := []orders.Option{orders.WithLogger(log)}
	if cfg.QueueURL != "" {
		opts = append(opts, orders.WithNotifier(events.NewPublisher(aws.NewPublisher(clients.SQS, cfg.QueueURL), log)))
	}
	// the worker never creates orders, so no voucher resolver is needed
	svc := orders.NewService(
		orders.NewDynamoStore(clients.DynamoDB, cfg.OrdersTable),
		orders.NewDynamoSequence(clients.DynamoDB, cfg.CountersTable, "order_number", orders.FirstOrderNumber),
		calc,
		nil,
		opts...,
	)

	p := NewProcessor(svc, aws.NewMetricsEmitter(clients.CloudWatch, cfg.MetricsNamespace), log)

	// If RUN_LOCAL=true, simulate a single SQS event for local testing.
	if cfg.RunLocal {
		body := os.Getenv("LOCAL_SQS_BODY")
		if body == "" {
			body = `{"event_id":"local-1","type":"order.created","order_id":"local-order-1","payment_method":"cod","final_total":"0"}`
		}
		ev := lambdaevents.SQSEvent{
			Records: []lambdaevents.SQSMessage{{MessageId: "local-1", Body: body}},
		}
		resp, err := p.Handle(ctx, ev)
		if err != nil {
			log.Error("local handler error", slog.Any("error", err))
			os.Exit(1)
		}
		if len(resp.BatchItemFailures) > 0 {
			log.Error("local handler failed", slog.Int("failures", len(resp.BatchItemFailures)))
			os.Exit(1)
		}
		return
	}

	lambda.Start(p.Handle)
}
