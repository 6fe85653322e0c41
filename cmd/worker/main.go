package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-checkout-session/internal/aws"
	"github.com/imrishuroy/go-checkout-session/internal/config"
	"github.com/imrishuroy/go-checkout-session/internal/ledger"
	"github.com/imrishuroy/go-checkout-session/internal/logger"
)

func main() {
	cfg, err := config.LoadWorker()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	clients, err := aws.NewAWSClients(context.Background(), cfg.AWSMaxAttempts)
	if err != nil {
		zlog.Fatal("failed to init aws clients", zap.Error(err))
	}

	p := NewProcessor(
		ledger.NewStore(clients.DynamoDB, cfg.PaymentsTable),
		aws.NewMetrics(clients.CloudWatch, cfg.MetricsNamespace, "checkout-worker", zlog),
		zlog,
	)

	// RUN_LOCAL=true simulates a single SQS delivery using LOCAL_SQS_BODY.
	if cfg.RunLocal {
		body := cfg.LocalSQSBody
		if body == "" {
			body = `{"payment_id":"pi_local_1","user_id":"local-user","amount":50000,"currency":"inr"}`
		}
		event := events.SQSEvent{
			Records: []events.SQSMessage{
				{MessageId: "local-1", Body: body},
			},
		}
		resp, err := p.Handle(context.Background(), event)
		if err != nil || len(resp.BatchItemFailures) > 0 {
			zlog.Fatal("local handler failed", zap.Error(err), zap.Int("failures", len(resp.BatchItemFailures)))
		}
		return
	}

	lambda.Start(p.Handle)
}
