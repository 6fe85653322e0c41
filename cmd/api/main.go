package main

import (
	"context"
	"log"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/imrishuroy/go-checkout-session/internal/apperror"
	"github.com/imrishuroy/go-checkout-session/internal/aws"
	"github.com/imrishuroy/go-checkout-session/internal/checkout"
	"github.com/imrishuroy/go-checkout-session/internal/config"
	"github.com/imrishuroy/go-checkout-session/internal/handlers"
	"github.com/imrishuroy/go-checkout-session/internal/ledger"
	"github.com/imrishuroy/go-checkout-session/internal/logger"
	"github.com/imrishuroy/go-checkout-session/internal/payment"
	"github.com/imrishuroy/go-checkout-session/internal/session"
	"github.com/imrishuroy/go-checkout-session/internal/token"
	"github.com/imrishuroy/go-checkout-session/internal/validation"
)

func setupRouter(log *zap.Logger, cfg handlers.HandlerConfig) *gin.Engine {
	r := gin.New()
	r.Use(logger.RequestLogger(log), apperror.Middleware(log), apperror.Recovery())

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterCheckoutRoutes(r, cfg)

	return r
}

func newSessionStore(ctx context.Context, cfg *config.Config, clients *aws.AWSClients) (session.Store, error) {
	if cfg.SessionBackend == config.BackendDynamoDB {
		return session.NewDynamoStore(clients.DynamoDB, cfg.SessionTable), nil
	}
	client, err := session.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	return session.NewRedisStore(client), nil
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	clients, err := aws.NewAWSClients(ctx, cfg.AWSMaxAttempts)
	if err != nil {
		zlog.Fatal("failed to init aws clients", zap.Error(err))
	}

	store, err := newSessionStore(ctx, cfg, clients)
	if err != nil {
		zlog.Fatal("failed to init session store", zap.String("backend", cfg.SessionBackend), zap.Error(err))
	}

	issuer := token.NewIssuer(cfg.TokenSecret, cfg.SessionTTL)
	metrics := aws.NewMetrics(clients.CloudWatch, cfg.MetricsNamespace, "checkout-api", zlog)

	svcCfg := checkout.Config{
		Store:      store,
		Tokens:     issuer,
		Gateway:    payment.NewStripeGateway(cfg.StripeSecretKey),
		Metrics:    metrics,
		Logger:     zlog,
		SessionTTL: cfg.SessionTTL,
		Cleanup: checkout.CleanupPolicy{
			OnCreate:  cfg.CleanupOnCreate,
			OnConfirm: cfg.CleanupOnConfirm,
		},
		PublishableKey: cfg.StripePublishableKey,
	}
	if cfg.PaymentsQueueURL != "" {
		svcCfg.Events = ledger.NewEventPublisher(aws.NewPublisher(clients.SQS, cfg.PaymentsQueueURL))
	}

	hcfg := handlers.HandlerConfig{
		Checkout:  checkout.NewService(svcCfg),
		Tokens:    issuer,
		Validator: validation.New(),
		RateLimit: rate.Limit(cfg.RateLimitRPS),
		RateBurst: cfg.RateLimitBurst,
		Logger:    zlog,
	}
	if cfg.StripeWebhookSecret != "" && cfg.PaymentsTable != "" {
		hcfg.Webhooks = payment.NewWebhookVerifier(cfg.StripeWebhookSecret)
		hcfg.Ledger = ledger.NewStore(clients.DynamoDB, cfg.PaymentsTable)
	}

	r := setupRouter(zlog, hcfg)

	// RUN_LOCAL=true runs a plain HTTP server for development.
	if cfg.RunLocal {
		addr := ":" + cfg.Port
		zlog.Info("running local server", zap.String("addr", addr), zap.String("session_backend", cfg.SessionBackend))
		if err := r.Run(addr); err != nil {
			zlog.Fatal("failed to run local server", zap.Error(err))
		}
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
