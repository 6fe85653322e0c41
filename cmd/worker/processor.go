package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-checkout-session/internal/apperror"
	"github.com/imrishuroy/go-checkout-session/internal/ledger"
)

const metricRecordCreated = "PaymentRecordCreated"

// PaymentRecorder persists ledger records.
type PaymentRecorder interface {
	Create(ctx context.Context, rec ledger.PaymentRecord) error
}

// Metrics counts worker events.
type Metrics interface {
	Incr(ctx context.Context, name string)
}

// Processor turns PaymentIntentCreated events into ledger records.
type Processor struct {
	records PaymentRecorder
	metrics Metrics
	log     *zap.Logger
}

// NewProcessor creates a worker processor with its dependencies injected.
func NewProcessor(records PaymentRecorder, metrics Metrics, log *zap.Logger) *Processor {
	return &Processor{records: records, metrics: metrics, log: log}
}

// Handle processes an SQS batch and reports the messages that failed so only
// those are redelivered. After too many receives SQS moves them to the DLQ.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) (events.SQSEventResponse, error) {
	var resp events.SQSEventResponse
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			p.log.Error("payment event failed", zap.String("message_id", rec.MessageId), zap.Error(err))
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{
				ItemIdentifier: rec.MessageId,
			})
		}
	}
	return resp, nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var msg ledger.PaymentEvent
	if err := json.Unmarshal([]byte(rec.Body), &msg); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}
	if msg.PaymentID == "" {
		return fmt.Errorf("message %s has no payment_id", rec.MessageId)
	}

	p.log.Info("recording payment",
		zap.String("payment_id", msg.PaymentID),
		zap.String("user_id", msg.UserID),
		zap.String("correlation_id", msg.RequestID),
	)

	err := p.records.Create(ctx, ledger.PaymentRecord{
		PaymentID: msg.PaymentID,
		UserID:    msg.UserID,
		Amount:    msg.Amount,
		Currency:  msg.Currency,
		RequestID: msg.RequestID,
	})
	var dup *apperror.DuplicateError
	if errors.As(err, &dup) {
		// SQS delivers at least once
		p.log.Info("payment already recorded", zap.String("payment_id", msg.PaymentID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("create payment record: %w", err)
	}

	if p.metrics != nil {
		p.metrics.Incr(ctx, metricRecordCreated)
	}
	return nil
}
