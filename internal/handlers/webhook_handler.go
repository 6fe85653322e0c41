package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-checkout-session/internal/apperror"
	"github.com/imrishuroy/go-checkout-session/internal/ledger"
	"github.com/imrishuroy/go-checkout-session/internal/payment"
)

// maxWebhookBody caps webhook payloads; Stripe events are well under it.
const maxWebhookBody = 64 << 10

type webhookHandler struct {
	verifier WebhookVerifier
	ledger   PaymentLedger
	log      *zap.Logger
}

// stripeEvent applies payment_intent outcomes to the ledger. A bad signature,
// an unrecorded payment or a datastore fault is answered non-2xx so Stripe
// redelivers; everything else is acknowledged.
func (h *webhookHandler) stripeEvent(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		_ = c.Error(apperror.BadRequest("Invalid webhook payload", err))
		return
	}

	event, err := h.verifier.Verify(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		_ = c.Error(apperror.BadRequest("Invalid webhook signature", err))
		return
	}

	var next string
	switch string(event.Type) {
	case payment.EventIntentSucceeded:
		next = ledger.StatusSucceeded
	case payment.EventIntentFailed:
		next = ledger.StatusFailed
	default:
		h.log.Debug("webhook event ignored", zap.String("event_id", event.ID), zap.String("type", string(event.Type)))
		c.JSON(http.StatusOK, response{Status: true, Message: "Event ignored."})
		return
	}

	pi, err := payment.IntentFromEvent(event)
	if err != nil {
		_ = c.Error(apperror.BadRequest("Invalid webhook payload", err))
		return
	}

	err = h.ledger.UpdateStatus(c.Request.Context(), pi.ID, ledger.StatusCreated, next)
	switch {
	case errors.Is(err, ledger.ErrStatusMismatch):
		rec, getErr := h.ledger.Get(c.Request.Context(), pi.ID)
		if getErr != nil {
			_ = c.Error(getErr)
			return
		}
		if rec == nil {
			// the worker has not written the record yet; Stripe redelivers on non-2xx
			h.log.Warn("webhook for unrecorded payment",
				zap.String("event_id", event.ID),
				zap.String("payment_id", pi.ID),
			)
			_ = c.Error(apperror.New(http.StatusServiceUnavailable, "Payment not recorded yet, retry later.", err))
			return
		}
		h.log.Info("webhook for settled payment",
			zap.String("event_id", event.ID),
			zap.String("payment_id", pi.ID),
			zap.String("status", rec.Status),
		)
	case err != nil:
		_ = c.Error(err)
		return
	default:
		h.log.Info("payment status updated", zap.String("payment_id", pi.ID), zap.String("status", next))
	}
	c.JSON(http.StatusOK, response{Status: true, Message: "Event processed."})
}
