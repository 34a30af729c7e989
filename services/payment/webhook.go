package payment

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	bookingRepo "innkeep/database/repository/booking"
	"innkeep/models"

	"github.com/go-redis/redis/v8"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

// dedupTTL keeps processed event ids long enough to absorb Stripe's
// redelivery window.
const dedupTTL = 24 * time.Hour

// WebhookIngestor is the authoritative payment-state writer. It trusts only
// two things: the signature over the raw body, and the bookingId carried in
// the event's own metadata — never a client-supplied identifier.
type WebhookIngestor struct {
	Repo        bookingRepo.BookingRepository
	Dedup       *redis.Client // optional; nil disables event deduplication
	StatusCache *redis.Client // optional; nil disables the snapshot cache
	Secret      string
	Logger      *zap.Logger
}

func NewWebhookIngestor(repo bookingRepo.BookingRepository, dedup, statusCache *redis.Client, secret string, logger *zap.Logger) *WebhookIngestor {
	return &WebhookIngestor{Repo: repo, Dedup: dedup, StatusCache: statusCache, Secret: secret, Logger: logger}
}

// Ingest verifies the signature before reading anything else from the
// payload, then applies the event. A nil return means the event should be
// acknowledged; an UpstreamError asks the processor to redeliver later.
//
// Duplicate deliveries and races with the optimistic mark-paid path are both
// harmless: every write here is an idempotent field overwrite carrying the
// processor's own ledger values, which take precedence.
func (wi *WebhookIngestor) Ingest(ctx context.Context, payload []byte, sigHeader string) error {
	if wi.Secret == "" {
		return &ConfigError{Message: "webhook secret not configured"}
	}

	event, err := webhook.ConstructEvent(payload, sigHeader, wi.Secret)
	if err != nil {
		return &AuthError{Message: "webhook signature verification failed"}
	}

	if wi.alreadySeen(ctx, event.ID) {
		wi.Logger.Debug("duplicate webhook event ignored", zap.String("eventId", event.ID))
		return nil
	}

	switch string(event.Type) {
	case "payment_intent.succeeded":
		return wi.applySucceeded(ctx, event)
	case "payment_intent.payment_failed":
		return wi.applyFailed(ctx, event)
	default:
		// Everything else is acknowledged and ignored.
		wi.Logger.Debug("webhook event type ignored", zap.String("type", string(event.Type)))
		return nil
	}
}

func (wi *WebhookIngestor) applySucceeded(ctx context.Context, event stripe.Event) error {
	pi, bookingID, err := wi.decodeIntent(event)
	if err != nil {
		// Malformed events are logged and acknowledged; redelivery would
		// fail the same way forever.
		wi.Logger.Error("unprocessable webhook event", zap.String("eventId", event.ID), zap.Error(err))
		return nil
	}

	// The captured amount comes from the processor's ledger, not from
	// whatever the client claimed through the optimistic path.
	captured := pi.AmountReceived
	update := models.PaymentUpdate{
		PaymentStatus: models.PaymentStatusPaid,
		PaidAmount:    &captured,
		PaymentMethod: methodOf(pi),
		Source:        models.PaymentSourceWebhook,
	}

	booking, err := wi.Repo.UpdatePayment(ctx, bookingID, update)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrNotFound) {
			wi.Logger.Error("webhook references unknown booking",
				zap.String("eventId", event.ID), zap.String("bookingId", bookingID))
			return nil
		}
		// A transient store failure must surface so the processor's retry
		// mechanism redelivers the event.
		return &UpstreamError{Op: "apply webhook payment success", Err: err}
	}

	wi.cacheStatus(ctx, booking)
	wi.Logger.Info("payment settled via webhook",
		zap.String("bookingId", bookingID),
		zap.Int64("paidAmount", captured))
	return nil
}

func (wi *WebhookIngestor) applyFailed(ctx context.Context, event stripe.Event) error {
	_, bookingID, err := wi.decodeIntent(event)
	if err != nil {
		wi.Logger.Error("unprocessable webhook event", zap.String("eventId", event.ID), zap.Error(err))
		return nil
	}

	update := models.PaymentUpdate{
		PaymentStatus: models.PaymentStatusFailed,
		Source:        models.PaymentSourceWebhook,
	}
	booking, err := wi.Repo.UpdatePayment(ctx, bookingID, update)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrNotFound) {
			wi.Logger.Error("webhook references unknown booking",
				zap.String("eventId", event.ID), zap.String("bookingId", bookingID))
			return nil
		}
		return &UpstreamError{Op: "apply webhook payment failure", Err: err}
	}

	wi.cacheStatus(ctx, booking)
	wi.Logger.Info("payment failed via webhook", zap.String("bookingId", bookingID))
	return nil
}

func (wi *WebhookIngestor) decodeIntent(event stripe.Event) (*stripe.PaymentIntent, string, error) {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, "", err
	}
	bookingID := pi.Metadata["bookingId"]
	if bookingID == "" {
		return nil, "", errors.New("event metadata carries no bookingId")
	}
	return &pi, bookingID, nil
}

// alreadySeen marks the event id and reports whether it was seen before.
// Dedup is best-effort: when Redis is unavailable the duplicate falls
// through to an idempotent overwrite anyway.
func (wi *WebhookIngestor) alreadySeen(ctx context.Context, eventID string) bool {
	if wi.Dedup == nil || eventID == "" {
		return false
	}
	fresh, err := wi.Dedup.SetNX(ctx, "webhookevent:"+eventID, 1, dedupTTL).Result()
	if err != nil {
		wi.Logger.Warn("webhook dedup unavailable", zap.Error(err))
		return false
	}
	return !fresh
}

func (wi *WebhookIngestor) cacheStatus(ctx context.Context, booking *models.Booking) {
	if wi.StatusCache == nil {
		return
	}
	if err := wi.StatusCache.Set(ctx, statusCacheKey(booking.ID), booking.PaymentStatus, statusCacheTTL).Err(); err != nil {
		wi.Logger.Warn("failed to cache payment status", zap.String("bookingId", booking.ID), zap.Error(err))
	}
}

func methodOf(pi *stripe.PaymentIntent) string {
	if len(pi.PaymentMethodTypes) > 0 {
		return pi.PaymentMethodTypes[0]
	}
	return "card"
}
