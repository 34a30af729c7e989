package payment

import (
	"context"
	"fmt"

	"innkeep/models"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"go.uber.org/zap"
)

// ProcessorClient is the slice of the payment processor's API the broker
// consumes: intent creation with caller-chosen idempotency.
type ProcessorClient interface {
	CreateIntent(ctx context.Context, amount int64, currency, idempotencyKey string, metadata map[string]string) (*models.ProcessorIntent, error)
}

// StripeProcessor implements ProcessorClient against Stripe PaymentIntents.
type StripeProcessor struct{}

func (StripeProcessor) CreateIntent(ctx context.Context, amount int64, currency, idempotencyKey string, metadata map[string]string) (*models.ProcessorIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
	}
	params.Context = ctx
	params.SetIdempotencyKey(idempotencyKey)
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, err
	}
	return &models.ProcessorIntent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// IntentBroker creates (or re-resolves) the processor intent for a booking
// and mints the capability token the client will later present to the
// reconciliation endpoint.
type IntentBroker struct {
	Processor ProcessorClient
	Tokens    *TokenAuthority
	Logger    *zap.Logger
}

func NewIntentBroker(processor ProcessorClient, tokens *TokenAuthority, logger *zap.Logger) *IntentBroker {
	return &IntentBroker{Processor: processor, Tokens: tokens, Logger: logger}
}

// IdempotencyKeyFor derives the processor idempotency key from the booking
// id. The derivation is deterministic, so retries and page reloads resolve
// to the same underlying intent and never mint a second billable object.
func IdempotencyKeyFor(bookingID string) string {
	return "booking-" + bookingID
}

// Create validates the request, creates or reuses the processor intent, and
// returns the client handle alongside a freshly minted capability token.
func (b *IntentBroker) Create(ctx context.Context, req models.IntentRequest) (*models.IntentResult, error) {
	if req.BookingID == "" {
		return nil, &ValidationError{Message: "bookingId is required"}
	}
	if req.Amount <= 0 {
		return nil, &ValidationError{Message: "amount must be a positive integer in minor currency units"}
	}
	if req.Currency == "" {
		return nil, &ValidationError{Message: "currency is required"}
	}

	metadata := map[string]string{"bookingId": req.BookingID}
	if req.CustomerEmail != "" {
		metadata["customerEmail"] = req.CustomerEmail
	}

	intent, err := b.Processor.CreateIntent(ctx, req.Amount, req.Currency, IdempotencyKeyFor(req.BookingID), metadata)
	if err != nil {
		// Processor failures surface as retryable upstream errors; the
		// idempotency key makes the retry safe.
		return nil, &UpstreamError{Op: fmt.Sprintf("create intent for booking %s", req.BookingID), Err: err}
	}

	token, err := b.Tokens.Mint(req.BookingID)
	if err != nil {
		return nil, err
	}

	b.Logger.Info("payment intent ready",
		zap.String("bookingId", req.BookingID),
		zap.String("intentId", intent.ID))

	return &models.IntentResult{
		ProcessorHandle: intent.ClientSecret,
		CapabilityToken: token,
	}, nil
}
