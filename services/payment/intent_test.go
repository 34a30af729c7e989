package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"innkeep/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeProcessor resolves repeated creates with the same idempotency key to
// the same intent, the way the real processor does.
type fakeProcessor struct {
	intents map[string]*models.ProcessorIntent
	calls   int
	err     error
}

func newFakeProcessor() *fakeProcessor {
	return &fakeProcessor{intents: make(map[string]*models.ProcessorIntent)}
}

func (p *fakeProcessor) CreateIntent(ctx context.Context, amount int64, currency, idempotencyKey string, metadata map[string]string) (*models.ProcessorIntent, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	if existing, ok := p.intents[idempotencyKey]; ok {
		return existing, nil
	}
	intent := &models.ProcessorIntent{
		ID:           "pi_" + idempotencyKey,
		ClientSecret: "pi_" + idempotencyKey + "_secret",
	}
	p.intents[idempotencyKey] = intent
	return intent, nil
}

func newTestBroker(processor ProcessorClient) *IntentBroker {
	return NewIntentBroker(processor, NewTokenAuthority("test-secret", time.Minute), zap.NewNop())
}

func TestIntentCreateReturnsHandleAndToken(t *testing.T) {
	broker := newTestBroker(newFakeProcessor())

	result, err := broker.Create(context.Background(), models.IntentRequest{
		BookingID: "b1",
		Amount:    12500,
		Currency:  "usd",
	})
	require.NoError(t, err)
	assert.Equal(t, "pi_booking-b1_secret", result.ProcessorHandle)

	_, err = broker.Tokens.Verify(result.CapabilityToken, "b1")
	assert.NoError(t, err, "minted token must be scoped to the booking")
}

func TestIntentCreateIsIdempotentPerBooking(t *testing.T) {
	processor := newFakeProcessor()
	broker := newTestBroker(processor)
	req := models.IntentRequest{BookingID: "b1", Amount: 12500, Currency: "usd"}

	first, err := broker.Create(context.Background(), req)
	require.NoError(t, err)
	second, err := broker.Create(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.ProcessorHandle, second.ProcessorHandle,
		"retries must resolve to the same processor intent")
	assert.Equal(t, 2, processor.calls)
	assert.Len(t, processor.intents, 1, "only one billable intent may exist")
}

func TestIntentCreateValidation(t *testing.T) {
	broker := newTestBroker(newFakeProcessor())

	tests := []struct {
		name string
		req  models.IntentRequest
	}{
		{"missing booking id", models.IntentRequest{Amount: 100, Currency: "usd"}},
		{"zero amount", models.IntentRequest{BookingID: "b1", Currency: "usd"}},
		{"negative amount", models.IntentRequest{BookingID: "b1", Amount: -5, Currency: "usd"}},
		{"missing currency", models.IntentRequest{BookingID: "b1", Amount: 100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := broker.Create(context.Background(), tt.req)
			var validationErr *ValidationError
			assert.ErrorAs(t, err, &validationErr)
		})
	}
}

func TestIntentCreateWrapsProcessorFailure(t *testing.T) {
	processor := newFakeProcessor()
	processor.err = errors.New("processor down")
	broker := newTestBroker(processor)

	_, err := broker.Create(context.Background(), models.IntentRequest{
		BookingID: "b1", Amount: 100, Currency: "usd",
	})
	var upstreamErr *UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.ErrorIs(t, err, processor.err)
}

func TestIdempotencyKeyDerivation(t *testing.T) {
	assert.Equal(t, "booking-b1", IdempotencyKeyFor("b1"))
	assert.Equal(t, IdempotencyKeyFor("b1"), IdempotencyKeyFor("b1"))
	assert.NotEqual(t, IdempotencyKeyFor("b1"), IdempotencyKeyFor("b2"))
}
