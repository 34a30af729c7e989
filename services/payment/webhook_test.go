package payment

import (
	"context"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"innkeep/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

const testWebhookSecret = "whsec_test"

// signedEvent builds a raw event payload plus a valid Stripe-Signature header
// the way the processor would deliver it.
func signedEvent(eventType, eventID, object string) ([]byte, string) {
	payload := []byte(fmt.Sprintf(
		`{"id":%q,"api_version":%q,"type":%q,"data":{"object":%s}}`,
		eventID, stripe.APIVersion, eventType, object,
	))
	now := time.Now()
	sig := webhook.ComputeSignature(now, payload, testWebhookSecret)
	header := fmt.Sprintf("t=%d,v1=%s", now.Unix(), hex.EncodeToString(sig))
	return payload, header
}

func intentObject(bookingID string, amountReceived int64) string {
	return fmt.Sprintf(
		`{"id":"pi_1","amount_received":%d,"payment_method_types":["card"],"metadata":{"bookingId":%q}}`,
		amountReceived, bookingID,
	)
}

func newTestIngestor(repo *memBookingRepo) *WebhookIngestor {
	return NewWebhookIngestor(repo, nil, nil, testWebhookSecret, zap.NewNop())
}

func TestIngestSucceededEventMarksPaid(t *testing.T) {
	repo := newMemBookingRepo(pendingBooking("b1", "BK-AAAA1111"))
	ingestor := newTestIngestor(repo)

	payload, header := signedEvent("payment_intent.succeeded", "evt_1", intentObject("b1", 20000))
	require.NoError(t, ingestor.Ingest(context.Background(), payload, header))

	updated, err := repo.GetByID(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, updated.PaymentStatus)
	assert.Equal(t, int64(20000), updated.PaidAmount)
	assert.Equal(t, "card", updated.PaymentMethod)
	assert.Equal(t, models.PaymentSourceWebhook, updated.PaymentSource)
}

func TestIngestFailedEventMarksFailed(t *testing.T) {
	repo := newMemBookingRepo(pendingBooking("b1", "BK-AAAA1111"))
	ingestor := newTestIngestor(repo)

	payload, header := signedEvent("payment_intent.payment_failed", "evt_1", intentObject("b1", 0))
	require.NoError(t, ingestor.Ingest(context.Background(), payload, header))

	updated, err := repo.GetByID(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusFailed, updated.PaymentStatus)
	assert.Equal(t, models.PaymentSourceWebhook, updated.PaymentSource)
}

func TestIngestOverridesOptimisticClientClaim(t *testing.T) {
	claimed := pendingBooking("b1", "BK-AAAA1111")
	claimed.PaymentStatus = models.PaymentStatusPaid
	claimed.PaymentSource = models.PaymentSourceClient
	claimed.PaidAmount = 10000
	repo := newMemBookingRepo(claimed)
	ingestor := newTestIngestor(repo)

	// The processor captured less than the client claimed.
	payload, header := signedEvent("payment_intent.succeeded", "evt_1", intentObject("b1", 9500))
	require.NoError(t, ingestor.Ingest(context.Background(), payload, header))

	updated, err := repo.GetByID(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, int64(9500), updated.PaidAmount, "ledger value must replace the client claim")
	assert.Equal(t, models.PaymentSourceWebhook, updated.PaymentSource)
}

func TestIngestRejectsBadSignature(t *testing.T) {
	repo := newMemBookingRepo(pendingBooking("b1", "BK-AAAA1111"))
	ingestor := newTestIngestor(repo)

	payload, _ := signedEvent("payment_intent.succeeded", "evt_1", intentObject("b1", 20000))
	err := ingestor.Ingest(context.Background(), payload, "t=123,v1=deadbeef")
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)

	untouched, err := repo.GetByID(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, untouched.PaymentStatus)
}

func TestIngestFailsClosedWithoutSecret(t *testing.T) {
	ingestor := NewWebhookIngestor(newMemBookingRepo(), nil, nil, "", zap.NewNop())

	err := ingestor.Ingest(context.Background(), []byte("{}"), "t=1,v1=aa")
	var configErr *ConfigError
	assert.ErrorAs(t, err, &configErr)
}

func TestIngestAcksIrrelevantAndMalformedEvents(t *testing.T) {
	repo := newMemBookingRepo(pendingBooking("b1", "BK-AAAA1111"))
	ingestor := newTestIngestor(repo)

	// Unhandled event type.
	payload, header := signedEvent("charge.refunded", "evt_1", `{"id":"ch_1"}`)
	assert.NoError(t, ingestor.Ingest(context.Background(), payload, header))

	// Intent without a bookingId in metadata: logged and acknowledged,
	// redelivery would never help.
	payload, header = signedEvent("payment_intent.succeeded", "evt_2",
		`{"id":"pi_1","amount_received":100,"metadata":{}}`)
	assert.NoError(t, ingestor.Ingest(context.Background(), payload, header))

	// Intent referencing a booking this system never created.
	payload, header = signedEvent("payment_intent.succeeded", "evt_3", intentObject("ghost", 100))
	assert.NoError(t, ingestor.Ingest(context.Background(), payload, header))

	untouched, err := repo.GetByID(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, untouched.PaymentStatus)
}

func TestIngestSurfacesStoreFailureForRedelivery(t *testing.T) {
	repo := newMemBookingRepo(pendingBooking("b1", "BK-AAAA1111"))
	repo.failUpdates = true
	ingestor := newTestIngestor(repo)

	payload, header := signedEvent("payment_intent.succeeded", "evt_1", intentObject("b1", 20000))
	err := ingestor.Ingest(context.Background(), payload, header)
	var upstreamErr *UpstreamError
	assert.ErrorAs(t, err, &upstreamErr)
}
