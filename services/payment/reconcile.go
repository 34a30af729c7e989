package payment

import (
	"context"
	"errors"
	"time"

	bookingRepo "innkeep/database/repository/booking"
	"innkeep/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// statusCacheTTL bounds how long a payment-status snapshot lives in the
// shared cache. The store remains authoritative; the cache only spares the
// status poll a round-trip.
const statusCacheTTL = time.Hour

// ReconcileService applies the optimistic "mark paid" update. It accepts two
// callers: a trusted service (verified upstream by middleware) and a client
// presenting a capability token scoped to the booking.
type ReconcileService struct {
	Repo        bookingRepo.BookingRepository
	Tokens      *TokenAuthority
	StatusCache *redis.Client // optional; nil disables the snapshot cache
	Logger      *zap.Logger
}

func NewReconcileService(repo bookingRepo.BookingRepository, tokens *TokenAuthority, statusCache *redis.Client, logger *zap.Logger) *ReconcileService {
	return &ReconcileService{Repo: repo, Tokens: tokens, StatusCache: statusCache, Logger: logger}
}

// MarkPaid resolves the booking, authorizes the caller, and applies an
// idempotent paid overwrite. A booking already marked paid by the webhook is
// returned untouched: the processor's ledger value always wins over a
// client claim (and over a repeated service call).
func (s *ReconcileService) MarkPaid(ctx context.Context, req models.MarkPaidRequest, trusted bool) (*models.Booking, error) {
	if req.BookingID == "" && req.BookingReference == "" {
		return nil, &ValidationError{Message: "bookingId or bookingReference is required"}
	}
	if req.PaidAmount != nil && *req.PaidAmount <= 0 {
		return nil, &ValidationError{Message: "paidAmount must be a positive integer in minor currency units"}
	}

	booking, err := s.resolve(ctx, req)
	if err != nil {
		return nil, err
	}

	if !trusted {
		if req.CapabilityToken == "" {
			return nil, &AuthError{Message: "capability token required for untrusted callers"}
		}
		if _, err := s.Tokens.Verify(req.CapabilityToken, booking.ID); err != nil {
			return nil, err
		}
	}

	// Idempotent no-op: already paid. When the webhook wrote the value it
	// also reflects the captured amount, which this path must not disturb.
	if booking.PaymentStatus == models.PaymentStatusPaid {
		if booking.PaymentSource == models.PaymentSourceWebhook {
			return booking, nil
		}
		if req.PaidAmount == nil && req.PaymentMethod == "" {
			return booking, nil
		}
	}

	source := models.PaymentSourceClient
	if trusted {
		source = models.PaymentSourceService
	}
	update := models.PaymentUpdate{
		PaymentStatus: models.PaymentStatusPaid,
		PaidAmount:    req.PaidAmount,
		PaymentMethod: req.PaymentMethod,
		Source:        source,
	}

	updated, err := s.Repo.UpdatePayment(ctx, booking.ID, update)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrNotFound) {
			return nil, &NotFoundError{Message: "booking disappeared during update"}
		}
		return nil, &UpstreamError{Op: "mark booking paid", Err: err}
	}

	s.cacheStatus(ctx, updated)
	s.Logger.Info("booking marked paid",
		zap.String("bookingId", updated.ID),
		zap.String("source", source))
	return updated, nil
}

// resolve looks the booking up by id first, falling back to the reference.
func (s *ReconcileService) resolve(ctx context.Context, req models.MarkPaidRequest) (*models.Booking, error) {
	var (
		booking *models.Booking
		err     error
	)
	if req.BookingID != "" {
		booking, err = s.Repo.GetByID(ctx, req.BookingID)
	} else {
		booking, err = s.Repo.GetByReference(ctx, req.BookingReference)
	}
	if err != nil {
		if errors.Is(err, bookingRepo.ErrNotFound) {
			return nil, &NotFoundError{Message: "booking not found"}
		}
		return nil, &UpstreamError{Op: "resolve booking", Err: err}
	}
	return booking, nil
}

// PaymentStatus serves the status poll from the shared cache, falling back
// to the store. The cache is shared across instances and survives restarts,
// unlike a process-local map.
func (s *ReconcileService) PaymentStatus(ctx context.Context, bookingID string) (string, error) {
	if bookingID == "" {
		return "", &ValidationError{Message: "bookingId is required"}
	}
	if s.StatusCache != nil {
		if status, err := s.StatusCache.Get(ctx, statusCacheKey(bookingID)).Result(); err == nil && status != "" {
			return status, nil
		}
	}

	booking, err := s.Repo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrNotFound) {
			return "", &NotFoundError{Message: "booking not found"}
		}
		return "", &UpstreamError{Op: "fetch payment status", Err: err}
	}
	s.cacheStatus(ctx, booking)
	return booking.PaymentStatus, nil
}

func (s *ReconcileService) cacheStatus(ctx context.Context, booking *models.Booking) {
	if s.StatusCache == nil {
		return
	}
	if err := s.StatusCache.Set(ctx, statusCacheKey(booking.ID), booking.PaymentStatus, statusCacheTTL).Err(); err != nil {
		s.Logger.Warn("failed to cache payment status", zap.String("bookingId", booking.ID), zap.Error(err))
	}
}

func statusCacheKey(bookingID string) string {
	return "paymentstatus:" + bookingID
}
