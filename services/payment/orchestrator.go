package payment

import (
	"context"
	"time"

	"innkeep/models"

	"go.uber.org/zap"
)

// Orchestrator states. The flow only ever moves forward; a retry starts a
// fresh flow, which is safe because intent creation is idempotent and the
// reconciliation update is an idempotent overwrite.
type FlowState string

const (
	StateIdle            FlowState = "idle"
	StateIntentRequested FlowState = "intent_requested"
	StateIntentReady     FlowState = "intent_ready"
	StateConfirming      FlowState = "confirming"
	StateSettled         FlowState = "settled"
	StateFailed          FlowState = "failed"
)

// Confirmer drives the processor's checkout round-trip for an intent handle.
// It may block on user interaction (3-D Secure) and is expected to honor the
// context deadline.
type Confirmer interface {
	Confirm(ctx context.Context, processorHandle string) error
}

// Reconciler is the orchestrator's view of the mark-paid endpoint.
type Reconciler interface {
	MarkPaid(ctx context.Context, req models.MarkPaidRequest, trusted bool) (*models.Booking, error)
}

// IntentCreator is the orchestrator's view of the intent broker.
type IntentCreator interface {
	Create(ctx context.Context, req models.IntentRequest) (*models.IntentResult, error)
}

// DefaultStepTimeout bounds each network round-trip in the flow.
const DefaultStepTimeout = 30 * time.Second

// Orchestrator ties the payment flow together on the client's behalf:
// request an intent, drive confirmation, then make a best-effort optimistic
// mark-paid call so the confirmation view renders without waiting for the
// webhook. The webhook converges the true state either way.
type Orchestrator struct {
	Broker      IntentCreator
	Confirmer   Confirmer
	Reconciler  Reconciler
	StepTimeout time.Duration
	Logger      *zap.Logger
}

func NewOrchestrator(broker IntentCreator, confirmer Confirmer, reconciler Reconciler, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		Broker:      broker,
		Confirmer:   confirmer,
		Reconciler:  reconciler,
		StepTimeout: DefaultStepTimeout,
		Logger:      logger,
	}
}

// FlowResult reports where the flow ended and the artifacts it produced.
type FlowResult struct {
	State           FlowState
	ProcessorHandle string
	CapabilityToken string
	Err             error
}

// Run executes one payment flow. Cancellation or timeout before the
// confirming step needs no compensation: nothing authoritative has been
// mutated yet. A Failed result is safe to retry from scratch.
func (o *Orchestrator) Run(ctx context.Context, req models.IntentRequest) *FlowResult {
	result := &FlowResult{State: StateIdle}

	result.State = StateIntentRequested
	intentCtx, cancel := context.WithTimeout(ctx, o.stepTimeout())
	intent, err := o.Broker.Create(intentCtx, req)
	cancel()
	if err != nil {
		return o.fail(result, req.BookingID, "intent creation", err)
	}
	result.State = StateIntentReady
	result.ProcessorHandle = intent.ProcessorHandle
	result.CapabilityToken = intent.CapabilityToken

	if err := ctx.Err(); err != nil {
		// Cancelled between intent and confirmation — nothing to undo.
		return o.fail(result, req.BookingID, "flow cancelled", err)
	}

	result.State = StateConfirming
	confirmCtx, cancel := context.WithTimeout(ctx, o.stepTimeout())
	err = o.Confirmer.Confirm(confirmCtx, intent.ProcessorHandle)
	cancel()
	if err != nil {
		return o.fail(result, req.BookingID, "payment confirmation", err)
	}

	// Best-effort optimistic update: failure here is logged, never fatal.
	// The webhook is the authoritative writer and will converge the state.
	markCtx, cancel := context.WithTimeout(ctx, o.stepTimeout())
	_, err = o.Reconciler.MarkPaid(markCtx, models.MarkPaidRequest{
		BookingID:       req.BookingID,
		PaidAmount:      &req.Amount,
		CapabilityToken: intent.CapabilityToken,
	}, false)
	cancel()
	if err != nil {
		o.Logger.Warn("optimistic mark-paid failed; webhook will reconcile",
			zap.String("bookingId", req.BookingID), zap.Error(err))
	}

	result.State = StateSettled
	return result
}

func (o *Orchestrator) fail(result *FlowResult, bookingID, step string, err error) *FlowResult {
	o.Logger.Warn("payment flow failed",
		zap.String("bookingId", bookingID),
		zap.String("step", step),
		zap.String("lastState", string(result.State)),
		zap.Error(err))
	result.State = StateFailed
	result.Err = err
	return result
}

func (o *Orchestrator) stepTimeout() time.Duration {
	if o.StepTimeout > 0 {
		return o.StepTimeout
	}
	return DefaultStepTimeout
}
