package models

// TokenPayload is the capability token's signed content. Tokens are
// ephemeral and never persisted; expiry is the only revocation mechanism.
type TokenPayload struct {
	BookingID string `json:"bookingId"`
	ExpiresAt int64  `json:"expiresAt"` // epoch milliseconds
}

// IntentRequest asks the broker for a payment-processor intent covering one
// booking. Amount is minor currency units.
type IntentRequest struct {
	BookingID     string `json:"bookingId"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	CustomerEmail string `json:"customerEmail,omitempty"`
}

// IntentResult carries the processor handle the client needs to drive the
// checkout plus the capability token scoping one mark-paid call to the
// booking.
type IntentResult struct {
	ProcessorHandle string `json:"processorHandle"`
	CapabilityToken string `json:"capabilityToken"`
}

// ProcessorIntent is the broker's view of the processor-owned intent object.
// It is referenced, never stored.
type ProcessorIntent struct {
	ID           string
	ClientSecret string
}

// MarkPaidRequest is the reconciliation endpoint's input. Exactly one of
// BookingID or BookingReference identifies the booking; BookingID wins if
// both are present.
type MarkPaidRequest struct {
	BookingID        string `json:"bookingId,omitempty"`
	BookingReference string `json:"bookingReference,omitempty"`
	PaidAmount       *int64 `json:"paidAmount,omitempty"`
	PaymentMethod    string `json:"paymentMethod,omitempty"`
	CapabilityToken  string `json:"capabilityToken,omitempty"`
}

// PaymentUpdate is the single translation point between the payment writers
// and the stored booking. Nil pointer fields are left untouched by the
// partial update.
type PaymentUpdate struct {
	PaymentStatus string
	PaidAmount    *int64
	PaymentMethod string
	Source        string
}
