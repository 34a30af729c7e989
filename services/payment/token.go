package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	"innkeep/models"
)

// DefaultTokenTTL bounds the replay window of a leaked token. Tokens are
// never persisted and cannot be revoked individually; expiry is the only
// revocation mechanism.
const DefaultTokenTTL = 5 * time.Minute

// TokenAuthority mints and verifies capability tokens. A token authorizes
// exactly one mark-paid call for exactly one booking.
//
// Wire format: base64url(JSON payload) + "." + base64url(HMAC-SHA256 signature).
type TokenAuthority struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenAuthority builds an authority around the shared signing secret.
// An empty secret is tolerated at construction so the server can start for
// non-payment work, but Mint and Verify both fail closed against it.
func NewTokenAuthority(secret string, ttl time.Duration) *TokenAuthority {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenAuthority{secret: []byte(secret), ttl: ttl}
}

// Mint issues a token scoped to the booking, expiring after the authority's TTL.
func (a *TokenAuthority) Mint(bookingID string) (string, error) {
	if len(a.secret) == 0 {
		return "", &ConfigError{Message: "payment token secret not configured"}
	}
	if bookingID == "" {
		return "", &ValidationError{Message: "bookingID is required"}
	}

	payload := models.TokenPayload{
		BookingID: bookingID,
		ExpiresAt: time.Now().Add(a.ttl).UnixMilli(),
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	encoded := base64.RawURLEncoding.EncodeToString(raw)
	sig := a.sign(encoded)
	return encoded + "." + sig, nil
}

// Verify checks the token's structure, signature, and expiry. When
// expectedBookingID is non-empty the token must be scoped to that booking.
// The signature comparison is constant-time.
func (a *TokenAuthority) Verify(token, expectedBookingID string) (*models.TokenPayload, error) {
	if len(a.secret) == 0 {
		// Fail closed: with no secret configured, no token is ever valid.
		return nil, &ConfigError{Message: "payment token secret not configured"}
	}

	parts := strings.Split(token, ".")
	if len(parts) != 2 {
		return nil, &AuthError{Message: "malformed capability token"}
	}
	encoded, sig := parts[0], parts[1]

	expected := a.sign(encoded)
	if !hmac.Equal([]byte(sig), []byte(expected)) {
		return nil, &AuthError{Message: "capability token signature mismatch"}
	}

	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, &AuthError{Message: "capability token payload not decodable"}
	}
	var payload models.TokenPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &AuthError{Message: "capability token payload not parseable"}
	}

	if time.Now().UnixMilli() > payload.ExpiresAt {
		return nil, &AuthError{Message: "capability token expired"}
	}
	if expectedBookingID != "" && payload.BookingID != expectedBookingID {
		return nil, &AuthError{Message: "capability token scoped to a different booking"}
	}
	return &payload, nil
}

func (a *TokenAuthority) sign(encodedPayload string) string {
	mac := hmac.New(sha256.New, a.secret)
	mac.Write([]byte(encodedPayload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
