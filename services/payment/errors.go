package payment

import "fmt"

// Error taxonomy for the payment core. Handlers map these to HTTP statuses;
// services never log-and-swallow, they return one of these.

// ConfigError means a required credential or secret is missing. The server
// fails fast rather than degrading to accept-everything behavior.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configError: %s", e.Message)
}

// ValidationError rejects bad input before any side effect.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validationError: %s", e.Message)
}

// AuthError covers invalid, expired, or mismatched credentials — capability
// tokens, service tokens, and webhook signatures. No state change occurs.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authError: %s", e.Message)
}

// NotFoundError means the referenced booking does not exist.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("notFound: %s", e.Message)
}

// UpstreamError wraps a data-store or processor failure. These are
// retryable: every affected operation is idempotent.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstreamError: %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
