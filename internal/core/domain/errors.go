package domain

import "errors"

// Sentinel errors used with errors.Is/errors.As to classify failures per the
// reconciler's error taxonomy. Concrete adapters and stages wrap these with
// fmt.Errorf("...: %w", ...) to retain context.
var (
	// ErrConfig signals missing or invalid IaC configuration. Fatal for the
	// invocation: the pipeline cannot proceed without a configuration set.
	ErrConfig = errors.New("config error")

	// ErrValueSource signals an unparseable value-source string. Fatal for
	// the owning context's plan only; sibling contexts proceed.
	ErrValueSource = errors.New("value source error")

	// ErrLockUnavailable signals that the per-scaling-group lock could not
	// be acquired after exhausting retries. Fatal; no DNS mutation occurs.
	ErrLockUnavailable = errors.New("lock unavailable")

	// ErrAdapter wraps a failure surfaced by an external adapter (DNS
	// provider, instance discovery, KV store).
	ErrAdapter = errors.New("adapter error")

	// ErrValidation signals an invariant violation during request
	// construction (e.g. an SRV record configured without a priority).
	ErrValidation = errors.New("validation error")

	// ErrTransient marks an error as retryable by the caller. Lock
	// contention and scheduler backpressure use this before escalating to
	// ErrLockUnavailable or ErrAdapter once retries are exhausted.
	ErrTransient = errors.New("transient error")
)

// AdapterError wraps an underlying provider error with the adapter name that
// produced it, satisfying errors.Unwrap so callers can still match the
// provider's own sentinel errors.
type AdapterError struct {
	Provider string
	Err      error
}

func (e *AdapterError) Error() string {
	return "adapter error (" + e.Provider + "): " + e.Err.Error()
}

func (e *AdapterError) Unwrap() []error {
	return []error{ErrAdapter, e.Err}
}

// NewAdapterError constructs an AdapterError for the named provider.
func NewAdapterError(provider string, err error) *AdapterError {
	return &AdapterError{Provider: provider, Err: err}
}
