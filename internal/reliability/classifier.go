package reliability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/antoniostano/vidranker/internal/policy"
)

// Kind groups provider failures by what went wrong, not by who reported it.
type Kind string

const (
	KindNetwork     Kind = "network"
	KindTimeout     Kind = "timeout"
	KindRateLimited Kind = "rate_limited"
	KindAuth        Kind = "auth"
	KindUnavailable Kind = "unavailable"
	KindRejected    Kind = "rejected"
	KindMalformed   Kind = "malformed"
	KindJobFailed   Kind = "job_failed"
)

// Error is a provider failure tagged with its Kind.
type Error struct {
	Kind     Kind
	Provider string
	Status   int
	Err      error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status > 0 {
		return fmt.Sprintf("%s: http %d: %s", e.Provider, e.Status, msg)
	}
	return fmt.Sprintf("%s: %s", e.Provider, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Errorf builds an *Error with a formatted cause.
func Errorf(provider string, kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Provider: provider, Err: fmt.Errorf(format, args...)}
}

// HTTPError tags a non-2xx response using ClassifyHTTPStatus. Credentials
// echoed in body are masked before it becomes the error text.
func HTTPError(provider string, status int, body string) *Error {
	return &Error{
		Kind:     ClassifyHTTPStatus(status),
		Provider: provider,
		Status:   status,
		Err:      errors.New(policy.Redact(body)),
	}
}

// KindOf extracts the Kind of err. Untagged errors count as network failures,
// deadline errors as timeouts.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindNetwork
}

// ClassifyHTTPStatus maps a non-2xx status code to a Kind.
func ClassifyHTTPStatus(code int) Kind {
	switch {
	case code == 429:
		return KindRateLimited
	case code == 401 || code == 402 || code == 403:
		return KindAuth
	case IsRetryableHTTPStatus(code) || code >= 500:
		return KindUnavailable
	default:
		return KindRejected
	}
}

// IsRetryableHTTPStatus classifies retryable HTTP status codes.
func IsRetryableHTTPStatus(code int) bool {
	switch code {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// IsRetryable reports whether a later attempt could plausibly succeed.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindNetwork, KindTimeout, KindRateLimited, KindUnavailable:
		return true
	default:
		return false
	}
}

// Attempt runs fn under a child context bounded by timeout. The child context
// is cancelled when Attempt returns, so transports honoring it abort the
// in-flight call. A deadline hit is reported as KindTimeout for provider.
func Attempt[T any](ctx context.Context, provider string, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	attemptCtx := ctx
	cancel := context.CancelFunc(func() {})
	if timeout > 0 {
		attemptCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	out, err := fn(attemptCtx)
	if err == nil {
		return out, nil
	}
	if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		var zero T
		return zero, &Error{
			Kind:     KindTimeout,
			Provider: provider,
			Err:      fmt.Errorf("timed out after %s: %w", timeout, err),
		}
	}
	return out, err
}
