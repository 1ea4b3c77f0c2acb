package jobcontext

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"google.golang.org/api/googleapi"
)

type KeyContext string

var (
	keyRunID   KeyContext = "run_id"
	keyTrigger KeyContext = "trigger"
	keyMember  KeyContext = "member"
)

// RunBegin derives a run context carrying metadata and a timeout.
// A zero timeout leaves the parent deadline in place.
func RunBegin(parentCtx context.Context, runID, trigger string, timeout time.Duration) (context.Context, context.CancelFunc) {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(parentCtx, timeout)
	} else {
		ctx, cancel = context.WithCancel(parentCtx)
	}

	ctx = context.WithValue(ctx, keyRunID, runID)
	ctx = context.WithValue(ctx, keyTrigger, trigger)

	return ctx, cancel
}

// WithMember tags the context with the team member being scanned
func WithMember(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, keyMember, email)
}

// GetRunID extracts the run ID from context
func GetRunID(ctx context.Context) string {
	runID, _ := ctx.Value(keyRunID).(string)
	return runID
}

// GetTrigger extracts the trigger source from context
func GetTrigger(ctx context.Context) string {
	trigger, _ := ctx.Value(keyTrigger).(string)
	return trigger
}

// GetMember extracts the member email from context
func GetMember(ctx context.Context) string {
	member, _ := ctx.Value(keyMember).(string)
	return member
}

// Retry runs fn with exponential backoff until it succeeds, returns a
// non-retryable error, or maxElapsed passes
func Retry(ctx context.Context, maxElapsed time.Duration, fn func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 10 * time.Second
	bo.MaxElapsedTime = maxElapsed

	op := func() error {
		err := fn()
		if err != nil && !IsRetryableError(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	return backoff.Retry(op, backoff.WithContext(bo, ctx))
}

// IsRetryableError checks if an error should trigger a retry.
// Retryable errors are rate limits, 5xx responses and transient network errors.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	errStr := strings.ToLower(err.Error())

	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "network unreachable") ||
		strings.Contains(errStr, "i/o timeout") {
		return true
	}

	if strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "service unavailable") ||
		strings.Contains(errStr, "bad gateway") {
		return true
	}

	return false
}
