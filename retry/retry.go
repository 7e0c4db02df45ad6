// Package retry provides exponential backoff retry policies for event
// handling and broker reconnection. The wait between attempts is context
// aware so a backoff window never blocks process shutdown or other
// concurrent event processing.
package retry

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Policy defines the retry behavior for a failing operation.
//
// The first attempt runs immediately; attempt n (n >= 2) waits
// min(BaseDelay * Multiplier^(n-2), MaxDelay) beforehand.
//
// Example with handler defaults (3 attempts, 1s base, 2.0 multiplier):
//
//	Attempt 1: immediate
//	Attempt 2: after 1s
//	Attempt 3: after 2s
//	→ exhausted
type Policy struct {
	MaxAttempts int           // Total attempts including the first one
	BaseDelay   time.Duration // Delay before the second attempt
	MaxDelay    time.Duration // Backoff cap (0 = uncapped)
	Multiplier  float64       // Backoff multiplier (e.g. 2.0 for doubling)
}

// DefaultPolicy returns the retry policy for ordinary event handlers:
// 3 attempts with a 1s exponential backoff base.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
		Multiplier:  2.0,
	}
}

// AuditPolicy returns the retry policy for audit/compliance handlers.
// Audit-trail loss is treated as more costly than ordinary event loss, so
// these handlers get 5 attempts.
func AuditPolicy() Policy {
	p := DefaultPolicy()
	p.MaxAttempts = 5
	return p
}

// ReconnectPolicy returns the backoff policy the subscriber uses for broker
// reconnection: 5 attempts, 500ms base, capped at 30s.
func ReconnectPolicy() Policy {
	return Policy{
		MaxAttempts: 5,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    30 * time.Second,
		Multiplier:  2.0,
	}
}

// Delay calculates the backoff before the given attempt (1-based). The first
// attempt carries no delay.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}

	delay := float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt-2))
	if p.MaxDelay > 0 && delay > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(delay)
}

// Schedule returns a human-readable description of the backoff schedule.
// Useful for logging retry configuration at startup.
func (p Policy) Schedule() string {
	schedule := "Retry Schedule:\n"
	for i := 1; i <= p.MaxAttempts; i++ {
		if i == 1 {
			schedule += "  Attempt 1: immediate\n"
			continue
		}
		schedule += fmt.Sprintf("  Attempt %d: after %v\n", i, p.Delay(i))
	}
	schedule += "  → exhausted\n"
	return schedule
}

// OnRetry is invoked before each backoff wait with the attempt that just
// failed, its error, and the delay until the next attempt. Callers use it
// for warning logs; it must not block.
type OnRetry func(attempt int, err error, delay time.Duration)

// Do runs op under the policy. On success it returns immediately; on failure
// it waits the backoff delay (respecting ctx cancellation) and retries. Once
// MaxAttempts is reached the last error is returned wrapped with the total
// attempt count.
func Do(ctx context.Context, p Policy, op func(context.Context) error, onRetry OnRetry) error {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}

		if attempt == p.MaxAttempts {
			break
		}

		delay := p.Delay(attempt + 1)
		if onRetry != nil {
			onRetry(attempt, lastErr, delay)
		}
		if err := wait(ctx, delay); err != nil {
			return err
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", p.MaxAttempts, lastErr)
}

// wait sleeps for the given delay without blocking shutdown: it returns early
// with the context error when ctx is canceled.
func wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		// Still honor cancellation between attempts.
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			return nil
		}
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
