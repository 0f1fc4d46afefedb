package nba

import (
	"fmt"
	"log"
	"time"
)

// DefaultMaxAttempts bounds retries on a single remote call.
const DefaultMaxAttempts = 3

// RetryExhaustedError is the terminal failure after every attempt of a remote
// call has failed.
type RetryExhaustedError struct {
	Operation string
	Attempts  int
	Err       error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("%s: %d attempts exhausted: %v", e.Operation, e.Attempts, e.Err)
}

func (e *RetryExhaustedError) Unwrap() error { return e.Err }

// RetryPolicy wraps remote calls with bounded retries and exponential backoff.
// Every attempt consumes rate-limit budget first, including retries.
//
// Any failure is retried identically; there is no retryable/terminal
// classification of provider errors.
type RetryPolicy struct {
	maxAttempts int
	backoffUnit time.Duration
	limiter     *RateLimiter
	clock       Clock
}

// NewRetryPolicy creates a policy with maxAttempts (<=0 means the default of 3)
// sharing the given rate limiter.
func NewRetryPolicy(limiter *RateLimiter, maxAttempts int) *RetryPolicy {
	return NewRetryPolicyWithClock(limiter, maxAttempts, time.Second, realClock{})
}

// NewRetryPolicyWithClock allows tests to inject the backoff unit and clock.
func NewRetryPolicyWithClock(limiter *RateLimiter, maxAttempts int, backoffUnit time.Duration, clock Clock) *RetryPolicy {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &RetryPolicy{
		maxAttempts: maxAttempts,
		backoffUnit: backoffUnit,
		limiter:     limiter,
		clock:       clock,
	}
}

// Do executes op until it succeeds or attempts are exhausted. Backoff after
// attempt n is 2^n backoff units; no sleep follows the final failure.
func (p *RetryPolicy) Do(operation string, op func() error) error {
	var lastErr error

	for attempt := 0; attempt < p.maxAttempts; attempt++ {
		p.limiter.Wait()

		if err := op(); err != nil {
			lastErr = err
			log.Printf("[retry] %s attempt %d/%d failed: %v", operation, attempt+1, p.maxAttempts, err)
			if attempt < p.maxAttempts-1 {
				backoff := time.Duration(1<<uint(attempt)) * p.backoffUnit
				p.clock.Sleep(backoff)
			}
			continue
		}
		return nil
	}

	return &RetryExhaustedError{Operation: operation, Attempts: p.maxAttempts, Err: lastErr}
}
