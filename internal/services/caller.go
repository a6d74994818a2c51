package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/crates/internal/shared"
)

// RetryPolicy decides how a [Caller] reacts to a failed request.
type RetryPolicy struct {
	// MaxAttempts bounds tries for retryable failures. Throttling does not count toward it.
	MaxAttempts int
	// Backoff returns the wait before retry number attempt (1-based). Nil means a fixed Delay.
	Backoff func(attempt int) time.Duration
	// Delay is the fixed wait used when Backoff is nil.
	Delay time.Duration
	// DefaultRetryAfter is used when a throttled response does not say how long to wait.
	DefaultRetryAfter time.Duration
	// Retryable reports whether err deserves a bounded retry. Nil means [shared.IsTransient].
	Retryable func(error) bool
}

// DefaultRetryPolicy builds a policy from the [sync] configuration.
func DefaultRetryPolicy(cfg shared.SyncConfig) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:       cfg.MaxAttempts,
		Delay:             cfg.RetryDelay(),
		DefaultRetryAfter: cfg.DefaultRetryAfter(),
	}
}

func (p RetryPolicy) wait(attempt int) time.Duration {
	if p.Backoff != nil {
		return p.Backoff(attempt)
	}
	return p.Delay
}

func (p RetryPolicy) retryable(err error) bool {
	if p.Retryable != nil {
		return p.Retryable(err)
	}
	return shared.IsTransient(err)
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts <= 0 {
		return 1
	}
	return p.MaxAttempts
}

// Caller paces and retries the requests of a single provider.
//
// Calls are sequential; a Caller is not meant to be shared between goroutines issuing requests
// concurrently.
type Caller struct {
	name    string
	limiter *rate.Limiter
	policy  RetryPolicy
	clock   shared.Clock
	logger  *log.Logger
}

// NewCaller builds a Caller enforcing at least interval between two requests.
func NewCaller(name string, interval time.Duration, policy RetryPolicy, clock shared.Clock, logger *log.Logger) *Caller {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	if clock == nil {
		clock = shared.SystemClock{}
	}
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &Caller{
		name:    name,
		limiter: rate.NewLimiter(limit, 1),
		policy:  policy,
		clock:   clock,
		logger:  logger.With("provider", name),
	}
}

// Name returns the provider this caller paces.
func (c *Caller) Name() string { return c.name }

// Do runs op until it succeeds, fails terminally, or runs out of attempts.
//
// op must resend the same request every time it is invoked.
func (c *Caller) Do(ctx context.Context, op func(ctx context.Context) error) error {
	attempt := 0
	for {
		if err := c.pace(ctx); err != nil {
			return err
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		var rle *shared.RateLimitError
		if errors.As(err, &rle) || errors.Is(err, shared.ErrThrottled) {
			wait := c.policy.DefaultRetryAfter
			if rle != nil && rle.RetryAfter > 0 {
				wait = rle.RetryAfter
			}
			c.logger.Warn("rate limited, retrying", "retry_after", wait)
			if err := c.clock.Sleep(ctx, wait); err != nil {
				return err
			}
			continue
		}

		attempt++
		if !c.policy.retryable(err) || attempt >= c.policy.attempts() {
			if attempt > 1 {
				return fmt.Errorf("%s: giving up after %d attempts: %w", c.name, attempt, err)
			}
			return err
		}

		wait := c.policy.wait(attempt)
		c.logger.Warn("request failed, retrying", "attempt", attempt, "max_attempts", c.policy.attempts(), "backoff", wait, "error", err)
		if err := c.clock.Sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// pace blocks until the limiter grants the next request slot.
func (c *Caller) pace(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	now := c.clock.Now()
	r := c.limiter.ReserveN(now, 1)
	if !r.OK() {
		return fmt.Errorf("%s: rate limiter refused reservation", c.name)
	}
	return c.clock.Sleep(ctx, r.DelayFrom(now))
}
