// Package executor wraps remote catalog calls with throttling-aware retry.
//
// Destination catalogs rate-limit per account, so the executor pairs a
// proactive request limiter with reactive backoff: operations wait for a
// limiter token, and a throttled response puts the executor to sleep before
// the same operation is tried again. Only throttling is retried; any other
// failure propagates unchanged so permanent errors are never masked as
// transient ones.
package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Default backoff bounds for throttled retries.
const (
	DefaultBackoffBase = 5 * time.Second
	DefaultBackoffMax  = 60 * time.Second
)

// ThrottleError is the explicit "too many requests" signal from a remote
// catalog, optionally carrying the server-suggested wait.
type ThrottleError struct {
	RetryAfter time.Duration
}

func (e *ThrottleError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("throttled by remote (retry after %s)", e.RetryAfter)
	}
	return "throttled by remote"
}

// IsThrottle reports whether err carries a throttling signal and returns it.
func IsThrottle(err error) (*ThrottleError, bool) {
	var te *ThrottleError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// Opts configures an Executor.
type Opts struct {
	BackoffBase time.Duration // Initial wait after the first throttle (default 5s)
	BackoffMax  time.Duration // Wait ceiling (default 60s)
	RateLimit   float64       // Proactive requests per second; 0 disables the limiter
	Sleep       func(ctx context.Context, d time.Duration) error
}

// Executor serializes remote operations behind a rate limiter and retries
// them on throttling signals.
type Executor struct {
	limiter *rate.Limiter
	base    time.Duration
	max     time.Duration
	sleep   func(ctx context.Context, d time.Duration) error
}

// New creates an Executor from opts, filling in defaults.
func New(opts Opts) *Executor {
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = DefaultBackoffBase
	}
	if opts.BackoffMax <= 0 {
		opts.BackoffMax = DefaultBackoffMax
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	return &Executor{
		limiter: limiter,
		base:    opts.BackoffBase,
		max:     opts.BackoffMax,
		sleep:   opts.Sleep,
	}
}

// Do runs op, retrying it as long as it returns a [ThrottleError]. The wait
// between attempts is the server hint when present, otherwise exponential
// backoff from BackoffBase capped at BackoffMax. There is no attempt
// ceiling: these are long-running supervised batch jobs, and waiting out a
// persistent throttle beats failing the run. Context cancellation is the
// only way out of a retry loop.
func (e *Executor) Do(ctx context.Context, op func(ctx context.Context) error) error {
	backoff := e.base

	for {
		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		err := op(ctx)
		te, throttled := IsThrottle(err)
		if !throttled {
			return err
		}

		wait := backoff
		if te.RetryAfter > 0 {
			wait = te.RetryAfter
		}

		if err := e.sleep(ctx, wait); err != nil {
			return err
		}

		backoff *= 2
		if backoff > e.max {
			backoff = e.max
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
