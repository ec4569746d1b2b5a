package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultAttempts  = 3
	DefaultBaseDelay = 5 * time.Second
	DefaultFactor    = 2.0
)

// Policy is a bounded retry with exponential backoff. The delay before
// retry n (1-based) is BaseDelay * Factor^(n-1).
type Policy struct {
	Attempts  int
	BaseDelay time.Duration
	Factor    float64

	sleeper func(time.Duration)
	log     logrus.FieldLogger
}

// Option customizes a Policy.
type Option func(*Policy)

// WithFactor overrides the backoff multiplier (defaults to 2).
func WithFactor(factor float64) Option {
	return func(p *Policy) {
		p.Factor = factor
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(p *Policy) {
		p.sleeper = sleeper
	}
}

// WithLogger sets the logger used for retry warnings.
func WithLogger(log logrus.FieldLogger) Option {
	return func(p *Policy) {
		p.log = log
	}
}

// New builds a policy. Non-positive values fall back to the defaults.
func New(attempts int, baseDelay time.Duration, opts ...Option) Policy {
	p := Policy{
		Attempts:  attempts,
		BaseDelay: baseDelay,
		Factor:    DefaultFactor,
	}
	for _, opt := range opts {
		opt(&p)
	}
	if p.Attempts <= 0 {
		p.Attempts = DefaultAttempts
	}
	if p.BaseDelay < 0 {
		p.BaseDelay = DefaultBaseDelay
	}
	if p.Factor < 1 {
		p.Factor = DefaultFactor
	}
	return p
}

// ExhaustedError is returned when every attempt failed.
type ExhaustedError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s failed after %d attempts: %v", e.Op, e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying. Do returns it immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// Delay returns the wait before the given retry (1-based).
func (p Policy) Delay(retry int) time.Duration {
	if retry < 1 {
		retry = 1
	}
	delay := float64(p.BaseDelay)
	for i := 1; i < retry; i++ {
		delay *= p.Factor
	}
	return time.Duration(delay)
}

// Do calls fn until it succeeds, the attempts run out, or ctx is done.
func Do[T any](ctx context.Context, p Policy, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if IsPermanent(err) {
			var perm *permanentError
			errors.As(err, &perm)
			return zero, perm.err
		}
		if attempt == attempts {
			break
		}

		delay := p.Delay(attempt)
		if p.log != nil {
			p.log.WithFields(logrus.Fields{
				"op":      op,
				"attempt": attempt,
				"delay":   delay,
			}).Warnf("%s failed (%v), retrying", op, err)
		}
		if err := p.sleep(ctx, delay); err != nil {
			return zero, err
		}
	}

	if p.log != nil {
		p.log.WithField("op", op).Errorf("%s failed after %d attempts: %v", op, attempts, lastErr)
	}
	return zero, &ExhaustedError{Op: op, Attempts: attempts, Err: lastErr}
}

// Run is Do for operations without a result.
func (p Policy) Run(ctx context.Context, op string, fn func(context.Context) error) error {
	_, err := Do(ctx, p, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

func (p Policy) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if p.sleeper != nil {
		p.sleeper(delay)
		return ctx.Err()
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
