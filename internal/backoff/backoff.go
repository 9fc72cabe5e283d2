package backoff

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/nao1215/wikibinder/internal/model"
)

// Default policy values.
const (
	// DefaultMaxAttempts is the total number of attempts, including the first.
	DefaultMaxAttempts = 3

	// DefaultBaseDelay is multiplied by 2^attempt to get the retry delay.
	DefaultBaseDelay = 1 * time.Second

	// DefaultMaxDelay caps the exponential part of the delay.
	DefaultMaxDelay = 30 * time.Second
)

// Class is the retry classification of an error.
type Class int

const (
	// Retryable errors are retried while attempts remain.
	Retryable Class = iota
	// Fatal errors abort immediately.
	Fatal
)

// String returns the class name.
func (c Class) String() string {
	if c == Fatal {
		return "fatal"
	}
	return "retryable"
}

// Policy configures Do.
type Policy struct {
	// MaxAttempts is the total number of attempts. Values below 1 are
	// treated as 1.
	MaxAttempts int

	// BaseDelay is the delay unit; attempt n waits BaseDelay * 2^n.
	BaseDelay time.Duration

	// MaxDelay caps the exponential part. Zero means no cap.
	MaxDelay time.Duration

	// Jitter returns the random component added to every delay.
	// Defaults to a uniform value in [0, 1s).
	Jitter func() time.Duration

	// Sleep waits for d or until ctx is done. Tests replace it to avoid
	// real delays.
	Sleep func(ctx context.Context, d time.Duration) error

	// Logger receives one record per attempt.
	Logger *slog.Logger
}

// DefaultPolicy returns the policy used when nothing is configured.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		MaxDelay:    DefaultMaxDelay,
	}
}

// WithLogger returns a copy of p that logs to logger.
func (p Policy) WithLogger(logger *slog.Logger) Policy {
	p.Logger = logger
	return p
}

// Delay returns the wait before the retry that follows attempt
// (0-indexed): BaseDelay * 2^attempt, capped at MaxDelay, plus jitter.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 30 {
		attempt = 30
	}
	d := p.BaseDelay * time.Duration(1<<uint(attempt))
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d + p.jitter()
}

func (p Policy) jitter() time.Duration {
	if p.Jitter != nil {
		return p.Jitter()
	}
	return time.Duration(rand.Int64N(int64(time.Second)))
}

func (p Policy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (p Policy) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// Classify returns the retry class of err.
func Classify(err error) Class {
	var (
		rateLimit *model.RateLimitError
		jobFail   *model.JobFailureError
	)
	switch {
	case errors.As(err, &rateLimit):
		return Fatal
	case errors.As(err, &jobFail):
		return Fatal
	case model.IsPermanent(err):
		return Fatal
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return Fatal
	default:
		return Retryable
	}
}

// Do runs fn until it succeeds, a fatal error occurs, or the attempt
// budget is spent. op names the operation in logs and errors.
func Do[T any](ctx context.Context, p Policy, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	log := p.logger()

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		log.Debug("attempt", "op", op, "attempt", attempt+1, "max_attempts", attempts)

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if Classify(err) == Fatal {
			log.Error("fatal error, not retrying", "op", op, "attempt", attempt+1, "error", err)
			return zero, err
		}

		if attempt == attempts-1 {
			break
		}

		delay := p.Delay(attempt)
		log.Warn("retryable error",
			"op", op,
			"attempt", attempt+1,
			"delay", delay,
			"error", err,
		)
		if err := p.sleep(ctx, delay); err != nil {
			return zero, err
		}
	}

	log.Error("retries exhausted", "op", op, "attempts", attempts, "error", lastErr)
	return zero, &model.RetriesExhaustedError{Op: op, Attempts: attempts, Last: lastErr}
}

// Run is Do for operations without a result value.
func Run(ctx context.Context, p Policy, op string, fn func(ctx context.Context) error) error {
	_, err := Do(ctx, p, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}
