// Package retry runs fallible upstream calls with exponential backoff.
//
// Failures are classified by Classify, a pure function over the error value:
// client errors other than 429 and unrecognized failures are fatal and returned
// untouched; 429, 5xx and transport failures are retried with a delay that
// doubles after every attempt. A 429 carrying a retry-after hint waits for the
// larger of the hint and the current backoff delay.
package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"
	"time"

	"sa-match-gateway/internal/constants"

	"github.com/rs/zerolog"
	goretry "github.com/sethvargo/go-retry"
)

type Class int

const (
	Fatal Class = iota
	Retryable
)

func (c Class) String() string {
	if c == Retryable {
		return "retryable"
	}
	return "fatal"
}

type statusCoder interface {
	StatusCode() int
}

type retryAfterHinter interface {
	RetryAfter() time.Duration
}

type transportFailure interface {
	Transport() bool
}

// Classify decides whether err is worth another attempt.
func Classify(err error) Class {
	if err == nil {
		return Fatal
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Fatal
	}

	var sc statusCoder
	if errors.As(err, &sc) {
		status := sc.StatusCode()
		switch {
		case status == http.StatusTooManyRequests:
			return Retryable
		case status >= 500 && status <= 599:
			return Retryable
		default:
			return Fatal
		}
	}

	var tf transportFailure
	if errors.As(err, &tf) && tf.Transport() {
		return Retryable
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return Retryable
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, io.ErrUnexpectedEOF) {
		return Retryable
	}

	return Fatal
}

// RetryAfterHint extracts the server-suggested delay from a rate-limited error.
func RetryAfterHint(err error) time.Duration {
	var sc statusCoder
	if !errors.As(err, &sc) || sc.StatusCode() != http.StatusTooManyRequests {
		return 0
	}
	var h retryAfterHinter
	if errors.As(err, &h) {
		return h.RetryAfter()
	}
	return 0
}

// NextDelay returns the wait before the next attempt given the current backoff delay.
func NextDelay(current time.Duration, err error) time.Duration {
	if hint := RetryAfterHint(err); hint > current {
		return hint
	}
	return current
}

// ExhaustedError is returned once every retry has failed with a retryable error.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// CanceledError reports that the caller's context ended the operation.
type CanceledError struct {
	Attempts int
	Err      error
}

func (e *CanceledError) Error() string {
	return fmt.Sprintf("canceled after %d attempts: %v", e.Attempts, e.Err)
}

func (e *CanceledError) Unwrap() error {
	return e.Err
}

type Executor struct {
	maxRetries   int
	initialDelay time.Duration
	logger       zerolog.Logger
}

func NewExecutor(maxRetries int, initialDelay time.Duration, logger zerolog.Logger) *Executor {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if initialDelay <= 0 {
		initialDelay = constants.DefaultInitialDelay
	}
	return &Executor{maxRetries: maxRetries, initialDelay: initialDelay, logger: logger}
}

// Do runs op until it succeeds, fails fatally, exhausts retries, or ctx ends.
// The backoff wait blocks the calling goroutine.
func (e *Executor) Do(ctx context.Context, op func(ctx context.Context) error) error {
	var (
		attempts  int
		retries   int
		exhausted bool
		lastErr   error
	)

	exponential := goretry.NewExponential(e.initialDelay)
	backoff := goretry.BackoffFunc(func() (time.Duration, bool) {
		if retries >= e.maxRetries {
			exhausted = true
			return 0, true
		}
		retries++
		current, _ := exponential.Next()
		wait := NextDelay(current, lastErr)
		e.logger.Warn().
			Err(lastErr).
			Int("attempt", attempts).
			Dur("delay", wait).
			Msg("retrying upstream call")
		return wait, false
	})

	err := goretry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		err := op(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() == nil && Classify(err) == Retryable {
			lastErr = err
			return goretry.RetryableError(err)
		}
		return err
	})

	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return &CanceledError{Attempts: attempts, Err: ctx.Err()}
	case exhausted:
		return &ExhaustedError{Attempts: attempts, Last: lastErr}
	default:
		return err
	}
}
