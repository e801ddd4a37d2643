package retry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"sa-match-gateway/internal/api"

	"github.com/bmizerany/assert"
	"github.com/rs/zerolog"
)

func newTestExecutor(maxRetries int) *Executor {
	return NewExecutor(maxRetries, time.Millisecond, zerolog.Nop())
}

func TestClassify(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected Class
	}{
		{"400", &api.StatusError{Status: http.StatusBadRequest}, Fatal},
		{"404", &api.StatusError{Status: http.StatusNotFound}, Fatal},
		{"429", &api.StatusError{Status: http.StatusTooManyRequests}, Retryable},
		{"500", &api.StatusError{Status: http.StatusInternalServerError}, Retryable},
		{"503 wrapped", fmt.Errorf("list: %w", &api.StatusError{Status: http.StatusServiceUnavailable}), Retryable},
		{"transport", &api.TransportError{Err: errors.New("dial tcp: connection refused")}, Retryable},
		{"canceled", context.Canceled, Fatal},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), Fatal},
		{"unknown", errors.New("decode: unexpected token"), Fatal},
		{"nil", nil, Fatal},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.expected, Classify(testCase.err))
		})
	}
}

func TestNextDelay_UsesLargerOfHintAndBackoff(t *testing.T) {
	rateLimited := &api.StatusError{Status: http.StatusTooManyRequests, Hint: 3 * time.Second}

	assert.Equal(t, 3*time.Second, NextDelay(time.Second, rateLimited))
	assert.Equal(t, 8*time.Second, NextDelay(8*time.Second, rateLimited))

	serverError := &api.StatusError{Status: http.StatusInternalServerError, Hint: 3 * time.Second}
	assert.Equal(t, time.Second, NextDelay(time.Second, serverError))
}

func TestDo_RetriesServerErrorsThenSucceeds(t *testing.T) {
	executor := newTestExecutor(3)
	calls := 0

	err := executor.Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return &api.StatusError{Status: http.StatusInternalServerError}
		}
		return nil
	})

	assert.Equal(t, nil, err)
	assert.Equal(t, 3, calls)
}

func TestDo_FatalErrorIsNotRetried(t *testing.T) {
	executor := newTestExecutor(3)
	calls := 0
	original := &api.StatusError{Status: http.StatusBadRequest, Body: "bad ouid"}

	err := executor.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return original
	})

	assert.Equal(t, 1, calls)
	if err != original {
		t.Errorf("Expected original error to be propagated unchanged, got %v", err)
	}
}

func TestDo_UnknownErrorIsNotRetried(t *testing.T) {
	executor := newTestExecutor(3)
	calls := 0

	err := executor.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errors.New("unexpected payload")
	})

	assert.Equal(t, 1, calls)
	assert.NotEqual(t, nil, err)
}

func TestDo_ExhaustsRetries(t *testing.T) {
	executor := newTestExecutor(2)
	calls := 0

	err := executor.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return &api.StatusError{Status: http.StatusBadGateway}
	})

	assert.Equal(t, 3, calls)

	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("Expected ExhaustedError, got %v", err)
	}
	assert.Equal(t, 3, exhausted.Attempts)

	var statusError *api.StatusError
	if !errors.As(err, &statusError) || statusError.Status != http.StatusBadGateway {
		t.Errorf("Expected last error to be wrapped, got %v", exhausted.Last)
	}
}

func TestDo_BackoffDoubles(t *testing.T) {
	executor := NewExecutor(3, 20*time.Millisecond, zerolog.Nop())
	var stamps []time.Time

	executor.Do(context.Background(), func(ctx context.Context) error {
		stamps = append(stamps, time.Now())
		return &api.TransportError{Err: errors.New("reset")}
	})

	if len(stamps) != 4 {
		t.Fatalf("Expected 4 attempts, got %d", len(stamps))
	}
	minimums := []time.Duration{20 * time.Millisecond, 40 * time.Millisecond, 80 * time.Millisecond}
	for i, minimum := range minimums {
		if gap := stamps[i+1].Sub(stamps[i]); gap < minimum {
			t.Errorf("Expected gap %d to be at least %s, got %s", i, minimum, gap)
		}
	}
}

func TestDo_RateLimitHonorsLargerHint(t *testing.T) {
	executor := NewExecutor(1, time.Millisecond, zerolog.Nop())
	var stamps []time.Time

	executor.Do(context.Background(), func(ctx context.Context) error {
		stamps = append(stamps, time.Now())
		return &api.StatusError{Status: http.StatusTooManyRequests, Hint: 50 * time.Millisecond}
	})

	if len(stamps) != 2 {
		t.Fatalf("Expected 2 attempts, got %d", len(stamps))
	}
	if gap := stamps[1].Sub(stamps[0]); gap < 50*time.Millisecond {
		t.Errorf("Expected wait of at least the hinted 50ms, got %s", gap)
	}
}

func TestDo_CancellationDuringBackoff(t *testing.T) {
	executor := NewExecutor(5, time.Second, zerolog.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	calls := 0

	started := time.Now()
	err := executor.Do(ctx, func(ctx context.Context) error {
		calls++
		return &api.StatusError{Status: http.StatusServiceUnavailable}
	})

	if time.Since(started) > 500*time.Millisecond {
		t.Error("Expected cancellation to interrupt the backoff wait")
	}
	assert.Equal(t, 1, calls)

	var canceled *CanceledError
	if !errors.As(err, &canceled) {
		t.Fatalf("Expected CanceledError, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded in chain, got %v", err)
	}
	var exhausted *ExhaustedError
	if errors.As(err, &exhausted) {
		t.Error("Cancellation must not be reported as exhaustion")
	}
}

func TestDo_ZeroRetries(t *testing.T) {
	executor := newTestExecutor(0)
	calls := 0

	err := executor.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return &api.StatusError{Status: http.StatusInternalServerError}
	})

	assert.Equal(t, 1, calls)
	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Errorf("Expected ExhaustedError, got %v", err)
	}
}
