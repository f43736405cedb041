package llm

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryPolicy_StopsOnSuccess(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, Retryable: IsRetryable}
	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 2 {
			return ErrRateLimited
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestRetryPolicy_NonRetryableFailsFast(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, Retryable: IsRetryable}
	boom := errors.New("boom")
	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected single call, got %d", calls)
	}
}

func TestRetryPolicy_ExhaustsAttempts(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, Retryable: IsRetryable}
	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return ErrEmptyResponse
	})
	if !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestRetryPolicy_RespectsContextCancellation(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 5, BaseDelay: time.Minute, Retryable: IsRetryable}
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := p.Do(ctx, func(context.Context) error {
		calls++
		return ErrRateLimited
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call before cancellation, got %d", calls)
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(ErrRateLimited) || !IsRetryable(ErrEmptyResponse) {
		t.Fatal("sentinel errors must be retryable")
	}
	if IsRetryable(errors.New("schema error")) {
		t.Fatal("arbitrary errors must not be retryable")
	}
}
