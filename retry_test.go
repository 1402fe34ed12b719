package org

import (
	"context"
	"errors"
	"testing"
	"time"
)

type flakyProvider struct {
	failures int
	err      error
	calls    int
}

func (p *flakyProvider) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	p.calls++
	if p.calls <= p.failures {
		return ChatResponse{}, p.err
	}
	return ChatResponse{Content: "ok"}, nil
}

func (p *flakyProvider) Name() string { return "flaky" }

func TestWithRetry_SucceedsAfterTransientFailures(t *testing.T) {
	inner := &flakyProvider{failures: 2, err: &ErrHTTP{Status: 429}}
	p := WithRetry(inner, RetryMaxAttempts(3), RetryBaseDelay(time.Millisecond))

	resp, err := p.Chat(context.Background(), ChatRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "ok" {
		t.Errorf("expected eventual success, got %+v", resp)
	}
	if inner.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", inner.calls)
	}
}

func TestWithRetry_GivesUpAfterMaxAttempts(t *testing.T) {
	inner := &flakyProvider{failures: 10, err: &ErrHTTP{Status: 503}}
	p := WithRetry(inner, RetryMaxAttempts(2), RetryBaseDelay(time.Millisecond))

	_, err := p.Chat(context.Background(), ChatRequest{})
	if err == nil {
		t.Fatal("expected an error after exhausting retries")
	}
	if inner.calls != 2 {
		t.Errorf("expected exactly 2 attempts, got %d", inner.calls)
	}
}

func TestWithRetry_NonTransientErrorFailsImmediately(t *testing.T) {
	inner := &flakyProvider{failures: 10, err: &ErrHTTP{Status: 400}}
	p := WithRetry(inner, RetryMaxAttempts(5), RetryBaseDelay(time.Millisecond))

	_, err := p.Chat(context.Background(), ChatRequest{})
	if err == nil {
		t.Fatal("expected an error")
	}
	if inner.calls != 1 {
		t.Errorf("expected no retries for a non-transient error, got %d calls", inner.calls)
	}
}

func TestWithRetry_ContextCancelledDuringBackoff(t *testing.T) {
	inner := &flakyProvider{failures: 10, err: &ErrHTTP{Status: 429}}
	p := WithRetry(inner, RetryMaxAttempts(5), RetryBaseDelay(50*time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := p.Chat(ctx, ChatRequest{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded, got %v", err)
	}
}

func TestIsTransient(t *testing.T) {
	if !isTransient(&ErrHTTP{Status: 429}) {
		t.Error("expected 429 to be transient")
	}
	if !isTransient(&ErrHTTP{Status: 503}) {
		t.Error("expected 503 to be transient")
	}
	if isTransient(&ErrHTTP{Status: 400}) {
		t.Error("expected 400 to not be transient")
	}
	if isTransient(errors.New("plain error")) {
		t.Error("expected a non-ErrHTTP error to not be transient")
	}
}

func TestRetryAfterOf_HonoredAsFloorOnDelay(t *testing.T) {
	d := retryAfterOf(&ErrHTTP{Status: 429, RetryAfter: 3})
	if d != 3*time.Second {
		t.Errorf("expected 3s, got %v", d)
	}
	if d := retryAfterOf(&ErrHTTP{Status: 429}); d != 0 {
		t.Errorf("expected 0 when RetryAfter is unset, got %v", d)
	}
	if d := retryDelay(time.Millisecond, 0, &ErrHTTP{Status: 429, RetryAfter: 3}); d != 3*time.Second {
		t.Errorf("expected Retry-After to floor the delay at 3s, got %v", d)
	}
}
