package org

import (
	"context"
	"testing"
	"time"
)

type countingProvider struct {
	calls int
}

func (p *countingProvider) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	p.calls++
	return ChatResponse{Content: "ok"}, nil
}

func (p *countingProvider) Name() string { return "counting" }

func TestWithRateLimit_PassesThroughName(t *testing.T) {
	inner := &countingProvider{}
	p := WithRateLimit(inner, RPM(60))
	if p.Name() != "counting" {
		t.Errorf("expected name passthrough, got %q", p.Name())
	}
}

func TestWithRateLimit_AllowsBurst(t *testing.T) {
	inner := &countingProvider{}
	p := WithRateLimit(inner, RPM(60)) // burst == 60

	for i := 0; i < 5; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		if _, err := p.Chat(ctx, ChatRequest{}); err != nil {
			t.Fatalf("unexpected error on call %d: %v", i, err)
		}
		cancel()
	}
	if inner.calls != 5 {
		t.Errorf("expected 5 calls to reach the inner provider, got %d", inner.calls)
	}
}

func TestWithRateLimit_ContextCancelledWhileWaiting(t *testing.T) {
	inner := &countingProvider{}
	p := WithRateLimit(inner, RPM(1)) // burst == 1, so the 2nd call must wait ~60s

	ctx1, cancel1 := context.WithTimeout(context.Background(), time.Second)
	defer cancel1()
	if _, err := p.Chat(ctx1, ChatRequest{}); err != nil {
		t.Fatalf("unexpected error on first call: %v", err)
	}

	ctx2, cancel2 := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel2()
	if _, err := p.Chat(ctx2, ChatRequest{}); err == nil {
		t.Error("expected the second call to fail waiting on the limiter within a short deadline")
	}
}

func TestWithRateLimit_NoOptionsIsUnlimited(t *testing.T) {
	inner := &countingProvider{}
	p := WithRateLimit(inner)
	for i := 0; i < 100; i++ {
		if _, err := p.Chat(context.Background(), ChatRequest{}); err != nil {
			t.Fatalf("unexpected error on call %d: %v", i, err)
		}
	}
}
