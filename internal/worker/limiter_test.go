package worker

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewLimiter_Defaults(t *testing.T) {
	if l := NewLimiter(10, 3); l.burst != 3 {
		t.Errorf("expected burst 3, got %d", l.burst)
	}
	if l := NewLimiter(10, -1); l.burst != 5 {
		t.Errorf("expected default burst 5, got %d", l.burst)
	}
}

func TestLimiter_WaitPerHost(t *testing.T) {
	limiter := NewLimiter(0.001, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := limiter.Wait(ctx, "https://factchecktools.googleapis.com/v1alpha1/claims:search"); err != nil {
		t.Fatalf("first wait failed: %v", err)
	}
	// Another host has its own bucket
	if err := limiter.Wait(ctx, "https://api.semanticscholar.org/graph/v1/paper/search"); err != nil {
		t.Fatalf("other host should not wait: %v", err)
	}
	// Same host has no token left and cannot get one before the deadline
	if err := limiter.Wait(ctx, "https://factchecktools.googleapis.com/other"); err == nil {
		t.Error("expected exhausted host to fail within the deadline")
	}
}

func TestLimiter_WaitRejectsBadURL(t *testing.T) {
	if err := NewLimiter(1, 1).Wait(context.Background(), "::invalid"); err == nil {
		t.Error("expected error for invalid URL")
	}
}

func TestLimiter_WaitKeyWithDelay(t *testing.T) {
	limiter := NewLimiter(100, 1)

	start := time.Now()
	if err := limiter.WaitKeyWithDelay(context.Background(), "llm:openai", 30*time.Millisecond); err != nil {
		t.Fatalf("WaitKeyWithDelay failed: %v", err)
	}
	if time.Since(start) < 30*time.Millisecond {
		t.Errorf("expected delay >= 30ms, got %v", time.Since(start))
	}
}

func TestLimiter_ZeroRateIsUnlimited(t *testing.T) {
	limiter := NewLimiter(0, 1)
	for i := 0; i < 10; i++ {
		if !limiter.AllowKey("llm:ollama") {
			t.Fatalf("request %d should be allowed with unlimited rate", i)
		}
	}
}

func TestLimiter_AllowKey(t *testing.T) {
	limiter := NewLimiter(0.001, 1)
	if !limiter.AllowKey("client:10.0.0.1") {
		t.Fatal("first request should be allowed")
	}
	if limiter.AllowKey("client:10.0.0.1") {
		t.Error("second request should exceed the burst")
	}
	if !limiter.AllowKey("client:10.0.0.2") {
		t.Error("other keys have their own budget")
	}
}

func TestSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	if err := Sleep(ctx, time.Second); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("Sleep should return immediately on cancelled context")
	}

	if err := Sleep(context.Background(), 0); err != nil {
		t.Errorf("zero sleep should succeed, got %v", err)
	}
}
