package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenBucket(t *testing.T) {
	tb := NewTokenBucket(5, time.Second)

	for i := 0; i < 5; i++ {
		if !tb.Allow() {
			t.Errorf("Expected token %d to be available", i+1)
		}
	}

	if tb.Allow() {
		t.Error("Expected no more tokens to be available")
	}

	// One token every 200ms
	time.Sleep(250 * time.Millisecond)
	if !tb.Allow() {
		t.Error("Expected a token to be refilled after waiting")
	}
}

func TestTokenBucketWaitHonoursContext(t *testing.T) {
	tb := NewTokenBucket(1, time.Hour)
	assert.True(t, tb.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := tb.Wait(ctx)
	assert.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestUnlimited(t *testing.T) {
	tests := []struct {
		name string
		tb   *TokenBucket
	}{
		{"explicit", NewUnlimited()},
		{"zero rate", NewTokenBucket(0, time.Minute)},
		{"zero period", NewTokenBucket(10, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < 1000; i++ {
				if !tt.tb.Allow() {
					t.Fatalf("request %d denied by unlimited limiter", i)
				}
			}
			assert.NoError(t, tt.tb.Wait(context.Background()))
		})
	}
}

func TestLimiterInterface(t *testing.T) {
	var _ Limiter = NewTokenBucket(60, time.Minute)
	var _ Limiter = NewUnlimited()
}
