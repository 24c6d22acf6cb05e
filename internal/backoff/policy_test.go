package backoff

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDelayFor_ExponentialDoubling(t *testing.T) {
	p := Policy{Base: time.Second, Cap: 0}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 1 * time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{0, 1 * time.Second}, // clamped to first attempt
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, p.DelayFor(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestDelayFor_Cap(t *testing.T) {
	p := Policy{Base: time.Second, Cap: 5 * time.Second}

	assert.Equal(t, 4*time.Second, p.DelayFor(3))
	assert.Equal(t, 5*time.Second, p.DelayFor(4))
	assert.Equal(t, 5*time.Second, p.DelayFor(10))
}

func TestShouldGiveUp_UnderCeiling(t *testing.T) {
	p := NewPolicy()
	now := time.Now()

	assert.False(t, p.ShouldGiveUp(1, now, now))
	assert.False(t, p.ShouldGiveUp(3, now.Add(-time.Second), now))
}

func TestShouldGiveUp_OverCeilingWithinWindow(t *testing.T) {
	p := NewPolicy()
	now := time.Now()

	// 4th attempt 1s after the 3rd: inside the 5s window, give up
	assert.True(t, p.ShouldGiveUp(4, now.Add(-time.Second), now))
}

func TestShouldGiveUp_OverCeilingOutsideWindow(t *testing.T) {
	p := NewPolicy()
	now := time.Now()

	// Failures spaced out beyond the window are not a hot loop
	assert.False(t, p.ShouldGiveUp(4, now.Add(-10*time.Second), now))
}

func TestShouldGiveUp_MeasuresAgainstPreviousAttempt(t *testing.T) {
	p := Policy{MaxAttempts: 3, Window: 5 * time.Second}
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	// 4th attempt at t=12s, previous at t=9s: 3s gap, inside the window even
	// though t=12s is far past any fixed 5s boundary from t=0.
	assert.True(t, p.ShouldGiveUp(4, base.Add(9*time.Second), base.Add(12*time.Second)))
}

func TestShouldGiveUp_ZeroLastAttempt(t *testing.T) {
	p := NewPolicy()
	assert.False(t, p.ShouldGiveUp(10, time.Time{}, time.Now()))
}
