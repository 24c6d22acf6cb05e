package backoff

import "time"

// Default policy values
const (
	DefaultBase        = 1 * time.Second
	DefaultCap         = 30 * time.Second
	DefaultMaxAttempts = 3
	DefaultWindow      = 5 * time.Second
)

// Policy maps attempt counts to delays and decides when to stop retrying.
// It is pure: it holds configuration only and never mutates state, so one
// instance is safely shared by every coordinator.
type Policy struct {
	Base        time.Duration // delay before attempt 2 (attempt 1 is immediate)
	Cap         time.Duration // upper bound on the computed delay, 0 = uncapped
	MaxAttempts int           // give up once attempts exceed this ceiling
	Window      time.Duration // attempts this close to the previous one count against the ceiling
}

// NewPolicy returns a policy with the default ceiling and delays
func NewPolicy() Policy {
	return Policy{
		Base:        DefaultBase,
		Cap:         DefaultCap,
		MaxAttempts: DefaultMaxAttempts,
		Window:      DefaultWindow,
	}
}

// DelayFor returns base * 2^(attempt-1), capped. Attempts below 1 are
// treated as the first attempt.
func (p Policy) DelayFor(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := p.Base
	for i := 1; i < attempt; i++ {
		d *= 2
		if p.Cap > 0 && d >= p.Cap {
			return p.Cap
		}
	}
	if p.Cap > 0 && d > p.Cap {
		return p.Cap
	}
	return d
}

// ShouldGiveUp reports whether the caller must stop retrying. The window is
// measured against the previous attempt's timestamp, not a fixed window
// boundary: an attempt landing just past an arbitrary boundary would
// otherwise reset the count and let a hot loop retry forever.
func (p Policy) ShouldGiveUp(attempt int, lastAttemptAt, now time.Time) bool {
	if attempt <= p.MaxAttempts {
		return false
	}
	if lastAttemptAt.IsZero() {
		return false
	}
	return now.Sub(lastAttemptAt) < p.Window
}
