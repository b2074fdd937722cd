package engine

import (
	"math"
	"math/rand"
	"time"
)

// backoffPolicy computes exponential backoff with jitter for node retries,
// grounded on the teacher's calculateRetryDelay but sourcing jitter from
// math/rand instead of a nanosecond-time modulus.
type backoffPolicy struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       bool
}

func defaultBackoffPolicy() backoffPolicy {
	return backoffPolicy{
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
}

// delay returns the wait before retry attempt (1-indexed).
func (p backoffPolicy) delay(attempt int) time.Duration {
	d := float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(attempt-1))
	if d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}
	if p.Jitter {
		jitterAmount := d * 0.1
		d += (rand.Float64()*2 - 1) * jitterAmount
		if d < 0 {
			d = 0
		}
	}
	return time.Duration(d)
}
