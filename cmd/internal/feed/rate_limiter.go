package feed

import (
	"time"

	"golang.org/x/time/rate"
)

// newFrameLimiter bounds inbound frames to events per window, with a burst of events.
// A non-positive budget disables the limit.
func newFrameLimiter(events int, window time.Duration) *rate.Limiter {
	if events <= 0 || window <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(float64(events)/window.Seconds()), events)
}
