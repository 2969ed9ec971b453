package models

import "time"

// RateLimitResult describes one sliding-window decision. ResetAt is unix
// milliseconds so callers can derive Retry-After without another clock read.
type RateLimitResult struct {
	Success   bool  `json:"success"`
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	ResetAt   int64 `json:"reset_at"`
}

// RetryAfterSeconds converts the reset timestamp into a Retry-After value,
// never below one second.
func (r RateLimitResult) RetryAfterSeconds(now time.Time) int {
	secs := (r.ResetAt - now.UnixMilli() + 999) / 1000
	if secs < 1 {
		secs = 1
	}
	return int(secs)
}
