// Package timing is the single authority on elapsed and remaining session
// time. Every expiry decision in the engine goes through Remaining; client
// reported elapsed values are never trusted.
package timing

import "time"

// Elapsed returns how long a session has been running at the given instant.
// Negative values (clock skew between writers) clamp to zero.
func Elapsed(serverStartTime, now time.Time) time.Duration {
	d := now.Sub(serverStartTime)
	if d < 0 {
		return 0
	}
	return d
}

// Remaining returns the time left on a session at the given instant,
// clamped at zero.
func Remaining(serverStartTime time.Time, durationSeconds int, now time.Time) time.Duration {
	left := time.Duration(durationSeconds)*time.Second - Elapsed(serverStartTime, now)
	if left < 0 {
		return 0
	}
	return left
}

// RemainingSeconds is Remaining truncated to whole seconds, for API payloads.
func RemainingSeconds(serverStartTime time.Time, durationSeconds int, now time.Time) int {
	return int(Remaining(serverStartTime, durationSeconds, now) / time.Second)
}

// Expired reports whether a session's time allowance is used up.
func Expired(serverStartTime time.Time, durationSeconds int, now time.Time) bool {
	return Remaining(serverStartTime, durationSeconds, now) == 0
}
