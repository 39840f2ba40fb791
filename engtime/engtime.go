// Package engtime defines the engine's logical clock value: a totally
// ordered, monotonic timestamp with microsecond precision, plus the delta
// type used to advance it.
package engtime

import (
	"fmt"
	"time"
)

// Time is a totally-ordered, monotonic evaluation timestamp. It is stored
// as microseconds since the Unix epoch so that graphs built in simulation
// mode and graphs driven by wall time share the same representation.
type Time int64

// Delta is a signed offset between two Time values, in microseconds.
type Delta int64

const (
	// MinTime is the smallest representable Time, used as the "no value yet"
	// sentinel for last-modified timestamps.
	MinTime Time = -1 << 63 // math.MinInt64 without importing math
	// MaxTime is the largest representable Time, used as the "not scheduled"
	// sentinel in scheduler data structures.
	MaxTime Time = Time(^uint64(0) >> 1) // math.MaxInt64
	// MinTD is the smallest positive delta representable, one microsecond.
	// It is added to the evaluation time to schedule work "immediately after
	// this tick" without colliding with the current cycle.
	MinTD Delta = 1
)

// FromTime converts a wall-clock time.Time into an engine Time.
func FromTime(t time.Time) Time {
	return Time(t.UnixMicro())
}

// AsTime converts an engine Time back into a wall-clock time.Time, useful
// for logging and for the real-time clock's sleep computation.
func (t Time) AsTime() time.Time {
	return time.UnixMicro(int64(t))
}

// Add returns t advanced by d (d may be negative).
func (t Time) Add(d Delta) Time {
	return t + Time(d)
}

// Sub returns the delta between t and u (t - u).
func (t Time) Sub(u Time) Delta {
	return Delta(t - u)
}

// Before reports whether t is strictly earlier than u.
func (t Time) Before(u Time) bool { return t < u }

// After reports whether t is strictly later than u.
func (t Time) After(u Time) bool { return t > u }

// Valid reports whether t is not the MinTime sentinel.
func (t Time) Valid() bool { return t != MinTime }

func (t Time) String() string {
	if t == MinTime {
		return "MIN_ST"
	}
	if t == MaxTime {
		return "MAX_ST"
	}
	return fmt.Sprintf("%d", int64(t))
}

// Microseconds converts a duration to a Delta, truncating to microsecond
// precision as the data model requires.
func Microseconds(d time.Duration) Delta {
	return Delta(d.Microseconds())
}
