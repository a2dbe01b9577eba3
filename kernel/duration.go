package kernel

import (
	"time"

	"golang.org/x/exp/constraints"
)

// Duration is a tick-granular time span used throughout the kernel's
// public API (Wait timeouts, TickInterval configuration). It is backed by
// time.Duration so it composes with the standard library, but is named
// distinctly because the kernel only ever observes time in whole tick
// increments of its millisecond counter.
type Duration = time.Duration

// The literal constructors accept any integer type, so configuration
// structs holding uint32 millisecond counts (the kernel's native unit)
// compose without casts.

// Ms returns a Duration of n milliseconds.
func Ms[T constraints.Integer](n T) Duration { return time.Duration(n) * time.Millisecond }

// Secs returns a Duration of n seconds.
func Secs[T constraints.Integer](n T) Duration { return time.Duration(n) * time.Second }

// Mins returns a Duration of n minutes.
func Mins[T constraints.Integer](n T) Duration { return time.Duration(n) * time.Minute }

// Hrs returns a Duration of n hours.
func Hrs[T constraints.Integer](n T) Duration { return time.Duration(n) * time.Hour }

// Days returns a Duration of n days.
func Days[T constraints.Integer](n T) Duration { return time.Duration(n) * 24 * time.Hour }

// Wks returns a Duration of n weeks.
func Wks[T constraints.Integer](n T) Duration { return time.Duration(n) * 7 * 24 * time.Hour }
