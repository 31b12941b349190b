package humanize

import (
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// ErrInvalidRange is returned when a range has Max < Min or a negative bound.
var ErrInvalidRange = errors.New("invalid range")

// Range is a closed interval of durations that delays are drawn from.
// A zero-width range (Min == Max) always yields Min.
type Range struct {
	Min time.Duration `yaml:"min"`
	Max time.Duration `yaml:"max"`
}

// Between creates a new Range
func Between(min, max time.Duration) Range {
	return Range{Min: min, Max: max}
}

// Fixed returns a zero-width range
func Fixed(d time.Duration) Range {
	return Range{Min: d, Max: d}
}

// Draw returns a uniformly distributed duration in [Min, Max].
func (r Range) Draw(rng *rand.Rand) time.Duration {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + time.Duration(rng.Int63n(int64(r.Max-r.Min)+1))
}

// Validate checks that the bounds are ordered and non-negative.
func (r Range) Validate() error {
	if r.Min < 0 || r.Max < 0 {
		return fmt.Errorf("%w: negative bound [%v, %v]", ErrInvalidRange, r.Min, r.Max)
	}
	if r.Max < r.Min {
		return fmt.Errorf("%w: max %v below min %v", ErrInvalidRange, r.Max, r.Min)
	}
	return nil
}

func (r Range) String() string {
	if r.Min == r.Max {
		return r.Min.String()
	}
	return fmt.Sprintf("%v-%v", r.Min, r.Max)
}
