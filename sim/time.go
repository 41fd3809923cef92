package sim

import (
	"math"
	"strconv"
)

// Time is a point on the simulation time axis. Infinity means "no scheduled event".
type Time float64

// Infinity is the time of next event of a passive model.
var Infinity = Time(math.Inf(1))

// IsInfinite reports whether t is the passive sentinel.
func (t Time) IsInfinite() bool {
	return math.IsInf(float64(t), 1)
}

func (t Time) String() string {
	if t.IsInfinite() {
		return "inf"
	}
	return strconv.FormatFloat(float64(t), 'g', -1, 64)
}

// minTime returns the smaller of a and b.
func minTime(a, b Time) Time {
	if a < b {
		return a
	}
	return b
}
