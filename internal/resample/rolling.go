package resample

import (
	"database/sql"
	"math"
)

// MovingAverage computes the trailing mean over span consecutive buckets.
//
// The value at index i covers buckets i-span+1 through i. It is missing when
// the window reaches before the first bucket or when any bucket inside the
// window is missing; partial windows are never averaged. Each window is
// summed on its own so an extreme value only affects the windows holding it.
// A window whose mean is NaN (+Inf next to -Inf) is missing.
func MovingAverage(values []sql.NullFloat64, span int) []sql.NullFloat64 {
	out := make([]sql.NullFloat64, len(values))
	if span < 1 {
		return out
	}

	lastMissing := -1
	for i, v := range values {
		if !v.Valid {
			lastMissing = i
		}
		if i+1 < span || lastMissing > i-span {
			continue
		}

		var sum float64
		for _, w := range values[i-span+1 : i+1] {
			sum += w.Float64
		}
		mean := sum / float64(span)
		if math.IsNaN(mean) {
			continue
		}
		out[i] = sql.NullFloat64{Float64: mean, Valid: true}
	}

	return out
}
