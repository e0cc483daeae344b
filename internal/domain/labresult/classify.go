package labresult

import "math"

const (
	critLowFactor  = 0.7
	critHighFactor = 1.3
)

// Classify grades value against [low, high]. Values more than 30% below low
// or above high are critical; both critical bounds are exclusive. A NaN in
// any input yields StatusNormal.
func Classify(value, low, high float64) Status {
	if math.IsNaN(value) || math.IsNaN(low) || math.IsNaN(high) {
		return StatusNormal
	}

	switch {
	case value < low:
		if value < low*critLowFactor {
			return StatusCritLow
		}
		return StatusLow
	case value > high:
		if value > high*critHighFactor {
			return StatusCritHigh
		}
		return StatusHigh
	}
	return StatusNormal
}
