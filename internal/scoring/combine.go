package scoring

import "math"

// Combine returns the weighted sum of components over the rubric's weight
// keys, clamped to [0,1] and rounded to 3 decimals. Missing components count
// as 0 and each component is clamped to [0,1] first.
func Combine(components, weights map[string]float64) float64 {
	var sum float64
	for k, w := range weights {
		sum += clamp01(components[k]) * w
	}
	return round3(clamp01(sum))
}

// Confidence grows with the number of strictly positive components:
// min(1, 0.4 + 0.1*n), rounded to 3 decimals.
func Confidence(components map[string]float64) float64 {
	n := 0
	for _, v := range components {
		if v > 0 {
			n++
		}
	}
	return round3(math.Min(1.0, 0.4+0.1*float64(n)))
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
