package score

import (
	"math"
)

const roundPrecision = 1000

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}

// normalizeBearing maps any bearing to [0, 360).
func normalizeBearing(b float64) float64 {
	b = math.Mod(b, 360)
	if b < 0 {
		b += 360
	}
	return b
}

// angularDistance returns the smallest angle (0-180) between two bearings.
func angularDistance(a, b float64) float64 {
	d := math.Abs(normalizeBearing(a) - normalizeBearing(b))
	if d > 180 {
		d = 360 - d
	}
	return d
}

// halfLifeWeight returns 2^(-age/halfLife).
func halfLifeWeight(age, halfLife float64) float64 {
	if halfLife <= 0 {
		return 0
	}
	return math.Exp2(-age / halfLife)
}

// linearRamp maps v from [from, to] onto [0, 1], clamped. from may be greater
// than to for a descending ramp.
func linearRamp(v, from, to float64) float64 {
	if from == to {
		if v >= to {
			return 1
		}
		return 0
	}
	return clamp01((v - from) / (to - from))
}

func round(v float64) float64 {
	return math.Round(v*roundPrecision) / roundPrecision
}
