package score

import (
	"math"

	"github.com/mchmarny/rimecast/pkg/weather"
	"gonum.org/v1/gonum/interp"
)

const maxHumidity = 100.0

// Rime returns the rime formation rate for every aspect at one sample.
// The temperature, humidity and wind factors must all be favorable for any
// rime to form; the aspect factor then distributes it around the compass.
func Rime(cfg Config, s weather.Sample) AspectRates {
	var rates AspectRates

	base := RimeTemperatureFactor(cfg.Rime, s) *
		RimeHumidityFactor(cfg.Rime, s) *
		RimeWindFactor(cfg.Rime, s)
	if base == 0 {
		return rates
	}

	for _, a := range Aspects {
		rates[a] = clamp01(base * RimeAspectFactor(cfg.Rime, s, a))
	}

	return rates
}

// RimeTemperatureFactor is a trapezoid: 0 outside the viable band, rising
// linearly to 1 across the optimal band and falling back to 0.
func RimeTemperatureFactor(cfg RimeConfig, s weather.Sample) float64 {
	t, ok := s.Temp()
	if !ok || math.IsNaN(t) {
		return 0
	}
	if t <= cfg.TempViableMin || t >= cfg.TempViableMax {
		return 0
	}

	xs := []float64{cfg.TempViableMin, cfg.TempOptimalMin}
	ys := []float64{0, 1}
	if cfg.TempOptimalMax > cfg.TempOptimalMin {
		xs = append(xs, cfg.TempOptimalMax)
		ys = append(ys, 1)
	}
	xs = append(xs, cfg.TempViableMax)
	ys = append(ys, 0)

	for i := 1; i < len(xs); i++ {
		if xs[i] <= xs[i-1] {
			return 0
		}
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, ys); err != nil {
		return 0
	}

	return clamp01(pl.Predict(t))
}

// RimeHumidityFactor is 0 below the threshold and linear to 1 at saturation.
func RimeHumidityFactor(cfg RimeConfig, s weather.Sample) float64 {
	h, ok := s.RH()
	if !ok {
		return 0
	}
	h = clamp(h, 0, maxHumidity)
	if h < cfg.HumidityThreshold {
		return 0
	}
	return linearRamp(h, cfg.HumidityThreshold, maxHumidity)
}

// RimeWindFactor grows linearly with wind speed up to the saturation speed.
func RimeWindFactor(cfg RimeConfig, s weather.Sample) float64 {
	v, ok := s.Wind()
	if !ok || cfg.WindSaturation <= 0 {
		return 0
	}
	return clamp01(math.Max(0, v) / cfg.WindSaturation)
}

// RimeAspectFactor is 1 for the face pointing into the wind, easing with the
// cosine of the angle off the wind down to the leeward floor at 90° and beyond.
// Without a wind direction every face gets the floor.
func RimeAspectFactor(cfg RimeConfig, s weather.Sample, a Aspect) float64 {
	floor := clamp01(cfg.LeewardFloor)
	from, ok := s.WindFrom()
	if !ok || math.IsNaN(from) {
		return floor
	}

	d := angularDistance(a.Bearing(), from) * math.Pi / 180
	return floor + (1-floor)*math.Max(0, math.Cos(d))
}
