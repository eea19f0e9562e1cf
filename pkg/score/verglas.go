package score

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/mchmarny/rimecast/pkg/weather"
)

// ErrUnorderedWindow is returned when a verglas window is not time-sorted.
var ErrUnorderedWindow = errors.New("verglas window is not in strictly increasing time order")

// MeltFreezeState is the melt-freeze evidence found in one lookback window.
// It is derived from the window on every call and never cached.
type MeltFreezeState struct {
	Time         time.Time `json:"time" yaml:"time"`
	HistoryHours float64   `json:"history_hours" yaml:"history_hours"`
	Sufficient   bool      `json:"sufficient" yaml:"sufficient"`
	MeltSamples  int       `json:"melt_samples" yaml:"melt_samples"`
	MeltWeight   float64   `json:"melt_weight" yaml:"melt_weight"`
	MeltRainMM   float64   `json:"melt_rain_mm" yaml:"melt_rain_mm"`
	Refreeze     float64   `json:"refreeze" yaml:"refreeze"`
	MeltHistory  float64   `json:"melt_history" yaml:"melt_history"`
	Rain         float64   `json:"rain" yaml:"rain"`
	Rate         float64   `json:"rate" yaml:"rate"`
}

// Verglas returns the verglas formation rate at the last sample of window.
// window must be ordered oldest to newest; samples older than the lookback
// are ignored, a sample exactly lookback old is included. Too little history yields 0 without an error.
func Verglas(cfg Config, window []weather.Sample) (float64, error) {
	st, err := MeltFreeze(cfg, window)
	if err != nil {
		return 0, err
	}
	return st.Rate, nil
}

// MeltFreeze evaluates the melt-freeze factors of window.
func MeltFreeze(cfg Config, window []weather.Sample) (MeltFreezeState, error) {
	var st MeltFreezeState
	if len(window) == 0 {
		return st, nil
	}

	if err := weather.ValidateOrder(window); err != nil {
		return st, fmt.Errorf("%w: %w", ErrUnorderedWindow, err)
	}

	vc := cfg.Verglas
	current := window[len(window)-1]
	st.Time = current.Time

	lookback := time.Duration(vc.LookbackHours) * time.Hour
	var oldest time.Time
	for _, s := range window {
		if current.Time.Sub(s.Time) <= lookback {
			oldest = s.Time
			break
		}
	}
	st.HistoryHours = current.Time.Sub(oldest).Hours()
	st.Sufficient = st.HistoryHours >= float64(vc.MinHistoryHours)
	if !st.Sufficient {
		return st, nil
	}

	st.Refreeze = refreezeFactor(vc, current)
	if st.Refreeze == 0 {
		return st, nil
	}

	for _, s := range window {
		age := current.Time.Sub(s.Time)
		if age < 0 || age > lookback {
			continue
		}

		t, ok := s.Temp()
		if !ok || math.IsNaN(t) || t <= vc.MeltThreshold {
			continue
		}

		st.MeltSamples++
		intensity := clamp01((t - vc.MeltThreshold) / vc.MeltIntensityScale)
		st.MeltWeight += halfLifeWeight(age.Hours(), vc.MeltHalfLifeHours) * intensity

		if p, ok := s.Precip(); ok && p > 0 {
			st.MeltRainMM += p
		}
	}

	if st.MeltSamples == 0 {
		return st, nil
	}

	st.MeltHistory = clamp01(st.MeltWeight / vc.MeltSaturation)
	st.Rain = clamp01(st.MeltRainMM / vc.RainSaturationMM)

	dry := clamp01(vc.DryFloor)
	base := st.Refreeze * st.MeltHistory
	st.Rate = clamp01(base * (dry + (1-dry)*st.Rain))

	return st, nil
}

// refreezeFactor is 0 at and above RefreezeStart and rises linearly to 1 at
// RefreezeFull and colder.
func refreezeFactor(vc VerglasConfig, s weather.Sample) float64 {
	t, ok := s.Temp()
	if !ok || math.IsNaN(t) || t >= vc.RefreezeStart {
		return 0
	}
	return linearRamp(t, vc.RefreezeStart, vc.RefreezeFull)
}
