package weather

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var (
	// ErrUnordered is returned when series timestamps are not strictly increasing.
	ErrUnordered = errors.New("samples are not in strictly increasing time order")
)

// Sample is a single hourly observation or forecast point.
// Nil fields were not reported by the source.
type Sample struct {
	Time          time.Time `json:"time" yaml:"time"`
	Temperature   *float64  `json:"temperature_c" yaml:"temperature_c"`
	Humidity      *float64  `json:"humidity_pct" yaml:"humidity_pct"`
	WindSpeed     *float64  `json:"wind_speed_ms" yaml:"wind_speed_ms"`
	WindDirection *float64  `json:"wind_direction_deg" yaml:"wind_direction_deg"`
	Precipitation *float64  `json:"precipitation_mm" yaml:"precipitation_mm"`
	CloudCover    *float64  `json:"cloud_cover_pct,omitempty" yaml:"cloud_cover_pct,omitempty"`
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

func value(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}

func (s Sample) Temp() (float64, bool) { return value(s.Temperature) }
func (s Sample) RH() (float64, bool) { return value(s.Humidity) }
func (s Sample) Wind() (float64, bool) { return value(s.WindSpeed) }
func (s Sample) WindFrom() (float64, bool) { return value(s.WindDirection) }
func (s Sample) Precip() (float64, bool) { return value(s.Precipitation) }
func (s Sample) Clouds() (float64, bool) { return value(s.CloudCover) }

// Series is the time-ordered sample list of one location.
type Series struct {
	Location string   `json:"location" yaml:"location"`
	Samples  []Sample `json:"samples" yaml:"samples"`
}

// Len returns the number of samples.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Samples)
}

// Sort orders the samples by time. Samples sharing a timestamp are reduced to
// the last one seen so the result is strictly increasing.
func (s *Series) Sort() {
	if s == nil || len(s.Samples) < 2 {
		return
	}

	sort.SliceStable(s.Samples, func(i, j int) bool {
		return s.Samples[i].Time.Before(s.Samples[j].Time)
	})

	out := s.Samples[:1]
	for _, smp := range s.Samples[1:] {
		if smp.Time.Equal(out[len(out)-1].Time) {
			out[len(out)-1] = smp
			continue
		}
		out = append(out, smp)
	}
	s.Samples = out
}

// Validate checks the samples are in strictly increasing time order.
func (s *Series) Validate() error {
	if s == nil {
		return errors.New("nil series")
	}
	return ValidateOrder(s.Samples)
}

// ValidateOrder checks list is in strictly increasing time order.
func ValidateOrder(list []Sample) error {
	for i := 1; i < len(list); i++ {
		if !list[i].Time.After(list[i-1].Time) {
			return fmt.Errorf("%w: %s at index %d follows %s", ErrUnordered,
				list[i].Time.Format(time.RFC3339), i, list[i-1].Time.Format(time.RFC3339))
		}
	}
	return nil
}

// Window returns the trailing samples ending at index i (inclusive) whose age
// relative to sample i is at most lookback. The result shares the backing
// array with the series and must not be modified.
func (s *Series) Window(i int, lookback time.Duration) []Sample {
	if s == nil || i < 0 || i >= len(s.Samples) {
		return nil
	}

	end := s.Samples[i].Time
	cutoff := end.Add(-lookback)

	// first index at or after cutoff; a sample exactly lookback old is kept
	start := sort.Search(i+1, func(j int) bool {
		return !s.Samples[j].Time.Before(cutoff)
	})

	return s.Samples[start : i+1]
}

// Span returns the time between the first and last sample.
func (s *Series) Span() time.Duration {
	if s.Len() < 2 {
		return 0
	}
	return s.Samples[len(s.Samples)-1].Time.Sub(s.Samples[0].Time)
}

// Since returns the samples at or after t.
func (s *Series) Since(t time.Time) []Sample {
	if s == nil {
		return nil
	}
	i := sort.Search(len(s.Samples), func(j int) bool {
		return !s.Samples[j].Time.Before(t)
	})
	return s.Samples[i:]
}
