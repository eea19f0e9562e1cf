package weather

import (
	"time"
)

// Resample reduces an hourly series to one sample every hours hours.
// Point values (temperature, humidity, wind, cloud) come from the first sample
// of each interval; precipitation is summed across the interval so the
// resampled series still reports accumulation over the preceding period.
// A value of hours below 2 returns the series unchanged.
func (s *Series) Resample(hours int) *Series {
	if s == nil || hours < 2 || len(s.Samples) == 0 {
		return s
	}

	step := time.Duration(hours) * time.Hour
	out := &Series{
		Location: s.Location,
		Samples:  make([]Sample, 0, len(s.Samples)/hours+1),
	}

	i := 0
	for i < len(s.Samples) {
		head := s.Samples[i]
		end := head.Time.Add(step)

		var sum float64
		var seen bool
		j := i
		for ; j < len(s.Samples) && s.Samples[j].Time.Before(end); j++ {
			if p, ok := s.Samples[j].Precip(); ok {
				sum += p
				seen = true
			}
		}

		r := head
		r.Precipitation = nil
		if seen {
			r.Precipitation = Float(sum)
		}
		out.Samples = append(out.Samples, r)
		i = j
	}

	return out
}
