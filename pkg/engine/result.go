package engine

import (
	"encoding/json"
	"math"
	"time"

	"github.com/mchmarny/rimecast/pkg/score"
	"github.com/mchmarny/rimecast/pkg/terrain"
	"github.com/mchmarny/rimecast/pkg/weather"
)

const msToMPH = 2.23694

// Point is the score of one location at one timestamp along with the weather
// that produced it.
type Point struct {
	Time       time.Time            `json:"time" yaml:"time"`
	Score      score.FormationScore `json:"score" yaml:"score"`
	Cumulative Cumulative           `json:"cumulative" yaml:"cumulative"`
	Weather    weather.Sample       `json:"weather" yaml:"weather"`
}

// Cumulative is the running total of formation rates from the first point of
// the series up to and including the current one.
type Cumulative struct {
	Rime    score.AspectRates `json:"rime" yaml:"rime"`
	Verglas float64           `json:"verglas" yaml:"verglas"`
}

// MarshalJSON rounds the verglas total.
func (c Cumulative) MarshalJSON() ([]byte, error) {
	type alias Cumulative
	a := alias(c)
	a.Verglas = roundRate(a.Verglas)
	return json.Marshal(a)
}

// Summary describes the conditions at the most recent past timestamp.
type Summary struct {
	Time           time.Time `json:"time" yaml:"time"`
	Temperature    *float64  `json:"temperature_c,omitempty" yaml:"temperature_c,omitempty"`
	WindMPH        *float64  `json:"wind_mph,omitempty" yaml:"wind_mph,omitempty"`
	WindFrom       *float64  `json:"wind_from_deg,omitempty" yaml:"wind_from_deg,omitempty"`
	MaxRime        float64   `json:"max_rime" yaml:"max_rime"`
	MaxRimeAspects []string  `json:"max_rime_aspects,omitempty" yaml:"max_rime_aspects,omitempty"`
	FaceRime       *float64  `json:"face_rime,omitempty" yaml:"face_rime,omitempty"`
	Verglas        float64   `json:"verglas" yaml:"verglas"`
}

// LocationResult holds the scored series of one location.
type LocationResult struct {
	Location terrain.Location `json:"location" yaml:"location"`
	Points   []Point          `json:"points" yaml:"points"`
	Latest   *Summary         `json:"latest,omitempty" yaml:"latest,omitempty"`
	Error    string           `json:"error,omitempty" yaml:"error,omitempty"`
}

// Result is the scored output across all locations.
type Result struct {
	GeneratedAt time.Time         `json:"generated_at" yaml:"generated_at"`
	Interval    int               `json:"interval_hours" yaml:"interval_hours"`
	Timestamps  []time.Time       `json:"timestamps" yaml:"timestamps"`
	Locations   []*LocationResult `json:"locations" yaml:"locations"`
}

// Find returns the result of the named location.
func (r *Result) Find(name string) *LocationResult {
	if r == nil {
		return nil
	}
	for _, l := range r.Locations {
		if l.Location.Name == name {
			return l
		}
	}
	return nil
}

// At returns the point at or immediately before t, or nil when every point is
// after t.
func (l *LocationResult) At(t time.Time) *Point {
	var p *Point
	for i := range l.Points {
		if l.Points[i].Time.After(t) {
			break
		}
		p = &l.Points[i]
	}
	return p
}

func summarize(loc terrain.Location, p *Point) *Summary {
	if p == nil {
		return nil
	}

	s := &Summary{
		Time:     p.Time,
		WindFrom: p.Weather.WindDirection,
		Verglas:  roundRate(p.Score.Verglas),
	}
	if v, ok := p.Weather.Temp(); ok {
		s.Temperature = &v
	}
	if v, ok := p.Weather.Wind(); ok {
		mph := v * msToMPH
		s.WindMPH = &mph
	}

	m, aspects := p.Score.Rime.Max()
	s.MaxRime = roundRate(m)
	if m > 0 {
		for _, a := range aspects {
			s.MaxRimeAspects = append(s.MaxRimeAspects, a.String())
		}
	}

	if loc.Aspect != nil {
		v := roundRate(p.Score.Rime.At(*loc.Aspect))
		s.FaceRime = &v
	}

	return s
}

func roundRate(v float64) float64 {
	return math.Round(v*1000) / 1000
}
