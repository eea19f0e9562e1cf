// Package score computes rime ice and verglas formation rates from weather
// samples. All functions are pure and safe for concurrent use.
package score

import (
	"encoding/json"
	"time"

	"github.com/mchmarny/rimecast/pkg/weather"
)

// FormationScore is the result of scoring one timestamp of one location.
type FormationScore struct {
	Time    time.Time   `json:"time" yaml:"time"`
	Rime    AspectRates `json:"rime" yaml:"rime"`
	Verglas float64     `json:"verglas" yaml:"verglas"`
}

// MarshalJSON rounds the verglas rate the same way the rime rates are.
func (f FormationScore) MarshalJSON() ([]byte, error) {
	type alias FormationScore
	a := alias(f)
	a.Verglas = round(a.Verglas)
	return json.Marshal(a)
}

// Score evaluates both scorers for the last sample of window. The window must
// hold the trailing lookback samples in time order, ending at the evaluation
// sample.
func Score(cfg Config, window []weather.Sample) (FormationScore, error) {
	if len(window) == 0 {
		return FormationScore{}, nil
	}

	current := window[len(window)-1]

	v, err := Verglas(cfg, window)
	if err != nil {
		return FormationScore{}, err
	}

	return FormationScore{
		Time:    current.Time,
		Rime:    Rime(cfg, current),
		Verglas: v,
	}, nil
}

// Lookback returns the verglas lookback window length.
func (c Config) Lookback() time.Duration {
	return time.Duration(c.Verglas.LookbackHours) * time.Hour
}
