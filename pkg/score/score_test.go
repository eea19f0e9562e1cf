package score

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/mchmarny/rimecast/pkg/weather"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
	assert.Equal(t, 24*time.Hour, DefaultConfig().Lookback())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"optimal below viable", func(c *Config) { c.Rime.TempOptimalMin = -20 }},
		{"optimal inverted", func(c *Config) { c.Rime.TempOptimalMax = -11 }},
		{"viable max below optimal", func(c *Config) { c.Rime.TempViableMax = -3 }},
		{"humidity threshold", func(c *Config) { c.Rime.HumidityThreshold = 100 }},
		{"wind saturation", func(c *Config) { c.Rime.WindSaturation = 0 }},
		{"leeward floor", func(c *Config) { c.Rime.LeewardFloor = 1.5 }},
		{"refreeze inverted", func(c *Config) { c.Verglas.RefreezeFull = 1 }},
		{"lookback", func(c *Config) { c.Verglas.LookbackHours = 0 }},
		{"history beyond lookback", func(c *Config) { c.Verglas.MinHistoryHours = 30 }},
		{"half life", func(c *Config) { c.Verglas.MeltHalfLifeHours = 0 }},
		{"rain saturation", func(c *Config) { c.Verglas.RainSaturationMM = -1 }},
		{"dry floor", func(c *Config) { c.Verglas.DryFloor = -0.1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			assert.Error(t, err)
			assert.Contains(t, err.Error(), "invalid scoring config")
		})
	}
}

func TestScore(t *testing.T) {
	cfg := DefaultConfig()
	w := meltAt(8, 3, -2, 1)
	cur := &w[len(w)-1]
	cur.Humidity = weather.Float(100)
	cur.WindSpeed = weather.Float(25)
	cur.WindDirection = weather.Float(90)

	s, err := Score(cfg, w)
	require.NoError(t, err)
	assert.Equal(t, windowEnd, s.Time)
	assert.InDelta(t, 1, s.Rime.Get(East), 1e-9)
	assert.InDelta(t, 0.1, s.Rime.Get(West), 1e-9)
	assert.Greater(t, s.Verglas, 0.0)

	b, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"E":1`)
	assert.Contains(t, string(b), `"verglas":0.25`)
}

func TestScore_Empty(t *testing.T) {
	s, err := Score(DefaultConfig(), nil)
	require.NoError(t, err)
	assert.Equal(t, FormationScore{}, s)
}

func TestScore_Unordered(t *testing.T) {
	w := meltAt(8, 3, -2, 1)
	w[0], w[10] = w[10], w[0]
	_, err := Score(DefaultConfig(), w)
	assert.ErrorIs(t, err, ErrUnorderedWindow)
}
