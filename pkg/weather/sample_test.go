package weather

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

func hourlySeries(n int) *Series {
	s := &Series{Location: "test"}
	for i := 0; i < n; i++ {
		s.Samples = append(s.Samples, Sample{
			Time:          start.Add(time.Duration(i) * time.Hour),
			Temperature:   Float(float64(i)),
			Precipitation: Float(0.5),
		})
	}
	return s
}

func TestSampleAccessors(t *testing.T) {
	s := Sample{Temperature: Float(-3.5)}
	v, ok := s.Temp()
	assert.True(t, ok)
	assert.InDelta(t, -3.5, v, 1e-9)

	_, ok = s.RH()
	assert.False(t, ok)
	_, ok = s.Wind()
	assert.False(t, ok)
	_, ok = s.WindFrom()
	assert.False(t, ok)
	_, ok = s.Precip()
	assert.False(t, ok)
	_, ok = s.Clouds()
	assert.False(t, ok)
}

func TestSeriesSort(t *testing.T) {
	s := &Series{Samples: []Sample{
		{Time: start.Add(2 * time.Hour), Temperature: Float(2)},
		{Time: start, Temperature: Float(0)},
		{Time: start.Add(time.Hour), Temperature: Float(1)},
		{Time: start, Temperature: Float(10)},
	}}

	s.Sort()
	require.Equal(t, 3, s.Len())
	require.NoError(t, s.Validate())

	v, _ := s.Samples[0].Temp()
	assert.InDelta(t, 10, v, 1e-9)
	assert.Equal(t, 2*time.Hour, s.Span())
}

func TestSeriesValidate(t *testing.T) {
	var nilSeries *Series
	assert.Error(t, nilSeries.Validate())
	assert.Equal(t, 0, nilSeries.Len())

	s := hourlySeries(4)
	require.NoError(t, s.Validate())

	s.Samples[2].Time = s.Samples[1].Time
	err := s.Validate()
	assert.ErrorIs(t, err, ErrUnordered)
	assert.Contains(t, err.Error(), "index 2")
}

func TestSeriesWindow(t *testing.T) {
	s := hourlySeries(48)

	w := s.Window(30, 24*time.Hour)
	require.Len(t, w, 25)
	assert.Equal(t, s.Samples[6].Time, w[0].Time)
	assert.Equal(t, s.Samples[30].Time, w[len(w)-1].Time)

	w = s.Window(5, 24*time.Hour)
	assert.Len(t, w, 6)

	assert.Nil(t, s.Window(48, time.Hour))
	assert.Nil(t, s.Window(-1, time.Hour))
}

func TestSeriesSince(t *testing.T) {
	s := hourlySeries(10)
	assert.Len(t, s.Since(start.Add(7*time.Hour)), 3)
	assert.Len(t, s.Since(start.Add(90*time.Minute)), 8)
	assert.Empty(t, s.Since(start.Add(20*time.Hour)))
	assert.Len(t, s.Since(start.Add(-time.Hour)), 10)
}
