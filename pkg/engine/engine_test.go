package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mchmarny/rimecast/pkg/score"
	"github.com/mchmarny/rimecast/pkg/terrain"
	"github.com/mchmarny/rimecast/pkg/weather"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC)

type fakeSource struct {
	series map[string]*weather.Series
	errs   map[string]error
	calls  atomic.Int32
}

func (f *fakeSource) Fetch(_ context.Context, q weather.Query) (*weather.Series, error) {
	f.calls.Add(1)
	if err, ok := f.errs[q.Name]; ok {
		return nil, err
	}
	return f.series[q.Name], nil
}

// testSeries is a thaw followed by a cold windy spell.
func testSeries(name string, hours int) *weather.Series {
	s := &weather.Series{Location: name}
	for i := 0; i < hours; i++ {
		temp := 2.0
		if i >= 12 {
			temp = -5
		}
		precip := 0.0
		if i < 12 {
			precip = 0.4
		}
		s.Samples = append(s.Samples, weather.Sample{
			Time:          start.Add(time.Duration(i) * time.Hour),
			Temperature:   weather.Float(temp),
			Humidity:      weather.Float(96),
			WindSpeed:     weather.Float(12),
			WindDirection: weather.Float(270),
			Precipitation: weather.Float(precip),
		})
	}
	return s
}

func testLocations() []terrain.Location {
	face := 270.0
	return []terrain.Location{
		{Name: "Ben Nevis", Latitude: 56.798691, Longitude: -5.014505, Altitude: 1150, Aspect: &face},
		{Name: "Lochnagar", Latitude: 56.957672, Longitude: -3.241534, Altitude: 1000},
	}
}

func newTestEngine(t *testing.T, src weather.Source, opts Options) *Engine {
	t.Helper()
	e, err := New(src, score.DefaultConfig(), opts)
	require.NoError(t, err)
	return e
}

func TestScoreSeries_Hourly(t *testing.T) {
	cfg := score.DefaultConfig()
	s := testSeries("Ben Nevis", 36)

	points, err := ScoreSeries(cfg, s, 1)
	require.NoError(t, err)
	require.Len(t, points, 36)

	var rime, verglas float64
	for i, p := range points {
		assert.Equal(t, s.Samples[i].Time, p.Time)
		rime += p.Score.Rime.Get(score.West)
		verglas += p.Score.Verglas
		assert.InDelta(t, rime, p.Cumulative.Rime.Get(score.West), 1e-9)
		assert.InDelta(t, verglas, p.Cumulative.Verglas, 1e-9)
	}

	assert.Zero(t, points[5].Score.Verglas)
	assert.Zero(t, points[5].Score.Rime.Get(score.West))
	assert.Greater(t, points[14].Score.Verglas, 0.0)
	assert.Greater(t, points[14].Score.Rime.Get(score.West), points[14].Score.Rime.Get(score.East))
}

func TestScoreSeries_Interval(t *testing.T) {
	cfg := score.DefaultConfig()
	s := testSeries("Ben Nevis", 36)

	points, err := ScoreSeries(cfg, s, 3)
	require.NoError(t, err)
	require.Len(t, points, 12)

	// scored against the hourly window, not the thinned series
	want, err := score.Score(cfg, s.Window(15, cfg.Lookback()))
	require.NoError(t, err)
	assert.Equal(t, start.Add(15*time.Hour), points[5].Time)
	assert.InDelta(t, want.Verglas, points[5].Score.Verglas, 1e-9)

	p, ok := points[0].Weather.Precip()
	require.True(t, ok)
	assert.InDelta(t, 1.2, p, 1e-9)
}

func TestScoreSeries_Errors(t *testing.T) {
	cfg := score.DefaultConfig()

	_, err := ScoreSeries(cfg, nil, 1)
	assert.ErrorIs(t, err, ErrNoData)

	s := testSeries("x", 5)
	s.Samples[1], s.Samples[2] = s.Samples[2], s.Samples[1]
	_, err = ScoreSeries(cfg, s, 1)
	assert.ErrorIs(t, err, score.ErrUnorderedWindow)
}

func TestRun(t *testing.T) {
	src := &fakeSource{
		series: map[string]*weather.Series{"Ben Nevis": testSeries("Ben Nevis", 24)},
		errs:   map[string]error{"Lochnagar": errors.New("boom")},
	}
	now := start.Add(20*time.Hour + 30*time.Minute)
	e := newTestEngine(t, src, Options{Workers: 2, PastDays: 1, ForecastDays: 1, Now: func() time.Time { return now }})

	res, fr, err := e.Run(context.Background(), testLocations())
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.calls.Load())
	assert.Len(t, fr.Series, 1)
	assert.Len(t, fr.Errors, 1)

	require.Len(t, res.Locations, 2)
	ben := res.Find("Ben Nevis")
	require.NotNil(t, ben)
	assert.Empty(t, ben.Error)
	assert.Len(t, ben.Points, 24)
	require.NotNil(t, ben.Latest)
	assert.Equal(t, start.Add(20*time.Hour), ben.Latest.Time)
	assert.InDelta(t, -5, *ben.Latest.Temperature, 1e-9)
	assert.InDelta(t, 12*msToMPH, *ben.Latest.WindMPH, 1e-9)
	assert.Equal(t, []string{"W"}, ben.Latest.MaxRimeAspects)
	require.NotNil(t, ben.Latest.FaceRime)
	assert.InDelta(t, ben.Latest.MaxRime, *ben.Latest.FaceRime, 1e-9)

	loch := res.Find("Lochnagar")
	require.NotNil(t, loch)
	assert.Equal(t, "boom", loch.Error)
	assert.Empty(t, loch.Points)
	assert.Nil(t, loch.Latest)

	assert.Len(t, res.Timestamps, 24)
	assert.Nil(t, res.Find("Nowhere"))
}

func TestEvaluate_LatestFallsBackToLastPoint(t *testing.T) {
	e := newTestEngine(t, nil, Options{Now: func() time.Time { return start.Add(-time.Hour) }})
	locs := testLocations()[:1]

	res, err := e.Evaluate(context.Background(), locs, map[string]*weather.Series{
		"Ben Nevis": testSeries("Ben Nevis", 6),
	})
	require.NoError(t, err)
	require.NotNil(t, res.Locations[0].Latest)
	assert.Equal(t, start.Add(5*time.Hour), res.Locations[0].Latest.Time)
}

func TestEvaluate_MixedTimestamps(t *testing.T) {
	e := newTestEngine(t, nil, Options{})
	other := testSeries("Lochnagar", 4)
	for i := range other.Samples {
		other.Samples[i].Time = other.Samples[i].Time.Add(2 * time.Hour)
	}

	res, err := e.Evaluate(context.Background(), testLocations(), map[string]*weather.Series{
		"Ben Nevis": testSeries("Ben Nevis", 4),
		"Lochnagar": other,
	})
	require.NoError(t, err)
	require.Len(t, res.Timestamps, 6)
	assert.Equal(t, start, res.Timestamps[0])
	assert.Equal(t, start.Add(5*time.Hour), res.Timestamps[5])
}

func TestFetch_NoSource(t *testing.T) {
	e := newTestEngine(t, nil, Options{})
	_, err := e.Fetch(context.Background(), testLocations())
	assert.Error(t, err)
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := score.DefaultConfig()
	cfg.Rime.WindSaturation = 0
	_, err := New(nil, cfg, Options{})
	assert.Error(t, err)
}
