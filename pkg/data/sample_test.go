package data

import (
	"testing"
	"time"

	"github.com/mchmarny/rimecast/pkg/weather"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)

func testSeries(name string, n int) *weather.Series {
	s := &weather.Series{Location: name}
	for i := 0; i < n; i++ {
		s.Samples = append(s.Samples, weather.Sample{
			Time:          t0.Add(time.Duration(i) * time.Hour),
			Temperature:   weather.Float(-2 + float64(i)*0.5),
			Humidity:      weather.Float(95),
			WindSpeed:     weather.Float(8),
			WindDirection: weather.Float(270),
			Precipitation: weather.Float(0.1),
		})
	}
	return s
}

func TestSaveAndGetSeries(t *testing.T) {
	db := setupTestDB(t)

	n, err := SaveSamples(db, testSeries("Ben Nevis", 6))
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	s, err := GetSeries(db, "Ben Nevis", t0.Add(2*time.Hour))
	require.NoError(t, err)
	require.Equal(t, 4, s.Len())
	require.NoError(t, s.Validate())
	assert.Equal(t, t0.Add(2*time.Hour), s.Samples[0].Time)

	v, ok := s.Samples[0].Temp()
	require.True(t, ok)
	assert.InDelta(t, -1, v, 1e-9)

	_, ok = s.Samples[0].Clouds()
	assert.False(t, ok)
}

func TestSaveSamples_FullRange(t *testing.T) {
	db := setupTestDB(t)

	// a 92 day cache window of hourly samples in one transaction
	n, err := SaveSamples(db, testSeries("Ben Nevis", 92*24))
	require.NoError(t, err)
	assert.Equal(t, 92*24, n)

	s, err := GetSeries(db, "Ben Nevis", t0)
	require.NoError(t, err)
	assert.Equal(t, 92*24, s.Len())
	require.NoError(t, s.Validate())
}

func TestSaveSamples_Upsert(t *testing.T) {
	db := setupTestDB(t)

	_, err := SaveSamples(db, testSeries("Lochnagar", 3))
	require.NoError(t, err)

	update := testSeries("Lochnagar", 3)
	update.Samples[1].Temperature = weather.Float(-9)
	update.Samples[2].Temperature = nil
	_, err = SaveSamples(db, update)
	require.NoError(t, err)

	s, err := GetSeries(db, "Lochnagar", t0)
	require.NoError(t, err)
	require.Equal(t, 3, s.Len())

	v, _ := s.Samples[1].Temp()
	assert.InDelta(t, -9, v, 1e-9)
	_, ok := s.Samples[2].Temp()
	assert.False(t, ok)
}

func TestSaveSamples_Invalid(t *testing.T) {
	db := setupTestDB(t)

	_, err := SaveSamples(db, nil)
	assert.Error(t, err)

	_, err = SaveSamples(db, &weather.Series{})
	assert.Error(t, err)

	n, err := SaveSamples(db, &weather.Series{Location: "empty"})
	assert.NoError(t, err)
	assert.Zero(t, n)

	_, err = SaveSamples(nil, testSeries("x", 1))
	assert.Error(t, err)
}

func TestGetSampleLocations(t *testing.T) {
	db := setupTestDB(t)
	_, err := SaveSamples(db, testSeries("Lochnagar", 2))
	require.NoError(t, err)
	_, err = SaveSamples(db, testSeries("Beinn Eighe", 2))
	require.NoError(t, err)

	list, err := GetSampleLocations(db)
	require.NoError(t, err)
	assert.Equal(t, []string{"Beinn Eighe", "Lochnagar"}, list)
}

func TestPruneSamples(t *testing.T) {
	db := setupTestDB(t)
	_, err := SaveSamples(db, testSeries("Ben Nevis", 10))
	require.NoError(t, err)

	n, err := PruneSamples(db, t0.Add(4*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	s, err := GetSeries(db, "Ben Nevis", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 6, s.Len())

	_, err = PruneSamples(nil, t0)
	assert.Error(t, err)
}
