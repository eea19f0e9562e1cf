package render

import (
	"bytes"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/mchmarny/rimecast/pkg/engine"
	"github.com/mchmarny/rimecast/pkg/score"
	"github.com/mchmarny/rimecast/pkg/terrain"
	"github.com/mchmarny/rimecast/pkg/weather"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColorFor(t *testing.T) {
	tests := []struct {
		rate       float64
		cumulative bool
		want       string
	}{
		{0, false, NoneColor},
		{-1, false, NoneColor},
		{0.1, false, "#a8e6cf"},
		{0.2, false, "#dcedc1"},
		{0.5, false, "#ffd3a5"},
		{0.7, false, "#ffaaa5"},
		{0.8, false, "#ff6b6b"},
		{1, false, "#ff6b6b"},
		{0.5, true, "#a8e6cf"},
		{2.5, true, "#ffd3a5"},
		{50, true, "#ff6b6b"},
		{0, true, NoneColor},
	}
	for _, tt := range tests {
		t.Run(strconv.FormatFloat(tt.rate, 'f', -1, 64), func(t *testing.T) {
			assert.Equal(t, tt.want, ColorFor(tt.rate, tt.cumulative))
		})
	}
}

func TestArcSegment(t *testing.T) {
	p := ArcSegment(50, 50, 10, 40, 0, 90)
	assert.True(t, strings.HasPrefix(p, "M 90.00 50.00 A 40.00 40.00 0 0 1 50.00 90.00"), p)
	assert.Contains(t, p, "L 50.00 60.00")
	assert.True(t, strings.HasSuffix(p, "60.00 50.00 Z"), p)
}

func TestCompassSVG(t *testing.T) {
	var rates score.AspectRates
	rates[score.West] = 0.9

	svg := CompassSVG(rates, CompassOptions{Title: "Ben <Nevis>"})
	assert.True(t, strings.HasPrefix(svg, "<svg"))
	assert.True(t, strings.HasSuffix(svg, "</svg>"))
	assert.Equal(t, 8, strings.Count(svg, "<path"))
	assert.Contains(t, svg, "<title>W 0.90</title>")
	assert.Contains(t, svg, `fill="#ff6b6b"`)
	assert.Equal(t, 7, strings.Count(svg, `fill="`+NoneColor+`"`))
	for _, a := range score.Aspects {
		assert.Contains(t, svg, ">"+a.String()+"</text>")
	}
	assert.Contains(t, svg, "Ben &lt;Nevis&gt;")
	assert.Contains(t, svg, `width="120"`)
}

func TestCompassSVG_Cumulative(t *testing.T) {
	svg := CompassSVG(Uniform(2.5), CompassOptions{Size: 80, Cumulative: true})
	assert.Equal(t, 8, strings.Count(svg, `fill="#ffd3a5"`))
	assert.Contains(t, svg, `width="80"`)
	assert.NotContains(t, svg, "font-size=\"11\"")
}

func TestUniform(t *testing.T) {
	r := Uniform(0.25)
	for _, a := range score.Aspects {
		assert.Equal(t, 0.25, r.Get(a))
	}
}

func testResult() *engine.Result {
	t0 := time.Date(2025, 1, 12, 6, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)

	var rime score.AspectRates
	rime[score.West] = 0.4567

	return &engine.Result{
		GeneratedAt: t1,
		Interval:    1,
		Timestamps:  []time.Time{t0, t1},
		Locations: []*engine.LocationResult{
			{
				Location: terrain.Location{Name: "Ben Nevis", Latitude: 56.79, Longitude: -5.01, Altitude: 1150},
				Points: []engine.Point{
					{
						Time:    t1,
						Score:   score.FormationScore{Time: t1, Rime: rime, Verglas: 0.12345},
						Weather: weather.Sample{Time: t1, Temperature: weather.Float(-4), WindSpeed: weather.Float(10)},
					},
				},
			},
			{
				Location: terrain.Location{Name: "Lochnagar", Latitude: 56.95, Longitude: -3.24, Altitude: 1000},
				Error:    "boom",
			},
		},
	}
}

func TestBuildData(t *testing.T) {
	res := testResult()
	d := buildData(res)

	require.Len(t, d.Timestamps, 2)
	assert.Equal(t, res.Timestamps[0].UnixMilli(), d.Timestamps[0])

	require.Len(t, d.Locations, 2)
	ben := d.Locations[0]
	require.Len(t, ben.Points, 2)
	assert.Nil(t, ben.Points[0])
	require.NotNil(t, ben.Points[1])
	assert.Equal(t, 0.123, ben.Points[1].Verglas)
	assert.InDelta(t, -4, *ben.Points[1].Temperature, 1e-9)

	loch := d.Locations[1]
	assert.Equal(t, "boom", loch.Error)
	assert.Len(t, loch.Points, 2)
	assert.Nil(t, loch.Points[0])
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	err := WriteHTML(&buf, testResult(), MapOptions{Version: "v1.2.3"})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "<title>Rime &amp; Verglas Formation</title>")
	assert.Contains(t, out, "v1.2.3")
	assert.Contains(t, out, "Ben Nevis")
	assert.Contains(t, out, "Lochnagar")
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, strconv.FormatInt(testResult().Timestamps[1].UnixMilli(), 10))
	assert.Contains(t, out, "0.457")
	assert.Contains(t, out, "#ff6b6b")
	assert.Contains(t, out, "56.9")
	assert.Contains(t, out, "leaflet")
}

func TestWriteHTML_Options(t *testing.T) {
	var buf bytes.Buffer
	err := WriteHTML(&buf, testResult(), MapOptions{Title: "Cairngorms", CenterLat: 57.1, CenterLon: -3.6, Zoom: 10})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "<title>Cairngorms</title>")
	assert.Contains(t, buf.String(), "57.1")
}

func TestWriteHTML_EscapesLocationText(t *testing.T) {
	res := testResult()
	res.Locations[0].Location.Name = `<img src=x onerror="alert(1)">`
	res.Locations[0].Location.Description = `</script><b>north face</b>`

	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, res, MapOptions{}))

	out := buf.String()
	assert.NotContains(t, out, `<img src=x`)
	assert.NotContains(t, out, `</script><b>`)
	assert.Contains(t, out, "esc(loc.name)")
	assert.Contains(t, out, "esc(loc.description)")
}

func TestWriteHTML_Nil(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, WriteHTML(&buf, nil, MapOptions{}))
}
