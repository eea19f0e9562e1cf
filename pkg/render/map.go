// Package render turns scored results into an interactive HTML map and
// compass graphics.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"math"
	"time"

	"github.com/mchmarny/rimecast/pkg/engine"
	"github.com/mchmarny/rimecast/pkg/score"
)

const (
	DefaultCenterLat = 56.9
	DefaultCenterLon = -4.5
	DefaultZoom      = 8
	DefaultTitle     = "Rime & Verglas Formation"
)

var (
	//go:embed templates/*
	templateFS embed.FS

	tmpl = template.Must(template.New("").ParseFS(templateFS, "templates/*.html"))
)

// MapOptions configure the rendered map.
type MapOptions struct {
	Title     string
	CenterLat float64
	CenterLon float64
	Zoom      int
	Version   string
}

func (o MapOptions) withDefaults() MapOptions {
	if o.Title == "" {
		o.Title = DefaultTitle
	}
	if o.CenterLat == 0 && o.CenterLon == 0 {
		o.CenterLat = DefaultCenterLat
		o.CenterLon = DefaultCenterLon
	}
	if o.Zoom <= 0 {
		o.Zoom = DefaultZoom
	}
	return o
}

type mapView struct {
	Title     string
	Version   string
	Generated string
	Center    [2]float64
	Zoom      int
	None      string
	Ramp      []Step
	Scale     float64
	Data      mapData
}

type mapData struct {
	Timestamps []int64       `json:"timestamps"`
	Locations  []mapLocation `json:"locations"`
}

type mapLocation struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Lat         float64     `json:"lat"`
	Lon         float64     `json:"lon"`
	Altitude    float64     `json:"altitude"`
	Aspect      *float64    `json:"aspect,omitempty"`
	Error       string      `json:"error,omitempty"`
	Points      []*mapPoint `json:"points"`
}

type mapPoint struct {
	Rime          score.AspectRates `json:"rime"`
	Verglas       float64           `json:"verglas"`
	CumRime       score.AspectRates `json:"cum_rime"`
	CumVerglas    float64           `json:"cum_verglas"`
	Temperature   *float64          `json:"temp"`
	Humidity      *float64          `json:"rh"`
	WindSpeed     *float64          `json:"wind"`
	WindDirection *float64          `json:"wind_dir"`
	Precipitation *float64          `json:"precip"`
}

// WriteHTML renders res as a standalone HTML page with a time slider and a
// rate/cumulative toggle.
func WriteHTML(w io.Writer, res *engine.Result, opts MapOptions) error {
	if res == nil {
		return fmt.Errorf("nothing to render")
	}
	opts = opts.withDefaults()

	v := mapView{
		Title:     opts.Title,
		Version:   opts.Version,
		Generated: res.GeneratedAt.Format(time.RFC1123),
		Center:    [2]float64{opts.CenterLat, opts.CenterLon},
		Zoom:      opts.Zoom,
		None:      NoneColor,
		Ramp:      Ramp,
		Scale:     CumulativeScale,
		Data:      buildData(res),
	}

	if err := tmpl.ExecuteTemplate(w, "map", v); err != nil {
		return fmt.Errorf("rendering map: %w", err)
	}
	return nil
}

// buildData aligns every location's points to the shared timestamp axis;
// timestamps a location has no point for are null.
func buildData(res *engine.Result) mapData {
	d := mapData{
		Timestamps: make([]int64, len(res.Timestamps)),
		Locations:  make([]mapLocation, 0, len(res.Locations)),
	}

	index := make(map[int64]int, len(res.Timestamps))
	for i, t := range res.Timestamps {
		d.Timestamps[i] = t.UnixMilli()
		index[t.Unix()] = i
	}

	for _, lr := range res.Locations {
		ml := mapLocation{
			Name:        lr.Location.Name,
			Description: lr.Location.Description,
			Lat:         lr.Location.Latitude,
			Lon:         lr.Location.Longitude,
			Altitude:    lr.Location.Altitude,
			Aspect:      lr.Location.Aspect,
			Error:       lr.Error,
			Points:      make([]*mapPoint, len(res.Timestamps)),
		}
		for _, p := range lr.Points {
			i, ok := index[p.Time.Unix()]
			if !ok {
				continue
			}
			ml.Points[i] = &mapPoint{
				Rime:          p.Score.Rime,
				Verglas:       round3(p.Score.Verglas),
				CumRime:       p.Cumulative.Rime,
				CumVerglas:    round3(p.Cumulative.Verglas),
				Temperature:   p.Weather.Temperature,
				Humidity:      p.Weather.Humidity,
				WindSpeed:     p.Weather.WindSpeed,
				WindDirection: p.Weather.WindDirection,
				Precipitation: p.Weather.Precipitation,
			}
		}
		d.Locations = append(d.Locations, ml)
	}

	return d
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
