package weather

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mchmarny/rimecast/pkg/net"
)

const (
	// ForecastURL is the free Open-Meteo forecast endpoint.
	ForecastURL = "https://api.open-meteo.com/v1/forecast"
	// CustomerForecastURL is the commercial endpoint used with an API key.
	CustomerForecastURL = "https://customer-api.open-meteo.com/v1/forecast"
)

var hourlyVars = []string{
	"temperature_2m",
	"relative_humidity_2m",
	"wind_speed_10m",
	"wind_direction_10m",
	"precipitation",
	"cloud_cover",
}

// OpenMeteo fetches hourly series from the Open-Meteo forecast API. Past days
// cover recent history, forecast days the hours ahead.
type OpenMeteo struct {
	client  *net.Client
	baseURL string
	apiKey  string
	logger  *slog.Logger
}

// OpenMeteoOption configures an OpenMeteo source.
type OpenMeteoOption func(*OpenMeteo)

// WithBaseURL overrides the forecast endpoint.
func WithBaseURL(u string) OpenMeteoOption {
	return func(o *OpenMeteo) {
		if u != "" {
			o.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithAPIKey sets the commercial API key. When the base URL is the free
// endpoint it is switched to the customer one.
func WithAPIKey(key string) OpenMeteoOption {
	return func(o *OpenMeteo) {
		o.apiKey = key
	}
}

// WithClient sets the HTTP client.
func WithClient(c *net.Client) OpenMeteoOption {
	return func(o *OpenMeteo) {
		o.client = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) OpenMeteoOption {
	return func(o *OpenMeteo) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewOpenMeteo creates an Open-Meteo source.
func NewOpenMeteo(opts ...OpenMeteoOption) *OpenMeteo {
	o := &OpenMeteo{
		baseURL: ForecastURL,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.client == nil {
		o.client = net.NewClient("open-meteo")
	}
	if o.apiKey != "" && o.baseURL == ForecastURL {
		o.baseURL = CustomerForecastURL
	}
	return o
}

type forecastResponse struct {
	Latitude  float64        `json:"latitude"`
	Longitude float64        `json:"longitude"`
	Elevation float64        `json:"elevation"`
	Hourly    hourlyResponse `json:"hourly"`
}

type hourlyResponse struct {
	Time          []int64    `json:"time"`
	Temperature   []*float64 `json:"temperature_2m"`
	Humidity      []*float64 `json:"relative_humidity_2m"`
	WindSpeed     []*float64 `json:"wind_speed_10m"`
	WindDirection []*float64 `json:"wind_direction_10m"`
	Precipitation []*float64 `json:"precipitation"`
	CloudCover    []*float64 `json:"cloud_cover"`
}

// Fetch retrieves the hourly series for q.
func (o *OpenMeteo) Fetch(ctx context.Context, q Query) (*Series, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	u := o.url(q)
	o.logger.Debug("fetching weather", "location", q.Name, "past_days", q.PastDays, "forecast_days", q.ForecastDays)

	var r forecastResponse
	if err := net.GetJSON(ctx, o.client, u, &r); err != nil {
		return nil, fmt.Errorf("fetching weather for %s: %w", q.Name, err)
	}

	s := r.Hourly.series(q.Name)
	o.logger.Debug("weather fetched",
		"location", q.Name,
		"samples", s.Len(),
		"grid_elevation", r.Elevation,
	)

	return s, nil
}

func (o *OpenMeteo) url(q Query) string {
	v := url.Values{}
	v.Set("latitude", strconv.FormatFloat(q.Latitude, 'f', -1, 64))
	v.Set("longitude", strconv.FormatFloat(q.Longitude, 'f', -1, 64))
	v.Set("hourly", strings.Join(hourlyVars, ","))
	v.Set("past_days", strconv.Itoa(q.PastDays))
	v.Set("forecast_days", strconv.Itoa(q.ForecastDays))
	v.Set("wind_speed_unit", "ms")
	v.Set("precipitation_unit", "mm")
	v.Set("temperature_unit", "celsius")
	v.Set("timeformat", "unixtime")
	v.Set("timezone", "GMT")
	if q.Elevation > 0 {
		v.Set("elevation", strconv.FormatFloat(q.Elevation, 'f', -1, 64))
	}
	if o.apiKey != "" {
		v.Set("apikey", o.apiKey)
	}
	return o.baseURL + "?" + v.Encode()
}

func (h hourlyResponse) series(name string) *Series {
	s := &Series{
		Location: name,
		Samples:  make([]Sample, 0, len(h.Time)),
	}
	for i, ts := range h.Time {
		s.Samples = append(s.Samples, Sample{
			Time:          time.Unix(ts, 0).UTC(),
			Temperature:   at(h.Temperature, i),
			Humidity:      at(h.Humidity, i),
			WindSpeed:     at(h.WindSpeed, i),
			WindDirection: at(h.WindDirection, i),
			Precipitation: at(h.Precipitation, i),
			CloudCover:    at(h.CloudCover, i),
		})
	}
	s.Sort()
	return s
}

func at(list []*float64, i int) *float64 {
	if i >= len(list) {
		return nil
	}
	return list[i]
}
