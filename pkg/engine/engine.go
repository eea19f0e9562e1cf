// Package engine fetches weather for every location, scores each timestamp
// against its trailing window and assembles the per-location series.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/mchmarny/rimecast/pkg/score"
	"github.com/mchmarny/rimecast/pkg/terrain"
	"github.com/mchmarny/rimecast/pkg/weather"
	"golang.org/x/sync/errgroup"
)

const defaultWorkers = 4

// ErrNoData is returned when a location has no samples to score.
var ErrNoData = errors.New("no weather data")

// Options configure an Engine.
type Options struct {
	// Workers bounds the number of locations processed concurrently.
	Workers int
	// Interval is the spacing in hours of the output points.
	Interval int
	// Timeout bounds each location fetch.
	Timeout time.Duration
	// PastDays and ForecastDays set the fetched range.
	PastDays     int
	ForecastDays int
	// Now overrides the clock used to pick the latest summary.
	Now func() time.Time
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Engine runs the fetch and score pipeline.
type Engine struct {
	source weather.Source
	cfg    score.Config
	opts   Options
	logger *slog.Logger
}

// New creates an Engine. source may be nil when only Evaluate is used.
func New(source weather.Source, cfg score.Config, opts Options) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.Interval <= 0 {
		opts.Interval = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		source: source,
		cfg:    cfg,
		opts:   opts,
		logger: logger,
	}, nil
}

// FetchResult is the outcome of fetching all locations.
type FetchResult struct {
	Series map[string]*weather.Series
	Errors map[string]error
}

// Fetch retrieves the weather series of every location in parallel. A failing
// location is recorded in Errors and does not stop the others.
func (e *Engine) Fetch(ctx context.Context, locs []terrain.Location) (*FetchResult, error) {
	if e.source == nil {
		return nil, errors.New("weather source not configured")
	}

	res := &FetchResult{
		Series: make(map[string]*weather.Series, len(locs)),
		Errors: make(map[string]error),
	}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)

	for _, loc := range locs {
		g.Go(func() error {
			fctx := gctx
			if e.opts.Timeout > 0 {
				var cancel context.CancelFunc
				fctx, cancel = context.WithTimeout(gctx, e.opts.Timeout)
				defer cancel()
			}

			s, err := e.source.Fetch(fctx, weather.Query{
				Name:         loc.Name,
				Latitude:     loc.Latitude,
				Longitude:    loc.Longitude,
				Elevation:    loc.Altitude,
				PastDays:     e.opts.PastDays,
				ForecastDays: e.opts.ForecastDays,
			})

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				e.logger.Error("weather fetch failed", "location", loc.Name, "error", err)
				res.Errors[loc.Name] = err
				return nil
			}
			res.Series[loc.Name] = s
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetching weather: %w", err)
	}
	if ctx.Err() != nil {
		return res, fmt.Errorf("fetching weather: %w", ctx.Err())
	}

	return res, nil
}

// Evaluate scores the series of every location in parallel. A location whose
// series is missing or out of order carries an error in its result and the
// remaining locations are still scored.
func (e *Engine) Evaluate(ctx context.Context, locs []terrain.Location, series map[string]*weather.Series) (*Result, error) {
	res := &Result{
		GeneratedAt: e.opts.Now().UTC(),
		Interval:    e.opts.Interval,
		Locations:   make([]*LocationResult, len(locs)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)

	for i, loc := range locs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			lr := &LocationResult{Location: loc}
			res.Locations[i] = lr

			points, err := ScoreSeries(e.cfg, series[loc.Name], e.opts.Interval)
			if err != nil {
				e.logger.Error("scoring failed", "location", loc.Name, "error", err)
				lr.Error = err.Error()
				return nil
			}

			lr.Points = points
			lr.Latest = summarize(loc, lr.At(res.GeneratedAt))
			if lr.Latest == nil && len(points) > 0 {
				lr.Latest = summarize(loc, &points[len(points)-1])
			}

			e.logger.Debug("location scored", "location", loc.Name, "points", len(points))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scoring locations: %w", err)
	}

	res.Timestamps = timestamps(res.Locations)
	return res, nil
}

// Run fetches and scores every location.
func (e *Engine) Run(ctx context.Context, locs []terrain.Location) (*Result, *FetchResult, error) {
	fr, err := e.Fetch(ctx, locs)
	if err != nil {
		return nil, fr, err
	}

	res, err := e.Evaluate(ctx, locs, fr.Series)
	if err != nil {
		return nil, fr, err
	}

	for _, lr := range res.Locations {
		if ferr, ok := fr.Errors[lr.Location.Name]; ok {
			lr.Error = ferr.Error()
		}
	}

	return res, fr, nil
}

// ScoreSeries scores every interval-th hour of s. Each point is scored
// against the hourly trailing window so verglas history is not thinned by the
// output spacing. Point weather comes from the resampled series.
func ScoreSeries(cfg score.Config, s *weather.Series, interval int) ([]Point, error) {
	if s.Len() == 0 {
		return nil, ErrNoData
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", score.ErrUnorderedWindow, err)
	}

	display := s.Resample(interval)
	lookback := cfg.Lookback()
	points := make([]Point, 0, display.Len())

	var cum Cumulative
	j := 0
	for _, d := range display.Samples {
		for j < len(s.Samples) && s.Samples[j].Time.Before(d.Time) {
			j++
		}
		if j == len(s.Samples) {
			break
		}

		fs, err := score.Score(cfg, s.Window(j, lookback))
		if err != nil {
			return nil, fmt.Errorf("scoring %s at %s: %w", s.Location, d.Time.Format(time.RFC3339), err)
		}

		cum.Rime.Add(fs.Rime)
		cum.Verglas += fs.Verglas

		points = append(points, Point{
			Time:       d.Time,
			Score:      fs,
			Cumulative: cum,
			Weather:    d,
		})
	}

	return points, nil
}

// timestamps returns the sorted union of point times across locations.
func timestamps(list []*LocationResult) []time.Time {
	seen := make(map[int64]bool)
	out := make([]time.Time, 0)
	for _, l := range list {
		for _, p := range l.Points {
			k := p.Time.Unix()
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, p.Time)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
