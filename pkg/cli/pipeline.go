package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mchmarny/rimecast/pkg/config"
	"github.com/mchmarny/rimecast/pkg/data"
	"github.com/mchmarny/rimecast/pkg/engine"
	"github.com/mchmarny/rimecast/pkg/net"
	"github.com/mchmarny/rimecast/pkg/render"
	"github.com/mchmarny/rimecast/pkg/terrain"
	"github.com/mchmarny/rimecast/pkg/weather"
)

const (
	runRetentionDays = 30
	hoursPerDay      = 24 * time.Hour
)

func newClient(conf *config.Config, name string) *net.Client {
	p := net.DefaultRetryPolicy()
	p.MaxRetries = conf.Fetch.Retries
	return net.NewClient(name,
		net.WithRetryPolicy(p),
		net.WithUserAgent(fmt.Sprintf("%s/%s", appName, version)),
	)
}

func newEngine(conf *config.Config, src weather.Source, now func() time.Time) (*engine.Engine, error) {
	return engine.New(src, conf.Scoring, engine.Options{
		Workers:      conf.Fetch.Workers,
		Interval:     conf.Fetch.IntervalHours,
		Timeout:      conf.Fetch.Timeout,
		PastDays:     conf.Fetch.PastDays,
		ForecastDays: conf.Fetch.ForecastDays,
		Now:          now,
		Logger:       slog.Default().WithGroup("engine"),
	})
}

func newSource(app *appConfig) weather.Source {
	opts := []weather.OpenMeteoOption{
		weather.WithBaseURL(app.Config.Fetch.WeatherURL),
		weather.WithClient(newClient(app.Config, "open-meteo")),
		weather.WithLogger(slog.Default().WithGroup("weather")),
	}
	if key := getAPIKey(app.HomeDir); key != "" {
		opts = append(opts, weather.WithAPIKey(key))
	}
	return weather.NewOpenMeteo(opts...)
}

// selectLocations returns the configured locations matching names, or all of
// them when names is empty.
func selectLocations(conf *config.Config, names []string) ([]terrain.Location, error) {
	if len(names) == 0 {
		return conf.Locations, nil
	}
	list := make([]terrain.Location, 0, len(names))
	for _, n := range names {
		loc, ok := terrain.Find(conf.Locations, n)
		if !ok {
			return nil, fmt.Errorf("unknown location %q, configured: %s", n, locationNames(conf.Locations))
		}
		list = append(list, loc)
	}
	return list, nil
}

func locationNames(list []terrain.Location) string {
	names := make([]string, len(list))
	for i, l := range list {
		names[i] = l.Name
	}
	return strings.Join(names, ", ")
}

// cacheStart is the oldest sample time needed to score the configured range.
func cacheStart(conf *config.Config, now time.Time) time.Time {
	past := time.Duration(conf.Fetch.PastDays) * hoursPerDay
	return now.Add(-past - conf.Scoring.Lookback()).Truncate(time.Hour)
}

// fetchAndStore fetches every location, caches the samples, prunes anything
// older than the scoring range and records the run.
func fetchAndStore(ctx context.Context, app *appConfig, src weather.Source, locs []terrain.Location) (*data.FetchRun, error) {
	run := data.NewFetchRun()
	run.Locations = len(locs)

	e, err := newEngine(app.Config, src, nil)
	if err != nil {
		return nil, err
	}

	fr, err := e.Fetch(ctx, locs)
	if err != nil {
		return nil, err
	}

	for name, ferr := range fr.Errors {
		run.Errors[name] = ferr.Error()
	}

	start := cacheStart(app.Config, run.StartedAt)
	for _, loc := range locs {
		s, ok := fr.Series[loc.Name]
		if !ok {
			continue
		}
		keep := &weather.Series{Location: s.Location, Samples: s.Since(start)}
		n, err := data.SaveSamples(app.DB, keep)
		if err != nil {
			run.Errors[loc.Name] = err.Error()
			continue
		}
		run.Samples += n
		slog.Debug("samples saved", "location", loc.Name, "count", n, "span", keep.Span())
	}
	run.Failed = len(run.Errors)
	run.FinishedAt = time.Now().UTC()

	pruned, err := data.PruneSamples(app.DB, start)
	if err != nil {
		return nil, fmt.Errorf("pruning samples: %w", err)
	}
	if pruned > 0 {
		slog.Debug("samples pruned", "count", pruned)
	}

	if _, err := data.PruneRuns(app.DB, run.StartedAt.Add(-runRetentionDays*hoursPerDay)); err != nil {
		return nil, fmt.Errorf("pruning runs: %w", err)
	}

	if err := data.SaveRun(app.DB, run); err != nil {
		return nil, fmt.Errorf("saving run: %w", err)
	}

	return run, nil
}

// loadResult scores the cached samples of locs. Locations without a configured
// face aspect use the one derived by the terrain command, when present.
func loadResult(ctx context.Context, app *appConfig, locs []terrain.Location, now time.Time) (*engine.Result, error) {
	since := cacheStart(app.Config, now)
	series := make(map[string]*weather.Series, len(locs))
	scored := make([]terrain.Location, len(locs))

	for i, loc := range locs {
		if loc.Aspect == nil {
			info, err := data.GetTerrain(app.DB, loc.Name)
			if err != nil {
				return nil, err
			}
			if info != nil && info.Aspect != nil {
				loc.Aspect = info.Aspect
			}
		}
		scored[i] = loc

		s, err := data.GetSeries(app.DB, loc.Name, since)
		if err != nil {
			return nil, err
		}
		if s.Len() > 0 {
			series[loc.Name] = s
		}
	}

	e, err := newEngine(app.Config, nil, func() time.Time { return now })
	if err != nil {
		return nil, err
	}

	return e.Evaluate(ctx, scored, series)
}

func mapOptions(conf *config.Config) render.MapOptions {
	return render.MapOptions{
		Title:     conf.Map.Title,
		CenterLat: conf.Map.CenterLat,
		CenterLon: conf.Map.CenterLon,
		Zoom:      conf.Map.Zoom,
		Version:   version,
	}
}
