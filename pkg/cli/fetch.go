package cli

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/mchmarny/rimecast/pkg/data"
	"github.com/urfave/cli/v3"
)

var (
	locationFlag = &cli.StringSliceFlag{
		Name:    "location",
		Aliases: []string{"l"},
		Usage:   "Name of the configured location (can be specified multiple times, default: all)",
	}

	pastDaysFlag = &cli.IntFlag{
		Name:  "past-days",
		Usage: "Number of past days to fetch (default: from config)",
	}

	forecastDaysFlag = &cli.IntFlag{
		Name:  "forecast-days",
		Usage: "Number of forecast days to fetch (default: from config)",
	}

	fetchCmd = &cli.Command{
		Name:    "fetch",
		Aliases: []string{"f"},
		Usage:   "Fetch hourly weather for the configured locations into the local cache",
		UsageText: `rimecast fetch                                   # fetch all configured locations
   rimecast fetch --location "Ben Nevis"            # fetch a single location
   rimecast fetch --past-days 3 --forecast-days 2   # override the fetched range`,
		Action: cmdFetch,
		Flags: []cli.Flag{
			locationFlag,
			pastDaysFlag,
			forecastDaysFlag,
		},
	}
)

// FetchResult is the command output of a fetch.
type FetchResult struct {
	Run      *data.FetchRun `json:"run" yaml:"run"`
	Duration string         `json:"duration" yaml:"duration"`
	Failed   []string       `json:"failed,omitempty" yaml:"failed,omitempty"`
}

func cmdFetch(ctx context.Context, cmd *cli.Command) error {
	app := getConfig(cmd)

	if cmd.IsSet(pastDaysFlag.Name) {
		app.Config.Fetch.PastDays = cmd.Int(pastDaysFlag.Name)
	}
	if cmd.IsSet(forecastDaysFlag.Name) {
		app.Config.Fetch.ForecastDays = cmd.Int(forecastDaysFlag.Name)
	}
	if err := app.Config.Validate(); err != nil {
		return err
	}

	locs, err := selectLocations(app.Config, cmd.StringSlice(locationFlag.Name))
	if err != nil {
		return err
	}

	slog.Info("fetching weather", "locations", len(locs),
		"past_days", app.Config.Fetch.PastDays, "forecast_days", app.Config.Fetch.ForecastDays)

	run, err := fetchAndStore(ctx, app, newSource(app), locs)
	if err != nil {
		return fmt.Errorf("fetching weather: %w", err)
	}

	res := &FetchResult{
		Run:      run,
		Duration: run.Duration().String(),
	}
	for name := range run.Errors {
		res.Failed = append(res.Failed, name)
	}
	sort.Strings(res.Failed)

	if run.Failed == len(locs) {
		if err := encode(res); err != nil {
			return fmt.Errorf("encoding result: %w", err)
		}
		return fmt.Errorf("all %d locations failed", len(locs))
	}

	return encode(res)
}
