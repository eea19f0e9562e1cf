package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mchmarny/rimecast/pkg/engine"
	"github.com/urfave/cli/v3"
)

var (
	atFlag = &cli.StringFlag{
		Name:  "at",
		Usage: "Score at this RFC3339 time, e.g. 2025-01-12T06:00:00Z (default: now)",
	}

	allFlag = &cli.BoolFlag{
		Name:  "all",
		Usage: "Print every scored point instead of the latest summary",
	}

	scoreCmd = &cli.Command{
		Name:    "score",
		Aliases: []string{"s"},
		Usage:   "Score the cached weather and print rime and verglas formation rates",
		UsageText: `rimecast score                                   # latest conditions at every location
   rimecast score --location "Ben Nevis" --all      # every point of one location
   rimecast score --at 2025-01-12T06:00:00Z         # conditions at a past time`,
		Action: cmdScore,
		Flags: []cli.Flag{
			locationFlag,
			atFlag,
			allFlag,
		},
	}
)

// LocationScore is the score output of one location.
type LocationScore struct {
	Location string          `json:"location" yaml:"location"`
	Summary  *engine.Summary `json:"summary,omitempty" yaml:"summary,omitempty"`
	Point    *engine.Point   `json:"point,omitempty" yaml:"point,omitempty"`
	Error    string          `json:"error,omitempty" yaml:"error,omitempty"`
}

func cmdScore(ctx context.Context, cmd *cli.Command) error {
	app := getConfig(cmd)

	locs, err := selectLocations(app.Config, cmd.StringSlice(locationFlag.Name))
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if v := cmd.String(atFlag.Name); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return fmt.Errorf("invalid --at %q, expected RFC3339 time: %w", v, err)
		}
		now = t.UTC()
	}

	res, err := loadResult(ctx, app, locs, now)
	if err != nil {
		return fmt.Errorf("scoring cached weather: %w", err)
	}

	if cmd.Bool(allFlag.Name) {
		return encode(res)
	}

	list := scoresAt(res, now, cmd.IsSet(atFlag.Name))
	for _, ls := range list {
		if ls.Summary != nil {
			logSummary(ls.Location, ls.Summary)
		}
	}
	return encode(list)
}

// scoresAt picks the latest summary of every location; withPoint also
// includes the full point at the requested time.
func scoresAt(res *engine.Result, at time.Time, withPoint bool) []*LocationScore {
	list := make([]*LocationScore, 0, len(res.Locations))
	for _, lr := range res.Locations {
		ls := &LocationScore{
			Location: lr.Location.Name,
			Summary:  lr.Latest,
			Error:    lr.Error,
		}
		if withPoint {
			ls.Point = lr.At(at)
		}
		list = append(list, ls)
	}
	return list
}

func logSummary(name string, s *engine.Summary) {
	args := []any{"time", s.Time}
	if s.Temperature != nil {
		args = append(args, "temp_c", *s.Temperature)
	}
	if s.WindMPH != nil {
		args = append(args, "wind_mph", *s.WindMPH)
	}
	args = append(args, "max_rime", s.MaxRime)
	if len(s.MaxRimeAspects) > 0 {
		args = append(args, "rime_aspects", strings.Join(s.MaxRimeAspects, ","))
	}
	args = append(args, "verglas", s.Verglas)
	slog.Info(name, args...)
}
