package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mchmarny/rimecast/pkg/data"
	"github.com/mchmarny/rimecast/pkg/terrain"
	"github.com/urfave/cli/v3"
)

var terrainCmd = &cli.Command{
	Name:    "terrain",
	Aliases: []string{"t"},
	Usage:   "Derive elevation, slope and aspect of the configured locations",
	Action:  cmdTerrain,
	Flags: []cli.Flag{
		locationFlag,
	},
}

func cmdTerrain(ctx context.Context, cmd *cli.Command) error {
	app := getConfig(cmd)

	locs, err := selectLocations(app.Config, cmd.StringSlice(locationFlag.Name))
	if err != nil {
		return err
	}

	a := terrain.NewAnalyzer(
		terrain.WithBaseURL(app.Config.Fetch.ElevationURL),
		terrain.WithClient(newClient(app.Config, "open-meteo-elevation")),
		terrain.WithLogger(slog.Default().WithGroup("terrain")),
	)

	list := make([]*terrain.Info, 0, len(locs))
	for _, loc := range locs {
		info, err := a.Analyze(ctx, loc)
		if err != nil {
			return fmt.Errorf("analyzing %s: %w", loc.Name, err)
		}
		if err := data.SaveTerrain(app.DB, info); err != nil {
			return err
		}
		if loc.Aspect != nil {
			slog.Debug("configured aspect takes precedence", "location", loc.Name, "aspect", *loc.Aspect)
		}
		list = append(list, info)
	}

	return encode(list)
}
