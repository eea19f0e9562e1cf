package cli

import (
	"context"

	"github.com/mchmarny/rimecast/pkg/data"
	"github.com/urfave/cli/v3"
)

var stateCmd = &cli.Command{
	Name:   "state",
	Usage:  "Print cache statistics and the most recent fetch run",
	Action: cmdState,
}

// StateResult is the output of the state command.
type StateResult struct {
	DBPath    string           `json:"db_path" yaml:"db_path"`
	Counts    map[string]int64 `json:"counts" yaml:"counts"`
	Locations []string         `json:"cached_locations" yaml:"cached_locations"`
	LastRun   *data.FetchRun   `json:"last_run,omitempty" yaml:"last_run,omitempty"`
}

func cmdState(_ context.Context, cmd *cli.Command) error {
	app := getConfig(cmd)

	counts, err := data.GetDataState(app.DB)
	if err != nil {
		return err
	}

	locs, err := data.GetSampleLocations(app.DB)
	if err != nil {
		return err
	}

	run, err := data.GetLastRun(app.DB)
	if err != nil {
		return err
	}

	return encode(&StateResult{
		DBPath:    app.DBPath,
		Counts:    counts,
		Locations: locs,
		LastRun:   run,
	})
}
