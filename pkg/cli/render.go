package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/mchmarny/rimecast/pkg/render"
	"github.com/urfave/cli/v3"
)

const defaultMapFileName = "rimecast.html"

var (
	outputFlag = &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Path of the HTML file to write",
		Value:   defaultMapFileName,
	}

	openFlag = &cli.BoolFlag{
		Name:  "open",
		Usage: "Open the rendered map in the browser",
	}

	renderCmd = &cli.Command{
		Name:    "render",
		Aliases: []string{"r"},
		Usage:   "Render the cached scores as an interactive HTML map",
		Action:  cmdRender,
		Flags: []cli.Flag{
			outputFlag,
			openFlag,
		},
	}
)

func cmdRender(ctx context.Context, cmd *cli.Command) error {
	app := getConfig(cmd)

	res, err := loadResult(ctx, app, app.Config.Locations, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("scoring cached weather: %w", err)
	}

	path := cmd.String(outputFlag.Name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if err := render.WriteHTML(f, res, mapOptions(app.Config)); err != nil {
		return err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	slog.Info("map written", "path", abs, "locations", len(res.Locations), "timestamps", len(res.Timestamps))

	if cmd.Bool(openFlag.Name) {
		openBrowser("file://" + abs)
	}
	return nil
}
