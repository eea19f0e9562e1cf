package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mchmarny/rimecast/pkg/config"
	"github.com/mchmarny/rimecast/pkg/data"
	"github.com/mchmarny/rimecast/pkg/logging"
	urfave "github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	appName      = "rimecast"
	appConfigKey = "app-config"

	formatJSON = "json"
	formatYAML = "yaml"
)

var (
	version = "v0.0.1-default"
	commit  = ""
	date    = ""

	outputFormat = formatJSON

	// stdout is where command results are encoded.
	stdout io.Writer = os.Stdout

	debugFlag = &urfave.BoolFlag{
		Name:  "debug",
		Usage: "Prints verbose logs (optional, default: false)",
	}

	dbFilePathFlag = &urfave.StringFlag{
		Name:  "db",
		Usage: "Path to the Sqlite database file",
	}

	configDirFlag = &urfave.StringFlag{
		Name:  "config",
		Usage: "Path to the directory holding config.yaml (default: ~/.rimecast)",
	}

	formatFlag = &urfave.StringFlag{
		Name:  "format",
		Usage: "Output format [json, yaml]",
		Value: formatJSON,
	}
)

// Execute creates and runs the CLI application.
func Execute() {
	logging.SetDefaultCLILogger("info")

	app := newApp()
	if err := app.Run(context.Background(), os.Args); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

type appConfig struct {
	HomeDir string
	DBPath  string
	Debug   bool
	DB      *sql.DB
	Config  *config.Config
}

func getConfig(cmd *urfave.Command) *appConfig {
	return cmd.Root().Metadata[appConfigKey].(*appConfig)
}

func newApp() *urfave.Command {
	return &urfave.Command{
		Name:                  appName,
		Version:               fmt.Sprintf("%s (%s - %s)", version, commit, date),
		EnableShellCompletion: true,
		HideHelpCommand:       true,
		Usage:                 "Rime ice and verglas formation estimates for mountain venues",
		Metadata:              map[string]any{},
		Flags: []urfave.Flag{
			debugFlag,
			dbFilePathFlag,
			configDirFlag,
			formatFlag,
		},
		Commands: []*urfave.Command{
			fetchCmd,
			scoreCmd,
			renderCmd,
			serverCmd,
			terrainCmd,
			authCmd,
			stateCmd,
			resetCmd,
		},
		Before: func(ctx context.Context, cmd *urfave.Command) (context.Context, error) {
			return ctx, setup(cmd)
		},
		After: func(_ context.Context, cmd *urfave.Command) error {
			if cfg, ok := cmd.Metadata[appConfigKey].(*appConfig); ok && cfg.DB != nil {
				cfg.DB.Close()
			}
			return nil
		},
	}
}

func setup(cmd *urfave.Command) error {
	if cmd.Bool(debugFlag.Name) {
		logging.SetDefaultCLILogger("debug")
	}

	f := cmd.String(formatFlag.Name)
	if f == formatYAML || f == "yml" {
		outputFormat = formatYAML
	}

	home := cmd.String(configDirFlag.Name)
	if home == "" {
		dir, created, err := config.GetOrCreateHomeDir(appName)
		if err != nil {
			return fmt.Errorf("resolving home dir: %w", err)
		}
		if created {
			slog.Info("created app dir", "path", dir)
		}
		home = dir
	}

	conf, err := config.ReadOrCreate(home)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	dbPath := cmd.String(dbFilePathFlag.Name)
	if dbPath == "" {
		dbPath = filepath.Join(home, data.DataFileName)
	}

	if err := data.Init(dbPath); err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}

	db, err := data.GetDB(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}

	cmd.Metadata[appConfigKey] = &appConfig{
		HomeDir: home,
		DBPath:  dbPath,
		Debug:   cmd.Bool(debugFlag.Name),
		DB:      db,
		Config:  conf,
	}
	return nil
}

func encode(v any) error {
	if outputFormat == formatYAML {
		e := yaml.NewEncoder(stdout)
		e.SetIndent(2)
		return e.Encode(v)
	}
	e := json.NewEncoder(stdout)
	e.SetIndent("", "  ")
	return e.Encode(v)
}
