package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/mchmarny/rimecast/pkg/engine"
	"github.com/mchmarny/rimecast/pkg/weather"
	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v3"
)

const (
	serverShutdownWaitSeconds = 5
	serverTimeoutSeconds      = 300
	serverMaxHeaderBytes      = 20
	serverPortDefault         = 8080
)

var (
	portFlag = &cli.IntFlag{
		Name:     "port",
		Usage:    "Port on which the server will listen",
		Value:    serverPortDefault,
		Required: false,
	}

	noBrowserFlag = &cli.BoolFlag{
		Name:    "no-browser",
		Aliases: []string{"nb"},
		Usage:   "Do not open browser automatically",
	}

	refreshFlag = &cli.StringFlag{
		Name:  "refresh",
		Usage: `Cron schedule for fetching fresh weather, e.g. "@hourly" or "0 * * * *" (default: never)`,
	}

	serverCmd = &cli.Command{
		Name:    "server",
		Aliases: []string{"serve"},
		Usage:   "Start local HTTP server with the map and the JSON data API",
		Action:  cmdStartServer,
		Flags: []cli.Flag{
			portFlag,
			noBrowserFlag,
			refreshFlag,
		},
	}
)

// scoreServer holds the most recent result served by the handlers.
type scoreServer struct {
	app    *appConfig
	source weather.Source
	now    func() time.Time
	logger *slog.Logger

	mu     sync.RWMutex
	result *engine.Result
}

func newScoreServer(app *appConfig, src weather.Source) *scoreServer {
	return &scoreServer{
		app:    app,
		source: src,
		now:    func() time.Time { return time.Now().UTC() },
		logger: slog.Default().WithGroup("server"),
	}
}

func (s *scoreServer) current() *engine.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result
}

// reload rescores the cached weather.
func (s *scoreServer) reload(ctx context.Context) error {
	res, err := loadResult(ctx, s.app, s.app.Config.Locations, s.now())
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.result = res
	s.mu.Unlock()
	return nil
}

// update fetches fresh weather for every location and rescores.
func (s *scoreServer) update(ctx context.Context) error {
	if s.source == nil {
		return errors.New("weather source not configured")
	}
	run, err := fetchAndStore(ctx, s.app, s.source, s.app.Config.Locations)
	if err != nil {
		return err
	}
	s.logger.Info("weather refreshed", "samples", run.Samples, "failed", run.Failed, "took", run.Duration())
	return s.reload(ctx)
}

func cmdStartServer(ctx context.Context, cmd *cli.Command) error {
	app := getConfig(cmd)
	port := cmd.Int(portFlag.Name)
	address := fmt.Sprintf("127.0.0.1:%d", port)

	srv := newScoreServer(app, newSource(app))
	if err := srv.reload(ctx); err != nil {
		return fmt.Errorf("scoring cached weather: %w", err)
	}

	ctx, stop := context.WithCancel(ctx)
	defer stop()

	if schedule := cmd.String(refreshFlag.Name); schedule != "" {
		sched := cron.New()
		if _, err := sched.AddFunc(schedule, func() {
			if err := srv.update(ctx); err != nil {
				srv.logger.Error("scheduled refresh failed", "error", err)
			}
		}); err != nil {
			return fmt.Errorf("invalid refresh schedule %q: %w", schedule, err)
		}
		sched.Start()
		defer sched.Stop()

		go func() {
			if err := srv.update(ctx); err != nil {
				srv.logger.Error("initial refresh failed", "error", err)
			}
		}()
		srv.logger.Info("refresh scheduled", "schedule", schedule)
	}

	s := &http.Server{
		Addr:           address,
		Handler:        makeRouter(srv),
		ReadTimeout:    serverTimeoutSeconds * time.Second,
		WriteTimeout:   serverTimeoutSeconds * time.Second,
		MaxHeaderBytes: 1 << serverMaxHeaderBytes,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("error starting server", "error", err)
		}
	}()

	url := fmt.Sprintf("http://%s", address)
	slog.Info("server started", "address", url)

	if !cmd.Bool(noBrowserFlag.Name) {
		openBrowser(url)
	}

	<-done
	stop()

	sctx, cancel := context.WithTimeout(context.Background(), serverShutdownWaitSeconds*time.Second)
	defer cancel()

	if err := s.Shutdown(sctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("error shutting down server", "error", err)
	}
	return nil
}

func makeRouter(srv *scoreServer) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /favicon.ico", faviconHandler)

	// Views
	mux.HandleFunc("GET /{$}", mapViewHandler(srv))
	mux.HandleFunc("GET /compass/{name}", compassHandler(srv))

	// Data API
	mux.HandleFunc("GET /data/locations", locationsAPIHandler(srv))
	mux.HandleFunc("GET /data/scores", scoresAPIHandler(srv))
	mux.HandleFunc("GET /data/state", stateAPIHandler(srv))
	mux.HandleFunc("GET /data/runs", runsAPIHandler(srv))
	mux.HandleFunc("POST /data/refresh", refreshAPIHandler(srv))

	return mux
}

func openBrowser(url string) {
	var cmd string
	args := make([]string, 0, 1)

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
	case "linux":
		cmd = "xdg-open"
	default: // windows
		cmd = "rundll32"
		args = []string{"url.dll,FileProtocolHandler"}
	}

	args = append(args, url)
	if err := exec.Command(cmd, args...).Start(); err != nil {
		slog.Error("failed to open browser", "error", err)
	}
}
