// Package terrain derives elevation, slope and aspect for a location from a
// small elevation grid sampled around it.
package terrain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/mchmarny/rimecast/pkg/net"
	"gonum.org/v1/gonum/mat"
)

const (
	// ElevationURL is the Open-Meteo elevation endpoint (90 m Copernicus DEM).
	ElevationURL = "https://api.open-meteo.com/v1/elevation"

	// DefaultSpacing is the grid cell size in meters.
	DefaultSpacing = 90.0

	metersPerDegree = 111320.0
	gridSize        = 3
)

var (
	// ErrElevationData is returned when the elevation response does not
	// match the requested grid.
	ErrElevationData = errors.New("unexpected elevation data")

	// Horn kernels; row 0 is the northern edge, column 0 the western.
	eastKernel = mat.NewDense(gridSize, gridSize, []float64{
		-1, 0, 1,
		-2, 0, 2,
		-1, 0, 1,
	})
	northKernel = mat.NewDense(gridSize, gridSize, []float64{
		1, 2, 1,
		0, 0, 0,
		-1, -2, -1,
	})
)

// Info is the terrain at a location.
type Info struct {
	Location  string   `json:"location" yaml:"location"`
	Elevation float64  `json:"elevation_m" yaml:"elevation_m"`
	Slope     float64  `json:"slope_deg" yaml:"slope_deg"`
	Aspect    *float64 `json:"aspect_deg,omitempty" yaml:"aspect_deg,omitempty"`
}

// Analyzer samples a 3x3 elevation grid centered on a location.
type Analyzer struct {
	client  *net.Client
	baseURL string
	spacing float64
	logger  *slog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithBaseURL overrides the elevation endpoint.
func WithBaseURL(u string) Option {
	return func(a *Analyzer) {
		if u != "" {
			a.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithClient sets the HTTP client.
func WithClient(c *net.Client) Option {
	return func(a *Analyzer) {
		a.client = c
	}
}

// WithSpacing sets the grid cell size in meters.
func WithSpacing(m float64) Option {
	return func(a *Analyzer) {
		if m > 0 {
			a.spacing = m
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{
		baseURL: ElevationURL,
		spacing: DefaultSpacing,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.client == nil {
		a.client = net.NewClient("open-meteo-elevation")
	}
	return a
}

type elevationResponse struct {
	Elevation []float64 `json:"elevation"`
}

// Analyze fetches the grid around loc and derives its terrain.
func (a *Analyzer) Analyze(ctx context.Context, loc Location) (*Info, error) {
	if err := loc.Validate(); err != nil {
		return nil, err
	}

	lats, lons := a.grid(loc.Latitude, loc.Longitude)

	var r elevationResponse
	if err := net.GetJSON(ctx, a.client, a.url(lats, lons), &r); err != nil {
		return nil, fmt.Errorf("fetching elevation for %s: %w", loc.Name, err)
	}
	if len(r.Elevation) != gridSize*gridSize {
		return nil, fmt.Errorf("%w for %s: got %d points, want %d",
			ErrElevationData, loc.Name, len(r.Elevation), gridSize*gridSize)
	}

	info := Derive(mat.NewDense(gridSize, gridSize, r.Elevation), a.spacing)
	info.Location = loc.Name

	a.logger.Debug("terrain derived",
		"location", loc.Name,
		"elevation", info.Elevation,
		"slope", info.Slope,
		"aspect", info.Aspect,
	)

	return info, nil
}

// grid returns the row-major coordinates of the 3x3 grid, north row first.
func (a *Analyzer) grid(lat, lon float64) ([]float64, []float64) {
	dLat := a.spacing / metersPerDegree
	dLon := a.spacing / (metersPerDegree * math.Cos(lat*math.Pi/180))

	lats := make([]float64, 0, gridSize*gridSize)
	lons := make([]float64, 0, gridSize*gridSize)
	for r := 0; r < gridSize; r++ {
		for c := 0; c < gridSize; c++ {
			lats = append(lats, lat+float64(1-r)*dLat)
			lons = append(lons, lon+float64(c-1)*dLon)
		}
	}
	return lats, lons
}

func (a *Analyzer) url(lats, lons []float64) string {
	v := url.Values{}
	v.Set("latitude", joinFloats(lats))
	v.Set("longitude", joinFloats(lons))
	return a.baseURL + "?" + v.Encode()
}

func joinFloats(list []float64) string {
	parts := make([]string, len(list))
	for i, f := range list {
		parts[i] = strconv.FormatFloat(f, 'f', 6, 64)
	}
	return strings.Join(parts, ",")
}

// Derive computes the terrain of the center cell of a 3x3 elevation grid with
// cells spacing meters apart. Aspect is the compass bearing of the downhill
// direction and is nil on flat ground.
func Derive(g *mat.Dense, spacing float64) *Info {
	var ex, ny mat.Dense
	ex.MulElem(eastKernel, g)
	ny.MulElem(northKernel, g)

	dzdx := mat.Sum(&ex) / (8 * spacing)
	dzdy := mat.Sum(&ny) / (8 * spacing)

	info := &Info{
		Elevation: g.At(1, 1),
		Slope:     math.Atan(math.Hypot(dzdx, dzdy)) * 180 / math.Pi,
	}

	if math.Hypot(dzdx, dzdy) < 1e-9 {
		return info
	}

	aspect := math.Atan2(-dzdx, -dzdy) * 180 / math.Pi
	if aspect < 0 {
		aspect += 360
	}
	info.Aspect = &aspect

	return info
}
