package data

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mchmarny/rimecast/pkg/terrain"
)

const (
	insertTerrainSQL = `INSERT INTO terrain (location, elevation, slope, aspect, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(location) DO UPDATE SET
			elevation = excluded.elevation,
			slope = excluded.slope,
			aspect = excluded.aspect,
			updated_at = excluded.updated_at
	`

	selectTerrainSQL = `SELECT location, elevation, slope, aspect FROM terrain WHERE location = ?`
)

// SaveTerrain upserts the derived terrain of a location.
func SaveTerrain(db *sql.DB, info *terrain.Info) error {
	if db == nil {
		return errDBNotInitialized
	}
	if info == nil || info.Location == "" {
		return errors.New("terrain info with a location is required")
	}

	if _, err := db.Exec(insertTerrainSQL,
		info.Location, info.Elevation, info.Slope, nullFloat(info.Aspect), time.Now().UTC().Unix(),
	); err != nil {
		return fmt.Errorf("failed to save terrain for %s: %w", info.Location, err)
	}
	return nil
}

// GetTerrain returns the cached terrain of location or nil when none exists.
func GetTerrain(db *sql.DB, location string) (*terrain.Info, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	info := &terrain.Info{}
	var aspect sql.NullFloat64
	err := db.QueryRow(selectTerrainSQL, location).Scan(&info.Location, &info.Elevation, &info.Slope, &aspect)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query terrain for %s: %w", location, err)
	}
	info.Aspect = floatPtr(aspect)

	return info, nil
}
