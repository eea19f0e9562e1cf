package data

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mchmarny/rimecast/pkg/weather"
)

const (
	insertSampleSQL = `INSERT INTO sample (
			location, ts, temperature, humidity, wind_speed,
			wind_direction, precipitation, cloud_cover, fetched_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(location, ts) DO UPDATE SET
			temperature = excluded.temperature,
			humidity = excluded.humidity,
			wind_speed = excluded.wind_speed,
			wind_direction = excluded.wind_direction,
			precipitation = excluded.precipitation,
			cloud_cover = excluded.cloud_cover,
			fetched_at = excluded.fetched_at
	`

	selectSamplesSQL = `SELECT ts, temperature, humidity, wind_speed,
			wind_direction, precipitation, cloud_cover
		FROM sample
		WHERE location = ? AND ts >= ?
		ORDER BY ts
	`

	selectSampleLocationsSQL = `SELECT DISTINCT location FROM sample ORDER BY location`

	deleteSamplesBeforeSQL = `DELETE FROM sample WHERE ts < ?`
)

// SaveSamples upserts the samples of s. Newer fetches replace forecast
// values stored for the same hour.
func SaveSamples(db *sql.DB, s *weather.Series) (int, error) {
	if db == nil {
		return 0, errDBNotInitialized
	}
	if s == nil || s.Location == "" {
		return 0, errors.New("series with a location is required")
	}
	if s.Len() == 0 {
		return 0, nil
	}

	stmt, err := db.Prepare(insertSampleSQL)
	if err != nil {
		return 0, fmt.Errorf("error preparing sample insert: %w", err)
	}
	defer stmt.Close()

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("error starting sample tx: %w", err)
	}

	txStmt := tx.Stmt(stmt)
	defer txStmt.Close()

	now := time.Now().UTC().Unix()
	for _, smp := range s.Samples {
		if _, err := txStmt.Exec(
			s.Location, smp.Time.UTC().Unix(),
			nullFloat(smp.Temperature), nullFloat(smp.Humidity), nullFloat(smp.WindSpeed),
			nullFloat(smp.WindDirection), nullFloat(smp.Precipitation), nullFloat(smp.CloudCover),
			now,
		); err != nil {
			rollbackTransaction(tx)
			return 0, fmt.Errorf("error inserting sample %s@%s: %w",
				s.Location, smp.Time.Format(time.RFC3339), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("error committing sample tx: %w", err)
	}

	slog.Debug("saved samples", "location", s.Location, "count", s.Len())
	return s.Len(), nil
}

// GetSeries returns the cached samples of location at or after since.
func GetSeries(db *sql.DB, location string, since time.Time) (*weather.Series, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	rows, err := db.Query(selectSamplesSQL, location, since.UTC().Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to query samples for %s: %w", location, err)
	}
	defer rows.Close()

	s := &weather.Series{Location: location}
	for rows.Next() {
		var ts int64
		var temp, rh, wind, dir, precip, cloud sql.NullFloat64
		if err := rows.Scan(&ts, &temp, &rh, &wind, &dir, &precip, &cloud); err != nil {
			return nil, fmt.Errorf("failed to scan sample row: %w", err)
		}
		s.Samples = append(s.Samples, weather.Sample{
			Time:          time.Unix(ts, 0).UTC(),
			Temperature:   floatPtr(temp),
			Humidity:      floatPtr(rh),
			WindSpeed:     floatPtr(wind),
			WindDirection: floatPtr(dir),
			Precipitation: floatPtr(precip),
			CloudCover:    floatPtr(cloud),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sample rows: %w", err)
	}

	return s, nil
}

// GetSampleLocations lists the locations with cached samples.
func GetSampleLocations(db *sql.DB) ([]string, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	rows, err := db.Query(selectSampleLocationsSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to query sample locations: %w", err)
	}
	defer rows.Close()

	list := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan location row: %w", err)
		}
		list = append(list, name)
	}
	return list, rows.Err()
}

// PruneSamples deletes samples older than before and returns how many were
// removed.
func PruneSamples(db *sql.DB, before time.Time) (int64, error) {
	if db == nil {
		return 0, errDBNotInitialized
	}

	res, err := db.Exec(deleteSamplesBeforeSQL, before.UTC().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to prune samples: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read pruned count: %w", err)
	}

	if n > 0 {
		slog.Debug("pruned samples", "before", before.Format(time.RFC3339), "count", n)
	}
	return n, nil
}
