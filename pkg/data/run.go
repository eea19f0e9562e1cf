package data

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	insertRunSQL = `INSERT INTO fetch_run (id, started_at, finished_at, locations, samples, failed, errors)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	selectRunsSQL = `SELECT id, started_at, finished_at, locations, samples, failed, errors
		FROM fetch_run
		ORDER BY started_at DESC
		LIMIT ?
	`

	deleteRunsBeforeSQL = `DELETE FROM fetch_run WHERE started_at < ?`
)

// FetchRun records one weather fetch across all locations.
type FetchRun struct {
	ID         string            `json:"id" yaml:"id"`
	StartedAt  time.Time         `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time         `json:"finished_at" yaml:"finished_at"`
	Locations  int               `json:"locations" yaml:"locations"`
	Samples    int               `json:"samples" yaml:"samples"`
	Failed     int               `json:"failed" yaml:"failed"`
	Errors     map[string]string `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// NewFetchRun starts a run record.
func NewFetchRun() *FetchRun {
	return &FetchRun{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Errors:    make(map[string]string),
	}
}

// Duration returns how long the run took.
func (r *FetchRun) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// SaveRun persists r.
func SaveRun(db *sql.DB, r *FetchRun) error {
	if db == nil {
		return errDBNotInitialized
	}
	if r == nil || r.ID == "" {
		return errors.New("fetch run with an ID is required")
	}
	if _, err := uuid.Parse(r.ID); err != nil {
		return fmt.Errorf("invalid fetch run ID %q: %w", r.ID, err)
	}

	var errs sql.NullString
	if len(r.Errors) > 0 {
		b, err := json.Marshal(r.Errors)
		if err != nil {
			return fmt.Errorf("error encoding run errors: %w", err)
		}
		errs = sql.NullString{String: string(b), Valid: true}
	}

	if _, err := db.Exec(insertRunSQL,
		r.ID, r.StartedAt.UTC().Unix(), r.FinishedAt.UTC().Unix(),
		r.Locations, r.Samples, r.Failed, errs,
	); err != nil {
		return fmt.Errorf("failed to insert fetch run: %w", err)
	}

	return nil
}

// GetRuns returns up to limit runs, most recent first.
func GetRuns(db *sql.DB, limit int) ([]*FetchRun, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	if limit <= 0 {
		limit = 10
	}

	rows, err := db.Query(selectRunsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query fetch runs: %w", err)
	}
	defer rows.Close()

	list := make([]*FetchRun, 0)
	for rows.Next() {
		r := &FetchRun{}
		var started, finished int64
		var errs sql.NullString
		if err := rows.Scan(&r.ID, &started, &finished, &r.Locations, &r.Samples, &r.Failed, &errs); err != nil {
			return nil, fmt.Errorf("failed to scan fetch run row: %w", err)
		}
		r.StartedAt = time.Unix(started, 0).UTC()
		r.FinishedAt = time.Unix(finished, 0).UTC()
		if errs.Valid {
			if err := json.Unmarshal([]byte(errs.String), &r.Errors); err != nil {
				return nil, fmt.Errorf("failed to decode run errors: %w", err)
			}
		}
		list = append(list, r)
	}

	return list, rows.Err()
}

// GetLastRun returns the most recent run or nil when there is none.
func GetLastRun(db *sql.DB) (*FetchRun, error) {
	list, err := GetRuns(db, 1)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// PruneRuns deletes runs started before before.
func PruneRuns(db *sql.DB, before time.Time) (int64, error) {
	if db == nil {
		return 0, errDBNotInitialized
	}

	res, err := db.Exec(deleteRunsBeforeSQL, before.UTC().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to prune fetch runs: %w", err)
	}
	return res.RowsAffected()
}
