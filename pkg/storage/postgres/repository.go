/*
 * Copyright (C) 2026 IBM, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/robotpm/pm-pipeline/pkg/api"
	"github.com/robotpm/pm-pipeline/pkg/dataset"
	"github.com/robotpm/pm-pipeline/pkg/detect"
	"github.com/sirupsen/logrus"
)

var plog = logrus.WithField("component", "storage.Postgres")

// PageSize is the number of rows sent in one INSERT statement.
const PageSize = 1000

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// ValidateIdentifier rejects table and column names that would need quoting.
func ValidateIdentifier(name string) error {
	if !identifier.MatchString(name) {
		return fmt.Errorf("invalid SQL identifier %q", name)
	}
	return nil
}

func validateIdentifiers(names ...string) error {
	for _, n := range names {
		if err := ValidateIdentifier(n); err != nil {
			return err
		}
	}
	return nil
}

// Repository stores readings and events in PostgreSQL.
type Repository struct {
	db *sqlx.DB
}

// Open connects to PostgreSQL.
func Open(conn api.PostgresConnection) (*Repository, error) {
	db, err := sqlx.Connect("postgres", conn.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)
	return NewRepository(db), nil
}

// NewRepository wraps an existing connection pool.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Close closes the connection pool.
func (r *Repository) Close() error {
	return r.db.Close()
}

// EnsureReadingsTable creates a readings table if it does not exist.
func (r *Repository) EnsureReadingsTable(ctx context.Context, table, timeColumn string, channels []string) error {
	if err := validateIdentifiers(append([]string{table, timeColumn}, channels...)...); err != nil {
		return err
	}
	cols := make([]string, 0, len(channels))
	for _, ch := range channels {
		cols = append(cols, ch+" DOUBLE PRECISION")
	}
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id BIGSERIAL PRIMARY KEY,
		%s DOUBLE PRECISION,
		%s,
		created_at TIMESTAMPTZ DEFAULT NOW()
	)`, table, timeColumn, strings.Join(cols, ", "))
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return errors.Wrapf(err, "creating table %s", table)
	}
	return nil
}

// EnsureEventsTable creates an events table if it does not exist.
func (r *Repository) EnsureEventsTable(ctx context.Context, table string) error {
	if err := ValidateIdentifier(table); err != nil {
		return err
	}
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id BIGSERIAL PRIMARY KEY,
		axis_name TEXT NOT NULL,
		event_type TEXT NOT NULL,
		start_time DOUBLE PRECISION NOT NULL,
		end_time DOUBLE PRECISION NOT NULL,
		duration_s DOUBLE PRECISION NOT NULL,
		threshold DOUBLE PRECISION NOT NULL,
		max_deviation DOUBLE PRECISION NOT NULL,
		created_at TIMESTAMPTZ DEFAULT NOW()
	)`, table)
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return errors.Wrapf(err, "creating table %s", table)
	}
	return nil
}

// InsertReadings writes the dataset in pages of PageSize rows, in one transaction.
// Non-finite values are stored as 0.
func (r *Repository) InsertReadings(ctx context.Context, table string, ds *dataset.Dataset) error {
	if ds.Len() == 0 {
		return nil
	}
	if err := ds.Validate(); err != nil {
		return err
	}
	columns := append([]string{ds.TimeColumn}, ds.Channels...)
	if err := validateIdentifiers(append([]string{table}, columns...)...); err != nil {
		return err
	}
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		for from := 0; from < ds.Len(); from += PageSize {
			to := min(from+PageSize, ds.Len())
			query, args := readingsInsert(table, columns, ds.Readings[from:to])
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return errors.Wrapf(err, "inserting readings %d-%d into %s", from, to, table)
			}
		}
		plog.Debugf("inserted %d readings into %s", ds.Len(), table)
		return nil
	})
}

func readingsInsert(table string, columns []string, readings []dataset.Reading) (string, []interface{}) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES ", table, strings.Join(columns, ", "))
	args := make([]interface{}, 0, len(readings)*len(columns))
	for i, r := range readings {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for c := range columns {
			if c > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", len(args)+1)
			if c == 0 {
				args = append(args, finite(r.Time))
			} else {
				args = append(args, finite(r.Values[c-1]))
			}
		}
		sb.WriteByte(')')
	}
	return sb.String(), args
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// ReadReadings reads a readings table in insertion order. limit <= 0 reads everything.
// NULL cells are read as 0.
func (r *Repository) ReadReadings(ctx context.Context, table, timeColumn string, channels []string, limit int) (*dataset.Dataset, error) {
	if err := validateIdentifiers(append([]string{table, timeColumn}, channels...)...); err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s, %s FROM %s ORDER BY id", timeColumn, strings.Join(channels, ", "), table)
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", table)
	}
	defer rows.Close()

	ds := dataset.New(timeColumn, channels)
	cells := make([]sql.NullFloat64, len(channels)+1)
	dest := make([]interface{}, len(cells))
	for i := range cells {
		dest[i] = &cells[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, errors.Wrapf(err, "scanning %s", table)
		}
		values := make([]float64, len(channels))
		for i := range values {
			values[i] = cells[i+1].Float64
		}
		ds.Append(cells[0].Float64, values...)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "reading %s", table)
	}
	return ds, nil
}

// InsertEvents writes events in pages of PageSize rows, in one transaction.
func (r *Repository) InsertEvents(ctx context.Context, table string, events []detect.Event) error {
	if len(events) == 0 {
		return nil
	}
	if err := ValidateIdentifier(table); err != nil {
		return err
	}
	query := fmt.Sprintf(`INSERT INTO %s (axis_name, event_type, start_time, end_time, duration_s, threshold, max_deviation)
		VALUES (:axis_name, :event_type, :start_time, :end_time, :duration_s, :threshold, :max_deviation)`, table)
	return r.inTx(ctx, func(tx *sqlx.Tx) error {
		for from := 0; from < len(events); from += PageSize {
			to := min(from+PageSize, len(events))
			if _, err := tx.NamedExecContext(ctx, query, events[from:to]); err != nil {
				return errors.Wrapf(err, "inserting events into %s", table)
			}
		}
		plog.Debugf("inserted %d events into %s", len(events), table)
		return nil
	})
}

func (r *Repository) inTx(ctx context.Context, f func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := f(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			plog.WithError(rbErr).Warn("rollback failed")
		}
		return err
	}
	return tx.Commit()
}
