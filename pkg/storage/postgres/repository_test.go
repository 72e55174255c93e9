package postgres

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/robotpm/pm-pipeline/pkg/dataset"
	"github.com/robotpm/pm-pipeline/pkg/detect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sqlmock "gopkg.in/DATA-DOG/go-sqlmock.v1"
)

func newMockRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(sqlx.NewDb(db, "postgres")), mock
}

func TestValidateIdentifier(t *testing.T) {
	for _, ok := range []string{"robot_currents_raw", "pm_events", "public.pm_events", "_t1", "axis_8"} {
		assert.NoError(t, ValidateIdentifier(ok), ok)
	}
	for _, bad := range []string{"", "1table", "pm-events", "t; DROP TABLE x", "a.b.c", `"quoted"`} {
		assert.Error(t, ValidateIdentifier(bad), bad)
	}
}

func TestEnsureTables(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS robot_readings")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS pm_events")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ctx := context.Background()
	require.NoError(t, repo.EnsureReadingsTable(ctx, "robot_readings", "time_s", []string{"axis_1", "axis_2"}))
	require.NoError(t, repo.EnsureEventsTable(ctx, "pm_events"))
	require.NoError(t, mock.ExpectationsWereMet())

	require.Error(t, repo.EnsureReadingsTable(ctx, "robot readings", "time_s", []string{"axis_1"}))
	require.Error(t, repo.EnsureReadingsTable(ctx, "robot_readings", "time_s", []string{"axis-1"}))
	require.Error(t, repo.EnsureEventsTable(ctx, "pm_events;"))
}

func TestInsertReadings(t *testing.T) {
	repo, mock := newMockRepo(t)
	ds := dataset.New("time_s", []string{"a", "b"})
	ds.Append(0, 1, math.NaN())
	ds.Append(1, math.Inf(1), 3)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO readings (time_s, a, b) VALUES ($1, $2, $3), ($4, $5, $6)")).
		WithArgs(0.0, 1.0, 0.0, 1.0, 0.0, 3.0).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, repo.InsertReadings(context.Background(), "readings", ds))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertReadings_Pages(t *testing.T) {
	repo, mock := newMockRepo(t)
	ds := dataset.New("time_s", []string{"a"})
	for i := 0; i < 2*PageSize+5; i++ {
		ds.Append(float64(i), 1)
	}
	mock.ExpectBegin()
	for i := 0; i < 3; i++ {
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO readings (time_s, a) VALUES")).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	require.NoError(t, repo.InsertReadings(context.Background(), "readings", ds))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertReadings_RollbackOnError(t *testing.T) {
	repo, mock := newMockRepo(t)
	ds := dataset.New("time_s", []string{"a"})
	ds.Append(0, 1)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO readings").WillReturnError(fmt.Errorf("connection reset"))
	mock.ExpectRollback()

	err := repo.InsertReadings(context.Background(), "readings", ds)
	require.ErrorContains(t, err, "connection reset")
	require.NoError(t, mock.ExpectationsWereMet())

	// nothing to do for an empty dataset
	require.NoError(t, repo.InsertReadings(context.Background(), "readings", dataset.New("", []string{"a"})))
}

func TestReadReadings(t *testing.T) {
	repo, mock := newMockRepo(t)
	rows := sqlmock.NewRows([]string{"time_s", "a", "b"}).
		AddRow(0.0, 1.0, nil).
		AddRow(0.5, 2.0, 3.0)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT time_s, a, b FROM readings ORDER BY id LIMIT 2")).
		WillReturnRows(rows)

	ds, err := repo.ReadReadings(context.Background(), "readings", "time_s", []string{"a", "b"}, 2)
	require.NoError(t, err)
	assert.Equal(t, []dataset.Reading{
		{Time: 0, Values: []float64{1, 0}},
		{Time: 0.5, Values: []float64{2, 3}},
	}, ds.Readings)
	require.NoError(t, mock.ExpectationsWereMet())

	_, err = repo.ReadReadings(context.Background(), "readings;", "time_s", []string{"a"}, 0)
	require.Error(t, err)
}

func TestInsertEvents(t *testing.T) {
	repo, mock := newMockRepo(t)
	events := []detect.Event{
		{AxisName: "axis_1", EventType: detect.EventAlert, StartTime: 1, EndTime: 12, DurationS: 11, Threshold: 0.5, MaxDeviation: 0.9},
		{AxisName: "axis_2", EventType: detect.EventError, StartTime: 3, EndTime: 20, DurationS: 17, Threshold: 1.5, MaxDeviation: 4},
	}
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO pm_events (axis_name, event_type, start_time, end_time, duration_s, threshold, max_deviation)")).
		WithArgs("axis_1", "ALERT", 1.0, 12.0, 11.0, 0.5, 0.9, "axis_2", "ERROR", 3.0, 20.0, 17.0, 1.5, 4.0).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, repo.InsertEvents(context.Background(), "pm_events", events))
	require.NoError(t, repo.InsertEvents(context.Background(), "pm_events", nil))
	require.NoError(t, mock.ExpectationsWereMet())
}
