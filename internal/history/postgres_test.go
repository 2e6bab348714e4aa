package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"
)

func TestRecordRunInsertsRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewPostgresStoreWithPool(mock, "scrape_runs")
	require.NoError(t, err)

	rec := RunRecord{
		RunID:               "run-1",
		StartedAt:           time.Unix(1700000000, 0).UTC(),
		Fingerprint:         "abc123",
		HasChanges:          true,
		NewDepartments:      2,
		ModifiedDepartments: 1,
		NewCourses:          14,
		ModifiedCourses:     3,
		TotalDepartments:    15,
		TotalCourses:        480,
	}

	mock.ExpectExec("INSERT INTO scrape_runs").
		WithArgs(
			rec.RunID,
			rec.StartedAt,
			rec.Fingerprint,
			rec.HasChanges,
			rec.NewDepartments,
			rec.ModifiedDepartments,
			rec.NewCourses,
			rec.ModifiedCourses,
			rec.TotalDepartments,
			rec.TotalCourses,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.RecordRun(context.Background(), rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRunWrapsExecError(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewPostgresStoreWithPool(mock, "scrape_runs")
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO scrape_runs").
		WillReturnError(errors.New("connection refused"))

	err = store.RecordRun(context.Background(), RunRecord{RunID: "run-2"})
	require.ErrorContains(t, err, "insert run record")
}

func TestNewPostgresStoreWithPoolValidation(t *testing.T) {
	t.Parallel()

	_, err := NewPostgresStoreWithPool(nil, "scrape_runs")
	require.Error(t, err)

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewPostgresStoreWithPool(mock, "bad-table;drop")
	require.Error(t, err)
}

func TestMemoryStoreRecords(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	require.NoError(t, store.RecordRun(context.Background(), RunRecord{RunID: "a"}))
	require.NoError(t, store.RecordRun(context.Background(), RunRecord{RunID: "b"}))

	recs := store.Records()
	require.Len(t, recs, 2)
	require.Equal(t, "a", recs[0].RunID)
}
