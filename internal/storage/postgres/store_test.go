package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vitran/ecfr-analyzer/internal/ecfr"
	"github.com/vitran/ecfr-analyzer/internal/storage"
)

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

func newMockStore(t *testing.T) (pgxmock.PgxPoolIface, *Store, *fixedClock) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	clock := &fixedClock{now: time.Date(2025, 7, 1, 11, 0, 0, 0, time.UTC)}
	return mock, New(mock, clock, zap.NewNop()), clock
}

func TestSaveTitles_ReplacesSnapshotInOneTransaction(t *testing.T) {
	t.Parallel()

	mock, store, clock := newMockStore(t)

	title := ecfr.Title{Number: 1, Name: "General Provisions", WordCount: 3}
	payload, err := json.Marshal(title)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM ecfr_titles").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec("INSERT INTO ecfr_titles").
		WithArgs(1, payload).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO snapshot_meta").
		WithArgs(1, clock.now, storage.SnapshotVersion).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, store.SaveTitles(context.Background(), []ecfr.Title{title}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveTitles_RollsBackOnInsertFailure(t *testing.T) {
	t.Parallel()

	mock, store, _ := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM ecfr_titles").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec("INSERT INTO ecfr_titles").
		WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	err := store.SaveTitles(context.Background(), []ecfr.Title{{Number: 1}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "insert title 1")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadTitles_OrderedByNumber(t *testing.T) {
	t.Parallel()

	mock, store, _ := newMockStore(t)

	one, err := json.Marshal(ecfr.Title{Number: 1, Name: "One"})
	require.NoError(t, err)
	two, err := json.Marshal(ecfr.Title{Number: 2, Name: "Two"})
	require.NoError(t, err)

	mock.ExpectQuery("SELECT payload FROM ecfr_titles ORDER BY number").
		WillReturnRows(pgxmock.NewRows([]string{"payload"}).AddRow(one).AddRow(two))

	titles, err := store.LoadTitles(context.Background())
	require.NoError(t, err)
	require.Len(t, titles, 2)
	require.Equal(t, "One", titles[0].Name)
	require.Equal(t, "Two", titles[1].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadTitles_EmptyTable(t *testing.T) {
	t.Parallel()

	mock, store, _ := newMockStore(t)
	mock.ExpectQuery("SELECT payload FROM ecfr_titles").
		WillReturnRows(pgxmock.NewRows([]string{"payload"}))

	titles, err := store.LoadTitles(context.Background())
	require.NoError(t, err)
	require.Empty(t, titles)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHasExistingData(t *testing.T) {
	t.Parallel()

	mock, store, _ := newMockStore(t)
	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))

	has, err := store.HasExistingData(context.Background())
	require.NoError(t, err)
	require.True(t, has)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLastUpdateTime_NoMetadataRow(t *testing.T) {
	t.Parallel()

	mock, store, _ := newMockStore(t)
	mock.ExpectQuery("SELECT last_update FROM snapshot_meta").
		WillReturnError(pgx.ErrNoRows)

	_, ok, err := store.LastUpdateTime(context.Background())
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLastUpdateTime_ReturnsStoredTimestamp(t *testing.T) {
	t.Parallel()

	mock, store, _ := newMockStore(t)
	want := time.Date(2025, 6, 30, 23, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT last_update FROM snapshot_meta").
		WillReturnRows(pgxmock.NewRows([]string{"last_update"}).AddRow(want))

	got, ok, err := store.LastUpdateTime(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, got.Equal(want))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveArtifact_Upserts(t *testing.T) {
	t.Parallel()

	mock, store, clock := newMockStore(t)
	payload, err := json.Marshal(map[string]int64{"Energy": 42})
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO artifacts").
		WithArgs("word-counts", payload, clock.now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.SaveArtifact(context.Background(), "word-counts", map[string]int64{"Energy": 42}))
	require.NoError(t, mock.ExpectationsWereMet())
}
