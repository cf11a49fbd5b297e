package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R3E-Network/storefront/internal/app/storage"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(sqlx.NewDb(db, "sqlmock")), mock
}

func TestStore_GetMapsNoRows(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM client_state WHERE key = ?`)).
		WithArgs(storage.TokenKey).
		WillReturnError(sql.ErrNoRows)

	_, err := store.Get(context.Background(), storage.TokenKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_GetReturnsValue(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM client_state WHERE key = ?`)).
		WithArgs(storage.TokenKey).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("tok-1"))

	got, err := store.Get(context.Background(), storage.TokenKey)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_SetUpserts(t *testing.T) {
	store, mock := newMockStore(t)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	mock.ExpectExec(`(?s)INSERT INTO client_state .* ON CONFLICT\(key\) DO UPDATE`).
		WithArgs(storage.TokenKey, "tok-1", fixed).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, store.Set(context.Background(), storage.TokenKey, "tok-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_DeleteWrapsErrors(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM client_state WHERE key = ?`)).
		WithArgs(storage.TokenKey).
		WillReturnError(errors.New("disk I/O error"))

	err := store.Delete(context.Background(), storage.TokenKey)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_MigrateAppliesSchema(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS client_state`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpen_PersistsAcrossHandles(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	first, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, storage.TokenKey, "tok-1"))
	require.NoError(t, first.Close())

	second, err := Open(ctx, path)
	require.NoError(t, err)
	defer second.Close()

	got, err := second.Get(ctx, storage.TokenKey)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", got)

	require.NoError(t, second.Delete(ctx, storage.TokenKey))
	_, err = second.Get(ctx, storage.TokenKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
