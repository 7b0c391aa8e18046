package storage

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onionkeep/onionkeep/internal/common"
)

func newStorageWithMock(t *testing.T) (*PostgresStorage, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresStorageFromDB(db), mock, db
}

func TestPostgresStorage_Get(t *testing.T) {
	s, mock, db := newStorageWithMock(t)
	defer db.Close()

	q := regexp.MustCompile(`SELECT value FROM kv WHERE key = \$1`)

	mock.ExpectQuery(q.String()).
		WithArgs("device:d1").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow([]byte("blob")))

	got, err := s.Get(context.Background(), "device:d1")
	require.NoError(t, err)
	assert.Equal(t, []byte("blob"), got)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorage_Get_NotFound(t *testing.T) {
	s, mock, db := newStorageWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT value FROM kv`).
		WithArgs("device:missing").
		WillReturnError(sql.ErrNoRows)

	_, err := s.Get(context.Background(), "device:missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestPostgresStorage_Set_Upsert(t *testing.T) {
	s, mock, db := newStorageWithMock(t)
	defer db.Close()

	q := regexp.MustCompile(`INSERT INTO kv .* ON CONFLICT \(key\) DO UPDATE SET value = EXCLUDED\.value;`)

	mock.ExpectExec(q.String()).
		WithArgs("device:d1", []byte("blob")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.Set(context.Background(), "device:d1", []byte("blob"))
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorage_Set_BackendDown(t *testing.T) {
	s, mock, db := newStorageWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO kv`).
		WithArgs("device:d1", []byte("blob")).
		WillReturnError(errors.New("connection refused"))

	err := s.Set(context.Background(), "device:d1", []byte("blob"))
	assert.ErrorIs(t, err, common.ErrStorageUnavailable)
}

func TestPostgresStorage_Delete(t *testing.T) {
	s, mock, db := newStorageWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM kv WHERE key = \$1`).
		WithArgs("secret:d1:r1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Delete(context.Background(), "secret:d1:r1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorage_List(t *testing.T) {
	s, mock, db := newStorageWithMock(t)
	defer db.Close()

	q := regexp.MustCompile(`SELECT key, value FROM kv WHERE key LIKE \$1 \|\| '%' ORDER BY key`)

	mock.ExpectQuery(q.String()).
		WithArgs("secret:d1:").
		WillReturnRows(sqlmock.NewRows([]string{"key", "value"}).
			AddRow("secret:d1:r1", []byte("1")).
			AddRow("secret:d1:r2", []byte("2")))

	entries, err := s.List(context.Background(), "secret:d1:")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "secret:d1:r1", entries[0].Key)
	assert.Equal(t, []byte("2"), entries[1].Value)

	require.NoError(t, mock.ExpectationsWereMet())
}
