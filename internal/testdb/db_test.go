package testdb

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabaseURL(t *testing.T) {
	t.Setenv(EnvTestDatabaseURL, "")
	t.Setenv(EnvDatabaseURL, "")
	assert.Empty(t, DatabaseURL())

	t.Setenv(EnvDatabaseURL, "postgres://app@db/planner")
	assert.Equal(t, "postgres://app@db/planner", DatabaseURL())

	t.Setenv(EnvTestDatabaseURL, "postgres://test@db/planner_test")
	assert.Equal(t, "postgres://test@db/planner_test", DatabaseURL())
}

func TestOpen_SkipsWithoutURL(t *testing.T) {
	t.Setenv(EnvTestDatabaseURL, "")
	t.Setenv(EnvDatabaseURL, "")

	ran := t.Run("inner", func(t *testing.T) {
		Open(t)
		t.Error("Open should have skipped")
	})
	assert.True(t, ran)
}

func TestWithTx_RollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO plans").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		_, err := tx.Exec("INSERT INTO plans (name) VALUES ('x')")
		require.NoError(t, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_RollsBackOnPanic(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.Panics(t, func() {
		WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
			panic("boom")
		})
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}
