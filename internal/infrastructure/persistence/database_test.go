package persistence

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/application/uow"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockDatabase creates a Database backed by sqlmock speaking postgres
func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return &Database{DB: gormDB, Driver: "postgres"}, mock
}

func TestNewDatabase(t *testing.T) {
	t.Run("opens in-memory sqlite", func(t *testing.T) {
		db, err := NewDatabase(&config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
		require.NoError(t, err)
		defer db.Close()

		assert.Equal(t, "sqlite", db.Driver)
		require.NoError(t, db.Ping(context.Background()))

		stats, err := db.Stats()
		require.NoError(t, err)
		assert.Equal(t, 1, stats.MaxOpenConnections)
	})

	t.Run("rejects an unknown driver", func(t *testing.T) {
		_, err := NewDatabase(&config.DatabaseConfig{Driver: "mysql"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "mysql")
	})
}

func TestDatabase_Ping(t *testing.T) {
	t.Run("successful ping", func(t *testing.T) {
		db, mock := newMockDatabase(t)
		mock.ExpectPing()

		require.NoError(t, db.Ping(context.Background()))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failed ping", func(t *testing.T) {
		db, mock := newMockDatabase(t)
		mock.ExpectPing().WillReturnError(sql.ErrConnDone)

		assert.ErrorIs(t, db.Ping(context.Background()), sql.ErrConnDone)
	})
}

func TestGormTransactionScope_Execute(t *testing.T) {
	ctx := context.Background()

	t.Run("commits when the function succeeds", func(t *testing.T) {
		db, mock := newMockDatabase(t)
		mock.ExpectBegin()
		mock.ExpectCommit()

		scope := NewGormTransactionScope(db.DB)
		called := false
		err := scope.Execute(ctx, func(repos uow.Repositories) error {
			called = true
			assert.NotNil(t, repos.Entries())
			return nil
		})
		require.NoError(t, err)
		assert.True(t, called)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back and returns the function's error", func(t *testing.T) {
		db, mock := newMockDatabase(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		boom := errors.New("boom")
		err := NewGormTransactionScope(db.DB).Execute(ctx, func(uow.Repositories) error { return boom })
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when a statement fails", func(t *testing.T) {
		db, mock := newMockDatabase(t)
		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM "journal_lines"`).WillReturnError(sql.ErrTxDone)
		mock.ExpectRollback()

		err := NewGormTransactionScope(db.DB).Execute(ctx, func(repos uow.Repositories) error {
			return repos.Entries().Delete(ctx, uuid.New())
		})
		assert.ErrorIs(t, err, sql.ErrTxDone)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormTransactionScope_Begin(t *testing.T) {
	ctx := context.Background()

	t.Run("commit then rollback is a no-op", func(t *testing.T) {
		db, mock := newMockDatabase(t)
		mock.ExpectBegin()
		mock.ExpectCommit()

		unit, err := NewGormTransactionScope(db.DB).Begin(ctx)
		require.NoError(t, err)
		require.NoError(t, unit.Commit())
		assert.NoError(t, unit.Rollback())
		assert.Error(t, unit.Commit())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rollback", func(t *testing.T) {
		db, mock := newMockDatabase(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		unit, err := NewGormTransactionScope(db.DB).Begin(ctx)
		require.NoError(t, err)
		require.NoError(t, unit.Rollback())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin failure", func(t *testing.T) {
		db, mock := newMockDatabase(t)
		mock.ExpectBegin().WillReturnError(sql.ErrConnDone)

		_, err := NewGormTransactionScope(db.DB).Begin(ctx)
		assert.ErrorIs(t, err, sql.ErrConnDone)
	})
}
