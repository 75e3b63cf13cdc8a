package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestDB_WithTx_Commit(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()

	wrapper := New(db, &PostgresDialect{})

	mock.ExpectBegin()
	mock.ExpectCommit()

	ctx := context.Background()
	err = wrapper.WithTx(ctx, func(tx *sql.Tx) error {
		return nil
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDB_WithTx_RollbackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()

	wrapper := New(db, &PostgresDialect{})

	mock.ExpectBegin()
	mock.ExpectRollback()

	ctx := context.Background()
	expectedErr := errors.New("business error")
	err = wrapper.WithTx(ctx, func(tx *sql.Tx) error {
		return expectedErr
	})

	assert.Equal(t, expectedErr, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDB_WithTx_RollbackOnPanic(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()

	wrapper := New(db, &PostgresDialect{})

	mock.ExpectBegin()
	mock.ExpectRollback()

	ctx := context.Background()

	// Recover from the panic in the test to assert
	defer func() {
		if r := recover(); r != nil {
			assert.Equal(t, "unexpected panic", r)
			assert.NoError(t, mock.ExpectationsWereMet())
		}
	}()

	_ = wrapper.WithTx(ctx, func(tx *sql.Tx) error {
		panic("unexpected panic")
	})
}

func TestDB_WithTx_BeginError(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer func() {
		_ = db.Close()
	}()

	wrapper := New(db, &PostgresDialect{})
	mock.ExpectBegin().WillReturnError(errors.New("connection reset"))

	called := false
	err = wrapper.WithTx(context.Background(), func(tx *sql.Tx) error {
		called = true
		return nil
	})

	assert.ErrorContains(t, err, "begin transaction")
	assert.False(t, called)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDialectFor(t *testing.T) {
	tests := []struct {
		driver     string
		wantName   string
		wantDriver string
		wantErr    bool
	}{
		{"postgres", "postgres", "pgx", false},
		{"oracle", "oracle", "oracle", false},
		{"sqlite", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			dialect, driverName, err := DialectFor(tt.driver)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.wantName, dialect.Name())
			assert.Equal(t, tt.wantDriver, driverName)
		})
	}
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "dsn")
	assert.Error(t, err)
}
