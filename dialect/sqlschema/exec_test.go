package sqlschema_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mschmiderer/mogenerator/dialect/sqlschema"
)

func TestExec(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	stmts := []string{
		"CREATE TABLE `users` (`id` integer NOT NULL, PRIMARY KEY (`id`))",
		"CREATE INDEX `users_email` ON `users` (`email`)",
	}
	mock.ExpectBegin()
	for _, s := range stmts {
		mock.ExpectExec(regexp.QuoteMeta(s)).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectCommit()

	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	stats, err := sqlschema.NewExecutor(db, sqlschema.WithExecLogger(log)).Exec(context.Background(), stmts)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Statements)
	assert.Zero(t, stats.Slow)
	assert.Contains(t, stats.String(), "statements=2")
	assert.Contains(t, buf.String(), "executed sql schema")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExecRollback(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE a").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE b").WillReturnError(boom)
	mock.ExpectRollback()

	stats, err := sqlschema.NewExecutor(db).Exec(context.Background(), []string{"CREATE TABLE a", "CREATE TABLE b", "CREATE TABLE c"})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "statement 2")
	assert.Equal(t, 1, stats.Statements)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExecSlow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE a").WillDelayFor(20 * time.Millisecond).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	stats, err := sqlschema.NewExecutor(db,
		sqlschema.WithSlowThreshold(time.Millisecond),
		sqlschema.WithExecLogger(log),
	).Exec(context.Background(), []string{"CREATE TABLE a"})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Slow)
	assert.Contains(t, buf.String(), "slow statement")
}

func TestExecBeginFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin().WillReturnError(errors.New("no connection"))
	_, err = sqlschema.NewExecutor(db).Exec(context.Background(), []string{"CREATE TABLE a"})
	assert.ErrorContains(t, err, "begin transaction")
}
