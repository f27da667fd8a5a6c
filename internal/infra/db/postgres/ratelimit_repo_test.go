package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/symptom-check/internal/domain/ratelimit"
)

func TestRateLimitStoreUsesPostgresStatements(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewRateLimitStore(db)
	now := time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC)
	reset := now.Add(20 * time.Second)
	policy := ratelimit.Policy{Max: 10, Window: time.Minute}

	mock.ExpectExec(regexp.QuoteMeta(Dialect.Schema)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(Dialect.Seed)).
		WithArgs(ratelimit.UnknownClient, now.Add(policy.Window)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(Dialect.Select)).
		WithArgs(ratelimit.UnknownClient).
		WillReturnRows(sqlmock.NewRows([]string{"hits", "window_reset_at"}).AddRow(9, reset))
	mock.ExpectExec(regexp.QuoteMeta(Dialect.Upsert)).
		WithArgs(ratelimit.UnknownClient, 10, reset).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(Dialect.Seed)).
		WithArgs(ratelimit.UnknownClient, now.Add(policy.Window)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(Dialect.Select)).
		WithArgs(ratelimit.UnknownClient).
		WillReturnRows(sqlmock.NewRows([]string{"hits", "window_reset_at"}).AddRow(10, reset))
	mock.ExpectCommit()

	require.NoError(t, store.Migrate(context.Background()))

	d, err := store.Hit(context.Background(), ratelimit.UnknownClient, now, policy)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 10, d.Count)

	d, err = store.Hit(context.Background(), ratelimit.UnknownClient, now, policy)
	require.NoError(t, err)
	assert.False(t, d.Allowed)

	assert.NoError(t, mock.ExpectationsWereMet())
}
