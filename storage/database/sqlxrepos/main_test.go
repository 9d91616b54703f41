package sqlxrepos_test

import (
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

var (
	errUnique  = &pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"}
	errTooLong = &pq.Error{Code: "22001", Message: "value too long for type character varying(120)"}
)

// newMockDB returns a postgres-flavoured sqlx.DB backed by sqlmock.
func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return sqlx.NewDb(db, "postgres"), mock
}

// exactly matches the whole query, whitespace-insensitive.
func exactly(q string) string {
	return "^" + regexp.QuoteMeta(q) + "$"
}
