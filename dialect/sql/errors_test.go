package sql

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

// coderErr mimics drivers that expose a Code() accessor instead of
// SQLState().
type coderErr struct{ code string }

func (e *coderErr) Error() string { return "driver error " + e.code }
func (e *coderErr) Code() string  { return e.code }

func myErr(num uint16, state, msg string) *mysql.MySQLError {
	e := &mysql.MySQLError{Number: num, Message: msg}
	copy(e.SQLState[:], state)
	return e
}

func TestIsUniqueConstraintError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"pq", &pq.Error{Code: "23505", Message: `duplicate key value violates unique constraint "companies_rut_key"`}, true},
		{"pq_other", &pq.Error{Code: "23503"}, false},
		{"pgconn", &pgconn.PgError{Code: "23505", Message: "duplicate key value"}, true},
		{"coder", &coderErr{code: "23505"}, true},
		{"mysql", myErr(1062, "23000", "Duplicate entry '76543210-K' for key 'companies.rut'"), true},
		{"mysql_other", myErr(1452, "23000", "Cannot add or update a child row"), false},
		{"sqlite_string", errors.New("constraint failed: UNIQUE constraint failed: companies.rut (2067)"), true},
		{"wrapped", fmt.Errorf("save company: %w", &pgconn.PgError{Code: "23505"}), true},
		{"plain", errors.New("connection refused"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUniqueConstraintError(tt.err))
		})
	}
}

func TestIsForeignKeyConstraintError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"pq", &pq.Error{Code: "23503", Message: `insert or update on table "quote_lines" violates foreign key constraint`}, true},
		{"pgconn", &pgconn.PgError{Code: "23503"}, true},
		{"mysql_parent", myErr(1451, "23000", "Cannot delete or update a parent row"), true},
		{"mysql_child", myErr(1452, "23000", "Cannot add or update a child row"), true},
		{"sqlite_string", errors.New("constraint failed: FOREIGN KEY constraint failed (787)"), true},
		{"unique_not_fk", &pgconn.PgError{Code: "23505"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsForeignKeyConstraintError(tt.err))
		})
	}
}

func TestIsCheckConstraintError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"pq", &pq.Error{Code: "23514", Message: `new row for relation "products" violates check constraint "price_non_negative"`}, true},
		{"pgconn", &pgconn.PgError{Code: "23514"}, true},
		{"mysql", myErr(3819, "HY000", "Check constraint 'price_non_negative' is violated"), true},
		{"sqlite_string", errors.New("constraint failed: CHECK constraint failed: price >= 0 (275)"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsCheckConstraintError(tt.err))
		})
	}
}

func TestIsLockError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"pq_serialization", &pq.Error{Code: "40001", Message: "could not serialize access due to concurrent update"}, true},
		{"pgconn_deadlock", &pgconn.PgError{Code: "40P01", Message: "deadlock detected"}, true},
		{"pgconn_nowait", &pgconn.PgError{Code: "55P03", Message: "could not obtain lock on row"}, true},
		{"mysql_lock_wait", myErr(1205, "HY000", "Lock wait timeout exceeded; try restarting transaction"), true},
		{"mysql_deadlock", myErr(1213, "40001", "Deadlock found when trying to get lock"), true},
		{"sqlite_busy", errors.New("database is locked (5) (SQLITE_BUSY)"), true},
		{"wrapped", fmt.Errorf("allocate number: %w", &pgconn.PgError{Code: "55P03"}), true},
		{"unique_not_lock", &pq.Error{Code: "23505"}, false},
		{"plain", errors.New("broken pipe"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsLockError(tt.err))
		})
	}
}

func TestIsConstraintError(t *testing.T) {
	assert.True(t, IsConstraintError(&pgconn.PgError{Code: "23505"}))
	assert.True(t, IsConstraintError(&pgconn.PgError{Code: "23503"}))
	assert.True(t, IsConstraintError(&pgconn.PgError{Code: "23514"}))
	assert.False(t, IsConstraintError(&pgconn.PgError{Code: "40P01"}))
	assert.False(t, IsConstraintError(nil))
}
