package database_test

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/comanda/internal/apperr"
	"github.com/MrJamesThe3rd/comanda/internal/database"
)

func TestIsUniqueViolation(t *testing.T) {
	err := fmt.Errorf("inserting: %w", &pgconn.PgError{Code: "23505", ConstraintName: "dining_tables_number_key"})

	assert.True(t, database.IsUniqueViolation(err, ""))
	assert.True(t, database.IsUniqueViolation(err, "dining_tables_number_key"))
	assert.False(t, database.IsUniqueViolation(err, "orders_code_key"))
	assert.False(t, database.IsUniqueViolation(errors.New("boom"), ""))
	assert.False(t, database.IsForeignKeyViolation(err, ""))
}

func TestIsForeignKeyViolation(t *testing.T) {
	err := &pgconn.PgError{Code: "23503", ConstraintName: "ledger_entries_category_id_fkey"}

	assert.True(t, database.IsForeignKeyViolation(err, "ledger_entries_category_id_fkey"))
	assert.False(t, database.IsForeignKeyViolation(err, "ledger_entries_order_id_fkey"))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want apperr.Kind
	}{
		{name: "BadConn", err: driver.ErrBadConn, want: apperr.Unavailable},
		{name: "Deadline", err: fmt.Errorf("query: %w", context.DeadlineExceeded), want: apperr.Unavailable},
		{name: "AdminShutdown", err: &pgconn.PgError{Code: "08006"}, want: apperr.Unavailable},
		{name: "UniqueViolation", err: &pgconn.PgError{Code: "23505"}, want: ""},
		{name: "Plain", err: errors.New("syntax error"), want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := database.Classify(tt.err)

			assert.Equal(t, tt.want, apperr.KindOf(got))
			assert.ErrorIs(t, got, tt.err)
		})
	}

	assert.NoError(t, database.Classify(nil))
}
