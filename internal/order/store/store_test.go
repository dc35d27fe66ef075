package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/comanda/internal/order"
)

// recordingQuerier captures the last query and fails it, so statements can be
// inspected without a database.
type recordingQuerier struct {
	query string
	args  []any
}

var errRecorded = errors.New("recorded")

func (q *recordingQuerier) ExecContext(_ context.Context, query string, args ...any) (sql.Result, error) {
	q.query, q.args = query, args
	return nil, errRecorded
}

func (q *recordingQuerier) QueryContext(_ context.Context, query string, args ...any) (*sql.Rows, error) {
	q.query, q.args = query, args
	return nil, errRecorded
}

func (q *recordingQuerier) QueryRowContext(context.Context, string, ...any) *sql.Row {
	panic("not used")
}

func TestLoadItems_BindsUUIDArray(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	q := &recordingQuerier{}

	err := loadItems(context.Background(), q, []*order.Order{{ID: a}, {ID: b}})
	require.ErrorIs(t, err, errRecorded)

	assert.Contains(t, q.query, "order_id = ANY($1::uuid[])")
	assert.NotContains(t, q.query, "::text")

	require.Len(t, q.args, 1)
	assert.Equal(t, []uuid.UUID{a, b}, q.args[0])
}

func TestLoadItems_NoOrdersSkipsQuery(t *testing.T) {
	q := &recordingQuerier{}

	require.NoError(t, loadItems(context.Background(), q, nil))
	assert.Empty(t, q.query)
}
