package table_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/comanda/internal/table"
)

var allStatuses = []table.Status{
	table.StatusFree,
	table.StatusReserved,
	table.StatusOccupied,
	table.StatusAwaitingService,
	table.StatusBeingServed,
}

func TestTransition_OccupancyWindowInvariant(t *testing.T) {
	now := time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			t.Run(string(from)+"->"+string(to), func(t *testing.T) {
				tb := &table.Table{Status: table.StatusFree}
				tb.Transition(from, nil, now.Add(-time.Hour))
				tb.Transition(to, nil, now)

				assert.Equal(t, to, tb.Status)
				assert.Equal(t, to.Occupied(), tb.OccupiedSince != nil)

				if to.Occupied() {
					assert.Nil(t, tb.OccupiedUntil)
				}
			})
		}
	}
}

func TestTransition_FreeToOccupied(t *testing.T) {
	now := time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)
	earlier := now.Add(-2 * time.Hour)
	staffID := uuid.New()

	tb := &table.Table{Status: table.StatusFree, OccupiedUntil: &earlier}
	tb.Transition(table.StatusOccupied, &staffID, now)

	require.NotNil(t, tb.OccupiedSince)
	assert.Equal(t, now, *tb.OccupiedSince)
	assert.Nil(t, tb.OccupiedUntil)
	assert.Equal(t, &staffID, tb.StaffID)
}

func TestTransition_KeepsStartWithinOccupancy(t *testing.T) {
	start := time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)
	now := start.Add(30 * time.Minute)

	tb := &table.Table{Status: table.StatusOccupied, OccupiedSince: &start}
	tb.Transition(table.StatusBeingServed, nil, now)

	require.NotNil(t, tb.OccupiedSince)
	assert.Equal(t, start, *tb.OccupiedSince)
}

func TestTransition_SameStatusOnlyReassigns(t *testing.T) {
	start := time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)
	first, second := uuid.New(), uuid.New()

	tb := &table.Table{Status: table.StatusOccupied, OccupiedSince: &start, StaffID: &first}
	tb.Transition(table.StatusOccupied, &second, start.Add(time.Hour))

	assert.Equal(t, start, *tb.OccupiedSince)
	assert.Equal(t, &second, tb.StaffID)
}

func TestTransition_OccupiedToFreeStampsEnd(t *testing.T) {
	start := time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)
	now := start.Add(90 * time.Minute)

	tb := &table.Table{Status: table.StatusBeingServed, OccupiedSince: &start}
	tb.Transition(table.StatusFree, nil, now)

	assert.Nil(t, tb.OccupiedSince)
	require.NotNil(t, tb.OccupiedUntil)
	assert.Equal(t, now, *tb.OccupiedUntil)
}

func TestRelease(t *testing.T) {
	start := time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)
	staffID := uuid.New()

	tb := &table.Table{Status: table.StatusOccupied, OccupiedSince: &start, StaffID: &staffID, CallingStaff: true}
	tb.Release(start.Add(time.Hour))

	assert.Equal(t, table.StatusFree, tb.Status)
	assert.Nil(t, tb.StaffID)
	assert.False(t, tb.CallingStaff)
	assert.NotNil(t, tb.OccupiedUntil)
}

func TestRelease_AfterCallingStaff(t *testing.T) {
	now := time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)
	closedAt := now.Add(2 * time.Hour)

	tb := &table.Table{Status: table.StatusFree}
	tb.Transition(table.StatusOccupied, nil, now)
	tb.Transition(table.StatusAwaitingService, nil, now.Add(90*time.Minute))
	tb.CallingStaff = true

	tb.Release(closedAt)

	assert.Equal(t, table.StatusFree, tb.Status)
	assert.Nil(t, tb.OccupiedSince)
	require.NotNil(t, tb.OccupiedUntil)
	assert.Equal(t, closedAt, *tb.OccupiedUntil)
	assert.False(t, tb.CallingStaff)
}

func TestParseStatus(t *testing.T) {
	for _, s := range allStatuses {
		got, err := table.ParseStatus(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	_, err := table.ParseStatus("livre")
	assert.ErrorIs(t, err, table.ErrInvalidStatus)
}
