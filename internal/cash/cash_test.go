package cash_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/comanda/internal/apperr"
	"github.com/MrJamesThe3rd/comanda/internal/cash"
)

func TestApply_RunningAmountConservation(t *testing.T) {
	sess := &cash.Session{Status: cash.SessionOpen, OpeningAmount: 10000, SystemAmount: 10000}

	movements := []*cash.Movement{
		{Type: cash.MovementEntry, Amount: 4250},
		{Type: cash.MovementExit, Amount: 1200},
		{Type: cash.MovementSkim, Amount: 5000},
		{Type: cash.MovementTopUp, Amount: 2000},
		{Type: cash.MovementEntry, Amount: 99},
	}

	var in, out int64

	for _, m := range movements {
		cash.Apply(sess, m)

		switch m.Type {
		case cash.MovementEntry, cash.MovementTopUp:
			in += m.Amount
		default:
			out += m.Amount
		}

		assert.Equal(t, sess.OpeningAmount+in-out, sess.SystemAmount)
	}

	assert.Equal(t, int64(10149), sess.SystemAmount)
}

func TestParseMovementType(t *testing.T) {
	for _, s := range []string{"entry", "exit", "skim", "top_up"} {
		got, err := cash.ParseMovementType(s)
		require.NoError(t, err)
		assert.Equal(t, cash.MovementType(s), got)
	}

	_, err := cash.ParseMovementType("withdrawal")
	assert.ErrorIs(t, err, cash.ErrInvalidMovementType)
}

func TestMovement_Validate(t *testing.T) {
	tests := []struct {
		name    string
		m       cash.Movement
		wantErr bool
	}{
		{name: "Valid", m: cash.Movement{Type: cash.MovementEntry, Amount: 1, Description: "tip jar"}},
		{name: "ZeroAmount", m: cash.Movement{Type: cash.MovementEntry, Description: "x"}, wantErr: true},
		{name: "NegativeAmount", m: cash.Movement{Type: cash.MovementExit, Amount: -5, Description: "x"}, wantErr: true},
		{name: "BlankDescription", m: cash.Movement{Type: cash.MovementSkim, Amount: 5, Description: "  "}, wantErr: true},
		{name: "UnknownType", m: cash.Movement{Type: "refund", Amount: 5, Description: "x"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.m.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}

			assert.Equal(t, apperr.Invalid, apperr.KindOf(err))
		})
	}
}

func TestSession_Close(t *testing.T) {
	staffID := uuid.New()
	now := time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC)

	sess := &cash.Session{Status: cash.SessionOpen, SystemAmount: 15000, Notes: "opened by day shift"}
	sess.Close(14500, "short 5.00", &staffID, now)

	assert.Equal(t, cash.SessionClosed, sess.Status)
	require.NotNil(t, sess.Discrepancy)
	assert.Equal(t, int64(-500), *sess.Discrepancy)
	assert.Equal(t, int64(14500), *sess.ClosingAmount)
	assert.Equal(t, &staffID, sess.ClosedBy)
	assert.Equal(t, now, *sess.ClosedAt)
	assert.Equal(t, "opened by day shift\nshort 5.00", sess.Notes)
}

func TestSession_Close_KeepsNotesWhenNoneGiven(t *testing.T) {
	sess := &cash.Session{Status: cash.SessionOpen, SystemAmount: 100, Notes: "float 1.00"}
	sess.Close(100, "", nil, time.Now())

	assert.Equal(t, "float 1.00", sess.Notes)
	assert.Equal(t, int64(0), *sess.Discrepancy)
}
