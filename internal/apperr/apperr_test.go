package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/comanda/internal/apperr"
)

func TestKindOf(t *testing.T) {
	sentinel := apperr.New(apperr.NotFound, "table not found")

	tests := []struct {
		name string
		err  error
		want apperr.Kind
	}{
		{name: "Direct", err: sentinel, want: apperr.NotFound},
		{name: "Wrapped", err: fmt.Errorf("locking table: %w", sentinel), want: apperr.NotFound},
		{name: "WithCause", err: apperr.Wrap(apperr.Unavailable, errors.New("dial tcp"), "database unavailable"), want: apperr.Unavailable},
		{name: "Plain", err: errors.New("boom"), want: ""},
		{name: "Nil", err: nil, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apperr.KindOf(tt.err))
		})
	}
}

func TestSentinelIdentity(t *testing.T) {
	sentinel := apperr.New(apperr.Invalid, "order is closed")
	other := apperr.New(apperr.Invalid, "order is closed")

	wrapped := fmt.Errorf("adding item: %w", sentinel)

	assert.ErrorIs(t, wrapped, sentinel)
	assert.NotErrorIs(t, wrapped, other)
	assert.True(t, apperr.Is(wrapped, apperr.Invalid))
	assert.Equal(t, "order is closed", apperr.Message(wrapped))
}

func TestError_HidesCauseFromMessage(t *testing.T) {
	err := apperr.Wrap(apperr.Unavailable, errors.New("connection refused"), "database unavailable")

	assert.Equal(t, "database unavailable: connection refused", err.Error())
	assert.Equal(t, "database unavailable", apperr.Message(err))
}
