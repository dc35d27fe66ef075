package money_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/comanda/internal/money"
)

func TestToCents(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{in: "42.50", want: 4250},
		{in: "0.1", want: 10},
		{in: "19.999", want: 2000},
		{in: "-3.005", want: -301},
		{in: "0", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, money.ToCents(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "42.50", money.Format(4250))
	assert.Equal(t, "0.05", money.Format(5))
	assert.Equal(t, "-1.00", money.Format(-100))
}
