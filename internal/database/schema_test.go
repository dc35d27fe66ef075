package database_test

import (
	"os"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/comanda/internal/order"
)

// tableDef returns the CREATE TABLE statement for name.
func tableDef(t *testing.T, schema, name string) string {
	t.Helper()

	_, rest, ok := strings.Cut(schema, "CREATE TABLE IF NOT EXISTS "+name+" (")
	require.True(t, ok, "table %s not declared", name)

	def, _, _ := strings.Cut(rest, ");")

	return def
}

// checkValues returns the literals of the CHECK (column IN (...)) constraint
// declared for column.
func checkValues(t *testing.T, schema, column string) []string {
	t.Helper()

	re := regexp.MustCompile(`CHECK \(` + column + ` IN \(([^)]*)\)\)`)
	m := re.FindStringSubmatch(schema)
	require.NotNil(t, m, "no CHECK constraint on %s", column)

	var values []string
	for v := range strings.SplitSeq(m[1], ",") {
		values = append(values, strings.Trim(strings.TrimSpace(v), "'"))
	}

	return values
}

func TestSchema_OrderConstraintsMatchDomain(t *testing.T) {
	raw, err := os.ReadFile("schema.sql")
	require.NoError(t, err)

	schema := tableDef(t, string(raw), "orders")

	t.Run("Status", func(t *testing.T) {
		values := checkValues(t, schema, "status")

		assert.ElementsMatch(t, []string{
			string(order.StatusReceived), string(order.StatusPreparing), string(order.StatusReady),
			string(order.StatusInDelivery), string(order.StatusDelivered), string(order.StatusFinalized),
			string(order.StatusCancelled),
		}, values)

		for _, v := range values {
			st, err := order.ParseStatus(v)
			require.NoError(t, err, v)
			assert.Equal(t, v, string(st))
		}

		assert.NotContains(t, values, "pending", "aliases are resolved before storage")
	})

	t.Run("PaymentMethod", func(t *testing.T) {
		values := checkValues(t, schema, "payment_method")

		assert.ElementsMatch(t, []string{
			string(order.PaymentCash), string(order.PaymentCreditCard), string(order.PaymentDebitCard),
			string(order.PaymentPix), string(order.PaymentMealVoucher), string(order.PaymentPending),
		}, values)

		for _, v := range values {
			_, err := order.ParsePaymentMethod(v)
			assert.NoError(t, err, v)
		}
	})
}
