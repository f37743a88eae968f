package valueobject

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney_NormalizesScale(t *testing.T) {
	m, err := NewMoney(decimal.RequireFromString("10.005"), "usd")
	require.NoError(t, err)

	assert.Equal(t, "10.01", m.Amount().StringFixed(2))
	assert.Equal(t, "USD", m.Currency())
}

func TestNewMoney_RejectsBlankCurrency(t *testing.T) {
	_, err := NewMoney(decimal.NewFromInt(5), "   ")
	assert.Error(t, err)
}

func TestMoney_AddMismatchedCurrency(t *testing.T) {
	a, _ := NewMoneyFromFloat(10, "USD")
	b, _ := NewMoneyFromFloat(10, "EUR")

	_, err := a.Add(b)
	assert.Error(t, err)
}

func TestMoney_Arithmetic(t *testing.T) {
	a, _ := NewMoneyFromFloat(19.99, "USD")
	b, _ := NewMoneyFromFloat(5.01, "USD")

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, "25.00 USD", sum.String())

	diff, err := a.Sub(b)
	require.NoError(t, err)
	assert.Equal(t, "14.98 USD", diff.String())

	total := a.Mul(3)
	assert.Equal(t, "59.97 USD", total.String())
}

func TestMoney_Equals(t *testing.T) {
	a, _ := NewMoneyFromFloat(10.00, "USD")
	b, _ := NewMoney(decimal.RequireFromString("10"), "USD")

	assert.True(t, a.Equals(b))
	assert.True(t, Zero("USD").IsZero())
}

func TestNewAddress_RequiresAllFields(t *testing.T) {
	_, err := NewAddress("Main St 1", "Springfield", "", "US")
	assert.Error(t, err)

	a, err := NewAddress(" Main St 1 ", "Springfield", "12345", "US")
	require.NoError(t, err)
	assert.Equal(t, "Main St 1", a.Street)
	assert.Equal(t, "Main St 1, 12345 Springfield, US", a.String())
}
