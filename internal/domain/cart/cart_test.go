package cart

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCart_AddItem(t *testing.T) {
	c := NewCart(uuid.New())
	productID := uuid.New()
	price := decimal.NewFromFloat(9.99)

	require.NoError(t, c.AddItem(productID, 2, price))
	require.NoError(t, c.AddItem(productID, 1, price))

	require.Len(t, c.Items, 1)
	assert.Equal(t, 3, c.Items[0].Quantity)
}

func TestCart_AddItem_InvalidQuantity(t *testing.T) {
	c := NewCart(uuid.New())
	assert.Error(t, c.AddItem(uuid.New(), 0, decimal.NewFromInt(1)))
}

func TestCart_UpdateItem(t *testing.T) {
	c := NewCart(uuid.New())
	productID := uuid.New()
	require.NoError(t, c.AddItem(productID, 2, decimal.NewFromInt(5)))

	require.NoError(t, c.UpdateItem(productID, 7))
	assert.Equal(t, 7, c.Items[0].Quantity)

	require.NoError(t, c.UpdateItem(productID, 0))
	assert.True(t, c.IsEmpty())

	assert.Error(t, c.UpdateItem(uuid.New(), 1))
}

func TestCart_Clear(t *testing.T) {
	c := NewCart(uuid.New())
	require.NoError(t, c.AddItem(uuid.New(), 1, decimal.NewFromInt(5)))

	c.Clear()
	assert.True(t, c.IsEmpty())
}
