package contract

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsVersionSupported(t *testing.T) {
	tests := []struct {
		name     string
		version  string
		min      string
		current  string
		expected bool
	}{
		{"equal to min and current", "1.0", "1.0", "1.0", true},
		{"between min and current", "1.2", "1.0", "1.5", true},
		{"above current", "2.0", "1.0", "1.0", false},
		{"below min", "0.9", "1.0", "2.0", false},
		{"blank", "", "1.0", "1.0", false},
		{"malformed", "abc", "1.0", "1.0", false},
		{"missing minor", "1", "1.0", "1.0", false},
		{"negative", "-1.0", "1.0", "1.0", false},
		{"major ordering beats minor", "1.9", "1.0", "2.0", true},
		{"whitespace tolerated", " 1.0 ", "1.0", "1.0", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsVersionSupported(tt.version, tt.min, tt.current))
		})
	}
}

func TestNewMoneyPayload_Normalizes(t *testing.T) {
	p, err := NewMoneyPayload(decimal.RequireFromString("10.005"), "usd")
	require.NoError(t, err)

	assert.Equal(t, "10.01", p.Amount.StringFixed(2))
	assert.Equal(t, "USD", p.Currency)
}

func TestNewMoneyPayload_BlankCurrency(t *testing.T) {
	_, err := NewMoneyPayload(decimal.NewFromInt(10), "  ")
	assert.Error(t, err)
}

func TestEnvelope_Correlation(t *testing.T) {
	req := NewEnvelope("1.0")
	assert.NotEmpty(t, req.MessageID)
	assert.Empty(t, req.CorrelationID)

	resp := NewResponseEnvelope("1.0", req.MessageID)
	assert.Equal(t, req.MessageID, resp.CorrelationID)
	assert.NotEqual(t, req.MessageID, resp.MessageID)
}
