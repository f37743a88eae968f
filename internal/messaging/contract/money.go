package contract

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// MoneyPayload is the wire representation of a monetary amount.
// Construction normalizes the amount to exactly two decimal places
// (half-up) and rejects blank currency codes, so malformed amounts
// never enter the pipeline.
type MoneyPayload struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// NewMoneyPayload validates and normalizes a wire money value
func NewMoneyPayload(amount decimal.Decimal, currency string) (MoneyPayload, error) {
	currency = strings.TrimSpace(currency)
	if currency == "" {
		return MoneyPayload{}, fmt.Errorf("money payload requires a currency code")
	}
	return MoneyPayload{
		Amount:   amount.Round(2),
		Currency: strings.ToUpper(currency),
	}, nil
}

// MoneyPayloadFrom converts a domain money value to its wire form
func MoneyPayloadFrom(m valueobject.Money) MoneyPayload {
	return MoneyPayload{Amount: m.Amount(), Currency: m.Currency()}
}

// ToMoney converts the payload back to a domain money value
func (p MoneyPayload) ToMoney() (valueobject.Money, error) {
	return valueobject.NewMoney(p.Amount, p.Currency)
}
