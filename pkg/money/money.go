package money

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is the currency every stored amount is expressed in.
const DefaultCurrency = "MXN"

// Envelope is the JSON value of a money metafield.
type Envelope struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currency_code"`
}

// Format renders an amount with exactly two decimals, rounding half away
// from zero: 100 -> "100.00", 99.995 -> "100.00", 12.344 -> "12.34".
func Format(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

// NewEnvelope builds the stored representation of amount.
func NewEnvelope(amount decimal.Decimal, currency string) Envelope {
	if currency == "" {
		currency = DefaultCurrency
	}
	return Envelope{
		Amount:       Format(amount),
		CurrencyCode: currency,
	}
}

// Encode returns the envelope as the JSON string stored in the metafield value.
func (e Envelope) Encode() (string, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("failed to encode money envelope: %w", err)
	}
	return string(b), nil
}

// Parse reads a stored money value. The value is either an envelope such as
// {"amount":"500.00","currency_code":"MXN"} or a bare number such as "500".
// An envelope without an amount is zero.
func Parse(raw string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(raw)

	if strings.HasPrefix(trimmed, "{") {
		var env struct {
			Amount *decimal.Decimal `json:"amount"`
		}
		if err := json.Unmarshal([]byte(trimmed), &env); err == nil {
			if env.Amount == nil {
				return decimal.Zero, nil
			}
			return *env.Amount, nil
		}
	}

	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	return d, nil
}
