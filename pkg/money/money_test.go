package money_test

import (
	"testing"

	"preventa-backend/pkg/money"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	cases := map[string]string{
		"100":    "100.00",
		"0":      "0.00",
		"99.995": "100.00",
		"12.344": "12.34",
		"12.345": "12.35",
		"0.5":    "0.50",
		"-3.005": "-3.01",
	}
	for in, want := range cases {
		assert.Equal(t, want, money.Format(decimal.RequireFromString(in)), "format %s", in)
	}
}

func TestFormat_FromFloat(t *testing.T) {
	// NewFromFloat keeps the shortest decimal form, so 99.995 is not
	// affected by its binary representation.
	assert.Equal(t, "100.00", money.Format(decimal.NewFromFloat(99.995)))
}

func TestEnvelope_Encode(t *testing.T) {
	s, err := money.NewEnvelope(decimal.NewFromInt(100), "").Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"100.00","currency_code":"MXN"}`, s)
}

func TestParse(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"envelope with string amount", `{"amount":"500.00","currency_code":"MXN"}`, "500"},
		{"envelope with numeric amount", `{"amount": 42.5, "currency_code": "MXN"}`, "42.5"},
		{"envelope without amount", `{"currency_code":"MXN"}`, "0"},
		{"bare integer", "500", "500"},
		{"bare decimal with spaces", " 12.75 ", "12.75"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := money.Parse(tc.raw)
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tc.want).Equal(got), "got %s", got)
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	for _, raw := range []string{"abc", "", `{"amount":"x"}`, `"500"`} {
		_, err := money.Parse(raw)
		assert.Error(t, err, "raw %q", raw)
	}
}
