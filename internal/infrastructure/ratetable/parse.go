package ratetable

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"preventa-backend/internal/domain"

	"github.com/shopspring/decimal"
)

// Schedule columns
const (
	colRegion  = "ubicacion"
	colWeight  = "peso_kg"
	colRate    = "tarifa"
	colCarrier = "paqueteria"
)

// Parse reads a CSV schedule with a header row naming the columns
// ubicacion, peso_kg, tarifa and paqueteria, in any order.
func Parse(r io.Reader) ([]domain.RateRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty rate schedule")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		// Spreadsheet exports often prefix the first cell with a BOM.
		h = strings.TrimPrefix(h, "\ufeff")
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range []string{colRegion, colWeight, colRate, colCarrier} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}

	var rows []domain.RateRow
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		cell := func(col string) string {
			if i := idx[col]; i < len(record) {
				return strings.TrimSpace(record[i])
			}
			return ""
		}

		weight, err := decimal.NewFromString(cell(colWeight))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid %s %q", line, colWeight, cell(colWeight))
		}
		rate, err := decimal.NewFromString(cell(colRate))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid %s %q", line, colRate, cell(colRate))
		}

		rows = append(rows, domain.RateRow{
			Region:      cell(colRegion),
			MaxWeightKg: weight,
			Rate:        rate,
			Carrier:     cell(colCarrier),
		})
	}
	return rows, nil
}
