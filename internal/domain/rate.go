package domain

import "context"

// RateRow is one line of the shipping rate schedule.
type RateRow struct {
	Region      string
	MaxWeightKg Amount
	Rate        Amount
	Carrier     string
}

// RateResolver resolves the shipping rate and carrier for a shipment.
// A region or weight without a matching row yields a zero rate and empty
// carrier, not an error.
type RateResolver interface {
	Resolve(ctx context.Context, weightKg float64, region string) (Amount, string, error)
}
