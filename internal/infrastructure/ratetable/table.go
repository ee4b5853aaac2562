package ratetable

import (
	"context"
	"fmt"
	"strings"
	"time"

	"preventa-backend/internal/domain"
	"preventa-backend/pkg/cache"
	"preventa-backend/pkg/logger"
	"preventa-backend/pkg/textnorm"

	"github.com/shopspring/decimal"
)

// Table resolves shipping rates from a schedule that is loaded from its
// source on every lookup. With WithCache the parsed schedule is kept for a
// fixed TTL instead.
type Table struct {
	source Source
	cache  cache.CacheService
	ttl    time.Duration
}

type Option func(*Table)

// WithCache keeps the parsed schedule in c for ttl. A non-positive ttl
// leaves caching disabled.
func WithCache(c cache.CacheService, ttl time.Duration) Option {
	return func(t *Table) {
		if c != nil && ttl > 0 {
			t.cache = c
			t.ttl = ttl
		}
	}
}

func New(source Source, opts ...Option) *Table {
	t := &Table{source: source}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

var _ domain.RateResolver = (*Table)(nil)

// Load returns the full schedule. Read or parse failures wrap
// domain.ErrResourceUnavailable.
func (t *Table) Load(ctx context.Context) ([]domain.RateRow, error) {
	cacheKey := "ratetable:" + t.source.Name()
	if t.cache != nil {
		if v, ok := t.cache.Get(cacheKey); ok {
			if rows, ok := v.([]domain.RateRow); ok {
				return rows, nil
			}
		}
	}

	rc, err := t.source.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrResourceUnavailable, t.source.Name(), err)
	}
	defer rc.Close()

	rows, err := Parse(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrResourceUnavailable, t.source.Name(), err)
	}

	if t.cache != nil {
		t.cache.Set(cacheKey, rows, t.ttl)
	}
	return rows, nil
}

// Resolve returns the rate and carrier of the lightest tier that covers
// weightKg (first row on ties) among the schedule rows whose region contains region.
// Both sides are compared after textnorm.Normalize, so "guerrero" matches
// "Estado de Guerrero". An empty region matches every row.
func (t *Table) Resolve(ctx context.Context, weightKg float64, region string) (decimal.Decimal, string, error) {
	log := logger.WithContext(ctx)

	rows, err := t.Load(ctx)
	if err != nil {
		return decimal.Zero, "", err
	}

	query := textnorm.Normalize(region)
	weight := decimal.NewFromFloat(weightKg)

	var (
		best        *domain.RateRow
		regionMatch bool
	)
	for i := range rows {
		row := &rows[i]
		// Rows without a region never match, not even an empty query.
		if row.Region == "" || !strings.Contains(textnorm.Normalize(row.Region), query) {
			continue
		}
		regionMatch = true
		if row.MaxWeightKg.LessThan(weight) {
			continue
		}
		if best == nil || row.MaxWeightKg.LessThan(best.MaxWeightKg) {
			best = row
		}
	}

	if !regionMatch {
		log.Info().Float64("weight_kg", weightKg).Str("region", region).Msg("No shipping rate for region")
		return decimal.Zero, "", nil
	}
	if best == nil {
		log.Info().Float64("weight_kg", weightKg).Str("region", region).Msg("No shipping rate covers weight")
		return decimal.Zero, "", nil
	}

	log.Info().
		Float64("weight_kg", weightKg).
		Str("region", region).
		Str("region_normalized", query).
		Str("rate", best.Rate.String()).
		Str("carrier", best.Carrier).
		Msg("Shipping rate resolved")
	return best.Rate, best.Carrier, nil
}
