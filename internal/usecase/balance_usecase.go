package usecase

import (
	"context"
	"fmt"

	"preventa-backend/internal/domain"
	"preventa-backend/pkg/logger"

	"github.com/shopspring/decimal"
)

type BalanceUsecase struct {
	commerce       domain.CommerceClient
	rates          domain.RateResolver
	preSalePolicy  domain.PreSalePolicy
	eligibilityTag string
}

func NewBalanceUsecase(commerce domain.CommerceClient, rates domain.RateResolver, policy domain.PreSalePolicy, eligibilityTag string) *BalanceUsecase {
	if policy == "" {
		policy = domain.PreSaleContainsAny
	}
	return &BalanceUsecase{
		commerce:       commerce,
		rates:          rates,
		preSalePolicy:  policy,
		eligibilityTag: eligibilityTag,
	}
}

// GetOrder fetches an order from the commerce platform.
func (u *BalanceUsecase) GetOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	return u.commerce.FetchOrder(ctx, orderID)
}

// Compute returns the outstanding product, shipping and total balance of an
// order without writing anything.
func (u *BalanceUsecase) Compute(ctx context.Context, order *domain.Order) (*domain.BalanceResult, error) {
	log := logger.WithContext(ctx)

	// 1. Pending product amount: constant x quantity for eligible products
	productTotal := decimal.Zero
	for _, item := range order.LineItems {
		tags, err := u.commerce.FetchProductTags(ctx, item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("pending products: %w", err)
		}
		if !domain.HasTag(tags, u.eligibilityTag) {
			continue
		}

		constant, err := u.commerce.FetchProductConstant(ctx, item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("pending products: %w", err)
		}
		subtotal := constant.Mul(decimal.NewFromInt(int64(item.Quantity)))
		productTotal = productTotal.Add(subtotal)

		log.Info().
			Int64("order_id", order.ID).
			Int64("product_id", item.ProductID).
			Int("quantity", item.Quantity).
			Str("subtotal", subtotal.String()).
			Msg("Eligible product adds to pending amount")
	}

	// 2. Pending shipping, only for pre-sale orders
	shippingTotal := decimal.Zero
	carrier := ""
	preSale := order.IsPreSale(u.preSalePolicy)
	if preSale {
		rate, c, err := u.rates.Resolve(ctx, order.WeightKg(), order.Province())
		if err != nil {
			return nil, fmt.Errorf("pending shipping: %w", err)
		}
		shippingTotal, carrier = rate, c
	} else {
		log.Info().
			Int64("order_id", order.ID).
			Str("policy", string(u.preSalePolicy)).
			Msg("No pre-sale shipping line, shipping pending is zero")
	}

	// 3. Grand total
	return &domain.BalanceResult{
		OrderID:       order.ID,
		ProductTotal:  productTotal,
		ShippingTotal: shippingTotal,
		GrandTotal:    productTotal.Add(shippingTotal),
		Carrier:       carrier,
		PreSale:       preSale,
	}, nil
}

// Persist writes the result to the order as three money metafields and one
// text metafield, in that order. Writes are not transactional: the first
// failure stops the sequence and earlier writes stay in place.
func (u *BalanceUsecase) Persist(ctx context.Context, res *domain.BalanceResult) error {
	amounts := []struct {
		key    string
		amount decimal.Decimal
	}{
		{domain.KeyPendingProducts, res.ProductTotal},
		{domain.KeyPendingShipping, res.ShippingTotal},
		{domain.KeyPendingTotal, res.GrandTotal},
	}
	for _, m := range amounts {
		if err := u.commerce.UpsertMoneyMetafield(ctx, res.OrderID, m.key, m.amount); err != nil {
			return fmt.Errorf("save metafield %s: %w", m.key, err)
		}
	}
	if err := u.commerce.UpsertTextMetafield(ctx, res.OrderID, domain.KeyCarrier, res.Carrier); err != nil {
		return fmt.Errorf("save metafield %s: %w", domain.KeyCarrier, err)
	}
	return nil
}

// Recalculate computes the order's outstanding balance and stores it on the
// order.
func (u *BalanceUsecase) Recalculate(ctx context.Context, order *domain.Order) (*domain.BalanceResult, error) {
	res, err := u.Compute(ctx, order)
	if err != nil {
		return nil, err
	}
	if err := u.Persist(ctx, res); err != nil {
		return nil, err
	}

	logger.WithContext(ctx).Info().
		Int64("order_id", res.OrderID).
		Str("products", res.ProductTotal.String()).
		Str("shipping", res.ShippingTotal.String()).
		Str("total", res.GrandTotal.String()).
		Str("carrier", res.Carrier).
		Msg("Pending balance metafields saved")
	return res, nil
}
