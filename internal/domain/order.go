package domain

import (
	"context"
	"strings"
)

// --- Order Entities ---

// Order is the subset of a platform order the balance computation reads.
// It is never mutated; results are written back as metafields.
type Order struct {
	ID              int64            `json:"id"`
	LineItems       []LineItem       `json:"line_items"`
	ShippingLines   []ShippingLine   `json:"shipping_lines"`
	ShippingAddress *ShippingAddress `json:"shipping_address"`
	TotalWeight     float64          `json:"total_weight"` // grams
}

type LineItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type ShippingLine struct {
	Title string `json:"title"`
}

type ShippingAddress struct {
	Province string `json:"province"`
}

// Province returns the shipping province, or "" when the order has no address.
func (o *Order) Province() string {
	if o.ShippingAddress == nil {
		return ""
	}
	return o.ShippingAddress.Province
}

// WeightKg converts the order's total weight from grams to kilograms.
func (o *Order) WeightKg() float64 {
	return o.TotalWeight / 1000.0
}

// IsPreSale reports whether the shipping lines flag the order as a pre-sale
// under the given policy.
func (o *Order) IsPreSale(policy PreSalePolicy) bool {
	switch policy {
	case PreSaleFirstExact:
		return len(o.ShippingLines) > 0 && o.ShippingLines[0].Title == PreSaleShippingTitle
	default:
		for _, sl := range o.ShippingLines {
			if strings.Contains(strings.ToLower(sl.Title), PreSaleKeyword) {
				return true
			}
		}
		return false
	}
}

// --- Interfaces ---

// CommerceClient reads orders and products from the commerce platform and
// writes order metafields back to it.
type CommerceClient interface {
	FetchOrder(ctx context.Context, orderID int64) (*Order, error)
	FetchProductTags(ctx context.Context, productID int64) ([]string, error)
	FetchProductConstant(ctx context.Context, productID int64) (Amount, error)
	UpsertMoneyMetafield(ctx context.Context, orderID int64, key string, amount Amount) error
	UpsertTextMetafield(ctx context.Context, orderID int64, key, value string) error
}
