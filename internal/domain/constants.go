package domain

// PreSalePolicy selects how shipping lines are checked for pre-sale intent.
type PreSalePolicy string

const (
	// PreSaleContainsAny: any shipping line title contains "preventa", case-insensitively.
	PreSaleContainsAny PreSalePolicy = "contains_any"
	// PreSaleFirstExact: the first shipping line title is exactly "Preventa".
	PreSaleFirstExact PreSalePolicy = "first_exact"
)

const (
	PreSaleKeyword       = "preventa"
	PreSaleShippingTitle = "Preventa"

	// EligibilityTag marks products whose pending constant is owed.
	EligibilityTag = "yo"
)

// List Exports for config validation
var PreSalePolicies = []PreSalePolicy{
	PreSaleContainsAny,
	PreSaleFirstExact,
}

// Valid reports whether p is a known policy.
func (p PreSalePolicy) Valid() bool {
	for _, known := range PreSalePolicies {
		if p == known {
			return true
		}
	}
	return false
}
