package domain

// BalanceResult is the outstanding balance computed for one order.
type BalanceResult struct {
	OrderID       int64
	ProductTotal  Amount
	ShippingTotal Amount
	GrandTotal    Amount
	Carrier       string
	PreSale       bool
}
