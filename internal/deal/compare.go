package deal

// Combination is one deal-type and purchase-method pairing to evaluate.
type Combination struct {
	DealType       DealType       `json:"dealType" yaml:"dealType"`
	PurchaseMethod PurchaseMethod `json:"purchaseMethod" yaml:"purchaseMethod"`
}

// StrategyMatrix pairs every supported deal type with every purchase method.
func StrategyMatrix() []Combination {
	dealTypes := SupportedDealTypes()
	methods := AllPurchaseMethods()
	matrix := make([]Combination, 0, len(dealTypes)*len(methods))
	for _, dealType := range dealTypes {
		for _, method := range methods {
			matrix = append(matrix, Combination{DealType: dealType, PurchaseMethod: method})
		}
	}
	return matrix
}

// Compare runs the engine once per combination and returns the results in
// the same order. The input is normalized once and shared read-only.
func Compare(in Input, combinations []Combination) []Metrics {
	n := Normalize(in)
	results := make([]Metrics, len(combinations))
	for i, combination := range combinations {
		results[i] = compute(n, combination.DealType, combination.PurchaseMethod)
	}
	return results
}
