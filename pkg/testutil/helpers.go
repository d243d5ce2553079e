// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/iwvelando/deal-analyzer/internal/deal"
)

// RentalScenarioInput is a financed single-family rental: $200,000 purchase,
// $160,000 at 6% over 30 years, $2,000 rent.
func RentalScenarioInput() deal.Input {
	return deal.Input{
		Address:       "101 Elm Street",
		PurchasePrice: deal.F(200000),
		DownPayment:   deal.F(40000),
		LoanAmount:    deal.F(160000),
		InterestRate:  deal.F(6),
		LoanTerm:      deal.F(30),
		MonthlyRent:   deal.F(2000),
		VacancyRate:   deal.F(5),
		PropertyTaxes: deal.F(2400),
		Insurance:     deal.F(1200),
		Maintenance:   deal.F(100),
		Capex:         deal.F(100),
		Management:    deal.F(150),
	}
}

// FlipScenarioInput is a fix-and-flip expected to net $31,200.
func FlipScenarioInput() deal.Input {
	return deal.Input{
		Address:                "22 Oak Avenue",
		PurchasePrice:          deal.F(100000),
		RehabCost:              deal.F(30000),
		HoldingCosts:           deal.F(5000),
		ARV:                    deal.F(180000),
		SellingCosts:           deal.F(3000),
		TotalCommissionPercent: deal.F(6),
	}
}

// WholesaleScenarioInput assigns a $50,000 contract for a $5,000 fee.
func WholesaleScenarioInput() deal.Input {
	return deal.Input{
		ContractPrice: deal.F(50000),
		AssignmentFee: deal.F(5000),
	}
}

// FindMetrics finds the result for a deal type and purchase method.
// Returns a pointer to the metrics if found, nil otherwise.
func FindMetrics(results []deal.Metrics, dealType deal.DealType, method deal.PurchaseMethod) *deal.Metrics {
	for i := range results {
		if results[i].DealType == dealType && results[i].PurchaseMethod == method {
			return &results[i]
		}
	}
	return nil
}
