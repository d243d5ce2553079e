// Package loans provides the loan-math primitives used to price financing:
// level payments, remaining balances and balloon payoffs.
package loans

import (
	"math"

	"github.com/iwvelando/deal-analyzer/pkg/constants"
	"github.com/iwvelando/deal-analyzer/pkg/mathutil"
)

// MonthlyRate converts an annual percentage rate (e.g. 6 for 6%) into a
// periodic monthly rate.
func MonthlyRate(annualInterestRate float64) float64 {
	return annualInterestRate / (constants.PercentageMultiplier * constants.MonthsPerYear)
}

// LevelPayment calculates the fixed monthly payment that fully amortizes
// principal over termMonths using the standard annuity formula
//
//	payment = P * r * (1+r)^n / ((1+r)^n - 1)
//
// Degenerate loans (principal <= 0, monthlyRate <= 0 or termMonths <= 0)
// carry no payment and return 0.
func LevelPayment(principal, monthlyRate float64, termMonths int) float64 {
	if principal <= 0 || monthlyRate <= 0 || termMonths <= 0 {
		return 0
	}

	power := math.Pow(1.00+monthlyRate, float64(termMonths))
	payment := principal * monthlyRate * power / (power - 1.00)
	if !mathutil.IsFinite(payment) {
		return 0
	}
	return payment
}

// RemainingBalance returns the principal still owed after monthsElapsed
// payments of monthlyPayment
//
//	balance = P*(1+r)^n - payment*((1+r)^n - 1)/r
//
// floored at 0. Degenerate loans return 0.
func RemainingBalance(principal, monthlyRate float64, monthsElapsed int, monthlyPayment float64) float64 {
	if principal <= 0 || monthlyRate <= 0 {
		return 0
	}
	if monthsElapsed <= 0 {
		return principal
	}

	power := math.Pow(1.00+monthlyRate, float64(monthsElapsed))
	balance := principal*power - monthlyPayment*(power-1.00)/monthlyRate
	if !mathutil.IsFinite(balance) || balance < 0 {
		return 0
	}
	// Full amortization leaves floating-point dust rather than an exact zero.
	if mathutil.IsZero(balance) {
		return 0
	}
	return balance
}

// InterestOnlyPayment calculates the monthly interest charge on principal.
func InterestOnlyPayment(principal, monthlyRate float64) float64 {
	if principal <= 0 || monthlyRate <= 0 {
		return 0
	}
	return principal * monthlyRate
}

// YearsToMonths converts a possibly fractional year count into whole months.
func YearsToMonths(years float64) int {
	if years <= 0 || !mathutil.IsFinite(years) {
		return 0
	}
	return int(math.Round(years * constants.MonthsPerYear))
}
