// Package validation provides configuration validation utilities.
package validation

import (
	"fmt"
	"strings"

	"github.com/iwvelando/deal-analyzer/internal/deal"
	"github.com/iwvelando/deal-analyzer/pkg/constants"
	"github.com/iwvelando/deal-analyzer/pkg/loans"
)

// DealConfig is the subset of a configured deal the validator inspects.
type DealConfig struct {
	Name           string
	DealType       string
	PurchaseMethod string
	Input          deal.Input
}

// ConfigValidator validates every deal of a deal file.
type ConfigValidator struct {
	Deals []DealConfig
}

// ValidateAll validates the entire configuration and returns warnings
func (cv *ConfigValidator) ValidateAll() []string {
	var warnings []string
	seen := make(map[string]bool, len(cv.Deals))
	for _, d := range cv.Deals {
		if d.Name != "" && seen[d.Name] {
			warnings = append(warnings, fmt.Sprintf("Deal '%s' is defined more than once", d.Name))
		}
		seen[d.Name] = true
		warnings = append(warnings, ValidateDeal(d.Name, d.DealType, d.PurchaseMethod, d.Input)...)
	}
	return warnings
}

// ValidateDeal reports inputs that compute without error but probably do not
// mean what the author intended. Warnings never block a calculation.
func ValidateDeal(name, dealTypeSelector, methodSelector string, in deal.Input) []string {
	var warnings []string
	label := fmt.Sprintf("Deal '%s'", name)
	if name == "" {
		label = "Deal"
	}

	dealType, ok := deal.ParseDealType(dealTypeSelector)
	if !ok {
		warnings = append(warnings, fmt.Sprintf("%s has unknown deal type '%s'; no metrics will be computed", label, dealTypeSelector))
	} else if dealType.Category() == deal.CategoryUnsupported {
		warnings = append(warnings, fmt.Sprintf("%s deal type '%s' has no metrics rule; no metrics will be computed", label, dealType))
	}

	method, ok := deal.ParsePurchaseMethod(methodSelector)
	if !ok {
		warnings = append(warnings, fmt.Sprintf("%s has unknown purchase method '%s'; priced as a conventional loan", label, methodSelector))
	}

	if fields := in.UnparsedFields(); len(fields) > 0 {
		warnings = append(warnings, fmt.Sprintf("%s has non-numeric values treated as 0: %s", label, strings.Join(fields, ", ")))
	}

	n := deal.Normalize(in)
	fin := deal.ResolveFinancing(n, method)

	if fin.Policy != nil && n.LoanAmount > 0 {
		if n.InterestRate <= 0 {
			warnings = append(warnings, fmt.Sprintf("%s finances %.2f with no interest rate; the monthly payment is 0", label, n.LoanAmount))
		}
		if n.LoanTerm <= 0 {
			warnings = append(warnings, fmt.Sprintf("%s finances %.2f with no loan term; the monthly payment is 0", label, n.LoanAmount))
		}
		if n.HasBalloonPayment && n.BalloonTerm > n.LoanTerm && n.LoanTerm > 0 {
			warnings = append(warnings, fmt.Sprintf("%s balloon term (%.1f years) exceeds the loan term (%.1f years)", label, n.BalloonTerm, n.LoanTerm))
		}
	}
	if n.HasBalloonPayment && fin.Rule == deal.RuleSubjectTo {
		warnings = append(warnings, fmt.Sprintf("%s is subject-to; the balloon settings of the existing loan are not modelled", label))
	}
	if n.PaymentType == loans.PaymentTypePartialAmortization && !n.HasBalloonPayment {
		warnings = append(warnings, fmt.Sprintf("%s requests partial amortization without a balloon payment; the loan fully amortizes", label))
	}

	if dealType.Category() == deal.CategoryRental {
		if n.EffectiveMonthlyRent() <= 0 {
			warnings = append(warnings, fmt.Sprintf("%s has no monthly rent", label))
		}
		if n.VacancyRate <= 0 {
			warnings = append(warnings, fmt.Sprintf("%s has no vacancy allowance (%.0f%% is typical)", label, constants.DefaultProFormaVacancy))
		}
	}
	if dealType.Category() == deal.CategoryFlip && n.ARV <= 0 {
		warnings = append(warnings, fmt.Sprintf("%s has no after-repair value", label))
	}

	return warnings
}
