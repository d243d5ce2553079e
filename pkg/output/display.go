package output

import (
	"github.com/iwvelando/deal-analyzer/internal/deal"
	"github.com/iwvelando/deal-analyzer/pkg/format"
)

// Kind tells a renderer how a display value is formatted.
type Kind string

// Display kinds.
const (
	KindCurrency Kind = "currency"
	KindPercent  Kind = "percent"
	KindRatio    Kind = "ratio"
)

// Line is one labelled figure of a metrics record.
type Line struct {
	Key   string  `json:"key"`
	Label string  `json:"label"`
	Kind  Kind    `json:"kind"`
	Raw   float64 `json:"raw"`
	Value string  `json:"value"`
}

func line(key, label string, kind Kind, raw float64) Line {
	var value string
	switch kind {
	case KindPercent:
		value = format.Percent(raw)
	case KindRatio:
		value = format.Ratio(raw)
	default:
		value = format.Currency(raw)
	}
	return Line{Key: key, Label: label, Kind: kind, Raw: raw, Value: value}
}

// Display lists the figures of m in presentation order. Unsupported deal
// types produce no lines.
func Display(m deal.Metrics) []Line {
	var lines []Line
	switch {
	case m.Rental != nil:
		r := m.Rental
		lines = append(lines,
			line("monthlyIncome", "Monthly Income", KindCurrency, r.MonthlyIncome),
			line("monthlyExpenses", "Monthly Expenses", KindCurrency, r.MonthlyExpenses),
			line("monthlyPayment", "Monthly Payment", KindCurrency, r.MonthlyPayment),
			line("totalMonthlyExpenses", "Total Monthly Expenses", KindCurrency, r.TotalMonthlyExpenses),
			line("monthlyCashFlow", "Monthly Cash Flow", KindCurrency, r.MonthlyCashFlow),
			line("annualCashFlow", "Annual Cash Flow", KindCurrency, r.AnnualCashFlow),
			line("netOperatingIncome", "Net Operating Income", KindCurrency, r.NetOperatingIncome),
			line("capRate", "Cap Rate", KindPercent, r.CapRate),
			line("cashOnCashReturn", "Cash-on-Cash Return", KindPercent, r.CashOnCashReturn),
			line("onePercentRule", "1% Rule", KindPercent, r.OnePercentRule),
			line("grossRentMultiplier", "Gross Rent Multiplier", KindRatio, r.GrossRentMultiplier),
			line("dscr", "DSCR", KindRatio, r.DSCR),
			line("actualCashInvested", "Actual Cash Invested", KindCurrency, r.ActualCashInvested),
		)
		if r.HasBalloon {
			lines = append(lines,
				line("balloonPaymentAmount", "Balloon Payment", KindCurrency, r.BalloonPaymentAmount),
				line("balloonPaymentPerMonth", "Balloon Reserve per Month", KindCurrency, r.BalloonPaymentPerMonth),
			)
		}
		lines = append(lines, financingLines(m.Financing)...)
	case m.Flip != nil:
		f := m.Flip
		lines = append(lines,
			line("totalInvestment", "Total Investment", KindCurrency, f.TotalInvestment),
			line("totalCommission", "Total Commission", KindCurrency, f.TotalCommission),
			line("totalSellingCosts", "Total Selling Costs", KindCurrency, f.TotalSellingCosts),
			line("netProfit", "Net Profit", KindCurrency, f.NetProfit),
			line("roi", "ROI", KindPercent, f.ROI),
			line("maxAllowableOffer", "Max Allowable Offer (70%)", KindCurrency, f.MaxAllowableOffer),
		)
	case m.Wholesale != nil:
		lines = append(lines,
			line("profit", "Assignment Profit", KindCurrency, m.Wholesale.Profit),
			line("roi", "ROI", KindPercent, m.Wholesale.ROI),
		)
	}
	return lines
}

func financingLines(fin *deal.Financing) []Line {
	if fin == nil {
		return nil
	}
	var lines []Line
	switch fin.Rule {
	case deal.RuleWraparound:
		lines = append(lines,
			line("existingMortgagePayment", "Underlying Payment", KindCurrency, fin.ExistingMortgagePayment),
			line("wrapSpread", "Wrap Spread", KindCurrency, fin.WrapSpread),
		)
	case deal.RuleEquityShare:
		lines = append(lines, line("equitySharePercentage", "Equity Share", KindPercent, fin.EquitySharePercentage))
	}
	return lines
}

// DisplayMap keys the formatted values of Display by their metric key.
func DisplayMap(m deal.Metrics) map[string]string {
	lines := Display(m)
	values := make(map[string]string, len(lines))
	for _, l := range lines {
		values[l.Key] = l.Value
	}
	return values
}
