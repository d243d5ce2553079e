package deal

import (
	"github.com/iwvelando/deal-analyzer/pkg/constants"
	"github.com/iwvelando/deal-analyzer/pkg/mathutil"
)

// Metrics is the result of one calculation. Exactly one of Rental, Flip and
// Wholesale is set for a supported deal type; none is set otherwise.
type Metrics struct {
	DealType       DealType       `json:"dealType"`
	PurchaseMethod PurchaseMethod `json:"purchaseMethod"`
	Category       Category       `json:"category"`

	Financing *Financing `json:"financing,omitempty"`

	Rental    *RentalMetrics    `json:"rental,omitempty"`
	Flip      *FlipMetrics      `json:"flip,omitempty"`
	Wholesale *WholesaleMetrics `json:"wholesale,omitempty"`
}

// Supported reports whether a metrics rule produced any figures.
func (m Metrics) Supported() bool {
	return m.Rental != nil || m.Flip != nil || m.Wholesale != nil
}

// RentalMetrics covers rental, BRRRR and live-in deals. Monthly and annual
// amounts are in currency; rates and returns are in percent.
type RentalMetrics struct {
	MonthlyIncome        float64 `json:"monthlyIncome"`
	MonthlyExpenses      float64 `json:"monthlyExpenses"`
	MonthlyPayment       float64 `json:"monthlyPayment"`
	TotalMonthlyExpenses float64 `json:"totalMonthlyExpenses"`
	MonthlyCashFlow      float64 `json:"monthlyCashFlow"`
	AnnualCashFlow       float64 `json:"annualCashFlow"`

	AnnualIncome       float64 `json:"annualIncome"`
	AnnualExpenses     float64 `json:"annualExpenses"`
	NetOperatingIncome float64 `json:"netOperatingIncome"`

	CapRate             float64 `json:"capRate"`
	CashOnCashReturn    float64 `json:"cashOnCashReturn"`
	OnePercentRule      float64 `json:"onePercentRule"`
	GrossRentMultiplier float64 `json:"grossRentMultiplier"`
	DSCR                float64 `json:"dscr"`

	ActualCashInvested     float64 `json:"actualCashInvested"`
	HasBalloon             bool    `json:"hasBalloon"`
	BalloonPaymentAmount   float64 `json:"balloonPaymentAmount,omitempty"`
	BalloonPaymentPerMonth float64 `json:"balloonPaymentPerMonth,omitempty"`
}

// FlipMetrics covers fix-and-flip deals.
type FlipMetrics struct {
	TotalInvestment   float64 `json:"totalInvestment"`
	TotalCommission   float64 `json:"totalCommission"`
	TotalSellingCosts float64 `json:"totalSellingCosts"`
	NetProfit         float64 `json:"netProfit"`
	ROI               float64 `json:"roi"`

	// MaxAllowableOffer is the 70% rule: ARV times 0.70 less the rehab budget.
	MaxAllowableOffer float64 `json:"maxAllowableOffer"`
}

// WholesaleMetrics covers contract assignments.
type WholesaleMetrics struct {
	Profit float64 `json:"profit"`
	ROI    float64 `json:"roi"`
}

// monthlyOperatingExpenses excludes debt service. Taxes and insurance are
// annual figures.
func monthlyOperatingExpenses(n Normalized) float64 {
	return n.PropertyTaxes/constants.MonthsPerYear +
		n.Insurance/constants.MonthsPerYear +
		n.Maintenance +
		n.Capex +
		n.Management +
		n.Utilities +
		n.HOA
}

func monthlyEffectiveIncome(n Normalized, vacancyRate float64) float64 {
	rent := n.EffectiveMonthlyRent()
	return rent*(1-vacancyRate/constants.PercentageMultiplier) + n.OtherIncome
}

func rentalMetrics(n Normalized, fin Financing) *RentalMetrics {
	rent := n.EffectiveMonthlyRent()

	m := &RentalMetrics{
		MonthlyIncome:      monthlyEffectiveIncome(n, n.VacancyRate),
		MonthlyExpenses:    monthlyOperatingExpenses(n),
		MonthlyPayment:     fin.MonthlyPayment,
		ActualCashInvested: fin.ActualCashInvested,
	}
	m.TotalMonthlyExpenses = m.MonthlyExpenses + m.MonthlyPayment
	m.MonthlyCashFlow = m.MonthlyIncome - m.TotalMonthlyExpenses
	m.AnnualCashFlow = m.MonthlyCashFlow * constants.MonthsPerYear

	m.AnnualIncome = m.MonthlyIncome * constants.MonthsPerYear
	m.AnnualExpenses = m.MonthlyExpenses * constants.MonthsPerYear
	m.NetOperatingIncome = m.AnnualIncome - m.AnnualExpenses

	m.CapRate = mathutil.CalculatePercentage(m.NetOperatingIncome, n.PurchasePrice)
	m.CashOnCashReturn = mathutil.CalculatePercentage(m.AnnualCashFlow, m.ActualCashInvested)
	m.OnePercentRule = mathutil.CalculatePercentage(rent, n.PurchasePrice)
	m.GrossRentMultiplier = mathutil.SafeDivide(n.PurchasePrice, rent*constants.MonthsPerYear)
	m.DSCR = mathutil.SafeDivide(m.MonthlyIncome, m.MonthlyPayment)

	if fin.HasBalloon {
		m.HasBalloon = true
		m.BalloonPaymentAmount = fin.BalloonPaymentAmount
		m.BalloonPaymentPerMonth = mathutil.SafeDivide(fin.BalloonPaymentAmount, fin.BalloonTermYears*constants.MonthsPerYear)
	}
	return m
}

func flipMetrics(n Normalized) *FlipMetrics {
	m := &FlipMetrics{
		TotalInvestment: n.PurchasePrice + n.RehabCost + n.HoldingCosts,
		TotalCommission: mathutil.ApplyPercentage(n.ARV, n.TotalCommissionPercent),
	}
	m.TotalSellingCosts = n.SellingCosts + m.TotalCommission
	m.NetProfit = n.ARV - m.TotalInvestment - m.TotalSellingCosts
	m.ROI = mathutil.CalculatePercentage(m.NetProfit, m.TotalInvestment)
	m.MaxAllowableOffer = n.ARV*constants.MaxAllowableOfferRatio - n.RehabCost
	return m
}

func wholesaleMetrics(n Normalized) *WholesaleMetrics {
	return &WholesaleMetrics{
		Profit: n.AssignmentFee,
		ROI:    mathutil.CalculatePercentage(n.AssignmentFee, n.ContractPrice),
	}
}
