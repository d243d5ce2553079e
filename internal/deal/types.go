// Package deal computes investment-performance metrics for real-estate
// acquisitions. A calculation normalizes a loosely-typed Input, resolves the
// financing method into a monthly payment and cash invested, then aggregates
// the deal-type specific metrics.
//
// Every function in this package is pure: nothing is cached between calls
// and inputs are never mutated, so calculations may run concurrently.
package deal

import "strings"

// Input is the raw deal record supplied by a form, a deal file or an API
// request. Numeric fields are Field values and are coerced by Normalize.
type Input struct {
	Address string `json:"address,omitempty" yaml:"address,omitempty"`

	DealType          string `json:"dealType,omitempty" yaml:"dealType,omitempty"`
	PurchaseMethod    string `json:"purchaseMethod,omitempty" yaml:"purchaseMethod,omitempty"`
	PaymentType       string `json:"paymentType,omitempty" yaml:"paymentType,omitempty"`
	HasBalloonPayment Flag   `json:"hasBalloonPayment,omitempty" yaml:"hasBalloonPayment,omitempty"`

	PurchasePrice Field `json:"purchasePrice,omitempty" yaml:"purchasePrice,omitempty"`
	DownPayment   Field `json:"downPayment,omitempty" yaml:"downPayment,omitempty"`
	LoanAmount    Field `json:"loanAmount,omitempty" yaml:"loanAmount,omitempty"`
	InterestRate  Field `json:"interestRate,omitempty" yaml:"interestRate,omitempty"`
	LoanTerm      Field `json:"loanTerm,omitempty" yaml:"loanTerm,omitempty"`

	VacancyRate   Field `json:"vacancyRate,omitempty" yaml:"vacancyRate,omitempty"`
	MonthlyRent   Field `json:"monthlyRent,omitempty" yaml:"monthlyRent,omitempty"`
	OtherIncome   Field `json:"otherIncome,omitempty" yaml:"otherIncome,omitempty"`
	PropertyTaxes Field `json:"propertyTaxes,omitempty" yaml:"propertyTaxes,omitempty"`
	Insurance     Field `json:"insurance,omitempty" yaml:"insurance,omitempty"`
	Maintenance   Field `json:"maintenance,omitempty" yaml:"maintenance,omitempty"`
	Capex         Field `json:"capex,omitempty" yaml:"capex,omitempty"`
	Management    Field `json:"management,omitempty" yaml:"management,omitempty"`
	Utilities     Field `json:"utilities,omitempty" yaml:"utilities,omitempty"`
	HOA           Field `json:"hoa,omitempty" yaml:"hoa,omitempty"`

	RehabCost              Field `json:"rehabCost,omitempty" yaml:"rehabCost,omitempty"`
	HoldingCosts           Field `json:"holdingCosts,omitempty" yaml:"holdingCosts,omitempty"`
	SellingCosts           Field `json:"sellingCosts,omitempty" yaml:"sellingCosts,omitempty"`
	ARV                    Field `json:"arv,omitempty" yaml:"arv,omitempty"`
	TotalCommissionPercent Field `json:"totalCommissionPercent,omitempty" yaml:"totalCommissionPercent,omitempty"`

	ContractPrice Field `json:"contractPrice,omitempty" yaml:"contractPrice,omitempty"`
	AssignmentFee Field `json:"assignmentFee,omitempty" yaml:"assignmentFee,omitempty"`

	ExistingMortgageBalance Field `json:"existingMortgageBalance,omitempty" yaml:"existingMortgageBalance,omitempty"`
	ExistingMortgagePayment Field `json:"existingMortgagePayment,omitempty" yaml:"existingMortgagePayment,omitempty"`
	ExistingMortgageRate    Field `json:"existingMortgageRate,omitempty" yaml:"existingMortgageRate,omitempty"`

	LeaseAmount        Field `json:"leaseAmount,omitempty" yaml:"leaseAmount,omitempty"`
	OptionFee          Field `json:"optionFee,omitempty" yaml:"optionFee,omitempty"`
	OptionPeriod       Field `json:"optionPeriod,omitempty" yaml:"optionPeriod,omitempty"`
	RentCredit         Field `json:"rentCredit,omitempty" yaml:"rentCredit,omitempty"`
	PerformanceMetrics Field `json:"performanceMetrics,omitempty" yaml:"performanceMetrics,omitempty"`
	EquityShare        Field `json:"equityShare,omitempty" yaml:"equityShare,omitempty"`

	BalloonAmount      Field `json:"balloonAmount,omitempty" yaml:"balloonAmount,omitempty"`
	BalloonTerm        Field `json:"balloonTerm,omitempty" yaml:"balloonTerm,omitempty"`
	AmortizationPeriod Field `json:"amortizationPeriod,omitempty" yaml:"amortizationPeriod,omitempty"`

	Units             Field `json:"units,omitempty" yaml:"units,omitempty"`
	AvgRentPerUnit    Field `json:"avgRentPerUnit,omitempty" yaml:"avgRentPerUnit,omitempty"`
	OperatingExpenses Field `json:"operatingExpenses,omitempty" yaml:"operatingExpenses,omitempty"`
	NOI               Field `json:"noi,omitempty" yaml:"noi,omitempty"`
}

// Normalized is Input with every numeric field coerced to float64. Rates
// and percentages stay in percent (6 means 6%); terms stay in years.
type Normalized struct {
	Address string `json:"address,omitempty"`

	DealType          string `json:"dealType,omitempty"`
	PurchaseMethod    string `json:"purchaseMethod,omitempty"`
	PaymentType       string `json:"paymentType,omitempty"`
	HasBalloonPayment bool   `json:"hasBalloonPayment"`

	PurchasePrice float64 `json:"purchasePrice"`
	DownPayment   float64 `json:"downPayment"`
	LoanAmount    float64 `json:"loanAmount"`
	InterestRate  float64 `json:"interestRate"`
	LoanTerm      float64 `json:"loanTerm"`

	VacancyRate   float64 `json:"vacancyRate"`
	MonthlyRent   float64 `json:"monthlyRent"`
	OtherIncome   float64 `json:"otherIncome"`
	PropertyTaxes float64 `json:"propertyTaxes"`
	Insurance     float64 `json:"insurance"`
	Maintenance   float64 `json:"maintenance"`
	Capex         float64 `json:"capex"`
	Management    float64 `json:"management"`
	Utilities     float64 `json:"utilities"`
	HOA           float64 `json:"hoa"`

	RehabCost              float64 `json:"rehabCost"`
	HoldingCosts           float64 `json:"holdingCosts"`
	SellingCosts           float64 `json:"sellingCosts"`
	ARV                    float64 `json:"arv"`
	TotalCommissionPercent float64 `json:"totalCommissionPercent"`

	ContractPrice float64 `json:"contractPrice"`
	AssignmentFee float64 `json:"assignmentFee"`

	ExistingMortgageBalance float64 `json:"existingMortgageBalance"`
	ExistingMortgagePayment float64 `json:"existingMortgagePayment"`
	ExistingMortgageRate    float64 `json:"existingMortgageRate"`

	LeaseAmount        float64 `json:"leaseAmount"`
	OptionFee          float64 `json:"optionFee"`
	OptionPeriod       float64 `json:"optionPeriod"`
	RentCredit         float64 `json:"rentCredit"`
	PerformanceMetrics float64 `json:"performanceMetrics"`
	EquityShare        float64 `json:"equityShare"`

	BalloonAmount      float64 `json:"balloonAmount"`
	BalloonTerm        float64 `json:"balloonTerm"`
	AmortizationPeriod float64 `json:"amortizationPeriod"`

	Units             float64 `json:"units"`
	AvgRentPerUnit    float64 `json:"avgRentPerUnit"`
	OperatingExpenses float64 `json:"operatingExpenses"`
	NOI               float64 `json:"noi"`
}

// DealType is the investment strategy selected for a deal.
type DealType string

// Known deal types.
const (
	DealTypeRental      DealType = "rental"
	DealTypeBRRRR       DealType = "brrrr"
	DealTypeLiveIn      DealType = "livein"
	DealTypeFlip        DealType = "flip"
	DealTypeWholesale   DealType = "wholesale"
	DealTypeCommercial  DealType = "commercial"
	DealTypeMultifamily DealType = "multifamily"
	DealTypeMixedUse    DealType = "mixed_use"
)

// Category groups deal types that share a metrics rule.
type Category string

// Deal categories. CategoryUnsupported covers selectable deal types that
// have no metrics rule.
const (
	CategoryRental      Category = "rental"
	CategoryFlip        Category = "flip"
	CategoryWholesale   Category = "wholesale"
	CategoryUnsupported Category = "unsupported"
)

// SupportedDealTypes lists the deal types that produce metrics.
func SupportedDealTypes() []DealType {
	return []DealType{DealTypeRental, DealTypeBRRRR, DealTypeLiveIn, DealTypeFlip, DealTypeWholesale}
}

// ParseDealType canonicalizes a deal-type selector. Unknown values are
// returned as given with ok set to false.
func ParseDealType(s string) (DealType, bool) {
	switch key := selectorKey(s); key {
	case "rental", "buy_and_hold":
		return DealTypeRental, true
	case "brrrr":
		return DealTypeBRRRR, true
	case "livein", "live_in", "house_hack":
		return DealTypeLiveIn, true
	case "flip", "fix_and_flip":
		return DealTypeFlip, true
	case "wholesale":
		return DealTypeWholesale, true
	case "commercial":
		return DealTypeCommercial, true
	case "multifamily", "multi_family":
		return DealTypeMultifamily, true
	case "mixed_use":
		return DealTypeMixedUse, true
	default:
		return DealType(key), false
	}
}

// Category returns the metrics family for the deal type.
func (d DealType) Category() Category {
	switch d {
	case DealTypeRental, DealTypeBRRRR, DealTypeLiveIn:
		return CategoryRental
	case DealTypeFlip:
		return CategoryFlip
	case DealTypeWholesale:
		return CategoryWholesale
	default:
		return CategoryUnsupported
	}
}

// PurchaseMethod is the financing structure used to acquire a deal.
type PurchaseMethod string

// Purchase methods. The first five are conventional lending; the rest are
// creative-finance structures.
const (
	MethodConventional        PurchaseMethod = "conventional"
	MethodFHA                 PurchaseMethod = "fha"
	MethodVA                  PurchaseMethod = "va"
	MethodHardMoney           PurchaseMethod = "hard_money"
	MethodCash                PurchaseMethod = "cash"
	MethodSubjectTo           PurchaseMethod = "subject_to"
	MethodSellerFinance       PurchaseMethod = "seller_finance"
	MethodWraparound          PurchaseMethod = "wraparound"
	MethodLeaseOption         PurchaseMethod = "lease_option"
	MethodLeasePurchase       PurchaseMethod = "lease_purchase"
	MethodContractDeed        PurchaseMethod = "contract_deed"
	MethodLandContract        PurchaseMethod = "land_contract"
	MethodMasterLease         PurchaseMethod = "master_lease"
	MethodNovation            PurchaseMethod = "novation"
	MethodHybrid              PurchaseMethod = "hybrid"
	MethodOptionPurchase      PurchaseMethod = "option_purchase"
	MethodTrustAcquisition    PurchaseMethod = "trust_acquisition"
	MethodEquitySharing       PurchaseMethod = "equity_sharing"
	MethodPerformanceMortgage PurchaseMethod = "performance_mortgage"
)

// AllPurchaseMethods lists every purchase method in display order.
func AllPurchaseMethods() []PurchaseMethod {
	return []PurchaseMethod{
		MethodConventional, MethodFHA, MethodVA, MethodHardMoney, MethodCash,
		MethodSubjectTo, MethodSellerFinance, MethodWraparound,
		MethodLeaseOption, MethodLeasePurchase, MethodContractDeed, MethodLandContract,
		MethodMasterLease, MethodNovation, MethodHybrid, MethodOptionPurchase,
		MethodTrustAcquisition, MethodEquitySharing, MethodPerformanceMortgage,
	}
}

// ParsePurchaseMethod canonicalizes a purchase-method selector. An empty
// selector means conventional financing. Unknown values are returned as
// given with ok set to false; they price as conventional loans.
func ParsePurchaseMethod(s string) (PurchaseMethod, bool) {
	key := selectorKey(s)
	if key == "" {
		return MethodConventional, true
	}
	switch key {
	case "subject2", "sub_to":
		return MethodSubjectTo, true
	case "wrap", "wrap_around":
		return MethodWraparound, true
	case "owner_finance", "owner_financing", "seller_financing":
		return MethodSellerFinance, true
	}
	for _, method := range AllPurchaseMethods() {
		if string(method) == key {
			return method, true
		}
	}
	return PurchaseMethod(key), false
}

func selectorKey(s string) string {
	trimmed := strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "_", " ", "_").Replace(trimmed)
}
