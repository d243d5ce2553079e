package deal

import (
	"math"

	"github.com/iwvelando/deal-analyzer/pkg/constants"
	"github.com/iwvelando/deal-analyzer/pkg/loans"
	"github.com/iwvelando/deal-analyzer/pkg/mathutil"
)

// Assumptions drive a pro-forma projection. Growth rates are annual
// percentages. A positive VacancyRate replaces the deal's own vacancy rate.
type Assumptions struct {
	Years         int     `json:"years" yaml:"years" mapstructure:"years"`
	RentGrowth    float64 `json:"rentGrowth" yaml:"rentGrowth" mapstructure:"rentGrowth"`
	ExpenseGrowth float64 `json:"expenseGrowth" yaml:"expenseGrowth" mapstructure:"expenseGrowth"`
	VacancyRate   float64 `json:"vacancyRate,omitempty" yaml:"vacancyRate,omitempty" mapstructure:"vacancyRate"`
}

// DefaultAssumptions returns the standard growth assumptions over the
// default horizon, keeping the deal's vacancy rate.
func DefaultAssumptions() Assumptions {
	return Assumptions{
		Years:         constants.DefaultProFormaYears,
		RentGrowth:    constants.DefaultRentGrowth,
		ExpenseGrowth: constants.DefaultExpenseGrowth,
	}
}

func (a Assumptions) normalized() Assumptions {
	if a.Years <= 0 {
		a.Years = constants.DefaultProFormaYears
	}
	if a.Years > constants.MaxProFormaYears {
		a.Years = constants.MaxProFormaYears
	}
	if !mathutil.IsFinite(a.RentGrowth) {
		a.RentGrowth = 0
	}
	if !mathutil.IsFinite(a.ExpenseGrowth) {
		a.ExpenseGrowth = 0
	}
	if !mathutil.IsFinite(a.VacancyRate) || a.VacancyRate < 0 {
		a.VacancyRate = 0
	}
	return a
}

// ProFormaYear is one projected year of operation.
type ProFormaYear struct {
	Year               int     `json:"year"`
	GrossRent          float64 `json:"grossRent"`
	VacancyLoss        float64 `json:"vacancyLoss"`
	OtherIncome        float64 `json:"otherIncome"`
	EffectiveIncome    float64 `json:"effectiveIncome"`
	OperatingExpenses  float64 `json:"operatingExpenses"`
	NetOperatingIncome float64 `json:"netOperatingIncome"`
	DebtService        float64 `json:"debtService"`
	CashFlow           float64 `json:"cashFlow"`
	CumulativeCashFlow float64 `json:"cumulativeCashFlow"`
	CashOnCashReturn   float64 `json:"cashOnCashReturn"`
	LoanBalance        float64 `json:"loanBalance"`

	// BalloonDue is the lump sum falling due this year. It is reported
	// beside the cash flow, not subtracted from it.
	BalloonDue float64 `json:"balloonDue,omitempty"`
}

// ProForma is a multi-year projection with the assumptions actually used.
type ProForma struct {
	Assumptions Assumptions    `json:"assumptions"`
	Years       []ProFormaYear `json:"years"`
}

// Project returns the pro-forma for a rental-like deal. Other deal types
// return a projection with no years.
func Project(in Input, dealType DealType, method PurchaseMethod, assumptions Assumptions) ProForma {
	n := Normalize(in)
	fin := ResolveFinancing(n, method)
	var schedule []loans.Payment
	if fin.Policy != nil && fin.Principal > 0 {
		schedule = loans.NewAmortizationScheduleGenerator(nil).
			GenerateSchedule(fin.Principal, loans.MonthlyRate(fin.AnnualRate), *fin.Policy)
	}
	return project(n, dealType, fin, assumptions, schedule)
}

func project(n Normalized, dealType DealType, fin Financing, assumptions Assumptions, schedule []loans.Payment) ProForma {
	a := assumptions.normalized()
	result := ProForma{Assumptions: a}
	if dealType.Category() != CategoryRental {
		return result
	}

	vacancy := n.VacancyRate
	if a.VacancyRate > 0 {
		vacancy = a.VacancyRate
	}
	rent := n.EffectiveMonthlyRent() * constants.MonthsPerYear
	other := n.OtherIncome * constants.MonthsPerYear
	expenses := monthlyOperatingExpenses(n) * constants.MonthsPerYear
	lastPayment := lastPaymentMonth(fin)
	balloonMonth := 0
	if fin.HasBalloon && fin.Policy != nil {
		balloonMonth = lastPayment
	}

	result.Years = make([]ProFormaYear, 0, a.Years)
	cumulative := 0.0
	for year := 1; year <= a.Years; year++ {
		rentFactor := math.Pow(1+a.RentGrowth/constants.PercentageMultiplier, float64(year-1))
		expenseFactor := math.Pow(1+a.ExpenseGrowth/constants.PercentageMultiplier, float64(year-1))

		row := ProFormaYear{Year: year}
		row.GrossRent = rent * rentFactor
		row.VacancyLoss = mathutil.ApplyPercentage(row.GrossRent, vacancy)
		row.OtherIncome = other * rentFactor
		row.EffectiveIncome = row.GrossRent - row.VacancyLoss + row.OtherIncome
		row.OperatingExpenses = expenses * expenseFactor
		row.NetOperatingIncome = row.EffectiveIncome - row.OperatingExpenses
		row.DebtService = fin.MonthlyPayment * float64(paymentsInYear(year, lastPayment))
		row.CashFlow = row.NetOperatingIncome - row.DebtService
		cumulative += row.CashFlow
		row.CumulativeCashFlow = cumulative
		row.CashOnCashReturn = mathutil.CalculatePercentage(row.CashFlow, fin.ActualCashInvested)
		row.LoanBalance = loanBalance(fin, schedule, year*constants.MonthsPerYear)

		if balloonMonth > 0 && balloonMonth > (year-1)*constants.MonthsPerYear && balloonMonth <= year*constants.MonthsPerYear {
			row.BalloonDue = fin.BalloonPaymentAmount
		}
		result.Years = append(result.Years, row)
	}
	return result
}

// lastPaymentMonth is the final scheduled payment month, or -1 when the
// payment has no known end (leases, assumed loans, a loan with no term).
func lastPaymentMonth(fin Financing) int {
	if fin.Policy == nil {
		return -1
	}
	if fin.Principal <= 0 {
		return 0
	}
	last := fin.Policy.TermMonths
	if fin.HasBalloon && fin.Policy.BalloonMonths > 0 && (last <= 0 || fin.Policy.BalloonMonths < last) {
		last = fin.Policy.BalloonMonths
	}
	if last <= 0 && fin.MonthlyPayment > 0 {
		return -1
	}
	return last
}

func paymentsInYear(year, lastPayment int) int {
	if lastPayment < 0 {
		return constants.MonthsPerYear
	}
	start := (year - 1) * constants.MonthsPerYear
	if lastPayment <= start {
		return 0
	}
	if lastPayment >= start+constants.MonthsPerYear {
		return constants.MonthsPerYear
	}
	return lastPayment - start
}

func loanBalance(fin Financing, schedule []loans.Payment, month int) float64 {
	if fin.Policy != nil {
		return loans.BalanceAfter(schedule, fin.Principal, month)
	}
	if fin.Rule == RuleSubjectTo {
		return loans.RemainingBalance(fin.Principal, loans.MonthlyRate(fin.AnnualRate), month, fin.MonthlyPayment)
	}
	return 0
}
