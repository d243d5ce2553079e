package deal

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/iwvelando/deal-analyzer/pkg/mathutil"
)

var numericNoise = strings.NewReplacer("$", "", ",", "", "_", "", " ", "")

// Float interprets the field as a number. Empty or unparseable text, NaN and
// infinities all read as 0; the calculator never rejects an input.
func (f Field) Float() float64 {
	value, _ := f.parse()
	return value
}

func (f Field) parse() (float64, bool) {
	text := strings.TrimSpace(string(f))
	if text == "" {
		return 0, false
	}
	text = strings.TrimSuffix(numericNoise.Replace(text), "%")
	// ParseFloat also reads Go hex floats, which no form means.
	if unsigned := strings.TrimLeft(text, "+-"); strings.HasPrefix(unsigned, "0x") || strings.HasPrefix(unsigned, "0X") {
		return 0, false
	}

	value, err := strconv.ParseFloat(text, 64)
	if err != nil || !mathutil.IsFinite(value) {
		return 0, false
	}
	return value, true
}

// Normalize coerces every numeric field of in to float64. Text and selector
// fields pass through unchanged. It never fails.
func Normalize(in Input) Normalized {
	return Normalized{
		Address: in.Address,

		DealType:          in.DealType,
		PurchaseMethod:    in.PurchaseMethod,
		PaymentType:       in.PaymentType,
		HasBalloonPayment: bool(in.HasBalloonPayment),

		PurchasePrice: in.PurchasePrice.Float(),
		DownPayment:   in.DownPayment.Float(),
		LoanAmount:    in.LoanAmount.Float(),
		InterestRate:  in.InterestRate.Float(),
		LoanTerm:      in.LoanTerm.Float(),

		VacancyRate:   in.VacancyRate.Float(),
		MonthlyRent:   in.MonthlyRent.Float(),
		OtherIncome:   in.OtherIncome.Float(),
		PropertyTaxes: in.PropertyTaxes.Float(),
		Insurance:     in.Insurance.Float(),
		Maintenance:   in.Maintenance.Float(),
		Capex:         in.Capex.Float(),
		Management:    in.Management.Float(),
		Utilities:     in.Utilities.Float(),
		HOA:           in.HOA.Float(),

		RehabCost:              in.RehabCost.Float(),
		HoldingCosts:           in.HoldingCosts.Float(),
		SellingCosts:           in.SellingCosts.Float(),
		ARV:                    in.ARV.Float(),
		TotalCommissionPercent: in.TotalCommissionPercent.Float(),

		ContractPrice: in.ContractPrice.Float(),
		AssignmentFee: in.AssignmentFee.Float(),

		ExistingMortgageBalance: in.ExistingMortgageBalance.Float(),
		ExistingMortgagePayment: in.ExistingMortgagePayment.Float(),
		ExistingMortgageRate:    in.ExistingMortgageRate.Float(),

		LeaseAmount:        in.LeaseAmount.Float(),
		OptionFee:          in.OptionFee.Float(),
		OptionPeriod:       in.OptionPeriod.Float(),
		RentCredit:         in.RentCredit.Float(),
		PerformanceMetrics: in.PerformanceMetrics.Float(),
		EquityShare:        in.EquityShare.Float(),

		BalloonAmount:      in.BalloonAmount.Float(),
		BalloonTerm:        in.BalloonTerm.Float(),
		AmortizationPeriod: in.AmortizationPeriod.Float(),

		Units:             in.Units.Float(),
		AvgRentPerUnit:    in.AvgRentPerUnit.Float(),
		OperatingExpenses: in.OperatingExpenses.Float(),
		NOI:               in.NOI.Float(),
	}
}

// EffectiveMonthlyRent is the scheduled rent for the whole property. When no
// rent is given it falls back to units times the average rent per unit.
func (n Normalized) EffectiveMonthlyRent() float64 {
	if n.MonthlyRent != 0 {
		return n.MonthlyRent
	}
	if n.Units > 0 && n.AvgRentPerUnit > 0 {
		return n.Units * n.AvgRentPerUnit
	}
	return 0
}

var fieldType = reflect.TypeOf(Field(""))

// UnparsedFields lists the JSON names of numeric fields holding text that
// Normalize reads as 0. Blank fields are not reported.
func (in Input) UnparsedFields() []string {
	var names []string
	v := reflect.ValueOf(in)
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).Type != fieldType {
			continue
		}
		f := v.Field(i).Interface().(Field)
		if strings.TrimSpace(string(f)) == "" || f.valid() {
			continue
		}
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		names = append(names, name)
	}
	return names
}

func (f Field) valid() bool {
	_, ok := f.parse()
	return ok
}
