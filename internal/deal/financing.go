package deal

import (
	"github.com/iwvelando/deal-analyzer/pkg/constants"
	"github.com/iwvelando/deal-analyzer/pkg/loans"
	"github.com/iwvelando/deal-analyzer/pkg/mathutil"
)

// FinancingRule names the payment rule a purchase method resolved to.
type FinancingRule string

// Payment rules.
const (
	RuleAmortizedLoan FinancingRule = "amortized_loan"
	RuleCash          FinancingRule = "cash"
	RuleSubjectTo     FinancingRule = "subject_to"
	RuleSellerNote    FinancingRule = "seller_note"
	RuleWraparound    FinancingRule = "wraparound"
	RuleEquityShare   FinancingRule = "equity_share"
	RuleLease         FinancingRule = "lease"
	RulePerformance   FinancingRule = "performance"
)

// Financing is the resolved cost of carrying a deal under one purchase method.
type Financing struct {
	Rule               FinancingRule `json:"rule"`
	MonthlyPayment     float64       `json:"monthlyPayment"`
	ActualCashInvested float64       `json:"actualCashInvested"`

	// Principal and AnnualRate describe the debt the payment services; for
	// subject-to deals that is the seller's existing loan.
	Principal  float64       `json:"principal,omitempty"`
	AnnualRate float64       `json:"annualRate,omitempty"`
	Policy     *loans.Policy `json:"policy,omitempty"`

	HasBalloon           bool    `json:"hasBalloon"`
	BalloonPaymentAmount float64 `json:"balloonPaymentAmount,omitempty"`
	BalloonTermYears     float64 `json:"balloonTermYears,omitempty"`

	ExistingMortgagePayment float64 `json:"existingMortgagePayment,omitempty"`
	WrapSpread              float64 `json:"wrapSpread,omitempty"`
	EquitySharePercentage   float64 `json:"equitySharePercentage,omitempty"`
}

// ResolveFinancing maps a purchase method onto its payment rule and returns
// the monthly payment and the cash the buyer actually puts in. Unknown
// methods price as a conventional amortized loan.
func ResolveFinancing(n Normalized, method PurchaseMethod) Financing {
	switch method {
	case MethodConventional, MethodFHA, MethodVA, MethodHardMoney:
		return amortizedLoan(n)

	case MethodCash:
		return Financing{
			Rule:               RuleCash,
			ActualCashInvested: n.PurchasePrice + n.RehabCost,
		}

	case MethodSubjectTo:
		// The wrapped loan's terms belong to the seller, so no balloon is
		// tracked here.
		return Financing{
			Rule:                    RuleSubjectTo,
			MonthlyPayment:          n.ExistingMortgagePayment,
			ActualCashInvested:      n.OptionFee + n.RehabCost,
			Principal:               n.ExistingMortgageBalance,
			AnnualRate:              n.ExistingMortgageRate,
			ExistingMortgagePayment: n.ExistingMortgagePayment,
		}

	case MethodSellerFinance, MethodContractDeed, MethodLandContract:
		return levelNote(n, RuleSellerNote)

	case MethodWraparound:
		fin := levelNote(n, RuleWraparound)
		fin.ExistingMortgagePayment = n.ExistingMortgagePayment
		fin.WrapSpread = fin.MonthlyPayment - n.ExistingMortgagePayment
		return fin

	case MethodEquitySharing:
		fin := levelNote(n, RuleEquityShare)
		fin.EquitySharePercentage = n.EquityShare
		return fin

	case MethodLeaseOption, MethodLeasePurchase:
		return Financing{
			Rule:               RuleLease,
			MonthlyPayment:     n.LeaseAmount,
			ActualCashInvested: n.OptionFee + n.RehabCost,
		}

	case MethodPerformanceMortgage:
		return Financing{
			Rule:               RulePerformance,
			MonthlyPayment:     mathutil.ApplyPercentage(n.EffectiveMonthlyRent(), n.PerformanceMetrics),
			ActualCashInvested: n.DownPayment + n.RehabCost,
		}

	case MethodMasterLease, MethodNovation, MethodTrustAcquisition, MethodHybrid, MethodOptionPurchase:
		if n.LeaseAmount > 0 {
			return Financing{
				Rule:               RuleLease,
				MonthlyPayment:     n.LeaseAmount,
				ActualCashInvested: n.DownPayment + n.RehabCost,
			}
		}
		return amortizedLoan(n)

	default:
		return amortizedLoan(n)
	}
}

// amortizedLoan prices loanAmount under the amortization policy selected by
// the balloon flag and payment type.
func amortizedLoan(n Normalized) Financing {
	policy := loans.ResolvePolicy(n.HasBalloonPayment, n.PaymentType, n.LoanTerm, n.BalloonTerm, n.AmortizationPeriod)
	rate := loans.MonthlyRate(n.InterestRate)

	fin := Financing{
		Rule:               RuleAmortizedLoan,
		MonthlyPayment:     policy.Payment(n.LoanAmount, rate),
		ActualCashInvested: n.DownPayment + n.RehabCost,
		Principal:          n.LoanAmount,
		AnnualRate:         n.InterestRate,
		Policy:             &policy,
	}
	applyBalloon(&fin, n, policy, policy.BalloonPayoff(n.LoanAmount, rate))
	return fin
}

// levelNote prices a privately carried note: a level payment over the loan
// term, optionally called early at the balloon term.
func levelNote(n Normalized, rule FinancingRule) Financing {
	rate := loans.MonthlyRate(n.InterestRate)
	termMonths := loans.YearsToMonths(n.LoanTerm)
	payment := loans.LevelPayment(n.LoanAmount, rate, termMonths)

	policy := loans.Policy{Kind: loans.PolicyStandard, TermMonths: termMonths, AmortMonths: termMonths}
	payoff := 0.0
	balloonMonths := loans.YearsToMonths(n.BalloonTerm)
	if n.HasBalloonPayment && balloonMonths > 0 && balloonMonths < termMonths {
		policy = loans.Policy{
			Kind:          loans.PolicyBalloonPrincipalInterest,
			TermMonths:    termMonths,
			AmortMonths:   termMonths,
			BalloonMonths: balloonMonths,
		}
		payoff = loans.RemainingBalance(n.LoanAmount, rate, balloonMonths, payment)
	}

	fin := Financing{
		Rule:               rule,
		MonthlyPayment:     payment,
		ActualCashInvested: n.DownPayment + n.RehabCost,
		Principal:          n.LoanAmount,
		AnnualRate:         n.InterestRate,
		Policy:             &policy,
	}
	applyBalloon(&fin, n, policy, payoff)
	return fin
}

func applyBalloon(fin *Financing, n Normalized, policy loans.Policy, payoff float64) {
	if !policy.HasBalloon() || n.LoanAmount <= 0 {
		return
	}
	// A payoff the schedule cannot price (zero rate) defers to the amount
	// stated on the note.
	if payoff <= 0 && n.BalloonAmount > 0 {
		payoff = n.BalloonAmount
	}
	fin.HasBalloon = true
	fin.BalloonPaymentAmount = payoff
	fin.BalloonTermYears = float64(policy.BalloonMonths) / constants.MonthsPerYear
}
