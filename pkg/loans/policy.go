package loans

import "strings"

// PolicyKind identifies how a loan is repaid.
type PolicyKind string

// Supported amortization policies.
const (
	PolicyStandard                 PolicyKind = "standard"
	PolicyInterestOnly             PolicyKind = "interest_only"
	PolicyPartialAmortization      PolicyKind = "partial_amortization"
	PolicyBalloonPrincipalInterest PolicyKind = "balloon_principal_interest"
)

// Payment type selectors accepted from deal inputs.
const (
	PaymentTypePrincipalInterest   = "principal_interest"
	PaymentTypeInterestOnly        = "interest_only"
	PaymentTypePartialAmortization = "partial_amortization"
)

// Policy is the amortization policy for a single loan. TermMonths is the
// contractual term, AmortMonths the window the payment is sized over and
// BalloonMonths the month the remaining balance falls due.
type Policy struct {
	Kind          PolicyKind `json:"kind" yaml:"kind"`
	TermMonths    int        `json:"termMonths" yaml:"termMonths"`
	AmortMonths   int        `json:"amortMonths,omitempty" yaml:"amortMonths,omitempty"`
	BalloonMonths int        `json:"balloonMonths,omitempty" yaml:"balloonMonths,omitempty"`
}

// ResolvePolicy selects an amortization policy from the balloon flag and the
// payment type selector. Year-denominated inputs are converted to months.
//
// interest_only always wins; a balloon flag with a partial-amortization
// selector (or an explicit amortization period) sizes the payment over the
// amortization window; a bare balloon flag amortizes over the loan term and
// calls the balance at the balloon month. A balloon month that reaches the
// amortization window leaves nothing due, so the loan resolves to standard.
func ResolvePolicy(hasBalloon bool, paymentType string, loanTermYears, balloonTermYears, amortizationYears float64) Policy {
	termMonths := YearsToMonths(loanTermYears)
	balloonMonths := YearsToMonths(balloonTermYears)
	if balloonMonths <= 0 {
		balloonMonths = termMonths
	}

	switch normalizePaymentType(paymentType) {
	case PaymentTypeInterestOnly:
		return Policy{Kind: PolicyInterestOnly, TermMonths: termMonths, BalloonMonths: balloonMonths}
	case PaymentTypePartialAmortization:
		if hasBalloon {
			amortMonths := YearsToMonths(amortizationYears)
			if amortMonths <= 0 {
				amortMonths = termMonths
			}
			return balloonPolicy(PolicyPartialAmortization, termMonths, amortMonths, balloonMonths)
		}
	}

	if hasBalloon {
		if amortMonths := YearsToMonths(amortizationYears); amortMonths > 0 {
			return balloonPolicy(PolicyPartialAmortization, termMonths, amortMonths, balloonMonths)
		}
		return balloonPolicy(PolicyBalloonPrincipalInterest, termMonths, termMonths, balloonMonths)
	}

	return Policy{Kind: PolicyStandard, TermMonths: termMonths, AmortMonths: termMonths}
}

func balloonPolicy(kind PolicyKind, termMonths, amortMonths, balloonMonths int) Policy {
	if balloonMonths >= amortMonths {
		return Policy{Kind: PolicyStandard, TermMonths: amortMonths, AmortMonths: amortMonths}
	}
	return Policy{Kind: kind, TermMonths: termMonths, AmortMonths: amortMonths, BalloonMonths: balloonMonths}
}

func normalizePaymentType(paymentType string) string {
	trimmed := strings.ToLower(strings.TrimSpace(paymentType))
	return strings.NewReplacer("-", "_", " ", "_").Replace(trimmed)
}

// HasBalloon reports whether the policy leaves a lump sum due before the
// balance is fully amortized.
func (p Policy) HasBalloon() bool {
	return p.Kind != PolicyStandard
}

// Payment returns the scheduled monthly payment for principal at monthlyRate.
func (p Policy) Payment(principal, monthlyRate float64) float64 {
	switch p.Kind {
	case PolicyInterestOnly:
		return InterestOnlyPayment(principal, monthlyRate)
	case PolicyPartialAmortization, PolicyBalloonPrincipalInterest:
		return LevelPayment(principal, monthlyRate, p.amortWindow())
	default:
		return LevelPayment(principal, monthlyRate, p.TermMonths)
	}
}

// BalloonPayoff returns the lump sum due at BalloonMonths. Interest-only
// loans owe the full principal; amortizing balloons owe the remaining
// balance after the scheduled payments.
func (p Policy) BalloonPayoff(principal, monthlyRate float64) float64 {
	switch p.Kind {
	case PolicyInterestOnly:
		if principal <= 0 {
			return 0
		}
		return principal
	case PolicyPartialAmortization, PolicyBalloonPrincipalInterest:
		payment := p.Payment(principal, monthlyRate)
		return RemainingBalance(principal, monthlyRate, p.BalloonMonths, payment)
	default:
		return 0
	}
}

func (p Policy) amortWindow() int {
	if p.AmortMonths > 0 {
		return p.AmortMonths
	}
	return p.TermMonths
}
