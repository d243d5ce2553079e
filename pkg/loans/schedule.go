package loans

import (
	"fmt"

	"github.com/iwvelando/deal-analyzer/pkg/mathutil"
	"go.uber.org/zap"
)

// Payment holds the values for a given payment.
type Payment struct {
	Month              int     `json:"month"`
	Payment            float64 `json:"payment"`
	Principal          float64 `json:"principal"`
	Interest           float64 `json:"interest"`
	RemainingPrincipal float64 `json:"remainingPrincipal"`
	Balloon            float64 `json:"balloon,omitempty"`
}

// AmortizationScheduleGenerator provides utilities for generating loan amortization schedules
type AmortizationScheduleGenerator struct {
	logger *zap.Logger
}

// NewAmortizationScheduleGenerator creates a new generator instance
func NewAmortizationScheduleGenerator(logger *zap.Logger) *AmortizationScheduleGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AmortizationScheduleGenerator{logger: logger}
}

// GenerateSchedule produces the month-by-month breakdown of a loan under the
// given policy. The schedule ends at the balloon month (when the policy has
// one), at the end of the term, or as soon as the balance reaches zero. A
// balloon payoff is folded into the final row.
func (g *AmortizationScheduleGenerator) GenerateSchedule(principal, monthlyRate float64, policy Policy) []Payment {
	if principal <= 0 {
		return nil
	}

	months := policy.TermMonths
	if policy.HasBalloon() && policy.BalloonMonths > 0 && (months <= 0 || policy.BalloonMonths < months) {
		months = policy.BalloonMonths
	}
	if months <= 0 {
		return nil
	}

	monthlyPayment := policy.Payment(principal, monthlyRate)
	if monthlyPayment <= 0 && monthlyRate > 0 {
		return nil
	}
	if monthlyRate <= 0 {
		// No interest accrues so the principal is retired in equal parts.
		monthlyPayment = principal / float64(months)
		if policy.Kind == PolicyInterestOnly {
			monthlyPayment = 0
		}
	}

	schedule := make([]Payment, 0, months)
	remaining := principal
	for month := 1; month <= months; month++ {
		var current Payment
		current.Month = month
		current.Interest = InterestOnlyPayment(remaining, monthlyRate)
		current.Principal = monthlyPayment - current.Interest
		current.Payment = monthlyPayment
		if current.Principal > remaining {
			current.Principal = remaining
			current.Payment = current.Principal + current.Interest
		}

		if month == months || mathutil.Round(remaining-current.Principal) == 0 {
			leftover := remaining - current.Principal
			if mathutil.IsPositive(leftover) {
				current.Balloon = leftover
				current.Payment += leftover
				current.Principal += leftover
				g.logger.Debug(fmt.Sprintf("month %d: balloon payoff %.2f due", month, leftover),
					zap.String("op", "loans.GenerateSchedule"),
				)
			}
			// We will get machine error otherwise so just set to 0.
			current.RemainingPrincipal = 0
			schedule = append(schedule, current)
			break
		}

		current.RemainingPrincipal = remaining - current.Principal
		remaining = current.RemainingPrincipal
		schedule = append(schedule, current)
	}

	g.logger.Debug("generated amortization schedule",
		zap.String("op", "loans.GenerateSchedule"),
		zap.String("policy", string(policy.Kind)),
		zap.Int("months", len(schedule)),
		zap.Float64("payment", monthlyPayment),
	)
	return schedule
}

// BalanceAfter returns the remaining principal after month on a generated
// schedule, or the original principal when month precedes the schedule.
func BalanceAfter(schedule []Payment, principal float64, month int) float64 {
	if month <= 0 || len(schedule) == 0 {
		return principal
	}
	if month > len(schedule) {
		return 0
	}
	return schedule[month-1].RemainingPrincipal
}
