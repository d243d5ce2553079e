// Package optimizer solves deal inputs against a metric floor: it moves one
// input field within bounds until the target metric sits just at the floor,
// e.g. the highest offer that still returns 8% cash-on-cash.
package optimizer

import (
	"fmt"
	"math"

	"github.com/iwvelando/deal-analyzer/internal/config"
	"github.com/iwvelando/deal-analyzer/internal/deal"
	"github.com/iwvelando/deal-analyzer/pkg/format"
	"github.com/iwvelando/deal-analyzer/pkg/mathutil"
	"github.com/iwvelando/deal-analyzer/pkg/optimization"
	"github.com/iwvelando/deal-analyzer/pkg/output"
	"go.uber.org/zap"
)

type Runner struct {
	logger *zap.Logger
	conf   *config.Configuration
}

type dealTarget struct {
	name      string
	input     deal.Input
	original  deal.Normalized
	dealType  deal.DealType
	method    deal.PurchaseMethod
	directive config.OptimizerConfig
	minValue  float64
	maxValue  float64
	current   float64
}

type evaluation struct {
	value     float64
	achieved  float64
	floor     float64
	supported bool
}

func (e evaluation) feasible() bool {
	return e.supported && e.achieved >= e.floor
}

func (e evaluation) headroom() float64 {
	return e.achieved - e.floor
}

// Result summarizes optimizer solves keyed by deal name.
type Result struct {
	Summaries map[string][]optimization.Summary
}

// Empty indicates whether any optimizer solves were produced.
func (r Result) Empty() bool {
	return len(r.Summaries) == 0
}

// Apply attaches optimizer summaries to the matching deal results.
func (r Result) Apply(results []output.DealResult) {
	if len(r.Summaries) == 0 {
		return
	}
	for i := range results {
		summaries, ok := r.Summaries[results[i].Name]
		if !ok {
			continue
		}
		results[i].Optimizations = append(results[i].Optimizations, summaries...)
	}
}

// NewRunner constructs a Runner for the provided configuration.
func NewRunner(logger *zap.Logger, conf *config.Configuration) (*Runner, error) {
	if conf == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{logger: logger, conf: conf}, nil
}

// Run solves every deal carrying an optimizer directive. The configuration
// is left untouched; the solved values are reported in the summaries only.
func (r *Runner) Run() (*Result, error) {
	summaries := make(map[string][]optimization.Summary)

	for _, d := range r.conf.Deals {
		if d.Optimizer == nil {
			continue
		}
		dealTypeSelector, methodSelector := d.Selectors()
		dealType, _ := deal.ParseDealType(dealTypeSelector)
		method, _ := deal.ParsePurchaseMethod(methodSelector)

		summary, err := r.Solve(d.Name, d.Input, dealType, method, *d.Optimizer)
		if err != nil {
			return nil, fmt.Errorf("deal %s: %w", d.Name, err)
		}
		summaries[d.Name] = append(summaries[d.Name], summary)
	}

	return &Result{Summaries: summaries}, nil
}

// Solve runs one directive against a single deal.
func (r *Runner) Solve(name string, in deal.Input, dealType deal.DealType, method deal.PurchaseMethod, directive config.OptimizerConfig) (optimization.Summary, error) {
	target, err := newTarget(name, in, dealType, method, directive)
	if err != nil {
		return optimization.Summary{}, err
	}

	summary := r.solve(target)
	r.logger.Info("optimizer solved deal field",
		zap.String("op", "optimizer.Solve"),
		zap.String("deal", name),
		zap.String("field", summary.Field),
		zap.String("target", summary.Target),
		zap.String("originalDisplay", summary.OriginalDisplay),
		zap.String("optimizedDisplay", summary.ValueDisplay),
		zap.Float64("floor", summary.Floor),
		zap.Float64("achieved", summary.Achieved),
		zap.Int("iterations", summary.Iterations),
		zap.Bool("converged", summary.Converged),
	)
	return summary, nil
}

// Solve is a convenience for callers without a deal file.
func Solve(logger *zap.Logger, in deal.Input, dealType deal.DealType, method deal.PurchaseMethod, directive config.OptimizerConfig) (optimization.Summary, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Runner{logger: logger}
	return r.Solve("", in, dealType, method, directive)
}

func newTarget(name string, in deal.Input, dealType deal.DealType, method deal.PurchaseMethod, directive config.OptimizerConfig) (dealTarget, error) {
	if err := directive.Validate(); err != nil {
		return dealTarget{}, err
	}

	category := dealType.Category()
	if targetCategory(directive.Target) != category {
		return dealTarget{}, fmt.Errorf("optimizer target %s does not apply to %s deals", directive.Target, dealType)
	}
	if !fieldApplies(directive.Field, category) {
		return dealTarget{}, fmt.Errorf("optimizer field %s does not affect %s deals", directive.Field, dealType)
	}

	original := deal.Normalize(in)
	current := fieldValue(original, directive.Field)
	minValue, maxValue, err := boundsForField(&directive, current)
	if err != nil {
		return dealTarget{}, err
	}

	return dealTarget{
		name:      name,
		input:     in,
		original:  original,
		dealType:  dealType,
		method:    method,
		directive: directive,
		minValue:  minValue,
		maxValue:  maxValue,
		current:   current,
	}, nil
}

func (r *Runner) solve(target dealTarget) optimization.Summary {
	cfg := target.directive
	floor := *cfg.Floor

	lowerEval := target.evaluate(target.minValue)
	upperEval := target.evaluate(target.maxValue)

	if !lowerEval.feasible() && !upperEval.feasible() {
		chasedEval := upperEval
		if lowerEval.headroom() > upperEval.headroom() {
			chasedEval = lowerEval
		}
		summary := target.summary(chasedEval, 0, false)
		summary.Notes = []string{fmt.Sprintf(
			"unable to reach %s %s within bounds %s to %s",
			cfg.Target,
			formatTarget(cfg.Target, floor),
			formatField(cfg.Field, target.minValue),
			formatField(cfg.Field, target.maxValue),
		)}
		return summary
	}

	if lowerEval.feasible() && upperEval.feasible() {
		// The floor holds across the range; take the bound that consumes
		// the most headroom.
		bestEval := upperEval
		if lowerEval.headroom() < upperEval.headroom() {
			bestEval = lowerEval
		}
		summary := target.summary(bestEval, 0, true)
		summary.Notes = []string{fmt.Sprintf("%s stays above the floor across the whole range", cfg.Target)}
		return summary
	}

	iterations := 0
	var finalEval evaluation
	lower := lowerEval.value
	upper := upperEval.value

	if lowerEval.feasible() {
		finalEval = lowerEval
		for iterations < cfg.MaxIterations && !mathutil.WithinTolerance(upper, lower, cfg.Tolerance) {
			evalMid := target.evaluate(lower + (upper-lower)/2)
			iterations++
			if evalMid.feasible() {
				finalEval = evalMid
				if evalMid.value == lower {
					break
				}
				lower = evalMid.value
			} else {
				if evalMid.value == upper {
					break
				}
				upper = evalMid.value
			}
		}
	} else {
		finalEval = upperEval
		for iterations < cfg.MaxIterations && !mathutil.WithinTolerance(upper, lower, cfg.Tolerance) {
			evalMid := target.evaluate(lower + (upper-lower)/2)
			iterations++
			if evalMid.feasible() {
				finalEval = evalMid
				if evalMid.value == upper {
					break
				}
				upper = evalMid.value
			} else {
				if evalMid.value == lower {
					break
				}
				lower = evalMid.value
			}
		}
	}

	return target.summary(finalEval, iterations, finalEval.feasible())
}

func (t dealTarget) evaluate(value float64) evaluation {
	value = clampValue(snapFieldValue(t.directive.Field, value), t.minValue, t.maxValue)
	metrics := deal.ComputeDealMetrics(t.withValue(value), t.dealType, t.method)
	achieved, ok := targetValue(metrics, t.directive.Target)
	return evaluation{
		value:     value,
		achieved:  achieved,
		floor:     *t.directive.Floor,
		supported: ok,
	}
}

func (t dealTarget) summary(eval evaluation, iterations int, converged bool) optimization.Summary {
	cfg := t.directive
	return optimization.Summary{
		Deal:            t.name,
		Field:           cfg.Field,
		Target:          cfg.Target,
		Original:        t.current,
		OriginalDisplay: formatField(cfg.Field, t.current),
		Value:           eval.value,
		ValueDisplay:    formatField(cfg.Field, eval.value),
		Floor:           eval.floor,
		FloorDisplay:    formatTarget(cfg.Target, eval.floor),
		Achieved:        eval.achieved,
		AchievedDisplay: formatTarget(cfg.Target, eval.achieved),
		Headroom:        eval.headroom(),
		Iterations:      iterations,
		Converged:       converged,
	}
}

// withValue returns a copy of the input with the solved field replaced.
// A new purchase price keeps the original loan-to-value and down payment
// share.
func (t dealTarget) withValue(value float64) deal.Input {
	in := t.input
	switch t.directive.Field {
	case config.OptimizerFieldPurchasePrice:
		in.PurchasePrice = deal.F(value)
		if t.original.PurchasePrice > 0 {
			ratio := value / t.original.PurchasePrice
			if t.original.LoanAmount > 0 {
				in.LoanAmount = deal.F(t.original.LoanAmount * ratio)
			}
			if t.original.DownPayment > 0 {
				in.DownPayment = deal.F(t.original.DownPayment * ratio)
			}
		}
	case config.OptimizerFieldMonthlyRent:
		in.MonthlyRent = deal.F(value)
	case config.OptimizerFieldInterestRate:
		in.InterestRate = deal.F(value)
	case config.OptimizerFieldRehabCost:
		in.RehabCost = deal.F(value)
	}
	return in
}

func fieldValue(n deal.Normalized, field string) float64 {
	switch field {
	case config.OptimizerFieldPurchasePrice:
		return n.PurchasePrice
	case config.OptimizerFieldMonthlyRent:
		return n.EffectiveMonthlyRent()
	case config.OptimizerFieldInterestRate:
		return n.InterestRate
	case config.OptimizerFieldRehabCost:
		return n.RehabCost
	default:
		return 0
	}
}

func fieldApplies(field string, category deal.Category) bool {
	switch category {
	case deal.CategoryRental:
		return true
	case deal.CategoryFlip:
		return field == config.OptimizerFieldPurchasePrice || field == config.OptimizerFieldRehabCost
	default:
		return false
	}
}

func targetCategory(target string) deal.Category {
	switch target {
	case config.OptimizerTargetCashOnCash, config.OptimizerTargetCapRate,
		config.OptimizerTargetDSCR, config.OptimizerTargetCashFlow:
		return deal.CategoryRental
	case config.OptimizerTargetNetProfit, config.OptimizerTargetROI:
		return deal.CategoryFlip
	default:
		return deal.CategoryUnsupported
	}
}

func targetValue(m deal.Metrics, target string) (float64, bool) {
	switch {
	case m.Rental != nil:
		switch target {
		case config.OptimizerTargetCashOnCash:
			return m.Rental.CashOnCashReturn, true
		case config.OptimizerTargetCapRate:
			return m.Rental.CapRate, true
		case config.OptimizerTargetDSCR:
			return m.Rental.DSCR, true
		case config.OptimizerTargetCashFlow:
			return m.Rental.MonthlyCashFlow, true
		}
	case m.Flip != nil:
		switch target {
		case config.OptimizerTargetNetProfit:
			return m.Flip.NetProfit, true
		case config.OptimizerTargetROI:
			return m.Flip.ROI, true
		}
	}
	return 0, false
}

// boundsForField defaults missing bounds to half and double the current
// value.
func boundsForField(cfg *config.OptimizerConfig, current float64) (float64, float64, error) {
	minValue := current / 2
	if cfg.Min != nil {
		minValue = *cfg.Min
	}

	var maxValue float64
	switch {
	case cfg.Max != nil:
		maxValue = *cfg.Max
	case current > 0:
		maxValue = current * 2
	default:
		return 0, 0, fmt.Errorf("optimizer field %s is not set; a maximum bound is required", cfg.Field)
	}

	if minValue >= maxValue {
		return 0, 0, fmt.Errorf("optimizer minimum %s must be less than maximum %s",
			formatField(cfg.Field, minValue), formatField(cfg.Field, maxValue))
	}
	return minValue, maxValue, nil
}

func snapFieldValue(field string, value float64) float64 {
	if field == config.OptimizerFieldInterestRate {
		return math.Round(value*1000) / 1000
	}
	return mathutil.Round(value)
}

func clampValue(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func formatField(field string, value float64) string {
	if field == config.OptimizerFieldInterestRate {
		return fmt.Sprintf("%.3f%%", value)
	}
	return format.Currency(value)
}

func formatTarget(target string, value float64) string {
	switch target {
	case config.OptimizerTargetDSCR:
		return format.Ratio(value)
	case config.OptimizerTargetCashFlow, config.OptimizerTargetNetProfit:
		return format.Currency(value)
	default:
		return format.Percent(value)
	}
}
