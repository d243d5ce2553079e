package deal

import (
	"github.com/iwvelando/deal-analyzer/pkg/loans"
	"go.uber.org/zap"
)

// ComputeDealMetrics is the engine entry point. It normalizes in, resolves
// the financing for method and aggregates the metrics for dealType's
// category. Deal types without a metrics rule yield an empty record.
func ComputeDealMetrics(in Input, dealType DealType, method PurchaseMethod) Metrics {
	return compute(Normalize(in), dealType, method)
}

func compute(n Normalized, dealType DealType, method PurchaseMethod) Metrics {
	result := Metrics{
		DealType:       dealType,
		PurchaseMethod: method,
		Category:       dealType.Category(),
	}

	switch result.Category {
	case CategoryRental:
		fin := ResolveFinancing(n, method)
		result.Financing = &fin
		result.Rental = rentalMetrics(n, fin)
	case CategoryFlip:
		fin := ResolveFinancing(n, method)
		result.Financing = &fin
		result.Flip = flipMetrics(n)
	case CategoryWholesale:
		fin := ResolveFinancing(n, method)
		result.Financing = &fin
		result.Wholesale = wholesaleMetrics(n)
	}
	return result
}

// Selectors reads the deal type and purchase method carried on the input
// itself. ok is false when either selector is unknown.
func (in Input) Selectors() (DealType, PurchaseMethod, bool) {
	dealType, dealOK := ParseDealType(in.DealType)
	method, methodOK := ParsePurchaseMethod(in.PurchaseMethod)
	return dealType, method, dealOK && methodOK
}

// Calculator wraps the pure engine functions with logging. The zero value is
// not usable; construct one with NewCalculator. A Calculator holds no
// per-call state and is safe for concurrent use.
type Calculator struct {
	logger   *zap.Logger
	schedule *loans.AmortizationScheduleGenerator
}

// NewCalculator returns a Calculator logging to logger.
func NewCalculator(logger *zap.Logger) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Calculator{
		logger:   logger,
		schedule: loans.NewAmortizationScheduleGenerator(logger),
	}
}

// Compute returns the metrics for one deal.
func (c *Calculator) Compute(in Input, dealType DealType, method PurchaseMethod) Metrics {
	result := ComputeDealMetrics(in, dealType, method)
	if !result.Supported() {
		c.logger.Debug("deal type has no metrics rule",
			zap.String("op", "deal.Compute"),
			zap.String("dealType", string(dealType)),
			zap.String("purchaseMethod", string(method)),
		)
		return result
	}

	fields := []zap.Field{
		zap.String("op", "deal.Compute"),
		zap.String("dealType", string(dealType)),
		zap.String("category", string(result.Category)),
		zap.String("purchaseMethod", string(method)),
	}
	if result.Financing != nil {
		fields = append(fields,
			zap.String("rule", string(result.Financing.Rule)),
			zap.Float64("monthlyPayment", result.Financing.MonthlyPayment),
		)
	}
	c.logger.Debug("computed deal metrics", fields...)
	return result
}

// Compare computes every combination against the same input, in order.
func (c *Calculator) Compare(in Input, combinations []Combination) []Metrics {
	results := Compare(in, combinations)
	c.logger.Debug("compared deal strategies",
		zap.String("op", "deal.Compare"),
		zap.Int("combinations", len(combinations)),
	)
	return results
}

// Project returns the multi-year pro-forma for a rental-like deal.
func (c *Calculator) Project(in Input, dealType DealType, method PurchaseMethod, assumptions Assumptions) ProForma {
	n := Normalize(in)
	fin := ResolveFinancing(n, method)
	projection := project(n, dealType, fin, assumptions, c.Schedule(in, method))
	c.logger.Debug("projected deal",
		zap.String("op", "deal.Project"),
		zap.String("dealType", string(dealType)),
		zap.Int("years", len(projection.Years)),
	)
	return projection
}

// Schedule returns the amortization schedule of the loan financing a deal.
// Methods that are not backed by an amortizing loan return nil.
func (c *Calculator) Schedule(in Input, method PurchaseMethod) []loans.Payment {
	fin := ResolveFinancing(Normalize(in), method)
	if fin.Policy == nil || fin.Principal <= 0 {
		return nil
	}
	return c.schedule.GenerateSchedule(fin.Principal, loans.MonthlyRate(fin.AnnualRate), *fin.Policy)
}
