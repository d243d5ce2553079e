// Package configprocessor provides shared deal processing utilities used by
// both the deal-file loader and the HTTP upload endpoint.
package configprocessor

import (
	"github.com/iwvelando/deal-analyzer/internal/deal"
	"github.com/iwvelando/deal-analyzer/pkg/output"
	"github.com/iwvelando/deal-analyzer/pkg/validation"
	"go.uber.org/zap"
)

// DealSpec represents one deal with its raw selectors.
type DealSpec struct {
	Name           string
	DealType       string
	PurchaseMethod string
	Input          deal.Input
}

// Processor handles deal validation and evaluation
type Processor struct {
	logger     *zap.Logger
	calculator *deal.Calculator
}

// NewProcessor creates a new deal processor
func NewProcessor(logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		logger:     logger,
		calculator: deal.NewCalculator(logger),
	}
}

// ValidateConfiguration validates the deals and returns warnings
func (p *Processor) ValidateConfiguration(deals []DealSpec) []string {
	validator := validation.ConfigValidator{Deals: make([]validation.DealConfig, 0, len(deals))}
	for _, d := range deals {
		validator.Deals = append(validator.Deals, validation.DealConfig{
			Name:           d.Name,
			DealType:       d.DealType,
			PurchaseMethod: d.PurchaseMethod,
			Input:          d.Input,
		})
	}

	warnings := validator.ValidateAll()
	if len(warnings) == 0 {
		return nil
	}
	return warnings
}

// Evaluate computes every deal in order. When assumptions is non-nil,
// rental-like deals also carry a pro-forma projection. Per-deal warnings are
// attached to each result.
func (p *Processor) Evaluate(deals []DealSpec, assumptions *deal.Assumptions) []output.DealResult {
	results := make([]output.DealResult, 0, len(deals))
	for _, d := range deals {
		dealType, _ := deal.ParseDealType(d.DealType)
		method, _ := deal.ParsePurchaseMethod(d.PurchaseMethod)

		result := output.DealResult{
			Name:     d.Name,
			Metrics:  p.calculator.Compute(d.Input, dealType, method),
			Warnings: validation.ValidateDeal(d.Name, d.DealType, d.PurchaseMethod, d.Input),
		}
		if assumptions != nil && dealType.Category() == deal.CategoryRental {
			projection := p.calculator.Project(d.Input, dealType, method, *assumptions)
			result.ProForma = &projection
		}
		results = append(results, result)
	}

	p.logger.Debug("evaluated deals",
		zap.String("op", "configprocessor.Evaluate"),
		zap.Int("deals", len(results)),
		zap.Bool("proForma", assumptions != nil),
	)
	return results
}
