package config

import (
	"fmt"
	"strings"
)

const (
	OptimizerFieldPurchasePrice = "purchasePrice"
	OptimizerFieldMonthlyRent   = "monthlyRent"
	OptimizerFieldInterestRate  = "interestRate"
	OptimizerFieldRehabCost     = "rehabCost"

	OptimizerKindMetricFloor = "metric_floor"

	OptimizerTargetCashOnCash = "cashOnCashReturn"
	OptimizerTargetCapRate    = "capRate"
	OptimizerTargetDSCR       = "dscr"
	OptimizerTargetCashFlow   = "monthlyCashFlow"
	OptimizerTargetNetProfit  = "netProfit"
	OptimizerTargetROI        = "roi"

	defaultToleranceAmount = 0.01
	defaultToleranceRate   = 0.001
	defaultMaxIterations   = 50
)

// OptimizerConfig defines a single-parameter solve: move Field within
// [Min, Max] until Target sits just at Floor.
type OptimizerConfig struct {
	Field         string   `json:"field,omitempty" yaml:"field,omitempty" mapstructure:"field"`
	Kind          string   `json:"kind,omitempty" yaml:"kind,omitempty" mapstructure:"kind"`
	Target        string   `json:"target,omitempty" yaml:"target,omitempty" mapstructure:"target"`
	Floor         *float64 `json:"floor,omitempty" yaml:"floor,omitempty" mapstructure:"floor"`
	Min           *float64 `json:"min,omitempty" yaml:"min,omitempty" mapstructure:"min"`
	Max           *float64 `json:"max,omitempty" yaml:"max,omitempty" mapstructure:"max"`
	Tolerance     float64  `json:"tolerance,omitempty" yaml:"tolerance,omitempty" mapstructure:"tolerance"`
	MaxIterations int      `json:"maxIterations,omitempty" yaml:"maxIterations,omitempty" mapstructure:"maxIterations"`
}

func optimizerKey(value string) string {
	return strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.ToLower(strings.TrimSpace(value)))
}

// CanonicalOptimizerField returns the canonical identifier for an optimizer field.
func CanonicalOptimizerField(value string) string {
	switch key := optimizerKey(value); key {
	case "", "purchaseprice", "price", "offer":
		return OptimizerFieldPurchasePrice
	case "monthlyrent", "rent":
		return OptimizerFieldMonthlyRent
	case "interestrate", "rate":
		return OptimizerFieldInterestRate
	case "rehabcost", "rehab":
		return OptimizerFieldRehabCost
	default:
		return key
	}
}

// CanonicalOptimizerTarget returns the canonical identifier for an optimizer target.
func CanonicalOptimizerTarget(value string) string {
	switch key := optimizerKey(value); key {
	case "", "cashoncashreturn", "cashoncash", "coc":
		return OptimizerTargetCashOnCash
	case "caprate":
		return OptimizerTargetCapRate
	case "dscr":
		return OptimizerTargetDSCR
	case "monthlycashflow", "cashflow":
		return OptimizerTargetCashFlow
	case "netprofit", "profit":
		return OptimizerTargetNetProfit
	case "roi":
		return OptimizerTargetROI
	default:
		return key
	}
}

// Normalize ensures defaults and canonical values are applied before validation.
func (o *OptimizerConfig) Normalize() {
	if o == nil {
		return
	}
	o.Field = CanonicalOptimizerField(o.Field)
	o.Target = CanonicalOptimizerTarget(o.Target)

	o.Kind = strings.ToLower(strings.TrimSpace(o.Kind))
	if o.Kind == "" {
		o.Kind = OptimizerKindMetricFloor
	}

	if o.Tolerance <= 0 {
		if o.Field == OptimizerFieldInterestRate {
			o.Tolerance = defaultToleranceRate
		} else {
			o.Tolerance = defaultToleranceAmount
		}
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = defaultMaxIterations
	}
}

// Validate returns an error when the optimizer configuration is unsupported.
func (o *OptimizerConfig) Validate() error {
	if o == nil {
		return fmt.Errorf("optimizer configuration cannot be nil")
	}

	o.Normalize()

	switch o.Field {
	case OptimizerFieldPurchasePrice, OptimizerFieldMonthlyRent, OptimizerFieldInterestRate, OptimizerFieldRehabCost:
	default:
		return fmt.Errorf("optimizer field %q is not supported", o.Field)
	}
	if o.Kind != OptimizerKindMetricFloor {
		return fmt.Errorf("optimizer kind %q is not supported", o.Kind)
	}
	switch o.Target {
	case OptimizerTargetCashOnCash, OptimizerTargetCapRate, OptimizerTargetDSCR,
		OptimizerTargetCashFlow, OptimizerTargetNetProfit, OptimizerTargetROI:
	default:
		return fmt.Errorf("optimizer target %q is not supported", o.Target)
	}
	if o.Floor == nil {
		return fmt.Errorf("optimizer target %s requires a floor", o.Target)
	}

	if o.Min != nil && *o.Min < 0 {
		return fmt.Errorf("optimizer minimum %.2f must not be negative", *o.Min)
	}
	if o.Min != nil && o.Max != nil && *o.Min >= *o.Max {
		return fmt.Errorf("optimizer minimum %.2f must be less than maximum %.2f", *o.Min, *o.Max)
	}
	return nil
}
