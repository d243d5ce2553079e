package optimizer

import (
	"math"
	"strings"
	"testing"

	"github.com/iwvelando/deal-analyzer/internal/config"
	"github.com/iwvelando/deal-analyzer/internal/deal"
	"github.com/iwvelando/deal-analyzer/pkg/output"
	"github.com/iwvelando/deal-analyzer/pkg/testutil"
	"go.uber.org/zap"
)

func floatPtr(v float64) *float64 {
	return &v
}

func TestSolveMaximumOfferForCashOnCash(t *testing.T) {
	summary, err := Solve(zap.NewNop(), testutil.RentalScenarioInput(), deal.DealTypeRental, deal.MethodConventional, config.OptimizerConfig{
		Field:  "price",
		Target: "coc",
		Floor:  floatPtr(8),
	})
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}

	if !summary.Converged {
		t.Fatalf("expected solve to converge, notes: %v", summary.Notes)
	}
	if summary.Field != config.OptimizerFieldPurchasePrice || summary.Target != config.OptimizerTargetCashOnCash {
		t.Fatalf("unexpected canonical names %s/%s", summary.Field, summary.Target)
	}
	// With LTV held at 80%, cash-on-cash falls to 8% at roughly $203,924.
	if math.Abs(summary.Value-203924.04) > 1 {
		t.Fatalf("expected maximum offer near 203924.04, got %.2f", summary.Value)
	}
	if summary.Achieved < 8 || summary.Achieved > 8.01 {
		t.Fatalf("expected achieved cash-on-cash just above 8, got %.4f", summary.Achieved)
	}
	if summary.Original != 200000 || summary.OriginalDisplay != "$200,000.00" {
		t.Fatalf("unexpected original %v (%s)", summary.Original, summary.OriginalDisplay)
	}
	if summary.FloorDisplay != "8.00%" {
		t.Fatalf("unexpected floor display %s", summary.FloorDisplay)
	}
	if summary.Iterations == 0 || summary.Iterations > 50 {
		t.Fatalf("unexpected iteration count %d", summary.Iterations)
	}
}

func TestSolveMinimumRentForDSCR(t *testing.T) {
	summary, err := Solve(zap.NewNop(), testutil.RentalScenarioInput(), deal.DealTypeRental, deal.MethodConventional, config.OptimizerConfig{
		Field:  config.OptimizerFieldMonthlyRent,
		Target: config.OptimizerTargetDSCR,
		Floor:  floatPtr(1.25),
	})
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}

	if !summary.Converged {
		t.Fatalf("expected solve to converge, notes: %v", summary.Notes)
	}
	// DSCR = 0.95 * rent / 959.28, so 1.25 needs about $1,262.21.
	if math.Abs(summary.Value-1262.21) > 0.02 {
		t.Fatalf("expected break-even rent near 1262.21, got %.2f", summary.Value)
	}
	if summary.Achieved < 1.25 {
		t.Fatalf("expected achieved DSCR of at least 1.25, got %.4f", summary.Achieved)
	}
}

func TestSolveFlipTargets(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		target   string
		floor    float64
		expected float64
	}{
		{name: "rehab budget for profit", field: "rehab", target: "profit", floor: 20000, expected: 41200},
		{name: "offer for roi", field: "purchasePrice", target: "roi", floor: 20, expected: 103500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary, err := Solve(nil, testutil.FlipScenarioInput(), deal.DealTypeFlip, deal.MethodHardMoney, config.OptimizerConfig{
				Field:  tt.field,
				Target: tt.target,
				Floor:  floatPtr(tt.floor),
			})
			if err != nil {
				t.Fatalf("Solve returned error: %v", err)
			}
			if !summary.Converged {
				t.Fatalf("expected solve to converge, notes: %v", summary.Notes)
			}
			if math.Abs(summary.Value-tt.expected) > 0.02 {
				t.Fatalf("expected %.2f, got %.2f", tt.expected, summary.Value)
			}
			if summary.Achieved < tt.floor {
				t.Fatalf("achieved %.4f is below floor %.2f", summary.Achieved, tt.floor)
			}
		})
	}
}

func TestSolveFloorHoldsAcrossRange(t *testing.T) {
	summary, err := Solve(zap.NewNop(), testutil.RentalScenarioInput(), deal.DealTypeRental, deal.MethodConventional, config.OptimizerConfig{
		Target: config.OptimizerTargetCapRate,
		Floor:  floatPtr(1),
		Min:    floatPtr(150000),
		Max:    floatPtr(250000),
	})
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}

	if !summary.Converged || summary.Iterations != 0 {
		t.Fatalf("expected immediate convergence, got converged=%v iterations=%d", summary.Converged, summary.Iterations)
	}
	if summary.Value != 250000 {
		t.Fatalf("expected the bound with the least headroom, got %.2f", summary.Value)
	}
	if math.Abs(summary.Achieved-6) > 1e-9 {
		t.Fatalf("expected a 6%% cap rate at $250,000, got %.4f", summary.Achieved)
	}
}

func TestSolveUnreachableFloor(t *testing.T) {
	summary, err := Solve(zap.NewNop(), testutil.RentalScenarioInput(), deal.DealTypeRental, deal.MethodConventional, config.OptimizerConfig{
		Target: config.OptimizerTargetCashOnCash,
		Floor:  floatPtr(100),
		Min:    floatPtr(200000),
		Max:    floatPtr(300000),
	})
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}

	if summary.Converged {
		t.Fatalf("expected solve not to converge")
	}
	if summary.Value != 200000 {
		t.Fatalf("expected the closest bound to be reported, got %.2f", summary.Value)
	}
	if len(summary.Notes) != 1 || !strings.Contains(summary.Notes[0], "unable to reach cashOnCashReturn 100.00%") {
		t.Fatalf("unexpected notes %v", summary.Notes)
	}
	if summary.Headroom >= 0 {
		t.Fatalf("expected negative headroom, got %.4f", summary.Headroom)
	}
}

func TestSolveInterestRate(t *testing.T) {
	summary, err := Solve(zap.NewNop(), testutil.RentalScenarioInput(), deal.DealTypeRental, deal.MethodConventional, config.OptimizerConfig{
		Field:  config.OptimizerFieldInterestRate,
		Target: config.OptimizerTargetCashFlow,
		Floor:  floatPtr(0),
		Max:    floatPtr(15),
	})
	if err != nil {
		t.Fatalf("Solve returned error: %v", err)
	}

	if !summary.Converged {
		t.Fatalf("expected solve to converge, notes: %v", summary.Notes)
	}
	// Cash flow is positive at 6% and negative at 15%; break-even sits between.
	if summary.Value <= 6 || summary.Value >= 15 {
		t.Fatalf("expected break-even rate between 6%% and 15%%, got %.3f", summary.Value)
	}
	if summary.Achieved < 0 || summary.Achieved > 2 {
		t.Fatalf("expected cash flow just above zero, got %.2f", summary.Achieved)
	}
	if !strings.HasSuffix(summary.ValueDisplay, "%") {
		t.Fatalf("expected a percent display, got %s", summary.ValueDisplay)
	}
}

func TestSolveRejectsInvalidDirectives(t *testing.T) {
	tests := []struct {
		name      string
		dealType  deal.DealType
		input     deal.Input
		directive config.OptimizerConfig
		wantErr   string
	}{
		{
			name:      "unsupported field",
			dealType:  deal.DealTypeRental,
			input:     testutil.RentalScenarioInput(),
			directive: config.OptimizerConfig{Field: "downPayment", Floor: floatPtr(8)},
			wantErr:   "optimizer field \"downpayment\" is not supported",
		},
		{
			name:      "unsupported target",
			dealType:  deal.DealTypeRental,
			input:     testutil.RentalScenarioInput(),
			directive: config.OptimizerConfig{Target: "irr", Floor: floatPtr(8)},
			wantErr:   "optimizer target \"irr\" is not supported",
		},
		{
			name:      "missing floor",
			dealType:  deal.DealTypeRental,
			input:     testutil.RentalScenarioInput(),
			directive: config.OptimizerConfig{},
			wantErr:   "requires a floor",
		},
		{
			name:      "flip target on rental",
			dealType:  deal.DealTypeRental,
			input:     testutil.RentalScenarioInput(),
			directive: config.OptimizerConfig{Target: "netProfit", Floor: floatPtr(1000)},
			wantErr:   "does not apply to rental deals",
		},
		{
			name:      "rent on flip",
			dealType:  deal.DealTypeFlip,
			input:     testutil.FlipScenarioInput(),
			directive: config.OptimizerConfig{Field: "rent", Target: "roi", Floor: floatPtr(10)},
			wantErr:   "does not affect flip deals",
		},
		{
			name:      "wholesale deals",
			dealType:  deal.DealTypeWholesale,
			input:     testutil.WholesaleScenarioInput(),
			directive: config.OptimizerConfig{Target: "roi", Floor: floatPtr(10)},
			wantErr:   "does not apply to wholesale deals",
		},
		{
			name:      "inverted bounds",
			dealType:  deal.DealTypeRental,
			input:     testutil.RentalScenarioInput(),
			directive: config.OptimizerConfig{Floor: floatPtr(8), Min: floatPtr(300000), Max: floatPtr(100000)},
			wantErr:   "must be less than maximum",
		},
		{
			name:      "unset field without maximum",
			dealType:  deal.DealTypeRental,
			input:     testutil.RentalScenarioInput(),
			directive: config.OptimizerConfig{Field: "rehabCost", Target: "coc", Floor: floatPtr(8)},
			wantErr:   "a maximum bound is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Solve(zap.NewNop(), tt.input, tt.dealType, deal.MethodConventional, tt.directive)
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestRunnerAppliesSummaries(t *testing.T) {
	conf := &config.Configuration{
		Deals: []config.DealConfig{
			{
				Name:           "elm",
				DealType:       "rental",
				PurchaseMethod: "conventional",
				Input:          testutil.RentalScenarioInput(),
				Optimizer:      &config.OptimizerConfig{Target: "capRate", Floor: floatPtr(7)},
			},
			{
				Name:     "oak",
				DealType: "flip",
				Input:    testutil.FlipScenarioInput(),
			},
		},
	}

	runner, err := NewRunner(zap.NewNop(), conf)
	if err != nil {
		t.Fatalf("failed to create optimizer runner: %v", err)
	}
	result, err := runner.Run()
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Empty() || len(result.Summaries["elm"]) != 1 {
		t.Fatalf("expected one summary for elm, got %v", result.Summaries)
	}

	// NOI is $15,000 a year, so a 7% cap rate allows $214,285.71.
	summary := result.Summaries["elm"][0]
	if math.Abs(summary.Value-214285.71) > 0.02 {
		t.Fatalf("expected maximum offer near 214285.71, got %.2f", summary.Value)
	}
	if summary.Deal != "elm" {
		t.Fatalf("expected deal name to be recorded, got %q", summary.Deal)
	}

	results := conf.Evaluate(zap.NewNop())
	result.Apply(results)
	if len(results[0].Optimizations) != 1 {
		t.Fatalf("expected optimizations attached to elm")
	}
	if len(results[1].Optimizations) != 0 {
		t.Fatalf("expected no optimizations on oak")
	}
	if got := deal.Normalize(conf.Deals[0].Input).PurchasePrice; got != 200000 {
		t.Fatalf("runner must not modify the configuration, purchase price is %.2f", got)
	}
}

func TestRunnerReportsInvalidDirective(t *testing.T) {
	conf := &config.Configuration{
		Deals: []config.DealConfig{{
			Name:      "elm",
			DealType:  "rental",
			Input:     testutil.RentalScenarioInput(),
			Optimizer: &config.OptimizerConfig{Target: "capRate"},
		}},
	}

	runner, err := NewRunner(nil, conf)
	if err != nil {
		t.Fatalf("failed to create optimizer runner: %v", err)
	}
	if _, err := runner.Run(); err == nil || !strings.Contains(err.Error(), "deal elm") {
		t.Fatalf("expected error naming the deal, got %v", err)
	}
}

func TestNewRunnerRequiresConfiguration(t *testing.T) {
	if _, err := NewRunner(zap.NewNop(), nil); err == nil {
		t.Fatalf("expected error for nil configuration")
	}
}

func TestResultApplyEmpty(t *testing.T) {
	results := []output.DealResult{{Name: "elm"}}
	Result{}.Apply(results)
	if results[0].Optimizations != nil {
		t.Fatalf("expected no optimizations")
	}
}
