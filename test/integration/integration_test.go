package integration

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/iwvelando/deal-analyzer/internal/config"
	"github.com/iwvelando/deal-analyzer/internal/deal"
	"github.com/iwvelando/deal-analyzer/internal/optimizer"
	"github.com/iwvelando/deal-analyzer/internal/server"
	"github.com/iwvelando/deal-analyzer/pkg/constants"
	"github.com/iwvelando/deal-analyzer/pkg/output"
	"go.uber.org/zap"
)

func loadResults(t *testing.T) []output.DealResult {
	t.Helper()

	conf, err := config.LoadConfiguration("../test_config.yaml")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	return conf.Evaluate(zap.NewNop())
}

func findResult(results []output.DealResult, name string) *output.DealResult {
	for i := range results {
		if results[i].Name == name {
			return &results[i]
		}
	}
	return nil
}

// TestMainIntegrationBaseline evaluates the fixture deal file exactly as
// main() does and checks key figures against hand-computed values.
func TestMainIntegrationBaseline(t *testing.T) {
	results := loadResults(t)

	expectedDeals := []string{
		"elm street rental",
		"oak avenue flip",
		"maple wholesale",
		"birch seller carry with balloon",
		"cedar interest only",
		"strip mall",
	}
	if len(results) != len(expectedDeals) {
		t.Fatalf("Expected %d deals, got %d", len(expectedDeals), len(results))
	}
	for i, expected := range expectedDeals {
		if results[i].Name != expected {
			t.Errorf("Expected deal %s, got %s", expected, results[i].Name)
		}
	}

	baselineChecks := []struct {
		deal      string
		metric    string
		value     func(m deal.Metrics) float64
		expected  float64
		tolerance float64
	}{
		{"elm street rental", "monthlyPayment", func(m deal.Metrics) float64 { return m.Rental.MonthlyPayment }, 959.28, 0.01},
		{"elm street rental", "monthlyCashFlow", func(m deal.Metrics) float64 { return m.Rental.MonthlyCashFlow }, 290.72, 0.01},
		{"elm street rental", "capRate", func(m deal.Metrics) float64 { return m.Rental.CapRate }, 7.5, 1e-6},
		{"oak avenue flip", "netProfit", func(m deal.Metrics) float64 { return m.Flip.NetProfit }, 31200, 0.01},
		{"oak avenue flip", "maxAllowableOffer", func(m deal.Metrics) float64 { return m.Flip.MaxAllowableOffer }, 96000, 0.01},
		{"maple wholesale", "roi", func(m deal.Metrics) float64 { return m.Wholesale.ROI }, 10, 1e-9},
		{"birch seller carry with balloon", "monthlyPayment", func(m deal.Metrics) float64 { return m.Rental.MonthlyPayment }, 997.95, 0.01},
		{"birch seller carry with balloon", "balloonPaymentAmount", func(m deal.Metrics) float64 { return m.Rental.BalloonPaymentAmount }, 141197.38, 0.01},
		{"cedar interest only", "monthlyPayment", func(m deal.Metrics) float64 { return m.Rental.MonthlyPayment }, 416.67, 0.01},
		{"cedar interest only", "balloonPaymentAmount", func(m deal.Metrics) float64 { return m.Rental.BalloonPaymentAmount }, 100000, 0.01},
	}

	for _, check := range baselineChecks {
		result := findResult(results, check.deal)
		if result == nil {
			t.Errorf("Deal '%s' not found in results", check.deal)
			continue
		}
		if !result.Metrics.Supported() {
			t.Errorf("Deal '%s' has no metrics", check.deal)
			continue
		}

		actual := check.value(result.Metrics)
		if math.Abs(actual-check.expected) > check.tolerance {
			t.Errorf("Deal '%s' %s: expected %.2f, got %.2f",
				check.deal, check.metric, check.expected, actual)
		}
	}

	if mall := findResult(results, "strip mall"); mall == nil || mall.Metrics.Supported() {
		t.Errorf("commercial deal should produce no metrics")
	}
}

// TestProFormaBaseline checks the projection attached to rental-like deals.
func TestProFormaBaseline(t *testing.T) {
	results := loadResults(t)

	for _, result := range results {
		isRental := result.Metrics.Category == deal.CategoryRental
		if isRental && (result.ProForma == nil || len(result.ProForma.Years) != 10) {
			t.Errorf("Deal '%s' should carry a 10 year pro-forma", result.Name)
		}
		if !isRental && result.ProForma != nil {
			t.Errorf("Deal '%s' should not be projected", result.Name)
		}
	}

	birch := findResult(results, "birch seller carry with balloon")
	if birch == nil || birch.ProForma == nil {
		t.Fatalf("birch pro-forma missing")
	}
	year5 := birch.ProForma.Years[4]
	if math.Abs(year5.BalloonDue-141197.38) > 0.01 {
		t.Errorf("expected the balloon to fall due in year 5, got %.2f", year5.BalloonDue)
	}
	if year6 := birch.ProForma.Years[5]; year6.DebtService != 0 {
		t.Errorf("expected no debt service after the balloon payoff, got %.2f", year6.DebtService)
	}
}

// TestOptimizerBaseline runs the fixture's optimizer directives the way main()
// does and checks the solved offer.
func TestOptimizerBaseline(t *testing.T) {
	conf, err := config.LoadConfiguration("../test_config.yaml")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	results := conf.Evaluate(zap.NewNop())

	runner, err := optimizer.NewRunner(zap.NewNop(), conf)
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	solved, err := runner.Run()
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	solved.Apply(results)

	elm := findResult(results, "elm street rental")
	if elm == nil || len(elm.Optimizations) != 1 {
		t.Fatalf("expected one optimization on elm street rental")
	}
	summary := elm.Optimizations[0]
	if !summary.Converged {
		t.Fatalf("expected the offer solve to converge: %v", summary.Notes)
	}
	if math.Abs(summary.Value-203924.04) > 1 {
		t.Errorf("expected a maximum offer near 203924.04, got %.2f", summary.Value)
	}
	if summary.Achieved < 8 {
		t.Errorf("solved offer returns %.4f%%, below the 8%% floor", summary.Achieved)
	}

	for _, result := range results {
		if result.Name != elm.Name && len(result.Optimizations) != 0 {
			t.Errorf("deal '%s' has no directive but carries optimizations", result.Name)
		}
	}
}

// TestCSVOutputFormat checks the long-form CSV layout.
func TestCSVOutputFormat(t *testing.T) {
	results := loadResults(t)

	var buf bytes.Buffer
	if err := output.WriteCSV(&buf, results); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("CSV output does not parse: %v", err)
	}
	if len(records) < 2 {
		t.Fatalf("expected CSV rows, got %d records", len(records))
	}

	expectedHeader := []string{"deal", "dealType", "purchaseMethod", "metric", "value"}
	for i, part := range expectedHeader {
		if records[0][i] != part {
			t.Errorf("CSV header column %d: expected %s, got %s", i, part, records[0][i])
		}
	}

	seen := make(map[string]bool)
	for _, record := range records[1:] {
		if len(record) != len(expectedHeader) {
			t.Errorf("CSV line should have %d fields, got %d: %v", len(expectedHeader), len(record), record)
		}
		seen[record[0]] = true
	}
	for _, name := range []string{"elm street rental", "oak avenue flip", "maple wholesale"} {
		if !seen[name] {
			t.Errorf("CSV output is missing deal %s", name)
		}
	}
	if seen["strip mall"] {
		t.Errorf("unsupported deals should not produce CSV rows")
	}
}

// TestPrettyOutputFormat checks the pretty table headers and formatting.
func TestPrettyOutputFormat(t *testing.T) {
	results := loadResults(t)

	var buf bytes.Buffer
	if err := output.Write(&buf, constants.OutputFormatPretty, results); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	text := buf.String()
	for _, want := range []string{
		"--- Results for deal elm street rental (rental, conventional) ---",
		"--- Results for deal oak avenue flip (flip, hard_money) ---",
		"$290.72",
		"7.50%",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("pretty output missing %q", want)
		}
	}
}

// TestJSONOutputFormat checks that the JSON rendering round-trips the metrics.
func TestJSONOutputFormat(t *testing.T) {
	results := loadResults(t)

	var buf bytes.Buffer
	if err := output.Write(&buf, constants.OutputFormatJSON, results); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	var decoded []output.DealResult
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("JSON output does not parse: %v", err)
	}
	if len(decoded) != len(results) {
		t.Fatalf("expected %d results, got %d", len(results), len(decoded))
	}
	if decoded[0].Metrics.Rental == nil || decoded[0].Metrics.Rental.MonthlyCashFlow != results[0].Metrics.Rental.MonthlyCashFlow {
		t.Errorf("JSON output changed the rental metrics")
	}
	if len(decoded[0].Display) == 0 {
		t.Errorf("JSON output should carry display lines")
	}
}

// TestServerMatchesCLI posts the fixture rental to a live server and compares
// the answer with the deal-file path.
func TestServerMatchesCLI(t *testing.T) {
	results := loadResults(t)
	elm := findResult(results, "elm street rental")
	if elm == nil {
		t.Fatalf("elm street rental not found")
	}

	conf, err := config.LoadConfiguration("../test_config.yaml")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	payload, err := json.Marshal(map[string]interface{}{
		"dealType":       conf.Deals[0].DealType,
		"purchaseMethod": conf.Deals[0].PurchaseMethod,
		"input":          conf.Deals[0].Input,
	})
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}

	srv := httptest.NewServer(server.NewHandler(zap.NewNop(), constants.DefaultMaxUploadSizeBytes, "integration"))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/deals/metrics", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get(server.RequestIDHeader) == "" {
		t.Errorf("expected a request id header")
	}

	var body struct {
		Metrics deal.Metrics `json:"metrics"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Metrics.Rental == nil || *body.Metrics.Rental != *elm.Metrics.Rental {
		t.Errorf("server metrics %+v differ from CLI metrics %+v", body.Metrics.Rental, elm.Metrics.Rental)
	}
}

// TestConfigurationValidation checks warnings for the fixture and for
// hand-built configurations.
func TestConfigurationValidation(t *testing.T) {
	tests := []struct {
		name         string
		setupConfig  func(t *testing.T) *config.Configuration
		wantWarnings []string
	}{
		{
			name: "Fixture deal file",
			setupConfig: func(t *testing.T) *config.Configuration {
				conf, err := config.LoadConfiguration("../test_config.yaml")
				if err != nil {
					t.Fatalf("LoadConfiguration() error = %v", err)
				}
				return conf
			},
			wantWarnings: []string{"Deal 'strip mall' deal type 'commercial' has no metrics rule"},
		},
		{
			name: "Empty configuration",
			setupConfig: func(t *testing.T) *config.Configuration {
				return &config.Configuration{}
			},
			wantWarnings: []string{"Configuration contains no deals"},
		},
		{
			name: "Rental missing rent",
			setupConfig: func(t *testing.T) *config.Configuration {
				return &config.Configuration{Deals: []config.DealConfig{
					{Name: "vacant lot", DealType: "rental", Input: deal.Input{PurchasePrice: deal.F(50000)}},
				}}
			},
			wantWarnings: []string{"Deal 'vacant lot' has no monthly rent"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warnings := tt.setupConfig(t).ValidateConfiguration()
			joined := strings.Join(warnings, "\n")
			for _, want := range tt.wantWarnings {
				if !strings.Contains(joined, want) {
					t.Errorf("expected warning %q, got %v", want, warnings)
				}
			}
		})
	}
}
