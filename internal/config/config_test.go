package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iwvelando/deal-analyzer/internal/deal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfiguration(t *testing.T) {
	tests := []struct {
		name       string
		configPath string
		wantError  bool
	}{
		{
			name:       "Non-existent config file",
			configPath: "nonexistent.yaml",
			wantError:  true,
		},
		{
			name:       "Test fixture",
			configPath: "../../test/test_config.yaml",
			wantError:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := LoadConfiguration(tt.configPath)
			if tt.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, config)
		})
	}
}

func TestLoadConfigurationStructure(t *testing.T) {
	config, err := LoadConfiguration("../../test/test_config.yaml")
	require.NoError(t, err)

	assert.Equal(t, "warn", config.Logging.Level)
	assert.Equal(t, "console", config.Logging.Format)
	assert.Equal(t, "pretty", config.Output.Format)

	require.NotNil(t, config.ProForma)
	assert.Equal(t, 10, config.ProForma.Years)
	assert.Equal(t, 3.0, config.ProForma.RentGrowth)
	assert.Equal(t, 2.5, config.ProForma.ExpenseGrowth)

	require.Len(t, config.Deals, 6)

	rental := config.Deals[0]
	assert.Equal(t, "elm street rental", rental.Name)
	assert.Equal(t, "rental", rental.DealType)
	assert.Equal(t, "conventional", rental.PurchaseMethod)
	assert.Equal(t, "101 Elm Street", rental.Input.Address)
	n := deal.Normalize(rental.Input)
	assert.Equal(t, 200000.0, n.PurchasePrice)
	assert.Equal(t, 6.0, n.InterestRate)
	assert.Equal(t, 150.0, n.Management)

	flip := deal.Normalize(config.Deals[1].Input)
	assert.Equal(t, 100000.0, flip.PurchasePrice)
	assert.Equal(t, 6.0, flip.TotalCommissionPercent)

	birch := deal.Normalize(config.Deals[3].Input)
	assert.True(t, birch.HasBalloonPayment)
	assert.Equal(t, 5.0, birch.BalloonTerm)

	cedar := deal.Normalize(config.Deals[4].Input)
	assert.Equal(t, "interest_only", cedar.PaymentType)
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deals.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigurationDefaults(t *testing.T) {
	path := writeConfig(t, `
deals:
  - name: bare
    dealType: wholesale
    input:
      contractPrice: 1000
`)

	config, err := LoadConfiguration(path)
	require.NoError(t, err)

	assert.Equal(t, "info", config.Logging.Level)
	assert.Equal(t, "pretty", config.Output.Format)
	assert.Nil(t, config.ProForma)
}

func TestLoadConfigurationProFormaDefaults(t *testing.T) {
	path := writeConfig(t, `
proForma:
  rentGrowth: 0
  vacancyRate: 7
deals: []
`)

	config, err := LoadConfiguration(path)
	require.NoError(t, err)

	require.NotNil(t, config.ProForma)
	assert.Equal(t, 5, config.ProForma.Years)
	assert.Zero(t, config.ProForma.RentGrowth)
	assert.Equal(t, 2.5, config.ProForma.ExpenseGrowth)
	assert.Equal(t, 7.0, config.ProForma.VacancyRate)
}

func TestLoadConfigurationEnvOverride(t *testing.T) {
	t.Setenv("DEAL_ANALYZER_OUTPUT_FORMAT", "csv")

	config, err := LoadConfiguration("../../test/test_config.yaml")
	require.NoError(t, err)

	assert.Equal(t, "csv", config.Output.Format)
}

func TestLoadConfigurationLenientInputs(t *testing.T) {
	config, err := LoadConfigurationFromReader(strings.NewReader(`
deals:
  - name: messy
    dealType: rental
    input:
      purchasePrice: "two hundred thousand"
      monthlyRent: 1,800
      insurance: [1, 2]
      hoa:
      hasBalloonPayment: on
      interestRate: 6.25
`))
	require.NoError(t, err)
	require.Len(t, config.Deals, 1)

	in := config.Deals[0].Input
	n := deal.Normalize(in)
	assert.Zero(t, n.PurchasePrice)
	assert.Equal(t, 1800.0, n.MonthlyRent)
	assert.Zero(t, n.Insurance)
	assert.Zero(t, n.HOA)
	assert.True(t, n.HasBalloonPayment)
	assert.Equal(t, 6.25, n.InterestRate)
	assert.Equal(t, []string{"purchasePrice"}, in.UnparsedFields())
}

func TestLoadConfigurationFromReaderInvalidYAML(t *testing.T) {
	_, err := LoadConfigurationFromReader(strings.NewReader("deals: [unterminated"))
	assert.Error(t, err)
}

func TestValidateConfiguration(t *testing.T) {
	config := &Configuration{
		ProForma: &deal.Assumptions{Years: 60},
		Deals: []DealConfig{
			{Name: "", DealType: "rental", Input: deal.Input{MonthlyRent: deal.F(1000), VacancyRate: deal.F(5)}},
			{Name: "mall", DealType: "commercial"},
		},
	}

	warnings := config.ValidateConfiguration()

	joined := strings.Join(warnings, "\n")
	assert.Contains(t, joined, "Deal #1 has no name")
	assert.Contains(t, joined, "capped at 40")
	assert.Contains(t, joined, "Deal 'mall' deal type 'commercial' has no metrics rule")
}

func TestValidateConfigurationEmpty(t *testing.T) {
	config := &Configuration{}
	assert.Equal(t, []string{"Configuration contains no deals"}, config.ValidateConfiguration())
}

func TestEvaluate(t *testing.T) {
	config, err := LoadConfiguration("../../test/test_config.yaml")
	require.NoError(t, err)

	results := config.Evaluate(nil)

	require.Len(t, results, 6)
	assert.Equal(t, "elm street rental", results[0].Name)
	require.NotNil(t, results[0].Metrics.Rental)
	assert.InDelta(t, 290.72, results[0].Metrics.Rental.MonthlyCashFlow, 0.01)
	require.NotNil(t, results[0].ProForma)
	assert.Len(t, results[0].ProForma.Years, 10)

	assert.Equal(t, deal.MethodConventional, results[2].Metrics.PurchaseMethod)
	require.NotNil(t, results[2].Metrics.Wholesale)
	assert.InDelta(t, 10, results[2].Metrics.Wholesale.ROI, 1e-9)

	require.NotNil(t, results[3].Metrics.Rental)
	assert.True(t, results[3].Metrics.Rental.HasBalloon)

	assert.False(t, results[5].Metrics.Supported())
}

func TestLoadConfigurationOptimizer(t *testing.T) {
	config, err := LoadConfiguration("../../test/test_config.yaml")
	require.NoError(t, err)

	directive := config.Deals[0].Optimizer
	require.NotNil(t, directive)
	assert.Equal(t, "purchasePrice", directive.Field)
	assert.Equal(t, "cashOnCashReturn", directive.Target)
	require.NotNil(t, directive.Floor)
	assert.Equal(t, 8.0, *directive.Floor)
	assert.Nil(t, directive.Max)
	assert.Nil(t, config.Deals[1].Optimizer)
}

func TestValidateConfigurationOptimizer(t *testing.T) {
	config := &Configuration{
		Deals: []DealConfig{{
			Name:      "elm",
			DealType:  "rental",
			Input:     deal.Input{PurchasePrice: deal.F(200000), MonthlyRent: deal.F(2000), VacancyRate: deal.F(5)},
			Optimizer: &OptimizerConfig{Target: "irr"},
		}},
	}

	warnings := config.ValidateConfiguration()

	assert.Contains(t, strings.Join(warnings, "\n"), "Deal 'elm' optimizer: optimizer target \"irr\" is not supported")
	assert.Equal(t, "irr", config.Deals[0].Optimizer.Target, "validation must not rewrite the deal file")
}

func TestDealConfigSelectors(t *testing.T) {
	d := DealConfig{Input: deal.Input{DealType: "flip", PurchaseMethod: "cash"}}
	dealType, method := d.Selectors()
	assert.Equal(t, "flip", dealType)
	assert.Equal(t, "cash", method)

	d.DealType = "rental"
	d.PurchaseMethod = "fha"
	dealType, method = d.Selectors()
	assert.Equal(t, "rental", dealType)
	assert.Equal(t, "fha", method)
}
