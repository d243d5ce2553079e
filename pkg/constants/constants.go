// Package constants provides shared constants for the deal-analyzer application.
package constants

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01

	// MaxAllowableOfferRatio is the share of ARV used by the flip 70% rule
	MaxAllowableOfferRatio = 0.70
)

// Pro-forma projection defaults, expressed in percent.
const (
	// DefaultRentGrowth is the assumed annual rent growth
	DefaultRentGrowth = 3.0

	// DefaultExpenseGrowth is the assumed annual operating expense growth
	DefaultExpenseGrowth = 2.5

	// DefaultProFormaVacancy is the vacancy assumption offered to editors
	DefaultProFormaVacancy = 7.0

	// DefaultProFormaYears is the projection horizon when none is given
	DefaultProFormaYears = 5

	// MaxProFormaYears caps the projection horizon
	MaxProFormaYears = 40
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the machine-readable JSON output format
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default deal file name
	DefaultConfigFile = "deals.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix prefixes every environment override read by the server
	EnvPrefix = "DEAL_ANALYZER_"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum upload size for YAML deal files (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024

	// DefaultShutdownTimeoutSeconds bounds graceful shutdown
	DefaultShutdownTimeoutSeconds = 10

	// DefaultServiceName is reported to the tracer provider
	DefaultServiceName = "deal-analyzer"
)
