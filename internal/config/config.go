// Package config defines the data structures related to configuration and
// includes functions for loading and parsing deal files.
package config

import (
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/iwvelando/deal-analyzer/internal/deal"
	"github.com/iwvelando/deal-analyzer/pkg/configprocessor"
	"github.com/iwvelando/deal-analyzer/pkg/constants"
	"github.com/iwvelando/deal-analyzer/pkg/output"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Configuration holds all configuration for a deal-analyzer run.
type Configuration struct {
	Logging  LoggingConfig     `yaml:"logging,omitempty"`
	Output   OutputConfig      `yaml:"output,omitempty"`
	ProForma *deal.Assumptions `yaml:"proForma,omitempty" mapstructure:"proForma"`
	Deals    []DealConfig      `yaml:"deals"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv, json
}

// DealConfig is one named deal. DealType and PurchaseMethod take precedence
// over the selectors inside Input.
type DealConfig struct {
	Name           string           `yaml:"name"`
	DealType       string           `yaml:"dealType,omitempty" mapstructure:"dealType"`
	PurchaseMethod string           `yaml:"purchaseMethod,omitempty" mapstructure:"purchaseMethod"`
	Input          deal.Input       `yaml:"input"`
	Optimizer      *OptimizerConfig `yaml:"optimizer,omitempty" mapstructure:"optimizer"`
}

// Selectors returns the deal type and purchase method selectors, preferring
// the deal-level values over those inside Input.
func (d DealConfig) Selectors() (string, string) {
	dealTypeSelector := d.DealType
	if dealTypeSelector == "" {
		dealTypeSelector = d.Input.DealType
	}
	methodSelector := d.PurchaseMethod
	if methodSelector == "" {
		methodSelector = d.Input.PurchaseMethod
	}
	return dealTypeSelector, methodSelector
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %w", err)
	}
	return decode(v)
}

// LoadConfigurationFromReader loads a YAML-formatted configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config, %w", err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")
	v.SetEnvPrefix(strings.TrimSuffix(constants.EnvPrefix, "_"))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("output.format", constants.OutputFormatPretty)
	return v
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	hooks := viper.DecodeHook(mapstructure.DecodeHookFuncType(lenientInputHook))
	if err := v.Unmarshal(&configuration, hooks); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}

	if configuration.ProForma != nil {
		applyProFormaDefaults(v, configuration.ProForma)
	}
	return &configuration, nil
}

var (
	fieldType = reflect.TypeOf(deal.Field(""))
	flagType  = reflect.TypeOf(deal.Flag(false))
)

// lenientInputHook decodes deal inputs the way the JSON API does: any scalar
// lands in a Field, and booleans accept yes/no spellings.
func lenientInputHook(_ reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	switch to {
	case fieldType:
		return deal.FieldFrom(data), nil
	case flagType:
		return deal.FlagFrom(data), nil
	default:
		return data, nil
	}
}

// applyProFormaDefaults fills assumptions the deal file left out.
func applyProFormaDefaults(v *viper.Viper, a *deal.Assumptions) {
	defaults := deal.DefaultAssumptions()
	if !v.IsSet("proForma.years") {
		a.Years = defaults.Years
	}
	if !v.IsSet("proForma.rentGrowth") {
		a.RentGrowth = defaults.RentGrowth
	}
	if !v.IsSet("proForma.expenseGrowth") {
		a.ExpenseGrowth = defaults.ExpenseGrowth
	}
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string
	if len(c.Deals) == 0 {
		warnings = append(warnings, "Configuration contains no deals")
	}
	for i, d := range c.Deals {
		if strings.TrimSpace(d.Name) == "" {
			warnings = append(warnings, fmt.Sprintf("Deal #%d has no name", i+1))
		}
		if d.Optimizer != nil {
			directive := *d.Optimizer
			if err := directive.Validate(); err != nil {
				warnings = append(warnings, fmt.Sprintf("Deal '%s' optimizer: %v", d.Name, err))
			}
		}
	}
	if c.ProForma != nil && c.ProForma.Years > constants.MaxProFormaYears {
		warnings = append(warnings, fmt.Sprintf("Pro-forma horizon of %d years is capped at %d", c.ProForma.Years, constants.MaxProFormaYears))
	}

	processor := configprocessor.NewProcessor(nil)
	return append(warnings, processor.ValidateConfiguration(c.dealSpecs())...)
}

// Evaluate computes every configured deal, projecting rental-like deals
// when the configuration carries pro-forma assumptions.
func (c *Configuration) Evaluate(logger *zap.Logger) []output.DealResult {
	processor := configprocessor.NewProcessor(logger)
	return processor.Evaluate(c.dealSpecs(), c.ProForma)
}

func (c *Configuration) dealSpecs() []configprocessor.DealSpec {
	specs := make([]configprocessor.DealSpec, 0, len(c.Deals))
	for _, d := range c.Deals {
		dealTypeSelector, methodSelector := d.Selectors()
		specs = append(specs, configprocessor.DealSpec{
			Name:           d.Name,
			DealType:       dealTypeSelector,
			PurchaseMethod: methodSelector,
			Input:          d.Input,
		})
	}
	return specs
}
