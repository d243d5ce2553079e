// Package output provides utilities for formatting and displaying deal results.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/iwvelando/deal-analyzer/internal/deal"
	"github.com/iwvelando/deal-analyzer/pkg/constants"
	"github.com/iwvelando/deal-analyzer/pkg/format"
	"github.com/iwvelando/deal-analyzer/pkg/optimization"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DealResult is one named deal with its computed metrics.
type DealResult struct {
	Name     string         `json:"name"`
	Metrics  deal.Metrics   `json:"metrics"`
	Display  []Line         `json:"display,omitempty"`
	ProForma *deal.ProForma `json:"proForma,omitempty"`
	Warnings []string       `json:"warnings,omitempty"`

	Optimizations []optimization.Summary `json:"optimizations,omitempty"`
}

// Write renders results to w in the named output format.
func Write(w io.Writer, outputFormat string, results []DealResult) error {
	switch outputFormat {
	case constants.OutputFormatPretty:
		return WritePretty(w, results)
	case constants.OutputFormatCSV:
		return WriteCSV(w, results)
	case constants.OutputFormatJSON:
		return WriteJSON(w, results)
	default:
		return fmt.Errorf("unknown output format %q", outputFormat)
	}
}

// PrettyFormat outputs a human-readable rather than machine-readable table.
func PrettyFormat(results []DealResult) {
	_ = WritePretty(os.Stdout, results)
}

// CsvFormat outputs in comma-separated value format.
func CsvFormat(results []DealResult) {
	_ = WriteCSV(os.Stdout, results)
}

// WritePretty writes one table per deal, followed by its pro-forma when one
// was projected.
func WritePretty(w io.Writer, results []DealResult) error {
	p := message.NewPrinter(language.AmericanEnglish)
	for i, result := range results {
		m := result.Metrics
		if _, err := fmt.Fprintf(w, "--- Results for deal %s (%s, %s) ---\n", result.Name, m.DealType, m.PurchaseMethod); err != nil {
			return err
		}
		for _, warning := range result.Warnings {
			fmt.Fprintf(w, "warning: %s\n", warning)
		}

		lines := Display(m)
		if len(lines) == 0 {
			fmt.Fprintf(w, "No metrics rule for deal type %q\n", m.DealType)
		} else {
			fmt.Fprintf(w, "%-26s | %s\n", "Metric", "Value")
			fmt.Fprintf(w, "%-26s | %s\n", "______", "_____")
			for _, l := range lines {
				fmt.Fprintf(w, "%-26s | %s\n", l.Label, l.Value)
			}
		}

		if result.ProForma != nil && len(result.ProForma.Years) > 0 {
			a := result.ProForma.Assumptions
			_, _ = p.Fprintf(w, "\nPro-forma (rent growth %.2f%%, expense growth %.2f%%)\n", a.RentGrowth, a.ExpenseGrowth)
			fmt.Fprintf(w, "Year | %14s | %14s | %14s | %14s | %14s | %14s | %s\n",
				"Gross Rent", "NOI", "Debt Service", "Cash Flow", "Cumulative", "Loan Balance", "Balloon")
			for _, y := range result.ProForma.Years {
				balloon := ""
				if y.BalloonDue > 0 {
					balloon = format.Currency(y.BalloonDue)
				}
				fmt.Fprintf(w, "%4d | %14s | %14s | %14s | %14s | %14s | %14s | %s\n",
					y.Year,
					format.Currency(y.GrossRent),
					format.Currency(y.NetOperatingIncome),
					format.Currency(y.DebtService),
					format.Currency(y.CashFlow),
					format.Currency(y.CumulativeCashFlow),
					format.Currency(y.LoanBalance),
					balloon,
				)
			}
		}

		for _, o := range result.Optimizations {
			status := "solved"
			if !o.Converged {
				status = "not solved"
			}
			fmt.Fprintf(w, "\nOptimizer (%s): %s %s -> %s for %s >= %s (achieved %s, %d iterations)\n",
				status, o.Field, o.OriginalDisplay, o.ValueDisplay, o.Target, o.FloorDisplay, o.AchievedDisplay, o.Iterations)
			for _, note := range o.Notes {
				fmt.Fprintf(w, "  note: %s\n", note)
			}
		}

		if i < len(results)-1 {
			if _, err := fmt.Fprintf(w, "\n"); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteCSV writes one row per deal and metric.
func WriteCSV(w io.Writer, results []DealResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"deal", "dealType", "purchaseMethod", "metric", "value"}); err != nil {
		return err
	}
	for _, result := range results {
		m := result.Metrics
		for _, l := range Display(m) {
			record := []string{
				result.Name,
				string(m.DealType),
				string(m.PurchaseMethod),
				l.Key,
				strconv.FormatFloat(l.Raw, 'f', 2, 64),
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the results as an indented JSON array, display lines
// included.
func WriteJSON(w io.Writer, results []DealResult) error {
	withDisplay := make([]DealResult, len(results))
	for i, result := range results {
		result.Display = Display(result.Metrics)
		withDisplay[i] = result
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(withDisplay)
}
