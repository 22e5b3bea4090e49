// =============================================================================
// PIXID Invoice Corrector - Inspect Command
// =============================================================================
//
// This file defines the 'inspect' command, which extracts an invoice and
// reports its inconsistencies without correcting anything.
//
// COMMAND USAGE:
//   pixid-corrector inspect <file> [--format text|json|yaml]
//
// =============================================================================

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/pixid-invoice-corrector/internal/types"
)

var inspectFormat string

// inspectCmd represents the 'inspect' command.
var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Show the extracted invoice and its inconsistencies",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInspect(cmd.OutOrStdout(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVarP(&inspectFormat, "format", "f", "text", "Output format: text, json or yaml")
}

// inspection is the printable view of an inspected invoice.
type inspection struct {
	InvoiceID      string            `json:"invoice_id" yaml:"invoice_id"`
	Timecards      string            `json:"timecards" yaml:"timecards"`
	RAFPeriod      string            `json:"raf_period" yaml:"raf_period"`
	DeclaredPeriod string            `json:"declared_period" yaml:"declared_period"`
	RAFHours       decimal.Decimal   `json:"raf_hours" yaml:"raf_hours"`
	RAFDetails     *types.Quantities `json:"raf_details" yaml:"raf_details"`
	InvoiceHours   decimal.Decimal   `json:"invoice_hours" yaml:"invoice_hours"`
	TotalCharges   decimal.Decimal   `json:"total_charges" yaml:"total_charges"`
	TotalTax       decimal.Decimal   `json:"total_tax" yaml:"total_tax"`
	TotalAmount    decimal.Decimal   `json:"total_amount" yaml:"total_amount"`
	Lines          int               `json:"lines" yaml:"lines"`
	Detection      types.Detection   `json:"detection" yaml:"detection"`
}

func runInspect(w io.Writer, path string) error {
	corrector, err := newCorrector()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	insp, err := corrector.Inspect(data)
	if err != nil {
		return err
	}

	rec := insp.Document.Record
	view := inspection{
		InvoiceID:      rec.InvoiceID,
		Timecards:      string(rec.TimecardsPosition),
		RAFPeriod:      period(rec.PeriodStart, rec.PeriodEnd),
		DeclaredPeriod: period(rec.DebPer, rec.FinPer),
		RAFHours:       rec.RAFHours,
		RAFDetails:     rec.RAFDetails,
		InvoiceHours:   rec.InvoiceHours,
		TotalCharges:   rec.TotalCharges,
		TotalTax:       rec.TotalTax,
		TotalAmount:    rec.TotalAmount,
		Lines:          len(rec.Lines),
		Detection:      insp.Detection,
	}

	if inspectFormat != "text" {
		return writeStructured(w, view, inspectFormat)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Invoice:\t%s\n", view.InvoiceID)
	fmt.Fprintf(tw, "Timecards:\t%s\n", view.Timecards)
	fmt.Fprintf(tw, "RAF period:\t%s\n", view.RAFPeriod)
	fmt.Fprintf(tw, "Declared period:\t%s\n", view.DeclaredPeriod)
	fmt.Fprintf(tw, "RAF hours:\t%s\n", view.RAFHours.StringFixed(2))
	for _, label := range rec.RAFDetails.Keys() {
		qty, _ := rec.RAFDetails.Get(label)
		fmt.Fprintf(tw, "  %s:\t%s\n", label, qty.StringFixed(2))
	}
	fmt.Fprintf(tw, "Invoice hours:\t%s\n", view.InvoiceHours.StringFixed(2))
	fmt.Fprintf(tw, "Total HT:\t%s\n", view.TotalCharges.StringFixed(2))
	fmt.Fprintf(tw, "Total TTC:\t%s\n", view.TotalAmount.StringFixed(2))
	fmt.Fprintf(tw, "Lines:\t%d\n", view.Lines)
	if insp.Detection.HasInconsistency {
		fmt.Fprintf(tw, "Detection:\t%s\n", insp.Detection.Type)
		fmt.Fprintf(tw, "\t%s\n", insp.Detection.Message)
	} else {
		fmt.Fprintf(tw, "Detection:\tconsistent\n")
	}
	return tw.Flush()
}

// =============================================================================
// OUTPUT HELPERS
// =============================================================================

func period(start, end string) string {
	if start == "" && end == "" {
		return "-"
	}
	return start + " → " + end
}

// writeStructured encodes v as "json" or "yaml".
func writeStructured(w io.Writer, v interface{}, format string) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(v)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

// reportFormat picks the report encoding from a file extension.
func reportFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}
