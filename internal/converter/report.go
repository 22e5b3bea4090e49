package converter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/pixid-invoice-corrector/internal/types"
)

// Report statuses.
const (
	StatusCorrected  = "corrected"
	StatusConsistent = "consistent"
	StatusRejected   = "rejected"
)

// Report is the audit record of one correction.
type Report struct {
	ID        string    `json:"id" yaml:"id"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	InvoiceID string    `json:"invoice_id" yaml:"invoice_id"`
	Status    string    `json:"status" yaml:"status"`

	Original  Summary  `json:"original" yaml:"original"`
	Corrected *Summary `json:"corrected,omitempty" yaml:"corrected,omitempty"`

	Detection   types.Detection         `json:"detection" yaml:"detection"`
	Validation  *types.ValidationResult `json:"validation,omitempty" yaml:"validation,omitempty"`
	Adjustments *AdjustmentReport       `json:"adjustments,omitempty" yaml:"adjustments,omitempty"`
}

// Number renders a decimal as a bare JSON or YAML number.
type Number decimal.Decimal

func (n Number) String() string {
	return decimal.Decimal(n).String()
}

func (n Number) MarshalJSON() ([]byte, error) {
	return []byte(n.String()), nil
}

func (n Number) MarshalYAML() (interface{}, error) {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: n.String()}, nil
}

// AdjustmentReport is the correction plan as reported, lines in document
// order.
type AdjustmentReport struct {
	TargetPeriodStart string `json:"target_period_start" yaml:"target_period_start"`
	TargetPeriodEnd   string `json:"target_period_end" yaml:"target_period_end"`
	TargetHours       Number `json:"target_hours" yaml:"target_hours"`
	Ratio             Number `json:"ratio" yaml:"ratio"`

	Lines []LineReport `json:"lines" yaml:"lines"`

	NewTotalCharges Number `json:"new_total_charges" yaml:"new_total_charges"`
	NewTotalTax     Number `json:"new_total_tax" yaml:"new_total_tax"`
	NewTotalAmount  Number `json:"new_total_amount" yaml:"new_total_amount"`

	Reconciled *ReconciliationReport `json:"reconciled,omitempty" yaml:"reconciled,omitempty"`
}

// LineReport is the plan of one line.
type LineReport struct {
	Line        string       `json:"line" yaml:"line"`
	Rule        string       `json:"rule" yaml:"rule"`
	Action      types.Action `json:"action" yaml:"action"`
	OldQuantity Number       `json:"old_quantity" yaml:"old_quantity"`
	NewQuantity Number       `json:"new_quantity" yaml:"new_quantity"`
	UnitPrice   Number       `json:"unit_price" yaml:"unit_price"`
	OldAmount   Number       `json:"old_amount" yaml:"old_amount"`
	NewAmount   Number       `json:"new_amount" yaml:"new_amount"`
}

// ReconciliationReport records the cent reconciliation, if any.
type ReconciliationReport struct {
	Line       string `json:"line" yaml:"line"`
	Difference Number `json:"difference" yaml:"difference"`
	Estimate   Number `json:"raf_estimate" yaml:"raf_estimate"`
}

// Summary is the before or after view of an invoice.
type Summary struct {
	Period   string  `json:"period" yaml:"period"`
	Hours    float64 `json:"hours" yaml:"hours"`
	TotalHT  float64 `json:"total_ht" yaml:"total_ht"`
	TotalTTC float64 `json:"total_ttc" yaml:"total_ttc"`
}

// BuildReport assembles the report of an outcome.
func BuildReport(out *Outcome) *Report {
	rec := out.Record
	report := &Report{
		ID:        uuid.New().String(),
		Timestamp: time.Now(),
		InvoiceID: rec.InvoiceID,
		Original: Summary{
			Period:   formatPeriod(rec.PeriodStart, rec.PeriodEnd),
			Hours:    rec.InvoiceHours.InexactFloat64(),
			TotalHT:  rec.TotalCharges.InexactFloat64(),
			TotalTTC: rec.TotalAmount.InexactFloat64(),
		},
		Detection:   out.Detection,
		Validation:  out.Validation,
		Adjustments: reportAdjustments(out.Adjustments),
	}

	switch {
	case out.Skipped:
		report.Status = StatusConsistent
	case out.Validation != nil && !out.Validation.IsValid:
		report.Status = StatusRejected
	default:
		report.Status = StatusCorrected
	}

	if adj := out.Adjustments; adj != nil {
		report.Corrected = &Summary{
			Period:   formatPeriod(adj.TargetPeriodStart, adj.TargetPeriodEnd),
			Hours:    adj.TargetHours.InexactFloat64(),
			TotalHT:  adj.NewTotalCharges.InexactFloat64(),
			TotalTTC: adj.NewTotalAmount.InexactFloat64(),
		}
	}

	return report
}

func reportAdjustments(set *types.AdjustmentSet) *AdjustmentReport {
	if set == nil {
		return nil
	}
	report := &AdjustmentReport{
		TargetPeriodStart: set.TargetPeriodStart,
		TargetPeriodEnd:   set.TargetPeriodEnd,
		TargetHours:       Number(set.TargetHours),
		Ratio:             Number(set.Ratio.Round(4)),
		Lines:             make([]LineReport, 0, len(set.Order)),
		NewTotalCharges:   Number(set.NewTotalCharges),
		NewTotalTax:       Number(set.NewTotalTax),
		NewTotalAmount:    Number(set.NewTotalAmount),
	}
	for _, key := range set.Order {
		adj := set.Lines[key]
		report.Lines = append(report.Lines, LineReport{
			Line:        key,
			Rule:        adj.Rule,
			Action:      adj.Action,
			OldQuantity: Number(adj.OldQuantity),
			NewQuantity: Number(adj.NewQuantity),
			UnitPrice:   Number(adj.UnitPrice),
			OldAmount:   Number(adj.OldAmount),
			NewAmount:   Number(adj.NewAmount),
		})
	}
	if r := set.Reconciled; r != nil {
		report.Reconciled = &ReconciliationReport{
			Line:       r.Line,
			Difference: Number(r.Difference),
			Estimate:   Number(r.Estimate),
		}
	}
	return report
}

func formatPeriod(start, end string) string {
	if start == "" && end == "" {
		return ""
	}
	return start + " → " + end
}

// WriteReport encodes report to w as "json" or "yaml".
func WriteReport(w io.Writer, report *Report, format string) error {
	switch strings.ToLower(format) {
	case "", "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		return nil
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported report format %q", format)
	}
}

// WriteReportFile writes report to path, creating its directory.
func WriteReportFile(path string, report *Report, format string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	defer file.Close()

	if err := WriteReport(file, report, format); err != nil {
		return err
	}
	return file.Sync()
}
