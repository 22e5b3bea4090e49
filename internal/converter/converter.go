// =============================================================================
// PIXID Invoice Corrector - Correction Pipeline
// =============================================================================
//
// This module orchestrates the correction of one invoice, from the raw XML
// bytes to the corrected document and its report.
//
// CORRECTION PIPELINE:
//   1. Extract the invoice record (parser)
//   2. Detect inconsistencies (detector)
//   3. Plan the line adjustments (calculator)
//   4. Apply them to a private copy of the tree (fixer)
//   5. Serialize the corrected tree (xmlwriter)
//   6. Validate the corrected tree from scratch (validation)
//   7. Assemble the report
//
// Run wraps the pipeline for a file on disk: it writes the corrected XML and
// the report, then archives the input.
//
// CONCURRENCY:
//   A Corrector holds no per-document state. One instance may serve any
//   number of goroutines.
//
// =============================================================================

package converter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/beevik/etree"
	"github.com/rs/zerolog"

	"github.com/ginjaninja78/pixid-invoice-corrector/internal/calculator"
	"github.com/ginjaninja78/pixid-invoice-corrector/internal/config"
	"github.com/ginjaninja78/pixid-invoice-corrector/internal/detector"
	"github.com/ginjaninja78/pixid-invoice-corrector/internal/fixer"
	"github.com/ginjaninja78/pixid-invoice-corrector/internal/parser"
	"github.com/ginjaninja78/pixid-invoice-corrector/internal/types"
	"github.com/ginjaninja78/pixid-invoice-corrector/internal/validation"
	"github.com/ginjaninja78/pixid-invoice-corrector/internal/xmlwriter"
	"github.com/ginjaninja78/pixid-invoice-corrector/pkg/utils"
)

var (
	// ErrValidationFailed is returned by Run when the corrected document
	// fails a blocking check and Force is off.
	ErrValidationFailed = errors.New("corrected invoice failed validation")

	// ErrNoTimecards is returned when an invoice needs correcting but carries
	// no timesheet to correct it against.
	ErrNoTimecards = errors.New("invoice has no timecards")
)

// =============================================================================
// RESULT STRUCTURES
// =============================================================================

// Inspection is the read-only analysis of an invoice.
type Inspection struct {
	Document  *parser.Document
	Detection types.Detection
}

// Outcome is everything a correction produced.
type Outcome struct {
	Record    *types.InvoiceRecord
	Detection types.Detection

	// Skipped is set when the invoice was consistent and left untouched.
	// Adjustments, Corrected, XML and Validation are nil then.
	Skipped bool

	Adjustments *types.AdjustmentSet
	Corrected   *etree.Document
	XML         []byte
	Validation  *types.ValidationResult

	Report *Report
}

// Valid reports whether the outcome may be delivered.
func (o *Outcome) Valid() bool {
	return o.Skipped || (o.Validation != nil && o.Validation.IsValid)
}

// Result represents the outcome of processing a single file.
type Result struct {
	// FilePath is the path to the input file that was processed.
	FilePath string

	// OutputFile is the corrected XML. Empty when nothing was written.
	OutputFile string

	// ReportFile is the correction report. Empty when reports are disabled.
	ReportFile string

	// ArchivePath is where the input went after processing.
	ArchivePath string

	// Success indicates whether the processing was successful.
	Success bool

	// Error contains the error if processing failed.
	Error error

	// Outcome is nil when the pipeline did not get past extraction.
	Outcome *Outcome

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about the processing.
type ProcessingStats struct {
	// InputBytes is the size of the input file.
	InputBytes int64

	// LinesRead is the number of invoice lines extracted.
	LinesRead int

	// LinesAdjusted and LinesRemoved count the planned line actions whose
	// quantity actually changed.
	LinesAdjusted int
	LinesRemoved  int

	// ValidationErrors and ValidationWarnings count the validator findings.
	ValidationErrors   int
	ValidationWarnings int

	// ProcessingTime is the time taken to process the file.
	ProcessingTime time.Duration
}

// =============================================================================
// CORRECTOR STRUCTURE
// =============================================================================

// Corrector runs the correction pipeline.
type Corrector struct {
	config *config.MainConfig

	extractor  *parser.Extractor
	detector   *detector.Detector
	calculator *calculator.Calculator
	fixer      *fixer.Fixer
	validator  *validation.Validator
	files      *utils.FileManager

	xml    xmlwriter.GenerateOptions
	always bool

	logger zerolog.Logger
}

// New creates a Corrector. A nil cfg uses config.Default() and a nil rules
// table uses calculator.DefaultRules().
func New(cfg *config.MainConfig, rules calculator.RuleTable, logger zerolog.Logger) *Corrector {
	if cfg == nil {
		cfg = config.Default()
	}
	tol := cfg.ToleranceValues()

	xml := xmlwriter.DefaultGenerateOptions()
	xml.Indent = cfg.XML.Indent
	xml.IncludeXMLDeclaration = cfg.XML.Declaration

	files := utils.NewFileManager(cfg.InputDir, cfg.OutputDir, cfg.InputArchiveDir, cfg.OutputArchiveDir)
	files.UseTimestampSubdirs = cfg.ArchiveByDate

	return &Corrector{
		config:     cfg,
		extractor:  parser.NewExtractor(logger),
		detector:   detector.New(tol, logger),
		calculator: calculator.New(rules, logger),
		fixer:      fixer.New(logger),
		validator:  validation.NewValidatorWithOptions(validation.ValidationOptions{Tolerances: tol}, logger),
		files:      files,
		xml:        xml,
		logger:     logger,
	}
}

// SetAlways makes Correct rewrite invoices even when no inconsistency is
// detected.
func (c *Corrector) SetAlways(always bool) {
	c.always = always
}

// Files returns the file manager built from the configuration.
func (c *Corrector) Files() *utils.FileManager {
	return c.files
}

// =============================================================================
// PIPELINE
// =============================================================================

// Inspect extracts the invoice and runs detection without correcting.
func (c *Corrector) Inspect(data []byte) (*Inspection, error) {
	doc, err := c.extractor.Extract(data)
	if err != nil {
		return nil, err
	}
	return &Inspection{Document: doc, Detection: c.detector.Detect(doc.Record)}, nil
}

// Correct runs the whole pipeline on data. The only errors are structural:
// a missing invoice, an invoice without timecards, or a serialization
// failure. Validation failures are reported in the outcome.
func (c *Corrector) Correct(data []byte) (*Outcome, error) {
	insp, err := c.Inspect(data)
	if err != nil {
		return nil, err
	}
	return c.correct(insp)
}

func (c *Corrector) correct(insp *Inspection) (*Outcome, error) {
	rec := insp.Document.Record
	out := &Outcome{Record: rec, Detection: insp.Detection}
	log := c.logger.With().Str("invoice_id", rec.InvoiceID).Logger()

	if !insp.Detection.HasInconsistency && !c.always {
		log.Debug().Msg("invoice is consistent, nothing to correct")
		out.Skipped = true
		out.Report = BuildReport(out)
		return out, nil
	}

	if rec.TimecardsPosition == types.TimecardsNone {
		return out, fmt.Errorf("invoice %s: %w", rec.InvoiceID, ErrNoTimecards)
	}

	log.Debug().
		Str("type", string(insp.Detection.Type)).
		Str("message", insp.Detection.Message).
		Msg("correcting invoice")

	out.Adjustments = c.calculator.Calculate(rec)

	corrected, err := c.fixer.Fix(insp.Document.Tree, out.Adjustments)
	if err != nil {
		return out, fmt.Errorf("failed to apply corrections: %w", err)
	}
	out.Corrected = corrected

	out.XML, err = xmlwriter.GenerateWithOptions(corrected, c.xml)
	if err != nil {
		return out, err
	}

	out.Validation = c.validator.Validate(corrected)
	out.Report = BuildReport(out)

	if out.Validation.IsValid {
		log.Info().
			Str("total_ht", out.Adjustments.NewTotalCharges.StringFixed(2)).
			Str("total_ttc", out.Adjustments.NewTotalAmount.StringFixed(2)).
			Msg("invoice corrected")
	} else {
		log.Warn().Strs("errors", out.Validation.Errors).Msg("corrected invoice failed validation")
	}

	return out, nil
}

// =============================================================================
// FILE PROCESSING
// =============================================================================

// Run corrects the file at path.
//
// PROCESSING STEPS:
//   1. Read and correct the invoice
//   2. Write the report (also for refused and consistent invoices)
//   3. Refuse the output if validation failed and Force is off
//   4. Write the corrected XML
//   5. Archive the input and the output
func (c *Corrector) Run(path string) Result {
	startTime := time.Now()
	result := Result{FilePath: path}
	log := c.logger.With().Str("file", filepath.Base(path)).Logger()

	defer func() {
		result.Stats.ProcessingTime = time.Since(startTime)
	}()

	// =========================================================================
	// STEP 1: CORRECT
	// =========================================================================

	log.Info().Msg("processing file")

	if size, err := utils.GetFileSize(path); err == nil {
		result.Stats.InputBytes = size
	}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Error = fmt.Errorf("failed to read input: %w", err)
		return result
	}

	insp, err := c.Inspect(data)
	if err != nil {
		result.Error = fmt.Errorf("failed to extract invoice: %w", err)
		return result
	}

	outcome, err := c.correct(insp)
	result.Outcome = outcome
	if outcome != nil {
		result.Stats.LinesRead = len(outcome.Record.Lines)
	}
	if err != nil {
		result.Error = err
		return result
	}
	collectStats(&result.Stats, outcome)

	// =========================================================================
	// STEP 2: REPORT
	// =========================================================================

	if c.config.ReportDir != "" {
		reportPath := filepath.Join(c.config.ReportDir, utils.BaseName(path)+"_report."+c.config.ReportFormat)
		if err := WriteReportFile(reportPath, outcome.Report, c.config.ReportFormat); err != nil {
			result.Error = err
			return result
		}
		result.ReportFile = reportPath
	}

	// =========================================================================
	// STEP 3: VALIDATION GATE
	// =========================================================================

	if !outcome.Valid() && !c.config.Force {
		result.Error = fmt.Errorf("%w: %s", ErrValidationFailed, outcome.Validation.Error)
		return result
	}

	// =========================================================================
	// STEP 4: WRITE OUTPUT
	// =========================================================================

	if !outcome.Skipped {
		outputPath, err := c.writeOutput(path, outcome)
		if err != nil {
			result.Error = fmt.Errorf("failed to write output: %w", err)
			return result
		}
		result.OutputFile = outputPath
		log.Info().Str("output", outputPath).Msg("wrote corrected invoice")
	}

	// =========================================================================
	// STEP 5: ARCHIVE
	// =========================================================================

	if err := c.archiveFiles(&result); err != nil {
		log.Warn().Err(err).Msg("failed to archive files")
	}

	result.Success = true
	return result
}

// writeOutput writes the corrected XML under the configured name.
func (c *Corrector) writeOutput(inputPath string, outcome *Outcome) (string, error) {
	fileName := utils.GenerateOutputFileName(c.config.OutputNameFormat, map[string]string{
		"original": utils.BaseName(inputPath),
		"invoice":  outcome.Record.InvoiceID,
	})
	outputPath := filepath.Join(c.config.OutputDir, fileName)

	if err := os.MkdirAll(c.config.OutputDir, 0755); err != nil {
		return "", err
	}
	if err := os.WriteFile(outputPath, outcome.XML, 0644); err != nil {
		return "", err
	}
	return outputPath, nil
}

// archiveFiles moves the input to its archive and copies the output to its
// own.
func (c *Corrector) archiveFiles(result *Result) error {
	archived, err := c.files.ArchiveInputFile(result.FilePath)
	if err != nil {
		return fmt.Errorf("failed to archive input file: %w", err)
	}
	result.ArchivePath = archived

	if result.OutputFile != "" {
		if _, err := c.files.ArchiveOutputFile(result.OutputFile); err != nil {
			return fmt.Errorf("failed to archive output file: %w", err)
		}
	}
	return nil
}

func collectStats(stats *ProcessingStats, outcome *Outcome) {
	if outcome.Validation != nil {
		stats.ValidationErrors = len(outcome.Validation.Errors)
		stats.ValidationWarnings = len(outcome.Validation.Warnings)
	}
	if outcome.Adjustments == nil {
		return
	}
	for _, key := range outcome.Adjustments.Order {
		adj := outcome.Adjustments.Lines[key]
		switch {
		case adj.Action == types.ActionRemove:
			stats.LinesRemoved++
		case !adj.NewQuantity.Equal(adj.OldQuantity):
			stats.LinesAdjusted++
		}
	}
}
