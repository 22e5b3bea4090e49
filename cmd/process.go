// =============================================================================
// PIXID Invoice Corrector - Process Command
// =============================================================================
//
// This file defines the 'process' command, which corrects every invoice of
// the input directory.
//
// COMMAND USAGE:
//   pixid-corrector process [flags]
//
// FLAGS:
//   --dry-run : Inspect the files without writing or archiving anything
//   --file    : Process only this file instead of scanning the input directory
//
// PROCESSING PIPELINE:
//   1. Load the configuration and the rule table
//   2. Discover the invoices of the input directory
//   3. For each file (concurrently, at most max_concurrency at once):
//      a. Extract and detect
//      b. Calculate, fix and validate
//      c. Write the corrected XML and its report
//      d. Archive the input
//   4. Write the summary and error logs
//   5. Purge old archives
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/pixid-invoice-corrector/internal/converter"
	"github.com/ginjaninja78/pixid-invoice-corrector/internal/parser"
	"github.com/ginjaninja78/pixid-invoice-corrector/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// dryRun inspects without writing output files.
var dryRun bool

// filePath restricts the run to one file.
var filePath string

// errSkipped marks files left alone after an earlier failure when
// continue_on_error is off.
var errSkipped = errors.New("skipped after an earlier failure")

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

// processCmd represents the 'process' command.
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Correct every invoice of the input directory",
	Long: `The process command scans the input directory for invoices and corrects
them concurrently. Each file is processed independently.

On success:
  - The corrected XML is placed in the output directory
  - The report is placed in the report directory
  - The original invoice is moved to the input archive

Consistent invoices get a report and are archived without output.

On error:
  - An error log is created in the log directory
  - The original invoice remains in the input directory
  - Processing continues for other files unless continue_on_error is off`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess()
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().BoolVar(
		&dryRun,
		"dry-run",
		false,
		"Inspect the files without writing or archiving anything",
	)

	processCmd.Flags().StringVar(
		&filePath,
		"file",
		"",
		"Process only this file",
	)
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runProcess() error {
	startTime := time.Now()

	// =========================================================================
	// STEP 1: SET UP
	// =========================================================================

	corrector, err := newCorrector()
	if err != nil {
		return err
	}

	if !dryRun {
		if err := mainConfig.EnsureDirectories(); err != nil {
			return err
		}
	}

	// =========================================================================
	// STEP 2: DISCOVER INPUT FILES
	// =========================================================================

	inputFiles, err := discoverInputFiles(corrector.Files())
	if err != nil {
		return fmt.Errorf("failed to discover input files: %w", err)
	}

	if len(inputFiles) == 0 {
		log.Info().Str("dir", mainConfig.InputDir).Str("pattern", mainConfig.InputPattern).Msg("no invoices to process")
		return nil
	}

	log.Info().Int("files", len(inputFiles)).Int("workers", mainConfig.MaxConcurrency).Msg("processing invoices")

	if dryRun {
		return inspectAll(corrector, inputFiles)
	}

	// =========================================================================
	// STEP 3: PROCESS FILES CONCURRENTLY
	// =========================================================================
	// One goroutine per file, gated by a semaphore of max_concurrency slots.

	var wg sync.WaitGroup
	var failed atomic.Bool
	sem := make(chan struct{}, mainConfig.MaxConcurrency)
	results := make(chan converter.Result, len(inputFiles))

	for _, file := range inputFiles {
		wg.Add(1)

		go func(path string) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			if failed.Load() && !mainConfig.ContinueOnError {
				results <- converter.Result{FilePath: path, Error: errSkipped}
				return
			}

			result := corrector.Run(path)
			if !result.Success {
				failed.Store(true)
			}
			results <- result
		}(file)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	// =========================================================================
	// STEP 4: COLLECT RESULTS
	// =========================================================================

	var collected []converter.Result
	for result := range results {
		collected = append(collected, result)
	}
	sort.Slice(collected, func(i, j int) bool {
		return collected[i].FilePath < collected[j].FilePath
	})

	summary := utils.ProcessingSummary{StartTime: startTime, TotalFiles: len(inputFiles)}
	var errorEntries []utils.ErrorLogEntry

	for _, result := range collected {
		name := filepath.Base(result.FilePath)

		if !result.Success {
			summary.FailedFiles++
			summary.FailedFilesList = append(summary.FailedFilesList, utils.FailedFileInfo{
				InputFile:    result.FilePath,
				ErrorMessage: result.Error.Error(),
				ErrorType:    errorType(result.Error),
			})
			errorEntries = append(errorEntries, errorEntry(result))
			log.Error().Str("file", name).Err(result.Error).Msg("failed")
			continue
		}

		outcome := result.Outcome
		info := utils.ProcessedFileInfo{
			InputFile:   result.FilePath,
			OutputFile:  result.OutputFile,
			ReportFile:  result.ReportFile,
			InvoiceID:   outcome.Record.InvoiceID,
			Detection:   "consistent",
			TotalBefore: outcome.Record.TotalCharges.StringFixed(2),
			ProcessTime: result.Stats.ProcessingTime,
		}
		if outcome.Detection.HasInconsistency {
			info.Detection = string(outcome.Detection.Type)
		}
		if outcome.Skipped {
			summary.ConsistentFiles++
		} else {
			summary.CorrectedFiles++
			info.TotalAfter = outcome.Adjustments.NewTotalCharges.StringFixed(2)
		}
		summary.AdjustedLines += result.Stats.LinesAdjusted
		summary.RemovedLines += result.Stats.LinesRemoved
		summary.ProcessedFiles = append(summary.ProcessedFiles, info)

		log.Info().Str("file", name).Str("output", result.OutputFile).Str("detection", info.Detection).Msg("done")
	}
	summary.EndTime = time.Now()

	// =========================================================================
	// STEP 5: LOGS AND RETENTION
	// =========================================================================

	if summaryPath, err := utils.WriteSummaryLog(summary, mainConfig.LogDir); err != nil {
		log.Warn().Err(err).Msg("failed to write summary log")
	} else {
		log.Info().Str("path", summaryPath).Msg("wrote summary log")
	}

	if logPath, err := utils.WriteErrorLog(errorEntries, mainConfig.LogDir); err != nil {
		log.Warn().Err(err).Msg("failed to write error log")
	} else if logPath != "" {
		log.Info().Str("path", logPath).Msg("wrote error log")
	}

	if days := mainConfig.ArchiveRetentionDays; days > 0 {
		maxAge := time.Duration(days) * 24 * time.Hour
		for _, dir := range []string{mainConfig.InputArchiveDir, mainConfig.OutputArchiveDir} {
			removed, err := utils.CleanOldArchives(dir, maxAge)
			if err != nil {
				log.Warn().Err(err).Str("dir", dir).Msg("failed to clean archives")
				continue
			}
			if removed > 0 {
				log.Info().Str("dir", dir).Int("removed", removed).Msg("purged old archives")
			}
		}
	}

	fmt.Println("\n=== Processing Complete ===")
	fmt.Printf("Total files:     %d\n", summary.TotalFiles)
	fmt.Printf("Corrected:       %d\n", summary.CorrectedFiles)
	fmt.Printf("Consistent:      %d\n", summary.ConsistentFiles)
	fmt.Printf("Errors:          %d\n", summary.FailedFiles)
	fmt.Printf("Time elapsed:    %s\n", summary.EndTime.Sub(startTime))

	if summary.FailedFiles > 0 {
		return fmt.Errorf("%d of %d file(s) failed", summary.FailedFiles, summary.TotalFiles)
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func discoverInputFiles(files *utils.FileManager) ([]string, error) {
	if filePath != "" {
		if !utils.FileExists(filePath) {
			return nil, fmt.Errorf("input file not found: %s", filePath)
		}
		return []string{filePath}, nil
	}
	if mainConfig.Recursive {
		return files.DiscoverInputFilesRecursive(mainConfig.InputPattern)
	}
	return files.DiscoverInputFiles(mainConfig.InputPattern)
}

// inspectAll runs detection on every file, sequentially, and prints one line
// per file.
func inspectAll(corrector *converter.Corrector, files []string) error {
	for _, path := range files {
		name := filepath.Base(path)

		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Printf("  ✗ %s: %v\n", name, err)
			continue
		}

		insp, err := corrector.Inspect(data)
		if err != nil {
			fmt.Printf("  ✗ %s: %v\n", name, err)
			continue
		}

		if insp.Detection.HasInconsistency {
			fmt.Printf("  ! %s (%s): %s\n", name, insp.Document.Record.InvoiceID, insp.Detection.Message)
		} else {
			fmt.Printf("  ✓ %s (%s): consistent\n", name, insp.Document.Record.InvoiceID)
		}
	}
	return nil
}

func errorType(err error) string {
	var structErr *parser.DocumentStructureError
	switch {
	case errors.Is(err, errSkipped):
		return "skipped"
	case errors.Is(err, converter.ErrValidationFailed):
		return "validation"
	case errors.Is(err, converter.ErrNoTimecards):
		return "timecards"
	case errors.As(err, &structErr):
		return "structure"
	default:
		return "io"
	}
}

func errorEntry(result converter.Result) utils.ErrorLogEntry {
	entry := utils.ErrorLogEntry{
		Timestamp:    time.Now(),
		FileName:     result.FilePath,
		ErrorType:    errorType(result.Error),
		ErrorMessage: result.Error.Error(),
	}
	if result.Outcome != nil {
		entry.InvoiceID = result.Outcome.Record.InvoiceID
		if result.Outcome.Validation != nil {
			entry.ValidationErrors = result.Outcome.Validation.Errors
		}
	}
	return entry
}
