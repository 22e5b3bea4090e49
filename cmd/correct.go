// =============================================================================
// PIXID Invoice Corrector - Correct Command
// =============================================================================
//
// This file defines the 'correct' command, which corrects a single invoice
// without touching the batch directories.
//
// COMMAND USAGE:
//   pixid-corrector correct <file> [flags]
//
// FLAGS:
//   --output, -o : Where to write the corrected XML (default: stdout)
//   --report     : Where to write the correction report (optional)
//   --always     : Rewrite the invoice even when it is consistent
//   --force      : Write the corrected XML even when validation fails
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/pixid-invoice-corrector/internal/converter"
	"github.com/ginjaninja78/pixid-invoice-corrector/internal/xmlwriter"
	"github.com/ginjaninja78/pixid-invoice-corrector/pkg/utils"
)

var (
	correctOutput string
	correctReport string
	correctAlways bool
	correctForce  bool
)

// correctCmd represents the 'correct' command.
var correctCmd = &cobra.Command{
	Use:   "correct <file>",
	Short: "Correct a single invoice",
	Long: `The correct command extracts the invoice, detects inconsistencies between
its lines and its timesheets, and writes the corrected invoice.

The corrected invoice is validated from scratch. When a blocking check fails,
nothing is written unless --force is set; the report is always written.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCorrect(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(correctCmd)

	correctCmd.Flags().StringVarP(&correctOutput, "output", "o", "", "Corrected XML path (default: stdout)")
	correctCmd.Flags().StringVar(&correctReport, "report", "", "Correction report path (.json or .yaml)")
	correctCmd.Flags().BoolVar(&correctAlways, "always", false, "Rewrite the invoice even when it is consistent")
	correctCmd.Flags().BoolVar(&correctForce, "force", false, "Write the corrected XML even when validation fails")
}

func runCorrect(cmd *cobra.Command, path string) error {
	if !utils.FileExists(path) {
		return fmt.Errorf("input file not found: %s", path)
	}

	corrector, err := newCorrector()
	if err != nil {
		return err
	}
	corrector.SetAlways(correctAlways)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	outcome, err := corrector.Correct(data)
	if err != nil {
		return err
	}

	if correctReport != "" {
		if err := converter.WriteReportFile(correctReport, outcome.Report, reportFormat(correctReport)); err != nil {
			return err
		}
	}

	if outcome.Skipped {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: invoice %s is consistent, nothing to correct\n", path, outcome.Record.InvoiceID)
		return nil
	}

	if !outcome.Valid() && !(correctForce || mainConfig.Force) {
		return fmt.Errorf("%w: %s", converter.ErrValidationFailed, outcome.Validation.Error)
	}

	if correctOutput == "" {
		_, err := cmd.OutOrStdout().Write(outcome.XML)
		return err
	}

	opts := xmlwriter.DefaultGenerateOptions()
	opts.Indent = mainConfig.XML.Indent
	opts.IncludeXMLDeclaration = mainConfig.XML.Declaration
	if err := xmlwriter.WriteFile(correctOutput, outcome.Corrected, opts); err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s -> %s (HT %s -> %s)\n",
		outcome.Record.InvoiceID, path, correctOutput,
		outcome.Record.TotalCharges.StringFixed(2),
		outcome.Adjustments.NewTotalCharges.StringFixed(2))
	return nil
}
