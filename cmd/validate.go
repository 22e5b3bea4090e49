// =============================================================================
// PIXID Invoice Corrector - Validate Command
// =============================================================================
//
// This file defines the 'validate' command, which runs the validation checks
// on any invoice, typically one corrected earlier or by hand.
//
// COMMAND USAGE:
//   pixid-corrector validate <file> [--strict] [--format text|json|yaml]
//
// EXIT STATUS:
//   Non-zero when a blocking check fails (or any warning, with --strict).
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/pixid-invoice-corrector/internal/converter"
	"github.com/ginjaninja78/pixid-invoice-corrector/internal/types"
	"github.com/ginjaninja78/pixid-invoice-corrector/internal/validation"
	"github.com/ginjaninja78/pixid-invoice-corrector/internal/xmltree"
)

var (
	validateStrict bool
	validateFormat string
)

// validateCmd represents the 'validate' command.
var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check the totals, taxes and periods of an invoice",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(cmd.OutOrStdout(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "Treat period warnings as errors")
	validateCmd.Flags().StringVarP(&validateFormat, "format", "f", "text", "Output format: text, json or yaml")
}

func runValidate(w io.Writer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	tree, err := xmltree.Parse(data)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	validator := validation.NewValidatorWithOptions(validation.ValidationOptions{
		Tolerances:            mainConfig.ToleranceValues(),
		TreatWarningsAsErrors: validateStrict,
	}, log)
	result := validator.Validate(tree)

	if validateFormat != "text" {
		if err := writeStructured(w, result, validateFormat); err != nil {
			return err
		}
	} else {
		printValidation(w, result)
	}

	if !result.IsValid {
		return fmt.Errorf("%w: %s", converter.ErrValidationFailed, result.Error)
	}
	return nil
}

func printValidation(w io.Writer, result *types.ValidationResult) {
	checks := []struct {
		name string
		ok   bool
	}{
		{validation.CheckRAFEqualsLines, result.RAFEqualsLines},
		{validation.CheckLinesEqualTotal, result.LinesEqualTotal},
		{validation.CheckTaxCorrect, result.TaxCorrect},
		{validation.CheckMandatoryFields, result.MandatoryFields},
		{validation.CheckPeriodConsistent, result.PeriodConsistent},
	}
	for _, c := range checks {
		mark := "ok"
		if !c.ok {
			mark = "FAILED"
		}
		fmt.Fprintf(w, "%-18s %s\n", c.name, mark)
	}
	for _, e := range result.Errors {
		fmt.Fprintf(w, "error:   %s\n", e)
	}
	for _, warn := range result.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warn)
	}
}
