// =============================================================================
// PIXID Invoice Corrector - Main Entry Point
// =============================================================================
//
// This is the main entry point of the PIXID Invoice Corrector CLI. It hands
// control to the Cobra commands of the cmd package.
//
// USAGE:
//   pixid-corrector correct <file>   - Correct a single invoice
//   pixid-corrector process          - Correct every invoice of the input directory
//   pixid-corrector inspect <file>   - Show the inconsistencies of an invoice
//   pixid-corrector validate <file>  - Check the totals of an invoice
//   pixid-corrector rules            - Print or export the line rule table
//   pixid-corrector version          - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : The correction pipeline (parser, detector, calculator,
//                  fixer, validation) and its support packages
//   - pkg/       : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/pixid-invoice-corrector/cmd"
)

func main() {
	cmd.Execute()
}
