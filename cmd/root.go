// =============================================================================
// PIXID Invoice Corrector - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every other command
// is attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (pixid-corrector)
//   ├── correctCmd  (pixid-corrector correct <file>)
//   ├── processCmd  (pixid-corrector process)
//   ├── inspectCmd  (pixid-corrector inspect <file>)
//   ├── validateCmd (pixid-corrector validate <file>)
//   ├── rulesCmd    (pixid-corrector rules)
//   └── versionCmd  (pixid-corrector version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (--config, --verbose)
//   2. Loading the configuration before any subcommand runs
//   3. Setting up logging
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/pixid-invoice-corrector/internal/config"
	"github.com/ginjaninja78/pixid-invoice-corrector/internal/converter"
	"github.com/ginjaninja78/pixid-invoice-corrector/internal/logger"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file. When empty,
// config.yaml is searched in "." and "./config".
var cfgFile string

// verbose forces debug logging.
var verbose bool

// mainConfig and log are set up by loadConfig before any subcommand runs.
var (
	mainConfig *config.MainConfig
	log        zerolog.Logger
)

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "pixid-corrector",
	Short: "PIXID Invoice Corrector - Realign staffing invoices with their timesheets",
	Long: `PIXID Invoice Corrector reads PIXID staffing invoices (XML), compares the
billed lines with the timesheets (RAF) they carry, and rewrites the invoice so
that quantities, amounts, taxes and periods match what was actually worked.

Key Features:
  - Namespace-agnostic reading of PIXID invoices
  - Detection of hour, amount, month-spanning week and period mismatches
  - Data-driven line rules (YAML or XLSX)
  - Independent validation of every corrected invoice
  - Concurrent batch processing with archival and audit reports

Example Usage:
  pixid-corrector inspect invoice.xml         # Show what is wrong
  pixid-corrector correct invoice.xml -o out.xml
  pixid-corrector process                     # Correct the input directory
  pixid-corrector process --config ./my.yaml  # Use a custom configuration file`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig()
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"Path to the main configuration file (default: search config.yaml)",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}

// loadConfig loads the configuration and sets up the logger.
func loadConfig() error {
	cfg, err := config.LoadMainConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load main config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	mainConfig = cfg
	log = logger.New(cfg.LogLevel)
	return nil
}

// newCorrector builds a Corrector from the loaded configuration.
func newCorrector() (*converter.Corrector, error) {
	rules, err := mainConfig.LoadRules()
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}
	return converter.New(mainConfig, rules, log), nil
}
