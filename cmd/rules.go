// =============================================================================
// PIXID Invoice Corrector - Rules Command
// =============================================================================
//
// This file defines the 'rules' command, which prints the effective line
// rule table or exports it as a starting point for a custom one.
//
// COMMAND USAGE:
//   pixid-corrector rules                      # Print as YAML
//   pixid-corrector rules --export rules.xlsx  # Export as a workbook
//   pixid-corrector rules --export rules.yaml  # Export as YAML
//   pixid-corrector rules --match "Panier"     # Show the rule a line gets
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/pixid-invoice-corrector/internal/config"
	"github.com/ginjaninja78/pixid-invoice-corrector/internal/xlsxparser"
)

var (
	rulesExport string
	rulesMatch  string
)

// rulesCmd represents the 'rules' command.
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Print or export the line rule table",
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := mainConfig.LoadRules()
		if err != nil {
			return fmt.Errorf("failed to load rules: %w", err)
		}

		if rulesMatch != "" {
			rule := table.Match(rulesMatch)
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (%s)\n", rulesMatch, rule.Name, rule.Strategy)
			return nil
		}

		if rulesExport != "" {
			switch strings.ToLower(filepath.Ext(rulesExport)) {
			case ".xlsx":
				if err := xlsxparser.WriteRules(rulesExport, table); err != nil {
					return err
				}
			case ".yaml", ".yml":
				data, err := config.MarshalRules(table)
				if err != nil {
					return err
				}
				if err := os.WriteFile(rulesExport, data, 0644); err != nil {
					return fmt.Errorf("failed to write %s: %w", rulesExport, err)
				}
			default:
				return fmt.Errorf("unsupported export file %s: expected .yaml, .yml or .xlsx", rulesExport)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d rule(s) to %s\n", len(table), rulesExport)
			return nil
		}

		data, err := config.MarshalRules(table)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.Flags().StringVar(&rulesExport, "export", "", "Write the table to a .yaml or .xlsx file")
	rulesCmd.Flags().StringVar(&rulesMatch, "match", "", "Show which rule a line description matches")
}
