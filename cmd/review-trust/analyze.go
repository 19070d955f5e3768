package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/review-trust/internal/report"
	"github.com/pdiddy/review-trust/internal/trust"
	"github.com/pdiddy/review-trust/pkg/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [reviewer-ids...]",
	Short: "Score one or more reviewers",
	Long: `Analyze scores each reviewer from their public review history. Cached
results are reused until they expire; fetches for uncached reviewers go
through the paced queue one at a time.

--verified and --vine describe the review you are judging and adjust the
displayed score and grade; the cached score is never changed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().Bool("verified", false, "the review is a verified purchase")
	analyzeCmd.Flags().Bool("vine", false, "the item came through the promotional program")
	analyzeCmd.Flags().String("format", report.FormatTable, "output format: table, json, yaml")
	analyzeCmd.Flags().Int("workers", 0, "reviewers analyzed concurrently (default from config)")

	rootCmd.AddCommand(analyzeCmd)
}

func purchaseContext(cmd *cobra.Command) types.PurchaseContext {
	verified, _ := cmd.Flags().GetBool("verified")
	vine, _ := cmd.Flags().GetBool("vine")
	return types.PurchaseContext{Verified: verified, Vine: vine}
}

func runAnalyze(cmd *cobra.Command, args []string) (err error) {
	format, _ := cmd.Flags().GetString("format")

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(a, &err)

	results := a.svc.AnalyzeAll(cmd.Context(), args)
	rows := report.Build(results, purchaseContext(cmd), a.cfg.Scoring)
	if err := report.Render(cmd.OutOrStdout(), rows, format); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return failedCount(results)
}

var refreshCmd = &cobra.Command{
	Use:   "refresh <reviewer-id>",
	Short: "Drop the cached result and analyze again",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		format, _ := cmd.Flags().GetString("format")

		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		results := []trust.Result{{ID: args[0], Outcome: a.svc.Refresh(cmd.Context(), args[0])}}
		rows := report.Build(results, purchaseContext(cmd), a.cfg.Scoring)
		if err := report.Render(cmd.OutOrStdout(), rows, format); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		return failedCount(results)
	},
}

func init() {
	refreshCmd.Flags().Bool("verified", false, "the review is a verified purchase")
	refreshCmd.Flags().Bool("vine", false, "the item came through the promotional program")
	refreshCmd.Flags().String("format", report.FormatTable, "output format: table, json, yaml")

	rootCmd.AddCommand(refreshCmd)
}
