package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and clear cached results",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List live cached results",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		entries, err := a.cache.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing cache: %w", err)
		}
		w := cmd.OutOrStdout()
		for _, e := range entries {
			detail := ""
			switch {
			case e.Analysis != nil:
				detail = fmt.Sprintf("score=%d", e.Analysis.Score.Value)
			case e.Failure != nil:
				detail = fmt.Sprintf("%s %s", e.Failure.Kind, e.Failure.Reason)
			}
			fmt.Fprintf(w, "%s\t%s\texpires %s\t%s\n", e.ID, e.Kind(), e.Expires().Format(time.RFC3339), detail)
		}
		fmt.Fprintf(w, "%d cached result(s)\n", len(entries))
		return nil
	},
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete every cached result",
	Long:  `Purge deletes all cached results. The robot-check lock is kept; use "unlock" to clear it.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		n, err := a.cache.Purge(cmd.Context())
		if err != nil {
			return fmt.Errorf("purging cache: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Purged %d cached result(s)\n", n)
		return nil
	},
}

var cacheRmCmd = &cobra.Command{
	Use:   "rm <reviewer-id>...",
	Short: "Delete cached results for specific reviewers",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		for _, id := range args {
			if err := a.cache.Remove(cmd.Context(), id); err != nil {
				return fmt.Errorf("removing %s: %w", id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", id)
		}
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheListCmd, cachePurgeCmd, cacheRmCmd)
	rootCmd.AddCommand(cacheCmd)
}
