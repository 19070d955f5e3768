package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the robot-check lock",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		st, err := a.breaker.Status(cmd.Context())
		if err != nil {
			return fmt.Errorf("reading lock: %w", err)
		}
		w := cmd.OutOrStdout()
		switch {
		case st.Active:
			fmt.Fprintf(w, "locked until %s (%s left)\n",
				st.LockedUntil.Format(time.RFC3339), time.Until(st.LockedUntil).Round(time.Second))
		case !st.LockedUntil.IsZero():
			fmt.Fprintf(w, "unlocked (last lock expired %s)\n", st.LockedUntil.Format(time.RFC3339))
		default:
			fmt.Fprintln(w, "unlocked")
		}
		return nil
	},
}

var unlockCmd = &cobra.Command{
	Use:   "unlock",
	Short: "Clear the robot-check lock",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		if err := a.breaker.Reset(cmd.Context()); err != nil {
			return fmt.Errorf("clearing lock: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "unlocked")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd, unlockCmd)
}
