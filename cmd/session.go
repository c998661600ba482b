package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var pruneOlderThan time.Duration

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage persisted sessions",
}

var sessionNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Print a fresh session id",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), uuid.NewString())
		return nil
	},
}

var sessionPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete sessions that have not been written to recently",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		age := pruneOlderThan
		if age <= 0 {
			age = cfg.Session.MaxAge()
		}
		if age <= 0 {
			return eris.New("session prune: --older-than or session.max_age_hours is required")
		}

		n, err := env.Backend.PruneSessions(ctx, age)
		if err != nil {
			return err
		}
		zap.L().Info("sessions pruned", zap.Int("entries", n), zap.Duration("older_than", age))
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d entries older than %s\n", n, age)
		return nil
	},
}

func init() {
	sessionPruneCmd.Flags().DurationVar(&pruneOlderThan, "older-than", 0, "age cutoff (default from session.max_age_hours)")
	sessionCmd.AddCommand(sessionNewCmd, sessionPruneCmd)
	rootCmd.AddCommand(sessionCmd)
}
