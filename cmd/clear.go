package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Discard the stored extraction of the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		env.Session(ctx).Clear(ctx)
		clearApplied(ctx, env.Backend.Session(cfg.Session.ID))

		fmt.Fprintf(cmd.OutOrStdout(), "cleared session %s\n", cfg.Session.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(clearCmd)
}
