package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/docfill/internal/autofill"
	"github.com/sells-group/docfill/internal/model"
	"github.com/sells-group/docfill/internal/options"
	"github.com/sells-group/docfill/internal/report"
)

var (
	showForm     string
	showXLSX     string
	showAnalysis bool
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored extraction and how it maps onto a form",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		env, err := initEnv(ctx, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		st := env.Session(ctx)

		if showAnalysis {
			payload, ok := st.LastAnalysis(ctx)
			if !ok {
				fmt.Fprintln(out, "no analysis payload stored (enable session.persist_analysis)")
				return nil
			}
			fmt.Fprintln(out, string(payload))
			return nil
		}

		res, ok := st.Get()
		if !ok {
			fmt.Fprintf(out, "no extraction in session %s\n", cfg.Session.ID)
			return nil
		}

		rec := autofill.New(st, env.Mapper, autofill.Config{FormType: showForm})
		state := rec.State()

		var dropdowns map[string][]model.Option
		if env.Options != nil {
			keys := autofill.ChoiceKeys(env.Mapper, state.FormType, state.ProcessedFields)
			dropdowns = options.LoadAll(ctx, env.Options, keys, cfg.Options.Concurrency)
		}
		rows := report.Rows(env.Mapper, state.FormType, res.DataFields, nil, dropdowns)

		fmt.Fprintf(out, "session:     %s\n", cfg.Session.ID)
		fmt.Fprintf(out, "file:        %s (%s)\n", res.File.Name, res.File.MediaType)
		fmt.Fprintf(out, "category:    %s / %s\n", res.Category, res.SubCategory)
		fmt.Fprintf(out, "form type:   %s\n", orNone(state.FormType))
		fmt.Fprintf(out, "auto-fill:   %t\n", res.AutoFillIntent)
		fmt.Fprintf(out, "fingerprint: %s\n\n", state.Fingerprint)
		if err := report.WriteTable(out, rows); err != nil {
			return err
		}

		if showXLSX != "" {
			if err := report.WriteXLSX(showXLSX, "", rows); err != nil {
				return err
			}
			fmt.Fprintf(out, "\nwrote %s\n", showXLSX)
		}
		return nil
	},
}

func init() {
	showCmd.Flags().StringVar(&showForm, "form", "", "form type to map onto (default: derived from the classification)")
	showCmd.Flags().StringVar(&showXLSX, "xlsx", "", "also write the mapping to this workbook")
	showCmd.Flags().BoolVar(&showAnalysis, "analysis", false, "print the stored analysis payload instead")
	rootCmd.AddCommand(showCmd)
}
