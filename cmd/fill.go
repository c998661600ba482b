package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/docfill/internal/autofill"
	"github.com/sells-group/docfill/internal/model"
	"github.com/sells-group/docfill/internal/options"
	"github.com/sells-group/docfill/internal/store"
)

// appliedPrefix namespaces the last applied fingerprint per form type. It sits
// outside the extraction namespace and is removed by clear.
const appliedPrefix = "cli:last_applied:"

var (
	fillForm       string
	fillValuesPath string
	fillForce      bool
	fillClearAfter bool
)

type fillOutput struct {
	FormType    string                  `json:"formType"`
	Applied     bool                    `json:"applied"`
	Fingerprint string                  `json:"fingerprint"`
	Values      map[string]any          `json:"values"`
	AutoFilled  []string                `json:"autoFilled"`
	Processed   model.ProcessedFieldSet `json:"processedFields"`
}

var fillCmd = &cobra.Command{
	Use:   "fill",
	Short: "Apply the stored extraction to a form, once per distinct extraction",
	Long:  "Maps the stored extraction onto the form type and fills only the empty keys of --values. The fingerprint of the applied extraction is kept per form type, so repeating the command is a no-op until a new document is extracted or --force is given.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		values, err := readValues(fillValuesPath)
		if err != nil {
			return err
		}

		kv := env.Backend.Session(cfg.Session.ID)
		st := env.Session(ctx)

		formType := fillForm
		if formType == "" {
			if res, ok := st.Get(); ok {
				formType = env.Mapper.FormType(res.Category, res.SubCategory)
			}
		}
		appliedKey := appliedPrefix + orNone(formType)

		last, _, err := kv.Get(ctx, appliedKey)
		if err != nil {
			zap.L().Warn("fill: read last applied fingerprint", zap.Error(err))
		}

		form := autofill.NewForm(values)
		rcfg := autofill.Config{
			Apply:           form.Apply,
			FormType:        fillForm,
			ClearAfterApply: fillClearAfter || cfg.Mapping.ClearAfterApply,
			LastApplied:     last,
		}
		if env.Options != nil {
			probe := autofill.New(st, env.Mapper, autofill.Config{FormType: fillForm}).State()
			keys := autofill.ChoiceKeys(env.Mapper, probe.FormType, probe.ProcessedFields)
			rcfg.DropdownOptions = options.LoadAll(ctx, env.Options, keys, cfg.Options.Concurrency)
		}

		rec := autofill.New(st, env.Mapper, rcfg)
		var (
			state   autofill.State
			applied bool
		)
		if fillForce {
			state, applied = rec.ApplyNow(ctx)
		} else {
			state, applied = rec.Evaluate(ctx)
		}

		if applied {
			recordApplied(ctx, kv, appliedKey, rec.LastApplied())
		}

		out := fillOutput{
			FormType:    state.FormType,
			Applied:     applied,
			Fingerprint: rec.LastApplied(),
			Values:      form.Values(),
			AutoFilled:  form.AutoFilled(),
			Processed:   state.ProcessedFields,
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func recordApplied(ctx context.Context, kv store.KV, key, fingerprint string) {
	var err error
	if fingerprint == "" {
		err = kv.Delete(ctx, key)
	} else {
		err = kv.Set(ctx, key, fingerprint)
	}
	if err != nil {
		zap.L().Warn("fill: record last applied fingerprint", zap.Error(err))
	}
}

func readValues(path string) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return nil, eris.Wrapf(err, "read values %s", path)
	}
	var values map[string]any
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, eris.Wrapf(err, "parse values %s", path)
	}
	return values, nil
}

// clearApplied removes every recorded fingerprint of the session.
func clearApplied(ctx context.Context, kv store.KV) {
	if _, err := kv.DeletePrefix(ctx, appliedPrefix); err != nil {
		zap.L().Warn("clear: remove applied fingerprints", zap.Error(err))
	}
}

func init() {
	fillCmd.Flags().StringVar(&fillForm, "form", "", "form type (default: derived from the classification)")
	fillCmd.Flags().StringVar(&fillValuesPath, "values", "", "JSON file with the values already in the form")
	fillCmd.Flags().BoolVar(&fillForce, "force", false, "apply even if this extraction was applied before")
	fillCmd.Flags().BoolVar(&fillClearAfter, "clear-after", false, "clear the stored extraction after applying")
	rootCmd.AddCommand(fillCmd)
}
