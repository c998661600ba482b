package main

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/docfill/internal/model"
	"github.com/sells-group/docfill/internal/report"
	"github.com/sells-group/docfill/internal/resilience"
	"github.com/sells-group/docfill/pkg/extractor"
)

var (
	extractAutoFill bool
	extractHandle   string
)

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Send a document to the extraction service and keep the result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "extract")
		if err != nil {
			return err
		}
		defer env.Close()

		up, err := extractor.UploadFile(args[0])
		if err != nil {
			return err
		}

		client := newExtractor()
		resp, raw, err := client.Analyze(ctx, up)
		if err != nil {
			return err
		}

		handle := extractHandle
		if handle == "" {
			handle = args[0]
		}
		res, err := model.ResultFromAnalysis(model.FileRef{Handle: handle, Name: up.Name, MediaType: up.MediaType}, resp, raw, extractAutoFill)
		if err != nil {
			return eris.Wrap(err, "extract")
		}

		st := env.Session(ctx)
		st.Set(ctx, res)

		formType := env.Mapper.FormType(res.Category, res.SubCategory)
		zap.L().Info("extraction stored",
			zap.String("session", cfg.Session.ID),
			zap.String("file", up.Name),
			zap.String("category", res.Category),
			zap.String("form_type", formType),
			zap.Int("fields", len(res.DataFields)),
		)

		fmt.Fprintf(cmd.OutOrStdout(), "%s / %s -> %s\n", res.Category, res.SubCategory, orNone(formType))
		return report.WriteTable(cmd.OutOrStdout(), report.Rows(env.Mapper, formType, res.DataFields, nil, nil))
	},
}

func newExtractor() extractor.Client {
	ec := cfg.Extractor
	return extractor.NewClient(
		extractor.WithBaseURL(ec.BaseURL),
		extractor.WithAPIKey(ec.Key),
		extractor.WithRateLimit(ec.RatePerSec, ec.Burst),
		extractor.WithRetry(resilience.NewPolicy(
			ec.MaxAttempts,
			time.Duration(ec.InitialBackoffMs)*time.Millisecond,
			time.Duration(ec.MaxBackoffMs)*time.Millisecond,
		)),
		extractor.WithHTTPClient(httpClient(time.Duration(ec.TimeoutSecs)*time.Second)),
	)
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func init() {
	extractCmd.Flags().BoolVar(&extractAutoFill, "auto-fill", false, "mark the result for automatic apply")
	extractCmd.Flags().StringVar(&extractHandle, "handle", "", "content reference to record (default: the file path)")
	rootCmd.AddCommand(extractCmd)
}
