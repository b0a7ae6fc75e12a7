package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quillsoft/paperscope/internal/aggregate"
	"github.com/quillsoft/paperscope/internal/analysis"
	"github.com/quillsoft/paperscope/internal/docbackend"
	"github.com/quillsoft/paperscope/internal/gateway"
	"github.com/quillsoft/paperscope/internal/model"
	"github.com/quillsoft/paperscope/internal/pipeline"
	"github.com/quillsoft/paperscope/internal/report"
)

var (
	analyzeType      string
	analyzeOut       string
	analyzeTitle     string
	analyzeFormat    string
	analyzeDirective string
	analyzeVerbose   bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <paper.pdf|dir|url>...",
	Short: "Analyze papers and write a report",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if analyzeFormat != "" {
			cfg.Report.Format = analyzeFormat
		}
		if err := cfg.Validate("analyze"); err != nil {
			return err
		}

		mode, err := resolveMode(analyzeType, analyzeDirective)
		if err != nil {
			return err
		}

		provider, err := gateway.NewProvider(cfg)
		if err != nil {
			return err
		}
		gw := gateway.New(provider, cfg.Generation)

		p, err := pipeline.New(cfg,
			docbackend.Opener(cfg.Extract),
			analysis.NewExtractor(gw, cfg.Analysis),
			analysis.NewSelector(gw),
			aggregate.NewAggregator(gw, cfg.Aggregate),
		)
		if err != nil {
			return err
		}

		result, err := p.Run(ctx, args, mode, analyzeDirective)
		if result != nil {
			for _, f := range result.Failed {
				zap.L().Warn("document excluded",
					zap.String("source", f.SourcePath),
					zap.String("stage", f.Stage),
					zap.String("reason", f.Reason),
				)
			}
		}
		if err != nil {
			return eris.Wrap(err, "run")
		}

		gen := report.NewGenerator(cfg.Report)
		rep, err := gen.Generate(result, mode, analyzeTitle)
		if err != nil {
			return err
		}

		outPath := analyzeOut
		if outPath == "" {
			outPath = defaultOutPath(args, mode, cfg.Report.Format)
		}
		if err := gen.Save(rep, outPath, result.Analyses); err != nil {
			return err
		}

		if cfg.Report.MatrixXLSX && result.Aggregate != nil && len(result.Aggregate.Matrix) > 0 {
			xlsxPath := strings.TrimSuffix(outPath, filepath.Ext(outPath)) + "_matrix.xlsx"
			if err := report.WriteMatrixXLSX(result.Aggregate, result.Analyses, xlsxPath); err != nil {
				zap.L().Warn("matrix export failed", zap.Error(err))
			}
		}

		zap.L().Info("analysis complete",
			zap.String("report", outPath),
			zap.Int("documents", len(result.Analyses)),
			zap.Int("findings", countFindings(result)),
			zap.Int("input_tokens", result.Usage.InputTokens),
			zap.Int("output_tokens", result.Usage.OutputTokens),
			zap.Float64("cost_usd", result.Usage.Cost),
			zap.Int64("duration_ms", result.Duration),
		)

		if analyzeVerbose {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}

		return nil
	},
}

// resolveMode maps the --type flag to a run mode. A custom directive
// takes over the whole run: it replaces the fixed comparison and
// trend prompts, so any type combined with a directive becomes a
// custom run.
func resolveMode(reportType, directive string) (model.AggregateMode, error) {
	mode, ok := model.ParseAggregateMode(reportType)
	if !ok {
		return "", eris.Errorf("unknown report type %q", reportType)
	}
	if directive != "" {
		mode = model.ModeCustom
	}
	return mode, nil
}

// defaultOutPath derives the report path: a lone file input becomes
// <name>_summary.<ext>, anything else papers_<type>_report.<ext>.
func defaultOutPath(inputs []string, mode model.AggregateMode, format string) string {
	ext := ".md"
	switch strings.ToLower(format) {
	case "json":
		ext = ".json"
	case "html":
		ext = ".html"
	}
	if len(inputs) == 1 {
		if st, err := os.Stat(inputs[0]); err == nil && !st.IsDir() {
			base := filepath.Base(inputs[0])
			return strings.TrimSuffix(base, filepath.Ext(base)) + "_summary" + ext
		}
	}
	return fmt.Sprintf("papers_%s_report%s", mode, ext)
}

func countFindings(result *model.RunResult) int {
	n := 0
	for _, an := range result.Analyses {
		for _, f := range an.Findings {
			if !f.Empty() {
				n++
			}
		}
	}
	return n
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeType, "type", "t", "single", "report type: single, comparison or trend")
	analyzeCmd.Flags().StringVarP(&analyzeOut, "output", "o", "", "output path (default derived from the inputs)")
	analyzeCmd.Flags().StringVar(&analyzeTitle, "title", "", "report title")
	analyzeCmd.Flags().StringVarP(&analyzeFormat, "format", "f", "", "report format: markdown, json or html (default from config)")
	analyzeCmd.Flags().StringVarP(&analyzeDirective, "prompt", "p", "", "custom analysis directive")
	analyzeCmd.Flags().BoolVarP(&analyzeVerbose, "verbose", "v", false, "print the run result JSON to stdout")
	rootCmd.AddCommand(analyzeCmd)
}
