package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/quality-engine/internal/bootstrap"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/domain"
	"github.com/jonesrussell/north-cloud/quality-engine/internal/processor"
)

var evaluateSummary bool

func newEvaluateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate <content.json>",
		Short: "Evaluate content with the default rule pack",
		Long: `Evaluates one submission, or a JSON array of submissions, entirely in
process: default rules, built-in trusted sources, in-memory duplicate store.
Nothing is persisted.

Example:
  qualityctl evaluate article.json
  qualityctl evaluate --summary batch.json`,
		Args: cobra.ExactArgs(1),
		RunE: runEvaluate,
	}
	cmd.Flags().BoolVarP(&evaluateSummary, "summary", "s", false, "print one line per item instead of full decisions")
	return cmd
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read content: %w", err)
	}
	items, err := parseContent(data)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	components, err := bootstrap.NewOfflineEngine(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}

	batch := processor.NewBatchEvaluator(components.Engine, cfg.Persistence.BatchConcurrency, nil, nil, log)
	results := batch.Process(cmd.Context(), items)

	if evaluateSummary {
		return printSummary(cmd.OutOrStdout(), results)
	}
	return printDecisions(cmd.OutOrStdout(), results)
}

// parseContent accepts a single object or an array of objects.
func parseContent(data []byte) ([]*domain.ContentInput, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []*domain.ContentInput
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("parse content array: %w", err)
		}
		return items, nil
	}

	var item domain.ContentInput
	if err := json.Unmarshal(trimmed, &item); err != nil {
		return nil, fmt.Errorf("parse content: %w", err)
	}
	return []*domain.ContentInput{&item}, nil
}

type decisionOutput struct {
	ContentID string                  `json:"content_id"`
	Decision  *domain.QualityDecision `json:"decision,omitempty"`
	Error     string                  `json:"error,omitempty"`
}

func printDecisions(w io.Writer, results []processor.BatchResult) error {
	out := make([]decisionOutput, 0, len(results))
	for _, r := range results {
		item := decisionOutput{ContentID: r.ContentID, Decision: r.Decision}
		if r.Err != nil {
			item.Error = r.Err.Error()
		}
		out = append(out, item)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if len(out) == 1 {
		return enc.Encode(out[0])
	}
	return enc.Encode(out)
}

func printSummary(w io.Writer, results []processor.BatchResult) error {
	for _, r := range results {
		var err error
		if r.Err != nil {
			_, err = fmt.Fprintf(w, "%s\terror\t%v\n", r.ContentID, r.Err)
		} else {
			_, err = fmt.Fprintf(w, "%s\t%s\t%.0f\t%.0f%%\n",
				r.ContentID, r.Decision.Decision, r.Decision.OverallScore, r.Decision.Confidence)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
