package services

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-insights/pkg/analysis"
	"github.com/ekaya-inc/ekaya-insights/pkg/ingest"
	"github.com/ekaya-inc/ekaya-insights/pkg/insights"
	"github.com/ekaya-inc/ekaya-insights/pkg/models"
)

// Report is the result of running a CSV through the analysis pipeline.
type Report struct {
	FileName  string                 `json:"fileName" yaml:"fileName"`
	Rows      int                    `json:"rows" yaml:"rows"`
	Truncated bool                   `json:"truncated" yaml:"truncated"`
	Summary   []models.ColumnSummary `json:"summary" yaml:"summary"`
	Insights  []models.Insight       `json:"insights,omitempty" yaml:"insights,omitempty"`
}

// Pipeline parses, analyzes and optionally annotates a CSV stream. It holds no
// per-run state and is safe for concurrent use.
type Pipeline struct {
	maxRows   int
	generator insights.Generator
	logger    *zap.Logger
}

// NewPipeline creates a Pipeline. A nil generator disables insight generation.
func NewPipeline(maxRows int, generator insights.Generator, logger *zap.Logger) *Pipeline {
	if maxRows <= 0 {
		maxRows = ingest.DefaultMaxRows
	}
	return &Pipeline{
		maxRows:   maxRows,
		generator: generator,
		logger:    logger.Named("pipeline"),
	}
}

// Run reads r and returns the column summary. Insights are generated only when
// withInsights is set and a generator is configured; insight generation never
// fails the run.
func (p *Pipeline) Run(ctx context.Context, fileName string, r io.Reader, withInsights bool) (*Report, error) {
	table, err := ingest.ReadTable(r, p.maxRows)
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if table.Truncated {
		p.logger.Warn("CSV truncated at row cap",
			zap.String("file_name", fileName),
			zap.Int("max_rows", p.maxRows))
	}

	summary, err := analysis.Analyze(table)
	if err != nil {
		return nil, err
	}

	report := &Report{
		FileName:  fileName,
		Rows:      table.RowCount(),
		Truncated: table.Truncated,
		Summary:   summary,
	}

	if withInsights && p.generator != nil {
		report.Insights = p.generator.Generate(ctx, summary)
	}

	p.logger.Debug("Pipeline run complete",
		zap.String("file_name", fileName),
		zap.Int("rows", report.Rows),
		zap.Int("numeric_columns", len(summary)))

	return report, nil
}
