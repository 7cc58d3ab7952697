// Package analysis classifies CSV columns and computes per-column statistics.
package analysis

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/ekaya-inc/ekaya-insights/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-insights/pkg/models"
)

// ClassificationSampleSize is how many leading values of a column are
// inspected to decide whether it is numeric.
//
// This is a sampling heuristic, not a full scan. A numeric column whose first
// values are blank or text is classified non-numeric, and a mostly-text column
// with a number near the top is classified numeric.
const ClassificationSampleSize = 10

// AvgPrecision is the number of decimal places kept for column averages.
const AvgPrecision = 2

// Analyze returns one summary per numeric column of table, in header order.
//
// It fails with apperrors.ErrEmptyDataset when the table has no rows and with
// apperrors.ErrNoNumericColumns when no column is classified numeric.
func Analyze(table *models.Table) ([]models.ColumnSummary, error) {
	if table.RowCount() == 0 {
		return nil, apperrors.ErrEmptyDataset
	}

	var summaries []models.ColumnSummary
	for _, column := range table.Columns {
		if !IsNumericColumn(table.Rows, column) {
			continue
		}
		summary, err := summarize(table.Rows, column)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}

	if len(summaries) == 0 {
		return nil, apperrors.ErrNoNumericColumns
	}
	return summaries, nil
}

// IsNumericColumn reports whether at least one of the first
// min(ClassificationSampleSize, len(rows)) values of column parses as a finite
// number.
func IsNumericColumn(rows []models.Row, column string) bool {
	limit := min(ClassificationSampleSize, len(rows))
	for _, row := range rows[:limit] {
		if _, ok := ParseNumber(row[column]); ok {
			return true
		}
	}
	return false
}

// ParseNumber parses a cell as a finite float64. Surrounding whitespace is
// ignored; NaN, infinities and anything strconv rejects are not numbers.
func ParseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// summarize aggregates every finite value of column. Non-numeric and blank
// cells are dropped, not counted as zero.
func summarize(rows []models.Row, column string) (models.ColumnSummary, error) {
	summary := models.ColumnSummary{Column: column}

	values := make(stats.Float64Data, 0, len(rows))
	for _, row := range rows {
		if v, ok := ParseNumber(row[column]); ok {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return summary, nil
	}

	mean, err := stats.Mean(values)
	if err != nil {
		return summary, fmt.Errorf("failed to compute mean of %q: %w", column, err)
	}
	lo, err := stats.Min(values)
	if err != nil {
		return summary, fmt.Errorf("failed to compute min of %q: %w", column, err)
	}
	hi, err := stats.Max(values)
	if err != nil {
		return summary, fmt.Errorf("failed to compute max of %q: %w", column, err)
	}

	// stats.Mean sums first, which overflows for values near MaxFloat64.
	if math.IsInf(mean, 0) || math.IsNaN(mean) {
		mean = runningMean(values)
	}

	avg, err := stats.Round(mean, AvgPrecision)
	if err != nil {
		return summary, fmt.Errorf("failed to round mean of %q: %w", column, err)
	}
	// Scaling by 10^precision overflows near MaxFloat64; such values carry no
	// fractional digits worth rounding.
	if math.IsInf(avg, 0) {
		avg = mean
	}

	summary.Avg = &avg
	summary.Min = &lo
	summary.Max = &hi
	return summary, nil
}

// runningMean computes the mean incrementally so intermediate sums stay finite.
func runningMean(values []float64) float64 {
	var mean float64
	for i, v := range values {
		mean += (v - mean) / float64(i+1)
	}
	return mean
}
