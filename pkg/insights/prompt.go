package insights

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ekaya-inc/ekaya-insights/pkg/models"
)

// MaxSummaryColumns caps how many column summaries are sent to the model.
const MaxSummaryColumns = 5

const systemMessage = "You are a data analyst. You answer with strictly valid JSON only."

// BuildPrompt renders the analyst prompt for the first MaxSummaryColumns
// summaries.
func BuildPrompt(summary []models.ColumnSummary) (string, error) {
	trimmed := summary
	if len(trimmed) > MaxSummaryColumns {
		trimmed = trimmed[:MaxSummaryColumns]
	}
	if trimmed == nil {
		trimmed = []models.ColumnSummary{}
	}

	data, err := json.Marshal(trimmed)
	if err != nil {
		return "", fmt.Errorf("failed to marshal summary: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("You are a data analyst. Analyze this dataset summary and return 5 concise insights.\n")
	sb.WriteString("Each insight should have:\n")
	sb.WriteString("- \"insight\": short, clear description (1 line)\n")
	sb.WriteString("- \"impact\": reason why this matters for decision-making.\n")
	sb.WriteString("Return strictly valid JSON as an array of objects (no markdown, no backticks).\n")
	sb.WriteString("Summary data:\n")
	sb.Write(data)
	sb.WriteString("\n")

	return sb.String(), nil
}
