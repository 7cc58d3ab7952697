package insights

import (
	"strings"

	"github.com/ekaya-inc/ekaya-insights/pkg/llm"
	"github.com/ekaya-inc/ekaya-insights/pkg/models"
)

// Fallback texts returned when the model cannot produce structured insights.
const (
	UnavailableInsight = "AI analysis unavailable."
	UnavailableImpact  = "The system could not connect to the AI service."
	RawTextImpact      = "General AI summary"
	EmptyResponseText  = "AI returned an empty response."
)

// Outcome is the result of one provider call. It is one of
// StructuredInsights, RawText or ServiceError.
type Outcome interface {
	isOutcome()
}

// StructuredInsights holds items parsed from a JSON reply.
type StructuredInsights struct {
	Items []models.Insight
}

// RawText holds a reply that could not be parsed as insights.
type RawText struct {
	Text string
}

// ServiceError holds a failure to obtain any reply.
type ServiceError struct {
	Err error
}

func (StructuredInsights) isOutcome() {}
func (RawText) isOutcome()            {}
func (ServiceError) isOutcome()       {}

// Insights converts an outcome into the list stored with a dataset.
func Insights(o Outcome) []models.Insight {
	switch v := o.(type) {
	case StructuredInsights:
		return v.Items
	case RawText:
		text := strings.TrimSpace(v.Text)
		if text == "" {
			text = EmptyResponseText
		}
		return []models.Insight{{Insight: text, Impact: RawTextImpact}}
	case ServiceError:
		return unavailable()
	default:
		return unavailable()
	}
}

func unavailable() []models.Insight {
	return []models.Insight{{Insight: UnavailableInsight, Impact: UnavailableImpact}}
}

// ParseReply classifies a model reply. A JSON array yields its items, a
// single object is wrapped in a one-element list. Anything else, or a
// structured reply with no usable items, is RawText.
func ParseReply(text string) Outcome {
	if items, err := llm.ParseJSONResponse[[]models.Insight](text); err == nil {
		if kept := keepNonEmpty(items); len(kept) > 0 {
			return StructuredInsights{Items: kept}
		}
		return RawText{Text: text}
	}

	if item, err := llm.ParseJSONResponse[models.Insight](text); err == nil {
		if kept := keepNonEmpty([]models.Insight{item}); len(kept) > 0 {
			return StructuredInsights{Items: kept}
		}
	}

	return RawText{Text: text}
}

func keepNonEmpty(items []models.Insight) []models.Insight {
	kept := make([]models.Insight, 0, len(items))
	for _, item := range items {
		item.Insight = strings.TrimSpace(item.Insight)
		item.Impact = strings.TrimSpace(item.Impact)
		if item.Insight == "" {
			continue
		}
		kept = append(kept, item)
	}
	return kept
}
