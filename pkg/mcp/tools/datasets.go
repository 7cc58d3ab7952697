package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-insights/pkg/auth"
	"github.com/ekaya-inc/ekaya-insights/pkg/models"
	"github.com/ekaya-inc/ekaya-insights/pkg/services"
)

// DatasetToolDeps contains dependencies for the dataset tools.
type DatasetToolDeps struct {
	DatasetService services.DatasetService
	Logger         *zap.Logger
}

type datasetListResult struct {
	Datasets []datasetSummary `json:"datasets"`
	Page     int              `json:"page"`
	Limit    int              `json:"limit"`
	Total    int              `json:"total"`
}

// datasetSummary is the listing view of a dataset; insights are omitted to
// keep the payload small.
type datasetSummary struct {
	ID           uuid.UUID `json:"id"`
	FileName     string    `json:"file_name"`
	ColumnCount  int       `json:"column_count"`
	InsightCount int       `json:"insight_count"`
	CreatedAt    string    `json:"created_at"`
}

// RegisterDatasetTools adds list_datasets and get_dataset to the MCP server.
// Both tools act on behalf of the authenticated caller.
func RegisterDatasetTools(s *server.MCPServer, deps *DatasetToolDeps) {
	registerListDatasetsTool(s, deps)
	registerGetDatasetTool(s, deps)
}

func registerListDatasetsTool(s *server.MCPServer, deps *DatasetToolDeps) {
	tool := mcp.NewTool(
		"list_datasets",
		mcp.WithDescription("Lists the caller's uploaded datasets, newest first"),
		mcp.WithNumber("page",
			mcp.Description("1-based page number (default 1)"),
		),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("Page size (default %d, max %d)", models.DefaultPageLimit, models.MaxPageLimit)),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		userID, ok := auth.GetUserUUIDFromContext(ctx)
		if !ok {
			return NewErrorResult("unauthorized", "Authentication required"), nil
		}

		datasets, page, err := deps.DatasetService.List(ctx, userID, getOptionalInt(req, "page"), getOptionalInt(req, "limit"))
		if err != nil {
			return nil, fmt.Errorf("failed to list datasets: %w", err)
		}

		result := datasetListResult{
			Datasets: make([]datasetSummary, 0, len(datasets)),
			Page:     page.Page,
			Limit:    page.Limit,
			Total:    page.Total,
		}
		for _, d := range datasets {
			result.Datasets = append(result.Datasets, datasetSummary{
				ID:           d.ID,
				FileName:     d.FileName,
				ColumnCount:  len(d.Summary),
				InsightCount: len(d.Insights),
				CreatedAt:    d.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
			})
		}

		return jsonResult(result)
	})
}

func registerGetDatasetTool(s *server.MCPServer, deps *DatasetToolDeps) {
	tool := mcp.NewTool(
		"get_dataset",
		mcp.WithDescription("Returns a dataset's column statistics and AI insights"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Dataset UUID from list_datasets"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		userID, ok := auth.GetUserUUIDFromContext(ctx)
		if !ok {
			return NewErrorResult("unauthorized", "Authentication required"), nil
		}

		rawID, err := req.RequireString("id")
		if err != nil {
			return NewErrorResult("invalid_parameters", "id is required"), nil
		}
		id, err := uuid.Parse(strings.TrimSpace(rawID))
		if err != nil {
			return NewErrorResultWithDetails("invalid_parameters", "id must be a UUID", map[string]any{"id": rawID}), nil
		}

		dataset, err := deps.DatasetService.Get(ctx, userID, id)
		if err != nil {
			if result := DomainErrorResult(err, map[string]any{"id": id}); result != nil {
				return result, nil
			}
			deps.Logger.Error("get_dataset failed", zap.String("dataset_id", id.String()), zap.Error(err))
			return nil, fmt.Errorf("failed to get dataset: %w", err)
		}

		return jsonResult(dataset)
	})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(body)), nil
}
