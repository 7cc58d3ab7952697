package tools

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-insights/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-insights/pkg/auth"
	"github.com/ekaya-inc/ekaya-insights/pkg/models"
	"github.com/ekaya-inc/ekaya-insights/pkg/services"
)

// mockDatasetService records the owner it was called with and serves a fixed
// set of datasets.
type mockDatasetService struct {
	datasets  map[uuid.UUID]*models.Dataset
	listErr   error
	lastOwner uuid.UUID
	lastPage  int
	lastLimit int
}

func (m *mockDatasetService) Upload(ctx context.Context, ownerID uuid.UUID, fileName string, r io.Reader) (*models.Dataset, error) {
	return nil, errors.New("not implemented")
}

func (m *mockDatasetService) List(ctx context.Context, ownerID uuid.UUID, page, limit int) ([]*models.Dataset, models.Page, error) {
	m.lastOwner, m.lastPage, m.lastLimit = ownerID, page, limit
	if m.listErr != nil {
		return nil, models.Page{}, m.listErr
	}
	page, limit = models.NormalizePage(page, limit)
	var out []*models.Dataset
	for _, d := range m.datasets {
		if d.UserID == ownerID {
			out = append(out, d)
		}
	}
	return out, models.Page{Page: page, Limit: limit, Total: len(out)}, nil
}

func (m *mockDatasetService) Get(ctx context.Context, ownerID, id uuid.UUID) (*models.Dataset, error) {
	m.lastOwner = ownerID
	d, ok := m.datasets[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if !d.IsOwnedBy(ownerID) {
		return nil, apperrors.ErrForbidden
	}
	return d, nil
}

func (m *mockDatasetService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	return errors.New("not implemented")
}

var _ services.DatasetService = (*mockDatasetService)(nil)

func newDatasetToolServer(svc services.DatasetService) *server.MCPServer {
	s := server.NewMCPServer("test", "1.0.0", server.WithToolCapabilities(true))
	RegisterDatasetTools(s, &DatasetToolDeps{DatasetService: svc, Logger: zap.NewNop()})
	return s
}

func userContext(userID uuid.UUID) context.Context {
	claims := &auth.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: userID.String()}}
	return auth.WithClaims(context.Background(), claims, "token")
}

type toolCallResponse struct {
	Result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		IsError bool `json:"isError"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func callTool(t *testing.T, s *server.MCPServer, ctx context.Context, request string) toolCallResponse {
	t.Helper()
	result := s.HandleMessage(ctx, []byte(request))

	resultBytes, err := json.Marshal(result)
	require.NoError(t, err)

	var response toolCallResponse
	require.NoError(t, json.Unmarshal(resultBytes, &response))
	return response
}

func TestDatasetTools_Listed(t *testing.T) {
	s := newDatasetToolServer(&mockDatasetService{})

	result := s.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","method":"tools/list","id":1}`))
	resultBytes, err := json.Marshal(result)
	require.NoError(t, err)

	var response struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(resultBytes, &response))

	var names []string
	for _, tool := range response.Result.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"list_datasets", "get_dataset"}, names)
}

func TestListDatasetsTool(t *testing.T) {
	owner := uuid.New()
	other := uuid.New()
	avg := 2.5
	mine := &models.Dataset{
		ID:        uuid.New(),
		UserID:    owner,
		FileName:  "scores.csv",
		Summary:   []models.ColumnSummary{{Column: "score", Avg: &avg, Min: &avg, Max: &avg}},
		Insights:  []models.Insight{{Insight: "Scores are flat", Impact: "Low variance"}},
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	theirs := &models.Dataset{ID: uuid.New(), UserID: other, FileName: "other.csv"}
	svc := &mockDatasetService{datasets: map[uuid.UUID]*models.Dataset{mine.ID: mine, theirs.ID: theirs}}
	s := newDatasetToolServer(svc)

	response := callTool(t, s, userContext(owner),
		`{"jsonrpc":"2.0","method":"tools/call","params":{"name":"list_datasets","arguments":{"page":1,"limit":5}},"id":1}`)

	require.Nil(t, response.Error)
	require.False(t, response.Result.IsError)
	require.Len(t, response.Result.Content, 1)
	assert.Equal(t, owner, svc.lastOwner, "tool must act as the authenticated user")
	assert.Equal(t, 1, svc.lastPage)
	assert.Equal(t, 5, svc.lastLimit)

	var list datasetListResult
	require.NoError(t, json.Unmarshal([]byte(response.Result.Content[0].Text), &list))
	require.Len(t, list.Datasets, 1)
	assert.Equal(t, mine.ID, list.Datasets[0].ID)
	assert.Equal(t, "scores.csv", list.Datasets[0].FileName)
	assert.Equal(t, 1, list.Datasets[0].ColumnCount)
	assert.Equal(t, 1, list.Datasets[0].InsightCount)
	assert.Equal(t, "2026-01-02T03:04:05Z", list.Datasets[0].CreatedAt)
	assert.Equal(t, 1, list.Total)
	assert.Equal(t, 5, list.Limit)
}

func TestListDatasetsTool_DefaultsPagination(t *testing.T) {
	svc := &mockDatasetService{}
	s := newDatasetToolServer(svc)

	response := callTool(t, s, userContext(uuid.New()),
		`{"jsonrpc":"2.0","method":"tools/call","params":{"name":"list_datasets"},"id":1}`)

	require.False(t, response.Result.IsError)
	assert.Equal(t, 0, svc.lastPage)
	assert.Equal(t, 0, svc.lastLimit)

	var list datasetListResult
	require.NoError(t, json.Unmarshal([]byte(response.Result.Content[0].Text), &list))
	assert.Equal(t, 1, list.Page)
	assert.Equal(t, models.DefaultPageLimit, list.Limit)
	assert.Empty(t, list.Datasets)
}

func TestListDatasetsTool_RequiresAuth(t *testing.T) {
	s := newDatasetToolServer(&mockDatasetService{})

	response := callTool(t, s, context.Background(),
		`{"jsonrpc":"2.0","method":"tools/call","params":{"name":"list_datasets"},"id":1}`)

	require.True(t, response.Result.IsError)
	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal([]byte(response.Result.Content[0].Text), &errResp))
	assert.Equal(t, "unauthorized", errResp.Code)
}

func TestGetDatasetTool(t *testing.T) {
	owner := uuid.New()
	dataset := &models.Dataset{
		ID:       uuid.New(),
		UserID:   owner,
		FileName: "sales.csv",
		Insights: []models.Insight{{Insight: "Revenue grew", Impact: "Plan capacity"}},
	}
	foreign := &models.Dataset{ID: uuid.New(), UserID: uuid.New(), FileName: "private.csv"}
	s := newDatasetToolServer(&mockDatasetService{datasets: map[uuid.UUID]*models.Dataset{
		dataset.ID: dataset,
		foreign.ID: foreign,
	}})
	ctx := userContext(owner)

	t.Run("returns owned dataset", func(t *testing.T) {
		response := callTool(t, s, ctx,
			`{"jsonrpc":"2.0","method":"tools/call","params":{"name":"get_dataset","arguments":{"id":"`+dataset.ID.String()+`"}},"id":1}`)

		require.False(t, response.Result.IsError)
		var got models.Dataset
		require.NoError(t, json.Unmarshal([]byte(response.Result.Content[0].Text), &got))
		assert.Equal(t, dataset.ID, got.ID)
		assert.Equal(t, "sales.csv", got.FileName)
		assert.Equal(t, dataset.Insights, got.Insights)
	})

	tests := []struct {
		name     string
		args     string
		wantCode string
	}{
		{"missing id", `{}`, "invalid_parameters"},
		{"malformed id", `{"id":"not-a-uuid"}`, "invalid_parameters"},
		{"unknown id", `{"id":"` + uuid.NewString() + `"}`, "not_found"},
		{"foreign owner", `{"id":"` + foreign.ID.String() + `"}`, "forbidden"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			response := callTool(t, s, ctx,
				`{"jsonrpc":"2.0","method":"tools/call","params":{"name":"get_dataset","arguments":`+tt.args+`},"id":1}`)

			require.Nil(t, response.Error)
			require.True(t, response.Result.IsError)
			var errResp ErrorResponse
			require.NoError(t, json.Unmarshal([]byte(response.Result.Content[0].Text), &errResp))
			assert.Equal(t, tt.wantCode, errResp.Code)
		})
	}
}
