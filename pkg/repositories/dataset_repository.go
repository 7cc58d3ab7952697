package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ekaya-inc/ekaya-insights/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-insights/pkg/database"
	"github.com/ekaya-inc/ekaya-insights/pkg/models"
)

// DatasetRepository defines the interface for dataset record storage.
// Ownership is enforced by callers; the repository only requires an owner on
// create.
type DatasetRepository interface {
	Create(ctx context.Context, ownerID uuid.UUID, fileName string, summary []models.ColumnSummary, insights []models.Insight) (*models.Dataset, error)
	// ListByOwner returns one page of the owner's datasets, newest first, and
	// the owner's total dataset count.
	ListByOwner(ctx context.Context, ownerID uuid.UUID, page, limit int) ([]*models.Dataset, int, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Dataset, error)
	// DeleteByID returns apperrors.ErrNotFound when no record has the id,
	// including on repeated calls.
	DeleteByID(ctx context.Context, id uuid.UUID) error
}

// datasetRepository implements DatasetRepository using PostgreSQL.
type datasetRepository struct{}

// NewDatasetRepository creates a new dataset repository.
func NewDatasetRepository() DatasetRepository {
	return &datasetRepository{}
}

const datasetColumns = `id, user_id, file_name, summary, insights, created_at, updated_at`

func (r *datasetRepository) Create(ctx context.Context, ownerID uuid.UUID, fileName string, summary []models.ColumnSummary, insights []models.Insight) (*models.Dataset, error) {
	if ownerID == uuid.Nil {
		return nil, apperrors.ErrMissingOwner
	}

	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	if summary == nil {
		summary = []models.ColumnSummary{}
	}
	if insights == nil {
		insights = []models.Insight{}
	}

	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal summary: %w", err)
	}
	insightsJSON, err := json.Marshal(insights)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal insights: %w", err)
	}

	query := `
		INSERT INTO datasets (id, user_id, file_name, summary, insights)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + datasetColumns

	row := scope.Conn.QueryRow(ctx, query, uuid.New(), ownerID, fileName, summaryJSON, insightsJSON)
	dataset, err := scanDataset(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create dataset: %w", err)
	}

	return dataset, nil
}

func (r *datasetRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, page, limit int) ([]*models.Dataset, int, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, 0, fmt.Errorf("no database scope in context")
	}

	page, limit = models.NormalizePage(page, limit)

	var total int
	if err := scope.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM datasets WHERE user_id = $1`, ownerID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count datasets: %w", err)
	}

	query := `
		SELECT ` + datasetColumns + `
		FROM datasets
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`

	rows, err := scope.Conn.Query(ctx, query, ownerID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list datasets: %w", err)
	}
	defer rows.Close()

	datasets := make([]*models.Dataset, 0, limit)
	for rows.Next() {
		dataset, err := scanDataset(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan dataset: %w", err)
		}
		datasets = append(datasets, dataset)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating datasets: %w", err)
	}

	return datasets, total, nil
}

func (r *datasetRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Dataset, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `SELECT ` + datasetColumns + ` FROM datasets WHERE id = $1`

	dataset, err := scanDataset(scope.Conn.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get dataset: %w", err)
	}

	return dataset, nil
}

func (r *datasetRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	result, err := scope.Conn.Exec(ctx, `DELETE FROM datasets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete dataset: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func scanDataset(row pgx.Row) (*models.Dataset, error) {
	var (
		d            models.Dataset
		summaryJSON  []byte
		insightsJSON []byte
	)
	if err := row.Scan(&d.ID, &d.UserID, &d.FileName, &summaryJSON, &insightsJSON, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(summaryJSON, &d.Summary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal summary: %w", err)
	}
	if err := json.Unmarshal(insightsJSON, &d.Insights); err != nil {
		return nil, fmt.Errorf("failed to unmarshal insights: %w", err)
	}

	return &d, nil
}

// Ensure datasetRepository implements DatasetRepository at compile time.
var _ DatasetRepository = (*datasetRepository)(nil)
