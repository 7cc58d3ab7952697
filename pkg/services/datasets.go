package services

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-insights/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-insights/pkg/models"
	"github.com/ekaya-inc/ekaya-insights/pkg/repositories"
)

// DatasetService defines the interface for dataset operations.
// Every method acts on behalf of ownerID.
type DatasetService interface {
	// Upload runs the full pipeline on r and stores the result. Nothing is
	// stored unless every step succeeds.
	Upload(ctx context.Context, ownerID uuid.UUID, fileName string, r io.Reader) (*models.Dataset, error)
	List(ctx context.Context, ownerID uuid.UUID, page, limit int) ([]*models.Dataset, models.Page, error)
	Get(ctx context.Context, ownerID, id uuid.UUID) (*models.Dataset, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

// datasetService implements DatasetService.
type datasetService struct {
	pipeline *Pipeline
	repo     repositories.DatasetRepository
	logger   *zap.Logger
}

// NewDatasetService creates a new dataset service with dependencies.
func NewDatasetService(pipeline *Pipeline, repo repositories.DatasetRepository, logger *zap.Logger) DatasetService {
	return &datasetService{
		pipeline: pipeline,
		repo:     repo,
		logger:   logger.Named("datasets"),
	}
}

func (s *datasetService) Upload(ctx context.Context, ownerID uuid.UUID, fileName string, r io.Reader) (*models.Dataset, error) {
	if ownerID == uuid.Nil {
		return nil, apperrors.ErrMissingOwner
	}

	report, err := s.pipeline.Run(ctx, fileName, r, true)
	if err != nil {
		return nil, err
	}

	dataset, err := s.repo.Create(ctx, ownerID, fileName, report.Summary, report.Insights)
	if err != nil {
		return nil, fmt.Errorf("failed to store dataset: %w", err)
	}

	s.logger.Info("Dataset uploaded",
		zap.String("dataset_id", dataset.ID.String()),
		zap.String("user_id", ownerID.String()),
		zap.Int("rows", report.Rows),
		zap.Int("numeric_columns", len(report.Summary)),
		zap.Int("insights", len(report.Insights)))

	return dataset, nil
}

func (s *datasetService) List(ctx context.Context, ownerID uuid.UUID, page, limit int) ([]*models.Dataset, models.Page, error) {
	page, limit = models.NormalizePage(page, limit)

	datasets, total, err := s.repo.ListByOwner(ctx, ownerID, page, limit)
	if err != nil {
		return nil, models.Page{}, fmt.Errorf("failed to list datasets: %w", err)
	}

	return datasets, models.Page{Page: page, Limit: limit, Total: total}, nil
}

func (s *datasetService) Get(ctx context.Context, ownerID, id uuid.UUID) (*models.Dataset, error) {
	dataset, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !dataset.IsOwnedBy(ownerID) {
		s.logger.Warn("Dataset access denied",
			zap.String("dataset_id", id.String()),
			zap.String("user_id", ownerID.String()))
		return nil, apperrors.ErrForbidden
	}

	return dataset, nil
}

func (s *datasetService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return err
	}

	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Dataset deleted",
		zap.String("dataset_id", id.String()),
		zap.String("user_id", ownerID.String()))
	return nil
}

// Ensure datasetService implements DatasetService at compile time.
var _ DatasetService = (*datasetService)(nil)
