package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ekaya-inc/ekaya-insights/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-insights/pkg/models"
)

type memoryDataset struct {
	dataset models.Dataset
	seq     uint64
}

// memoryDatasetRepository implements DatasetRepository in process memory.
// It is safe for concurrent use.
type memoryDatasetRepository struct {
	mu       sync.RWMutex
	datasets map[uuid.UUID]*memoryDataset
	seq      uint64
	now      func() time.Time
}

// NewMemoryDatasetRepository creates an empty in-memory dataset repository.
func NewMemoryDatasetRepository() DatasetRepository {
	return &memoryDatasetRepository{
		datasets: make(map[uuid.UUID]*memoryDataset),
		now:      time.Now,
	}
}

func (r *memoryDatasetRepository) Create(ctx context.Context, ownerID uuid.UUID, fileName string, summary []models.ColumnSummary, insights []models.Insight) (*models.Dataset, error) {
	if ownerID == uuid.Nil {
		return nil, apperrors.ErrMissingOwner
	}

	now := r.now().UTC()
	dataset := models.Dataset{
		ID:        uuid.New(),
		UserID:    ownerID,
		FileName:  fileName,
		Summary:   cloneSummary(summary),
		Insights:  cloneInsights(insights),
		CreatedAt: now,
		UpdatedAt: now,
	}

	r.mu.Lock()
	r.seq++
	r.datasets[dataset.ID] = &memoryDataset{dataset: dataset, seq: r.seq}
	r.mu.Unlock()

	return copyDataset(&dataset), nil
}

func (r *memoryDatasetRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, page, limit int) ([]*models.Dataset, int, error) {
	page, limit = models.NormalizePage(page, limit)

	r.mu.RLock()
	owned := make([]*memoryDataset, 0)
	for _, entry := range r.datasets {
		if entry.dataset.UserID == ownerID {
			owned = append(owned, entry)
		}
	}
	r.mu.RUnlock()

	sort.Slice(owned, func(i, j int) bool {
		a, b := owned[i], owned[j]
		if !a.dataset.CreatedAt.Equal(b.dataset.CreatedAt) {
			return a.dataset.CreatedAt.After(b.dataset.CreatedAt)
		}
		return a.seq > b.seq
	})

	total := len(owned)
	start := (page - 1) * limit
	if start >= total {
		return []*models.Dataset{}, total, nil
	}
	end := min(start+limit, total)

	result := make([]*models.Dataset, 0, end-start)
	for _, entry := range owned[start:end] {
		result = append(result, copyDataset(&entry.dataset))
	}
	return result, total, nil
}

func (r *memoryDatasetRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Dataset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.datasets[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return copyDataset(&entry.dataset), nil
}

func (r *memoryDatasetRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.datasets[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.datasets, id)
	return nil
}

func copyDataset(d *models.Dataset) *models.Dataset {
	c := *d
	c.Summary = cloneSummary(d.Summary)
	c.Insights = cloneInsights(d.Insights)
	return &c
}

func cloneSummary(summary []models.ColumnSummary) []models.ColumnSummary {
	out := make([]models.ColumnSummary, len(summary))
	for i, s := range summary {
		out[i] = models.ColumnSummary{
			Column: s.Column,
			Avg:    cloneFloat(s.Avg),
			Min:    cloneFloat(s.Min),
			Max:    cloneFloat(s.Max),
		}
	}
	return out
}

func cloneInsights(insights []models.Insight) []models.Insight {
	out := make([]models.Insight, len(insights))
	copy(out, insights)
	return out
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

// Ensure memoryDatasetRepository implements DatasetRepository at compile time.
var _ DatasetRepository = (*memoryDatasetRepository)(nil)
