package repositories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-insights/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-insights/pkg/models"
)

func ptr(f float64) *float64 { return &f }

var testSummary = []models.ColumnSummary{
	{Column: "score", Avg: ptr(20), Min: ptr(10), Max: ptr(30)},
	{Column: "empty"},
}

var testInsights = []models.Insight{
	{Insight: "Scores range from 10 to 30", Impact: "Wide spread"},
}

// runDatasetRepositoryContract exercises behavior every DatasetRepository
// implementation must share. newOwner returns an id usable as a dataset owner.
func runDatasetRepositoryContract(t *testing.T, ctx context.Context, repo DatasetRepository, newOwner func(t *testing.T) uuid.UUID) {
	t.Run("round trip", func(t *testing.T) {
		owner := newOwner(t)

		created, err := repo.Create(ctx, owner, "scores.csv", testSummary, testInsights)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, created.ID)
		assert.Equal(t, owner, created.UserID)
		assert.False(t, created.CreatedAt.IsZero())

		got, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "scores.csv", got.FileName)
		assert.Equal(t, owner, got.UserID)
		assert.Equal(t, testSummary, got.Summary)
		assert.Equal(t, testInsights, got.Insights)
		assert.Nil(t, got.Summary[1].Avg, "null stats must survive storage")
	})

	t.Run("missing owner", func(t *testing.T) {
		_, err := repo.Create(ctx, uuid.Nil, "x.csv", testSummary, testInsights)
		assert.ErrorIs(t, err, apperrors.ErrMissingOwner)
	})

	t.Run("nil slices stored as empty", func(t *testing.T) {
		created, err := repo.Create(ctx, newOwner(t), "x.csv", nil, nil)
		require.NoError(t, err)

		got, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Empty(t, got.Summary)
		assert.Empty(t, got.Insights)
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := repo.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("delete is not repeatable", func(t *testing.T) {
		created, err := repo.Create(ctx, newOwner(t), "x.csv", testSummary, testInsights)
		require.NoError(t, err)

		require.NoError(t, repo.DeleteByID(ctx, created.ID))

		_, err = repo.GetByID(ctx, created.ID)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)

		assert.ErrorIs(t, repo.DeleteByID(ctx, created.ID), apperrors.ErrNotFound)
		assert.ErrorIs(t, repo.DeleteByID(ctx, created.ID), apperrors.ErrNotFound)
	})

	t.Run("list newest first with pagination", func(t *testing.T) {
		owner := newOwner(t)
		other := newOwner(t)

		var ids []uuid.UUID
		for _, name := range []string{"a.csv", "b.csv", "c.csv"} {
			created, err := repo.Create(ctx, owner, name, testSummary, testInsights)
			require.NoError(t, err)
			ids = append(ids, created.ID)
		}
		_, err := repo.Create(ctx, other, "foreign.csv", testSummary, testInsights)
		require.NoError(t, err)

		first, total, err := repo.ListByOwner(ctx, owner, 1, 2)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		require.Len(t, first, 2)
		assert.Equal(t, ids[2], first[0].ID)
		assert.Equal(t, ids[1], first[1].ID)

		second, total, err := repo.ListByOwner(ctx, owner, 2, 2)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		require.Len(t, second, 1)
		assert.Equal(t, ids[0], second[0].ID)

		beyond, total, err := repo.ListByOwner(ctx, owner, 5, 2)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		assert.Empty(t, beyond)
	})

	t.Run("list for owner without datasets", func(t *testing.T) {
		datasets, total, err := repo.ListByOwner(ctx, newOwner(t), 1, 20)
		require.NoError(t, err)
		assert.Equal(t, 0, total)
		assert.Empty(t, datasets)
	})
}

// runUserRepositoryContract exercises behavior every UserRepository
// implementation must share.
func runUserRepositoryContract(t *testing.T, ctx context.Context, repo UserRepository) {
	t.Run("create and lookup", func(t *testing.T) {
		email := uuid.NewString() + "@Example.com"
		user := &models.User{Name: "Ada", Email: "  " + email, PasswordHash: "hash"}
		require.NoError(t, repo.Create(ctx, user))
		assert.NotEqual(t, uuid.Nil, user.ID)
		assert.Equal(t, models.NormalizeEmail(email), user.Email)

		byEmail, err := repo.GetByEmail(ctx, email)
		require.NoError(t, err)
		assert.Equal(t, user.ID, byEmail.ID)
		assert.Equal(t, "hash", byEmail.PasswordHash)

		byID, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "Ada", byID.Name)
	})

	t.Run("duplicate email", func(t *testing.T) {
		email := uuid.NewString() + "@example.com"
		require.NoError(t, repo.Create(ctx, &models.User{Name: "A", Email: email, PasswordHash: "h"}))

		err := repo.Create(ctx, &models.User{Name: "B", Email: "  " + email, PasswordHash: "h"})
		assert.ErrorIs(t, err, apperrors.ErrConflict)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := repo.GetByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)

		_, err = repo.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}
