package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-insights/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-insights/pkg/auth"
	"github.com/ekaya-inc/ekaya-insights/pkg/models"
	"github.com/ekaya-inc/ekaya-insights/pkg/services"
)

// DatasetListResponse is one page of the caller's datasets.
type DatasetListResponse struct {
	Datasets []*models.Dataset `json:"datasets"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
	Total    int               `json:"total"`
}

// DeleteDatasetResponse confirms a deletion.
type DeleteDatasetResponse struct {
	Message string    `json:"message"`
	ID      uuid.UUID `json:"id"`
}

// DatasetsHandler serves the dataset listing, detail and delete endpoints.
type DatasetsHandler struct {
	datasetService services.DatasetService
	logger         *zap.Logger
}

// NewDatasetsHandler creates a new datasets handler.
func NewDatasetsHandler(datasetService services.DatasetService, logger *zap.Logger) *DatasetsHandler {
	return &DatasetsHandler{
		datasetService: datasetService,
		logger:         logger,
	}
}

// RegisterRoutes registers the dataset routes behind authentication.
func (h *DatasetsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, scope func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("GET /api/datasets", authMiddleware.RequireAuth(scope(h.List)))
	mux.HandleFunc("GET /api/datasets/{id}", authMiddleware.RequireAuth(scope(h.Get)))
	mux.HandleFunc("DELETE /api/datasets/{id}", authMiddleware.RequireAuth(scope(h.Delete)))
}

// List handles GET /api/datasets?page=&limit=
func (h *DatasetsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	page, limit := ParsePagination(r)
	datasets, p, err := h.datasetService.List(r.Context(), userID, page, limit)
	if err != nil {
		h.logger.Error("Failed to list datasets", zap.String("user_id", userID.String()), zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Server error")
		return
	}

	if datasets == nil {
		datasets = []*models.Dataset{}
	}

	if err := WriteJSON(w, http.StatusOK, DatasetListResponse{
		Datasets: datasets,
		Page:     p.Page,
		Limit:    p.Limit,
		Total:    p.Total,
	}); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// Get handles GET /api/datasets/{id}
func (h *DatasetsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	id, ok := ParseDatasetID(w, r, h.logger)
	if !ok {
		return
	}

	dataset, err := h.datasetService.Get(r.Context(), userID, id)
	if err != nil {
		h.writeLookupError(w, id, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, dataset); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// Delete handles DELETE /api/datasets/{id}
func (h *DatasetsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	id, ok := ParseDatasetID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.datasetService.Delete(r.Context(), userID, id); err != nil {
		h.writeLookupError(w, id, err)
		return
	}

	h.logger.Info("Dataset deleted",
		zap.String("user_id", userID.String()),
		zap.String("dataset_id", id.String()))

	if err := WriteJSON(w, http.StatusOK, DeleteDatasetResponse{
		Message: "Dataset deleted",
		ID:      id,
	}); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (h *DatasetsHandler) requireUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, err := auth.RequireUserUUIDFromContext(r.Context())
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return uuid.Nil, false
	}
	return userID, true
}

func (h *DatasetsHandler) writeLookupError(w http.ResponseWriter, id uuid.UUID, err error) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "not_found", "Dataset not found")
	case errors.Is(err, apperrors.ErrForbidden):
		h.writeError(w, http.StatusForbidden, "forbidden", "Access denied")
	default:
		h.logger.Error("Dataset operation failed", zap.String("dataset_id", id.String()), zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Server error")
	}
}

func (h *DatasetsHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	if err := ErrorResponse(w, status, code, message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
