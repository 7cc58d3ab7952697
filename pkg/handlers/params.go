package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ParseDatasetID extracts and validates the dataset ID from the request path.
// Returns the parsed UUID and true on success, or uuid.Nil and false on error
// (after writing an error response).
// Expects path parameter: id
func ParseDatasetID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "id", "invalid_dataset_id", "Invalid dataset ID format", logger)
}

// ParsePagination reads the page and limit query parameters. Missing or
// non-numeric values come back as 0 so the service applies its defaults.
func ParsePagination(r *http.Request) (page, limit int) {
	query := r.URL.Query()
	page, _ = strconv.Atoi(query.Get("page"))
	limit, _ = strconv.Atoi(query.Get("limit"))
	return page, limit
}

// parseUUID is the internal helper that does the actual parsing work.
func parseUUID(w http.ResponseWriter, r *http.Request, pathParam, errorCode, errorMessage string, logger *zap.Logger) (uuid.UUID, bool) {
	idStr := r.PathValue(pathParam)
	id, err := uuid.Parse(idStr)
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, errorCode, errorMessage); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return uuid.Nil, false
	}
	return id, true
}
