package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-insights/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-insights/pkg/auth"
	"github.com/ekaya-inc/ekaya-insights/pkg/ingest"
	"github.com/ekaya-inc/ekaya-insights/pkg/models"
	"github.com/ekaya-inc/ekaya-insights/pkg/services"
)

// UploadFormField is the multipart field holding the CSV file.
const UploadFormField = "file"

// UploadResponse is returned after a dataset has been processed and stored.
type UploadResponse struct {
	Message string          `json:"message"`
	Dataset *models.Dataset `json:"dataset"`
}

// UploadConfig bounds and locates staged uploads.
type UploadConfig struct {
	MaxBytes int64
	// TempDir holds staged files; os.TempDir() when empty.
	TempDir string
}

// UploadHandler accepts CSV uploads and runs them through the dataset pipeline.
type UploadHandler struct {
	datasetService services.DatasetService
	cfg            UploadConfig
	logger         *zap.Logger
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(datasetService services.DatasetService, cfg UploadConfig, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{
		datasetService: datasetService,
		cfg:            cfg,
		logger:         logger,
	}
}

// RegisterRoutes registers the upload route behind authentication.
func (h *UploadHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, scope func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("POST /api/upload/fileupload", authMiddleware.RequireAuth(scope(h.Upload)))
}

// Upload handles POST /api/upload/fileupload.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.RequireUserUUIDFromContext(r.Context())
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	if h.cfg.MaxBytes > 0 {
		if r.ContentLength > h.cfg.MaxBytes {
			h.writeTooLarge(w)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxBytes)
	}

	file, header, err := r.FormFile(UploadFormField)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxBytesErr):
			h.writeTooLarge(w)
		case errors.Is(err, http.ErrMissingFile):
			h.writeError(w, http.StatusBadRequest, "missing_file", "No file uploaded")
		default:
			h.logger.Warn("Invalid multipart upload", zap.Error(err))
			h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid multipart form")
		}
		return
	}
	defer file.Close()

	if err := ingest.ValidateUpload(header.Filename, header.Header.Get("Content-Type")); err != nil {
		h.logger.Warn("Rejected upload",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		h.writeError(w, http.StatusBadRequest, "invalid_file", err.Error())
		return
	}

	staged, cleanup, err := h.stage(file)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.writeTooLarge(w)
			return
		}
		h.logger.Error("Failed to stage upload", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "upload_failed", "Failed to process dataset")
		return
	}
	defer cleanup()

	fileName := ingest.CleanFileName(header.Filename)
	dataset, err := h.datasetService.Upload(r.Context(), userID, fileName, staged)
	if err != nil {
		var parseErr *ingest.ParseError
		switch {
		case errors.Is(err, apperrors.ErrEmptyDataset), errors.Is(err, apperrors.ErrNoNumericColumns):
			h.writeError(w, http.StatusBadRequest, "invalid_dataset", err.Error())
		case errors.As(err, &parseErr):
			h.writeError(w, http.StatusBadRequest, "invalid_csv", parseErr.Error())
		default:
			h.logger.Error("Upload failed",
				zap.String("user_id", userID.String()),
				zap.String("file_name", fileName),
				zap.Error(err))
			h.writeError(w, http.StatusInternalServerError, "upload_failed", "Failed to process dataset")
		}
		return
	}

	if err := WriteJSON(w, http.StatusCreated, UploadResponse{
		Message: "Dataset uploaded and processed successfully",
		Dataset: dataset,
	}); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
	}
}

// stage copies the upload to a temp file positioned at its start. The
// returned cleanup closes and removes the file and must always be called.
func (h *UploadHandler) stage(src io.Reader) (*os.File, func(), error) {
	tmp, err := os.CreateTemp(h.cfg.TempDir, "upload-*.csv")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create temp file: %w", err)
	}

	cleanup := func() {
		_ = tmp.Close()
		if err := os.Remove(tmp.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
			h.logger.Warn("Failed to remove staged upload", zap.String("path", tmp.Name()), zap.Error(err))
		}
	}

	if _, err := io.Copy(tmp, src); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to rewind temp file: %w", err)
	}

	return tmp, cleanup, nil
}

func (h *UploadHandler) writeTooLarge(w http.ResponseWriter) {
	h.writeError(w, http.StatusRequestEntityTooLarge, "file_too_large",
		fmt.Sprintf("File exceeds the %d byte upload limit", h.cfg.MaxBytes))
}

func (h *UploadHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	if err := ErrorResponse(w, status, code, message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
