package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"
)

// ModelsHandler serves the persisted model collection.
type ModelsHandler struct {
	svc    GenerationService
	logger *zap.Logger
}

// NewModelsHandler creates the handler.
func NewModelsHandler(svc GenerationService, logger *zap.Logger) *ModelsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModelsHandler{svc: svc, logger: logger}
}

// ModelListResponse is the GET /api/models payload.
type ModelListResponse struct {
	Models interface{} `json:"models"`
	Total  int         `json:"total"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

// HandleList handles GET /api/models with limit/offset query parameters.
func (h *ModelsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 0)
	offset := queryInt(r, "offset", 0)

	models, total, err := h.svc.ListModels(r.Context(), limit, offset)
	if err != nil {
		writeTypedError(w, err, h.logger)
		return
	}

	WriteSuccess(w, ModelListResponse{
		Models: models,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// HandleGet handles GET /api/models/{id}.
func (h *ModelsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.GetModel(r.Context(), r.PathValue("id"))
	if err != nil {
		writeTypedError(w, err, h.logger)
		return
	}

	WriteSuccess(w, rec)
}

// HandleDownload handles GET /api/models/{id}/download. The artifact is
// fetched from the remote provider on first access and served from the local
// cache afterwards.
func (h *ModelsHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	path, err := h.svc.DownloadModel(r.Context(), id)
	if err != nil {
		writeTypedError(w, err, h.logger)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", filepath.Base(path)))
	http.ServeFile(w, r, path)
}

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
