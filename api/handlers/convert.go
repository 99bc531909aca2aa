package handlers

import (
	"net/http"

	"go.uber.org/zap"
)

// ConvertHandler acknowledges format conversion requests.
type ConvertHandler struct {
	svc    GenerationService
	logger *zap.Logger
}

// NewConvertHandler creates the handler.
func NewConvertHandler(svc GenerationService, logger *zap.Logger) *ConvertHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConvertHandler{svc: svc, logger: logger}
}

// ConvertRequest is the POST /api/convert body.
type ConvertRequest struct {
	ModelID      string `json:"model_id"`
	TargetFormat string `json:"target_format"`
}

// HandleConvert handles POST /api/convert.
func (h *ConvertHandler) HandleConvert(w http.ResponseWriter, r *http.Request) {
	if !ValidateContentType(w, r, h.logger) {
		return
	}

	var req ConvertRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	job, err := h.svc.ConvertFormat(r.Context(), req.ModelID, req.TargetFormat)
	if err != nil {
		writeTypedError(w, err, h.logger)
		return
	}

	WriteSuccess(w, job)
}
