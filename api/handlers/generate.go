package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/hamadhk7/3D-AR-GENERATOR/generation"
	"github.com/hamadhk7/3D-AR-GENERATOR/ledger"
	"github.com/hamadhk7/3D-AR-GENERATOR/store"
	"github.com/hamadhk7/3D-AR-GENERATOR/tripo"
)

// GenerationService is the orchestration surface the handlers expose over
// HTTP.
type GenerationService interface {
	Generate(ctx context.Context, req *tripo.SubmitRequest) (*store.ModelRecord, error)
	ListModels(ctx context.Context, limit, offset int) ([]store.ModelRecord, int, error)
	GetModel(ctx context.Context, id string) (*store.ModelRecord, error)
	DownloadModel(ctx context.Context, id string) (string, error)
	CreditStatus(ctx context.Context) (*ledger.Snapshot, error)
	ConvertFormat(ctx context.Context, id, targetFormat string) (*generation.ConvertJob, error)
}

// GenerateRequest is the POST /api/generate body.
type GenerateRequest struct {
	Prompt         string `json:"prompt"`
	Format         string `json:"format,omitempty"`
	Quality        string `json:"quality,omitempty"`
	Seed           *int   `json:"seed,omitempty"`
	NegativePrompt string `json:"negative_prompt,omitempty"`
}

// GenerateHandler serves the synchronous generation endpoint. The request
// blocks until the remote job reaches a terminal state.
type GenerateHandler struct {
	svc    GenerationService
	logger *zap.Logger
}

// NewGenerateHandler creates the handler.
func NewGenerateHandler(svc GenerationService, logger *zap.Logger) *GenerateHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GenerateHandler{svc: svc, logger: logger}
}

// HandleGenerate handles POST /api/generate.
func (h *GenerateHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	if !ValidateContentType(w, r, h.logger) {
		return
	}

	var req GenerateRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	rec, err := h.svc.Generate(r.Context(), &tripo.SubmitRequest{
		Prompt:         req.Prompt,
		Format:         req.Format,
		Quality:        req.Quality,
		Seed:           req.Seed,
		NegativePrompt: req.NegativePrompt,
	})
	if err != nil {
		writeTypedError(w, err, h.logger)
		return
	}

	WriteSuccess(w, rec)
}
