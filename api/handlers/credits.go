package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// CreditsHandler serves the local credit balance.
type CreditsHandler struct {
	svc    GenerationService
	logger *zap.Logger
}

// NewCreditsHandler creates the handler.
func NewCreditsHandler(svc GenerationService, logger *zap.Logger) *CreditsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CreditsHandler{svc: svc, logger: logger}
}

// CreditsResponse is the GET /api/credits payload. Source marks the balance
// as locally tracked, not fetched from the remote provider.
type CreditsResponse struct {
	FreeBalance   int64     `json:"free_balance"`
	TotalConsumed int64     `json:"total_consumed"`
	LastUpdated   time.Time `json:"last_updated"`
	Source        string    `json:"source"`
}

// HandleCredits handles GET /api/credits.
func (h *CreditsHandler) HandleCredits(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.CreditStatus(r.Context())
	if err != nil {
		writeTypedError(w, err, h.logger)
		return
	}

	WriteSuccess(w, CreditsResponse{
		FreeBalance:   snap.FreeBalance,
		TotalConsumed: snap.TotalConsumed,
		LastUpdated:   snap.LastUpdated,
		Source:        "local",
	})
}
