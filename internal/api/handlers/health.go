package handlers

import (
	"context"
	"net/http"

	"github.com/finsight-ai/finsight/internal/api"
	"github.com/finsight-ai/finsight/internal/knowledge"
)

type StoreInfo interface {
	Metadata() knowledge.Metadata
}

// Pinger reports whether the retrieval backend is reachable. Satisfied
// by pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	store  StoreInfo
	pinger Pinger
}

func NewHealthHandler(store StoreInfo, pinger Pinger) *HealthHandler {
	return &HealthHandler{store: store, pinger: pinger}
}

type HealthResponse struct {
	Status     string `json:"status"`
	QAPairs    int    `json:"qa_pairs"`
	Categories int    `json:"categories"`
	Retrieval  string `json:"retrieval"`
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Retrieval: "ok"}

	if h.store != nil {
		meta := h.store.Metadata()
		resp.QAPairs = meta.TotalQAPairs
		resp.Categories = len(meta.Categories)
	}

	if h.pinger == nil {
		resp.Retrieval = "disabled"
	} else if err := h.pinger.Ping(r.Context()); err != nil {
		resp.Retrieval = "unavailable"
	}

	api.Success(w, http.StatusOK, resp)
}
