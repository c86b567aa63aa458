package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/finsight-ai/finsight/internal/api"
	"github.com/finsight-ai/finsight/internal/domain"
	"github.com/finsight-ai/finsight/internal/knowledge"
	"github.com/go-chi/chi/v5"
)

type KnowledgeManager interface {
	Add(ctx context.Context, input knowledge.AddInput) (*domain.QAEntry, error)
	Update(ctx context.Context, question string, fields knowledge.UpdateFields) (*domain.QAEntry, error)
	Delete(ctx context.Context, question string) error
	Search(ctx context.Context, query, category string) []*domain.QAEntry
	Import(ctx context.Context, entries []*domain.QAEntry, categoryOverride string) (*knowledge.ImportResult, error)
	Export(ctx context.Context, category string) (*knowledge.CategoryExport, error)
	Validate(ctx context.Context) *knowledge.ValidationReport
	Report(ctx context.Context) *knowledge.Report
}

type KBHandler struct {
	mgr KnowledgeManager
}

func NewKBHandler(mgr KnowledgeManager) *KBHandler {
	return &KBHandler{mgr: mgr}
}

type AddEntryRequest struct {
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Context    string `json:"context"`
	Category   string `json:"category"`
	Source     string `json:"source"`
	Confidence string `json:"confidence"`
}

func (h *KBHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req AddEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Question == "" {
		api.Error(w, http.StatusBadRequest, "question is required")
		return
	}
	if req.Answer == "" {
		api.Error(w, http.StatusBadRequest, "answer is required")
		return
	}
	if req.Category == "" {
		api.Error(w, http.StatusBadRequest, "category is required")
		return
	}

	input := knowledge.AddInput{
		Question:   req.Question,
		Answer:     req.Answer,
		Context:    req.Context,
		Category:   req.Category,
		Source:     req.Source,
		Confidence: domain.Confidence(req.Confidence),
	}

	entry, err := h.mgr.Add(r.Context(), input)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, entry)
}

type UpdateEntryRequest struct {
	Question   string  `json:"question"`
	Answer     *string `json:"answer,omitempty"`
	Context    *string `json:"context,omitempty"`
	Category   *string `json:"category,omitempty"`
	Confidence *string `json:"confidence,omitempty"`
}

func (h *KBHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Question == "" {
		api.Error(w, http.StatusBadRequest, "question is required")
		return
	}
	if req.Answer == nil && req.Context == nil && req.Category == nil && req.Confidence == nil {
		api.Error(w, http.StatusBadRequest, "no fields to update")
		return
	}

	fields := knowledge.UpdateFields{
		Answer:   req.Answer,
		Context:  req.Context,
		Category: req.Category,
	}
	if req.Confidence != nil {
		conf := domain.Confidence(*req.Confidence)
		fields.Confidence = &conf
	}

	entry, err := h.mgr.Update(r.Context(), req.Question, fields)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, entry)
}

func (h *KBHandler) Delete(w http.ResponseWriter, r *http.Request) {
	question := r.URL.Query().Get("question")
	if question == "" {
		api.Error(w, http.StatusBadRequest, "question is required")
		return
	}

	if err := h.mgr.Delete(r.Context(), question); err != nil {
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusNoContent, nil)
}

type SearchResponse struct {
	Results []*domain.QAEntry `json:"results"`
	Count   int               `json:"count"`
}

func (h *KBHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		api.Error(w, http.StatusBadRequest, "q is required")
		return
	}
	category := r.URL.Query().Get("category")

	results := h.mgr.Search(r.Context(), query, category)
	if results == nil {
		results = []*domain.QAEntry{}
	}

	api.Success(w, http.StatusOK, SearchResponse{
		Results: results,
		Count:   len(results),
	})
}

type ImportRequest struct {
	QAPairs  []*domain.QAEntry `json:"qa_pairs"`
	Category string            `json:"category"`
}

func (h *KBHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.QAPairs) == 0 {
		api.Error(w, http.StatusBadRequest, "qa_pairs is required")
		return
	}

	result, err := h.mgr.Import(r.Context(), req.QAPairs, req.Category)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, result)
}

func (h *KBHandler) Export(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	if category == "" {
		api.Error(w, http.StatusBadRequest, "category is required")
		return
	}

	export, err := h.mgr.Export(r.Context(), category)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, export)
}

func (h *KBHandler) Validate(w http.ResponseWriter, r *http.Request) {
	report := h.mgr.Validate(r.Context())
	api.Success(w, http.StatusOK, report)
}

func (h *KBHandler) Report(w http.ResponseWriter, r *http.Request) {
	report := h.mgr.Report(r.Context())
	api.Success(w, http.StatusOK, report)
}
