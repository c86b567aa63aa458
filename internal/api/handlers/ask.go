package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/finsight-ai/finsight/internal/api"
	"github.com/finsight-ai/finsight/internal/domain"
)

type AnswerService interface {
	Ask(ctx context.Context, question string) (*domain.Answer, error)
}

type AskHandler struct {
	svc AnswerService
}

func NewAskHandler(svc AnswerService) *AskHandler {
	return &AskHandler{svc: svc}
}

type AskRequest struct {
	Question string `json:"question"`
}

type AskResponse struct {
	Question   string             `json:"question"`
	Answer     string             `json:"answer"`
	Method     string             `json:"method"`
	Confidence string             `json:"confidence"`
	Sources    []domain.SourceRef `json:"sources"`
	Timestamp  string             `json:"timestamp"`
}

func answerToResponse(a *domain.Answer) *AskResponse {
	return &AskResponse{
		Question:   a.Question,
		Answer:     a.Answer,
		Method:     string(a.Method),
		Confidence: string(a.Confidence),
		Sources:    a.Sources,
		Timestamp:  a.Timestamp.UTC().Format(time.RFC3339),
	}
}

func (h *AskHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Question == "" {
		api.Error(w, http.StatusBadRequest, "question is required")
		return
	}

	answer, err := h.svc.Ask(r.Context(), req.Question)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, answerToResponse(answer))
}
