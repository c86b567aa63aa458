package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/finsight-ai/finsight/internal/api/handlers"
	"github.com/finsight-ai/finsight/internal/domain"
	"github.com/finsight-ai/finsight/internal/knowledge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAnswerService struct {
	mock.Mock
}

func (m *MockAnswerService) Ask(ctx context.Context, question string) (*domain.Answer, error) {
	args := m.Called(ctx, question)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Answer), args.Error(1)
}

type MockKnowledgeManager struct {
	mock.Mock
}

func (m *MockKnowledgeManager) Add(ctx context.Context, input knowledge.AddInput) (*domain.QAEntry, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QAEntry), args.Error(1)
}

func (m *MockKnowledgeManager) Update(ctx context.Context, question string, fields knowledge.UpdateFields) (*domain.QAEntry, error) {
	args := m.Called(ctx, question, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QAEntry), args.Error(1)
}

func (m *MockKnowledgeManager) Delete(ctx context.Context, question string) error {
	args := m.Called(ctx, question)
	return args.Error(0)
}

func (m *MockKnowledgeManager) Search(ctx context.Context, query, category string) []*domain.QAEntry {
	args := m.Called(ctx, query, category)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]*domain.QAEntry)
}

func (m *MockKnowledgeManager) Import(ctx context.Context, entries []*domain.QAEntry, categoryOverride string) (*knowledge.ImportResult, error) {
	args := m.Called(ctx, entries, categoryOverride)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*knowledge.ImportResult), args.Error(1)
}

func (m *MockKnowledgeManager) Export(ctx context.Context, category string) (*knowledge.CategoryExport, error) {
	args := m.Called(ctx, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*knowledge.CategoryExport), args.Error(1)
}

func (m *MockKnowledgeManager) Validate(ctx context.Context) *knowledge.ValidationReport {
	args := m.Called(ctx)
	return args.Get(0).(*knowledge.ValidationReport)
}

func (m *MockKnowledgeManager) Report(ctx context.Context) *knowledge.Report {
	args := m.Called(ctx)
	return args.Get(0).(*knowledge.Report)
}

func setupRouter(apiKey string) (http.Handler, *MockAnswerService, *MockKnowledgeManager) {
	answerSvc := new(MockAnswerService)
	mgr := new(MockKnowledgeManager)

	cfg := RouterConfig{
		APIKey:        apiKey,
		AskHandler:    handlers.NewAskHandler(answerSvc),
		KBHandler:     handlers.NewKBHandler(mgr),
		HealthHandler: handlers.NewHealthHandler(knowledge.NewStore(), nil),
	}

	return NewRouter(cfg), answerSvc, mgr
}

func TestRouter_HealthEndpoint(t *testing.T) {
	router, _, _ := setupRouter("test-key")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "ok", data["status"])
	assert.Equal(t, "disabled", data["retrieval"])
	assert.Equal(t, float64(0), data["qa_pairs"])
}

func TestRouter_AuthenticatedRoutes_RequireAuth(t *testing.T) {
	router, _, _ := setupRouter("test-key")

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/ask"},
		{http.MethodPost, "/kb"},
		{http.MethodPut, "/kb"},
		{http.MethodDelete, "/kb"},
		{http.MethodGet, "/kb/search"},
		{http.MethodGet, "/kb/validate"},
		{http.MethodGet, "/kb/report"},
		{http.MethodGet, "/kb/export/bonds"},
		{http.MethodPost, "/kb/import"},
	}

	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			req := httptest.NewRequest(route.method, route.path, nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestRouter_Ask_WithValidAuth(t *testing.T) {
	router, answerSvc, _ := setupRouter("test-key")

	expected := &domain.Answer{
		Question:   "What is a bond?",
		Answer:     "A bond is a fixed income instrument.",
		Method:     domain.MethodCurated,
		Confidence: domain.ConfidenceHigh,
		Sources:    []domain.SourceRef{},
		Timestamp:  time.Now().UTC(),
	}
	answerSvc.On("Ask", mock.Anything, "What is a bond?").Return(expected, nil)

	body := strings.NewReader(`{"question": "What is a bond?"}`)
	req := httptest.NewRequest(http.MethodPost, "/ask", body)
	req.Header.Set("Authorization", "Bearer test-key")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	answerSvc.AssertExpectations(t)

	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "curated", data["method"])
}

func TestRouter_Ask_WrongKey(t *testing.T) {
	router, answerSvc, _ := setupRouter("test-key")

	body := strings.NewReader(`{"question": "What is a bond?"}`)
	req := httptest.NewRequest(http.MethodPost, "/ask", body)
	req.Header.Set("Authorization", "Bearer wrong-key")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	answerSvc.AssertNotCalled(t, "Ask", mock.Anything, mock.Anything)
}

func TestRouter_NoAPIKeyConfigured_AllowsRequests(t *testing.T) {
	router, _, mgr := setupRouter("")

	mgr.On("Search", mock.Anything, "etf", "").Return([]*domain.QAEntry{})

	req := httptest.NewRequest(http.MethodGet, "/kb/search?q=etf", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mgr.AssertExpectations(t)
}

func TestRouter_Delete_RequiresQuestion(t *testing.T) {
	router, _, mgr := setupRouter("")

	req := httptest.NewRequest(http.MethodDelete, "/kb", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mgr.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}
