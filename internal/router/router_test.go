package router

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/finsight-ai/finsight/internal/domain"
	"github.com/finsight-ai/finsight/internal/retrieval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRetriever is a mock implementation of retrieval.Retriever
type MockRetriever struct {
	mock.Mock
}

func (m *MockRetriever) Search(ctx context.Context, query string, corpus retrieval.Corpus, k int) ([]retrieval.Result, error) {
	args := m.Called(ctx, query, corpus, k)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]retrieval.Result), args.Error(1)
}

// MockGenerator is a mock implementation of Generator
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func newTestRouter(t *testing.T, retriever retrieval.Retriever, generator Generator) *Router {
	t.Helper()
	r, err := New(Config{Retriever: retriever, Generator: generator})
	require.NoError(t, err)
	return r
}

func curatedResult(question, answer, docID string, confidence domain.Confidence, score float64) retrieval.Result {
	return retrieval.Result{
		Content: "Question: " + question,
		Score:   score,
		Metadata: retrieval.Metadata{
			Question:   question,
			Answer:     answer,
			Context:    "ctx",
			Category:   "roth_ira_basics",
			Source:     "Bogleheads Wiki",
			DocID:      docID,
			Confidence: confidence,
		},
	}
}

func docResult(title, url, content string, score float64) retrieval.Result {
	return retrieval.Result{
		Content:  content,
		Score:    score,
		Metadata: retrieval.Metadata{Title: title, URL: url},
	}
}

func TestAskCuratedTier(t *testing.T) {
	ctx := context.Background()

	t.Run("accepts below threshold without generation", func(t *testing.T) {
		retriever := new(MockRetriever)
		generator := new(MockGenerator)
		r := newTestRouter(t, retriever, generator)

		retriever.On("Search", ctx, "What is a Roth IRA?", retrieval.CorpusCurated, 2).
			Return([]retrieval.Result{
				curatedResult("What is a Roth IRA?", "An after-tax retirement account.", "doc-1", domain.ConfidenceHigh, 0.05),
				curatedResult("What is a Traditional IRA?", "A pre-tax retirement account.", "doc-2", domain.ConfidenceHigh, 0.60),
			}, nil)

		answer, err := r.Ask(ctx, "What is a Roth IRA?")
		require.NoError(t, err)

		assert.Equal(t, domain.MethodCurated, answer.Method)
		assert.Equal(t, domain.ConfidenceHigh, answer.Confidence)
		assert.Equal(t, "An after-tax retirement account.", answer.Answer)
		require.Len(t, answer.Sources, 1)
		assert.Equal(t, domain.SourceTypeQAPair, answer.Sources[0].Type)
		assert.Equal(t, "What is a Roth IRA?", answer.Sources[0].Question)
		assert.Equal(t, "roth_ira_basics", answer.Sources[0].Category)
		assert.Equal(t, 0.05, answer.Sources[0].Score)

		// Tier priority: the generator is never consulted.
		generator.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
		retriever.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, retrieval.CorpusDocuments, mock.Anything)
	})

	t.Run("score at threshold is rejected", func(t *testing.T) {
		retriever := new(MockRetriever)
		generator := new(MockGenerator)
		r := newTestRouter(t, retriever, generator)

		retriever.On("Search", ctx, "q", retrieval.CorpusCurated, 2).
			Return([]retrieval.Result{curatedResult("q", "a", "doc-1", domain.ConfidenceHigh, DefaultCuratedThreshold)}, nil)
		retriever.On("Search", ctx, "q", retrieval.CorpusDocuments, 3).
			Return([]retrieval.Result{}, nil)
		generator.On("Generate", ctx, mock.Anything).Return("generated", nil)

		answer, err := r.Ask(ctx, "q")
		require.NoError(t, err)
		assert.Equal(t, domain.MethodFallback, answer.Method)
	})

	t.Run("tie-break prefers higher stored confidence then smaller doc_id", func(t *testing.T) {
		retriever := new(MockRetriever)
		generator := new(MockGenerator)
		r := newTestRouter(t, retriever, generator)

		retriever.On("Search", ctx, "q", retrieval.CorpusCurated, 2).
			Return([]retrieval.Result{
				curatedResult("q variant low", "low answer", "doc-a", domain.ConfidenceLow, 0.10),
				curatedResult("q variant high", "high answer", "doc-b", domain.ConfidenceHigh, 0.10),
			}, nil)

		answer, err := r.Ask(ctx, "q")
		require.NoError(t, err)
		assert.Equal(t, "high answer", answer.Answer)
	})

	t.Run("doc_id breaks a full tie deterministically", func(t *testing.T) {
		best := selectBest([]retrieval.Result{
			curatedResult("q1", "answer b", "doc-b", domain.ConfidenceHigh, 0.10),
			curatedResult("q2", "answer a", "doc-a", domain.ConfidenceHigh, 0.10),
		})
		assert.Equal(t, "doc-a", best.Metadata.DocID)
	})
}

func TestAskGroundedTier(t *testing.T) {
	ctx := context.Background()

	t.Run("synthesizes from passages with one generation call", func(t *testing.T) {
		retriever := new(MockRetriever)
		generator := new(MockGenerator)
		r := newTestRouter(t, retriever, generator)

		retriever.On("Search", ctx, "How do RMDs work?", retrieval.CorpusCurated, 2).
			Return([]retrieval.Result{}, nil)
		retriever.On("Search", ctx, "How do RMDs work?", retrieval.CorpusDocuments, 3).
			Return([]retrieval.Result{
				docResult("RMD rules", "https://example.org/rmd", "RMDs start at age 73.", 0.20),
				docResult("IRA distributions", "https://example.org/ira", "Distributions are taxed as income.", 0.30),
			}, nil)

		generator.On("Generate", ctx, mock.MatchedBy(func(prompt string) bool {
			return strings.Contains(prompt, "RMDs start at age 73.") &&
				strings.Contains(prompt, "Distributions are taxed as income.") &&
				strings.Contains(prompt, "Source: RMD rules") &&
				strings.Contains(prompt, "How do RMDs work?")
		})).Return("RMDs begin at age 73 and are taxed as ordinary income.", nil).Once()

		answer, err := r.Ask(ctx, "How do RMDs work?")
		require.NoError(t, err)

		assert.Equal(t, domain.MethodGrounded, answer.Method)
		assert.Equal(t, domain.ConfidenceMedium, answer.Confidence)
		require.Len(t, answer.Sources, 2)
		assert.Equal(t, "RMD rules", answer.Sources[0].Title)
		assert.Equal(t, "https://example.org/rmd", answer.Sources[0].URL)
		assert.Equal(t, "IRA distributions", answer.Sources[1].Title)
		generator.AssertNumberOfCalls(t, "Generate", 1)
	})

	t.Run("generation failure is fatal", func(t *testing.T) {
		retriever := new(MockRetriever)
		generator := new(MockGenerator)
		r := newTestRouter(t, retriever, generator)

		retriever.On("Search", ctx, "q", retrieval.CorpusCurated, 2).Return([]retrieval.Result{}, nil)
		retriever.On("Search", ctx, "q", retrieval.CorpusDocuments, 3).
			Return([]retrieval.Result{docResult("t", "", "c", 0.1)}, nil)
		generator.On("Generate", ctx, mock.Anything).Return("", domain.ErrGenerationFailed)

		answer, err := r.Ask(ctx, "q")
		assert.Nil(t, answer)
		assert.ErrorIs(t, err, domain.ErrGenerationFailed)
	})
}

func TestAskFallbackTier(t *testing.T) {
	ctx := context.Background()

	t.Run("both corpora empty", func(t *testing.T) {
		retriever := new(MockRetriever)
		generator := new(MockGenerator)
		r := newTestRouter(t, retriever, generator)

		retriever.On("Search", ctx, "q", retrieval.CorpusCurated, 2).Return([]retrieval.Result{}, nil)
		retriever.On("Search", ctx, "q", retrieval.CorpusDocuments, 3).Return([]retrieval.Result{}, nil)
		generator.On("Generate", ctx, FallbackPrompt("q")).Return("general answer", nil)

		answer, err := r.Ask(ctx, "q")
		require.NoError(t, err)

		assert.Equal(t, domain.MethodFallback, answer.Method)
		assert.Equal(t, domain.ConfidenceLow, answer.Confidence)
		assert.Equal(t, "general answer", answer.Answer)
		assert.NotNil(t, answer.Sources)
		assert.Empty(t, answer.Sources)
	})

	t.Run("retrieval errors degrade instead of aborting", func(t *testing.T) {
		retriever := new(MockRetriever)
		generator := new(MockGenerator)
		r := newTestRouter(t, retriever, generator)

		retriever.On("Search", ctx, "q", retrieval.CorpusCurated, 2).
			Return(nil, errors.New("curated index offline"))
		retriever.On("Search", ctx, "q", retrieval.CorpusDocuments, 3).
			Return(nil, errors.New("doc index offline"))
		generator.On("Generate", ctx, mock.Anything).Return("general answer", nil)

		answer, err := r.Ask(ctx, "q")
		require.NoError(t, err)
		assert.Equal(t, domain.MethodFallback, answer.Method)
	})

	t.Run("nil retriever goes straight to fallback", func(t *testing.T) {
		generator := new(MockGenerator)
		r := newTestRouter(t, nil, generator)

		generator.On("Generate", ctx, mock.Anything).Return("general answer", nil)

		answer, err := r.Ask(ctx, "q")
		require.NoError(t, err)
		assert.Equal(t, domain.MethodFallback, answer.Method)
	})

	t.Run("fallback generation failure surfaces", func(t *testing.T) {
		generator := new(MockGenerator)
		r := newTestRouter(t, nil, generator)

		generator.On("Generate", ctx, mock.Anything).Return("", domain.ErrGenerationFailed)

		answer, err := r.Ask(ctx, "q")
		assert.Nil(t, answer)
		assert.ErrorIs(t, err, domain.ErrGenerationFailed)
	})
}

func TestAskValidation(t *testing.T) {
	generator := new(MockGenerator)
	r := newTestRouter(t, nil, generator)

	answer, err := r.Ask(context.Background(), "   ")
	assert.Nil(t, answer)
	require.Error(t, err)
	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeValidation, domainErr.Code)
}

func TestNewRequiresGenerator(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestPrompts(t *testing.T) {
	t.Run("grounded preserves passage order", func(t *testing.T) {
		prompt := GroundedPrompt("q", []retrieval.Result{
			docResult("First", "", "first passage", 0.1),
			docResult("Second", "", "second passage", 0.2),
		})
		firstIdx := strings.Index(prompt, "first passage")
		secondIdx := strings.Index(prompt, "second passage")
		require.GreaterOrEqual(t, firstIdx, 0)
		require.GreaterOrEqual(t, secondIdx, 0)
		assert.Less(t, firstIdx, secondIdx)
	})

	t.Run("fallback embeds the question", func(t *testing.T) {
		assert.Contains(t, FallbackPrompt("What is an ETF?"), "What is an ETF?")
	})
}
