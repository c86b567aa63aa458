//go:build e2e

package e2e

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type askResult struct {
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Method     string `json:"method"`
	Confidence string `json:"confidence"`
	Sources    []struct {
		Type     string  `json:"type"`
		Question string  `json:"question"`
		Title    string  `json:"title"`
		URL      string  `json:"url"`
		Score    float64 `json:"score"`
	} `json:"sources"`
}

func addEntry(t *testing.T, env *E2ETestEnv, question, answer, category string) {
	resp, err := env.Post("/kb", map[string]string{
		"question":   question,
		"answer":     answer,
		"category":   category,
		"source":     "e2e",
		"confidence": "high",
	}, testAPIKey)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode, "add failed: %s", resp.Error)
}

func ask(t *testing.T, env *E2ETestEnv, question string) *askResult {
	resp, err := env.Post("/ask", map[string]string{"question": question}, testAPIKey)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode, "ask failed: %s", resp.Error)

	var result askResult
	require.NoError(t, json.Unmarshal(resp.Data, &result))
	return &result
}

func TestHealthEndpoint(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	resp, err := env.Get("/health", "")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var health struct {
		Status    string `json:"status"`
		QAPairs   int    `json:"qa_pairs"`
		Retrieval string `json:"retrieval"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, 0, health.QAPairs)
	assert.Equal(t, "ok", health.Retrieval)
}

func TestAuthRequired(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	resp, err := env.Post("/ask", map[string]string{"question": "anything"}, "")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = env.Get("/kb/search?q=anything", "wrong-key")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAskCuratedTier(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	addEntry(t, env, "What is compound interest", "Interest earned on both principal and accumulated interest.", "savings")
	addEntry(t, env, "What is an index fund", "A fund that passively tracks a market index.", "investing")
	env.Reindex()

	result := ask(t, env, "What is compound interest")
	assert.Equal(t, "curated", result.Method)
	assert.Equal(t, "high", result.Confidence)
	assert.Equal(t, "Interest earned on both principal and accumulated interest.", result.Answer)
	require.Len(t, result.Sources, 1)
	assert.Equal(t, "qa_pair", result.Sources[0].Type)
	assert.Equal(t, "What is compound interest", result.Sources[0].Question)
	assert.Less(t, result.Sources[0].Score, curatedThreshold)
}

func TestAskGroundedTier(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	addEntry(t, env, "What is compound interest", "Interest earned on both principal and accumulated interest.", "savings")
	env.Reindex()
	env.SeedPassage(
		"Emergency funds",
		"https://example.com/emergency",
		"An emergency fund should cover three to six months of essential expenses.",
	)

	result := ask(t, env, "how many months of expenses should an emergency fund cover")
	assert.Equal(t, "grounded", result.Method)
	assert.Equal(t, "medium", result.Confidence)
	assert.Equal(t, generatorResponse, result.Answer)
	require.NotEmpty(t, result.Sources)
	assert.Equal(t, "document_chunk", result.Sources[0].Type)
	assert.Equal(t, "Emergency funds", result.Sources[0].Title)
	assert.Equal(t, "https://example.com/emergency", result.Sources[0].URL)
}

func TestAskFallbackTier(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	result := ask(t, env, "what is a stochastic discount factor")
	assert.Equal(t, "fallback", result.Method)
	assert.Equal(t, "low", result.Confidence)
	assert.Equal(t, generatorResponse, result.Answer)
	assert.Empty(t, result.Sources)
}

func TestKBLifecycle(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	addEntry(t, env, "What is a 401k", "An employer-sponsored retirement account.", "retirement")

	// Duplicate questions are rejected, including case variants.
	resp, err := env.Post("/kb", map[string]string{
		"question":   "what is a 401K",
		"answer":     "Duplicate.",
		"category":   "retirement",
		"confidence": "low",
	}, testAPIKey)
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "DUPLICATE_QUESTION", resp.Code)

	resp, err = env.Get("/kb/search?q=401k", testAPIKey)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var search struct {
		Results []json.RawMessage `json:"results"`
		Count   int               `json:"count"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &search))
	assert.Equal(t, 1, search.Count)

	resp, err = env.Put("/kb", map[string]string{
		"question": "What is a 401k",
		"answer":   "An employer-sponsored retirement account with tax advantages.",
	}, testAPIKey)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = env.Get("/kb/export/retirement", testAPIKey)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var export struct {
		Category string `json:"category"`
		QAPairs  []struct {
			Answer string `json:"answer"`
		} `json:"qa_pairs"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &export))
	require.Len(t, export.QAPairs, 1)
	assert.Equal(t, "An employer-sponsored retirement account with tax advantages.", export.QAPairs[0].Answer)

	resp, err = env.Delete("/kb?question="+"What+is+a+401k", testAPIKey)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = env.Delete("/kb?question="+"What+is+a+401k", testAPIKey)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", resp.Code)
}

func TestImportValidateReport(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	pairs := make([]map[string]string, 0, 3)
	for i := 0; i < 3; i++ {
		pairs = append(pairs, map[string]string{
			"question":   fmt.Sprintf("Imported question %d", i),
			"answer":     fmt.Sprintf("Imported answer %d", i),
			"category":   "general",
			"source":     "bulk",
			"confidence": "medium",
		})
	}
	resp, err := env.Post("/kb/import", map[string]interface{}{"qa_pairs": pairs}, testAPIKey)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode, "import failed: %s", resp.Error)

	var imported struct {
		Imported int      `json:"imported"`
		Skipped  []string `json:"skipped"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &imported))
	assert.Equal(t, 3, imported.Imported)
	assert.Empty(t, imported.Skipped)

	resp, err = env.Get("/kb/validate", testAPIKey)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = env.Get("/kb/report", testAPIKey)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var report struct {
		Summary struct {
			TotalQAPairs int `json:"total_qa_pairs"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &report))
	assert.Equal(t, 3, report.Summary.TotalQAPairs)
}
