//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/finsight-ai/finsight/internal/api/handlers"
	"github.com/finsight-ai/finsight/internal/knowledge"
	"github.com/finsight-ai/finsight/internal/retrieval"
	"github.com/finsight-ai/finsight/internal/router"
	"github.com/finsight-ai/finsight/internal/server"
	"github.com/finsight-ai/finsight/internal/testutil"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

const (
	testAPIKey        = "e2e-test-key"
	embeddingDims     = 1536
	curatedThreshold  = 0.35
	generatorResponse = "This answer was generated from the provided material."
)

// E2ETestEnv wires the full answer pipeline against a real pgvector
// database, with deterministic embeddings and generation so no network
// calls leave the test host.
type E2ETestEnv struct {
	T          *testing.T
	Ctx        context.Context
	PostgresC  *testutil.PostgresContainer
	Pool       *pgxpool.Pool
	Store      *knowledge.Store
	Manager    *knowledge.Manager
	Indexer    *retrieval.Indexer
	Server     *httptest.Server
	HTTPClient *http.Client
}

// bagOfWordsEmbedder maps each word to a fixed vector component, so texts
// that share words are close in cosine distance. Deterministic and offline.
type bagOfWordsEmbedder struct{}

func (bagOfWordsEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, embeddingDims)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		var sum uint32
		for _, r := range word {
			sum = sum*31 + uint32(r)
		}
		vec[sum%embeddingDims] += 1.0
	}
	return vec, nil
}

// cannedGenerator returns a fixed completion and records the prompts it saw.
type cannedGenerator struct {
	prompts []string
}

func (g *cannedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	return generatorResponse, nil
}

// SetupE2EEnv starts a pgvector container, runs migrations, and serves the
// full HTTP surface from an httptest server.
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	store := knowledge.NewStore()
	dir := t.TempDir()
	manager := knowledge.NewManager(store, dir+"/kb.json", dir+"/backups")

	embedder := bagOfWordsEmbedder{}
	indexer := retrieval.NewIndexer(pool, embedder, store)
	searcher := retrieval.NewVectorSearcher(pool, embedder)

	tierRouter, err := router.New(router.Config{
		Retriever:        searcher,
		Generator:        &cannedGenerator{},
		CuratedThreshold: curatedThreshold,
	})
	if err != nil {
		t.Fatalf("failed to create router: %v", err)
	}

	handler := server.NewRouter(server.RouterConfig{
		APIKey:        testAPIKey,
		AskHandler:    handlers.NewAskHandler(tierRouter),
		KBHandler:     handlers.NewKBHandler(manager),
		HealthHandler: handlers.NewHealthHandler(store, pool),
	})

	srv := httptest.NewServer(handler)

	return &E2ETestEnv{
		T:          t,
		Ctx:        ctx,
		PostgresC:  pgC,
		Pool:       pool,
		Store:      store,
		Manager:    manager,
		Indexer:    indexer,
		Server:     srv,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	if e.Server != nil {
		e.Server.Close()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.PostgresC != nil {
		e.PostgresC.Terminate(e.Ctx)
	}
}

// Reindex synchronizes the vector index with the current store contents.
func (e *E2ETestEnv) Reindex() {
	if err := e.Indexer.Rebuild(e.Ctx); err != nil {
		e.T.Fatalf("failed to rebuild index: %v", err)
	}
}

// SeedPassage inserts one document passage into the grounded corpus.
func (e *E2ETestEnv) SeedPassage(title, url, content string) {
	vec, err := bagOfWordsEmbedder{}.GenerateEmbedding(e.Ctx, content)
	if err != nil {
		e.T.Fatalf("failed to embed passage: %v", err)
	}
	_, err = e.Pool.Exec(e.Ctx,
		`INSERT INTO doc_passages (title, url, content, embedding) VALUES ($1, $2, $3, $4)`,
		title, url, content, pgvector.NewVector(vec),
	)
	if err != nil {
		e.T.Fatalf("failed to seed passage: %v", err)
	}
}

// APIResponse represents a standard API response envelope.
type APIResponse struct {
	StatusCode int
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error,omitempty"`
	Code       string          `json:"code,omitempty"`
}

// Get performs a GET request
func (e *E2ETestEnv) Get(path, apiKey string) (*APIResponse, error) {
	return e.doRequest("GET", path, nil, apiKey)
}

// Post performs a POST request
func (e *E2ETestEnv) Post(path string, body interface{}, apiKey string) (*APIResponse, error) {
	return e.doRequest("POST", path, body, apiKey)
}

// Put performs a PUT request
func (e *E2ETestEnv) Put(path string, body interface{}, apiKey string) (*APIResponse, error) {
	return e.doRequest("PUT", path, body, apiKey)
}

// Delete performs a DELETE request
func (e *E2ETestEnv) Delete(path, apiKey string) (*APIResponse, error) {
	return e.doRequest("DELETE", path, nil, apiKey)
}

func (e *E2ETestEnv) doRequest(method, path string, body interface{}, apiKey string) (*APIResponse, error) {
	url := e.Server.URL + path

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, err
	}

	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	apiResp := &APIResponse{StatusCode: resp.StatusCode}
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, apiResp); err != nil {
			return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
		}
	}

	return apiResp, nil
}
