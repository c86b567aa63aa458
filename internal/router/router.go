// Package router implements the tiered answer orchestrator: curated lookup
// first, document-grounded synthesis second, ungrounded generation last.
// Exactly one tier answers each question.
package router

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/finsight-ai/finsight/internal/domain"
	"github.com/finsight-ai/finsight/internal/retrieval"
	"github.com/finsight-ai/finsight/internal/telemetry"
)

const (
	// DefaultCuratedThreshold is the cosine-distance acceptance threshold
	// for the curated tier. A best match must be strictly more similar
	// (lower distance) than this to answer without generation.
	DefaultCuratedThreshold = 0.35

	curatedK  = 2
	documentK = 3
)

// Generator produces text from a composed prompt. A generation failure is
// fatal for the query: there is no tier after fallback to degrade to.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Router evaluates the three answer tiers in strict priority order.
type Router struct {
	retriever retrieval.Retriever
	generator Generator
	threshold float64
}

// Config holds router construction parameters.
type Config struct {
	// Retriever may be nil when no vector backend is configured; both
	// retrieval tiers are then skipped.
	Retriever retrieval.Retriever
	Generator Generator
	// CuratedThreshold overrides DefaultCuratedThreshold when positive.
	CuratedThreshold float64
}

// New creates a Router.
func New(cfg Config) (*Router, error) {
	if cfg.Generator == nil {
		return nil, fmt.Errorf("router requires a generator")
	}
	threshold := cfg.CuratedThreshold
	if threshold <= 0 {
		threshold = DefaultCuratedThreshold
	}
	return &Router{
		retriever: cfg.Retriever,
		generator: cfg.Generator,
		threshold: threshold,
	}, nil
}

// Ask routes a question through the tiers and returns a fully attributed
// answer. Retrieval failures degrade to the next tier; generation failures
// surface to the caller with no partial envelope.
func (r *Router) Ask(ctx context.Context, question string) (*domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "question cannot be empty")
	}

	ctx, span := telemetry.StartSpan(ctx, "Router.Ask", telemetry.SpanAttributes{
		Operation: "ask",
	})
	defer span.End()

	if answer := r.curatedLookup(ctx, question); answer != nil {
		span.SetTag("tier", string(answer.Method))
		return answer, nil
	}

	answer, err := r.documentLookup(ctx, question)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	if answer != nil {
		span.SetTag("tier", string(answer.Method))
		return answer, nil
	}

	answer, err = r.fallback(ctx, question)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	span.SetTag("tier", string(answer.Method))
	return answer, nil
}

// curatedLookup returns a curated answer when the best match clears the
// acceptance threshold, or nil to fall through. No generation call is made
// on this tier: a curated answer is the stored answer, verbatim.
func (r *Router) curatedLookup(ctx context.Context, question string) *domain.Answer {
	results := r.search(ctx, question, retrieval.CorpusCurated, curatedK)
	if len(results) == 0 {
		return nil
	}

	best := selectBest(results)
	if best.Score >= r.threshold {
		return nil
	}

	return &domain.Answer{
		Question:   question,
		Answer:     best.Metadata.Answer,
		Method:     domain.MethodCurated,
		Confidence: domain.ConfidenceHigh,
		Sources: []domain.SourceRef{{
			Type:     domain.SourceTypeQAPair,
			Question: best.Metadata.Question,
			Context:  best.Metadata.Context,
			Category: best.Metadata.Category,
			Source:   best.Metadata.Source,
			Score:    best.Score,
		}},
		Timestamp: time.Now().UTC(),
	}
}

// documentLookup synthesizes an answer grounded in retrieved passages, or
// returns (nil, nil) when the document corpus has nothing to offer.
func (r *Router) documentLookup(ctx context.Context, question string) (*domain.Answer, error) {
	results := r.search(ctx, question, retrieval.CorpusDocuments, documentK)
	if len(results) == 0 {
		return nil, nil
	}

	prompt := GroundedPrompt(question, results)
	text, err := r.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	sources := make([]domain.SourceRef, 0, len(results))
	for _, res := range results {
		sources = append(sources, domain.SourceRef{
			Type:  domain.SourceTypeDocument,
			Title: res.Metadata.Title,
			URL:   res.Metadata.URL,
			Score: res.Score,
		})
	}

	return &domain.Answer{
		Question:   question,
		Answer:     text,
		Method:     domain.MethodGrounded,
		Confidence: domain.ConfidenceMedium,
		Sources:    sources,
		Timestamp:  time.Now().UTC(),
	}, nil
}

// fallback asks the generator with no grounding material.
func (r *Router) fallback(ctx context.Context, question string) (*domain.Answer, error) {
	text, err := r.generator.Generate(ctx, FallbackPrompt(question))
	if err != nil {
		return nil, err
	}

	return &domain.Answer{
		Question:   question,
		Answer:     text,
		Method:     domain.MethodFallback,
		Confidence: domain.ConfidenceLow,
		Sources:    []domain.SourceRef{},
		Timestamp:  time.Now().UTC(),
	}, nil
}

// search wraps the retriever, treating an absent retriever or a retrieval
// failure as an empty result so the tier chain degrades instead of aborting.
func (r *Router) search(ctx context.Context, question string, corpus retrieval.Corpus, k int) []retrieval.Result {
	if r.retriever == nil {
		return nil
	}
	results, err := r.retriever.Search(ctx, question, corpus, k)
	if err != nil {
		log.Printf("router: %s retrieval failed, degrading to next tier: %v", corpus, err)
		telemetry.CaptureError(ctx, err)
		return nil
	}
	return results
}

// selectBest picks the lowest-distance result. Ties on score prefer the
// higher stored confidence, then the lexicographically smaller doc_id, so
// the curated decision is deterministic for a fixed corpus.
func selectBest(results []retrieval.Result) retrieval.Result {
	best := results[0]
	for _, candidate := range results[1:] {
		if candidate.Score < best.Score {
			best = candidate
			continue
		}
		if candidate.Score > best.Score {
			continue
		}
		candRank := candidate.Metadata.Confidence.Rank()
		bestRank := best.Metadata.Confidence.Rank()
		if candRank > bestRank {
			best = candidate
			continue
		}
		if candRank == bestRank && candidate.Metadata.DocID < best.Metadata.DocID {
			best = candidate
		}
	}
	return best
}
