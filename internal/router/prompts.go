package router

import (
	"fmt"
	"strings"

	"github.com/finsight-ai/finsight/internal/retrieval"
)

const groundedPromptTemplate = `You are a helpful financial advisor assistant. Use the following context to answer the user's question. If the context doesn't contain enough information, say so.

Context:
%s

Question: %s

Provide a clear, accurate answer based on the context provided.`

const fallbackPromptTemplate = `You are a helpful financial advisor assistant. Answer the following question based on your general knowledge of financial planning and investing principles. If you're not confident about the answer, say so.

Question: %s

Provide a helpful, accurate response based on general financial knowledge.`

// GroundedPrompt composes the document-tier prompt: each passage prefixed by
// its source title, most similar first, followed by the question.
func GroundedPrompt(question string, passages []retrieval.Result) string {
	blocks := make([]string, 0, len(passages))
	for _, p := range passages {
		blocks = append(blocks, fmt.Sprintf("Source: %s\n%s", p.Metadata.Title, p.Content))
	}
	return fmt.Sprintf(groundedPromptTemplate, strings.Join(blocks, "\n\n"), question)
}

// FallbackPrompt composes the ungrounded prompt used when no corpus can
// help with the question.
func FallbackPrompt(question string) string {
	return fmt.Sprintf(fallbackPromptTemplate, question)
}
