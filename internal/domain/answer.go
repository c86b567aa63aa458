package domain

import "time"

// AnswerMethod identifies which tier produced an answer.
type AnswerMethod string

const (
	MethodCurated  AnswerMethod = "curated"
	MethodGrounded AnswerMethod = "grounded"
	MethodFallback AnswerMethod = "fallback"
)

// SourceRef attributes an answer to one retrieved item. For curated answers
// the QA fields are set; for grounded answers the document fields are set.
type SourceRef struct {
	Type     string  `json:"type"`
	Question string  `json:"question,omitempty"`
	Context  string  `json:"context,omitempty"`
	Category string  `json:"category,omitempty"`
	Source   string  `json:"source,omitempty"`
	Title    string  `json:"title,omitempty"`
	URL      string  `json:"url,omitempty"`
	Score    float64 `json:"score"`
}

const (
	SourceTypeQAPair   = "qa_pair"
	SourceTypeDocument = "document_chunk"
)

// Answer is the envelope returned for every successfully routed question.
// Sources is empty exactly when Method is fallback.
type Answer struct {
	Question   string       `json:"question"`
	Answer     string       `json:"answer"`
	Method     AnswerMethod `json:"method"`
	Confidence Confidence   `json:"confidence"`
	Sources    []SourceRef  `json:"sources"`
	Timestamp  time.Time    `json:"timestamp"`
}
