// Package nlp wraps the external natural-language capabilities the
// pipeline consumes: semantic embeddings, sentiment scores, and
// named-entity extraction. The pipeline only depends on the Provider
// interface; when a capability cannot serve a request the caller falls
// back to the keyword heuristics in this package.
package nlp

import (
	"context"
	"errors"
	"math"
)

// ErrUnavailable signals that a capability cannot serve the request:
// no provider configured, request budget exhausted, or upstream failure.
// Callers treat it as "use the heuristic fallback", never as a fault.
var ErrUnavailable = errors.New("nlp: capability unavailable")

// Provider is the stable interface to the external NLP subsystem.
type Provider interface {
	// Embed returns a semantic vector for the text.
	Embed(ctx context.Context, text string) ([]float64, error)
	// Sentiment returns a score in [-1, 1].
	Sentiment(ctx context.Context, text string) (float64, error)
	// Entities returns named entities / significant nouns from the text.
	Entities(ctx context.Context, text string) ([]string, error)
}

// Disabled is the Provider used when no NLP backend is configured.
type Disabled struct{}

func (Disabled) Embed(context.Context, string) ([]float64, error) {
	return nil, ErrUnavailable
}

func (Disabled) Sentiment(context.Context, string) (float64, error) {
	return 0, ErrUnavailable
}

func (Disabled) Entities(context.Context, string) ([]string, error) {
	return nil, ErrUnavailable
}

// Cosine computes cosine similarity between two vectors. Mismatched or
// empty vectors score 0.
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
