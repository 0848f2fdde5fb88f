package nlp

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"prism/internal/logger"
)

const (
	geminiEmbedModel = "text-embedding-004"
	geminiTextModel  = "gemini-1.5-flash"
	maxPromptRunes   = 2000
)

// Gemini implements Provider on top of the Gemini API.
type Gemini struct {
	client *genai.Client
}

func NewGemini(ctx context.Context, apiKey string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Gemini{client: client}, nil
}

func (g *Gemini) Close() {
	if g.client != nil {
		g.client.Close()
	}
}

func clipText(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) > maxPromptRunes {
		return string(runes[:maxPromptRunes])
	}
	return text
}

func (g *Gemini) Embed(ctx context.Context, text string) ([]float64, error) {
	em := g.client.EmbeddingModel(geminiEmbedModel)
	resp, err := em.EmbedContent(ctx, genai.Text(clipText(text)))
	if err != nil {
		logger.Debug("gemini embedding failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp == nil || resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
		return nil, ErrUnavailable
	}
	vec := make([]float64, len(resp.Embedding.Values))
	for i, v := range resp.Embedding.Values {
		vec[i] = float64(v)
	}
	return vec, nil
}

func (g *Gemini) Sentiment(ctx context.Context, text string) (float64, error) {
	prompt := fmt.Sprintf(
		"Rate the sentiment of this news text from -1.0 (very negative) to 1.0 (very positive). "+
			"Answer with a single number only.\n\nTEXT: %s", clipText(text))

	raw, err := g.generate(ctx, prompt)
	if err != nil {
		return 0, err
	}
	score, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		logger.Debug("gemini sentiment parse failed", "response", raw)
		return 0, fmt.Errorf("%w: unparseable sentiment", ErrUnavailable)
	}
	if score < -1 {
		score = -1
	}
	if score > 1 {
		score = 1
	}
	return score, nil
}

func (g *Gemini) Entities(ctx context.Context, text string) ([]string, error) {
	prompt := fmt.Sprintf(
		"Extract the named entities and significant nouns from this headline. "+
			"Answer with a comma-separated list only, no commentary.\n\nHEADLINE: %s", clipText(text))

	raw, err := g.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	var entities []string
	for _, part := range strings.Split(raw, ",") {
		e := strings.TrimSpace(part)
		if e != "" {
			entities = append(entities, e)
		}
	}
	if len(entities) == 0 {
		return nil, ErrUnavailable
	}
	return entities, nil
}

func (g *Gemini) generate(ctx context.Context, prompt string) (string, error) {
	model := g.client.GenerativeModel(geminiTextModel)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty response", ErrUnavailable)
	}
	return fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0]), nil
}
