// Package qa generates grounded answers from retrieved context passages.
package qa

import (
	"context"
	"fmt"
	"strings"

	"github.com/policyhub/retrieval/internal/eval"
	"github.com/policyhub/retrieval/internal/llm"
)

// DefaultSystemPrompt constrains the model to the supplied context.
const DefaultSystemPrompt = "You are a policy assistant. Answer only from the provided context. " +
	"If the answer is not present, say you do not have enough context."

// ContextAnswerer implements eval.Answerer by prompting an LLM with the
// question and numbered context chunks.
type ContextAnswerer struct {
	llmClient    llm.LLM
	model        string
	systemPrompt string
	temperature  float32
	maxTokens    int
}

// Option is a functional option for configuring ContextAnswerer.
type Option func(*ContextAnswerer)

// WithModel sets the generation model.
func WithModel(model string) Option {
	return func(a *ContextAnswerer) {
		a.model = model
	}
}

// WithSystemPrompt overrides the default system prompt.
func WithSystemPrompt(prompt string) Option {
	return func(a *ContextAnswerer) {
		a.systemPrompt = prompt
	}
}

// NewContextAnswerer creates an answerer backed by the given LLM client.
func NewContextAnswerer(llmClient llm.LLM, opts ...Option) *ContextAnswerer {
	a := &ContextAnswerer{
		llmClient:    llmClient,
		systemPrompt: DefaultSystemPrompt,
		temperature:  0.3, // Low temperature for factual answers
		maxTokens:    1024,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Answer prompts the LLM with the question and contexts and returns the
// generated answer text.
func (a *ContextAnswerer) Answer(ctx context.Context, question string, contexts []string) (string, error) {
	prompt := BuildPrompt(question, contexts)

	answer, err := a.llmClient.Generate(ctx, prompt, llm.GenerateOptions{
		Model:        a.model,
		SystemPrompt: a.systemPrompt,
		Temperature:  a.temperature,
		MaxTokens:    a.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("answer generation failed: %w", err)
	}
	return answer, nil
}

// BuildPrompt renders the question and numbered context chunks into a single
// prompt asking for a concise, cited answer.
func BuildPrompt(question string, contexts []string) string {
	var sb strings.Builder

	sb.WriteString("Question: ")
	sb.WriteString(question)
	sb.WriteString("\n\nContext:\n")
	for i, chunk := range contexts {
		sb.WriteString(fmt.Sprintf("Chunk %d: %s\n\n", i+1, chunk))
	}
	sb.WriteString("Provide a concise answer and include a short citation like [Chunk 1].")

	return sb.String()
}

// Ensure ContextAnswerer implements eval.Answerer.
var _ eval.Answerer = (*ContextAnswerer)(nil)
