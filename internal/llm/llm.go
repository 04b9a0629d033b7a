// Package llm provides the external generation-model contract and an
// Ollama-backed client. The retrieval core treats generation as an opaque
// collaborator: question plus contexts in, answer text out.
package llm

import "context"

// GenerateOptions configures a generation request.
type GenerateOptions struct {
	// Model selects the model (e.g. "llama3.2").
	Model string

	// SystemPrompt sets system-level instructions.
	SystemPrompt string

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float32

	// MaxTokens limits the response length; 0 means no limit.
	MaxTokens int
}

// LLM is the interface for generation-model clients.
type LLM interface {
	// Generate sends a prompt and blocks until the full response arrives.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
}
