// Package embedder provides the external embedding-provider contract and an
// Ollama-backed implementation. The retrieval core only consumes the
// interface; vectors come from whatever provider is configured.
package embedder

import "context"

// Embedder generates embedding vectors for texts.
type Embedder interface {
	// Embed generates an embedding vector for a single text input.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates one vector per input text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the dimensionality of the embedding vectors.
	Dimension() int

	// ModelName returns the name of the embedding model in use.
	ModelName() string
}
