package vectorstore

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/qdrant/go-client/qdrant"

	"github.com/policyhub/retrieval/internal/schema"
)

const (
	chunkIDField = "chunk_id"
	docIDField   = "doc_id"
	sectionField = "section"
	textField    = "text"
)

// QdrantIndex implements DenseIndex backed by a Qdrant collection with
// cosine distance. Qdrant reports cosine scores as similarities, which
// already matches the 1 - distance convention.
type QdrantIndex struct {
	client     *qdrant.Client
	collection string
}

// NewQdrantIndex connects to Qdrant at url ("host:port", gRPC port) and
// targets the named collection.
func NewQdrantIndex(ctx context.Context, url, collection string) (*QdrantIndex, error) {
	host, portStr, err := net.SplitHostPort(url)
	if err != nil {
		// No port specified, assume the default gRPC port.
		host = url
		portStr = "6334"
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid port in qdrant url: %w", err)
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &QdrantIndex{client: client, collection: collection}, nil
}

// Close closes the Qdrant client connection.
func (q *QdrantIndex) Close() error {
	return q.client.Close()
}

// Build recreates the collection and upserts every chunk with its embedding.
// Point ids are positional; the chunk id lives in the payload because chunk
// ids are not UUIDs.
func (q *QdrantIndex) Build(ctx context.Context, chunks []schema.Chunk, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("chunk/embedding count mismatch: %d chunks, %d embeddings", len(chunks), len(embeddings))
	}
	if len(chunks) == 0 {
		return fmt.Errorf("cannot build collection from zero chunks")
	}

	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}
	if exists {
		if err := q.client.DeleteCollection(ctx, q.collection); err != nil {
			return fmt.Errorf("failed to delete stale collection: %w", err)
		}
	}

	if err := q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(len(embeddings[0])),
			Distance: qdrant.Distance_Cosine,
		}),
	}); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	points := make([]*qdrant.PointStruct, len(chunks))
	for i, chunk := range chunks {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDNum(uint64(i)),
			Vectors: qdrant.NewVectors(embeddings[i]...),
			Payload: map[string]*qdrant.Value{
				chunkIDField: qdrant.NewValueString(chunk.ChunkID),
				docIDField:   qdrant.NewValueString(chunk.DocID),
				sectionField: qdrant.NewValueString(chunk.Section),
				textField:    qdrant.NewValueString(chunk.Text),
			},
		}
	}

	if _, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Points:         points,
	}); err != nil {
		return fmt.Errorf("failed to upsert points: %w", err)
	}

	return nil
}

// Search queries the collection and maps hits to dense retrieval results.
func (q *QdrantIndex) Search(ctx context.Context, queryEmbedding []float32, topK int) ([]schema.RetrievalResult, error) {
	if topK <= 0 {
		return nil, nil
	}

	response, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(queryEmbedding...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	results := make([]schema.RetrievalResult, 0, len(response))
	for _, point := range response {
		result := schema.RetrievalResult{
			Score:  float64(point.Score),
			Source: schema.SourceDense,
		}
		if payload := point.Payload; payload != nil {
			if v, ok := payload[chunkIDField]; ok {
				result.ChunkID = v.GetStringValue()
			}
			if v, ok := payload[textField]; ok {
				result.Text = v.GetStringValue()
			}
		}
		results = append(results, result)
	}

	return results, nil
}

// Ensure QdrantIndex implements DenseIndex.
var _ DenseIndex = (*QdrantIndex)(nil)
