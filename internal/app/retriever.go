package app

import (
	"context"
	"math"
	"sort"

	"docassist/internal/model"
)

const defaultTopK = 3

// ScoredChunk is a retrieved chunk with its originating document's name and
// its cosine similarity to the query.
type ScoredChunk struct {
	Chunk        model.Chunk
	DocumentName string
	Score        float32
}

// Retriever finds the chunks most similar to a question among the user's
// fully indexed documents. Similarity is brute-force cosine over the stored
// embeddings.
type Retriever struct {
	docStore   DocumentStore
	chunkStore ChunkStore
	embedder   EmbeddingClient
	topK       int
}

func NewRetriever(docStore DocumentStore, chunkStore ChunkStore, embedder EmbeddingClient, topK int) *Retriever {
	if topK <= 0 {
		topK = defaultTopK
	}
	return &Retriever{
		docStore:   docStore,
		chunkStore: chunkStore,
		embedder:   embedder,
		topK:       topK,
	}
}

// Retrieve returns up to topK chunks relevant to the question. With no
// indexed documents it returns an empty result and no error; the chat can
// still answer, just without citations.
func (r *Retriever) Retrieve(ctx context.Context, userID uint, question string) ([]ScoredChunk, error) {
	docs, err := r.docStore.ListEmbedded(userID)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}

	docNames := make(map[uint]string, len(docs))
	docIDs := make([]uint, 0, len(docs))
	for _, d := range docs {
		docNames[d.ID] = d.Filename
		docIDs = append(docIDs, d.ID)
	}

	chunks, err := r.chunkStore.ListByDocumentIDs(docIDs)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	queryEmb, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, err
	}

	scored := make([]ScoredChunk, 0, len(chunks))
	for i := range chunks {
		scored = append(scored, ScoredChunk{
			Chunk:        chunks[i],
			DocumentName: docNames[chunks[i].DocumentID],
			Score:        cosineSimilarity(queryEmb, chunks[i].EmbeddingVector()),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > r.topK {
		scored = scored[:r.topK]
	}
	return scored, nil
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA <= 0 || normB <= 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
