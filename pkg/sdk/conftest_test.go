package tripdex

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"
	"testing"
)

const testDims = 16

// wordEmbedder hashes words into buckets. Texts sharing words get similar vectors.
type wordEmbedder struct {
	mu    sync.Mutex
	calls int
}

func (e *wordEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	return EmbeddingResult{Embedding: hashWords(text), PromptTokens: 1, TotalTokens: 1}, nil
}

// batchWordEmbedder also implements BatchEmbedder.
type batchWordEmbedder struct {
	wordEmbedder
	batches int
}

func (e *batchWordEmbedder) BatchEmbed(_ context.Context, texts []string) (BatchEmbeddingResult, error) {
	e.mu.Lock()
	e.batches++
	e.mu.Unlock()
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = hashWords(t)
	}
	return BatchEmbeddingResult{Embeddings: out, PromptTokens: len(texts), TotalTokens: len(texts)}, nil
}

func hashWords(text string) []float32 {
	v := make([]float32, testDims)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(strings.Trim(w, ".,:")))
		v[h.Sum32()%testDims]++
	}
	return v
}

func newTestClient(t *testing.T, emb Embedder, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithMemoryStore(), WithEmbedder(emb), WithVectorSize(testDims)}, opts...)
	c, err := New(context.Background(), opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func greece() []Destination {
	return []Destination{
		{
			ID: "A", Name: "Navagio Beach", City: "Zakynthos", Country: "Greece",
			Description: "quiet beach with turquoise water", Price: 890,
			TripTypes: []string{"playa"}, Rating: 4.7, Available: true,
			Location: &Location{Lat: 37.8597, Lon: 20.6244},
		},
		{
			ID: "B", Name: "Acropolis", City: "Athens", Country: "Greece",
			Description: "ancient temples and museums", Price: 780,
			TripTypes: []string{"historia"}, Rating: 4.9, Available: true,
			Location: &Location{Lat: 37.9715, Lon: 23.7257},
		},
		{
			ID: "C", Name: "Mykonos", City: "Mykonos", Country: "Greece",
			Description: "beach clubs and sunsets", Price: 1500,
			TripTypes: []string{"playa"}, Rating: 4.5, Available: true,
			Location: &Location{Lat: 37.4467, Lon: 25.3289},
		},
	}
}
