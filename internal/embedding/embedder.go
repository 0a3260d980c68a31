package embedding

import "context"

// Embedding is the vector produced for one document.
type Embedding []float32

// DocumentEmbedder converts documents into embeddings.
// The i-th embedding returned must correspond to documents[i].
type DocumentEmbedder interface {
	EmbedDocuments(ctx context.Context, documents []string) ([]Embedding, error)
}

// AsyncDocumentEmbedder is implemented by providers that can start an
// embedding request without blocking the caller. The returned channel must
// deliver at most one Result.
type AsyncDocumentEmbedder interface {
	EmbedDocumentsAsync(ctx context.Context, documents []string) <-chan Result
}

// Result is what an asynchronous embedding request resolves to.
type Result struct {
	Embeddings []Embedding
	Err        error
}

// Factory constructs a provider instance from caller-supplied options.
type Factory func(opts Options) (DocumentEmbedder, error)
