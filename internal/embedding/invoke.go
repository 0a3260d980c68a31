package embedding

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EmbedDocuments resolves module/typ with opts and embeds documents with the
// resulting provider. The provider's output is returned unchanged.
func (r *Registry) EmbedDocuments(ctx context.Context, documents []string, typ, module string, opts Options) ([]Embedding, error) {
	inst, err := r.resolve(OpEmbedDocuments, module, typ, opts)
	if err != nil {
		r.log().Debug("Embedding provider resolution failed", "module", module, "type", typ, "error", err)
		return nil, err
	}

	reqID := uuid.NewString()
	log := r.log().With("request_id", reqID, "module", module, "type", typ)
	log.Debug("Embedding documents", "documents", len(documents))
	start := time.Now()

	out, err := invoke(ctx, inst, documents)
	if err != nil {
		log.Error("Embedding request failed", "error", err, "duration", time.Since(start))
		return nil, &Error{Kind: ErrInvocationFailed, Op: OpEmbedDocuments, Module: module, Type: typ, Err: err}
	}
	log.Debug("Embedded documents", "embeddings", len(out), "duration", time.Since(start))
	return out, nil
}

// EmbedDocumentsAsync resolves module/typ with opts and starts embedding
// documents without blocking. The returned channel delivers exactly one
// Result, including resolution failures. Providers implementing
// AsyncDocumentEmbedder are called through EmbedDocumentsAsync; others run
// EmbedDocuments on a new goroutine. Cancelling ctx cancels the pending call.
func (r *Registry) EmbedDocumentsAsync(ctx context.Context, documents []string, typ, module string, opts Options) <-chan Result {
	out := make(chan Result, 1)

	inst, err := r.resolve(OpEmbedDocumentsAsync, module, typ, opts)
	if err != nil {
		r.log().Debug("Embedding provider resolution failed", "module", module, "type", typ, "error", err)
		out <- Result{Err: err}
		close(out)
		return out
	}

	reqID := uuid.NewString()
	log := r.log().With("request_id", reqID, "module", module, "type", typ)
	log.Debug("Embedding documents asynchronously", "documents", len(documents))

	var pending <-chan Result
	if ainst, ok := inst.(AsyncDocumentEmbedder); ok {
		pending = startAsync(ctx, ainst, documents)
	} else {
		pending = runAsync(ctx, inst, documents)
	}

	go func() {
		defer close(out)
		start := time.Now()
		res := wait(ctx, pending)
		if res.Err != nil {
			log.Error("Embedding request failed", "error", res.Err, "duration", time.Since(start))
			res = Result{Err: &Error{Kind: ErrInvocationFailed, Op: OpEmbedDocumentsAsync, Module: module, Type: typ, Err: res.Err}}
		} else {
			log.Debug("Embedded documents", "embeddings", len(res.Embeddings), "duration", time.Since(start))
		}
		out <- res
	}()
	return out
}

// Await blocks until ch delivers a result or ctx is done.
func Await(ctx context.Context, ch <-chan Result) ([]Embedding, error) {
	select {
	case res, ok := <-ch:
		if !ok {
			return nil, ErrNoResult
		}
		return res.Embeddings, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// EmbedDocuments embeds documents using the default registry.
func EmbedDocuments(ctx context.Context, documents []string, typ, module string, opts Options) ([]Embedding, error) {
	return defaultRegistry.EmbedDocuments(ctx, documents, typ, module, opts)
}

// EmbedDocumentsAsync embeds documents asynchronously using the default registry.
func EmbedDocumentsAsync(ctx context.Context, documents []string, typ, module string, opts Options) <-chan Result {
	return defaultRegistry.EmbedDocumentsAsync(ctx, documents, typ, module, opts)
}

func invoke(ctx context.Context, inst DocumentEmbedder, documents []string) (out []Embedding, err error) {
	defer recoverAsError(&err)
	return inst.EmbedDocuments(ctx, documents)
}

func runAsync(ctx context.Context, inst DocumentEmbedder, documents []string) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		embs, err := invoke(ctx, inst, documents)
		ch <- Result{Embeddings: embs, Err: err}
	}()
	return ch
}

func startAsync(ctx context.Context, inst AsyncDocumentEmbedder, documents []string) (ch <-chan Result) {
	var err error
	func() {
		defer recoverAsError(&err)
		ch = inst.EmbedDocumentsAsync(ctx, documents)
	}()
	if err != nil || ch == nil {
		if err == nil {
			err = ErrNoResult
		}
		failed := make(chan Result, 1)
		failed <- Result{Err: err}
		close(failed)
		return failed
	}
	return ch
}

// wait receives the provider's result, treating a closed channel and a
// cancelled context as failures.
func wait(ctx context.Context, pending <-chan Result) Result {
	select {
	case res, ok := <-pending:
		if !ok {
			return Result{Err: ErrNoResult}
		}
		return res
	case <-ctx.Done():
		return Result{Err: ctx.Err()}
	}
}
