// Package embedding resolves embedding providers by name and invokes them.
//
// Providers are grouped into modules. A provider package registers its types
// from init, the way database/sql drivers do:
//
//	func init() {
//	    embedding.Register("openai", embedding.Type{Name: "OpenAIEmbeddings", New: newEmbeddings})
//	}
//
// Callers then select a provider by module and type identifier and pass
// provider-defined options:
//
//	vecs, err := embedding.EmbedDocuments(ctx, docs, "OpenAIEmbeddings", "openai",
//	    embedding.Options{"model": "text-embedding-3-small", "dimensions": 2})
//
// or asynchronously:
//
//	vecs, err := embedding.Await(ctx, embedding.EmbedDocumentsAsync(ctx, docs, "OpenAIEmbeddings", "openai", nil))
//
// # Errors
//
// Every failure is an *Error whose kind is one of ErrInvalidArgument,
// ErrModuleNotFound, ErrTypeNotFound, ErrNotConstructible,
// ErrConstructionFailed, ErrCapabilityMissing or ErrInvocationFailed. The
// provider's own error, when there is one, is preserved and reachable with
// errors.Is and errors.As. Nothing is retried.
package embedding
