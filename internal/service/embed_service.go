package service

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"docembed/internal/config"
	"docembed/internal/embedding"
)

// Request selects a provider and the documents to embed. When Module and Type
// are both empty the configured default provider is used.
type Request struct {
	Documents []string          `json:"documents"`
	Module    string            `json:"module,omitempty"`
	Type      string            `json:"type,omitempty"`
	Options   embedding.Options `json:"options,omitempty"`
	Async     bool              `json:"async,omitempty"`
}

// Response carries embeddings aligned with the request's documents.
type Response struct {
	Embeddings []embedding.Embedding `json:"embeddings"`
	Count      int                   `json:"count"`
	Module     string                `json:"module"`
	Type       string                `json:"type"`
}

// FileEmbedding is the embedding of one file's content.
type FileEmbedding struct {
	ID        string              `json:"id"`
	Path      string              `json:"path"`
	Embedding embedding.Embedding `json:"embedding"`
}

// Config configures an EmbedService.
type Config struct {
	Provider config.ProviderConfig
	// Extensions limits EmbedFiles to these file suffixes; empty accepts all.
	Extensions []string
}

// EmbedService embeds documents and files through a provider registry.
type EmbedService struct {
	registry   *embedding.Registry
	provider   config.ProviderConfig
	extensions []string
	logger     *slog.Logger
}

// New creates an EmbedService. A nil registry means embedding.Default().
func New(registry *embedding.Registry, cfg Config, logger *slog.Logger) *EmbedService {
	if registry == nil {
		registry = embedding.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	exts := make([]string, len(cfg.Extensions))
	for i, e := range cfg.Extensions {
		exts[i] = strings.ToLower(e)
	}
	return &EmbedService{registry: registry, provider: cfg.Provider, extensions: exts, logger: logger}
}

// Embed embeds req.Documents with the selected provider.
func (s *EmbedService) Embed(ctx context.Context, req Request) (*Response, error) {
	module, typ, opts := s.selectProvider(req)

	var (
		vecs []embedding.Embedding
		err  error
	)
	if req.Async {
		vecs, err = embedding.Await(ctx, s.registry.EmbedDocumentsAsync(ctx, req.Documents, typ, module, opts))
	} else {
		vecs, err = s.registry.EmbedDocuments(ctx, req.Documents, typ, module, opts)
	}
	if err != nil {
		return nil, err
	}
	return &Response{Embeddings: vecs, Count: len(vecs), Module: module, Type: typ}, nil
}

func (s *EmbedService) selectProvider(req Request) (module, typ string, opts embedding.Options) {
	if req.Module == "" && req.Type == "" {
		return s.provider.Module, s.provider.Type, embedding.Options(s.provider.Options).Merge(req.Options)
	}
	return req.Module, req.Type, req.Options
}

// EmbedFiles expands glob patterns and embeds each matching file as one
// document. A pattern without matches is treated as a literal path.
func (s *EmbedService) EmbedFiles(ctx context.Context, patterns []string, req Request) ([]FileEmbedding, error) {
	var paths, documents []string
	for _, p := range patterns {
		matches, err := filepath.Glob(p)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p, err)
		}
		if matches == nil {
			matches = []string{p}
		}
		for _, m := range matches {
			if !s.accepts(m) || slices.Contains(paths, m) {
				continue
			}
			data, err := os.ReadFile(m)
			if err != nil {
				return nil, err
			}
			paths = append(paths, m)
			documents = append(documents, string(data))
		}
	}
	if len(documents) == 0 {
		return nil, fmt.Errorf("no documents found matching %s", strings.Join(patterns, ", "))
	}

	req.Documents = documents
	resp, err := s.Embed(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) != len(paths) {
		return nil, fmt.Errorf("provider returned %d embeddings for %d files", len(resp.Embeddings), len(paths))
	}

	out := make([]FileEmbedding, len(paths))
	for i, p := range paths {
		out[i] = FileEmbedding{ID: hashString(p), Path: p, Embedding: resp.Embeddings[i]}
	}
	s.logger.Info("Embedded files", "files", len(out), "module", resp.Module, "type", resp.Type)
	return out, nil
}

// Accepts reports whether EmbedFiles would read path.
func (s *EmbedService) Accepts(path string) bool { return s.accepts(path) }

func (s *EmbedService) accepts(path string) bool {
	if len(s.extensions) == 0 {
		return true
	}
	return slices.Contains(s.extensions, strings.ToLower(filepath.Ext(path)))
}

// Providers lists the registered provider modules.
func (s *EmbedService) Providers() []embedding.ModuleInfo {
	return s.registry.Modules()
}

// DefaultProvider returns the provider used when a request names none.
func (s *EmbedService) DefaultProvider() config.ProviderConfig { return s.provider }

func hashString(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:8])
}
