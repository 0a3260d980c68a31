package huggingface

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/hupe1980/go-huggingface"

	"docembed/internal/embedding"
)

// ModuleName is the module identifier the HuggingFace types are registered under.
const ModuleName = "huggingface"

// DefaultModel is used when no model option is given.
const DefaultModel = "sentence-transformers/all-MiniLM-L6-v2"

func init() {
	embedding.Register(ModuleName, Types()...)
}

// Types returns the types this package provides.
func Types() []embedding.Type {
	return []embedding.Type{{
		Name:        "HuggingFaceInferenceEmbeddings",
		Description: "HuggingFace Inference API feature extraction",
		New: func(opts embedding.Options) (embedding.DocumentEmbedder, error) {
			cfg := Config{WaitForModel: true, UseCache: true}
			if err := opts.Decode(&cfg); err != nil {
				return nil, err
			}
			return New(cfg), nil
		},
	}}
}

// Config configures the HuggingFace provider.
type Config struct {
	Model        string `mapstructure:"model"`
	APIToken     string `mapstructure:"api_token"`
	WaitForModel bool   `mapstructure:"wait_for_model"`
	UseCache     bool   `mapstructure:"use_cache"`
	// MaxLength truncates each document to this many bytes; 0 disables it.
	MaxLength int `mapstructure:"max_length"`
}

// Embeddings implements embedding.DocumentEmbedder over the inference API.
type Embeddings struct {
	cfg    Config
	client *huggingface.InferenceClient
}

// New creates the provider. The token falls back to HUGGINGFACEHUB_API_TOKEN,
// then HF_TOKEN. Public models work without one.
func New(cfg Config) *Embeddings {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.APIToken == "" {
		cfg.APIToken = os.Getenv("HUGGINGFACEHUB_API_TOKEN")
	}
	if cfg.APIToken == "" {
		cfg.APIToken = os.Getenv("HF_TOKEN")
	}

	client := huggingface.NewInferenceClient(cfg.APIToken)
	client.SetModel(cfg.Model)
	return &Embeddings{cfg: cfg, client: client}
}

// Model returns the model id requests are sent to.
func (e *Embeddings) Model() string { return e.cfg.Model }

// EmbedDocuments sends all documents in one feature extraction request.
func (e *Embeddings) EmbedDocuments(ctx context.Context, documents []string) ([]embedding.Embedding, error) {
	if len(documents) == 0 {
		return []embedding.Embedding{}, nil
	}

	req := &huggingface.FeatureExtractionRequest{
		Inputs: e.truncate(documents),
		Options: huggingface.Options{
			WaitForModel: huggingface.PTR(e.cfg.WaitForModel),
			UseCache:     huggingface.PTR(e.cfg.UseCache),
		},
	}
	resp, err := e.client.FeatureExtractionWithAutomaticReduction(ctx, req)
	if err != nil {
		if isAuthError(err) {
			return nil, fmt.Errorf("authentication failed for model %s, set HUGGINGFACEHUB_API_TOKEN: %w", e.cfg.Model, err)
		}
		return nil, fmt.Errorf("feature extraction with model %s: %w", e.cfg.Model, err)
	}
	if len(resp) != len(documents) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(documents), len(resp))
	}

	out := make([]embedding.Embedding, len(resp))
	for i, v := range resp {
		out[i] = v
	}
	return out, nil
}

func (e *Embeddings) truncate(documents []string) []string {
	if e.cfg.MaxLength <= 0 {
		return documents
	}
	out := make([]string, len(documents))
	for i, d := range documents {
		if len(d) > e.cfg.MaxLength {
			d = d[:e.cfg.MaxLength]
		}
		out[i] = d
	}
	return out
}

func isAuthError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "invalid username or password") ||
		strings.Contains(msg, "unauthorized") ||
		strings.Contains(msg, "authentication")
}
