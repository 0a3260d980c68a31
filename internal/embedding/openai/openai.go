package openai

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	openai "github.com/sashabaranov/go-openai"

	"docembed/internal/embedding"
)

// ModuleName is the module identifier the OpenAI types are registered under.
const ModuleName = "openai"

// DefaultModel is used when no model option is given.
const DefaultModel openai.EmbeddingModel = "text-embedding-3-small"

// Maximum number of inputs sent in a single request.
const defaultBatchSize = 1000

func init() {
	embedding.Register(ModuleName, Types()...)
}

// Types returns the types this package provides.
func Types() []embedding.Type {
	return []embedding.Type{
		{
			Name:        "OpenAIEmbeddings",
			Description: "OpenAI embeddings API (or a compatible base_url)",
			New: func(opts embedding.Options) (embedding.DocumentEmbedder, error) {
				var cfg Config
				if err := opts.Decode(&cfg); err != nil {
					return nil, err
				}
				return New(cfg)
			},
		},
		{
			Name:        "AzureOpenAIEmbeddings",
			Description: "Azure OpenAI embeddings deployment",
			New: func(opts embedding.Options) (embedding.DocumentEmbedder, error) {
				var cfg AzureConfig
				if err := opts.Decode(&cfg); err != nil {
					return nil, err
				}
				return NewAzure(cfg)
			},
		},
	}
}

// Config configures the OpenAI provider.
type Config struct {
	APIKey       string `mapstructure:"api_key"`
	BaseURL      string `mapstructure:"base_url"`
	Organization string `mapstructure:"organization"`
	Model        string `mapstructure:"model"`
	Dimensions   int    `mapstructure:"dimensions"`
	User         string `mapstructure:"user"`
	BatchSize    int    `mapstructure:"batch_size"`
}

// AzureConfig configures the Azure OpenAI provider.
type AzureConfig struct {
	APIKey     string `mapstructure:"api_key"`
	Endpoint   string `mapstructure:"endpoint"`
	Deployment string `mapstructure:"deployment"`
	APIVersion string `mapstructure:"api_version"`
	Model      string `mapstructure:"model"`
	Dimensions int    `mapstructure:"dimensions"`
	User       string `mapstructure:"user"`
	BatchSize  int    `mapstructure:"batch_size"`
}

// Embeddings implements embedding.DocumentEmbedder using the OpenAI API.
type Embeddings struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
	user       string
	batchSize  int
}

// New creates an OpenAI provider. The API key falls back to OPENAI_API_KEY.
func New(cfg Config) (*Embeddings, error) {
	key := cfg.APIKey
	if key == "" {
		key = os.Getenv("OPENAI_API_KEY")
	}
	if key == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable not set")
	}

	clientConfig := openai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	if cfg.Organization != "" {
		clientConfig.OrgID = cfg.Organization
	}
	return newEmbeddings(openai.NewClientWithConfig(clientConfig), cfg.Model, cfg.Dimensions, cfg.User, cfg.BatchSize)
}

// NewAzure creates an Azure OpenAI provider. The API key falls back to
// AZURE_OPENAI_API_KEY and the endpoint to AZURE_OPENAI_ENDPOINT.
func NewAzure(cfg AzureConfig) (*Embeddings, error) {
	key := cfg.APIKey
	if key == "" {
		key = os.Getenv("AZURE_OPENAI_API_KEY")
	}
	if key == "" {
		return nil, errors.New("AZURE_OPENAI_API_KEY environment variable not set")
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = os.Getenv("AZURE_OPENAI_ENDPOINT")
	}
	if endpoint == "" {
		return nil, errors.New("azure endpoint is required")
	}

	clientConfig := openai.DefaultAzureConfig(key, endpoint)
	if cfg.APIVersion != "" {
		clientConfig.APIVersion = cfg.APIVersion
	}
	if cfg.Deployment != "" {
		deployment := cfg.Deployment
		clientConfig.AzureModelMapperFunc = func(string) string { return deployment }
	}
	return newEmbeddings(openai.NewClientWithConfig(clientConfig), cfg.Model, cfg.Dimensions, cfg.User, cfg.BatchSize)
}

func newEmbeddings(client *openai.Client, model string, dimensions int, user string, batchSize int) (*Embeddings, error) {
	if dimensions < 0 {
		return nil, fmt.Errorf("dimensions must not be negative, got %d", dimensions)
	}
	if batchSize < 0 {
		return nil, fmt.Errorf("batch_size must not be negative, got %d", batchSize)
	}
	if batchSize == 0 {
		batchSize = defaultBatchSize
	}
	m := DefaultModel
	if model != "" {
		m = openai.EmbeddingModel(model)
	}
	return &Embeddings{client: client, model: m, dimensions: dimensions, user: user, batchSize: batchSize}, nil
}

// EmbedDocuments embeds documents in batches, returning vectors in input order.
func (e *Embeddings) EmbedDocuments(ctx context.Context, documents []string) ([]embedding.Embedding, error) {
	out := make([]embedding.Embedding, 0, len(documents))
	for start := 0; start < len(documents); start += e.batchSize {
		end := min(start+e.batchSize, len(documents))
		batch, err := e.embedBatch(ctx, documents[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, batch...)
	}
	return out, nil
}

func (e *Embeddings) embedBatch(ctx context.Context, texts []string) ([]embedding.Embedding, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      texts,
		Model:      e.model,
		Dimensions: e.dimensions,
		User:       e.user,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	// The API does not promise response order; Index refers to the input position.
	data := resp.Data
	sort.SliceStable(data, func(i, j int) bool { return data[i].Index < data[j].Index })
	embeddings := make([]embedding.Embedding, len(data))
	for i, d := range data {
		if d.Index != i {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		embeddings[i] = d.Embedding
	}
	return embeddings, nil
}
