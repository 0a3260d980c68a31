package tfidf

import (
	"context"
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"

	"docembed/internal/embedding"
)

// ModuleName is the module identifier the TF-IDF types are registered under.
const ModuleName = "tfidf"

func init() {
	embedding.Register(ModuleName, Types()...)
}

// Types returns the types this package provides, for registering into a
// registry other than the default one.
func Types() []embedding.Type {
	return []embedding.Type{
		{
			Name:        "TFIDFEmbeddings",
			Description: "Local TF-IDF vectors fitted on the documents of each request",
			New: func(opts embedding.Options) (embedding.DocumentEmbedder, error) {
				cfg := Config{Stopwords: true}
				if err := opts.Decode(&cfg); err != nil {
					return nil, err
				}
				return NewEmbedder(cfg), nil
			},
		},
		{
			// Declared so selecting it reports that it is not built in.
			Name:        "ONNXEmbeddings",
			Description: "Sentence-transformer models via ONNX runtime (not compiled into this build)",
		},
	}
}

// Config configures the vectorizer.
type Config struct {
	// MaxFeatures caps the vocabulary to the most frequent terms; 0 means no cap.
	MaxFeatures int `mapstructure:"max_features"`
	// Stopwords filters common English words.
	Stopwords bool `mapstructure:"stopwords"`
}

// Embedder implements a simple TF-IDF vectorizer.
// It builds a vocabulary from the corpus and computes IDF values.
type Embedder struct {
	cfg          Config
	vocabulary   map[string]int
	idf          []float64
	dimension    int
	prepared     bool
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
}

// NewEmbedder creates an unprepared TF-IDF embedder.
func NewEmbedder(cfg Config) *Embedder {
	e := &Embedder{
		cfg:          cfg,
		vocabulary:   make(map[string]int),
		tokenPattern: regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`),
		stopwords:    map[string]struct{}{},
	}
	if cfg.Stopwords {
		e.stopwords = defaultStopwords()
	}
	return e
}

// EmbedDocuments fits the vocabulary on documents and returns one L2
// normalized vector per document.
func (e *Embedder) EmbedDocuments(ctx context.Context, documents []string) ([]embedding.Embedding, error) {
	if len(documents) == 0 {
		return []embedding.Embedding{}, nil
	}
	if err := e.Prepare(documents); err != nil {
		return nil, err
	}
	out := make([]embedding.Embedding, len(documents))
	for i, doc := range documents {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vec, err := e.Embed(doc)
		if err != nil {
			return nil, err
		}
		out[i] = toFloat32(vec)
	}
	return out, nil
}

// Prepare builds the vocabulary and IDF values from the provided corpus.
func (e *Embedder) Prepare(corpus []string) error {
	if len(corpus) == 0 {
		return errors.New("empty corpus for TF-IDF prepare")
	}
	// Build vocabulary and document frequencies
	df := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, tok := range e.tokenize(text) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}
	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	if len(terms) == 0 {
		return errors.New("no tokens found in corpus; ensure tokenizer supports your language")
	}
	// Most frequent first, ties broken alphabetically, then cap.
	sort.Slice(terms, func(i, j int) bool {
		if df[terms[i]] != df[terms[j]] {
			return df[terms[i]] > df[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if e.cfg.MaxFeatures > 0 && len(terms) > e.cfg.MaxFeatures {
		terms = terms[:e.cfg.MaxFeatures]
	}
	// Stable column order regardless of the cap
	sort.Strings(terms)

	e.vocabulary = make(map[string]int, len(terms))
	e.idf = make([]float64, len(terms))
	N := float64(len(corpus))
	for i, term := range terms {
		e.vocabulary[term] = i
		// Smoothed IDF
		e.idf[i] = math.Log((1+N)/(1+float64(df[term]))) + 1.0
	}
	e.dimension = len(terms)
	e.prepared = true
	return nil
}

// Dimension returns the dimensionality of the produced embedding vectors.
func (e *Embedder) Dimension() int { return e.dimension }

// Embed computes the TF-IDF embedding for the given text.
func (e *Embedder) Embed(text string) ([]float64, error) {
	if !e.prepared {
		return nil, errors.New("tfidf embedder not prepared")
	}
	vec := make([]float64, e.dimension)
	tf := make(map[int]int)
	total := 0
	for _, tok := range e.tokenize(text) {
		if idx, ok := e.vocabulary[tok]; ok {
			tf[idx]++
			total++
		}
	}
	if total == 0 {
		return vec, nil
	}
	for idx, count := range tf {
		tfv := float64(count) / float64(total)
		vec[idx] = tfv * e.idf[idx]
	}
	// L2 normalize
	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec, nil
}

func (e *Embedder) tokenize(text string) []string {
	raw := e.tokenPattern.FindAllString(strings.ToLower(text), -1)
	if len(raw) == 0 {
		return nil
	}
	out := raw[:0]
	for _, t := range raw {
		if _, isStop := e.stopwords[t]; isStop {
			continue
		}
		out = append(out, t)
	}
	return out
}

func toFloat32(v []float64) embedding.Embedding {
	out := make(embedding.Embedding, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
