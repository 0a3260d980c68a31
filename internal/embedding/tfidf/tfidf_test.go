package tfidf

import (
	"context"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docembed/internal/embedding"
)

func norm(v embedding.Embedding) float64 {
	var s float64
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s)
}

func TestEmbedder_EmbedDocuments(t *testing.T) {
	e := NewEmbedder(Config{Stopwords: true})
	docs := []string{
		"the quick brown fox",
		"the lazy dog",
		"quick quick fox",
	}

	vecs, err := e.EmbedDocuments(context.Background(), docs)
	require.NoError(t, err)
	require.Len(t, vecs, len(docs))
	assert.Equal(t, 5, e.Dimension(), "brown dog fox lazy quick")
	for _, v := range vecs {
		assert.Len(t, v, e.Dimension())
		assert.InDelta(t, 1.0, norm(v), 1e-5)
	}

	// "the" is a stopword, so doc 1 shares no terms with doc 2
	var dot float32
	for i := range vecs[1] {
		dot += vecs[1][i] * vecs[2][i]
	}
	assert.Zero(t, dot)
}

func TestEmbedder_MaxFeatures(t *testing.T) {
	e := NewEmbedder(Config{MaxFeatures: 2, Stopwords: true})
	vecs, err := e.EmbedDocuments(context.Background(), []string{"apple banana", "apple cherry", "apple banana date"})
	require.NoError(t, err)
	assert.Equal(t, 2, e.Dimension())
	_, hasApple := e.vocabulary["apple"]
	_, hasBanana := e.vocabulary["banana"]
	assert.True(t, hasApple)
	assert.True(t, hasBanana)
	assert.Len(t, vecs[0], 2)
}

func TestEmbedder_Errors(t *testing.T) {
	e := NewEmbedder(Config{Stopwords: true})

	_, err := e.Embed("hello")
	assert.Error(t, err, "embedding before prepare")

	_, err = e.EmbedDocuments(context.Background(), []string{"the a an", "of to"})
	assert.ErrorContains(t, err, "no tokens")

	vecs, err := e.EmbedDocuments(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vecs)
}

func TestEmbedder_StopwordsDisabled(t *testing.T) {
	e := NewEmbedder(Config{})
	_, err := e.EmbedDocuments(context.Background(), []string{"the a an"})
	require.NoError(t, err)
	assert.Equal(t, 3, e.Dimension())
}

func TestTypes_ThroughRegistry(t *testing.T) {
	reg := embedding.NewRegistry(slog.New(slog.NewTextHandler(io.Discard, nil)))
	reg.MustRegister(ModuleName, Types()...)

	vecs, err := reg.EmbedDocuments(context.Background(), []string{"red apple", "green apple"}, "TFIDFEmbeddings", ModuleName,
		embedding.Options{"max_features": "10"})
	require.NoError(t, err)
	assert.Len(t, vecs, 2)

	_, err = reg.EmbedDocuments(context.Background(), []string{"x"}, "TFIDFEmbeddings", ModuleName,
		embedding.Options{"unknown": true})
	assert.ErrorIs(t, err, embedding.ErrConstructionFailed)

	_, err = reg.EmbedDocuments(context.Background(), []string{"x"}, "ONNXEmbeddings", ModuleName, nil)
	assert.ErrorIs(t, err, embedding.ErrNotConstructible)
}
