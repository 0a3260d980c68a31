package embedding_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docembed/internal/embedding"
)

func TestRegistry_Register(t *testing.T) {
	reg := embedding.NewRegistry(nil)

	require.NoError(t, reg.Register("b_module", embedding.Type{Name: "Second", New: constant(indexEmbedder{})}))
	require.NoError(t, reg.Register("a_module",
		embedding.Type{Name: "Zeta", Description: "last", New: constant(indexEmbedder{})},
		embedding.Type{Name: "Alpha"},
	))

	t.Run("duplicate type", func(t *testing.T) {
		err := reg.Register("a_module", embedding.Type{Name: "Alpha"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already registered")
	})

	t.Run("empty names", func(t *testing.T) {
		assert.Error(t, reg.Register("", embedding.Type{Name: "X"}))
		assert.Error(t, reg.Register("c_module", embedding.Type{}))
	})

	t.Run("must register panics", func(t *testing.T) {
		assert.Panics(t, func() { reg.MustRegister("b_module", embedding.Type{Name: "Second"}) })
	})

	t.Run("lookup", func(t *testing.T) {
		typ, ok := reg.Lookup("a_module", "Zeta")
		require.True(t, ok)
		assert.Equal(t, "last", typ.Description)

		_, ok = reg.Lookup("a_module", "Missing")
		assert.False(t, ok)
		_, ok = reg.Lookup("missing_module", "Zeta")
		assert.False(t, ok)
	})

	t.Run("modules sorted", func(t *testing.T) {
		mods := reg.Modules()
		require.Len(t, mods, 2)
		assert.Equal(t, "a_module", mods[0].Name)
		assert.Equal(t, "b_module", mods[1].Name)
		assert.Equal(t, []embedding.TypeInfo{
			{Name: "Alpha", Constructible: false},
			{Name: "Zeta", Description: "last", Constructible: true},
		}, mods[0].Types)
	})
}

func TestRegistry_Resolve(t *testing.T) {
	reg, _ := newTestRegistry(t)

	inst, err := reg.Resolve("some_module", "IndexClass", nil)
	require.NoError(t, err)
	assert.IsType(t, indexEmbedder{}, inst)

	_, err = reg.Resolve("some_module", "NotCallableClass", nil)
	assert.ErrorIs(t, err, embedding.ErrNotConstructible)
}

func TestOptions_Decode(t *testing.T) {
	type cfg struct {
		Model      string        `mapstructure:"model"`
		Dimensions int           `mapstructure:"dimensions"`
		WaitModel  bool          `mapstructure:"wait_for_model"`
		Timeout    time.Duration `mapstructure:"timeout"`
		Stopwords  []string      `mapstructure:"stopwords"`
	}

	t.Run("weakly typed", func(t *testing.T) {
		var c cfg
		err := embedding.Options{
			"model":          "text-embedding-3-small",
			"dimensions":     "2",
			"wait_for_model": "true",
			"timeout":        "5s",
			"stopwords":      "a,the",
		}.Decode(&c)
		require.NoError(t, err)
		assert.Equal(t, cfg{
			Model:      "text-embedding-3-small",
			Dimensions: 2,
			WaitModel:  true,
			Timeout:    5 * time.Second,
			Stopwords:  []string{"a", "the"},
		}, c)
	})

	t.Run("unknown key", func(t *testing.T) {
		var c cfg
		err := embedding.Options{"modle": "typo"}.Decode(&c)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "modle")
	})

	t.Run("nil options keep defaults", func(t *testing.T) {
		c := cfg{Model: "default"}
		require.NoError(t, embedding.Options(nil).Decode(&c))
		assert.Equal(t, "default", c.Model)
	})
}

func TestOptions_MergeAndParse(t *testing.T) {
	base := embedding.Options{"model": "a", "dimensions": 2}
	merged := base.Merge(embedding.Options{"model": "b"})
	assert.Equal(t, embedding.Options{"model": "b", "dimensions": 2}, merged)
	assert.Equal(t, "a", base["model"], "merge must not modify the receiver")

	opts, err := embedding.ParseOptions([]string{"model=text-embedding-3-small", " dimensions = 2", "url=http://x/?a=b"})
	require.NoError(t, err)
	assert.Equal(t, embedding.Options{
		"model":      "text-embedding-3-small",
		"dimensions": "2",
		"url":        "http://x/?a=b",
	}, opts)

	_, err = embedding.ParseOptions([]string{"novalue"})
	assert.Error(t, err)
	_, err = embedding.ParseOptions([]string{"=x"})
	assert.Error(t, err)
}
