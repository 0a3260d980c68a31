package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docembed/internal/embedding"
)

func intPtr(v int) *int { return &v }

func TestClient_EmbedDocuments_OpenAIShape(t *testing.T) {
	var prompts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		var body struct {
			Input string `json:"input"`
			Model string `json:"model"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "mini", body.Model)
		prompts = append(prompts, body.Input)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"embedding": []float32{float32(len(body.Input)), 1}}},
		})
	}))
	defer srv.Close()

	t.Setenv("TEST_OLLAMA_KEY", "secret")
	c, err := NewClient(Config{BaseURL: srv.URL + "/v1", APIKeyEnv: "TEST_OLLAMA_KEY", Model: "mini"})
	require.NoError(t, err)

	vecs, err := c.EmbedDocuments(context.Background(), []string{"a", "bbb"})
	require.NoError(t, err)
	assert.Equal(t, []embedding.Embedding{{1, 1}, {3, 1}}, vecs)
	assert.Equal(t, []string{"a", "bbb"}, prompts)
}

func TestClient_EmbedDocuments_OllamaShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"embedding":[0.5,0.25]}`))
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL})
	require.NoError(t, err)
	vecs, err := c.EmbedDocuments(context.Background(), []string{"hello"})
	require.NoError(t, err)
	assert.Equal(t, []embedding.Embedding{{0.5, 0.25}}, vecs)
}

func TestClient_Retries(t *testing.T) {
	t.Run("server error then success", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte(`{"embedding":[1]}`))
		}))
		defer srv.Close()

		c, err := NewClient(Config{BaseURL: srv.URL, MaxRetries: intPtr(2)})
		require.NoError(t, err)
		vecs, err := c.EmbedDocuments(context.Background(), []string{"x"})
		require.NoError(t, err)
		assert.Len(t, vecs, 1)
		assert.EqualValues(t, 2, calls.Load())
	})

	t.Run("client error is not retried", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		c, err := NewClient(Config{BaseURL: srv.URL, MaxRetries: intPtr(3)})
		require.NoError(t, err)
		_, err = c.EmbedDocuments(context.Background(), []string{"x"})
		var se *StatusError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, http.StatusUnauthorized, se.StatusCode)
		assert.EqualValues(t, 1, calls.Load())
	})

	t.Run("retries exhausted", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		}))
		defer srv.Close()

		c, err := NewClient(Config{BaseURL: srv.URL, MaxRetries: intPtr(0)})
		require.NoError(t, err)
		_, err = c.EmbedDocuments(context.Background(), []string{"x"})
		assert.ErrorIs(t, err, errNoEmbedding)
	})

	t.Run("cancelled while backing off", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "30")
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer srv.Close()

		c, err := NewClient(Config{BaseURL: srv.URL})
		require.NoError(t, err)
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		_, err = c.EmbedDocuments(ctx, []string{"x"})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestTypes_Options(t *testing.T) {
	reg := embedding.NewRegistry(nil)
	reg.MustRegister(ModuleName, Types()...)

	inst, err := reg.Resolve(ModuleName, "OllamaEmbeddings", embedding.Options{
		"base_url":    "http://example.invalid",
		"timeout":     "2s",
		"max_retries": "1",
	})
	require.NoError(t, err)
	c := inst.(*Client)
	assert.Equal(t, 1, c.maxRetries)
	assert.Equal(t, 2*time.Second, c.client.Timeout)
	assert.Equal(t, "nomic-embed-text", c.model)

	_, err = reg.Resolve(ModuleName, "OllamaEmbeddings", embedding.Options{"api_key_env": "DOCEMBED_UNSET_KEY_FOR_TEST"})
	assert.ErrorIs(t, err, embedding.ErrConstructionFailed)
	assert.ErrorContains(t, err, "DOCEMBED_UNSET_KEY_FOR_TEST")
}

func TestRetryDelay(t *testing.T) {
	assert.Equal(t, 200*time.Millisecond, retryDelay(0))
	assert.Equal(t, 400*time.Millisecond, retryDelay(1))
	assert.Equal(t, 5*time.Second, retryDelay(10))
}
