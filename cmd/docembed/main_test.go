package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docembed/internal/embedding"
	"docembed/internal/service"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "config.yaml")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestEmbed_DefaultProviderJSON(t *testing.T) {
	out, err := run(t, "", "embed", "red apple", "green apple")
	require.NoError(t, err)

	var resp service.Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "tfidf", resp.Module)
	assert.Equal(t, "TFIDFEmbeddings", resp.Type)
	assert.Equal(t, 2, resp.Count)
}

func TestEmbed_StdinAsyncText(t *testing.T) {
	out, err := run(t, "first line\n\nsecond line\n", "embed", "--stdin", "--async", "--format", "text",
		"--module", "tfidf", "--type", "TFIDFEmbeddings", "-o", "stopwords=false")
	require.NoError(t, err)
	assert.Contains(t, out, "# tfidf/TFIDFEmbeddings")
	assert.Contains(t, out, "first line")
	assert.Contains(t, out, "second line")
}

func TestEmbed_Files(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("alpha beta"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.md"), []byte("beta gamma"), 0o644))

	out, err := run(t, "", "embed", "--file", filepath.Join(dir, "*"))
	require.NoError(t, err)

	var files []service.FileEmbedding
	require.NoError(t, json.Unmarshal([]byte(out), &files))
	require.Len(t, files, 2)
	assert.Equal(t, filepath.Join(dir, "a.txt"), files[0].Path)
}

func TestEmbed_Errors(t *testing.T) {
	_, err := run(t, "", "embed")
	assert.ErrorContains(t, err, "no documents")

	_, err = run(t, "", "embed", "-o", "novalue", "x")
	assert.ErrorContains(t, err, "expected key=value")

	_, err = run(t, "", "embed", "--format", "xml", "x")
	assert.ErrorContains(t, err, "invalid format")

	_, err = run(t, "", "embed", "--module", "nope", "--type", "X", "x")
	assert.ErrorIs(t, err, embedding.ErrModuleNotFound)

	_, err = run(t, "", "embed", "--module", "tfidf", "--type", "ONNXEmbeddings", "x")
	assert.ErrorIs(t, err, embedding.ErrNotConstructible)

	_, err = run(t, "", "embed", "--module", "tfidf", "x")
	assert.ErrorIs(t, err, embedding.ErrInvalidArgument)
}

func TestProviders(t *testing.T) {
	out, err := run(t, "", "providers")
	require.NoError(t, err)
	assert.Contains(t, out, "TFIDFEmbeddings (default)")
	assert.Contains(t, out, "OpenAIEmbeddings")
	assert.Contains(t, out, "HuggingFaceInferenceEmbeddings")

	out, err = run(t, "", "providers", "--format", "json")
	require.NoError(t, err)
	var mods []embedding.ModuleInfo
	require.NoError(t, json.Unmarshal([]byte(out), &mods))
	assert.Len(t, mods, 4)
}

func TestInvalidLogLevel(t *testing.T) {
	_, err := run(t, "", "--log-level", "loud", "providers")
	assert.Error(t, err)
}

func TestPreviewAndTruncate(t *testing.T) {
	assert.Equal(t, "[1.0000 2.0000 ...]", preview(embedding.Embedding{1, 2, 3}, 2))
	assert.Equal(t, "[]", preview(nil, 2))
	assert.Equal(t, "a b", truncate("a\n b", 10))
	assert.Equal(t, "abc…", truncate("abcdef", 4))
}
