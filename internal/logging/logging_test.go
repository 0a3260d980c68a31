package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "info", FormatJSON)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("Embedded documents", "module", "tfidf", "embeddings", 3)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "Embedded documents", entry["msg"])
	assert.Equal(t, "tfidf", entry["module"])
}

func TestNew_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "DEBUG", "")
	require.NoError(t, err)
	logger.Debug("visible")
	assert.Contains(t, buf.String(), "visible")

	_, err = New(&buf, "loud", "")
	assert.Error(t, err)
	_, err = New(&buf, "", "xml")
	assert.Error(t, err)
}
