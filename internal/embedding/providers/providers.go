// Package providers registers every built-in embedding provider module with
// the default registry.
package providers

import (
	_ "docembed/internal/embedding/huggingface"
	_ "docembed/internal/embedding/ollama"
	_ "docembed/internal/embedding/openai"
	_ "docembed/internal/embedding/tfidf"
)
