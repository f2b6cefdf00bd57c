package ai

import (
	"context"

	"github.com/KaramelBytes/datalicious/internal/prompt"
)

// Generator is implemented by Client and by test doubles.
type Generator interface {
	Generate(ctx context.Context, env *prompt.Envelope) (string, error)
}

// Provider identifiers used across the CLI for selection.
const (
	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"
	ProviderTogether   = "together"
	ProviderOllama     = "ollama"
)
