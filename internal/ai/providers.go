package ai

import (
	"fmt"
	"sort"
	"strings"
)

// Provider is a preset for an OpenAI-compatible endpoint.
type Provider struct {
	Name         string
	BaseURL      string
	DefaultModel string
	// KeyEnv is the conventional environment variable holding the key.
	KeyEnv      string
	RequiresKey bool
	Headers     map[string]string
	// Models is a short curated list shown by `datalicious providers`.
	Models []string
}

type UnknownProviderError struct{ Name string }

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown provider: %s (known: %s)", e.Name, strings.Join(ProviderNames(), ", "))
}

var providers = map[string]Provider{}

// RegisterProvider adds or replaces a preset.
func RegisterProvider(p Provider) { providers[strings.ToLower(p.Name)] = p }

// LookupProvider returns the preset for name. Empty selects openrouter.
func LookupProvider(name string) (Provider, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		n = ProviderOpenRouter
	}
	if n == "local" {
		n = ProviderOllama
	}
	p, ok := providers[n]
	return p, ok
}

// ProviderNames returns registered preset names in sorted order.
func ProviderNames() []string {
	out := make([]string, 0, len(providers))
	for k := range providers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func init() {
	RegisterProvider(Provider{
		Name:         ProviderOpenRouter,
		BaseURL:      "https://openrouter.ai/api/v1",
		DefaultModel: "openai/gpt-4o-mini",
		KeyEnv:       "OPENROUTER_API_KEY",
		RequiresKey:  true,
		Headers: map[string]string{
			"HTTP-Referer": "https://github.com/KaramelBytes/datalicious",
			"X-Title":      "Datalicious",
		},
		Models: []string{"openai/gpt-4o-mini", "openai/gpt-4o", "anthropic/claude-3.5-sonnet", "deepseek/deepseek-r1:free"},
	})
	RegisterProvider(Provider{
		Name:         ProviderOpenAI,
		BaseURL:      "https://api.openai.com/v1",
		DefaultModel: "gpt-4o-mini",
		KeyEnv:       "OPENAI_API_KEY",
		RequiresKey:  true,
		Models:       []string{"gpt-4o-mini", "gpt-4o", "gpt-4.1-mini"},
	})
	RegisterProvider(Provider{
		Name:         ProviderTogether,
		BaseURL:      "https://api.together.xyz/v1",
		DefaultModel: "mistralai/Mixtral-8x7B-Instruct-v0.1",
		KeyEnv:       "TOGETHER_API_KEY",
		RequiresKey:  true,
		Models:       []string{"mistralai/Mixtral-8x7B-Instruct-v0.1", "meta-llama/Llama-3-8b-chat-hf"},
	})
	RegisterProvider(Provider{
		Name:         ProviderOllama,
		BaseURL:      "http://127.0.0.1:11434/v1",
		DefaultModel: "llama3.1:8b-instruct",
		RequiresKey:  false,
		Models:       []string{"llama3.1:8b-instruct", "mistral-nemo:latest", "phi3:mini-128k-instruct"},
	})
}
