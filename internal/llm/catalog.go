package llm

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Factory builds a client for one provider. An empty model selects the
// provider's default.
type Factory func(model string) (CompletionClient, error)

// Registration describes one provider in the catalog.
type Registration struct {
	Provider     string
	DefaultModel string
	Factory      Factory
}

var ErrProviderNotRegistered = errors.New("llm: provider is not registered")

type catalog struct {
	mu        sync.RWMutex
	providers map[string]Registration
}

var defaultCatalog = &catalog{providers: map[string]Registration{}}

// Register adds a provider to the catalog. A later registration replaces an
// earlier one with the same name.
func Register(reg Registration) error {
	provider := strings.ToLower(strings.TrimSpace(reg.Provider))
	if provider == "" {
		return fmt.Errorf("llm: register: provider name is required")
	}
	if reg.Factory == nil {
		return fmt.Errorf("llm: register %q: factory is nil", provider)
	}
	defaultCatalog.mu.Lock()
	defer defaultCatalog.mu.Unlock()
	defaultCatalog.providers[provider] = reg
	return nil
}

// New builds a client for the named provider. An empty provider selects
// "groq"; an empty model selects the provider's default.
func New(provider, model string) (CompletionClient, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		provider = "groq"
	}
	defaultCatalog.mu.RLock()
	reg, ok := defaultCatalog.providers[provider]
	defaultCatalog.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (have: %s)", ErrProviderNotRegistered, provider, strings.Join(Providers(), ", "))
	}
	if strings.TrimSpace(model) == "" {
		model = reg.DefaultModel
	}
	return reg.Factory(model)
}

// Providers lists registered provider names, sorted.
func Providers() []string {
	defaultCatalog.mu.RLock()
	defer defaultCatalog.mu.RUnlock()
	out := make([]string, 0, len(defaultCatalog.providers))
	for name := range defaultCatalog.providers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func init() {
	_ = Register(Registration{
		Provider:     "groq",
		DefaultModel: DefaultGroqModel,
		Factory: func(model string) (CompletionClient, error) {
			return NewGroqClient(model), nil
		},
	})
	_ = Register(Registration{
		Provider:     "gemini",
		DefaultModel: DefaultGeminiModel,
		Factory: func(model string) (CompletionClient, error) {
			return NewGeminiClient(model), nil
		},
	})
	_ = Register(Registration{
		Provider:     "fake",
		DefaultModel: "fake",
		Factory: func(string) (CompletionClient, error) {
			return NewFakeClient(), nil
		},
	})
}
