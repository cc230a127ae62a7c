package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/germanamz/actloop/pkg/modeladapter"
	"github.com/germanamz/actloop/pkg/providers/gemini"
	"github.com/germanamz/actloop/pkg/providers/ollama"
	"github.com/germanamz/actloop/pkg/providers/openai"
	"go.uber.org/zap"
)

// ProviderFactory creates a Completer from a ProviderConfig.
type ProviderFactory func(ctx context.Context, cfg ProviderConfig, log *zap.Logger) (modeladapter.Completer, error)

var (
	factoryMu   sync.RWMutex
	factories   = map[string]ProviderFactory{}
	defaultsReg sync.Once
)

func ensureDefaults() {
	defaultsReg.Do(func() {
		factories["openai"] = newOpenAI
		factories["ollama"] = newOllama
		factories["gemini"] = newGemini
	})
}

// RegisterProvider registers a custom provider factory under the given kind.
// It can be called before New to extend the engine with additional providers.
func RegisterProvider(kind string, factory ProviderFactory) {
	ensureDefaults()

	factoryMu.Lock()
	defer factoryMu.Unlock()

	factories[kind] = factory
}

// getFactory returns the factory for the given kind.
func getFactory(kind string) (ProviderFactory, bool) {
	ensureDefaults()

	factoryMu.RLock()
	defer factoryMu.RUnlock()

	f, ok := factories[kind]
	return f, ok
}

func newOpenAI(_ context.Context, cfg ProviderConfig, log *zap.Logger) (modeladapter.Completer, error) {
	return openai.New(openai.Config{
		BaseURL:     cfg.BaseURL,
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Log:         log,
	}), nil
}

func newOllama(_ context.Context, cfg ProviderConfig, log *zap.Logger) (modeladapter.Completer, error) {
	return ollama.New(ollama.Config{
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Log:         log,
	})
}

func newGemini(ctx context.Context, cfg ProviderConfig, log *zap.Logger) (modeladapter.Completer, error) {
	return gemini.New(ctx, gemini.Config{
		BaseURL:     cfg.BaseURL,
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Log:         log,
	})
}

// buildCompleter creates a Completer from a ProviderConfig using the registered
// factory for its Kind.
func buildCompleter(ctx context.Context, cfg ProviderConfig, log *zap.Logger) (modeladapter.Completer, error) {
	factory, ok := getFactory(cfg.Kind)
	if !ok {
		return nil, fmt.Errorf("engine: unknown provider kind %q", cfg.Kind)
	}

	c, err := factory(ctx, cfg, log.With(zap.String("provider", cfg.Name)))
	if err != nil {
		return nil, fmt.Errorf("engine: provider %q: %w", cfg.Name, err)
	}

	return c, nil
}
