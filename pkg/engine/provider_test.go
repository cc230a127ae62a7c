package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/germanamz/actloop/pkg/modeladapter"
	"github.com/germanamz/actloop/pkg/providers/gemini"
	"github.com/germanamz/actloop/pkg/providers/ollama"
	"github.com/germanamz/actloop/pkg/providers/openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBuildCompleter_BuiltinKinds(t *testing.T) {
	tests := []struct {
		kind string
		want any
	}{
		{"openai", &openai.Adapter{}},
		{"ollama", &ollama.Adapter{}},
		{"gemini", &gemini.Adapter{}},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			c, err := buildCompleter(context.Background(), ProviderConfig{
				Name:   "p",
				Kind:   tt.kind,
				APIKey: "test-key",
				Model:  "test-model",
			}, zap.NewNop())
			require.NoError(t, err)
			assert.IsType(t, tt.want, c)
		})
	}
}

func TestBuildCompleter_UnknownKind(t *testing.T) {
	_, err := buildCompleter(context.Background(), ProviderConfig{Name: "p", Kind: "nope"}, zap.NewNop())
	assert.ErrorContains(t, err, `unknown provider kind "nope"`)
}

func TestBuildCompleter_FactoryError(t *testing.T) {
	_, err := buildCompleter(context.Background(), ProviderConfig{
		Name:    "local",
		Kind:    "ollama",
		BaseURL: "://bad",
	}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `engine: provider "local"`)
}

func TestRegisterProvider_Custom(t *testing.T) {
	want := modeladapter.CompleterFunc(func(context.Context, modeladapter.Request) (modeladapter.Response, error) {
		return modeladapter.Response{}, errors.New("unused")
	})

	var got ProviderConfig
	RegisterProvider("custom-test", func(_ context.Context, cfg ProviderConfig, _ *zap.Logger) (modeladapter.Completer, error) {
		got = cfg
		return want, nil
	})

	cfg := ProviderConfig{Name: "mine", Kind: "custom-test", Model: "m"}
	c, err := buildCompleter(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, c)
	assert.Equal(t, cfg, got)

	_, ok := getFactory("custom-test")
	assert.True(t, ok)
}
