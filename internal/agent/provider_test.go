package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"viora-backend/internal/config"
)

func TestNewReasoningProvider(t *testing.T) {
	p, err := NewReasoningProvider(&config.Config{ReasoningProvider: config.ProviderCentral, CentralBackendURL: "http://central"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &CentralProvider{}, p)

	p, err = NewReasoningProvider(&config.Config{ReasoningProvider: config.ProviderDirect, OpenRouterAPIKey: "k"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &DirectProvider{}, p)

	p, err = NewReasoningProvider(&config.Config{ReasoningProvider: config.ProviderDirect}, nil)
	assert.ErrorIs(t, err, ErrMissingAPIKey)
	assert.Nil(t, p)

	_, err = NewReasoningProvider(&config.Config{ReasoningProvider: "oracle"}, nil)
	assert.ErrorIs(t, err, config.ErrUnsupportedProvider)
}

func TestNewToneAdapter(t *testing.T) {
	a, err := NewToneAdapter(&config.Config{ToneAdapter: config.ToneTemplate}, nil)
	require.NoError(t, err)
	assert.IsType(t, TemplateTone{}, a)

	a, err = NewToneAdapter(&config.Config{ToneAdapter: config.ToneLLM}, nil)
	require.NoError(t, err)
	assert.IsType(t, &LLMTone{}, a)

	_, err = NewToneAdapter(&config.Config{ToneAdapter: "poetic"}, nil)
	assert.ErrorIs(t, err, config.ErrUnsupportedToneAdapter)
}
