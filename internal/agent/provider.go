package agent

import (
	"fmt"

	"golang.org/x/time/rate"

	"viora-backend/internal/config"
	"viora-backend/internal/nurse"
)

// NewReasoningProvider resolves REASONING_PROVIDER once, at startup.
func NewReasoningProvider(cfg *config.Config, limiter *rate.Limiter) (nurse.ReasoningProvider, error) {
	switch cfg.ReasoningProvider {
	case config.ProviderCentral:
		return NewCentralProvider(cfg.CentralBackendURL, cfg.CentralAskPath, cfg.CentralTimeout), nil
	case config.ProviderDirect:
		direct, err := NewDirectProvider(NewChatClient(ChatConfig{
			APIKey:  cfg.OpenRouterAPIKey,
			BaseURL: cfg.OpenRouterBaseURL,
			Model:   cfg.OpenRouterModel,
			Timeout: cfg.LLMTimeout,
			Limiter: limiter,
		}))
		if err != nil {
			return nil, err
		}
		return direct, nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnsupportedProvider, cfg.ReasoningProvider)
	}
}

// NewToneAdapter resolves TONE_ADAPTER once, at startup.
func NewToneAdapter(cfg *config.Config, limiter *rate.Limiter) (nurse.ToneAdapter, error) {
	switch cfg.ToneAdapter {
	case config.ToneTemplate:
		return TemplateTone{}, nil
	case config.ToneLLM:
		return NewLLMTone(NewChatClient(ChatConfig{
			APIKey:  cfg.ToneAPIKey,
			BaseURL: cfg.ToneBaseURL,
			Model:   cfg.ToneModel,
			Timeout: cfg.LLMTimeout,
			Limiter: limiter,
		})), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnsupportedToneAdapter, cfg.ToneAdapter)
	}
}
