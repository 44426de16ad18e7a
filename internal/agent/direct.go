package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"viora-backend/internal/nurse"
)

const (
	ReasonReasoningUnavailable = "reasoning_unavailable"

	// unparsedConfidence is assigned when the model ignores the JSON contract.
	unparsedConfidence   = 0.5
	reasoningTemperature = 0.2
)

// DirectProvider asks the hosted LLM for the explanation itself.
type DirectProvider struct {
	chat Completer
}

// NewDirectProvider fails with ErrMissingAPIKey when the client has no
// credentials. That is a configuration error, not a runtime failure.
func NewDirectProvider(chat *ChatClient) (*DirectProvider, error) {
	if !chat.Configured() {
		return nil, fmt.Errorf("direct reasoning provider: %w", ErrMissingAPIKey)
	}
	return &DirectProvider{chat: chat}, nil
}

type directAnswer struct {
	Explanation string   `json:"explanation"`
	Confidence  *float64 `json:"confidence"`
}

func (p *DirectProvider) Reason(ctx context.Context, req nurse.ReasoningRequest) nurse.Reasoning {
	signalsJSON, err := json.MarshalIndent(req.Signals, "", "  ")
	if err != nil {
		return reasoningFallback()
	}

	content, err := p.chat.Complete(ctx, []ChatMessage{
		{Role: "system", Content: reasoningSystemPrompt},
		{Role: "user", Content: fmt.Sprintf(reasoningUserPrompt, signalsJSON)},
	}, reasoningTemperature)
	if err != nil {
		log.Warn().Err(err).
			Str("patient_id", req.Intake.PatientID).
			Str("reason", ReasonReasoningUnavailable).
			Msg("direct reasoning call failed")
		return reasoningFallback()
	}

	explanation, confidence := parseDirectAnswer(content)
	return nurse.Reasoning{
		Result: nurse.ReasoningResult{
			Explanation:        explanation,
			Confidence:         confidence,
			ConfidenceReported: true,
			RiskLevel:          nurse.RiskUnknown,
			Escalation:         nurse.Escalation{},
			SafetyFlags:        []string{},
			ClinicalSignals:    req.Signals.AsMap(),
		},
	}
}

// parseDirectAnswer reads the {explanation, confidence} object. Anything else
// is treated as plain explanation text with a reduced confidence.
func parseDirectAnswer(content string) (string, float64) {
	raw := strings.TrimSpace(content)
	if raw == "" {
		return missingExplanationText, unparsedConfidence
	}

	var answer directAnswer
	if err := json.Unmarshal([]byte(raw), &answer); err != nil || strings.TrimSpace(answer.Explanation) == "" {
		return raw, unparsedConfidence
	}

	confidence := unparsedConfidence
	if answer.Confidence != nil {
		confidence = clampConfidence(*answer.Confidence)
	}
	return strings.TrimSpace(answer.Explanation), confidence
}

func reasoningFallback() nurse.Reasoning {
	fallback := CentralFallback()
	fallback.Result.Escalation.Reason = ReasonReasoningUnavailable
	fallback.Reason = ReasonReasoningUnavailable
	return fallback
}
