package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"viora-backend/internal/nurse"
)

// ToneFallbackPrefix is prepended to the clinical text whenever the rewrite
// cannot be produced. Callers rely on this exact wording.
const ToneFallbackPrefix = "I’m here with you. Based on what we understand so far:\n\n"

const toneTemperature = 0.4

// ToneFallback returns the verbatim fallback message for clinicalText.
func ToneFallback(clinicalText string) string {
	return ToneFallbackPrefix + clinicalText
}

// TemplateTone composes a mood prefix, the explanation and a risk suffix.
type TemplateTone struct{}

func (TemplateTone) Adapt(_ context.Context, in nurse.ToneInput) nurse.ToneOutcome {
	var prefix string
	switch nurse.Mood(strings.ToLower(strings.TrimSpace(in.Mood))) {
	case nurse.MoodAnxious:
		prefix = "I understand this can feel worrying. "
	case nurse.MoodSad:
		prefix = "I'm really sorry you're feeling this way. "
	case nurse.MoodAngry:
		prefix = "It sounds frustrating to deal with this. "
	}

	var suffix string
	switch in.Risk {
	case nurse.RiskHigh:
		suffix = " Please consider contacting a doctor as soon as possible."
	case nurse.RiskMedium:
		suffix = " It may help to monitor your symptoms closely."
	default:
		suffix = " Many people experience this temporarily."
	}

	return nurse.ToneOutcome{Message: strings.TrimSpace(prefix + in.Explanation + suffix)}
}

// LLMTone rewrites the explanation with the hosted LLM. It never fails: a
// missing key, a failed call or an empty completion all yield ToneFallback.
type LLMTone struct {
	chat Completer
}

// NewLLMTone accepts an unconfigured client; every call then falls back.
func NewLLMTone(chat *ChatClient) *LLMTone {
	if !chat.Configured() {
		return &LLMTone{}
	}
	return &LLMTone{chat: chat}
}

func (t *LLMTone) Adapt(ctx context.Context, in nurse.ToneInput) nurse.ToneOutcome {
	if t.chat == nil {
		return nurse.ToneOutcome{Message: ToneFallback(in.Explanation), Fallback: true}
	}

	content, err := t.chat.Complete(ctx, []ChatMessage{
		{Role: "system", Content: toneSystemPrompt},
		{Role: "user", Content: fmt.Sprintf(toneUserPrompt, in.Risk, in.Explanation)},
	}, toneTemperature)
	if err != nil {
		log.Warn().Err(err).Msg("tone rewrite failed, using fallback")
		return nurse.ToneOutcome{Message: ToneFallback(in.Explanation), Fallback: true}
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nurse.ToneOutcome{Message: ToneFallback(in.Explanation), Fallback: true}
	}
	return nurse.ToneOutcome{Message: content}
}
